package donation

import (
	"context"
	"time"

	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusSettlement Status = "settlement"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSettlement, StatusFailed, StatusExpired:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusSettlement || s == StatusFailed || s == StatusExpired
}

// MapGatewayStatus traduz o transaction_status do gateway para o modelo interno.
// known=false indica um status desconhecido, que não altera a doação.
func MapGatewayStatus(transactionStatus, fraudStatus string) (status Status, known bool) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return StatusPending, true
		}
		return StatusSettlement, true
	case "settlement":
		return StatusSettlement, true
	case "pending":
		return StatusPending, true
	case "deny", "expire", "cancel", "failure":
		return StatusFailed, true
	}
	return "", false
}

type Donation struct {
	Id              ulid.ULID
	UserId          *ulid.ULID
	ProgramId       *ulid.ULID
	ProgramName     string
	PayerName       string
	PayerEmail      string
	PayerPhone      string
	EmissionKg      float64
	Amount          float64
	RatePerKg       float64
	TransactionId   string
	PaymentMethod   string
	Status          Status
	PaidAt          *time.Time
	GatewayResponse []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreatePayment struct {
	Amount      float64
	EmissionKg  float64
	PayerName   string
	PayerEmail  string
	PayerPhone  string
	ProgramId   *ulid.ULID
	ProgramName string
	UserId      *ulid.ULID
}

type PaymentResult struct {
	OrderId     string    `json:"order_id"`
	DonationId  ulid.ULID `json:"donation_id"`
	RedirectURL string    `json:"redirect_url"`
	Token       string    `json:"token"`
}

// Notification é o corpo do webhook enviado pelo gateway.
type Notification struct {
	OrderId           string
	StatusCode        string
	GrossAmount       string
	SignatureKey      string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	Raw               []byte
}

// Reconciliation descreve a escrita que o webhook pede ao repositório.
// Target nil significa que apenas o payload de auditoria é gravado.
type Reconciliation struct {
	TransactionId string
	Target        *Status
	PaymentMethod string
	PaidAt        *time.Time
	Payload       []byte
}

type ReconcileResult struct {
	Donation     *Donation
	Transitioned bool
	Credited     bool
}

type WebhookOutcome struct {
	TransactionId string `json:"order_id"`
	Status        Status `json:"status,omitempty"`
	Transitioned  bool   `json:"transitioned"`
	Credited      bool   `json:"credited"`
	Matched       bool   `json:"matched"`
	Failed        bool   `json:"-"`
}

type Filter struct {
	ProgramId *ulid.ULID
	Status    Status
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// Owner identifica as doações de um usuário: as vinculadas ao id e as feitas
// sem login com o mesmo email.
type Owner struct {
	UserId ulid.ULID
	Email  string
}

type EmissionTotal struct {
	TotalEmissionKg float64 `json:"total_emisi"`
	Email           string  `json:"email"`
}

type ProgramTotal struct {
	ProgramName string  `json:"program_name"`
	Count       int64   `json:"total"`
	Amount      float64 `json:"total_nominal"`
}

type Stats struct {
	TotalAmount       float64          `json:"total_donasi"`
	TotalEmissionKg   float64          `json:"total_emisi"`
	TotalTransactions int64            `json:"total_transaksi"`
	TotalDonors       int64            `json:"total_donatur"`
	ThisMonthAmount   float64          `json:"donasi_bulan_ini"`
	PerStatus         map[string]int64 `json:"donasi_per_status"`
	PerProgram        []ProgramTotal   `json:"donasi_per_program"`
}

type Repository interface {
	Create(ctx context.Context, d *Donation) error
	GetById(ctx context.Context, id ulid.ULID) (*Donation, error)
	GetByTransactionId(ctx context.Context, transactionID string) (*Donation, error)
	// Reconcile aplica o webhook numa única transação: grava o payload, faz a
	// transição condicional pending -> terminal e credita o programa somente
	// quando essa transição afetou a linha.
	Reconcile(ctx context.Context, rec Reconciliation) (*ReconcileResult, error)
	List(ctx context.Context, filter Filter, pagination *pkg.PaginationParams) ([]*Donation, int64, error)
	Export(ctx context.Context, filter Filter) ([]*Donation, error)
	Stats(ctx context.Context, monthFrom, monthTo time.Time) (*Stats, error)
	ListByOwner(ctx context.Context, owner Owner) ([]*Donation, error)
	SettledEmissionByOwner(ctx context.Context, owner Owner) (float64, error)
}

type ChargeRequest struct {
	OrderId       string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ItemId        string
	ItemName      string
}

type Charge struct {
	Token       string
	RedirectURL string
}

// Gateway é o provedor externo de pagamentos.
type Gateway interface {
	CreateTransaction(ctx context.Context, req ChargeRequest) (*Charge, error)
	Status(ctx context.Context, orderID string) (map[string]interface{}, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

type Metrics interface {
	PaymentCreated(result string)
	WebhookHandled(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) PaymentCreated(string) {}
func (nopMetrics) WebhookHandled(string) {}
