package donation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"Ecotrack/internal/domain/program"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

const (
	listPerPage    = 20
	defaultTimeout = 30 * time.Second
)

type ProgramLookup interface {
	GetById(ctx context.Context, id ulid.ULID) (*program.Program, error)
}

type Service struct {
	Repository Repository
	Programs   ProgramLookup
	Gateway    Gateway
	Metrics    Metrics
	Timeout    time.Duration
	Clock      func() time.Time
}

func NewService(repo Repository, programs ProgramLookup, gateway Gateway, metrics Metrics, timeout time.Duration) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if timeout <= 0 || timeout > defaultTimeout {
		timeout = defaultTimeout
	}
	return &Service{
		Repository: repo,
		Programs:   programs,
		Gateway:    gateway,
		Metrics:    metrics,
		Timeout:    timeout,
		Clock:      time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *Service) metrics() Metrics {
	if s.Metrics == nil {
		return nopMetrics{}
	}
	return s.Metrics
}

// CreatePayment grava a doação como pending e abre a transação no gateway.
// Se o gateway falhar a doação continua pending.
func (s *Service) CreatePayment(ctx context.Context, in CreatePayment) (*PaymentResult, error) {
	if err := validatePayment(in); err != nil {
		return nil, err
	}

	programName := strings.TrimSpace(in.ProgramName)
	if in.ProgramId != nil {
		p, err := s.Programs.GetById(ctx, *in.ProgramId)
		if err != nil {
			if appErrors.HasCode(err, appErrors.ErrProgramNotFound.Code) {
				return nil, appErrors.NewValidationError("program_id", "programa de doação não encontrado")
			}
			return nil, err
		}
		if p.Status != program.StatusActive {
			return nil, appErrors.NewValidationError("program_id", "programa de doação não está ativo")
		}
		programName = p.Name
	}

	now := s.now()
	d := &Donation{
		Id:            pkg.GenerateULIDObject(),
		UserId:        in.UserId,
		ProgramId:     in.ProgramId,
		ProgramName:   programName,
		PayerName:     strings.TrimSpace(in.PayerName),
		PayerEmail:    strings.ToLower(strings.TrimSpace(in.PayerEmail)),
		PayerPhone:    strings.TrimSpace(in.PayerPhone),
		EmissionKg:    in.EmissionKg,
		Amount:        in.Amount,
		RatePerKg:     math.Round(in.Amount/in.EmissionKg*100) / 100,
		TransactionId: pkg.NewOrderID(now),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repository.Create(ctx, d); err != nil {
		s.metrics().PaymentCreated("error")
		return nil, err
	}

	logger.Info().
		Str("transaction_id", d.TransactionId).
		Float64("amount", d.Amount).
		Float64("emission_kg", d.EmissionKg).
		Msg("Doação pendente criada")

	// A chamada ao gateway não é abortada se o cliente desconectar.
	gwCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout)
	defer cancel()

	charge, err := s.Gateway.CreateTransaction(gwCtx, ChargeRequest{
		OrderId:       d.TransactionId,
		GrossAmount:   int64(d.Amount),
		CustomerName:  d.PayerName,
		CustomerEmail: d.PayerEmail,
		CustomerPhone: d.PayerPhone,
		ItemId:        "EMISI-" + d.TransactionId,
		ItemName:      itemName(d),
	})
	if err != nil {
		s.metrics().PaymentCreated("gateway_error")
		event := logger.Error().Err(err).Str("transaction_id", d.TransactionId)
		if appErr, ok := appErrors.AsAppError(err); ok {
			event = event.Interface("upstream", appErr.Details)
			event.Msg("Falha ao criar transação no gateway")
			return nil, appErr
		}
		event.Msg("Falha ao criar transação no gateway")
		return nil, appErrors.NewUpstreamError(0, "", err)
	}

	s.metrics().PaymentCreated("created")
	return &PaymentResult{
		OrderId:     d.TransactionId,
		DonationId:  d.Id,
		RedirectURL: charge.RedirectURL,
		Token:       charge.Token,
	}, nil
}

func validatePayment(in CreatePayment) error {
	if in.Amount < 1 {
		return appErrors.NewValidationError("amount", "valor deve ser maior ou igual a 1")
	}
	// o gateway só cobra rupias inteiras; o valor gravado é o mesmo cobrado
	if in.Amount != math.Trunc(in.Amount) {
		return appErrors.NewValidationError("amount", "valor deve ser um número inteiro de rupias")
	}
	if in.EmissionKg <= 0 {
		return appErrors.NewValidationError("emission_kg", "emissão deve ser maior que zero")
	}
	if strings.TrimSpace(in.PayerName) == "" {
		return appErrors.NewValidationError("name", "nome é obrigatório")
	}
	if strings.TrimSpace(in.PayerEmail) == "" {
		return appErrors.NewValidationError("email", "email é obrigatório")
	}
	return nil
}

func itemName(d *Donation) string {
	kg := strconv.FormatFloat(d.EmissionKg, 'f', -1, 64)
	if d.ProgramName != "" {
		return fmt.Sprintf("Tebus Emisi %s Kg - %s", kg, d.ProgramName)
	}
	return fmt.Sprintf("Pembayaran Offset Emisi Karbon - %s Kg CO₂", kg)
}

// HandleWebhook reconcilia uma notificação do gateway. Só a assinatura inválida
// devolve erro; falhas internas são registradas para não provocar reenvios.
func (s *Service) HandleWebhook(ctx context.Context, n Notification) (*WebhookOutcome, error) {
	if !s.Gateway.VerifySignature(n.OrderId, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		s.metrics().WebhookHandled("invalid_signature")
		logger.Warn().
			Str("transaction_id", n.OrderId).
			Str("transaction_status", n.TransactionStatus).
			Msg("Webhook com assinatura inválida")
		return nil, appErrors.ErrInvalidSignature
	}

	outcome := &WebhookOutcome{TransactionId: n.OrderId}
	rec := Reconciliation{
		TransactionId: n.OrderId,
		PaymentMethod: n.PaymentType,
		Payload:       n.Raw,
	}

	status, known := MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if !known {
		logger.Warn().
			Str("transaction_id", n.OrderId).
			Str("transaction_status", n.TransactionStatus).
			Msg("Status de transação desconhecido")
	}
	if known && status.IsTerminal() {
		rec.Target = &status
		if status == StatusSettlement {
			paidAt := s.now()
			rec.PaidAt = &paidAt
		}
	}

	result, err := s.Repository.Reconcile(ctx, rec)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrDonationNotFound.Code) {
			s.metrics().WebhookHandled("unknown_order")
			logger.Warn().Str("transaction_id", n.OrderId).Msg("Webhook para doação inexistente")
			return outcome, nil
		}
		s.metrics().WebhookHandled("error")
		logger.Error().
			Err(err).
			Str("transaction_id", n.OrderId).
			Str("transaction_status", n.TransactionStatus).
			Bytes("payload", n.Raw).
			Msg("Falha ao reconciliar webhook")
		outcome.Matched = true
		outcome.Failed = true
		return outcome, nil
	}

	outcome.Matched = true
	outcome.Status = result.Donation.Status
	outcome.Transitioned = result.Transitioned
	outcome.Credited = result.Credited

	label := "ignored"
	if result.Transitioned {
		label = string(result.Donation.Status)
	}
	s.metrics().WebhookHandled(label)

	logger.Info().
		Str("transaction_id", n.OrderId).
		Str("transaction_status", n.TransactionStatus).
		Str("status", string(result.Donation.Status)).
		Bool("transitioned", result.Transitioned).
		Bool("credited", result.Credited).
		Msg("Webhook processado")
	return outcome, nil
}

// CheckStatus consulta o gateway diretamente, sem tocar no estado local.
func (s *Service) CheckStatus(ctx context.Context, orderID string) (map[string]interface{}, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, appErrors.NewValidationError("order_id", "order_id é obrigatório")
	}
	gwCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	status, err := s.Gateway.Status(gwCtx, orderID)
	if err != nil {
		logger.Error().Err(err).Str("transaction_id", orderID).Msg("Falha ao consultar status no gateway")
		if appErr, ok := appErrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, appErrors.NewUpstreamError(0, "", err)
	}
	return status, nil
}

func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Donation, error) {
	return s.Repository.GetById(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, pagination *pkg.PaginationParams) ([]*Donation, int64, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	return s.Repository.List(ctx, filter, pkg.NormalizePagination(pagination, listPerPage))
}

func (s *Service) Export(ctx context.Context, filter Filter) ([]*Donation, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.Repository.Export(ctx, filter)
}

// MyPayments lista as doações do usuário, mais recentes primeiro.
func (s *Service) MyPayments(ctx context.Context, owner Owner) ([]*Donation, error) {
	owner.Email = strings.ToLower(strings.TrimSpace(owner.Email))
	return s.Repository.ListByOwner(ctx, owner)
}

// TotalSettledEmission soma a emissão das doações liquidadas do usuário.
func (s *Service) TotalSettledEmission(ctx context.Context, owner Owner) (*EmissionTotal, error) {
	owner.Email = strings.ToLower(strings.TrimSpace(owner.Email))
	total, err := s.Repository.SettledEmissionByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &EmissionTotal{TotalEmissionKg: total, Email: owner.Email}, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.Repository.Stats(ctx, from, from.AddDate(0, 1, 0))
}

func validateFilter(f Filter) error {
	if f.Status != "" && !f.Status.IsValid() {
		return appErrors.NewValidationError("status", "status inválido")
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return appErrors.NewValidationError("end_date", "data final deve ser igual ou posterior à inicial")
	}
	return nil
}
