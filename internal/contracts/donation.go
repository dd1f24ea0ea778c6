package contracts

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

type PaymentCreateRequest struct {
	Amount      float64 `json:"amount" binding:"required,gte=1"`
	EmissionKg  float64 `json:"emission_kg" binding:"required,gt=0"`
	Name        string  `json:"name" binding:"required,max=255"`
	Email       string  `json:"email" binding:"required,email,max=255"`
	Phone       string  `json:"phone" binding:"omitempty,max=20"`
	ProgramId   *string `json:"program_id"`
	ProgramName string  `json:"program_name" binding:"omitempty,max=255"`
}

// PaymentNotification é o corpo do webhook do Midtrans; campos extras ficam no payload bruto.
type PaymentNotification struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

type DonationResponse struct {
	Id              ulid.ULID       `json:"id"`
	UserId          *ulid.ULID      `json:"user_id"`
	ProgramId       *ulid.ULID      `json:"program_id"`
	ProgramName     string          `json:"program_name"`
	PayerName       string          `json:"user_name"`
	PayerEmail      string          `json:"user_email"`
	PayerPhone      string          `json:"user_phone"`
	EmissionKg      float64         `json:"emisi_kg"`
	Amount          float64         `json:"nominal_donasi"`
	RatePerKg       float64         `json:"rate_per_kg"`
	TransactionId   string          `json:"transaction_id"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"payment_status"`
	PaidAt          *time.Time      `json:"paid_at"`
	GatewayResponse json.RawMessage `json:"payment_response,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type DonationExportRow struct {
	TransactionId string  `json:"Transaction ID"`
	Date          string  `json:"Tanggal"`
	Name          string  `json:"Nama"`
	Email         string  `json:"Email"`
	Phone         string  `json:"Phone"`
	Program       string  `json:"Program"`
	EmissionKg    float64 `json:"Emisi (kg)"`
	Amount        float64 `json:"Nominal"`
	PaymentMethod string  `json:"Payment Method"`
	Status        string  `json:"Status"`
}
