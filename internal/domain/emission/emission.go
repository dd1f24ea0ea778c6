package emission

import (
	"context"
	"time"

	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Record struct {
	Id              ulid.ULID
	OwnerId         ulid.ULID
	EmissionKg      float64
	DistanceKm      float64
	DurationMinutes int
	VehicleType     string
	TripDate        time.Time
	Paid            bool
	CreatedAt       time.Time
}

type Redemption struct {
	Id               ulid.ULID
	EmissionRecordId ulid.ULID
	OwnerId          ulid.ULID
	BeneficiaryId    *ulid.ULID
	TransactionCode  string
	Amount           float64
	EmissionKg       float64
	RecordCount      int
	RedeemedAt       time.Time
}

type RecordEmission struct {
	EmissionKg      float64
	DistanceKm      float64
	DurationMinutes int
	VehicleType     string
}

type UnpaidTotal struct {
	EmissionKg float64 `json:"total_emisi_kg"`
	Records    int64   `json:"records"`
	Period     string  `json:"bulan"`
}

type Redeem struct {
	Amount        float64
	BeneficiaryId *ulid.ULID
}

type Repository interface {
	Create(ctx context.Context, r *Record) error
	UnpaidTotalBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time) (float64, int64, error)
	// RedeemBetween cria o resgate e marca como pagos os registros do período
	// numa única transação. Devolve ErrNoRedeemableBalance quando não há registros.
	RedeemBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time, redemption *Redemption) error
	History(ctx context.Context, ownerID ulid.ULID, pagination *pkg.PaginationParams) ([]*Redemption, int64, error)
}
