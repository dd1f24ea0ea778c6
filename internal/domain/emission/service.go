package emission

import (
	"context"
	"math"
	"strings"
	"time"

	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

const historyPerPage = 20

type Service struct {
	Repository Repository
	Clock      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{Repository: repo, Clock: time.Now}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *Service) currentMonth() (time.Time, time.Time) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (s *Service) RecordEmission(ctx context.Context, ownerID ulid.ULID, in RecordEmission) (*Record, error) {
	if in.EmissionKg < 0 {
		return nil, appErrors.NewValidationError("emisi_kg", "emissão não pode ser negativa")
	}
	if in.DistanceKm < 0 {
		return nil, appErrors.NewValidationError("jarak_km", "distância não pode ser negativa")
	}
	if in.DurationMinutes < 0 {
		return nil, appErrors.NewValidationError("durasi_menit", "duração não pode ser negativa")
	}
	vehicle := strings.TrimSpace(in.VehicleType)
	if vehicle == "" {
		return nil, appErrors.NewValidationError("jenis_kendaraan", "tipo de veículo é obrigatório")
	}

	now := s.now()
	record := &Record{
		Id:              pkg.GenerateULIDObject(),
		OwnerId:         ownerID,
		EmissionKg:      in.EmissionKg,
		DistanceKm:      in.DistanceKm,
		DurationMinutes: in.DurationMinutes,
		VehicleType:     vehicle,
		TripDate:        now,
		Paid:            false,
		CreatedAt:       now,
	}
	if err := s.Repository.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) UnpaidTotalForCurrentMonth(ctx context.Context, ownerID ulid.ULID) (*UnpaidTotal, error) {
	from, to := s.currentMonth()
	total, count, err := s.Repository.UnpaidTotalBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return &UnpaidTotal{
		EmissionKg: math.Round(total*100) / 100,
		Records:    count,
		Period:     from.Format("January 2006"),
	}, nil
}

// RedeemUnpaidEmissions converte as emissões não pagas do mês corrente em um resgate.
func (s *Service) RedeemUnpaidEmissions(ctx context.Context, ownerID ulid.ULID, in Redeem) (*Redemption, error) {
	if in.Amount <= 0 {
		return nil, appErrors.NewValidationError("jumlah_donasi", "valor da doação deve ser maior que zero")
	}

	now := s.now()
	redemption := &Redemption{
		Id:              pkg.GenerateULIDObject(),
		OwnerId:         ownerID,
		BeneficiaryId:   in.BeneficiaryId,
		TransactionCode: pkg.NewRedemptionCode(now),
		Amount:          in.Amount,
		RedeemedAt:      now,
	}

	from, to := s.currentMonth()
	if err := s.Repository.RedeemBetween(ctx, ownerID, from, to, redemption); err != nil {
		return nil, err
	}

	logger.Info().
		Str("owner_id", ownerID.String()).
		Str("transaction_code", redemption.TransactionCode).
		Int("records", redemption.RecordCount).
		Msg("Emissões resgatadas")
	return redemption, nil
}

func (s *Service) RedemptionHistory(ctx context.Context, ownerID ulid.ULID, pagination *pkg.PaginationParams) ([]*Redemption, int64, error) {
	return s.Repository.History(ctx, ownerID, pkg.NormalizePagination(pagination, historyPerPage))
}
