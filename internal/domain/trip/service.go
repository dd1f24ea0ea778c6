package trip

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Service struct {
	Repository Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repository: repo}
}

func (s *Service) RecordTrip(ctx context.Context, ownerID ulid.ULID, in RecordTrip) (*Trip, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	owner := ownerID
	trip := &Trip{
		Id:              pkg.GenerateULIDObject(),
		OwnerId:         &owner,
		VehicleSummary:  strings.TrimSpace(in.VehicleSummary),
		DistanceKm:      in.DistanceKm,
		EmissionKg:      in.EmissionKg,
		DurationSeconds: in.DurationSeconds,
		StartedAt:       in.StartedAt,
		EndedAt:         in.EndedAt,
		StartLat:        in.StartLat,
		StartLng:        in.StartLng,
		EndLat:          in.EndLat,
		EndLng:          in.EndLng,
		CreatedAt:       pkg.SetTimestamps(),
	}
	if len(in.RoutePoints) > 0 {
		trip.RoutePoints = make([]RoutePoint, 0, len(in.RoutePoints))
		for _, p := range in.RoutePoints {
			trip.RoutePoints = append(trip.RoutePoints, RoutePoint{Lat: *p.Lat, Lng: *p.Lng})
		}
	}

	if err := s.Repository.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *Service) ListTrips(ctx context.Context, ownerID ulid.ULID) ([]*Trip, error) {
	return s.Repository.ListByOwner(ctx, ownerID)
}

// MonthlySummary soma as emissões das viagens criadas no mês informado (UTC).
func (s *Service) MonthlySummary(ctx context.Context, ownerID ulid.ULID, year, month int) (*MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.NewValidationError("month", "mês deve estar entre 1 e 12")
	}
	if year < 2000 || year > 2100 {
		return nil, appErrors.NewValidationError("year", "ano deve estar entre 2000 e 2100")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	summary, err := s.Repository.SummaryBetween(ctx, ownerID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	summary.Year = year
	summary.Month = month
	return summary, nil
}

func validate(in RecordTrip) error {
	if in.DistanceKm < 0 {
		return appErrors.NewValidationError("distance_km", "distância não pode ser negativa")
	}
	if in.EmissionKg < 0 {
		return appErrors.NewValidationError("emission_kg", "emissão não pode ser negativa")
	}
	if in.DurationSeconds < 0 {
		return appErrors.NewValidationError("duration_seconds", "duração não pode ser negativa")
	}
	if in.StartedAt != nil && in.EndedAt != nil && in.EndedAt.Before(*in.StartedAt) {
		return appErrors.NewValidationError("ended_at", "término deve ser posterior ao início")
	}
	if err := validatePair("start", in.StartLat, in.StartLng); err != nil {
		return err
	}
	if err := validatePair("end", in.EndLat, in.EndLng); err != nil {
		return err
	}
	for i, p := range in.RoutePoints {
		if p.Lat == nil || p.Lng == nil {
			return appErrors.NewValidationError(fmt.Sprintf("route_points.%d", i), "cada ponto da rota exige lat e lng")
		}
		if err := validateCoordinate(fmt.Sprintf("route_points.%d", i), *p.Lat, *p.Lng); err != nil {
			return err
		}
	}
	return nil
}

func validatePair(prefix string, lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return appErrors.NewValidationError(prefix+"_lat", "latitude e longitude devem ser informadas juntas")
	}
	return validateCoordinate(prefix, *lat, *lng)
}

func validateCoordinate(field string, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return appErrors.NewValidationError(field, "coordenada fora do intervalo válido")
	}
	return nil
}
