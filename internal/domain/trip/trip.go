package trip

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Trip struct {
	Id              ulid.ULID
	OwnerId         *ulid.ULID
	VehicleSummary  string
	DistanceKm      float64
	EmissionKg      float64
	DurationSeconds int64
	StartedAt       *time.Time
	EndedAt         *time.Time
	StartLat        *float64
	StartLng        *float64
	EndLat          *float64
	EndLng          *float64
	RoutePoints     []RoutePoint
	CreatedAt       time.Time
}

// RoutePointInput aceita coordenadas parciais para que a validação aponte o campo ausente.
type RoutePointInput struct {
	Lat *float64
	Lng *float64
}

type RecordTrip struct {
	VehicleSummary  string
	DistanceKm      float64
	EmissionKg      float64
	DurationSeconds int64
	StartedAt       *time.Time
	EndedAt         *time.Time
	StartLat        *float64
	StartLng        *float64
	EndLat          *float64
	EndLng          *float64
	RoutePoints     []RoutePointInput
}

type MonthlySummary struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	TotalEmissionKg float64 `json:"total_emission_kg"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TripCount       int64   `json:"trip_count"`
}

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*Trip, error)
	SummaryBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time) (*MonthlySummary, error)
}
