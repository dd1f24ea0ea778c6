package contracts

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type RoutePointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type TripCreateRequest struct {
	VehicleSummary  string              `json:"vehicle_summary" binding:"required,max=255"`
	DistanceKm      *float64            `json:"distance_km" binding:"required"`
	EmissionKg      *float64            `json:"emission_kg" binding:"required"`
	DurationSeconds *int64              `json:"duration_seconds" binding:"required"`
	StartedAt       *time.Time          `json:"started_at"`
	EndedAt         *time.Time          `json:"ended_at"`
	StartLat        *float64            `json:"start_lat"`
	StartLng        *float64            `json:"start_lng"`
	EndLat          *float64            `json:"end_lat"`
	EndLng          *float64            `json:"end_lng"`
	RoutePoints     []RoutePointRequest `json:"route_points"`
}

type TripResponse struct {
	Id              ulid.ULID            `json:"id"`
	VehicleSummary  string               `json:"vehicle_summary"`
	DistanceKm      float64              `json:"distance_km"`
	EmissionKg      float64              `json:"emission_kg"`
	DurationSeconds int64                `json:"duration_seconds"`
	StartedAt       *time.Time           `json:"started_at"`
	EndedAt         *time.Time           `json:"ended_at"`
	StartLat        *float64             `json:"start_lat"`
	StartLng        *float64             `json:"start_lng"`
	EndLat          *float64             `json:"end_lat"`
	EndLng          *float64             `json:"end_lng"`
	RoutePoints     []RoutePointResponse `json:"route_points"`
	CreatedAt       time.Time            `json:"created_at"`
}

type RoutePointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
