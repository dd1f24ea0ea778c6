package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"Ecotrack/internal/domain/trip"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TripRepository struct {
	DB *gorm.DB
}

type tripDB struct {
	Id              string  `gorm:"type:varchar(26);primaryKey"`
	OwnerId         *string `gorm:"type:varchar(26);index"`
	VehicleSummary  string
	DistanceKm      float64 `gorm:"not null;default:0"`
	EmissionKg      float64 `gorm:"not null;default:0"`
	DurationSeconds int64   `gorm:"not null;default:0"`
	StartedAt       *time.Time
	EndedAt         *time.Time
	StartLat        *float64
	StartLng        *float64
	EndLat          *float64
	EndLng          *float64
	RoutePoints     datatypes.JSON
	CreatedAt       time.Time `gorm:"index"`
}

func (tripDB) TableName() string { return "trips" }

func toDomainTrip(row *tripDB) (*trip.Trip, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	owner, err := pkg.ParseULIDPtr(row.OwnerId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}

	points := []trip.RoutePoint{}
	if len(row.RoutePoints) > 0 {
		if err := json.Unmarshal(row.RoutePoints, &points); err != nil {
			return nil, appErrors.ErrInternalServer.WithError(err)
		}
	}

	return &trip.Trip{
		Id:              id,
		OwnerId:         owner,
		VehicleSummary:  row.VehicleSummary,
		DistanceKm:      row.DistanceKm,
		EmissionKg:      row.EmissionKg,
		DurationSeconds: row.DurationSeconds,
		StartedAt:       row.StartedAt,
		EndedAt:         row.EndedAt,
		StartLat:        row.StartLat,
		StartLng:        row.StartLng,
		EndLat:          row.EndLat,
		EndLng:          row.EndLng,
		RoutePoints:     points,
		CreatedAt:       row.CreatedAt,
	}, nil
}

func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	points := t.RoutePoints
	if points == nil {
		points = []trip.RoutePoint{}
	}
	encoded, err := json.Marshal(points)
	if err != nil {
		return appErrors.ErrInternalServer.WithError(err)
	}

	row := &tripDB{
		Id:              t.Id.String(),
		OwnerId:         pkg.ULIDPtrToString(t.OwnerId),
		VehicleSummary:  t.VehicleSummary,
		DistanceKm:      t.DistanceKm,
		EmissionKg:      t.EmissionKg,
		DurationSeconds: t.DurationSeconds,
		StartedAt:       t.StartedAt,
		EndedAt:         t.EndedAt,
		StartLat:        t.StartLat,
		StartLng:        t.StartLng,
		EndLat:          t.EndLat,
		EndLng:          t.EndLng,
		RoutePoints:     datatypes.JSON(encoded),
		CreatedAt:       t.CreatedAt.UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *TripRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*trip.Trip, error) {
	var rows []tripDB
	err := r.DB.WithContext(ctx).Table("trips").
		Where("owner_id = ?", ownerID.String()).
		Order("started_at DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}

	out := make([]*trip.Trip, 0, len(rows))
	for i := range rows {
		t, err := toDomainTrip(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TripRepository) SummaryBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time) (*trip.MonthlySummary, error) {
	var result struct {
		TotalEmissionKg float64
		TotalDistanceKm float64
		TripCount       int64
	}
	err := r.DB.WithContext(ctx).Table("trips").
		Select("COALESCE(SUM(emission_kg), 0) AS total_emission_kg, COALESCE(SUM(distance_km), 0) AS total_distance_km, COUNT(*) AS trip_count").
		Where("owner_id = ? AND created_at >= ? AND created_at < ?", ownerID.String(), from.UTC(), to.UTC()).
		Scan(&result).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	return &trip.MonthlySummary{
		TotalEmissionKg: result.TotalEmissionKg,
		TotalDistanceKm: result.TotalDistanceKm,
		TripCount:       result.TripCount,
	}, nil
}
