package routes

import (
	"net/http"
	"strconv"
	"time"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/trip"
	appErrors "Ecotrack/internal/errors"

	"github.com/gin-gonic/gin"
)

func toTripResponse(t *trip.Trip) contracts.TripResponse {
	points := make([]contracts.RoutePointResponse, 0, len(t.RoutePoints))
	for _, p := range t.RoutePoints {
		points = append(points, contracts.RoutePointResponse{Lat: p.Lat, Lng: p.Lng})
	}
	return contracts.TripResponse{
		Id:              t.Id,
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
		RoutePoints:     points,
		CreatedAt:       t.CreatedAt,
	}
}

func (h *Handler) RecordTrip(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.TripCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	points := make([]trip.RoutePointInput, 0, len(body.RoutePoints))
	for _, rp := range body.RoutePoints {
		points = append(points, trip.RoutePointInput{Lat: rp.Lat, Lng: rp.Lng})
	}

	recorded, err := h.TripService.RecordTrip(c.Request.Context(), p.Id, trip.RecordTrip{
		VehicleSummary:  body.VehicleSummary,
		DistanceKm:      *body.DistanceKm,
		EmissionKg:      *body.EmissionKg,
		DurationSeconds: *body.DurationSeconds,
		StartedAt:       body.StartedAt,
		EndedAt:         body.EndedAt,
		StartLat:        body.StartLat,
		StartLng:        body.StartLng,
		EndLat:          body.EndLat,
		EndLng:          body.EndLng,
		RoutePoints:     points,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusCreated, "Viagem registrada com sucesso", toTripResponse(recorded))
}

func (h *Handler) ListTrips(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	trips, err := h.TripService.ListTrips(c.Request.Context(), p.Id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.TripResponse, 0, len(trips))
	for _, t := range trips {
		items = append(items, toTripResponse(t))
	}
	h.respondOK(c, http.StatusOK, "", items)
}

func (h *Handler) MonthlyEmissions(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, appErrors.NewValidationError("year", "deve ser um número"))
			return
		}
		year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, appErrors.NewValidationError("month", "deve ser um número"))
			return
		}
		month = m
	}

	summary, err := h.TripService.MonthlySummary(c.Request.Context(), p.Id, year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", summary)
}
