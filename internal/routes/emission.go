package routes

import (
	"net/http"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/emission"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/gin-gonic/gin"
)

func toRedemptionResponse(r *emission.Redemption) contracts.RedemptionResponse {
	return contracts.RedemptionResponse{
		Id:              r.Id,
		TransactionCode: r.TransactionCode,
		Amount:          r.Amount,
		EmissionKg:      r.EmissionKg,
		RecordCount:     r.RecordCount,
		BeneficiaryId:   r.BeneficiaryId,
		RedeemedAt:      r.RedeemedAt,
	}
}

func (h *Handler) RecordEmission(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.EmissionCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	record, err := h.EmissionService.RecordEmission(c.Request.Context(), p.Id, emission.RecordEmission{
		EmissionKg:      *body.EmissionKg,
		DistanceKm:      *body.DistanceKm,
		DurationMinutes: *body.DurationMinutes,
		VehicleType:     body.VehicleType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusCreated, "Emissão registrada com sucesso", contracts.EmissionRecordResponse{
		Id:              record.Id,
		EmissionKg:      record.EmissionKg,
		DistanceKm:      record.DistanceKm,
		DurationMinutes: record.DurationMinutes,
		VehicleType:     record.VehicleType,
		TripDate:        record.TripDate,
		Paid:            record.Paid,
	})
}

func (h *Handler) UnpaidEmissionTotal(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total, err := h.EmissionService.UnpaidTotalForCurrentMonth(c.Request.Context(), p.Id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", total)
}

func (h *Handler) RedeemEmissions(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.RedeemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	beneficiary, err := pkg.ParseULIDPtr(body.BeneficiaryId)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("id_penerima_manfaat", "formato inválido"))
		return
	}

	redemption, err := h.EmissionService.RedeemUnpaidEmissions(c.Request.Context(), p.Id, emission.Redeem{
		Amount:        body.Amount,
		BeneficiaryId: beneficiary,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Pagamento de emissões registrado com sucesso", toRedemptionResponse(redemption))
}

func (h *Handler) RedemptionHistory(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	pagination := h.parsePagination(c)
	history, total, err := h.EmissionService.RedemptionHistory(c.Request.Context(), p.Id, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.RedemptionResponse, 0, len(history))
	for _, r := range history {
		items = append(items, toRedemptionResponse(r))
	}
	h.respondOK(c, http.StatusOK, "", newPage(items, pagination, total))
}
