package routes

import (
	"net/http"
	"time"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/program"
	appErrors "Ecotrack/internal/errors"

	"github.com/gin-gonic/gin"
)

func toProgramResponse(p *program.Program) contracts.ProgramResponse {
	return contracts.ProgramResponse{
		Id:                 p.Id,
		Name:               p.Name,
		Description:        p.Description,
		Organizer:          p.Organizer,
		SettlementAccount:  p.SettlementAccount,
		Icon:               p.Icon,
		TargetNumber:       p.TargetNumber,
		TargetUnit:         p.TargetUnit,
		CurrentProgress:    p.CurrentProgress,
		TargetAmount:       p.TargetAmount,
		TotalCollected:     p.TotalCollected,
		ProgressPercentage: p.ProgressPercentage(),
		Status:             string(p.Status),
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func parseDate(field, raw string) (*time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, appErrors.NewValidationError(field, "data deve estar no formato AAAA-MM-DD")
	}
	return &t, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	return parseDate(field, *raw)
}

func (h *Handler) ListActivePrograms(c *gin.Context) {
	programs, err := h.ProgramService.ListActive(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.ProgramResponse, 0, len(programs))
	for _, p := range programs {
		items = append(items, toProgramResponse(p))
	}
	h.respondOK(c, http.StatusOK, "", items)
}

func (h *Handler) ListPrograms(c *gin.Context) {
	pagination := h.parsePagination(c)
	filter := program.Filter{
		Search: c.Query("search"),
		Status: program.Status(c.Query("status")),
	}

	programs, total, err := h.ProgramService.List(c.Request.Context(), filter, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.ProgramResponse, 0, len(programs))
	for _, p := range programs {
		items = append(items, toProgramResponse(p))
	}
	h.respondOK(c, http.StatusOK, "", newPage(items, pagination, total))
}

func (h *Handler) GetProgram(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	p, err := h.ProgramService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", toProgramResponse(p))
}

func (h *Handler) CreateProgram(c *gin.Context) {
	var body contracts.ProgramCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	start, err := parseDate("start_date", body.StartDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	end, err := parseDate("end_date", body.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	p, err := h.ProgramService.Create(c.Request.Context(), program.CreateProgram{
		Name:              body.Name,
		Description:       body.Description,
		Organizer:         body.Organizer,
		SettlementAccount: body.SettlementAccount,
		Icon:              body.Icon,
		TargetNumber:      body.TargetNumber,
		TargetUnit:        body.TargetUnit,
		CurrentProgress:   body.CurrentProgress,
		TargetAmount:      body.TargetAmount,
		Status:            program.Status(body.Status),
		StartDate:         start,
		EndDate:           end,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusCreated, "Programa criado com sucesso", toProgramResponse(p))
}

func (h *Handler) UpdateProgram(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.ProgramUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	start, err := parseOptionalDate("start_date", body.StartDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", body.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := program.UpdateProgram{
		Name:              body.Name,
		Description:       body.Description,
		Organizer:         body.Organizer,
		SettlementAccount: body.SettlementAccount,
		Icon:              body.Icon,
		TargetNumber:      body.TargetNumber,
		TargetUnit:        body.TargetUnit,
		CurrentProgress:   body.CurrentProgress,
		TargetAmount:      body.TargetAmount,
		StartDate:         start,
		EndDate:           end,
	}
	if body.Status != nil {
		status := program.Status(*body.Status)
		in.Status = &status
	}

	p, err := h.ProgramService.Update(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Programa atualizado com sucesso", toProgramResponse(p))
}

func (h *Handler) DeleteProgram(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.ProgramService.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Programa removido com sucesso", nil)
}
