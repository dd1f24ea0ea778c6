package routes

import (
	"net/http"
	"strconv"
	"time"

	"Ecotrack/internal/domain/dashboard"
	appErrors "Ecotrack/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.DashboardService.GetStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", counts)
}

func (h *Handler) GetDetailedStats(c *gin.Context) {
	detailed, err := h.DashboardService.GetDetailed(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.withImageURLs(detailed.News.Latest)
	h.respondOK(c, http.StatusOK, "", detailed)
}

func (h *Handler) GetOverview(c *gin.Context) {
	overview, err := h.DashboardService.GetOverview(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.withImageURLs(overview.RecentNews)
	h.respondOK(c, http.StatusOK, "", overview)
}

func (h *Handler) GetMonthlyStats(c *gin.Context) {
	year := time.Now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, appErrors.NewValidationError("year", "deve ser um número entre 2000 e 2100"))
			return
		}
		year = y
	}

	monthly, err := h.DashboardService.GetMonthly(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", monthly)
}

func (h *Handler) withImageURLs(items []dashboard.NewsItem) {
	for i := range items {
		items[i].ImageURL = h.assetURL(items[i].ImagePath)
	}
}
