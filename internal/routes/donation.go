package routes

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/donation"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/gin-gonic/gin"
)

var exportHeader = []string{
	"Transaction ID", "Tanggal", "Nama", "Email", "Phone",
	"Program", "Emisi (kg)", "Nominal", "Payment Method", "Status",
}

func toDonationResponse(d *donation.Donation) contracts.DonationResponse {
	resp := contracts.DonationResponse{
		Id:            d.Id,
		UserId:        d.UserId,
		ProgramId:     d.ProgramId,
		ProgramName:   d.ProgramName,
		PayerName:     d.PayerName,
		PayerEmail:    d.PayerEmail,
		PayerPhone:    d.PayerPhone,
		EmissionKg:    d.EmissionKg,
		Amount:        d.Amount,
		RatePerKg:     d.RatePerKg,
		TransactionId: d.TransactionId,
		PaymentMethod: d.PaymentMethod,
		Status:        string(d.Status),
		PaidAt:        d.PaidAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if len(d.GatewayResponse) > 0 && json.Valid(d.GatewayResponse) {
		resp.GatewayResponse = json.RawMessage(d.GatewayResponse)
	}
	return resp
}

func toExportRow(d *donation.Donation) contracts.DonationExportRow {
	program := d.ProgramName
	if program == "" {
		program = "-"
	}
	method := d.PaymentMethod
	if method == "" {
		method = "-"
	}
	return contracts.DonationExportRow{
		TransactionId: d.TransactionId,
		Date:          d.CreatedAt.Format("2006-01-02 15:04:05"),
		Name:          d.PayerName,
		Email:         d.PayerEmail,
		Phone:         d.PayerPhone,
		Program:       program,
		EmissionKg:    d.EmissionKg,
		Amount:        d.Amount,
		PaymentMethod: method,
		Status:        string(d.Status),
	}
}

func (h *Handler) parseDonationFilter(c *gin.Context) (donation.Filter, error) {
	filter := donation.Filter{
		Status: donation.Status(c.Query("status")),
		Search: c.Query("search"),
	}

	if raw := c.Query("program_id"); raw != "" {
		id, err := pkg.ParseULID(raw)
		if err != nil {
			return filter, appErrors.NewValidationError("program_id", "formato inválido")
		}
		filter.ProgramId = &id
	}

	start, err := h.parseDateQuery(c, "start_date")
	if err != nil {
		return filter, err
	}
	end, err := h.parseDateQuery(c, "end_date")
	if err != nil {
		return filter, err
	}
	filter.StartDate, filter.EndDate = start, end
	return filter, nil
}

func (h *Handler) DonationStats(c *gin.Context) {
	stats, err := h.DonationService.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", stats)
}

func (h *Handler) ListDonations(c *gin.Context) {
	filter, err := h.parseDonationFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	pagination := h.parsePagination(c)
	donations, total, err := h.DonationService.List(c.Request.Context(), filter, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.DonationResponse, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationResponse(d))
	}
	h.respondOK(c, http.StatusOK, "", newPage(items, pagination, total))
}

func (h *Handler) GetDonation(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	d, err := h.DonationService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", toDonationResponse(d))
}

// ExportDonations devolve JSON por padrão ou CSV quando format=csv.
func (h *Handler) ExportDonations(c *gin.Context) {
	filter, err := h.parseDonationFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	donations, err := h.DonationService.Export(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rows := make([]contracts.DonationExportRow, 0, len(donations))
	for _, d := range donations {
		rows = append(rows, toExportRow(d))
	}

	if c.Query("format") != "csv" {
		h.respondOK(c, http.StatusOK, "", rows)
		return
	}

	filename := fmt.Sprintf("donasi_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for _, r := range rows {
		_ = w.Write([]string{
			r.TransactionId,
			r.Date,
			r.Name,
			r.Email,
			r.Phone,
			r.Program,
			strconv.FormatFloat(r.EmissionKg, 'f', -1, 64),
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			r.PaymentMethod,
			r.Status,
		})
	}
	w.Flush()
}

func (h *Handler) DonationProgramOptions(c *gin.Context) {
	options, err := h.ProgramService.ListActiveOptions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", options)
}

func (h *Handler) MyPayments(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	donations, err := h.DonationService.MyPayments(c.Request.Context(), donation.Owner{UserId: p.Id, Email: p.Email})
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.DonationResponse, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationResponse(d))
	}
	h.respondOK(c, http.StatusOK, "", items)
}

func (h *Handler) MySettledEmission(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total, err := h.DonationService.TotalSettledEmission(c.Request.Context(), donation.Owner{UserId: p.Id, Email: p.Email})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", total)
}
