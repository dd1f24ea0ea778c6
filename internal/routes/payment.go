package routes

import (
	"net/http"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/donation"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/middleware"
	"Ecotrack/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxWebhookBody = 64 << 10

func (h *Handler) CreatePayment(c *gin.Context) {
	var body contracts.PaymentCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	programID, err := pkg.ParseULIDPtr(body.ProgramId)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("program_id", "formato inválido"))
		return
	}

	in := donation.CreatePayment{
		Amount:      body.Amount,
		EmissionKg:  body.EmissionKg,
		PayerName:   body.Name,
		PayerEmail:  body.Email,
		PayerPhone:  body.Phone,
		ProgramId:   programID,
		ProgramName: body.ProgramName,
	}
	if p, ok := middleware.GetPrincipal(c); ok && !p.IsAdmin() {
		userID := p.Id
		in.UserId = &userID
	}

	result, err := h.DonationService.CreatePayment(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Transação criada com sucesso", result)
}

// PaymentCallback recebe o webhook do gateway. O corpo bruto é guardado como auditoria.
func (h *Handler) PaymentCallback(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	var body contracts.PaymentNotification
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		h.respondError(c, appErrors.ErrValidation.WithMessage("Corpo da notificação inválido").WithError(err))
		return
	}
	raw, _ := c.Get(gin.BodyBytesKey)
	rawBody, _ := raw.([]byte)

	outcome, err := h.DonationService.HandleWebhook(c.Request.Context(), donation.Notification{
		OrderId:           body.OrderId,
		StatusCode:        body.StatusCode,
		GrossAmount:       body.GrossAmount,
		SignatureKey:      body.SignatureKey,
		TransactionStatus: body.TransactionStatus,
		FraudStatus:       body.FraudStatus,
		PaymentType:       body.PaymentType,
		Raw:               rawBody,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Notificação processada", outcome)
}

func (h *Handler) PaymentStatus(c *gin.Context) {
	status, err := h.DonationService.CheckStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", status)
}
