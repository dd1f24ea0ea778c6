package routes

import (
	"net/http"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/identity"

	"github.com/gin-gonic/gin"
)

func toLoginResponse(s *identity.Session) contracts.LoginResponse {
	return contracts.LoginResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
		User:      s.Principal,
	}
}

func (h *Handler) toCitizenResponse(c *identity.Citizen) contracts.CitizenResponse {
	return contracts.CitizenResponse{Citizen: *c, PhotoURL: h.assetURL(c.PhotoPath)}
}

func (h *Handler) LoginAdmin(c *gin.Context) {
	var body contracts.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	session, err := h.IdentityService.LoginAdmin(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Login realizado com sucesso", toLoginResponse(session))
}

func (h *Handler) LoginCitizen(c *gin.Context) {
	var body contracts.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	session, err := h.IdentityService.LoginCitizen(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Login realizado com sucesso", toLoginResponse(session))
}

func (h *Handler) RegisterCitizen(c *gin.Context) {
	var body contracts.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	citizen, err := h.IdentityService.RegisterCitizen(c.Request.Context(), identity.Register{
		Name:                 body.Name,
		Email:                body.Email,
		Password:             body.Password,
		PasswordConfirmation: body.PasswordConfirmation,
		Phone:                body.Phone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusCreated, "Cadastro realizado com sucesso", h.toCitizenResponse(citizen))
}

func (h *Handler) Logout(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.IdentityService.Logout(c.Request.Context(), p); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Logout realizado com sucesso", nil)
}

func (h *Handler) Me(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, "", p)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	citizen, err := h.IdentityService.GetProfile(c.Request.Context(), p.Id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", h.toCitizenResponse(citizen))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.ProfileUpdateRequest
	if err := c.ShouldBind(&body); err != nil {
		h.bindError(c, err)
		return
	}

	photo, closeFile, err := h.formFile(c, "photo")
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer closeFile()

	citizen, err := h.IdentityService.UpdateProfile(c.Request.Context(), p.Id, identity.ProfileUpdate{
		Name:  body.Name,
		Email: body.Email,
		Phone: body.Phone,
	}, photo)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Perfil atualizado com sucesso", h.toCitizenResponse(citizen))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.ChangePasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.bindError(c, err)
		return
	}

	err = h.IdentityService.ChangePassword(c.Request.Context(), p, identity.PasswordChange{
		OldPassword:          body.OldPassword,
		NewPassword:          body.NewPassword,
		PasswordConfirmation: body.PasswordConfirmation,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Senha alterada com sucesso", nil)
}

func (h *Handler) ListCitizens(c *gin.Context) {
	pagination := h.parsePagination(c)
	citizens, total, err := h.IdentityService.ListCitizens(c.Request.Context(), c.Query("search"), pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.CitizenResponse, 0, len(citizens))
	for _, citizen := range citizens {
		items = append(items, h.toCitizenResponse(citizen))
	}
	h.respondOK(c, http.StatusOK, "", newPage(items, pagination, total))
}

func (h *Handler) GetCitizen(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	citizen, err := h.IdentityService.GetCitizen(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", h.toCitizenResponse(citizen))
}

func (h *Handler) DeleteCitizen(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.IdentityService.DeleteCitizen(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Usuário removido com sucesso", nil)
}
