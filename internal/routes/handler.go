package routes

import (
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"time"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/donation"
	"Ecotrack/internal/domain/emission"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/news"
	"Ecotrack/internal/domain/program"
	"Ecotrack/internal/domain/trip"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/middleware"
	"Ecotrack/internal/pkg"
	"Ecotrack/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

type Handler struct {
	IdentityService  *identity.Service
	NewsService      *news.Service
	TripService      *trip.Service
	EmissionService  *emission.Service
	ProgramService   *program.Service
	DonationService  *donation.Service
	DashboardService *dashboard.Service
	Assets           storage.AssetStore
}

// RegisterValidatorTagNames faz os erros de validação usarem o nome do campo JSON (ou de formulário).
func RegisterValidatorTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

func (h *Handler) principal(c *gin.Context) (identity.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return identity.Principal{}, appErrors.ErrUnauthorized
	}
	return p, nil
}

func (h *Handler) parseID(c *gin.Context, name string) (ulid.ULID, error) {
	raw := c.Param(name)
	if raw == "" {
		return ulid.ULID{}, appErrors.NewValidationError(name, "é obrigatório")
	}
	id, err := pkg.ParseULID(raw)
	if err != nil {
		return ulid.ULID{}, appErrors.NewValidationError(name, "formato inválido")
	}
	return id, nil
}

func (h *Handler) parsePagination(c *gin.Context) *pkg.PaginationParams {
	params := &pkg.PaginationParams{}
	if p, err := pkg.ParseInt(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		params.Page = p
	} else {
		params.Page = 1
	}
	if l, err := pkg.ParseInt(c.Query("per_page")); err == nil && l > 0 {
		params.PerPage = l
	}
	return params
}

func (h *Handler) parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	return parseDate(name, raw)
}

// formFile lê um upload opcional; ausência do campo não é erro.
func (h *Handler) formFile(c *gin.Context, field string) (*storage.File, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, func() {}, nil
		}
		return nil, func() {}, appErrors.NewValidationError(field, "upload inválido")
	}
	return openUpload(field, header)
}

func openUpload(field string, header *multipart.FileHeader) (*storage.File, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.NewValidationError(field, "upload inválido")
	}
	file := &storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return file, func() { _ = f.Close() }, nil
}

func (h *Handler) assetURL(path string) string {
	if path == "" || h.Assets == nil {
		return ""
	}
	return h.Assets.URL(path)
}

func (h *Handler) bindError(c *gin.Context, err error) {
	h.respondError(c, appErrors.ParseValidationErrors(err))
}

func (h *Handler) respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, contracts.SuccessResponse{Success: true, Message: message, Data: data})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	event := logger.Warn()
	if appErr.StatusCode >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event = event.Str("code", appErr.Code).Str("path", c.FullPath())
	if appErr.Err != nil {
		event = event.Err(appErr.Err)
	}
	event.Msg("request_error")

	payload := contracts.ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		Message: appErr.Message,
	}
	if len(appErr.Details) > 0 {
		payload.Errors = appErr.Details
	}
	c.JSON(appErr.StatusCode, payload)
}

func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, contracts.ErrorResponse{
		Success: false,
		Error:   "NOT_FOUND",
		Message: "Rota não encontrada",
	})
}

func newPage[T any](items []T, pagination *pkg.PaginationParams, total int64) *pkg.PaginatedResponse[T] {
	return pkg.NewPaginatedResponse(items, pagination.Page, pagination.PerPage, total)
}
