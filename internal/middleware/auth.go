package middleware

import (
	"context"
	"strings"

	"Ecotrack/internal/domain/identity"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	PrincipalKey = "principal"
	UserIDKey    = "user_id"
)

type Authenticator interface {
	Authenticate(ctx context.Context, tokenID, ownerID ulid.ULID, role identity.Role) (*identity.Principal, error)
}

func abortWithError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	payload := gin.H{
		"success": false,
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		payload["errors"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.StatusCode, payload)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func resolvePrincipal(c *gin.Context, jwtSvc *JwtService, auth Authenticator, raw string) (*identity.Principal, error) {
	claims, err := jwtSvc.Parse(raw)
	if err != nil {
		return nil, appErrors.ErrUnauthorized.WithError(err)
	}
	tokenID, err := pkg.ParseULID(claims.ID)
	if err != nil {
		return nil, appErrors.ErrUnauthorized.WithError(err)
	}
	ownerID, err := pkg.ParseULID(claims.Subject)
	if err != nil {
		return nil, appErrors.ErrUnauthorized.WithError(err)
	}
	return auth.Authenticate(c.Request.Context(), tokenID, ownerID, identity.Role(claims.Kind))
}

func setPrincipal(c *gin.Context, p *identity.Principal) {
	c.Set(PrincipalKey, *p)
	c.Set(UserIDKey, p.Id.String())
}

func AuthMiddleware(jwtSvc *JwtService, auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortWithError(c, appErrors.ErrUnauthorized.WithMessage("Token de acesso não informado"))
			return
		}

		principal, err := resolvePrincipal(c, jwtSvc, auth, raw)
		if err != nil {
			abortWithError(c, err)
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth identifica o chamador quando há token válido, sem bloquear requisições anônimas.
func OptionalAuth(jwtSvc *JwtService, auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			if principal, err := resolvePrincipal(c, jwtSvc, auth, raw); err == nil {
				setPrincipal(c, principal)
			}
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return identity.Principal{}, false
	}
	p, ok := value.(identity.Principal)
	return p, ok
}

func RequireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, appErrors.ErrUnauthorized)
			return
		}
		if p.Role != role {
			abortWithError(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

func RequireCapability(capability identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, appErrors.ErrUnauthorized)
			return
		}
		if !p.Has(capability) {
			abortWithError(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
