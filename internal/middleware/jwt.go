package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"Ecotrack/config"
	"Ecotrack/internal/domain/identity"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carrega o dono do token (sub), o tipo de conta (kind) e o id da linha auth_tokens (jti).
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

type JwtService struct {
	secret []byte
	issuer string
}

var _ identity.TokenSigner = (*JwtService)(nil)

func NewJwtService(cfg config.JWTConfig) (*JwtService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "ecotrack"
	}
	return &JwtService{secret: []byte(cfg.Secret), issuer: issuer}, nil
}

func (j *JwtService) Sign(token *identity.AuthToken) (string, error) {
	claims := Claims{
		Kind: string(token.OwnerKind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   token.OwnerId.String(),
			IssuedAt:  jwt.NewNumericDate(token.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
			ID:        token.Id.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (j *JwtService) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithExpirationRequired(), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if !identity.Role(claims.Kind).IsValid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
