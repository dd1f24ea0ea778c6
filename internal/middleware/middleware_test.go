package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"Ecotrack/config"
	"Ecotrack/internal/domain/identity"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeAuthenticator struct {
	revoked map[ulid.ULID]bool
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, tokenID, ownerID ulid.ULID, role identity.Role) (*identity.Principal, error) {
	if f.revoked[tokenID] {
		return nil, appErrors.ErrUnauthorized
	}
	return &identity.Principal{Id: ownerID, Role: role, TokenId: tokenID}, nil
}

func newJwt(t *testing.T) *middleware.JwtService {
	t.Helper()
	svc, err := middleware.NewJwtService(config.JWTConfig{Secret: "test-secret", Issuer: "ecotrack", TTL: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func signFor(t *testing.T, svc *middleware.JwtService, role identity.Role) (string, *identity.AuthToken) {
	t.Helper()
	now := time.Now()
	token := &identity.AuthToken{
		Id:        ulid.Make(),
		OwnerId:   ulid.Make(),
		OwnerKind: role,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	signed, err := svc.Sign(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return signed, token
}

func newRouter(svc *middleware.JwtService, auth middleware.Authenticator) *gin.Engine {
	router := gin.New()
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(svc, auth), middleware.RequireRole(identity.RoleAdmin))
	admin.GET("/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	citizen := router.Group("/api/trips")
	citizen.Use(middleware.AuthMiddleware(svc, auth), middleware.RequireCapability(identity.CapRecordEmission))
	citizen.GET("", func(c *gin.Context) {
		p, _ := middleware.GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"role": p.Role})
	})

	router.GET("/api/optional", middleware.OptionalAuth(svc, auth), func(c *gin.Context) {
		_, ok := middleware.GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return router
}

func TestRoleEnforcement(t *testing.T) {
	t.Parallel()

	svc := newJwt(t)
	auth := &fakeAuthenticator{revoked: map[ulid.ULID]bool{}}
	router := newRouter(svc, auth)

	citizenToken, _ := signFor(t, svc, identity.RoleCitizen)
	adminToken, _ := signFor(t, svc, identity.RoleAdmin)
	revokedToken, revoked := signFor(t, svc, identity.RoleAdmin)
	auth.revoked[revoked.Id] = true

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "citizen on admin route", path: "/api/admin/stats", token: citizenToken, status: http.StatusForbidden},
		{name: "admin on admin route", path: "/api/admin/stats", token: adminToken, status: http.StatusOK},
		{name: "missing token", path: "/api/admin/stats", token: "", status: http.StatusUnauthorized},
		{name: "garbage token", path: "/api/admin/stats", token: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "revoked token", path: "/api/admin/stats", token: revokedToken, status: http.StatusUnauthorized},
		{name: "admin on citizen route", path: "/api/trips", token: adminToken, status: http.StatusForbidden},
		{name: "citizen on citizen route", path: "/api/trips", token: citizenToken, status: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestForbiddenEnvelope(t *testing.T) {
	t.Parallel()

	svc := newJwt(t)
	router := newRouter(svc, &fakeAuthenticator{})
	citizenToken, _ := signFor(t, svc, identity.RoleCitizen)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+citizenToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != false || body["error"] != "FORBIDDEN" {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	svc := newJwt(t)
	router := newRouter(svc, &fakeAuthenticator{})
	citizenToken, _ := signFor(t, svc, identity.RoleCitizen)

	for token, want := range map[string]bool{"": false, citizenToken: true, "broken": false} {
		req := httptest.NewRequest(http.MethodGet, "/api/optional", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var body map[string]bool
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if rec.Code != http.StatusOK || body["authenticated"] != want {
			t.Fatalf("token %q: expected authenticated=%v, got %d %v", token, want, rec.Code, body)
		}
	}
}

func TestJwtRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	other, _ := middleware.NewJwtService(config.JWTConfig{Secret: "other-secret", Issuer: "ecotrack"})
	signed, _ := signFor(t, other, identity.RoleAdmin)

	if _, err := newJwt(t).Parse(signed); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestJwtRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := middleware.NewJwtService(config.JWTConfig{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	t.Parallel()

	limiter := middleware.NewRateLimiter(60, 2)
	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected burst to be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("expected other client to be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.POST("/api/masyarakat/login", middleware.RateLimit(middleware.NewRateLimiter(60, 1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/masyarakat/login", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}
