package fx

import (
	"Ecotrack/config"
	"Ecotrack/internal/middleware"

	"go.uber.org/fx"
)

var MiddlewareModule = fx.Module("middleware",
	fx.Provide(
		newJwtService,
		newRateLimiter,
	),
)

func newJwtService(cfg *config.Config) (*middleware.JwtService, error) {
	return middleware.NewJwtService(cfg.JWT)
}

func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
}
