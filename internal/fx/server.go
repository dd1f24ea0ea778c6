package fx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"Ecotrack/config"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/middleware"
	"Ecotrack/internal/obs"
	"Ecotrack/internal/routes"

	docs "Ecotrack/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"go.uber.org/fx"
)

// ServerModule fornece a configuração do servidor HTTP
var ServerModule = fx.Module("server",
	fx.Provide(
		newRouter,
	),
	fx.Invoke(
		setupRoutes,
	),
)

func newRouter(cfg *config.Config) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return gin.Default()
}

func setupRoutes(
	lc fx.Lifecycle,
	cfg *config.Config,
	router *gin.Engine,
	handler *routes.Handler,
	jwtSvc *middleware.JwtService,
	limiter *middleware.RateLimiter,
	identitySvc *identity.Service,
	metrics *obs.Metrics,
) {
	routes.RegisterValidatorTagNames()

	router.Use(middleware.CORSMiddleware())
	router.Use(metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Storage.Driver == "local" {
		router.Static(cfg.Storage.PublicPath, cfg.Storage.LocalDir)
	}

	router.NoRoute(handler.NotFound)

	routes.Register(router.Group("/api"), handler, routes.Guards{
		Auth:     middleware.AuthMiddleware(jwtSvc, identitySvc),
		Optional: middleware.OptionalAuth(jwtSvc, identitySvc),
		Limit:    middleware.RateLimit(limiter),
	})

	serverAddr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("address", serverAddr).
		Str("environment", cfg.App.Environment).
		Msg("Servidor iniciando")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("Falha ao iniciar servidor")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Servidor parando...")
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
