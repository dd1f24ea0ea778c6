package fx

import (
	"Ecotrack/config"
	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/donation"
	"Ecotrack/internal/domain/emission"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/news"
	"Ecotrack/internal/domain/program"
	"Ecotrack/internal/domain/trip"
	"Ecotrack/internal/gateway/midtrans"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/middleware"
	"Ecotrack/internal/obs"
	"Ecotrack/internal/storage"

	"go.uber.org/fx"
)

// DomainModule fornece todos os services do domínio
var DomainModule = fx.Module("domain",
	fx.Provide(
		newIdentityService,
		newNewsService,
		newTripService,
		newEmissionService,
		newProgramService,
		newDonationService,
		newDashboardService,
	),
)

func newIdentityService(
	cfg *config.Config,
	admins *infrastructure.AdminRepository,
	citizens *infrastructure.CitizenRepository,
	tokens *infrastructure.TokenRepository,
	jwtSvc *middleware.JwtService,
	assets storage.AssetStore,
) *identity.Service {
	return identity.NewService(admins, citizens, tokens, jwtSvc, assets, cfg.JWT.TTL)
}

func newNewsService(repo *infrastructure.NewsRepository, assets storage.AssetStore) *news.Service {
	return news.NewService(repo, assets)
}

func newTripService(repo *infrastructure.TripRepository) *trip.Service {
	return trip.NewService(repo)
}

func newEmissionService(repo *infrastructure.EmissionRepository) *emission.Service {
	return emission.NewService(repo)
}

func newProgramService(repo *infrastructure.ProgramRepository) *program.Service {
	return program.NewService(repo)
}

func newDonationService(
	cfg *config.Config,
	repo *infrastructure.DonationRepository,
	programs *infrastructure.ProgramRepository,
	gateway *midtrans.Client,
	metrics *obs.Metrics,
) *donation.Service {
	return donation.NewService(repo, programs, gateway, metrics, cfg.Midtrans.Timeout)
}

func newDashboardService(repo *infrastructure.DashboardRepository) *dashboard.Service {
	return dashboard.NewService(repo)
}
