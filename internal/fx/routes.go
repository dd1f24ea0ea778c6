package fx

import (
	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/donation"
	"Ecotrack/internal/domain/emission"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/news"
	"Ecotrack/internal/domain/program"
	"Ecotrack/internal/domain/trip"
	"Ecotrack/internal/routes"
	"Ecotrack/internal/storage"

	"go.uber.org/fx"
)

// RoutesModule fornece o handler HTTP
var RoutesModule = fx.Module("routes",
	fx.Provide(
		newHandler,
	),
)

func newHandler(
	identitySvc *identity.Service,
	newsSvc *news.Service,
	tripSvc *trip.Service,
	emissionSvc *emission.Service,
	programSvc *program.Service,
	donationSvc *donation.Service,
	dashboardSvc *dashboard.Service,
	assets storage.AssetStore,
) *routes.Handler {
	return &routes.Handler{
		IdentityService:  identitySvc,
		NewsService:      newsSvc,
		TripService:      tripSvc,
		EmissionService:  emissionSvc,
		ProgramService:   programSvc,
		DonationService:  donationSvc,
		DashboardService: dashboardSvc,
		Assets:           assets,
	}
}
