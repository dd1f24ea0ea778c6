package fx

import (
	"context"

	"Ecotrack/config"
	"Ecotrack/internal/gateway/midtrans"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/obs"
	"Ecotrack/internal/storage"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		newDatabase,
		newAdminRepository,
		newCitizenRepository,
		newTokenRepository,
		newNewsRepository,
		newTripRepository,
		newEmissionRepository,
		newProgramRepository,
		newDonationRepository,
		newDashboardRepository,
		newAssetStore,
		newMidtransClient,
		obs.New,
	),
)

func newDatabase(cfg *config.Config) (*gorm.DB, error) {
	return infrastructure.NewDb(cfg)
}

func newAdminRepository(db *gorm.DB) *infrastructure.AdminRepository {
	return &infrastructure.AdminRepository{DB: db}
}

func newCitizenRepository(db *gorm.DB) *infrastructure.CitizenRepository {
	return &infrastructure.CitizenRepository{DB: db}
}

func newTokenRepository(db *gorm.DB) *infrastructure.TokenRepository {
	return &infrastructure.TokenRepository{DB: db}
}

func newNewsRepository(db *gorm.DB) *infrastructure.NewsRepository {
	return &infrastructure.NewsRepository{DB: db}
}

func newTripRepository(db *gorm.DB) *infrastructure.TripRepository {
	return &infrastructure.TripRepository{DB: db}
}

func newEmissionRepository(db *gorm.DB) *infrastructure.EmissionRepository {
	return &infrastructure.EmissionRepository{DB: db}
}

func newProgramRepository(db *gorm.DB) *infrastructure.ProgramRepository {
	return &infrastructure.ProgramRepository{DB: db}
}

func newDonationRepository(db *gorm.DB) *infrastructure.DonationRepository {
	return &infrastructure.DonationRepository{DB: db}
}

func newDashboardRepository(db *gorm.DB) *infrastructure.DashboardRepository {
	return &infrastructure.DashboardRepository{DB: db}
}

func newAssetStore(cfg *config.Config) (storage.AssetStore, error) {
	return storage.New(context.Background(), cfg)
}

func newMidtransClient(cfg *config.Config) *midtrans.Client {
	return midtrans.NewClient(cfg.Midtrans)
}
