package infrastructure

import (
	"fmt"

	"Ecotrack/config"
	"Ecotrack/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"
)

func NewDb(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error().
			Err(err).
			Str("driver", cfg.Database.Driver).
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.DBName).
			Msg("Falha ao conectar ao banco de dados")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error().Err(err).Msg("Falha ao obter instância do banco de dados")
		return nil, err
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite serializa escritas; uma conexão evita SQLITE_BUSY nas transações.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.DBName).
		Msg("Conexão com banco de dados estabelecida com sucesso")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return OpenSQLite(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// OpenSQLite usa o driver puro Go (modernc) registrado como "sqlite".
func OpenSQLite(dsn string) gorm.Dialector {
	return sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

func Migrate(db *gorm.DB) error {
	logger.Info().Msg("Executando migrations...")

	entities := []struct {
		name  string
		model interface{}
	}{
		{"Admin", &adminDB{}},
		{"Citizen", &citizenDB{}},
		{"AuthToken", &tokenDB{}},
		{"News", &newsDB{}},
		{"Trip", &tripDB{}},
		{"EmissionRecord", &emissionDB{}},
		{"EmissionPayment", &redemptionDB{}},
		{"Program", &programDB{}},
		{"Donation", &donationDB{}},
	}

	for _, entity := range entities {
		if err := db.AutoMigrate(entity.model); err != nil {
			logger.Error().
				Err(err).
				Str("entity", entity.name).
				Msg("Erro ao migrar entidade")
			return err
		}
	}

	logger.Info().Msg("Migrations executadas com sucesso!")
	return nil
}
