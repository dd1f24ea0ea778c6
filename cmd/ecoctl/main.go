package main

import (
	"fmt"
	"os"

	"Ecotrack/config"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ecoctl",
		Short:         "Ferramentas administrativas do Ecotrack",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap carrega .env e a configuração e abre o banco, já migrado.
func bootstrap() (*config.Config, *gorm.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("carregar configuração: %w", err)
	}
	logger.Init(cfg)

	db, err := infrastructure.NewDb(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("conectar ao banco: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
