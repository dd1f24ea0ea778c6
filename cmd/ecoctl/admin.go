package main

import (
	"errors"
	"fmt"

	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/middleware"

	"github.com/spf13/cobra"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Gerencia contas de administrador",
	}
	cmd.AddCommand(adminCreateCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Cadastra um administrador",
		Example: `  ecoctl admin create --name "Admin" --email admin@ecotrack.id --password 'S3nha#forte'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || password == "" {
				return errors.New("--name, --email e --password são obrigatórios")
			}

			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)

			jwtSvc, err := middleware.NewJwtService(cfg.JWT)
			if err != nil {
				return err
			}
			svc := identity.NewService(
				&infrastructure.AdminRepository{DB: db},
				&infrastructure.CitizenRepository{DB: db},
				&infrastructure.TokenRepository{DB: db},
				jwtSvc,
				nil,
				cfg.JWT.TTL,
			)

			admin, err := svc.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Administrador criado: %s (%s)\n", admin.Email, admin.Id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "nome do administrador")
	cmd.Flags().StringVar(&email, "email", "", "email de login")
	cmd.Flags().StringVar(&password, "password", "", "senha inicial")
	return cmd
}
