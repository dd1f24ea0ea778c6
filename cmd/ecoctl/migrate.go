package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria ou atualiza as tabelas do banco",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations aplicadas")
			return nil
		},
	}
}
