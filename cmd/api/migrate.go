package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/jobs"
	"vet-clinic/internal/router"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas (requiere DB_DSN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.db == nil {
				return errors.New("migrate: DB_DSN is required")
			}

			if !status {
				if err := pg.Migrate(cmd.Context(), rt.db); err != nil {
					return err
				}
			}
			v, err := pg.MigrationVersion(cmd.Context(), rt.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "solo mostrar la versión aplicada")
	return cmd
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Corre una pasada del job de recordatorios y sale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			n, err := notifier(rt)
			if err != nil {
				return err
			}
			svc := router.NewServices(rt.db)
			job := jobs.NewReminderJob(svc.Clinics, svc.Visits, svc.Pets, svc.Owners, n, rt.log)
			sum, err := job.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clinics=%d rolled_over=%d sent=%d skipped=%d failed=%d quota_capped=%d\n",
				sum.Clinics, sum.RolledOver, sum.Sent, sum.Skipped, sum.Failed, sum.QuotaCapped)
			return nil
		},
	}
}
