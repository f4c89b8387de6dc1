package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vet-clinic/internal/adapters/notify"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/jobs"
	port "vet-clinic/internal/ports/notify"
	"vet-clinic/internal/router"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var noJobs bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP y el job de recordatorios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(cmd.Context(), rt, !noJobs)
		},
	}
	cmd.Flags().BoolVar(&noJobs, "no-jobs", false, "no agendar el job de recordatorios")
	return cmd
}

func serve(parent context.Context, rt *app, withJobs bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rt.db != nil && rt.cfg.MigrateOnStart {
		if err := pg.Migrate(ctx, rt.db); err != nil {
			return err
		}
		rt.log.Info("migrations applied", nil)
	}

	verifier, err := rt.verifier()
	if err != nil {
		return err
	}

	svc := router.NewServices(rt.db)
	handler := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Services:     svc,
		Logger:       rt.log,
		CORSOrigins:  rt.cfg.CORSOrigins,
	})

	if withJobs {
		n, err := notifier(rt)
		if err != nil {
			return err
		}
		job := jobs.NewReminderJob(svc.Clinics, svc.Visits, svc.Pets, svc.Owners, n, rt.log.With(map[string]any{"job": "reminders"}))
		sched, err := jobs.Start(ctx, job, rt.cfg.ReminderInterval)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         rt.cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  rt.cfg.ReadTimeout,
		WriteTimeout: rt.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rt.log.Info("shutting down", nil)
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// notifier: webhook si hay URL, si no solo log.
func notifier(rt *app) (port.Notifier, error) {
	if rt.cfg.NotifyWebhookURL == "" {
		return notify.NewLogNotifier(rt.log), nil
	}
	w, err := notify.NewWebhook(rt.cfg.NotifyWebhookURL, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return w, nil
}
