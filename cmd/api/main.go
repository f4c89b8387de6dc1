package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jwtauth "vet-clinic/internal/adapters/auth/jwt"
	"vet-clinic/internal/adapters/auth/iam"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/platform/config"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/auth"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Backend HTTP de clínicas veterinarias",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "archivos .env a cargar (default .env)")
	rootCmd.AddCommand(serveCmd(), migrateCmd(), remindCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app es lo que comparten los subcomandos.
type app struct {
	cfg config.Config
	log logger.Logger
	db  *sql.DB // nil => in-memory
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	rt := &app{cfg: cfg, log: log}
	if dsn := strings.TrimSpace(cfg.DBDSN); dsn != "" {
		db, err := pg.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		rt.db = db
		log.Info("storage: postgres", nil)
	} else {
		log.Warn("storage: in-memory (DB_DSN vacío)", nil)
	}
	return rt, nil
}

func (rt *app) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	if z, ok := rt.log.(*logger.ZapLogger); ok {
		_ = z.Sync()
	}
}

// verifier devuelve nil en modo dev (headers X-Debug-*).
func (rt *app) verifier() (auth.AuthVerifier, error) {
	switch rt.cfg.AuthMode {
	case config.AuthModeJWT:
		v, err := jwtauth.NewVerifier(rt.cfg.JWTSecret, "")
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthModeIAM:
		c, err := iam.NewClient(iam.Config{BaseURL: rt.cfg.IAMURL, APIKey: rt.cfg.IAMAPIKey})
		if err != nil {
			return nil, fmt.Errorf("iam client: %w", err)
		}
		return iam.NewVerifier(c), nil
	default:
		rt.log.Warn("auth: modo dev, se aceptan headers X-Debug-*", nil)
		return nil, nil
	}
}
