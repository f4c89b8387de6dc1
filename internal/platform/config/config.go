// Package config carga la configuración del servicio.
//
// Orden de precedencia (el último gana):
//  1. defaults
//  2. archivo YAML (CONFIG_FILE, opcional)
//  3. variables de entorno (.env se carga primero si existe)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AuthMode string

const (
	AuthModeDev AuthMode = "dev"
	AuthModeJWT AuthMode = "jwt"
	AuthModeIAM AuthMode = "iam"
)

type Config struct {
	Port string `yaml:"port"`

	// DBDSN vacío => storage in-memory.
	DBDSN          string `yaml:"db_dsn"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	AppName   string `yaml:"app_name"`

	AuthMode  AuthMode `yaml:"auth_mode"`
	JWTSecret string   `yaml:"jwt_secret"`
	IAMURL    string   `yaml:"iam_base_url"`
	IAMAPIKey string   `yaml:"iam_api_key"`

	ReminderInterval time.Duration `yaml:"reminder_interval"`
	// NotifyWebhookURL vacío => los recordatorios solo se loguean.
	NotifyWebhookURL string        `yaml:"notify_webhook_url"`
	CORSOrigins      []string      `yaml:"cors_origins"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func Default() Config {
	return Config{
		Port:             "8080",
		LogLevel:         "info",
		LogFormat:        "text",
		AppName:          "vet-clinic",
		AuthMode:         AuthModeDev,
		ReminderInterval: 15 * time.Minute,
		CORSOrigins:      []string{"http://localhost:3000"},
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Load arma la config final. envFiles son rutas .env opcionales (si no existen se ignoran).
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) mergeYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &c.Port)
	str("DB_DSN", &c.DBDSN)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("APP_NAME", &c.AppName)
	str("JWT_SECRET", &c.JWTSecret)
	str("IAM_BASE_URL", &c.IAMURL)
	str("IAM_API_KEY", &c.IAMAPIKey)
	str("NOTIFY_WEBHOOK_URL", &c.NotifyWebhookURL)

	if v, ok := lookup("AUTH_MODE"); ok && strings.TrimSpace(v) != "" {
		c.AuthMode = AuthMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("MIGRATE_ON_START"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: MIGRATE_ON_START: %w", err)
		}
		c.MigrateOnStart = b
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.CORSOrigins = splitCSV(v)
	}

	if err := dur("REMINDER_INTERVAL", &c.ReminderInterval); err != nil {
		return err
	}
	if err := dur("READ_TIMEOUT", &c.ReadTimeout); err != nil {
		return err
	}
	return dur("WRITE_TIMEOUT", &c.WriteTimeout)
}

func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if strings.TrimSpace(c.JWTSecret) == "" {
			return errors.New("config: JWT_SECRET required when AUTH_MODE=jwt")
		}
	case AuthModeIAM:
		if strings.TrimSpace(c.IAMURL) == "" || strings.TrimSpace(c.IAMAPIKey) == "" {
			return errors.New("config: IAM_BASE_URL and IAM_API_KEY required when AUTH_MODE=iam")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.ReminderInterval <= 0 {
		return errors.New("config: REMINDER_INTERVAL must be positive")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func splitCSV(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
