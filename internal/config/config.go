// Package config loads service settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // DRAW_TIMEZONE must resolve in distroless images

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the full service configuration.
type Config struct {
	Port               string
	ProjectID          string
	Credentials        string
	StorageBucket      string
	CORSAllowedOrigins []string

	Email     EmailConfig
	Lottery   LotteryConfig
	UploadTTL time.Duration
}

// EmailConfig configures outgoing notifications. An empty ResendAPIKey
// disables delivery; messages are logged instead.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	AdminEmail   string
	AppURL       string
}

// LotteryConfig configures draws.
type LotteryConfig struct {
	Schedule       string // cron spec; empty disables scheduled draws
	Timezone       string
	DefaultWinners int
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error

	winners, err := strconv.Atoi(get("DEFAULT_WINNERS", "1"))
	if err != nil || winners < 1 {
		errs = append(errs, fmt.Errorf("DEFAULT_WINNERS must be a positive integer, got %q", get("DEFAULT_WINNERS", "1")))
	}

	uploadTTL, err := time.ParseDuration(get("UPLOAD_URL_TTL", "15m"))
	if err != nil || uploadTTL <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_URL_TTL must be a positive duration, got %q", get("UPLOAD_URL_TTL", "15m")))
	}

	schedule := get("DRAW_SCHEDULE", "*/15 * * * *")
	if schedule == "off" {
		schedule = ""
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			errs = append(errs, fmt.Errorf("DRAW_SCHEDULE: %w", err))
		}
	}

	tz := get("DRAW_TIMEZONE", "Asia/Tokyo")
	if _, err := time.LoadLocation(tz); err != nil {
		errs = append(errs, fmt.Errorf("DRAW_TIMEZONE: %w", err))
	}

	port := get("PORT", "8080")
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a TCP port, got %q", port))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var origins []string
	for o := range strings.SplitSeq(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Port: port,
		ProjectID: get("FIREBASE_PROJECT_ID",
			get("GOOGLE_CLOUD_PROJECT", "demo-freebies-japan")),
		Credentials:        get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		StorageBucket:      get("STORAGE_BUCKET", ""),
		CORSAllowedOrigins: origins,
		Email: EmailConfig{
			ResendAPIKey: get("RESEND_API_KEY", ""),
			From:         get("EMAIL_FROM", "Freebies Japan <noreply@freebies-japan.com>"),
			AdminEmail:   get("ADMIN_EMAIL", ""),
			AppURL:       strings.TrimRight(get("APP_URL", "http://localhost:5173"), "/"),
		},
		Lottery: LotteryConfig{
			Schedule:       schedule,
			Timezone:       tz,
			DefaultWinners: winners,
		},
		UploadTTL: uploadTTL,
	}, nil
}
