package config

import (
	"errors"
	"os"
	"strings"

	"github.com/plannerd/plannerd"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		Path string
	}

	Google struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
		CalendarID   string
	}

	// DefaultOwner identifies the credential used when a request carries no
	// owner header. The app is personal/team scale, one connection per owner.
	DefaultOwner string

	PrometheusEnabled bool
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("PLANNERD_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("PLANNERD_BASE_URL", "http://localhost:8080")
	cfg.DB.Path = getenvDefault("PLANNERD_DB_PATH", "plannerd.db")

	cfg.Google.ClientID = os.Getenv("PLANNERD_GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("PLANNERD_GOOGLE_CLIENT_SECRET")
	cfg.Google.RedirectURL = getenvDefault("PLANNERD_GOOGLE_REDIRECT_URL", cfg.BaseURL+"/calendar/callback")
	cfg.Google.CalendarID = getenvDefault("PLANNERD_GOOGLE_CALENDAR_ID", plannerd.DefaultCalendarID)

	cfg.DefaultOwner = getenvDefault("PLANNERD_DEFAULT_OWNER", "primary-user")
	cfg.PrometheusEnabled = getenvBool("PLANNERD_PROMETHEUS_ENDPOINT_ENABLED", false)

	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return nil, errors.New("PLANNERD_GOOGLE_CLIENT_ID and PLANNERD_GOOGLE_CLIENT_SECRET are required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}
