package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Server
		Database
		Sessions
		AutoSync
		Global
	}

	// HTTP configures the local control API the host reader talks to.
	HTTP struct {
		Port int32
		Host string
	}

	// Server configures the remote sync target.
	Server struct {
		BaseURL  string
		Username string
		Password string
		Timeout  time.Duration
	}

	Database struct {
		Path string
	}

	Sessions struct {
		// MinDuration filters accidental opens: sessions shorter than
		// this are discarded, never persisted.
		MinDuration time.Duration
	}

	AutoSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8271)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("server_base_url", "")
	v.SetDefault("server_username", "")
	v.SetDefault("server_password", "")
	v.SetDefault("server_timeout", "30s")
	v.SetDefault("session_min_duration", "60s")
	v.SetDefault("auto_sync_enabled", false)
	v.SetDefault("auto_sync_schedule", "*/30 * * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Server: Server{
			BaseURL:  v.GetString("SERVER_BASE_URL"),
			Username: v.GetString("SERVER_USERNAME"),
			Password: v.GetString("SERVER_PASSWORD"),
			Timeout:  v.GetDuration("SERVER_TIMEOUT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Sessions: Sessions{
			MinDuration: v.GetDuration("SESSION_MIN_DURATION"),
		},
		AutoSync: AutoSync{
			Enabled:  v.GetBool("AUTO_SYNC_ENABLED"),
			Schedule: v.GetString("AUTO_SYNC_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
