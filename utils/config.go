package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Address               string        `env:"CATS_ADDRESS,ADDRESS" default:":23333" help:"Bind address for the HTTP server"`
	CatAPIURL             string        `name:"cat-api-url" env:"CATS_API_URL" default:"https://api.thecatapi.com" help:"Base URL of the cat image API"`
	DatabasePath          string        `env:"CATS_DATABASE_PATH" default:"./database.db" help:"SQLite file holding the fetch log"`
	SessionTTL            time.Duration `env:"CATS_SESSION_TTL" default:"30m" help:"Idle time after which a gallery view is unmounted"`
	SweepInterval         time.Duration `env:"CATS_SWEEP_INTERVAL" default:"1m" help:"How often idle views and old fetch log entries are removed"`
	FetchLogRetention     time.Duration `env:"CATS_FETCH_LOG_RETENTION" default:"24h" help:"How long fetch log entries are kept"`
	DialTimeout           time.Duration `env:"CATS_DIAL_TIMEOUT" default:"30s" help:"Dial timeout for outbound requests"`
	ResponseHeaderTimeout time.Duration `env:"CATS_RESPONSE_HEADER_TIMEOUT" default:"15s" help:"Time to wait for the cat API response headers"`
	Debug                 bool          `env:"DEBUG" help:"Enable debug logging"`
	LogFormat             string        `env:"CATS_LOG_FORMAT" default:"console" enum:"console,json" help:"Log output format (console, json)"`
}

// Validate is called by kong once the flags are parsed.
func (c *Config) Validate() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.FetchLogRetention <= 0 {
		return fmt.Errorf("fetch log retention must be positive, got %s", c.FetchLogRetention)
	}
	return nil
}

// LoadEnvFiles loads every existing file into the environment. Variables that
// are already set win over the files.
func LoadEnvFiles(files ...string) {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		files = append(files, filepath.Join(homeDir, ".config/catsgallery.env"))
	}
	for _, envFile := range files {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		log.Debug().Str("envFile", envFile).Msg("Loading environment variables from file")
		if err := godotenv.Load(envFile); err != nil {
			log.Error().Err(err).Str("envFile", envFile).Msg("Failed to load environment file")
		}
	}
}
