package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/pairbook/internal/domain"
)

// Config holds all runtime configuration for pairbook.
type Config struct {
	Port            int
	LogLevel        string
	SnapshotDir     string
	Markets         []domain.Market
	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. It returns an error for any invalid
// value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	snapshotDir := getStr("SNAPSHOT_DIR", "data")

	markets, err := getMarkets("MARKETS")
	if err != nil {
		return nil, fmt.Errorf("invalid MARKETS: %w", err)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		SnapshotDir:     snapshotDir,
		Markets:         markets,
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getMarkets parses a comma-separated list of market definitions, each
// of the form KEY:baseScale:quoteScale:dust:tic, e.g.
// "ETH/DAI:18:18:100:1,BTC/USD:8:2:10:5". An empty variable yields no
// preconfigured markets.
func getMarkets(key string) ([]domain.Market, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}

	var markets []domain.Market
	for _, entry := range strings.Split(v, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf("market entry %q must have form KEY:baseScale:quoteScale:dust:tic", entry)
		}

		baseScale, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("market %q: invalid base scale: %w", parts[0], err)
		}
		quoteScale, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("market %q: invalid quote scale: %w", parts[0], err)
		}
		dust, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("market %q: invalid dust: %w", parts[0], err)
		}
		tic, err := strconv.ParseUint(parts[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("market %q: invalid tic: %w", parts[0], err)
		}

		m := domain.Market{
			Key:        parts[0],
			BaseScale:  uint(baseScale),
			QuoteScale: uint(quoteScale),
			Dust:       dust,
			Tic:        tic,
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("market %q: %w", parts[0], err)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
