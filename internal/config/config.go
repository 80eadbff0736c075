package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP server
	Port string

	// Storage engine selection: local, remote or memory. Fixed for the
	// process lifetime.
	StorageEngine string

	// Local engine
	LocalDBPath string

	// Remote engine
	SupabaseURL     string
	SupabaseAnonKey string

	// Billing cycle anchor day-of-month for goal/period math
	AnchorDay int

	// Optional AMQP bridge for data-changed notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8081"),
		StorageEngine: getEnv("STORAGE_ENGINE", "local"),
		LocalDBPath:   getEnv("LOCAL_DB_PATH", "./data/kiguca.db"),

		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),

		AnchorDay: getEnvInt("ANCHOR_DAY", 10),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kiguca"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "data_changed"),
	}
}

// Validate returns an error describing every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageEngine {
	case "local", "remote", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid storage engine '%s': must be one of [local remote memory]", c.StorageEngine))
	}

	if c.StorageEngine == "local" {
		if c.LocalDBPath == "" {
			errs = append(errs, "local database path cannot be empty when using the local engine")
		} else if dir := filepath.Dir(c.LocalDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create local database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// A remote selection without credentials is deliberately not an error
	// here: the factory degrades it to the local engine with a warning.

	if c.AnchorDay < 1 || c.AnchorDay > 31 {
		errs = append(errs, fmt.Sprintf("invalid anchor day %d: must be between 1 and 31", c.AnchorDay))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
