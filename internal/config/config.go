// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server, storage, and the
// notification collaborator.
type Config struct {
	ServiceName     string
	Env             string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// DatabaseURL selects the Postgres backend when set; the in-memory
	// backend is used otherwise.
	DatabaseURL string

	// CatalogSeed is a comma-separated list of id:title:price:qty entries
	// loaded into the in-memory catalog on boot.
	CatalogSeed string

	// NotifyWebhookURL selects the webhook notifier when set; placed orders
	// are logged otherwise.
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	OTLPEndpoint string
}

func Load() Config {
	return Config{
		ServiceName:      getenv("SERVICE_NAME", "fulfillment"),
		Env:              getenv("ENV", "dev"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  durenvs("SHUTDOWN_TIMEOUT_SECONDS", 10),
		DatabaseURL:      getenv("DATABASE_URL", ""),
		CatalogSeed:      getenv("CATALOG_SEED", ""),
		NotifyWebhookURL: getenv("NOTIFY_WEBHOOK_URL", ""),
		NotifyTimeout:    durenvs("NOTIFY_TIMEOUT_SECONDS", 5),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}
