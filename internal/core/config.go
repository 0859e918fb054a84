package core

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Postgresql
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// NATS, empty disables notification fan-out events.
	NATSURL string `envconfig:"NATS_URL"`

	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Feed cache staleness window. Single-digit seconds is the intended
	// range, the cache is never authoritative.
	FeedCacheTTL time.Duration `envconfig:"FEED_CACHE_TTL" default:"5s"`
}

func (c *Config) Init(_ context.Context) error {
	return envconfig.Process("chirpd", c)
}
