// Package metrics exposes the prometheus endpoint and the periodic gauges
// that watch table sizes and repost-representation drift.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"chirpd/internal/core"
	"chirpd/internal/persistence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm/schema"
)

var (
	tableCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chirpd_table_estimated_count",
		Help: "Estimated record count for a table",
	}, []string{"table"})

	// A repost is stored twice: the tracking record and the zero-content
	// wrapper chirp. The record is authoritative; a gap between the two
	// gauges means wrappers leaked or went missing.
	repostRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chirpd_repost_records",
		Help: "Number of repost tracking records",
	})
	repostWrappers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chirpd_repost_wrappers",
		Help: "Number of repost wrapper chirps",
	})
)

const collectInterval = 15 * time.Second

type Collector struct {
	Logger *slog.Logger
	DB     *persistence.DB
}

func (c *Collector) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "metrics.Collector")
	return nil
}

func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	for _, tabler := range []schema.Tabler{
		core.User{}, core.Chirp{}, core.Reaction{}, core.Repost{},
		core.Follow{}, core.Block{}, core.Notification{},
	} {
		count, err := c.DB.EstimatedCount(tabler.TableName())
		if err != nil {
			c.Logger.Warn("estimated count failed", "table", tabler.TableName(), "error", err)
			continue
		}
		tableCount.WithLabelValues(tabler.TableName()).Set(float64(count))
	}

	c.collectRepostDrift(ctx)
}

func (c *Collector) collectRepostDrift(ctx context.Context) {
	var records, wrappers int64

	if err := c.DB.Model(&core.Repost{}).WithContext(ctx).Count(&records).Error; err != nil {
		c.Logger.Warn("repost record count failed", "error", err)
		return
	}
	if err := c.DB.Model(&core.Chirp{}).WithContext(ctx).
		Where("repost_of_id IS NOT NULL").Count(&wrappers).Error; err != nil {
		c.Logger.Warn("repost wrapper count failed", "error", err)
		return
	}

	repostRecords.Set(float64(records))
	repostWrappers.Set(float64(wrappers))
	if records != wrappers {
		c.Logger.Warn("repost representations drifted", "records", records, "wrappers", wrappers)
	}
}
