package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"syscall"
	"time"

	"chirpd/internal/api"
	"chirpd/internal/cache"
	"chirpd/internal/core"
	"chirpd/internal/effects"
	"chirpd/internal/engagement"
	"chirpd/internal/events"
	"chirpd/internal/feed"
	"chirpd/internal/metrics"
	"chirpd/internal/persistence"
	"chirpd/internal/persistence/blocks"
	"chirpd/internal/persistence/chirps"
	"chirpd/internal/persistence/follows"
	"chirpd/internal/persistence/notifications"
	"chirpd/internal/persistence/reactions"
	"chirpd/internal/persistence/reposts"
	"chirpd/internal/persistence/users"

	"github.com/zhulik/pal"
)

func storeServices() []pal.ServiceImpl {
	return []pal.ServiceImpl{
		pal.Provide[*persistence.DB, persistence.DB](),
		pal.Provide[core.ChirpRepository, chirps.Repository](),
		pal.Provide[core.UserRepository, users.Repository](),
		pal.Provide[core.ReactionRepository, reactions.Repository](),
		pal.Provide[core.RepostRepository, reposts.Repository](),
		pal.Provide[core.FollowRepository, follows.Repository](),
		pal.Provide[core.BlockRepository, blocks.Repository](),
		pal.Provide[core.NotificationRepository, notifications.Repository](),
	}
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: chirpd <serve|migrate|metrics-server>")
	}

	if err := initLogger(os.Getenv("CHIRPD_LOG_LEVEL")); err != nil {
		log.Fatal(err)
	}

	services := []pal.ServiceImpl{
		pal.ProvideConst[*slog.Logger](slog.Default()),
		pal.Provide[*core.Config, core.Config](),
	}

	switch os.Args[1] {
	case "serve":
		services = append(services, storeServices()...)
		services = append(services,
			pal.Provide[core.FeedCache, cache.TTL](),
			pal.Provide[core.EngagementSource, engagement.Aggregator](),
			pal.Provide[core.EventPublisher, events.Publisher](),
			pal.Provide[*feed.Assembler, feed.Assembler](),
			pal.Provide[*effects.Coordinator, effects.Coordinator](),
			pal.Provide[*api.Server, api.Server](),
			pal.Provide[*metrics.Collector, metrics.Collector](),
			pal.Provide[*metrics.Server, metrics.Server](),
		)

	case "metrics-server":
		services = append(services,
			pal.Provide[*persistence.DB, persistence.DB](),
			pal.Provide[*metrics.Collector, metrics.Collector](),
			pal.Provide[*metrics.Server, metrics.Server](),
		)

	case "migrate":
		services = append(services,
			pal.Provide[*persistence.DB, persistence.DB](),
			pal.Provide[*persistence.Migrator, persistence.Migrator](),
		)

	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	err := pal.New(services...).
		InitTimeout(10*time.Second).
		HealthCheckTimeout(time.Second).
		ShutdownTimeout(10*time.Second).
		Run(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if err != nil {
		log.Fatal(err)
	}
}
