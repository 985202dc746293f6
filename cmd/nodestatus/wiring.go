package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aleph-im/nodestatus/infrastructure/cache"
	"github.com/aleph-im/nodestatus/infrastructure/config"
	"github.com/aleph-im/nodestatus/infrastructure/logger"
	"github.com/aleph-im/nodestatus/infrastructure/metrics"
	"github.com/aleph-im/nodestatus/ingest/chainbalance"
	"github.com/aleph-im/nodestatus/ingest/message"
	"github.com/aleph-im/nodestatus/ingest/score"
	"github.com/aleph-im/nodestatus/internal/statemachine"
	"github.com/aleph-im/nodestatus/publish"
	"github.com/aleph-im/nodestatus/transfer"
)

// app bundles every collaborator cmd/nodestatus wires together, loaded
// once per invocation from Settings.
type app struct {
	settings config.Settings
	log      *logger.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	durable  *cache.DurableStore
	seen     cache.SeenStore
}

func bootstrap() (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: settings.LogOutput,
	})

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	durable, err := cache.OpenDurableStore(settings.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("open durable cache: %w", err)
	}

	var seen cache.SeenStore
	if settings.RedisAddr != "" {
		seen = cache.NewRedisSeenWindow(settings.RedisAddr, 30*time.Minute)
		log.Infof("message ingester dedup window backed by redis at %s", settings.RedisAddr)
	}

	return &app{settings: settings, log: log, metrics: m, registry: registry, durable: durable, seen: seen}, nil
}

func (a *app) close() {
	if a.durable != nil {
		_ = a.durable.Close()
	}
}

func (a *app) stateMachineConfig() statemachine.Config {
	return statemachine.Config{
		NodeThreshold:              a.settings.NodeThreshold,
		StakingThreshold:           a.settings.StakingThreshold,
		ActivationThreshold:        a.settings.ActivationThreshold,
		MaxLinked:                  a.settings.NodeMaxLinked,
		MaxPaid:                    a.settings.NodeMaxPaid,
		BonusStartHeight:           a.settings.BonusStartHeight,
		CRNInactivityThresholdDays: a.settings.CRNInactivityThresholdDays,
		CRNInactivityCutoffHeight:  a.settings.CRNInactivityCutoffHeight,
		BlocksPerDay:               a.settings.BlocksPerDay,
	}
}

// chainStore opens the Postgres balance store shared by every platform
// follower, applying embedded migrations once.
func (a *app) chainStore() (*chainbalance.Store, func(), error) {
	db, err := chainbalance.Open(a.settings.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open balance store: %w", err)
	}
	return chainbalance.NewStore(db), func() { _ = db.Close() }, nil
}

// balanceFollowers returns one chainbalance.Follower per configured
// platform, cursor-resumable via the shared durable cache, keyed by
// platform name.
func (a *app) balanceFollowers(store *chainbalance.Store, maxHeight uint64, triggers map[string]<-chan time.Time) map[string]*chainbalance.Follower {
	followers := make(map[string]*chainbalance.Follower, len(a.settings.Platforms()))
	for _, platform := range a.settings.Platforms() {
		cfg := chainbalance.DefaultConfig(platform)
		cfg.MaxHeight = maxHeight
		if t, ok := triggers[platform]; ok {
			cfg.PollTrigger = t
		}
		followers[platform] = chainbalance.NewFollower(cfg, store, a.durable)
	}
	return followers
}

func (a *app) messageFollower(trigger <-chan time.Time) *message.Follower {
	cfg := message.DefaultConfig()
	cfg.APIServer = a.settings.AlephAPIServer
	cfg.Channel = a.settings.AlephChannel
	cfg.PollTrigger = trigger
	return message.New(cfg, zap.NewNop().Sugar(), a.seen)
}

func (a *app) scoreFollower(trigger <-chan time.Time) *score.Follower {
	cfg := score.DefaultConfig()
	cfg.APIServer = a.settings.AlephAPIServer
	cfg.Channel = a.settings.AlephChannel
	cfg.Senders = a.settings.ScoresSenders()
	cfg.PollTrigger = trigger
	return score.New(cfg, zap.NewNop().Sugar())
}

func (a *app) publisher(apiServer string) *publish.Publisher {
	return publish.New(publish.Config{
		APIServer: apiServer,
		Channel:   a.settings.AlephChannel,
	})
}

func (a *app) batcher(act bool) *transfer.Batcher {
	cfg := transfer.DefaultConfig()
	cfg.BatchSize = a.settings.BatchSize
	var broadcaster transfer.Broadcaster
	if act {
		// A real deployment supplies a signing-wallet Broadcaster here; this
		// repository only prepares and declares batches (transfer's
		// package doc), so `--act` still uses the stub outcome declarer.
		broadcaster = transfer.StubBroadcaster{}
	}
	return transfer.New(cfg, broadcaster)
}
