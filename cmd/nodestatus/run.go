package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/aleph-im/nodestatus/internal/merge"
	"github.com/aleph-im/nodestatus/internal/snapshot"
	"github.com/aleph-im/nodestatus/internal/statemachine"
)

// These cron expressions reproduce the original system's `i % 10` (ETH
// balance refresh), `i % 60` (other-platform balance refresh) and
// `i % 3600` (scores) loop-counter cadences exactly, now as
// cron-expression-driven tickers (§4.7). They are fixed constants; no
// setting or flag overrides them.
const (
	ethBalanceCron    = "@every 10s"
	otherBalanceCron  = "@every 60s"
	scoresCron        = "@every 1h"
	snapshotPublishCron = "@every 10s"
)

// cronTrigger registers spec as a cron job and returns a non-blocking
// channel that receives a tick each time it fires.
func cronTrigger(c *cron.Cron, spec string) (<-chan time.Time, error) {
	ch := make(chan time.Time, 1)
	_, err := c.AddFunc(spec, func() {
		select {
		case ch <- time.Now():
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule cron %q: %w", spec, err)
	}
	return ch, nil
}

func runCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	metricsAddr := fs.String("metrics-addr", ":9090", "address to serve /metrics on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			a.log.WithError(err).Warn("metrics server stopped")
		}
	}()

	store, closeStore, err := a.chainStore()
	if err != nil {
		return err
	}
	defer closeStore()

	c := cron.New()
	balanceTriggers := make(map[string]<-chan time.Time)
	platforms := a.settings.Platforms()
	for _, platform := range platforms {
		spec := otherBalanceCron
		if platform == "ALEPH_ETH" || platform == "ETH" {
			spec = ethBalanceCron
		}
		trigger, err := cronTrigger(c, spec)
		if err != nil {
			return err
		}
		balanceTriggers[platform] = trigger
	}
	messageTrigger, err := cronTrigger(c, otherBalanceCron)
	if err != nil {
		return err
	}
	scoreTrigger, err := cronTrigger(c, scoresCron)
	if err != nil {
		return err
	}
	publishTrigger, err := cronTrigger(c, snapshotPublishCron)
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	sources := make([]merge.Source, 0, len(platforms)+2)
	for _, f := range a.balanceFollowers(store, 0, balanceTriggers) {
		sources = append(sources, f)
	}
	sources = append(sources, a.messageFollower(messageTrigger))
	sources = append(sources, a.scoreFollower(scoreTrigger))

	merger, err := merge.New(ctx, sources)
	if err != nil {
		return fmt.Errorf("build merger: %w", err)
	}

	sm := statemachine.New(a.stateMachineConfig())
	pub := a.publisher(a.settings.AlephAPIServer)

	var latest atomic.Pointer[snapshot.Payload]
	go func() {
		for range publishTrigger {
			payload := latest.Load()
			if payload == nil {
				continue
			}
			if err := pub.PublishSnapshot(ctx, *payload); err != nil {
				a.log.WithError(err).Warn("publish snapshot failed")
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := merger.Next(ctx)
		if err != nil {
			return fmt.Errorf("merge next: %w", err)
		}

		snap, err := sm.Apply(ev)
		if err != nil {
			a.log.WithError(err).Warn("event rejected")
			continue
		}
		if snap == nil {
			continue
		}

		payload := snapshot.Render(snap, a.settings.Decimals)
		latest.Store(&payload)
		a.metrics.SnapshotHeight.Set(float64(snap.Height))
	}
}
