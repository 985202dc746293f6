// Package publish pushes a serialized snapshot to the aggregate store and
// a distribution result as a post; neither post is signed. It is a thin
// HTTP boundary: on
// an unreachable store it logs and records the payload locally rather than
// blocking the orchestrator, since a publish failure must never corrupt
// or stall the state machine it observes.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleph-im/nodestatus/internal/snapshot"
	"github.com/aleph-im/nodestatus/transfer"
)

// Distribution status values, set by the CLI mode discriminator (§6).
const (
	StatusCalculation  = "calculation"
	StatusSimulation   = "simulation"
	StatusDistribution = "distribution"
)

// Distribution is the published distribution post's payload.
type Distribution struct {
	Incentive   string                  `json:"incentive"`
	Status      string                  `json:"status"`
	StartHeight uint64                  `json:"start_height"`
	EndHeight   uint64                  `json:"end_height"`
	Rewards     map[string]float64      `json:"rewards"`
	Targets     []transfer.BatchResult  `json:"targets,omitempty"`
}

// Config controls the aggregate store endpoint, channel, and local
// fallback directory used when the store is unreachable.
type Config struct {
	APIServer  string
	Channel    string
	Timeout    time.Duration
	FallbackDir string
}

// Publisher posts snapshots and distribution results to the aggregate
// store, with a structured zerolog logger at this HTTP-call-site boundary
// (the cmd/nodestatus orchestrator logs through logrus; see
// infrastructure/logger).
type Publisher struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// New returns a Publisher posting to cfg.APIServer.
func New(cfg Config) *Publisher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FallbackDir == "" {
		cfg.FallbackDir = "publish-fallback"
	}
	return &Publisher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    zerolog.New(os.Stdout).With().Timestamp().Str("component", "publish").Logger(),
	}
}

type messagePost struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Content interface{} `json:"content"`
}

// PublishSnapshot serializes payload and posts it to the aggregate store
// as an "aggregation" message on the configured channel.
func (p *Publisher) PublishSnapshot(ctx context.Context, payload snapshot.Payload) error {
	return p.post(ctx, "nodestatus-aggregation", messagePost{
		Type:    "aggregation",
		Channel: p.cfg.Channel,
		Content: payload,
	})
}

// PublishDistribution posts a distribution result as a "distribution"
// message on the configured channel.
func (p *Publisher) PublishDistribution(ctx context.Context, dist Distribution) error {
	return p.post(ctx, "nodestatus-distribution", messagePost{
		Type:    "distribution",
		Channel: p.cfg.Channel,
		Content: dist,
	})
}

func (p *Publisher) post(ctx context.Context, kind string, payload messagePost) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}

	if p.cfg.APIServer != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIServer+"/api/v0/messages", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
			resp, sendErr := p.client.Do(req)
			if sendErr == nil {
				defer resp.Body.Close()
				if resp.StatusCode < 300 {
					p.log.Info().Str("kind", kind).Int("status", resp.StatusCode).Msg("published")
					return nil
				}
				p.log.Warn().Str("kind", kind).Int("status", resp.StatusCode).Msg("aggregate store rejected publish")
			} else {
				p.log.Warn().Err(sendErr).Str("kind", kind).Msg("aggregate store unreachable, recording locally")
			}
		}
	}

	return p.recordLocally(kind, body)
}

// recordLocally writes the payload to the fallback directory so a
// publish that the store rejected or could not reach is not silently
// lost; the orchestrator can later replay it.
func (p *Publisher) recordLocally(kind string, body []byte) error {
	if err := os.MkdirAll(p.cfg.FallbackDir, 0o755); err != nil {
		return fmt.Errorf("create fallback dir: %w", err)
	}
	path := filepath.Join(p.cfg.FallbackDir, fmt.Sprintf("%s-%d.json", kind, time.Now().UnixNano()))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write fallback file: %w", err)
	}
	p.log.Warn().Str("path", path).Msg("recorded publish locally after store was unreachable")
	return nil
}
