// Package score is the reference score ingester: a lower-frequency HTTP
// poller that yields ScoreReport events from the signed-message feed,
// restricted to reports signed by an authorized scores_senders address.
package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aleph-im/nodestatus/infrastructure/ratelimit"
	"github.com/aleph-im/nodestatus/internal/events"
)

// Config controls the feed endpoint, polling cadence and sender allowlist.
type Config struct {
	APIServer    string
	Channel      string
	Senders      []string
	PollInterval time.Duration
	Timeout      time.Duration
	MaxRetries   int

	// PollTrigger, when set, replaces the internal PollInterval timer as the
	// cron-scheduled polling cadence cmd/nodestatus wires in for `run`.
	PollTrigger <-chan time.Time
}

// DefaultConfig mirrors the original system's `i % 3600` scores refresh
// cadence, generalized into a poll interval.
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Hour,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
	}
}

// Follower polls the feed for score-report messages and yields one
// events.Event per report, in non-decreasing height order, satisfying
// merge.Source.
type Follower struct {
	cfg        Config
	client     *http.Client
	limiter    *ratelimit.Limiter
	logger     *zap.SugaredLogger
	senders    map[string]struct{}
	lastHeight uint64
	pending    []*events.Event
}

// New returns a Follower ready to poll from genesis (height 0).
func New(cfg Config, logger *zap.SugaredLogger) *Follower {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	senders := make(map[string]struct{}, len(cfg.Senders))
	for _, s := range cfg.Senders {
		senders[s] = struct{}{}
	}

	return &Follower{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(ratelimit.DefaultConfig()),
		logger:  logger,
		senders: senders,
	}
}

// Resume sets the height to resume polling from, typically restored from
// the durable cache's last processed score-report height.
func (f *Follower) Resume(height uint64) {
	f.lastHeight = height
}

// Next blocks (polling at PollInterval) until a new, authorized score
// report is available, then returns it. It never returns io.EOF: the
// score feed is a live, unbounded stream for the life of the process.
func (f *Follower) Next(ctx context.Context) (*events.Event, error) {
	for {
		if len(f.pending) > 0 {
			ev := f.pending[0]
			f.pending = f.pending[1:]
			return ev, nil
		}

		reports, err := f.fetchWithRetry(ctx)
		if err != nil {
			return nil, err
		}

		for _, r := range reports {
			if _, ok := f.senders[r.Sender]; len(f.senders) > 0 && !ok {
				f.logger.Warnw("dropping score report from unauthorized sender", "sender", r.Sender, "height", r.Height)
				continue
			}
			if r.Height < f.lastHeight {
				continue
			}
			f.lastHeight = r.Height
			f.pending = append(f.pending, &events.Event{
				Height: r.Height,
				Kind:   events.KindScoreReport,
				Score:  toScoreReport(r),
			})
		}

		if len(f.pending) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-f.pollWait():
			}
		}
	}
}

// pollWait returns the channel Next selects on between polls: the
// cron-driven PollTrigger if one is wired in, otherwise an internal
// PollInterval timer.
func (f *Follower) pollWait() <-chan time.Time {
	if f.cfg.PollTrigger != nil {
		return f.cfg.PollTrigger
	}
	return time.After(f.cfg.PollInterval)
}

type apiNodeScore struct {
	NodeID           string  `json:"node_id"`
	TotalScore       float64 `json:"total_score"`
	Performance      float64 `json:"performance"`
	Decentralization float64 `json:"decentralization"`
}

type apiScoreReport struct {
	Height uint64 `json:"height"`
	Sender string `json:"sender"`
	Content struct {
		Content struct {
			Scores struct {
				CCN []apiNodeScore `json:"ccn"`
				CRN []apiNodeScore `json:"crn"`
			} `json:"scores"`
		} `json:"content"`
	} `json:"content"`
}

func toScoreReport(r apiScoreReport) *events.ScoreReport {
	core := make([]events.NodeScore, 0, len(r.Content.Content.Scores.CCN))
	for _, s := range r.Content.Content.Scores.CCN {
		core = append(core, events.NodeScore{
			NodeID:           s.NodeID,
			TotalScore:       s.TotalScore,
			Performance:      s.Performance,
			Decentralization: s.Decentralization,
		})
	}
	resource := make([]events.NodeScore, 0, len(r.Content.Content.Scores.CRN))
	for _, s := range r.Content.Content.Scores.CRN {
		resource = append(resource, events.NodeScore{
			NodeID:           s.NodeID,
			TotalScore:       s.TotalScore,
			Performance:      s.Performance,
			Decentralization: s.Decentralization,
		})
	}
	return &events.ScoreReport{Height: r.Height, Sender: r.Sender, Core: core, Resource: resource}
}

func (f *Follower) fetchWithRetry(ctx context.Context) ([]apiScoreReport, error) {
	var lastErr error
	attempts := f.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		reports, err := f.fetch(ctx)
		if err == nil {
			return reports, nil
		}
		lastErr = err
		f.logger.Warnw("score feed fetch failed, retrying", "attempt", attempt+1, "error", err)
	}

	f.logger.Warnw("score feed window skipped after exhausting retries", "error", lastErr)
	return nil, nil
}

func (f *Follower) fetch(ctx context.Context) ([]apiScoreReport, error) {
	url := fmt.Sprintf("%s/api/v0/messages?channels=%s&msgType=POST&contentTypes=scores&startHeight=%d",
		f.cfg.APIServer, f.cfg.Channel, f.lastHeight)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("score feed returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Messages []apiScoreReport `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode score feed response: %w", err)
	}
	return payload.Messages, nil
}
