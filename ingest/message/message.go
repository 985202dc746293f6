// Package message is the reference message ingester: an HTTP-polling
// follower of the signed-message feed that yields LifecycleMessage and
// AmendMessage events keyed by confirmation height, with a paginated
// history crawl on catch-up and a seen-hash window guarding against
// double-counting a message emitted speculatively before confirmation.
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aleph-im/nodestatus/infrastructure/cache"
	"github.com/aleph-im/nodestatus/infrastructure/ratelimit"
	"github.com/aleph-im/nodestatus/internal/events"
)

// Config controls the feed endpoint, pagination and polling cadence.
type Config struct {
	APIServer    string
	Channel      string
	PerPage      int
	PollInterval time.Duration
	Timeout      time.Duration
	MaxRetries   int
	SeenWindowTTL time.Duration

	// PollTrigger, when set, replaces the internal PollInterval timer as the
	// tip-polling cadence: the cron-scheduled channel cmd/nodestatus wires
	// in for the `run` command's cron-scheduled poll cadences (§4.7). A nil
	// PollTrigger falls back to an internal PollInterval ticker.
	PollTrigger <-chan time.Time
}

// DefaultConfig mirrors the original system's `i % 10` message-poll
// cadence, generalized into a configurable interval, and its
// UNCONFIRMED_MESSAGES deque (maxlen 500) as a bounded TTL window.
func DefaultConfig() Config {
	return Config{
		PerPage:       200,
		PollInterval:  10 * time.Second,
		Timeout:       10 * time.Second,
		MaxRetries:    3,
		SeenWindowTTL: 30 * time.Minute,
	}
}

// Follower crawls the signed-message feed page by page from the resume
// height, then polls the tip at PollInterval, satisfying merge.Source.
type Follower struct {
	cfg     Config
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  *zap.SugaredLogger
	seen    cache.SeenStore

	lastHeight  uint64
	catchingUp  bool
	page        int
	pending     []*events.Event
}

// New returns a Follower ready to crawl from genesis (height 0). A nil
// seen defaults to an in-memory SeenWindow; cmd/nodestatus passes a
// RedisSeenWindow instead when REDIS_ADDR is configured.
func New(cfg Config, logger *zap.SugaredLogger, seen cache.SeenStore) *Follower {
	def := DefaultConfig()
	if cfg.PerPage == 0 {
		cfg.PerPage = def.PerPage
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SeenWindowTTL == 0 {
		cfg.SeenWindowTTL = def.SeenWindowTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if seen == nil {
		seen = cache.NewSeenWindow(cfg.SeenWindowTTL)
	}

	return &Follower{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.New(ratelimit.DefaultConfig()),
		seen:       seen,
		logger:     logger,
		catchingUp: true,
	}
}

// Resume sets the height to resume the crawl from, typically restored
// from the durable cache's last processed message height.
func (f *Follower) Resume(height uint64) {
	f.lastHeight = height
}

// Next blocks until the next lifecycle/amend event is available. During
// catch-up it pages through history; once a page returns fewer than
// PerPage results it switches to tip polling and never returns io.EOF —
// the message feed is a live, unbounded stream for the life of the
// process.
func (f *Follower) Next(ctx context.Context) (*events.Event, error) {
	for {
		if len(f.pending) > 0 {
			ev := f.pending[0]
			f.pending = f.pending[1:]
			return ev, nil
		}

		page, err := f.fetchWithRetry(ctx)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Messages {
			f.translateAndQueue(raw)
		}

		if f.catchingUp {
			f.page++
			if len(page.Messages) < f.cfg.PerPage || f.page*f.cfg.PerPage >= page.PaginationTotal {
				f.catchingUp = false
				f.page = 0
			}
		}

		if len(f.pending) == 0 {
			if f.catchingUp {
				continue
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-f.pollWait():
			}
		}
	}
}

// pollWait returns the channel Next selects on between tip polls: the
// cron-driven PollTrigger if one is wired in, otherwise an internal
// PollInterval timer.
func (f *Follower) pollWait() <-chan time.Time {
	if f.cfg.PollTrigger != nil {
		return f.cfg.PollTrigger
	}
	return time.After(f.cfg.PollInterval)
}

// translateAndQueue handles confirmed and speculative messages. A
// confirmed message (Height != nil) at or above lastHeight is translated
// and enqueued normally, advancing lastHeight. An unconfirmed message is
// emitted once at the current tip (lastHeight) and its hash recorded in
// the seen window so the later confirmed emission of the same item is
// dropped instead of double-counted.
func (f *Follower) translateAndQueue(raw apiMessage) {
	if raw.Height == nil {
		if f.seen.Seen(raw.ItemHash) {
			return
		}
		ev, err := translate(f.lastHeight, raw)
		if err != nil {
			f.logger.Warnw("dropping malformed speculative message", "error", err, "item_hash", raw.ItemHash)
			return
		}
		if ev == nil {
			return
		}
		f.seen.Record(raw.ItemHash)
		f.pending = append(f.pending, ev)
		return
	}

	if *raw.Height < f.lastHeight {
		return
	}
	if f.seen.Seen(raw.ItemHash) {
		// already emitted speculatively; the confirmation carries no new
		// information the state machine needs.
		return
	}

	ev, err := translate(*raw.Height, raw)
	if err != nil {
		f.logger.Warnw("dropping malformed message", "error", err, "item_hash", raw.ItemHash)
		return
	}
	f.lastHeight = *raw.Height
	if ev == nil {
		return
	}
	f.pending = append(f.pending, ev)
}

type feedPage struct {
	Messages        []apiMessage `json:"messages"`
	PaginationTotal int          `json:"pagination_total"`
	PaginationPage  int          `json:"pagination_page"`
	PaginationPerPage int        `json:"pagination_per_page"`
}

func (f *Follower) fetchWithRetry(ctx context.Context) (feedPage, error) {
	var lastErr error
	attempts := f.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return feedPage{}, err
		}
		page, err := f.fetch(ctx)
		if err == nil {
			return page, nil
		}
		lastErr = err
		f.logger.Warnw("message feed fetch failed, retrying", "attempt", attempt+1, "error", err)
	}

	f.logger.Warnw("message feed window skipped after exhausting retries", "error", lastErr)
	return feedPage{}, nil
}

func (f *Follower) fetch(ctx context.Context) (feedPage, error) {
	page := 0
	if f.catchingUp {
		page = f.page
	}
	url := fmt.Sprintf("%s/api/v0/messages?channels=%s&msgType=POST&startHeight=%d&page=%d&pagination=%d",
		f.cfg.APIServer, f.cfg.Channel, f.lastHeight, page, f.cfg.PerPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return feedPage{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return feedPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return feedPage{}, fmt.Errorf("message feed returned %d: %s", resp.StatusCode, string(body))
	}

	var result feedPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return feedPage{}, fmt.Errorf("decode message feed response: %w", err)
	}
	return result, nil
}
