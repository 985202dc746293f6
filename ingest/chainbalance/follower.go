package chainbalance

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aleph-im/nodestatus/infrastructure/cache"
	"github.com/aleph-im/nodestatus/internal/events"
)

// Config controls which platform a Follower watches and its resume/poll
// behavior.
type Config struct {
	Platform     string
	BatchSize    int
	PollInterval time.Duration
	// MaxHeight bounds a historical replay (used by the reward integrator
	// re-running the pipeline between two heights); zero means unbounded,
	// i.e. the continuous `run` mode that polls forever.
	MaxHeight uint64

	// PollTrigger, when set, replaces the internal PollInterval timer as
	// the cron-scheduled polling cadence cmd/nodestatus wires in for `run`.
	PollTrigger <-chan time.Time
}

// DefaultConfig mirrors the original system's `i % 10` ETH balance refresh
// cadence with a 10s PollInterval for every platform; the `run` command
// gives non-ETH platforms the `i % 60` cadence through PollTrigger.
func DefaultConfig(platform string) Config {
	return Config{Platform: platform, BatchSize: 500, PollInterval: 10 * time.Second}
}

// cursorPrefix namespaces the durable cache's composite-sort-key cursor
// for this platform (§6: "{block}_{tx_index}_{log_index}").
func cursorPrefix(platform string) string {
	return "chainevents:" + platform
}

// Follower groups ordered balance_events rows by height into BalanceUpdate
// events, satisfying merge.Source.
type Follower struct {
	cfg     Config
	store   *Store
	durable *cache.DurableStore

	height, txIndex, logIndex int64
	pending                   []*events.Event
	exhausted                 bool
}

// NewFollower returns a Follower reading platform's balance_events through
// store, resuming its cursor from durable if non-nil.
func NewFollower(cfg Config, store *Store, durable *cache.DurableStore) *Follower {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig(cfg.Platform).BatchSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultConfig(cfg.Platform).PollInterval
	}
	f := &Follower{cfg: cfg, store: store, durable: durable}
	f.restoreCursor()
	return f
}

func (f *Follower) restoreCursor() {
	if f.durable == nil {
		return
	}
	key, err := f.durable.GetLastAvailableKey(cursorPrefix(f.cfg.Platform))
	if err != nil || key == "" {
		return
	}
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 {
		return
	}
	h, err1 := strconv.ParseInt(parts[0], 10, 64)
	tx, err2 := strconv.ParseInt(parts[1], 10, 64)
	lg, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}
	f.height, f.txIndex, f.logIndex = h, tx, lg
}

func (f *Follower) persistCursor(ev BalanceEvent) {
	if f.durable == nil {
		return
	}
	key := fmt.Sprintf("%d_%d_%d", ev.Height, ev.TxIndex, ev.LogIndex)
	_ = f.durable.StoreEntry(cursorPrefix(f.cfg.Platform), key, []byte(ev.Address))
}

// Next returns the next BalanceUpdate event in height order. In bounded
// mode (MaxHeight != 0) it returns io.EOF once the store has no more rows
// at or below MaxHeight. In unbounded mode it polls PollInterval until new
// rows appear, never returning io.EOF.
func (f *Follower) Next(ctx context.Context) (*events.Event, error) {
	for {
		if len(f.pending) > 0 {
			ev := f.pending[0]
			f.pending = f.pending[1:]
			return ev, nil
		}
		if f.exhausted {
			return nil, io.EOF
		}

		rows, err := f.store.FetchEventsAfter(ctx, f.cfg.Platform, f.height, int(f.txIndex), int(f.logIndex), f.cfg.BatchSize)
		if err != nil {
			return nil, err
		}

		if len(rows) == 0 {
			if f.cfg.MaxHeight != 0 {
				f.exhausted = true
				continue
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-f.pollWait():
			}
			continue
		}

		if err := f.groupIntoUpdates(ctx, rows); err != nil {
			return nil, err
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

// groupIntoUpdates batches same-height rows into a single BalanceUpdate,
// carrying the full per-platform snapshot and only the changed addresses,
// then advances and persists the cursor.
func (f *Follower) groupIntoUpdates(ctx context.Context, rows []BalanceEvent) error {
	i := 0
	for i < len(rows) {
		height := rows[i].Height
		if f.cfg.MaxHeight != 0 && uint64(height) > f.cfg.MaxHeight {
			f.exhausted = true
			return nil
		}

		j := i
		changedSet := make(map[string]struct{})
		for j < len(rows) && rows[j].Height == height {
			changedSet[rows[j].Address] = struct{}{}
			j++
		}

		changed := make([]string, 0, len(changedSet))
		for addr := range changedSet {
			changed = append(changed, addr)
		}

		balances, err := f.store.FullSnapshot(ctx, f.cfg.Platform)
		if err != nil {
			return err
		}

		f.pending = append(f.pending, &events.Event{
			Height: uint64(height),
			Kind:   events.KindBalanceUpdate,
			Balance: &events.BalanceUpdate{
				Height:           uint64(height),
				Platform:         f.cfg.Platform,
				Balances:         balances,
				ChangedAddresses: changed,
			},
		})

		last := rows[j-1]
		f.height, f.txIndex, f.logIndex = last.Height, int64(last.TxIndex), int64(last.LogIndex)
		f.persistCursor(last)
		i = j
	}
	return nil
}
