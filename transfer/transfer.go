// Package transfer batches the reward integrator's recipient->amount map
// into groups of at most batch_size and records each batch's declared
// outcome. It never signs or broadcasts a chain transaction itself: the
// Broadcaster it drives is a collaborator boundary that a real deployment
// replaces with a signing wallet, consistent with the Non-goal that this
// repository only prepares batches and records their declared result.
package transfer

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Outcome statuses recorded on a BatchResult.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Config controls batch sizing and the chain/sender metadata stamped onto
// every prepared batch.
type Config struct {
	BatchSize int
	Chain     string
}

// DefaultConfig mirrors the upstream system's historical batch size.
func DefaultConfig() Config {
	return Config{BatchSize: 200, Chain: "ETH"}
}

// BatchResult is one prepared transfer batch and its declared outcome, the
// shape appended verbatim to a published distribution's targets list.
type BatchResult struct {
	Success bool               `json:"success"`
	Status  string             `json:"status"`
	Tx      string             `json:"tx,omitempty"`
	Chain   string             `json:"chain"`
	Sender  string             `json:"sender"`
	Targets map[string]float64 `json:"targets"`
	Total   float64            `json:"total"`
}

// Broadcaster declares the outcome of one prepared batch. It never signs
// or submits a real chain transaction in this repository; a production
// deployment supplies its own implementation at this boundary.
type Broadcaster interface {
	Send(ctx context.Context, sender string, chain string, targets map[string]float64) (txID string, err error)
}

// StubBroadcaster always declares success with a freshly minted id, used
// when no real signing wallet is wired in (the default for `distribute`
// without `--act`).
type StubBroadcaster struct{}

func (StubBroadcaster) Send(_ context.Context, _ string, _ string, _ map[string]float64) (string, error) {
	return uuid.NewString(), nil
}

// Batcher splits a recipient map into batch_size-sized groups and asks its
// Broadcaster to declare each batch's outcome.
type Batcher struct {
	cfg         Config
	broadcaster Broadcaster
}

// New returns a Batcher that declares outcomes via broadcaster.
func New(cfg Config, broadcaster Broadcaster) *Batcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if broadcaster == nil {
		broadcaster = StubBroadcaster{}
	}
	return &Batcher{cfg: cfg, broadcaster: broadcaster}
}

// Prepare batches rewards (sorted by address for deterministic batch
// membership across runs) and returns one BatchResult per batch. A
// Broadcaster error never aborts the remaining batches: it is recorded as
// {success: false, status: "failed"} and the integrator must not retry
// automatically.
func (b *Batcher) Prepare(ctx context.Context, sender string, rewards map[string]float64) []BatchResult {
	addrs := make([]string, 0, len(rewards))
	for addr := range rewards {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	var results []BatchResult
	for i := 0; i < len(addrs); i += b.cfg.BatchSize {
		end := i + b.cfg.BatchSize
		if end > len(addrs) {
			end = len(addrs)
		}

		targets := make(map[string]float64, end-i)
		var total float64
		for _, addr := range addrs[i:end] {
			amount := rewards[addr]
			targets[addr] = amount
			total += amount
		}

		tx, err := b.broadcaster.Send(ctx, sender, b.cfg.Chain, targets)
		result := BatchResult{
			Chain:   b.cfg.Chain,
			Sender:  sender,
			Targets: targets,
			Total:   total,
		}
		if err != nil {
			result.Success = false
			result.Status = StatusFailed
		} else {
			result.Success = true
			result.Status = StatusPending
			result.Tx = tx
		}
		results = append(results, result)
	}

	return results
}
