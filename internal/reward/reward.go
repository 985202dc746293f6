// Package reward implements the per-block reward integrator: it replays
// the merged event stream through a state machine between two heights and
// accumulates operator, staker and resource-node rewards per recipient
// address, in human units.
package reward

import (
	"context"
	"io"

	"github.com/aleph-im/nodestatus/internal/merge"
	"github.com/aleph-im/nodestatus/internal/statemachine"
)

// Config holds the reward-schedule constants. Pool amounts are expressed
// in human token units; the per-staker share (v/T) is unit-agnostic so no
// additional decimals conversion happens inside the integrator.
type Config struct {
	RewardStartHeight uint64
	BlocksPerDay      int64

	DailyNodesReward float64
	DailyStakersBase float64

	ResourceNodeMonthlyBase     float64
	ResourceNodeMonthlyVariable float64

	BonusStartHeight uint64
	BonusModifier    float64
	BonusDecay       float64

	NodeMaxPaid int
}

// DefaultConfig mirrors the upstream system's historical reward schedule.
func DefaultConfig() Config {
	return Config{
		BlocksPerDay:                7130,
		DailyNodesReward:            15000,
		DailyStakersBase:            15000,
		ResourceNodeMonthlyBase:     250,
		ResourceNodeMonthlyVariable: 1250,
		BonusModifier:               1.25,
		BonusDecay:                  0.0000001,
		NodeMaxPaid:                 5,
	}
}

// ScoreMultiplier maps a node's score to a reward weight: 0 below 0.2, 1 at
// or above 0.8, linear in between. Result is always in [0, 1].
func ScoreMultiplier(score float64) float64 {
	switch {
	case score < 0.2:
		return 0
	case score >= 0.8:
		return 1
	default:
		return (score - 0.2) / 0.6
	}
}

// Integrator drives a private StateMachine over a merged event stream and
// accumulates rewards by recipient address.
type Integrator struct {
	Config  Config
	SM      *statemachine.StateMachine
	Rewards map[string]float64
}

// New returns an Integrator driving its own fresh state machine, so the
// reward pass never shares mutable state with the live snapshot pipeline.
func New(cfg Config, smCfg statemachine.Config) *Integrator {
	return &Integrator{
		Config:  cfg,
		SM:      statemachine.New(smCfg),
		Rewards: make(map[string]float64),
	}
}

func (ig *Integrator) credit(recipient string, amount float64) {
	if recipient == "" || amount == 0 {
		return
	}
	ig.Rewards[recipient] += amount
}

func isValidAddress(addr string) bool {
	return addr != ""
}

// Run replays merger from its current position, integrating one segment
// per emitted snapshot plus a final segment up to endHeight, and returns
// the accumulated recipient->amount map.
func (ig *Integrator) Run(ctx context.Context, merger *merge.Merger, startHeight, endHeight uint64) (map[string]float64, error) {
	lastHeight := ig.Config.RewardStartHeight
	if startHeight > lastHeight {
		lastHeight = startHeight
	}

	for {
		ev, err := merger.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		snap, err := ig.SM.Apply(ev)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		if snap.Height > endHeight {
			break
		}

		if snap.Height > ig.Config.RewardStartHeight {
			since := lastHeight
			if since < ig.Config.RewardStartHeight {
				since = ig.Config.RewardStartHeight
			}
			ig.integrateSegment(since, snap.Height, snap.CoreNodes, snap.ResourceNodes)
		}
		lastHeight = snap.Height
	}

	since := lastHeight
	if since < ig.Config.RewardStartHeight {
		since = ig.Config.RewardStartHeight
	}
	if endHeight > since {
		ig.integrateSegment(since, endHeight, ig.SM.CoreNodes, ig.SM.ResourceNodes)
	}

	return ig.Rewards, nil
}
