// Package statemachine applies the merged BalanceUpdate/LifecycleMessage/
// AmendMessage/ScoreReport event stream to the two-tier node registry,
// emitting a snapshot on every state-changing event.
package statemachine

import (
	"github.com/aleph-im/nodestatus/internal/balanceview"
	"github.com/aleph-im/nodestatus/internal/events"
	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

// StateMachine owns the live registry and is the sole mutator of it; no
// other goroutine may touch CoreNodes/ResourceNodes/indices concurrently.
type StateMachine struct {
	Config Config

	CoreNodes     map[string]*nodetypes.CoreNode
	ResourceNodes map[string]*nodetypes.ResourceNode

	AddressToOwnedNode map[string]string
	AddressToStakes    map[string][]string

	Balances *balanceview.View

	LastCheckedHeight uint64
	LastMessageHeight uint64
	LastScoreHeight   uint64
}

// New returns an empty StateMachine ready to apply events from genesis.
func New(cfg Config) *StateMachine {
	return &StateMachine{
		Config:             cfg,
		CoreNodes:          make(map[string]*nodetypes.CoreNode),
		ResourceNodes:      make(map[string]*nodetypes.ResourceNode),
		AddressToOwnedNode: make(map[string]string),
		AddressToStakes:    make(map[string][]string),
		Balances:           balanceview.New(),
	}
}

// Snapshot is the (height, core_nodes, resource_nodes) tuple emitted on
// every state-changing event. Maps are shared with the live state and MUST
// be treated as read-only by the consumer until it next calls Apply.
type Snapshot struct {
	Height        uint64
	CoreNodes     map[string]*nodetypes.CoreNode
	ResourceNodes map[string]*nodetypes.ResourceNode
}

func (sm *StateMachine) snapshot(height uint64) *Snapshot {
	return &Snapshot{
		Height:        height,
		CoreNodes:     sm.CoreNodes,
		ResourceNodes: sm.ResourceNodes,
	}
}

// Apply dispatches ev to the matching handler and returns a Snapshot if the
// event mutated state, nil otherwise. Events that fail a precondition check
// are silently dropped per the error-handling contract: no state change, no
// snapshot, no propagated error.
func (sm *StateMachine) Apply(ev *events.Event) (*Snapshot, error) {
	switch ev.Kind {
	case events.KindBalanceUpdate:
		return sm.applyBalanceUpdate(ev.Balance)
	case events.KindLifecycleMessage:
		return sm.applyLifecycle(ev.Height, ev.Lifecycle)
	case events.KindAmendMessage:
		return sm.applyAmend(ev.Height, ev.Amend)
	case events.KindScoreReport:
		return sm.applyScoreReport(ev.Score)
	default:
		return nil, nil
	}
}

func (sm *StateMachine) stakesOf(a string) []string {
	return sm.AddressToStakes[a]
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
