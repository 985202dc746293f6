// Package events defines the tagged-union event stream the merge package
// orders and the state machine consumes: balance updates, lifecycle/amend
// messages and score reports.
package events

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind discriminates the event payload carried by an Event.
type Kind int

const (
	KindBalanceUpdate Kind = iota
	KindLifecycleMessage
	KindAmendMessage
	KindScoreReport
)

// Event is the unit the merge package orders by (Height, Tiebreaker) and
// the state machine dispatches on Kind.
type Event struct {
	Height     uint64
	Tiebreaker float64
	Kind       Kind

	Balance   *BalanceUpdate
	Lifecycle *LifecycleMessage
	Amend     *AmendMessage
	Score     *ScoreReport
}

// BalanceUpdate carries a complete balance snapshot for one platform plus
// the subset of addresses that changed since the previous update.
type BalanceUpdate struct {
	Height           uint64
	Platform         string
	Balances         map[string]int64
	ChangedAddresses []string
}

// LifecycleMessage is a node-lifecycle / staking operation.
type LifecycleMessage struct {
	Height    uint64
	ItemHash  string
	Time      float64
	Sender    string
	Action    string
	Ref       string
	Details   Details
}

// AmendMessage edits an existing core or resource node's editable fields.
type AmendMessage struct {
	Height   uint64
	ItemHash string
	Time     float64
	Sender   string
	Ref      string
	Details  Details
}

// ScoreReport carries one height's worth of scoring data for core and
// resource nodes.
type ScoreReport struct {
	Height uint64
	Sender string
	Core   []NodeScore
	Resource []NodeScore
}

// NodeScore is a single node's scoring entry within a ScoreReport.
type NodeScore struct {
	NodeID           string
	TotalScore       float64
	Performance      float64
	Decentralization float64
}

// Details is the duck-typed payload carried by lifecycle/amend messages.
// The underlying source feeds nested generic maps with only a loosely
// enforced shape across historical message revisions, so fields are parsed
// on demand with gjson rather than unmarshaled into a rigid struct.
type Details struct {
	raw gjson.Result
}

// ParseDetails wraps a raw JSON payload for duck-typed field access.
func ParseDetails(raw []byte) Details {
	return Details{raw: gjson.ParseBytes(raw)}
}

// String returns the string value of key, or def if absent.
func (d Details) String(key, def string) string {
	v := d.raw.Get(key)
	if !v.Exists() {
		return def
	}
	return v.String()
}

// Bool returns the boolean value of key, coercing truthy JSON values.
func (d Details) Bool(key string) bool {
	return d.raw.Get(key).Bool()
}

// StringSlice returns the array value of key as a string slice, or nil.
func (d Details) StringSlice(key string) []string {
	v := d.raw.Get(key)
	if !v.Exists() || !v.IsArray() {
		return nil
	}
	out := make([]string, 0, len(v.Array()))
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}

// Has reports whether key is present in the payload.
func (d Details) Has(key string) bool {
	return d.raw.Get(key).Exists()
}

// ErrMalformed describes an event with a missing required field. No code in
// this repository returns it; ingest/message reports that case with its own
// unexported errMalformed.
type ErrMalformed struct {
	Field string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed event: missing required field %q", e.Field)
}
