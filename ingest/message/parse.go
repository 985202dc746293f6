package message

import (
	"encoding/json"
	"fmt"

	"github.com/aleph-im/nodestatus/internal/events"
)

// Post-type discriminators recognized on the signed-message feed.
const (
	nodePostType   = "aleph-network-node"
	amendPostType  = "amend"
)

// apiMessage is the loosely-typed wire shape of one signed message. height
// is a pointer because an unconfirmed message omits it (§9 "unconfirmed
// speculative emission").
type apiMessage struct {
	Height   *uint64         `json:"height"`
	ItemHash string          `json:"item_hash"`
	Time     float64         `json:"time"`
	Sender   string          `json:"sender"`
	Content  struct {
		Type    string          `json:"type"`
		Ref     string          `json:"ref"`
		Content struct {
			Action  string          `json:"action"`
			Details json.RawMessage `json:"details"`
		} `json:"content"`
	} `json:"content"`
}

// errMalformed reports a message whose required fields are missing; the
// caller drops and logs it per the error-handling contract, it never
// propagates upward.
type errMalformed struct {
	Field string
}

func (e *errMalformed) Error() string {
	return fmt.Sprintf("malformed message: missing required field %q", e.Field)
}

// translate converts a raw apiMessage at the given confirmation height
// into an events.Event, or (nil, errMalformed) if a required field is
// absent. Only nodePostType and amendPostType messages are translated;
// any other content.type returns (nil, nil) — not malformed, simply not
// one of the two event kinds this component cares about.
func translate(height uint64, msg apiMessage) (*events.Event, error) {
	if msg.ItemHash == "" {
		return nil, &errMalformed{Field: "item_hash"}
	}
	if msg.Sender == "" {
		return nil, &errMalformed{Field: "sender"}
	}

	details := msg.Content.Content.Details
	if details == nil {
		details = []byte("{}")
	}

	switch msg.Content.Type {
	case nodePostType:
		if msg.Content.Content.Action == "" {
			return nil, &errMalformed{Field: "content.action"}
		}
		return &events.Event{
			Height: height,
			Kind:   events.KindLifecycleMessage,
			Lifecycle: &events.LifecycleMessage{
				Height:   height,
				ItemHash: msg.ItemHash,
				Time:     msg.Time,
				Sender:   msg.Sender,
				Action:   msg.Content.Content.Action,
				Ref:      msg.Content.Ref,
				Details:  events.ParseDetails(details),
			},
		}, nil

	case amendPostType:
		if msg.Content.Ref == "" {
			return nil, &errMalformed{Field: "content.ref"}
		}
		return &events.Event{
			Height: height,
			Kind:   events.KindAmendMessage,
			Amend: &events.AmendMessage{
				Height:   height,
				ItemHash: msg.ItemHash,
				Time:     msg.Time,
				Sender:   msg.Sender,
				Ref:      msg.Content.Ref,
				Details:  events.ParseDetails(details),
			},
		}, nil

	default:
		return nil, nil
	}
}
