package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/internal/events"
)

func TestTranslateLifecycleMessage(t *testing.T) {
	raw := apiMessage{ItemHash: "h1", Sender: "0xabc", Time: 100}
	raw.Content.Type = nodePostType
	raw.Content.Ref = "ref1"
	raw.Content.Content.Action = "create-node"
	raw.Content.Content.Details = json.RawMessage(`{"name":"n1"}`)

	ev, err := translate(42, raw)
	require.NoError(t, err)
	require.Equal(t, events.KindLifecycleMessage, ev.Kind)
	require.Equal(t, uint64(42), ev.Height)
	require.Equal(t, "create-node", ev.Lifecycle.Action)
	require.Equal(t, "n1", ev.Lifecycle.Details.String("name", ""))
}

func TestTranslateAmendMessage(t *testing.T) {
	raw := apiMessage{ItemHash: "h2", Sender: "0xdef"}
	raw.Content.Type = amendPostType
	raw.Content.Ref = "ref2"

	ev, err := translate(7, raw)
	require.NoError(t, err)
	require.Equal(t, events.KindAmendMessage, ev.Kind)
	require.Equal(t, "ref2", ev.Amend.Ref)
}

func TestTranslateMalformedMissingItemHash(t *testing.T) {
	raw := apiMessage{Sender: "0xabc"}
	raw.Content.Type = nodePostType
	raw.Content.Content.Action = "create-node"

	_, err := translate(1, raw)
	require.Error(t, err)
}

func TestTranslateUnknownTypeIsIgnoredNotMalformed(t *testing.T) {
	raw := apiMessage{ItemHash: "h3", Sender: "0xabc"}
	raw.Content.Type = "some-other-type"

	ev, err := translate(1, raw)
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestTranslateAmendMissingRefIsMalformed(t *testing.T) {
	raw := apiMessage{ItemHash: "h4", Sender: "0xabc"}
	raw.Content.Type = amendPostType

	_, err := translate(1, raw)
	require.Error(t, err)
}
