package message

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/internal/events"
)

func newFixedMessage(hash string, height *uint64) apiMessage {
	m := apiMessage{ItemHash: hash, Sender: "0xabc", Height: height}
	m.Content.Type = nodePostType
	m.Content.Content.Action = "create-node"
	return m
}

func TestNextDrainsSinglePageThenPolls(t *testing.T) {
	h := uint64(100)
	messages := []apiMessage{newFixedMessage("h1", &h)}

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(feedPage{Messages: messages, PaginationTotal: 1})
		} else {
			_ = json.NewEncoder(w).Encode(feedPage{Messages: nil, PaginationTotal: 1})
		}
	}))
	defer srv.Close()

	f := New(Config{APIServer: srv.URL, Channel: "TEST", PerPage: 10, PollInterval: 5 * time.Millisecond}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, events.KindLifecycleMessage, ev.Kind)
	require.Equal(t, uint64(100), ev.Height)
	require.False(t, f.catchingUp)
}

func TestSpeculativeMessageDedupedOnConfirmation(t *testing.T) {
	unconfirmed := newFixedMessage("dup", nil)

	confirmedHeight := uint64(200)
	confirmed := newFixedMessage("dup", &confirmedHeight)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		switch calls {
		case 1:
			_ = json.NewEncoder(w).Encode(feedPage{Messages: []apiMessage{unconfirmed}, PaginationTotal: 1})
		case 2:
			_ = json.NewEncoder(w).Encode(feedPage{Messages: []apiMessage{confirmed}, PaginationTotal: 1})
		default:
			_ = json.NewEncoder(w).Encode(feedPage{})
		}
	}))
	defer srv.Close()

	f := New(Config{APIServer: srv.URL, Channel: "TEST", PerPage: 10, PollInterval: time.Millisecond}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ev.Height) // emitted speculatively at tip (genesis lastHeight)

	// The confirmed re-delivery of the same hash must not be re-emitted: a
	// second Next call should find nothing new and block until ctx expires.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer shortCancel()
	_, err = f.Next(shortCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
