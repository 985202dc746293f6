package score

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

func scoreServer(t *testing.T, messages []apiScoreReport) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": messages})
	}))
}

func TestNextYieldsAuthorizedReportOnly(t *testing.T) {
	messages := []apiScoreReport{
		{Height: 100, Sender: "untrusted"},
		{Height: 101, Sender: "trusted"},
	}
	messages[1].Content.Content.Scores.CCN = []apiNodeScore{{NodeID: "n1", TotalScore: 0.9}}

	srv := scoreServer(t, messages)
	defer srv.Close()

	f := New(Config{APIServer: srv.URL, Channel: "TEST", Senders: []string{"trusted"}, PollInterval: time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, events.KindScoreReport, ev.Kind)
	require.Equal(t, uint64(101), ev.Height)
	require.Equal(t, "trusted", ev.Score.Sender)
	require.Len(t, ev.Score.Core, 1)
	require.Equal(t, "n1", ev.Score.Core[0].NodeID)
}

func TestResumeSkipsReportsBeforeHeight(t *testing.T) {
	messages := []apiScoreReport{{Height: 50, Sender: "trusted"}, {Height: 150, Sender: "trusted"}}
	srv := scoreServer(t, messages)
	defer srv.Close()

	f := New(Config{APIServer: srv.URL, Channel: "TEST", Senders: []string{"trusted"}, PollInterval: time.Millisecond}, nil)
	f.Resume(100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(150), ev.Height)
}
