package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/internal/snapshot"
)

func TestPublishSnapshotPostsToAggregateStore(t *testing.T) {
	var received messagePost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(Config{APIServer: srv.URL, Channel: "TEST"})
	err := p.PublishSnapshot(context.Background(), snapshot.Payload{})
	require.NoError(t, err)
	require.Equal(t, "aggregation", received.Type)
	require.Equal(t, "TEST", received.Channel)
}

func TestPublishFallsBackLocallyWhenStoreUnreachable(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{APIServer: "http://127.0.0.1:0", Channel: "TEST", FallbackDir: filepath.Join(dir, "fallback")})

	err := p.PublishDistribution(context.Background(), Distribution{Status: StatusSimulation})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "fallback"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
