package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingBroadcaster struct{ failAddr string }

func (f failingBroadcaster) Send(_ context.Context, _ string, _ string, targets map[string]float64) (string, error) {
	if _, ok := targets[f.failAddr]; ok {
		return "", errors.New("broadcast rejected")
	}
	return "tx-ok", nil
}

func TestPrepareSplitsIntoBatchSizeGroups(t *testing.T) {
	rewards := map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	b := New(Config{BatchSize: 2, Chain: "ETH"}, StubBroadcaster{})

	results := b.Prepare(context.Background(), "sender", rewards)

	require.Len(t, results, 3)
	require.Len(t, results[0].Targets, 2)
	require.Len(t, results[1].Targets, 2)
	require.Len(t, results[2].Targets, 1)
	for _, r := range results {
		require.True(t, r.Success)
		require.Equal(t, StatusPending, r.Status)
		require.NotEmpty(t, r.Tx)
	}
}

func TestPrepareRecordsDeclaredFailureWithoutAbortingOtherBatches(t *testing.T) {
	rewards := map[string]float64{"a": 1, "b": 2}
	b := New(Config{BatchSize: 1, Chain: "ETH"}, failingBroadcaster{failAddr: "a"})

	results := b.Prepare(context.Background(), "sender", rewards)

	require.Len(t, results, 2)
	byAddr := map[string]BatchResult{}
	for _, r := range results {
		for addr := range r.Targets {
			byAddr[addr] = r
		}
	}
	require.False(t, byAddr["a"].Success)
	require.Equal(t, StatusFailed, byAddr["a"].Status)
	require.True(t, byAddr["b"].Success)
	require.Equal(t, StatusPending, byAddr["b"].Status)
}

func TestPrepareTotalsMatchTargetSum(t *testing.T) {
	rewards := map[string]float64{"a": 1.5, "b": 2.5}
	b := New(Config{BatchSize: 200, Chain: "ETH"}, StubBroadcaster{})

	results := b.Prepare(context.Background(), "sender", rewards)

	require.Len(t, results, 1)
	require.InDelta(t, 4.0, results[0].Total, 1e-9)
}
