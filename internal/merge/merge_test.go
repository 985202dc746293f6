package merge

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/internal/events"
)

type sliceSource struct {
	items []*events.Event
	pos   int
}

func (s *sliceSource) Next(ctx context.Context) (*events.Event, error) {
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	ev := s.items[s.pos]
	s.pos++
	return ev, nil
}

func ev(height uint64, tb float64) *events.Event {
	return &events.Event{Height: height, Tiebreaker: tb, Kind: events.KindBalanceUpdate}
}

func drain(t *testing.T, m *Merger) []*events.Event {
	t.Helper()
	var out []*events.Event
	for {
		e, err := m.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestMergeOrdersByHeightThenTiebreaker(t *testing.T) {
	a := &sliceSource{items: []*events.Event{ev(1, 0.1), ev(3, 0.1), ev(5, 0.9)}}
	b := &sliceSource{items: []*events.Event{ev(1, 0.05), ev(2, 0.5), ev(5, 0.2)}}

	m, err := New(context.Background(), []Source{a, b})
	require.NoError(t, err)

	out := drain(t, m)
	require.Len(t, out, 6)
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if prev.Height == cur.Height {
			require.LessOrEqual(t, prev.Tiebreaker, cur.Tiebreaker)
		} else {
			require.Less(t, prev.Height, cur.Height)
		}
	}
	require.Equal(t, uint64(1), out[0].Height)
	require.Equal(t, 0.05, out[0].Tiebreaker)
}

func TestMergeHandlesEmptySources(t *testing.T) {
	empty := &sliceSource{}
	only := &sliceSource{items: []*events.Event{ev(10, 0)}}

	m, err := New(context.Background(), []Source{empty, only})
	require.NoError(t, err)

	out := drain(t, m)
	require.Len(t, out, 1)
	require.Equal(t, uint64(10), out[0].Height)
}

func TestMergeAllSourcesEmpty(t *testing.T) {
	m, err := New(context.Background(), []Source{&sliceSource{}, &sliceSource{}})
	require.NoError(t, err)

	_, err = m.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}
