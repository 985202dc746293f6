package chainbalance

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/infrastructure/cache"
)

func newMockFollowerStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func TestFollowerGroupsRowsByHeightIntoOneUpdate(t *testing.T) {
	store, mock := newMockFollowerStore(t)

	events := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"}).
		AddRow("ETH", int64(200), 0, 0, "0xaaa").
		AddRow("ETH", int64(200), 1, 0, "0xbbb")
	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(0), 0, 0, 500).
		WillReturnRows(events)

	snapshot := sqlmock.NewRows([]string{"address", "balance"}).
		AddRow("0xaaa", int64(10)).
		AddRow("0xbbb", int64(20)).
		AddRow("0xccc", int64(30))
	mock.ExpectQuery("SELECT address, balance FROM balance_snapshot").
		WithArgs("ETH").
		WillReturnRows(snapshot)

	// Second poll finds nothing further; MaxHeight bounds the replay so
	// Next terminates with io.EOF instead of blocking on a poll timer.
	empty := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"})
	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(200), 1, 0, 500).
		WillReturnRows(empty)

	f := NewFollower(Config{Platform: "ETH", MaxHeight: 500}, store, nil)

	ev, err := f.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(200), ev.Height)
	require.ElementsMatch(t, []string{"0xaaa", "0xbbb"}, ev.Balance.ChangedAddresses)
	require.Equal(t, map[string]int64{"0xaaa": 10, "0xbbb": 20, "0xccc": 30}, ev.Balance.Balances)

	_, err = f.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowerResumesFromDurableCursor(t *testing.T) {
	store, mock := newMockFollowerStore(t)

	dbPath := filepath.Join(t.TempDir(), "cursor.db")
	durable, err := cache.OpenDurableStore(dbPath)
	require.NoError(t, err)
	defer durable.Close()

	require.NoError(t, durable.StoreEntry(cursorPrefix("ETH"), "150_2_0", []byte("0xaaa")))

	empty := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"})
	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(150), 2, 0, 500).
		WillReturnRows(empty)

	f := NewFollower(Config{Platform: "ETH", MaxHeight: 1000}, store, durable)

	_, err = f.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowerPersistsCursorAcrossUpdates(t *testing.T) {
	store, mock := newMockFollowerStore(t)

	dbPath := filepath.Join(t.TempDir(), "cursor.db")
	durable, err := cache.OpenDurableStore(dbPath)
	require.NoError(t, err)
	defer durable.Close()

	events := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"}).
		AddRow("ETH", int64(300), 3, 1, "0xddd")
	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(0), 0, 0, 500).
		WillReturnRows(events)

	snapshot := sqlmock.NewRows([]string{"address", "balance"}).AddRow("0xddd", int64(5))
	mock.ExpectQuery("SELECT address, balance FROM balance_snapshot").
		WithArgs("ETH").
		WillReturnRows(snapshot)

	empty := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"})
	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(300), 3, 1, 500).
		WillReturnRows(empty)

	f := NewFollower(Config{Platform: "ETH", MaxHeight: 300}, store, durable)
	_, err = f.Next(context.Background())
	require.NoError(t, err)
	_, err = f.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)

	key, err := durable.GetLastAvailableKey(cursorPrefix("ETH"))
	require.NoError(t, err)
	require.Equal(t, "300_3_1", key)
}
