package chainbalance

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func TestFetchEventsAfterOrdersByCompositeCursor(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"platform", "height", "tx_index", "log_index", "address"}).
		AddRow("ETH", int64(101), 0, 0, "0xaaa").
		AddRow("ETH", int64(101), 1, 0, "0xbbb").
		AddRow("ETH", int64(102), 0, 0, "0xaaa")

	mock.ExpectQuery("SELECT platform, height, tx_index, log_index, address").
		WithArgs("ETH", int64(100), 0, 0, 500).
		WillReturnRows(rows)

	events, err := store.FetchEventsAfter(context.Background(), "ETH", 100, 0, 0, 500)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, int64(101), events[0].Height)
	require.Equal(t, "0xbbb", events[1].Address)
	require.Equal(t, int64(102), events[2].Height)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFullSnapshotReturnsEveryAddress(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"address", "balance"}).
		AddRow("0xaaa", int64(1000)).
		AddRow("0xbbb", int64(2500))

	mock.ExpectQuery("SELECT address, balance FROM balance_snapshot").
		WithArgs("ETH").
		WillReturnRows(rows)

	balances, err := store.FullSnapshot(context.Background(), "ETH")
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"0xaaa": 1000, "0xbbb": 2500}, balances)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotAddressesZerosMissingAddresses(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"address", "balance"}).
		AddRow("0xaaa", int64(500))

	mock.ExpectQuery("SELECT address, balance").
		WithArgs("ETH", sqlmock.AnyArg()).
		WillReturnRows(rows)

	balances, err := store.SnapshotAddresses(context.Background(), "ETH", []string{"0xaaa", "0xccc"})
	require.NoError(t, err)
	require.Equal(t, int64(500), balances["0xaaa"])
	require.Equal(t, int64(0), balances["0xccc"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotAddressesEmptyInputSkipsQuery(t *testing.T) {
	store, _ := newMockStore(t)

	balances, err := store.SnapshotAddresses(context.Background(), "ETH", nil)
	require.NoError(t, err)
	require.Empty(t, balances)
}
