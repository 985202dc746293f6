// Package chainbalance is the reference on-chain balance ingester: a
// Postgres-resumable follower speaking the BalanceUpdate{platform,
// changed_addresses, balances} contract. It assumes an external log
// follower (outside this repository's scope) has already written ordered
// balance_events rows and the corresponding cumulative balance_snapshot
// for the platform it watches.
package chainbalance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Open connects to databaseURL via sqlx, applies embedded migrations, and
// returns a ready-to-query handle.
func Open(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ApplyMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BalanceEvent is one ordered (height, tx_index, log_index) row recording
// that address's balance changed on platform.
type BalanceEvent struct {
	Platform string `db:"platform"`
	Height   int64  `db:"height"`
	TxIndex  int    `db:"tx_index"`
	LogIndex int    `db:"log_index"`
	Address  string `db:"address"`
}

// Store is the sqlx-backed repository over balance_events/balance_snapshot.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an already-open sqlx handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// FetchEventsAfter returns up to limit balance_events rows for platform
// ordered after the (height, txIndex, logIndex) cursor, in ascending
// (height, tx_index, log_index) order — the composite sort key §6
// specifies for chain events.
func (s *Store) FetchEventsAfter(ctx context.Context, platform string, height int64, txIndex, logIndex, limit int) ([]BalanceEvent, error) {
	const query = `
		SELECT platform, height, tx_index, log_index, address
		FROM balance_events
		WHERE platform = $1
		  AND (height, tx_index, log_index) > ($2, $3, $4)
		ORDER BY height, tx_index, log_index
		LIMIT $5
	`
	var rows []BalanceEvent
	err := s.db.SelectContext(ctx, &rows, query, platform, height, txIndex, logIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch balance events: %w", err)
	}
	return rows, nil
}

// FullSnapshot returns every address's current balance_snapshot value for
// platform. BalanceUpdate.Balances is a complete per-platform snapshot
// (§4.2/§6), not just the changed subset, so the aggregated balance view
// can safely replace its whole per-platform map on each update.
func (s *Store) FullSnapshot(ctx context.Context, platform string) (map[string]int64, error) {
	const query = `SELECT address, balance FROM balance_snapshot WHERE platform = $1`

	rows, err := s.db.QueryxContext(ctx, query, platform)
	if err != nil {
		return nil, fmt.Errorf("fetch full balance snapshot: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var addr string
		var balance int64
		if err := rows.Scan(&addr, &balance); err != nil {
			return nil, fmt.Errorf("scan balance snapshot row: %w", err)
		}
		balances[addr] = balance
	}
	return balances, rows.Err()
}

// SnapshotAddresses returns the current aggregated balance_snapshot value
// for each requested address on platform; addresses absent from the
// table contribute zero, matching §4.2's "addresses absent from a
// platform contribute zero" rule.
func (s *Store) SnapshotAddresses(ctx context.Context, platform string, addresses []string) (map[string]int64, error) {
	if len(addresses) == 0 {
		return map[string]int64{}, nil
	}

	const query = `
		SELECT address, balance
		FROM balance_snapshot
		WHERE platform = $1 AND address = ANY($2)
	`
	rows, err := s.db.QueryxContext(ctx, query, platform, pq.Array(addresses))
	if err != nil {
		return nil, fmt.Errorf("fetch balance snapshot: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64, len(addresses))
	for _, a := range addresses {
		balances[a] = 0
	}
	for rows.Next() {
		var addr string
		var balance int64
		if err := rows.Scan(&addr, &balance); err != nil {
			return nil, fmt.Errorf("scan balance snapshot row: %w", err)
		}
		balances[addr] = balance
	}
	return balances, rows.Err()
}
