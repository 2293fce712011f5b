package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/streak"
	"github.com/mzare/ecotrace/pkg/metrics"
)

// Schema for the purchase ledger and the streak cache. Applied by Open.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS purchases (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	ts INTEGER NOT NULL,
	choice TEXT NOT NULL,
	packaging_material TEXT NOT NULL,
	shipping_mode TEXT NOT NULL,
	usage_duration TEXT NOT NULL,
	repairability_score INTEGER NOT NULL,
	category_code TEXT NOT NULL,
	brand TEXT NOT NULL,
	price REAL NOT NULL,
	cf_score REAL NOT NULL,
	cf_band TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id, ts DESC, seq DESC);

CREATE TABLE IF NOT EXISTS streaks (
	user_id TEXT PRIMARY KEY,
	streak INTEGER NOT NULL
);
`

// SQLLedger implements Ledger on a sqlite database. WAL mode keeps
// readers unblocked during the append transaction.
type SQLLedger struct {
	db *sql.DB
}

// OpenLedger opens (creating if necessary) the ledger database at path.
// ":memory:" is accepted for tests.
func OpenLedger(ctx context.Context, path string) (*SQLLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY churn and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &SQLLedger{db: db}, nil
}

// AppendWithStreak implements Ledger.AppendWithStreak.
func (l *SQLLedger) AppendWithStreak(ctx context.Context, rec model.PurchaseRecord, newStreak int) error {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (id, user_id, product_id, ts, choice,
			packaging_material, shipping_mode, usage_duration, repairability_score,
			category_code, brand, price, cf_score, cf_band)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ProductID, rec.TS.UnixNano(), string(rec.Choice),
		rec.Attributes.PackagingMaterial, rec.Attributes.ShippingMode,
		rec.Attributes.UsageDuration, rec.Attributes.RepairabilityScore,
		rec.Attributes.CategoryCode, rec.Attributes.Brand, rec.Attributes.Price,
		rec.Score.Value, string(rec.Score.Band),
	); err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("append purchase: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO streaks (user_id, streak) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET streak = excluded.streak`,
		rec.UserID, newStreak,
	); err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("update streak cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("commit append tx: %w", err)
	}
	metrics.RecordLedgerWrite()
	return nil
}

// History implements Ledger.History.
func (l *SQLLedger) History(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, product_id, ts, choice,
			packaging_material, shipping_mode, usage_duration, repairability_score,
			category_code, brand, price, cf_score, cf_band
		FROM purchases WHERE user_id = ? ORDER BY ts DESC, seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.PurchaseRecord
	for rows.Next() {
		var rec model.PurchaseRecord
		var tsNanos int64
		var choice, band string
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ProductID, &tsNanos, &choice,
			&rec.Attributes.PackagingMaterial, &rec.Attributes.ShippingMode,
			&rec.Attributes.UsageDuration, &rec.Attributes.RepairabilityScore,
			&rec.Attributes.CategoryCode, &rec.Attributes.Brand, &rec.Attributes.Price,
			&rec.Score.Value, &band,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.TS = time.Unix(0, tsNanos)
		rec.Choice = model.Choice(choice)
		rec.Score.Band = model.Band(band)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Streak implements Ledger.Streak.
func (l *SQLLedger) Streak(ctx context.Context, userID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT streak FROM streaks WHERE user_id = ?`, userID,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query streak: %w", err)
	}
	return n, nil
}

// RebuildStreaks implements Ledger.RebuildStreaks. The ledger is
// canonical; this drops every cached counter and replays each user's
// history.
func (l *SQLLedger) RebuildStreaks(ctx context.Context) (int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM purchases`)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("iterate users: %w", err)
	}
	_ = rows.Close()

	// Replay outside the write transaction: the pool is capped at one
	// connection, so reads must not interleave with an open tx.
	rebuilt := make(map[string]int, len(users))
	for _, u := range users {
		history, err := l.History(ctx, u)
		if err != nil {
			return 0, err
		}
		rebuilt[u] = streak.Replay(history)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM streaks`); err != nil {
		return 0, fmt.Errorf("clear streak cache: %w", err)
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO streaks (user_id, streak) VALUES (?, ?)`,
			u, rebuilt[u],
		); err != nil {
			return 0, fmt.Errorf("rebuild streak for %s: %w", u, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild tx: %w", err)
	}
	return len(users), nil
}

// UserCount implements Ledger.UserCount.
func (l *SQLLedger) UserCount(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streaks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// PurchaseCount implements Ledger.PurchaseCount.
func (l *SQLLedger) PurchaseCount(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}
