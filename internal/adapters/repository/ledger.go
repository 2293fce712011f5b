package repository

import (
	"context"

	"github.com/mzare/ecotrace/internal/domain/model"
)

// Ledger is the append-only purchase record store plus the per-user
// streak cache. The ledger is the source of truth: the streak counter
// is a derived cache that can always be rebuilt by replay.
type Ledger interface {
	// AppendWithStreak durably appends a purchase record and sets the
	// user's cached streak in a single transaction. Either both writes
	// apply or neither does.
	AppendWithStreak(ctx context.Context, rec model.PurchaseRecord, newStreak int) error

	// History returns a user's purchase records, newest first. An
	// unknown user yields an empty slice, not an error.
	History(ctx context.Context, userID string) ([]model.PurchaseRecord, error)

	// Streak returns the cached streak for a user, zero if unknown.
	Streak(ctx context.Context, userID string) (int, error)

	// RebuildStreaks recomputes every cached streak by replaying the
	// ledger and reports the number of users rebuilt.
	RebuildStreaks(ctx context.Context) (int, error)

	// UserCount returns the number of users with a cached streak.
	UserCount(ctx context.Context) (int, error)

	// PurchaseCount returns the total number of ledger records.
	PurchaseCount(ctx context.Context) (int, error)

	Close() error
}
