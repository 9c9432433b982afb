// internal/session/store.go
//
// Store is the persistence contract for the riddle game core.
// Implementations may be backed by memory (this package), SQLite, etc.

package session

import "context"

// Store manages the two persisted record kinds (UserStats, DailySession)
// plus read access to authored riddles.
//
// Get-or-create calls are idempotent: repeated calls with no intervening
// mutation return identical records and never create duplicate rows.
// Persist calls are full-record replaces guarded by a version token;
// a lost race returns ErrConflict and leaves the stored record untouched.
type Store interface {
	// GetOrCreateUserStats returns the user's lifetime stats, creating a
	// zeroed row on first access. Concurrent duplicate creations resolve
	// to a single surviving row.
	GetOrCreateUserStats(ctx context.Context, userID string) (*UserStats, error)

	// GetOrCreateDailySession returns the user's session for the given
	// date key, creating one seeded with DefaultLives and no solves.
	GetOrCreateDailySession(ctx context.Context, userID, date string) (*DailySession, error)

	// PersistStats replaces the stored UserStats. Returns ErrConflict if
	// the record was concurrently modified, ErrNotFound if it is missing.
	PersistStats(ctx context.Context, stats *UserStats) error

	// PersistSession replaces the stored DailySession with the same
	// conflict semantics as PersistStats.
	PersistSession(ctx context.Context, sess *DailySession) error

	// RiddlesForDate returns the day's riddle set in stable authored
	// order. An empty slice (no error) means no riddles for that day.
	RiddlesForDate(ctx context.Context, date string) ([]Riddle, error)

	// UpsertRiddle inserts or replaces one authored riddle.
	UpsertRiddle(ctx context.Context, r Riddle) error

	// ResetAllDailySessions rolls session state over for a new day by
	// dropping sessions older than the given date key. Invoked by an
	// external scheduler once per day; safe to run repeatedly since
	// sessions are lazily created per day, not globally wiped.
	ResetAllDailySessions(ctx context.Context, today string) error

	// StreakLeaderboard returns the top users ordered by current streak,
	// then max streak.
	StreakLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}
