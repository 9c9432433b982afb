package session

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema mirrors the server's migrations for the three game tables.
const testSchema = `
CREATE TABLE user_stats (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL UNIQUE,
	current_streak INTEGER NOT NULL DEFAULT 0,
	max_streak     INTEGER NOT NULL DEFAULT 0,
	version        INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE daily_sessions (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	date            TEXT NOT NULL,
	solved_ids      TEXT NOT NULL DEFAULT '[]',
	lives_remaining INTEGER NOT NULL,
	version         INTEGER NOT NULL DEFAULT 1,
	UNIQUE(user_id, date)
);
CREATE TABLE riddles (
	id              TEXT PRIMARY KEY,
	date            TEXT NOT NULL,
	seq             INTEGER NOT NULL,
	riddle_text     TEXT NOT NULL,
	correct_answers TEXT NOT NULL,
	explanation     TEXT NOT NULL DEFAULT '',
	hint            TEXT NOT NULL DEFAULT '',
	UNIQUE(date, seq)
);
`

func newTestSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return NewSQLiteStore(db)
}

func TestSQLiteGetOrCreateIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	second, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultLives, first.LivesRemaining)
	assert.Empty(t, first.SolvedIDs)

	stats1, err := store.GetOrCreateUserStats(ctx, "u1")
	require.NoError(t, err)
	stats2, err := store.GetOrCreateUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, stats1, stats2)
}

func TestSQLitePersistRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sess, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	sess.SolvedIDs = append(sess.SolvedIDs, "r1")
	sess.LivesRemaining = 2
	require.NoError(t, store.PersistSession(ctx, sess))

	got, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, got.SolvedIDs)
	assert.Equal(t, 2, got.LivesRemaining)

	stats, err := store.GetOrCreateUserStats(ctx, "u1")
	require.NoError(t, err)
	stats.CurrentStreak, stats.MaxStreak = 3, 4
	require.NoError(t, store.PersistStats(ctx, stats))

	gotStats, err := store.GetOrCreateUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, gotStats.CurrentStreak)
	assert.Equal(t, 4, gotStats.MaxStreak)
}

func TestSQLitePersistConflict(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	b, err := store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)

	a.LivesRemaining--
	require.NoError(t, store.PersistSession(ctx, a))

	b.SolvedIDs = append(b.SolvedIDs, "r1")
	assert.ErrorIs(t, store.PersistSession(ctx, b), ErrConflict)

	stale := &DailySession{UserID: "ghost", Date: "2025-06-01", Version: 1}
	assert.ErrorIs(t, store.PersistSession(ctx, stale), ErrNotFound)
}

func TestSQLiteRiddles(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertRiddle(ctx, Riddle{
		Date: "2025-06-01", Seq: 2, RiddleText: "second", CorrectAnswers: []string{"dog"},
	}))
	require.NoError(t, store.UpsertRiddle(ctx, Riddle{
		Date: "2025-06-01", Seq: 1, RiddleText: "first", CorrectAnswers: []string{"cat", "kitty"},
	}))

	rs, err := store.RiddlesForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "first", rs[0].RiddleText)
	assert.Equal(t, []string{"cat", "kitty"}, rs[0].CorrectAnswers)
	assert.Equal(t, "second", rs[1].RiddleText)

	// Upsert replaces content at the same (date, seq).
	require.NoError(t, store.UpsertRiddle(ctx, Riddle{
		Date: "2025-06-01", Seq: 1, RiddleText: "first v2", CorrectAnswers: []string{"cat"},
	}))
	rs, err = store.RiddlesForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "first v2", rs[0].RiddleText)

	empty, err := store.RiddlesForDate(ctx, "2099-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteResetAndLeaderboard(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateDailySession(ctx, "u1", "2025-05-31")
	require.NoError(t, err)
	_, err = store.GetOrCreateDailySession(ctx, "u1", "2025-06-01")
	require.NoError(t, err)

	require.NoError(t, store.ResetAllDailySessions(ctx, "2025-06-01"))
	require.NoError(t, store.ResetAllDailySessions(ctx, "2025-06-01"))

	fresh, err := store.GetOrCreateDailySession(ctx, "u1", "2025-05-31")
	require.NoError(t, err)
	assert.Equal(t, DefaultLives, fresh.LivesRemaining)

	for _, u := range []struct {
		id       string
		cur, max int
	}{{"u1", 1, 3}, {"u2", 4, 4}} {
		stats, err := store.GetOrCreateUserStats(ctx, u.id)
		require.NoError(t, err)
		stats.CurrentStreak, stats.MaxStreak = u.cur, u.max
		require.NoError(t, store.PersistStats(ctx, stats))
	}
	rows, err := store.StreakLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[0].UserID)
}
