// internal/session/types.go
//
// Record types persisted by the session store.
// Defines:
//   - UserStats: lifetime streak counters, one row per user.
//   - DailySession: one row per user per UK calendar day (lives + progress).
//   - Riddle: authored content, read-only to the game core.

package session

import "errors"

// DefaultLives is the wrong-answer budget seeded into every new DailySession.
const DefaultLives = 3

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrConflict is returned when a persist lost a race against a
	// concurrent writer (cross-device play). Callers should re-fetch and
	// replay the operation rather than re-persist stale records.
	ErrConflict = errors.New("session: conflict")
)

// UserStats holds a user's lifetime streak counters.
// Created on first access, mutated on first-solve-of-day and on game over,
// never deleted. MaxStreak >= CurrentStreak holds after every mutation.
type UserStats struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	CurrentStreak int    `json:"currentStreak"` // consecutive days with >=1 solve
	MaxStreak     int    `json:"maxStreak"`     // high-water mark of CurrentStreak
	Version       int64  `json:"-"`             // optimistic concurrency token
}

// DailySession is a user's attempt at one UK calendar day's riddle set.
// Seeded with DefaultLives and an empty solve list; superseded (not deleted)
// when the next day's row is lazily created.
type DailySession struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	Date           string   `json:"date"`           // YYYY-MM-DD, UK local
	SolvedIDs      []string `json:"solvedIds"`      // insertion order = solve order
	LivesRemaining int      `json:"livesRemaining"` // 0..DefaultLives
	Version        int64    `json:"-"`
}

// Riddle is one authored riddle, active on a single date.
// The day's set is all riddles for that date in Seq order; the engine
// indexes into it by the number of riddles solved so far.
type Riddle struct {
	ID             string   `json:"id"`
	Date           string   `json:"date"`
	Seq            int      `json:"seq"` // stable creation order within the date
	RiddleText     string   `json:"riddleText"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation"`
	Hint           string   `json:"hint"`
}

// LeaderboardRow is one entry of the streak leaderboard.
type LeaderboardRow struct {
	UserID        string `json:"userId"`
	CurrentStreak int    `json:"currentStreak"`
	MaxStreak     int    `json:"maxStreak"`
}

// Clone returns a deep copy of s, used for pre-mutation snapshots.
func (s *DailySession) Clone() *DailySession {
	cp := *s
	cp.SolvedIDs = append([]string(nil), s.SolvedIDs...)
	return &cp
}

// Clone returns a copy of u, used for pre-mutation snapshots.
func (u *UserStats) Clone() *UserStats {
	cp := *u
	return &cp
}
