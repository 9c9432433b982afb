// internal/session/memory.go
//
// In-memory implementation of the Store interface.
// Used for tests and for running the server without a database file.
//
// Characteristics:
//   - Records are stored by value and copied on the way in and out, so
//     callers always hold snapshots, never shared pointers.
//   - Concurrency-safe via RWMutex.
//   - Version tokens enforce the same conflict semantics as the SQLite
//     store: a persist with a stale version returns ErrConflict.

package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memory struct {
	mu       sync.RWMutex
	stats    map[string]*UserStats    // keyed by userID
	sessions map[string]*DailySession // keyed by userID|date
	riddles  map[string]Riddle        // keyed by riddle ID
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		stats:    make(map[string]*UserStats),
		sessions: make(map[string]*DailySession),
		riddles:  make(map[string]Riddle),
	}
}

func sessionKey(userID, date string) string { return userID + "|" + date }

func (m *memory) GetOrCreateUserStats(ctx context.Context, userID string) (*UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.stats[userID]; ok {
		return u.Clone(), nil
	}
	u := &UserStats{ID: uuid.NewString(), UserID: userID, Version: 1}
	m.stats[userID] = u
	return u.Clone(), nil
}

func (m *memory) GetOrCreateDailySession(ctx context.Context, userID, date string) (*DailySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(userID, date)
	if s, ok := m.sessions[key]; ok {
		return s.Clone(), nil
	}
	s := &DailySession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Date:           date,
		SolvedIDs:      []string{},
		LivesRemaining: DefaultLives,
		Version:        1,
	}
	m.sessions[key] = s
	return s.Clone(), nil
}

func (m *memory) PersistStats(ctx context.Context, stats *UserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.stats[stats.UserID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != stats.Version {
		return ErrConflict
	}
	stats.Version++
	m.stats[stats.UserID] = stats.Clone()
	return nil
}

func (m *memory) PersistSession(ctx context.Context, sess *DailySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(sess.UserID, sess.Date)
	cur, ok := m.sessions[key]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != sess.Version {
		return ErrConflict
	}
	sess.Version++
	m.sessions[key] = sess.Clone()
	return nil
}

func (m *memory) RiddlesForDate(ctx context.Context, date string) ([]Riddle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Riddle{}
	for _, r := range m.riddles {
		if r.Date == date {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memory) UpsertRiddle(ctx context.Context, r Riddle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		// Replace-by-(date,seq) like the SQLite store's upsert.
		for id, existing := range m.riddles {
			if existing.Date == r.Date && existing.Seq == r.Seq {
				r.ID = id
				break
			}
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.riddles[r.ID] = r
	return nil
}

func (m *memory) ResetAllDailySessions(ctx context.Context, today string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if s.Date < today {
			delete(m.sessions, key)
		}
	}
	return nil
}

func (m *memory) StreakLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]LeaderboardRow, 0, len(m.stats))
	for _, u := range m.stats {
		rows = append(rows, LeaderboardRow{UserID: u.UserID, CurrentStreak: u.CurrentStreak, MaxStreak: u.MaxStreak})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CurrentStreak != rows[j].CurrentStreak {
			return rows[i].CurrentStreak > rows[j].CurrentStreak
		}
		if rows[i].MaxStreak != rows[j].MaxStreak {
			return rows[i].MaxStreak > rows[j].MaxStreak
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
