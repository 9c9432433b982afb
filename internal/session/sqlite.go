// internal/session/sqlite.go
//
// SQLite-backed implementation of the Store interface.
// Responsibilities:
//   - Get-or-create via INSERT OR IGNORE against UNIQUE keys, so concurrent
//     duplicate creations always resolve to one surviving row.
//   - Full-record replaces guarded by a version column; a lost race is
//     reported as ErrConflict, never silently overwritten.
//   - Read access to authored riddles in stable (date, seq) order.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type sqliteStore struct{ db *sql.DB }

// NewSQLiteStore wraps an opened database handle. The schema is applied by
// the caller's migrations (see db.go at the repository root).
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) GetOrCreateUserStats(ctx context.Context, userID string) (*UserStats, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_stats (id, user_id, current_streak, max_streak, version)
		 VALUES (?, ?, 0, 0, 1)`, uuid.NewString(), userID)
	if err != nil {
		return nil, fmt.Errorf("create user_stats: %w", err)
	}
	return s.userStats(ctx, userID)
}

func (s *sqliteStore) userStats(ctx context.Context, userID string) (*UserStats, error) {
	var u UserStats
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, current_streak, max_streak, version
		 FROM user_stats WHERE user_id=?`, userID,
	).Scan(&u.ID, &u.UserID, &u.CurrentStreak, &u.MaxStreak, &u.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user_stats: %w", err)
	}
	return &u, nil
}

func (s *sqliteStore) GetOrCreateDailySession(ctx context.Context, userID, date string) (*DailySession, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_sessions (id, user_id, date, solved_ids, lives_remaining, version)
		 VALUES (?, ?, ?, '[]', ?, 1)`, uuid.NewString(), userID, date, DefaultLives)
	if err != nil {
		return nil, fmt.Errorf("create daily_session: %w", err)
	}

	var (
		sess   DailySession
		solved string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, solved_ids, lives_remaining, version
		 FROM daily_sessions WHERE user_id=? AND date=?`, userID, date,
	).Scan(&sess.ID, &sess.UserID, &sess.Date, &solved, &sess.LivesRemaining, &sess.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read daily_session: %w", err)
	}
	if err := json.Unmarshal([]byte(solved), &sess.SolvedIDs); err != nil {
		return nil, fmt.Errorf("decode solved_ids: %w", err)
	}
	if sess.SolvedIDs == nil {
		sess.SolvedIDs = []string{}
	}
	return &sess, nil
}

func (s *sqliteStore) PersistStats(ctx context.Context, stats *UserStats) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_stats SET current_streak=?, max_streak=?, version=version+1
		 WHERE user_id=? AND version=?`,
		stats.CurrentStreak, stats.MaxStreak, stats.UserID, stats.Version)
	if err != nil {
		return fmt.Errorf("persist user_stats: %w", err)
	}
	if err := s.checkReplaced(ctx, res,
		`SELECT 1 FROM user_stats WHERE user_id=?`, stats.UserID); err != nil {
		return err
	}
	stats.Version++
	return nil
}

func (s *sqliteStore) PersistSession(ctx context.Context, sess *DailySession) error {
	solved, err := json.Marshal(sess.SolvedIDs)
	if err != nil {
		return fmt.Errorf("encode solved_ids: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_sessions SET solved_ids=?, lives_remaining=?, version=version+1
		 WHERE user_id=? AND date=? AND version=?`,
		string(solved), sess.LivesRemaining, sess.UserID, sess.Date, sess.Version)
	if err != nil {
		return fmt.Errorf("persist daily_session: %w", err)
	}
	if err := s.checkReplaced(ctx, res,
		`SELECT 1 FROM daily_sessions WHERE user_id=? AND date=?`, sess.UserID, sess.Date); err != nil {
		return err
	}
	sess.Version++
	return nil
}

// checkReplaced distinguishes a version race from a missing row after an
// UPDATE matched nothing.
func (s *sqliteStore) checkReplaced(ctx context.Context, res sql.Result, existsQuery string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, existsQuery, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (s *sqliteStore) RiddlesForDate(ctx context.Context, date string) ([]Riddle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, seq, riddle_text, correct_answers, explanation, hint
		 FROM riddles WHERE date=? ORDER BY seq ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("query riddles: %w", err)
	}
	defer rows.Close()

	out := []Riddle{}
	for rows.Next() {
		var (
			r       Riddle
			answers string
		)
		if err := rows.Scan(&r.ID, &r.Date, &r.Seq, &r.RiddleText, &answers, &r.Explanation, &r.Hint); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &r.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("decode correct_answers: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpsertRiddle(ctx context.Context, r Riddle) error {
	answers, err := json.Marshal(r.CorrectAnswers)
	if err != nil {
		return fmt.Errorf("encode correct_answers: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO riddles (id, date, seq, riddle_text, correct_answers, explanation, hint)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date, seq) DO UPDATE SET
		   riddle_text=excluded.riddle_text,
		   correct_answers=excluded.correct_answers,
		   explanation=excluded.explanation,
		   hint=excluded.hint`,
		r.ID, r.Date, r.Seq, r.RiddleText, string(answers), r.Explanation, r.Hint)
	if err != nil {
		return fmt.Errorf("upsert riddle: %w", err)
	}
	return nil
}

func (s *sqliteStore) ResetAllDailySessions(ctx context.Context, today string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM daily_sessions WHERE date < ?`, today)
	if err != nil {
		return fmt.Errorf("reset daily_sessions: %w", err)
	}
	return nil
}

func (s *sqliteStore) StreakLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, current_streak, max_streak
		 FROM user_stats
		 ORDER BY current_streak DESC, max_streak DESC, user_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.CurrentStreak, &r.MaxStreak); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
