// internal/riddle/engine.go
//
// Game engine for a single user's daily riddle session.
// Responsibilities:
//   - Judge submitted answers against the current riddle's accepted set.
//   - Track lives, solve progress, and streaks per the house rules:
//       * streak advances on the first solve of the day and again when the
//         whole set is completed;
//       * the streak resets only when lives run out with nothing solved;
//       * running out of lives after a solve does not end the day.
//   - Persist session and stats through the Store after each transition,
//     rolling the in-memory records back if persistence fails.
//
// Notes:
//   - State is derived, never stored: NoRiddlesToday / Active / SolvedAll /
//     OutOfLives are pure functions of (riddles, session).
//   - The hint cooldown is local to the engine and never persisted.

package riddle

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/bookburrow/riddles-server/internal/session"
)

const hintCooldownPerSecond = 1.0 / 3.0 // one hint every 3 seconds

const noExplanation = "No explanation available"

// Engine drives one user's session for one day. It is owned by a single
// caller and driven sequentially; it performs no internal concurrency.
type Engine struct {
	store   session.Store
	riddles []session.Riddle
	sess    *session.DailySession
	stats   *session.UserStats
	hints   *rate.Limiter
}

// New attaches an engine to an already-loaded session. The riddle slice is
// the day's authored set in stable order.
func New(store session.Store, riddles []session.Riddle, sess *session.DailySession, stats *session.UserStats) *Engine {
	return &Engine{
		store:   store,
		riddles: riddles,
		sess:    sess,
		stats:   stats,
		hints:   rate.NewLimiter(rate.Limit(hintCooldownPerSecond), 1),
	}
}

// Load fetches (or lazily creates) the user's session and stats for the
// given date key, loads the day's riddle set, and attaches an engine.
func Load(ctx context.Context, store session.Store, userID, date string) (*Engine, error) {
	stats, err := store.GetOrCreateUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user stats: %w", err)
	}
	sess, err := store.GetOrCreateDailySession(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load daily session: %w", err)
	}
	riddles, err := store.RiddlesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load riddles: %w", err)
	}
	return New(store, riddles, sess, stats), nil
}

// State derives the current session state.
func (e *Engine) State() State {
	switch {
	case e.sess == nil:
		return StateLoading
	case len(e.riddles) == 0:
		return StateNoRiddlesToday
	case e.sess.LivesRemaining <= 0 && len(e.sess.SolvedIDs) == 0:
		return StateOutOfLives
	case len(e.sess.SolvedIDs) >= len(e.riddles):
		return StateSolvedAll
	default:
		return StateActive
	}
}

// CurrentRiddle returns the riddle the user is on, valid only while active.
func (e *Engine) CurrentRiddle() (*session.Riddle, error) {
	if e.State() != StateActive {
		return nil, ErrNoCurrentRiddle
	}
	return &e.riddles[len(e.sess.SolvedIDs)], nil
}

// SubmitAnswer judges one answer and applies the resulting transition.
// The session and stats are snapshotted before mutation; if any persist
// fails they are restored and the error is surfaced with the submission
// unconsumed, so the caller may retry the same input.
func (e *Engine) SubmitAnswer(ctx context.Context, rawInput string) (Result, error) {
	cur, err := e.CurrentRiddle()
	if err != nil {
		return Result{}, err
	}

	correct := false
	normalized := Normalize(rawInput)
	for _, ans := range cur.CorrectAnswers {
		if Normalize(ans) == normalized {
			correct = true
			break
		}
	}

	sessSnap := e.sess.Clone()
	statsSnap := e.stats.Clone()

	var res Result
	if correct {
		res, err = e.applyCorrect(ctx, cur)
	} else {
		res, err = e.applyWrong(ctx)
	}
	if err != nil {
		e.sess = sessSnap
		e.stats = statsSnap
		return Result{}, err
	}
	return res, nil
}

func (e *Engine) applyCorrect(ctx context.Context, cur *session.Riddle) (Result, error) {
	e.sess.SolvedIDs = append(e.sess.SolvedIDs, cur.ID)
	solved := len(e.sess.SolvedIDs)
	total := len(e.riddles)

	first := solved == 1
	last := solved == total

	if err := e.store.PersistSession(ctx, e.sess); err != nil {
		return Result{}, fmt.Errorf("persist session: %w", err)
	}

	if first || last {
		e.stats.CurrentStreak++
		if e.stats.CurrentStreak > e.stats.MaxStreak {
			e.stats.MaxStreak = e.stats.CurrentStreak
		}
		if err := e.store.PersistStats(ctx, e.stats); err != nil {
			return Result{}, fmt.Errorf("persist stats: %w", err)
		}
	}

	res := e.baseResult(true)
	switch {
	case last:
		res.Outcome = OutcomeSolvedAll
		res.Revealed = e.revealAll()
	case first:
		res.Outcome = OutcomeSolvedFirst
		res.Revealed = []Revealed{reveal(*cur)}
	default:
		res.Outcome = OutcomeContinue
	}
	return res, nil
}

func (e *Engine) applyWrong(ctx context.Context) (Result, error) {
	if e.sess.LivesRemaining > 0 {
		e.sess.LivesRemaining--
	}

	if err := e.store.PersistSession(ctx, e.sess); err != nil {
		return Result{}, fmt.Errorf("persist session: %w", err)
	}

	gameOver := e.sess.LivesRemaining <= 0 && len(e.sess.SolvedIDs) == 0
	if gameOver && e.stats.CurrentStreak != 0 {
		e.stats.CurrentStreak = 0 // MaxStreak stays
		if err := e.store.PersistStats(ctx, e.stats); err != nil {
			return Result{}, fmt.Errorf("persist stats: %w", err)
		}
	}

	res := e.baseResult(false)
	if gameOver {
		res.Outcome = OutcomeGameOver
		res.Revealed = e.revealAll()
	} else {
		// Lives may be exhausted after a solve; the day stays open.
		res.Outcome = OutcomeContinue
	}
	return res, nil
}

// Hint returns the current riddle's hint text, rate-limited so repeated
// taps are suppressed.
func (e *Engine) Hint() (string, error) {
	cur, err := e.CurrentRiddle()
	if err != nil {
		return "", err
	}
	if !e.hints.Allow() {
		return "", ErrHintCooldown
	}
	return cur.Hint, nil
}

// Snapshot returns a render-ready view of the session.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		State:        e.State(),
		TotalRiddles: len(e.riddles),
	}
	if e.sess != nil {
		snap.SolvedCount = len(e.sess.SolvedIDs)
		snap.LivesRemaining = e.sess.LivesRemaining
	}
	if e.stats != nil {
		snap.CurrentStreak = e.stats.CurrentStreak
		snap.MaxStreak = e.stats.MaxStreak
	}
	if cur, err := e.CurrentRiddle(); err == nil {
		snap.RiddleText = cur.RiddleText
	}
	return snap
}

func (e *Engine) baseResult(correct bool) Result {
	return Result{
		Correct:        correct,
		LivesRemaining: e.sess.LivesRemaining,
		SolvedCount:    len(e.sess.SolvedIDs),
		TotalRiddles:   len(e.riddles),
		CurrentStreak:  e.stats.CurrentStreak,
		MaxStreak:      e.stats.MaxStreak,
	}
}

func (e *Engine) revealAll() []Revealed {
	out := make([]Revealed, 0, len(e.riddles))
	for _, r := range e.riddles {
		out = append(out, reveal(r))
	}
	return out
}

func reveal(r session.Riddle) Revealed {
	expl := r.Explanation
	if expl == "" {
		expl = noExplanation
	}
	return Revealed{
		Question:    r.RiddleText,
		Answer:      strings.Join(r.CorrectAnswers, ", "),
		Explanation: expl,
	}
}

// Normalize canonicalizes an answer for comparison: trim, lowercase, then
// strip every remaining whitespace rune. Idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
