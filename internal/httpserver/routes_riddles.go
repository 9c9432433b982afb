// internal/httpserver/routes_riddles.go
//
// HTTP routes for the daily riddle game.
// Exposes, under authentication:
//   - GET  /riddles/today       → render-ready snapshot of today's session
//   - POST /riddles/answer      → submit one answer
//   - GET  /riddles/hint        → current riddle's hint (cooldown-limited)
//   - GET  /stats/me            → lifetime streak counters
//   - GET  /riddles/leaderboard → top streaks
// and, guarded by ADMIN_TOKEN instead of a user login:
//   - POST /admin/reset-daily   → day-boundary rollover for the scheduler
//
// Engines are held in memory per (user, UK day) so the hint cooldown and
// loaded riddle set survive across requests; all durable state lives in the
// session store. A persist conflict (cross-device play) drops the cached
// engine, reloads fresh state, and replays the single submission once.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bookburrow/riddles-server/internal/riddle"
	"github.com/bookburrow/riddles-server/internal/session"
	"github.com/bookburrow/riddles-server/internal/ukdate"
)

// riddleServer wraps dependencies for the game endpoints.
type riddleServer struct {
	srv     *Server
	mu      sync.Mutex                // guards engines
	engines map[string]*riddle.Engine // active engines keyed by userID|date
}

// mountRiddles registers the game routes on the authed router and the
// scheduler's reset route on the root router.
func (s *Server) mountRiddles(r chi.Router) {
	rs := &riddleServer{srv: s, engines: make(map[string]*riddle.Engine)}

	r.Get("/riddles/today", rs.handleToday)
	r.Post("/riddles/answer", rs.handleAnswer)
	r.Get("/riddles/hint", rs.handleHint)
	r.Get("/stats/me", rs.handleMyStats)
	r.Get("/riddles/leaderboard", rs.handleLeaderboard)

	s.r.Post("/admin/reset-daily", rs.handleResetDaily)
}

// engineFor returns the cached engine for (user, today), loading one from
// the store on first use.
func (rs *riddleServer) engineFor(ctx context.Context, userID string) (*riddle.Engine, string, error) {
	date := ukdate.Today()
	key := userID + "|" + date

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if eng, ok := rs.engines[key]; ok {
		return eng, key, nil
	}
	eng, err := riddle.Load(ctx, rs.srv.store, userID, date)
	if err != nil {
		return nil, key, err
	}
	rs.engines[key] = eng
	return eng, key, nil
}

// dropEngine evicts a cached engine so the next call reloads fresh state.
func (rs *riddleServer) dropEngine(key string) {
	rs.mu.Lock()
	delete(rs.engines, key)
	rs.mu.Unlock()
}

// -----------------------------------------------------------------------------
// GET /riddles/today

func (rs *riddleServer) handleToday(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	eng, _, err := rs.engineFor(r.Context(), me.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(eng.Snapshot())
}

// -----------------------------------------------------------------------------
// POST /riddles/answer

// answerReq is the request payload for /riddles/answer.
type answerReq struct {
	Answer string `json:"answer"`
}

func (rs *riddleServer) handleAnswer(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)

	var p answerReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	eng, key, err := rs.engineFor(r.Context(), me.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	res, err := eng.SubmitAnswer(r.Context(), p.Answer)
	if errors.Is(err, session.ErrConflict) {
		// Another device won the race: re-derive state and re-apply the
		// single answer once.
		rs.dropEngine(key)
		eng, _, err = rs.engineFor(r.Context(), me.ID)
		if err == nil {
			res, err = eng.SubmitAnswer(r.Context(), p.Answer)
		}
	}
	if err != nil {
		rs.writeAnswerError(w, key, err)
		return
	}

	answersTotal.WithLabelValues(string(res.Outcome)).Inc()
	_ = json.NewEncoder(w).Encode(res)
}

// writeAnswerError maps engine/store errors onto HTTP statuses.
func (rs *riddleServer) writeAnswerError(w http.ResponseWriter, key string, err error) {
	switch {
	case errors.Is(err, riddle.ErrNoCurrentRiddle):
		http.Error(w, `{"error":"no_current_riddle"}`, http.StatusConflict)
	case errors.Is(err, session.ErrConflict):
		http.Error(w, `{"error":"conflict"}`, http.StatusConflict)
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	default:
		// Persistence failure: the engine rolled back, the submission is
		// unconsumed, and the caller may retry. Drop the cached engine so
		// the retry starts from the last persisted state.
		rs.dropEngine(key)
		log.Error().Err(err).Msg("answer persistence failed")
		http.Error(w, `{"error":"persistence_failure"}`, http.StatusServiceUnavailable)
	}
}

// -----------------------------------------------------------------------------
// GET /riddles/hint

func (rs *riddleServer) handleHint(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	eng, _, err := rs.engineFor(r.Context(), me.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	hint, err := eng.Hint()
	switch {
	case errors.Is(err, riddle.ErrHintCooldown):
		http.Error(w, `{"error":"hint_cooldown"}`, http.StatusTooManyRequests)
		return
	case errors.Is(err, riddle.ErrNoCurrentRiddle):
		http.Error(w, `{"error":"no_current_riddle"}`, http.StatusConflict)
		return
	case err != nil:
		writeStoreError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"hint": hint})
}

// -----------------------------------------------------------------------------
// GET /stats/me

func (rs *riddleServer) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	stats, err := rs.srv.store.GetOrCreateUserStats(r.Context(), me.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            stats.UserID,
		"currentStreak": stats.CurrentStreak,
		"maxStreak":     stats.MaxStreak,
	})
}

// -----------------------------------------------------------------------------
// GET /riddles/leaderboard

// lbRes is returned by /riddles/leaderboard.
type lbRes struct {
	Date string                   `json:"date"`
	Top  []session.LeaderboardRow `json:"top"`
}

func (rs *riddleServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := rs.srv.store.StreakLeaderboard(r.Context(), 20)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: ukdate.Today(), Top: rows})
}

// -----------------------------------------------------------------------------
// POST /admin/reset-daily

// handleResetDaily is the external scheduler's entry point for the day
// rollover. Sessions are lazily created per day, so running it more than
// once is harmless.
func (rs *riddleServer) handleResetDaily(w http.ResponseWriter, r *http.Request) {
	token := getEnv("ADMIN_TOKEN", "")
	if token == "" || r.Header.Get("X-Admin-Token") != token {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	today := ukdate.Today()
	if err := rs.srv.store.ResetAllDailySessions(r.Context(), today); err != nil {
		writeStoreError(w, err)
		return
	}
	// Yesterday's engines are stale now.
	rs.mu.Lock()
	rs.engines = make(map[string]*riddle.Engine)
	rs.mu.Unlock()

	log.Info().Str("date", today).Msg("daily sessions reset")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "date": today})
}

// writeStoreError maps store errors onto HTTP statuses for read paths.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("store error")
		http.Error(w, `{"error":"store_unavailable"}`, http.StatusServiceUnavailable)
	}
}
