package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookburrow/riddles-server/internal/session"
	"github.com/bookburrow/riddles-server/internal/ukdate"
)

func newTestServer(t *testing.T) (*Server, session.Store) {
	t.Helper()

	// Every httptest request shares one client IP; start each test with a
	// full token bucket.
	visitorsMu.Lock()
	visitors = make(map[string]*visitor)
	visitorsMu.Unlock()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);`)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	return New(store, db), store
}

func seedToday(t *testing.T, store session.Store, answers ...[]string) {
	t.Helper()
	today := ukdate.Today()
	for i, ans := range answers {
		require.NoError(t, store.UpsertRiddle(context.Background(), session.Riddle{
			Date:           today,
			Seq:            i + 1,
			RiddleText:     "question",
			CorrectAnswers: ans,
			Hint:           "a hint",
		}))
	}
}

// do issues a request against the router, carrying the auth cookie.
func do(t *testing.T, s *Server, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, s *Server, username string) []*http.Cookie {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/auth/signup",
		`{"username":"`+username+`","password":"hunter2hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGameRoutesRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/riddles/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlayThroughDay(t *testing.T) {
	s, store := newTestServer(t)
	seedToday(t, store, []string{"cat"}, []string{"dog"})
	cookies := signup(t, s, "player_one")

	// Fresh snapshot.
	rec := do(t, s, http.MethodGet, "/riddles/today", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		State          string `json:"state"`
		TotalRiddles   int    `json:"totalRiddles"`
		LivesRemaining int    `json:"livesRemaining"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "active", snap.State)
	assert.Equal(t, 2, snap.TotalRiddles)
	assert.Equal(t, session.DefaultLives, snap.LivesRemaining)

	// Hint for the first riddle.
	rec = do(t, s, http.MethodGet, "/riddles/hint", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a hint")

	// Wrong answer costs a life.
	rec = do(t, s, http.MethodPost, "/riddles/answer", `{"answer":"fish"}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Correct        bool   `json:"correct"`
		Outcome        string `json:"outcome"`
		LivesRemaining int    `json:"livesRemaining"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Correct)
	assert.Equal(t, "continue", res.Outcome)
	assert.Equal(t, session.DefaultLives-1, res.LivesRemaining)

	// First solve.
	rec = do(t, s, http.MethodPost, "/riddles/answer", `{"answer":" CAT "}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Correct)
	assert.Equal(t, "solved_first", res.Outcome)

	// Completing the set.
	rec = do(t, s, http.MethodPost, "/riddles/answer", `{"answer":"dog"}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "solved_all", res.Outcome)

	// No current riddle once done.
	rec = do(t, s, http.MethodPost, "/riddles/answer", `{"answer":"dog"}`, cookies)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Streak visible on the stats route (first + completion bumps).
	rec = do(t, s, http.MethodGet, "/stats/me", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		CurrentStreak int `json:"currentStreak"`
		MaxStreak     int `json:"maxStreak"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.MaxStreak)

	// And on the leaderboard.
	rec = do(t, s, http.MethodGet, "/riddles/leaderboard", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currentStreak":2`)
}

func TestNoRiddlesToday(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := signup(t, s, "player_two")

	rec := do(t, s, http.MethodGet, "/riddles/today", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_riddles_today")

	rec = do(t, s, http.MethodPost, "/riddles/answer", `{"answer":"cat"}`, cookies)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResetDailyRequiresToken(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "sched-secret")
	s, store := newTestServer(t)
	seedToday(t, store, []string{"cat"})

	rec := do(t, s, http.MethodPost, "/admin/reset-daily", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/reset-daily", nil)
	req.Header.Set("X-Admin-Token", "sched-secret")
	out := httptest.NewRecorder()
	s.Router().ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)

	// Idempotent second run.
	out = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/reset-daily", nil)
	req.Header.Set("X-Admin-Token", "sched-secret")
	s.Router().ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestSignupValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/auth/signup", `{"username":"x","password":"hunter2hunter2"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	signup(t, s, "player_three")
	rec = do(t, s, http.MethodPost, "/auth/signup", `{"username":"player_three","password":"hunter2hunter2"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	s, _ := newTestServer(t)
	signup(t, s, "player_four")

	rec := do(t, s, http.MethodPost, "/auth/login", `{"username":"player_four","password":"hunter2hunter2"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/auth/login", `{"username":"player_four","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
