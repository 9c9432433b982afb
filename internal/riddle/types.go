// internal/riddle/types.go
//
// Core type definitions for the riddle game engine.
// Defines:
//   - State: derived game-session state (never stored, always recomputed).
//   - Outcome: result classification for one answer submission.
//   - Result: what SubmitAnswer returns to the caller for rendering.

package riddle

import "errors"

// State is the derived state of a day's game session. It is a pure function
// of (todaysRiddles, session) and is recomputed on every call.
type State string

const (
	// StateLoading means the engine has no session attached yet.
	StateLoading State = "loading"
	// StateNoRiddlesToday means no riddles were authored for the day.
	StateNoRiddlesToday State = "no_riddles_today"
	// StateActive means the user can still submit answers.
	StateActive State = "active"
	// StateSolvedAll means every riddle of the day has been solved.
	StateSolvedAll State = "solved_all"
	// StateOutOfLives means the lives budget was spent before any solve.
	StateOutOfLives State = "out_of_lives"
)

// Outcome classifies a single answer submission.
type Outcome string

const (
	OutcomeContinue    Outcome = "continue"     // play goes on
	OutcomeSolvedFirst Outcome = "solved_first" // first solve of the day
	OutcomeSolvedAll   Outcome = "solved_all"   // final riddle solved
	OutcomeGameOver    Outcome = "game_over"    // lives spent with no solve
)

var (
	// ErrNoCurrentRiddle is returned when the engine is used outside the
	// active state. Usage error; not retryable.
	ErrNoCurrentRiddle = errors.New("riddle: no current riddle")

	// ErrHintCooldown is returned when a hint is requested again before
	// the cooldown elapsed.
	ErrHintCooldown = errors.New("riddle: hint cooldown")
)

// Revealed is the rendered form of a riddle shown after a terminal outcome,
// matching what the end-of-game screens display.
type Revealed struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// Result is returned by SubmitAnswer.
type Result struct {
	Correct        bool       `json:"correct"`
	Outcome        Outcome    `json:"outcome"`
	LivesRemaining int        `json:"livesRemaining"`
	SolvedCount    int        `json:"solvedCount"`
	TotalRiddles   int        `json:"totalRiddles"`
	CurrentStreak  int        `json:"currentStreak"`
	MaxStreak      int        `json:"maxStreak"`
	Revealed       []Revealed `json:"revealed,omitempty"`
}

// Snapshot is a render-ready view of the engine's current state.
type Snapshot struct {
	State          State  `json:"state"`
	SolvedCount    int    `json:"solvedCount"`
	TotalRiddles   int    `json:"totalRiddles"`
	LivesRemaining int    `json:"livesRemaining"`
	CurrentStreak  int    `json:"currentStreak"`
	MaxStreak      int    `json:"maxStreak"`
	RiddleText     string `json:"riddleText,omitempty"` // active state only
}
