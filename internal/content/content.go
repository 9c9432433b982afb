// internal/content/content.go
//
// Riddle content loading for the daily game.
//
// Responsibilities:
//   - Load the authored riddle file from RIDDLES_FILE, or fall back to the
//     embedded default set so the server runs with no configuration.
//   - Seed the loaded riddles into the session store at boot (idempotent:
//     upserts keyed by (date, seq)).
//
// File format: a JSON array of riddle objects. Entries with an empty date
// are assigned to the current UK day at seed time, which is what the
// embedded defaults rely on.
//
// Initialization is run once (sync.Once), the same pattern the server uses
// for every boot-time asset.

package content

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bookburrow/riddles-server/internal/session"
	"github.com/bookburrow/riddles-server/internal/ukdate"
)

//go:embed default_riddles.json
var embeddedRiddles []byte

var (
	loadOnce sync.Once
	loaded   []session.Riddle
	loadErr  error
)

// Load parses the riddle file exactly once and returns the authored set.
func Load() ([]session.Riddle, error) {
	loadOnce.Do(func() {
		data := embeddedRiddles
		if path := os.Getenv("RIDDLES_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				loadErr = fmt.Errorf("read riddles file: %w", err)
				return
			}
			data = b
		}
		loaded, loadErr = Parse(data)
	})
	return loaded, loadErr
}

// Parse decodes a riddle JSON document. Entries without a date are assigned
// to the current UK day; entries without a Seq keep file order.
func Parse(data []byte) ([]session.Riddle, error) {
	var rs []session.Riddle
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode riddles: %w", err)
	}
	today := ukdate.Today()
	seqByDate := map[string]int{}
	for i := range rs {
		if rs[i].Date == "" {
			rs[i].Date = today
		}
		if rs[i].Seq == 0 {
			rs[i].Seq = seqByDate[rs[i].Date] + 1
		}
		if rs[i].Seq > seqByDate[rs[i].Date] {
			seqByDate[rs[i].Date] = rs[i].Seq
		}
	}
	return rs, nil
}

// Seed loads the authored set and upserts it into the store.
func Seed(ctx context.Context, store session.Store) (int, error) {
	rs, err := Load()
	if err != nil {
		return 0, err
	}
	for _, r := range rs {
		if err := store.UpsertRiddle(ctx, r); err != nil {
			return 0, fmt.Errorf("seed riddle %s/%d: %w", r.Date, r.Seq, err)
		}
	}
	return len(rs), nil
}
