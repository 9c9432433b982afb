// internal/ukdate/ukdate.go
//
// Reference-calendar-day computation for the daily riddle game.
// Session rows and riddle sets are keyed by the calendar date in UK local
// time (Europe/London, DST included), so the day boundary moves with BST.

package ukdate

import "time"

// location is resolved once; Europe/London ships in the zone database on
// every supported platform, so a load failure means a broken toolchain and
// falling back to UTC keeps the server usable.
var location = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Key returns the UK-local calendar date of t as YYYY-MM-DD.
func Key(t time.Time) string {
	return t.In(location).Format("2006-01-02")
}

// Today returns the key for the current UK calendar day.
func Today() string {
	return Key(time.Now())
}

// Yesterday returns the key for the previous UK calendar day.
func Yesterday() string {
	return Key(time.Now().Add(-24 * time.Hour))
}
