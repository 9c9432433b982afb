package ukdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			// GMT in winter: UK day matches UTC.
			name: "winter late evening",
			in:   time.Date(2025, 1, 15, 23, 30, 0, 0, time.UTC),
			want: "2025-01-15",
		},
		{
			// BST in summer: 23:30 UTC is already the next UK day.
			name: "summer crosses midnight",
			in:   time.Date(2025, 7, 15, 23, 30, 0, 0, time.UTC),
			want: "2025-07-16",
		},
		{
			name: "summer midday",
			in:   time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC),
			want: "2025-07-15",
		},
		{
			// Clocks go forward 2025-03-30 01:00 UTC.
			name: "spring transition day",
			in:   time.Date(2025, 3, 30, 23, 30, 0, 0, time.UTC),
			want: "2025-03-31",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Key(tc.in))
		})
	}
}

func TestTodayYesterdayFormat(t *testing.T) {
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, Today())
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, Yesterday())
	assert.NotEqual(t, Today(), Yesterday())
}
