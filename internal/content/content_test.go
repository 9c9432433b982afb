package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookburrow/riddles-server/internal/session"
	"github.com/bookburrow/riddles-server/internal/ukdate"
)

func TestParseAssignsDateAndSeq(t *testing.T) {
	data := []byte(`[
		{"riddleText":"q1","correctAnswers":["a1"]},
		{"riddleText":"q2","correctAnswers":["a2"]},
		{"date":"2025-06-02","seq":5,"riddleText":"q3","correctAnswers":["a3"]}
	]`)

	rs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, rs, 3)

	today := ukdate.Today()
	assert.Equal(t, today, rs[0].Date)
	assert.Equal(t, 1, rs[0].Seq)
	assert.Equal(t, today, rs[1].Date)
	assert.Equal(t, 2, rs[1].Seq)
	assert.Equal(t, "2025-06-02", rs[2].Date)
	assert.Equal(t, 5, rs[2].Seq)
}

func TestParseRejectsBadJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSeedEmbeddedDefaults(t *testing.T) {
	store := session.NewMemoryStore()
	n, err := Seed(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rs, err := store.RiddlesForDate(context.Background(), ukdate.Today())
	require.NoError(t, err)
	require.Len(t, rs, 3)
	for i, r := range rs {
		assert.Equal(t, i+1, r.Seq)
		assert.NotEmpty(t, r.RiddleText)
		assert.NotEmpty(t, r.CorrectAnswers)
		assert.NotEmpty(t, r.Hint)
	}
}
