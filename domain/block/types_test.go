package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosdt/domain/sdt"
)

func TestNew(t *testing.T) {
	b, err := New("  session 1 ", sdt.Counts{Hits: 15, Misses: 10, FalseAlarms: 15, CorrectRejections: 5})
	require.NoError(t, err)

	assert.False(t, b.ID == "")
	assert.Equal(t, "session 1", b.Label)
	assert.False(t, b.CreatedAt.IsZero())

	r, err := b.Record()
	require.NoError(t, err)
	assert.InDelta(t, -0.421142647060282, r.DPrime(), 1e-6)
}

func TestNewRejectsInvalidCounts(t *testing.T) {
	_, err := New("bad", sdt.Counts{Hits: -1})
	assert.ErrorIs(t, err, sdt.ErrInvalidTrialCount)

	_, err = New("empty", sdt.Counts{FalseAlarms: 2, CorrectRejections: 3})
	assert.ErrorIs(t, err, sdt.ErrDegenerateRate)
}
