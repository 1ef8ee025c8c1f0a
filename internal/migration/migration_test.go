package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepsAreIdempotent(t *testing.T) {
	steps := Steps()
	assert.NotEmpty(t, steps)

	names := map[string]bool{}
	for _, step := range steps {
		assert.False(t, names[step.Name], "duplicate step %s", step.Name)
		names[step.Name] = true
		assert.Contains(t, step.SQL, "IF NOT EXISTS", "step %s", step.Name)
	}
}

func TestBlocksTableStoresRealCounts(t *testing.T) {
	sql := Steps()[0].SQL
	for _, col := range []string{"hits", "misses", "false_alarms", "correct_rejections"} {
		assert.True(t, strings.Contains(sql, col+" DOUBLE PRECISION"), "column %s", col)
	}
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
