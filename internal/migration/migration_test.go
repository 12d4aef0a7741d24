package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	runner := NewRunner()
	assert.Equal(t, "1.0.0", runner.Version())

	stmts := runner.Statements()
	require.NotEmpty(t, stmts)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS regression_runs")
	for _, column := range []string{"id UUID PRIMARY KEY", "result JSONB NOT NULL", "residuals JSONB", "created_at"} {
		assert.Contains(t, stmts[0], column)
	}
	for _, stmt := range stmts[1:] {
		assert.True(t, strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS"), stmt)
	}
}
