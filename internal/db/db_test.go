package db

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMigrationsCreateTablesInDependencyOrder(t *testing.T) {
	index := func(table string) int {
		for i, stmt := range migrationStatements {
			if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				return i
			}
		}
		return -1
	}

	cities, trips, details := index("cities"), index("trips"), index("trip_details")
	assert.GreaterOrEqual(t, cities, 0)
	assert.Greater(t, trips, cities)
	assert.Greater(t, details, trips)
}

func TestGormLoggerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	gl := newGormLogger(log)
	gl.Info(context.Background(), "applied %d statements", 3)

	assert.Contains(t, buf.String(), "applied 3 statements")
	assert.Contains(t, buf.String(), `"component":"gorm"`)
}
