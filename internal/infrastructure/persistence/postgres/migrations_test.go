package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The migrator trusts the embedded set to be well-formed: versions
// strictly increasing from 1, every step carrying SQL.
func TestEmbeddedMigrationsAreWellFormed(t *testing.T) {
	migrations := embeddedMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migration %q out of order", m.Name)
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, strings.TrimSpace(m.SQL))
	}
}

func TestEmbeddedMigrationsSeedBaseStatsAtOne(t *testing.T) {
	first := embeddedMigrations()[0]
	for _, col := range []string{"stat_str", "stat_agi", "stat_int", "stat_vit", "stat_cha"} {
		assert.Contains(t, first.SQL, col+" INTEGER NOT NULL DEFAULT 1")
	}
}
