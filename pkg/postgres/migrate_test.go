package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationSource(t *testing.T) {
	assert.Equal(t, "file://migrations", MigrationSource("migrations"))
	assert.Equal(t, "file:///srv/migrations", MigrationSource("/srv/migrations"))
	assert.Equal(t, "file://./db", MigrationSource("file://./db"))
}

func TestMigrationDSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@h:5432/db?sslmode=disable": "pgx5://u:p@h:5432/db?sslmode=disable",
		"postgresql://u:p@h:5432/db":               "pgx5://u:p@h:5432/db",
		"pgx5://u:p@h:5432/db":                     "pgx5://u:p@h:5432/db",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrationDSN(in), in)
	}
}
