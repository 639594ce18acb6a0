package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://user:pw@localhost:5432/ledger_db?sslmode=disable", "pgx5://user:pw@localhost:5432/ledger_db?sslmode=disable"},
		{"postgresql://localhost/ledger_db", "pgx5://localhost/ledger_db"},
		{"pgx5://localhost/ledger_db", "pgx5://localhost/ledger_db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, driverURL(tt.in))
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, sourceDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestCustomersSchemaKeepsAccountNumbersUnique(t *testing.T) {
	body, err := fs.ReadFile(files, "sql/000001_create_customers.up.sql")
	require.NoError(t, err)

	schema := string(body)
	assert.Contains(t, schema, "UNIQUE (account_number)")
	assert.Contains(t, schema, "deleted_at")
	assert.Contains(t, schema, "CHECK (role IN ('admin', 'user'))")
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("://not-a-url", nil)
	assert.Error(t, err)
}
