package migration

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Funding Accounts", "funding accounts table")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_funding_accounts.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_funding_accounts.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: Add Funding Accounts")
	assert.Contains(t, string(up), "funding accounts table")

	_, err = os.Stat(mf.DownPath)
	assert.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Funding Accounts", "add_funding_accounts"},
		{"add---bank   ledger", "add_bank_ledger"},
		{"Trailing separator ", "trailing_separator"},
		{"Mixed-CASE_Name 2", "mixed_case_name_2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty directory", func(t *testing.T) {
		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("missing directory", func(t *testing.T) {
		migrations, err := ListMigrations(dir + "/nope")
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("lists up migrations sorted", func(t *testing.T) {
		for _, name := range []string{
			"20240102000000_second.up.sql",
			"20240102000000_second.down.sql",
			"20240101000000_first.up.sql",
			"20240101000000_first.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(dir+"/"+name, nil, 0o644))
		}

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"20240101000000_first",
			"20240102000000_second",
		}, migrations)
	})
}
