package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFS_ContainsInitialSchema(t *testing.T) {
	entries, err := FS.ReadDir(".")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "001_initial_schema.sql")
	assert.Contains(t, names, "002_reminder_attempts.sql")
}

func TestReminderAttemptsMigration(t *testing.T) {
	content, err := FS.ReadFile("002_reminder_attempts.sql")
	require.NoError(t, err)
	sql := string(content)

	assert.True(t, strings.Index(sql, "-- +goose Up") < strings.Index(sql, "-- +goose Down"))
	assert.Contains(t, sql, "ADD COLUMN reminder_attempts INT NOT NULL DEFAULT 0")
	assert.Contains(t, sql, "DROP COLUMN IF EXISTS reminder_attempts")
}

func TestInitialSchema_GooseDirectivesAndTables(t *testing.T) {
	content, err := FS.ReadFile("001_initial_schema.sql")
	require.NoError(t, err)
	sql := string(content)

	assert.True(t, strings.Index(sql, "-- +goose Up") < strings.Index(sql, "-- +goose Down"))
	for _, table := range []string{"profiles", "leads", "lead_notes", "deals", "follow_ups", "services", "proposals", "tasks", "notifications", "telegram_links"} {
		assert.Contains(t, sql, "CREATE TABLE "+table+" (", table)
	}
	assert.Contains(t, sql, "CREATE UNIQUE INDEX idx_deals_lead_unique ON deals(lead_id)")
}
