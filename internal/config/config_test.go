package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSpreadsheetID(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "0 0 1 * *", cfg.RolloverSpec)
}

func TestLoadBudgets_DefaultsWhenNoFile(t *testing.T) {
	budgets, err := LoadBudgets("")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, budgets.For("Food"))
	assert.Equal(t, 0.0, budgets.For("Trip"))
}

func TestLoadBudgets_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.toml")
	content := "[budgets]\nFood = 6000\nTrip = 2000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	budgets, err := LoadBudgets(path)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, budgets.For("Food"))
	assert.Equal(t, 2000.0, budgets.For("Trip"))
	// untouched categories keep defaults
	assert.Equal(t, 4000.0, budgets.For("Personal"))
}

func TestLoadBudgets_UnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.toml")
	content := "[budgets]\nGambling = 100\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadBudgets(path)
	assert.Error(t, err)
}
