package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/adventhp/ledger-bot/internal/domain"
)

// Config holds process configuration, loaded once at startup.
type Config struct {
	Port            string
	SpreadsheetID   string
	CredentialsFile string
	GeminiModel     string
	LogLevel        string
	BudgetsFile     string

	// Cron specs for the scheduler. DailySummarySpec and MonthEndSpec are
	// wall-clock jobs; the month-end job itself skips all but the last day.
	RolloverSpec     string
	DailySummarySpec string
	MonthEndSpec     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		SpreadsheetID:    getEnv("SPREADSHEET_ID", ""),
		CredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		BudgetsFile:      getEnv("BUDGETS_FILE", ""),
		RolloverSpec:     getEnv("ROLLOVER_SPEC", "0 0 1 * *"),
		DailySummarySpec: getEnv("DAILY_SUMMARY_SPEC", "0 17 * * *"),
		MonthEndSpec:     getEnv("MONTH_END_SPEC", "0 20 * * *"),
	}

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}

	return cfg, nil
}

// LoadBudgets returns the monthly budget configuration: built-in defaults,
// optionally overridden per category by a TOML file of the form
//
//	[budgets]
//	Food = 6000
//	Trip = 2000
//
// Categories absent from the file keep their defaults. An empty path means
// defaults only.
func LoadBudgets(path string) (domain.Budgets, error) {
	budgets := domain.DefaultBudgets()
	if path == "" {
		return budgets, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("LoadBudgets: reading %s: %w", path, err)
	}

	overrides := v.GetStringMap("budgets")
	for raw := range overrides {
		category, ok := domain.CanonicalCategory(domain.TypeExpense, raw)
		if !ok {
			return nil, fmt.Errorf("LoadBudgets: unknown category %q", raw)
		}
		limit := v.GetFloat64("budgets." + raw)
		if limit < 0 {
			return nil, fmt.Errorf("LoadBudgets: negative limit for %q", raw)
		}
		budgets[category] = limit
	}

	return budgets, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
