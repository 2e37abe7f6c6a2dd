// Package budget compares ledger aggregates against configured monthly
// limits and emits alert events when a category crosses its thresholds.
package budget

import (
	"github.com/google/uuid"

	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
)

// Severity of a budget alert.
type Severity string

const (
	// SeverityApproaching means spend is in [80%, 100%) of the limit.
	SeverityApproaching Severity = "approaching"
	// SeverityOver means spend has reached or passed the limit.
	SeverityOver Severity = "over"
)

const alertThresholdPct = 80

// AlertEvent describes one budget threshold crossing. Rendering and
// delivery belong to the sink; the monitor only decides.
type AlertEvent struct {
	ID         string
	Category   string
	Spent      float64
	Budget     float64
	Remaining  float64
	Percentage float64
	Severity   Severity
}

// Monitor holds the budget configuration, read-only after construction.
type Monitor struct {
	budgets domain.Budgets
}

// NewMonitor creates a monitor over the given budget configuration.
func NewMonitor(budgets domain.Budgets) *Monitor {
	return &Monitor{budgets: budgets}
}

// Check evaluates one category against the current month's aggregate and
// returns an alert event when spend is at or past 80% of the limit, nil
// otherwise. Categories with a zero limit are untracked and never alert.
func (m *Monitor) Check(category string, agg ledger.Aggregate) *AlertEvent {
	limit := m.budgets.For(category)
	if limit == 0 {
		return nil
	}

	spent := agg.ByCategory[category]
	pct := spent / limit * 100
	if pct < alertThresholdPct {
		return nil
	}

	severity := SeverityApproaching
	if pct >= 100 {
		severity = SeverityOver
	}

	return &AlertEvent{
		ID:         uuid.NewString(),
		Category:   category,
		Spent:      spent,
		Budget:     limit,
		Remaining:  limit - spent,
		Percentage: pct,
		Severity:   severity,
	}
}
