// Package report renders ledger aggregates into summaries: a structured
// view computed locally, and a narrative one written by the
// text-completion collaborator.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
)

const barSegments = 10

// CategoryLine is one category's budget standing. Percentage is
// unclamped; only the bar saturates at 100%.
type CategoryLine struct {
	Category   string
	Spent      float64
	Budget     float64
	Percentage float64
	Bar        string
}

// Summary is the structured monthly view.
type Summary struct {
	Period       string
	TotalIncome  float64
	TotalExpense float64
	Net          float64
	Lines        []CategoryLine
	TotalSpent   float64
	TotalBudget  float64
	TotalPct     float64
	TotalBar     string
}

// ProgressBar renders a ten-segment bar, floor(min(pct,100)/10) filled.
func ProgressBar(pct float64) string {
	filled := int(math.Floor(math.Min(pct, 100) / 10))
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barSegments-filled)
}

// StructuredSummary derives the monthly view from an unfiltered aggregate
// of the period's ledger. Category lines follow the canonical expense
// category order; categories without a configured budget show 0%.
func StructuredSummary(agg ledger.Aggregate, budgets domain.Budgets, period time.Time) Summary {
	s := Summary{
		Period:       period.Format("January 2006"),
		TotalIncome:  agg.TotalIncome,
		TotalExpense: agg.TotalExpense,
		Net:          agg.TotalIncome - agg.TotalExpense,
		TotalBudget:  budgets.Total(),
	}

	for _, category := range domain.ExpenseCategories {
		spent := agg.ByCategory[category]
		limit := budgets.For(category)
		pct := 0.0
		if limit > 0 {
			pct = spent / limit * 100
		}
		s.Lines = append(s.Lines, CategoryLine{
			Category:   category,
			Spent:      spent,
			Budget:     limit,
			Percentage: pct,
			Bar:        ProgressBar(pct),
		})
		s.TotalSpent += spent
	}

	if s.TotalBudget > 0 {
		s.TotalPct = s.TotalSpent / s.TotalBudget * 100
	}
	s.TotalBar = ProgressBar(s.TotalPct)

	return s
}

// Render formats the summary as plain text for the transport.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Monthly Summary for %s\n\n", s.Period))
	b.WriteString(fmt.Sprintf("Total Income:   ₹%.2f\n", s.TotalIncome))
	b.WriteString(fmt.Sprintf("Total Expenses: ₹%.2f\n", s.TotalExpense))
	b.WriteString(fmt.Sprintf("Net Savings:    ₹%.2f\n\n", s.Net))

	for _, line := range s.Lines {
		b.WriteString(fmt.Sprintf("%s\n%s %.1f%%\n₹%.2f / ₹%.2f\n\n",
			line.Category, line.Bar, line.Percentage, line.Spent, line.Budget))
	}

	b.WriteString(fmt.Sprintf("Total Budget\n%s %.1f%%\n₹%.2f / ₹%.2f\n",
		s.TotalBar, s.TotalPct, s.TotalSpent, s.TotalBudget))
	return b.String()
}
