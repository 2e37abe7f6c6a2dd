package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adventhp/ledger-bot/internal/completion"
	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
)

// ErrReportFailed wraps a completion failure during report generation.
var ErrReportFailed = errors.New("report generation failed")

// Generator writes narrative reports and query answers through the
// text-completion collaborator.
type Generator struct {
	completer completion.Completer
}

// NewGenerator creates a generator over the given completer.
func NewGenerator(completer completion.Completer) *Generator {
	return &Generator{completer: completer}
}

// NarrativeReport serializes the full transaction set and budgets into
// the report prompt and returns the model's prose. One completion call,
// no retry.
func (g *Generator) NarrativeReport(ctx context.Context, rows []ledger.Row, budgets domain.Budgets) (string, error) {
	txJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("NarrativeReport: serializing transactions: %w", err)
	}
	budgetJSON, err := json.Marshal(budgets)
	if err != nil {
		return "", fmt.Errorf("NarrativeReport: serializing budgets: %w", err)
	}

	var b strings.Builder
	b.WriteString("Generate a detailed monthly financial report for these transactions:\n")
	b.Write(txJSON)
	b.WriteString("\n\nMonthly budgets are: ")
	b.Write(budgetJSON)
	b.WriteString("\n\nInclude:\n")
	b.WriteString("1. Overview (total income, expenses, savings)\n")
	b.WriteString("2. Category Analysis (spending vs budget)\n")
	b.WriteString("3. Payment Method Distribution\n")
	b.WriteString("4. Key Insights\n")
	b.WriteString("5. Recommendations\n\n")
	b.WriteString("Format as a clear report with sections and bullet points.\n")
	b.WriteString("Use INR (₹) for amounts. Report expense figures as positive magnitudes.\n")
	b.WriteString("Keep it concise but informative.\n")

	text, err := g.completer.Complete(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("NarrativeReport: %w: %v", ErrReportFailed, err)
	}
	return text, nil
}

// AnswerQuery answers a free-text spending question from exact aggregate
// figures. The prompt pins the model to the provided numbers so the
// answer cannot drift from the ledger.
func (g *Generator) AnswerQuery(ctx context.Context, query string, agg ledger.Aggregate, budgets domain.Budgets) (string, error) {
	catJSON, _ := json.Marshal(agg.ByCategory)
	dateJSON, _ := json.Marshal(agg.ByDate)
	payJSON, _ := json.Marshal(agg.ByPaymentMode)
	budgetJSON, _ := json.Marshal(budgets)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Analyze this financial data and answer the query: %q\n\n", query))
	b.WriteString("Current Data:\n")
	b.WriteString(fmt.Sprintf("1. Category Totals: %s\n", catJSON))
	b.WriteString(fmt.Sprintf("2. Daily Totals: %s\n", dateJSON))
	b.WriteString(fmt.Sprintf("3. Payment Methods: %s\n", payJSON))
	b.WriteString(fmt.Sprintf("4. Total Spent: %.2f\n", agg.TotalExpense))
	b.WriteString(fmt.Sprintf("5. Monthly Budgets: %s\n\n", budgetJSON))
	b.WriteString("Rules for response:\n")
	b.WriteString("1. Only use the exact numbers from the provided data\n")
	b.WriteString("2. Include the exact amount in your response\n")
	b.WriteString("3. If data is not available, say so explicitly\n")
	b.WriteString("4. Format all amounts with the ₹ symbol, rounded to 2 decimal places\n")
	b.WriteString("5. If calculating percentage of budget, use the monthly budgets provided\n\n")
	b.WriteString("Respond with a direct answer, budget context if relevant, and one brief insight.\n")

	text, err := g.completer.Complete(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("AnswerQuery: %w: %v", ErrReportFailed, err)
	}
	return text, nil
}
