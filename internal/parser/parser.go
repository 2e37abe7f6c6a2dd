// Package parser turns raw chat text into provisional transaction records
// through the text-completion collaborator. The pipe-delimited response
// format is the de facto integration contract with the model: fixed field
// count, fixed order, no schema.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adventhp/ledger-bot/internal/completion"
	"github.com/adventhp/ledger-bot/internal/domain"
)

// ErrMalformedCompletion means the model's response did not follow the
// extraction contract. The parse is not retried; the command fails fast
// and the user re-submits.
var ErrMalformedCompletion = errors.New("malformed completion response")

const (
	expenseFieldCount = 4 // amount|description|payment|category
	incomeFieldCount  = 3 // amount|description|category
)

// Parser extracts transactions and query filters from free text.
type Parser struct {
	completer completion.Completer
}

// New creates a parser over the given completer.
func New(completer completion.Completer) *Parser {
	return &Parser{completer: completer}
}

// Parse extracts a provisional transaction of the given kind from raw
// text. Membership of category and payment mode in the enumerated sets is
// deliberately not checked here; whether the model answered at all is a
// different question from whether the answer is valid, and the latter is
// the ledger service's job.
func (p *Parser) Parse(ctx context.Context, raw string, kind domain.Type) (domain.Provisional, error) {
	prompt := buildExtractionPrompt(raw, kind)

	resp, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Provisional{}, fmt.Errorf("Parse: %w", err)
	}

	fields, err := splitResponse(resp, fieldCount(kind))
	if err != nil {
		return domain.Provisional{}, fmt.Errorf("Parse: %w", err)
	}

	pv := domain.Provisional{Kind: kind, Amount: fields[0], Description: fields[1]}
	if kind == domain.TypeExpense {
		pv.PaymentMode = fields[2]
		pv.Category = fields[3]
	} else {
		pv.Category = fields[2]
	}
	return pv, nil
}

// QueryFilter is the model's reading of a free-text spending question:
// a period ("month" or a day count), and category/payment-mode values
// where "all" means no constraint.
type QueryFilter struct {
	Period      string
	Category    string
	PaymentMode string
}

// ParseQuery extracts a query filter from a free-text spending question,
// using the period|category|payment contract.
func (p *Parser) ParseQuery(ctx context.Context, raw string) (QueryFilter, error) {
	prompt := buildQueryPrompt(raw)

	resp, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return QueryFilter{}, fmt.Errorf("ParseQuery: %w", err)
	}

	fields, err := splitResponse(resp, 3)
	if err != nil {
		return QueryFilter{}, fmt.Errorf("ParseQuery: %w", err)
	}

	return QueryFilter{Period: fields[0], Category: fields[1], PaymentMode: fields[2]}, nil
}

// Since resolves the filter's period to an inclusive start date relative
// to now: "month" means the first of the current month, a number means
// that many days back, anything else defaults to 30 days back.
func (q QueryFilter) Since(now time.Time) time.Time {
	if strings.EqualFold(strings.TrimSpace(q.Period), "month") {
		return domain.MonthStart(now)
	}
	days, err := strconv.Atoi(strings.TrimSpace(q.Period))
	if err != nil || days <= 0 {
		days = 30
	}
	return now.AddDate(0, 0, -days)
}

// CategoryFilter returns the category constraint, "" for the "all"
// wildcard.
func (q QueryFilter) CategoryFilter() string {
	return wildcardToEmpty(q.Category)
}

// PaymentModeFilter returns the payment-mode constraint, "" for "all".
func (q QueryFilter) PaymentModeFilter() string {
	return wildcardToEmpty(q.PaymentMode)
}

func wildcardToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

func fieldCount(kind domain.Type) int {
	if kind == domain.TypeIncome {
		return incomeFieldCount
	}
	return expenseFieldCount
}

func splitResponse(resp string, want int) ([]string, error) {
	clean := completion.CleanResponse(resp)
	fields := strings.Split(clean, "|")
	if len(fields) != want {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedCompletion, len(fields), want)
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
		if fields[i] == "" {
			return nil, fmt.Errorf("%w: field %d is empty", ErrMalformedCompletion, i+1)
		}
	}
	return fields, nil
}

func buildExtractionPrompt(raw string, kind domain.Type) string {
	var b strings.Builder
	if kind == domain.TypeIncome {
		b.WriteString(fmt.Sprintf("Parse this income: %q\n", raw))
		b.WriteString("Extract:\n")
		b.WriteString("1. Amount (number only)\n")
		b.WriteString("2. Description (clear text)\n")
		b.WriteString(fmt.Sprintf("3. Category (must be one of: %s)\n\n", strings.Join(domain.IncomeCategories, ", ")))
		b.WriteString("Format response exactly as: amount|description|category\n")
	} else {
		b.WriteString(fmt.Sprintf("Parse this expense: %q\n", raw))
		b.WriteString("Extract:\n")
		b.WriteString("1. Amount (number only)\n")
		b.WriteString("2. Description (clear text)\n")
		b.WriteString(fmt.Sprintf("3. Payment Mode (must be one of: %s)\n", strings.Join(domain.PaymentModes, ", ")))
		b.WriteString(fmt.Sprintf("4. Category (must be one of: %s)\n\n", strings.Join(domain.ExpenseCategories, ", ")))
		b.WriteString("Format response exactly as: amount|description|payment|category\n")
	}
	b.WriteString("Respond with the single line only, no extra text.\n")
	return b.String()
}

func buildQueryPrompt(raw string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Analyze this spending query: %q\n", raw))
	b.WriteString("Extract these parameters:\n")
	b.WriteString("1. Time period (number of days, or 'month' for the current month)\n")
	b.WriteString(fmt.Sprintf("2. Category (%s) or 'all' for total spending\n", strings.Join(domain.ExpenseCategories, ", ")))
	b.WriteString(fmt.Sprintf("3. Payment mode (%s) or 'all' for all modes\n\n", strings.Join(domain.PaymentModes, ", ")))
	b.WriteString("Format response exactly as: period|category|payment\n")
	b.WriteString("Example: \"3|all|all\" for last 3 days all spending\n")
	b.WriteString("Example: \"month|Cabs/Petrol|all\" for this month's cab expenses\n")
	return b.String()
}
