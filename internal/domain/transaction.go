package domain

import (
	"math"
	"strings"
	"time"
)

// Type distinguishes the two kinds of ledger entries.
type Type string

const (
	TypeExpense Type = "EXPENSE"
	TypeIncome  Type = "INCOME"
)

// DateLayout is the wire format for dates in ledger rows, day first.
// "05/03/2024" is 5 March 2024.
const DateLayout = "02/01/2006"

// IncomePaymentMode is the literal stored in the PaymentMode column for
// income entries, which have no payment mode of their own.
const IncomePaymentMode = "N/A"

// DefaultDescription is substituted when a parsed description is empty.
const DefaultDescription = "No description"

// ExpenseCategories is the canonical set of expense categories, in the
// casing that is written to the ledger.
var ExpenseCategories = []string{
	"Food",
	"Health/medical",
	"Home expenses",
	"Cabs/Petrol",
	"Personal",
	"Utilities",
	"NSCI",
	"Party & Leisure",
	"Trip",
}

// IncomeCategories is the canonical set of income categories.
var IncomeCategories = []string{
	"Salary",
	"Freelance",
	"Investments",
	"Other",
}

// PaymentModes is the canonical set of expense payment modes.
var PaymentModes = []string{
	"Cash",
	"UPI",
	"Credit Card",
}

// Provisional is a parsed-but-unvalidated candidate transaction. Field
// values are raw model output; membership and numeric checks happen in
// the ledger service, not here.
type Provisional struct {
	Kind        Type
	Amount      string
	Description string
	PaymentMode string
	Category    string
}

// Transaction is one validated ledger entry. Amount carries the storage
// sign convention: non-positive for expenses, non-negative for income.
type Transaction struct {
	Date        time.Time
	Kind        Type
	Amount      float64
	Description string
	Category    string
	PaymentMode string
}

// Magnitude returns the unsigned amount.
func (t Transaction) Magnitude() float64 {
	return math.Abs(t.Amount)
}

// CanonicalCategory resolves a raw category string against the enumerated
// set for the given kind, case-insensitively. The second return value is
// false when the category is not a member.
func CanonicalCategory(kind Type, raw string) (string, bool) {
	set := ExpenseCategories
	if kind == TypeIncome {
		set = IncomeCategories
	}
	return canonical(set, raw)
}

// CanonicalPaymentMode resolves a raw payment-mode string against the
// enumerated set, case-insensitively.
func CanonicalPaymentMode(raw string) (string, bool) {
	return canonical(PaymentModes, raw)
}

func canonical(set []string, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, member := range set {
		if strings.EqualFold(member, trimmed) {
			return member, true
		}
	}
	return "", false
}

// NormalizeSign forces the storage sign convention for the given kind:
// expenses are stored as non-positive values, income as non-negative.
func NormalizeSign(kind Type, amount float64) float64 {
	mag := math.Abs(amount)
	if kind == TypeExpense {
		return -mag
	}
	return mag
}

// ParseDate parses a ledger-row date in the day-first wire format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a date in the day-first wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// PeriodTitle is the canonical name of a monthly ledger, e.g. "March 2024".
func PeriodTitle(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
