package ledger

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adventhp/ledger-bot/internal/domain"
)

// ValidationError reports why a provisional transaction was rejected.
// No persistence is attempted for a transaction that fails validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Filter narrows an aggregation. Zero values mean "no constraint".
// Since is inclusive; Category and PaymentMode match case-insensitively.
type Filter struct {
	Since       time.Time
	Category    string
	PaymentMode string
}

// Aggregate is a derived view over one ledger, recomputed on demand.
// Per-category, per-payment-mode and per-date figures report expense
// magnitudes; Net alone keeps raw signs so income minus expense falls
// out of a plain sum.
type Aggregate struct {
	ByCategory    map[string]float64
	ByPaymentMode map[string]float64
	ByDate        map[string]float64
	TotalIncome   float64
	TotalExpense  float64
	Net           float64
	Rows          int
}

// Service owns the transaction lifecycle: validation, persistence and
// aggregation against the ledger store.
type Service struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewService creates a ledger service over the given store.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		log:   log,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate checks a provisional transaction and normalizes it into a
// Transaction ready for persistence. Checks: amount parses finite and
// non-zero; category is a member of the enumerated set for the kind;
// payment mode is a member for expenses and forced to "N/A" for income;
// empty description defaults to a placeholder. The stored sign follows
// the kind regardless of the sign the model produced.
func (s *Service) Validate(p domain.Provisional) (domain.Transaction, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(p.Amount), 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return domain.Transaction{}, &ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", p.Amount)}
	}
	if amount == 0 {
		return domain.Transaction{}, &ValidationError{Field: "amount", Reason: "must be non-zero"}
	}

	category, ok := domain.CanonicalCategory(p.Kind, p.Category)
	if !ok {
		return domain.Transaction{}, &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a known category", p.Category)}
	}

	paymentMode := domain.IncomePaymentMode
	if p.Kind == domain.TypeExpense {
		paymentMode, ok = domain.CanonicalPaymentMode(p.PaymentMode)
		if !ok {
			return domain.Transaction{}, &ValidationError{Field: "payment mode", Reason: fmt.Sprintf("%q is not a known payment mode", p.PaymentMode)}
		}
	}

	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = domain.DefaultDescription
	}

	return domain.Transaction{
		Date:        s.now(),
		Kind:        p.Kind,
		Amount:      domain.NormalizeSign(p.Kind, amount),
		Description: description,
		Category:    category,
		PaymentMode: paymentMode,
	}, nil
}

// CurrentPeriod resolves "now" to a (year, month) key and returns the
// handle of that month's ledger, creating it if needed.
func (s *Service) CurrentPeriod(ctx context.Context) (Handle, error) {
	now := s.now()
	return s.store.EnsurePeriodLedger(ctx, now.Year(), now.Month())
}

// Record appends a validated transaction to the current period's ledger.
// A store failure is terminal for this transaction; there is no retry.
func (s *Service) Record(ctx context.Context, t domain.Transaction) error {
	handle, err := s.CurrentPeriod(ctx)
	if err != nil {
		return fmt.Errorf("Record: resolving period: %w", err)
	}

	if err := s.store.AppendRow(ctx, handle, RowFromTransaction(t)); err != nil {
		return fmt.Errorf("Record: appending row: %w", err)
	}

	s.log.Info().
		Str("ledger", handle.Title).
		Str("type", string(t.Kind)).
		Str("category", t.Category).
		Float64("amount", t.Amount).
		Msg("transaction recorded")

	return nil
}

// Rows returns the raw stored rows of a ledger.
func (s *Service) Rows(ctx context.Context, h Handle) ([]Row, error) {
	rows, err := s.store.ListRows(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("Rows: %w", err)
	}
	return rows, nil
}

// Aggregate computes derived totals for one ledger under a filter.
// Stored rows may be legacy or partially written: a malformed amount
// counts as zero and a malformed date makes the row non-matching for
// date filtering, so a single corrupt row never fails an aggregation.
func (s *Service) Aggregate(ctx context.Context, h Handle, f Filter) (Aggregate, error) {
	rows, err := s.store.ListRows(ctx, h)
	if err != nil {
		return Aggregate{}, fmt.Errorf("Aggregate: listing rows: %w", err)
	}

	agg := Aggregate{
		ByCategory:    make(map[string]float64),
		ByPaymentMode: make(map[string]float64),
		ByDate:        make(map[string]float64),
	}

	// Date-filtered aggregation is scoped to the ledger's own month: a
	// stray row dated outside the period is non-matching, same as a row
	// whose date does not parse.
	periodEnd, hasPeriod := periodEndOf(h)

	for _, row := range rows {
		date, dateErr := domain.ParseDate(row.Date)
		if !f.Since.IsZero() {
			if dateErr != nil || date.Before(f.Since) {
				continue
			}
			if hasPeriod && !date.Before(periodEnd) {
				continue
			}
		}
		if f.Category != "" && !strings.EqualFold(row.Category, f.Category) {
			continue
		}
		if f.PaymentMode != "" && !strings.EqualFold(row.PaymentMode, f.PaymentMode) {
			continue
		}

		amount, amtErr := strconv.ParseFloat(strings.TrimSpace(row.Amount), 64)
		if amtErr != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
			amount = 0
		}

		agg.Rows++
		agg.Net += amount

		if strings.EqualFold(row.Type, string(domain.TypeIncome)) {
			agg.TotalIncome += math.Abs(amount)
			continue
		}

		// everything that is not income counts as expense, like legacy
		// rows written before the Type column existed
		mag := math.Abs(amount)
		agg.TotalExpense += mag
		if row.Category != "" {
			agg.ByCategory[row.Category] += mag
		}
		if row.PaymentMode != "" {
			agg.ByPaymentMode[row.PaymentMode] += mag
		}
		if dateErr == nil {
			agg.ByDate[domain.FormatDate(date)] += mag
		}
	}

	return agg, nil
}

// CategorySpend returns the current-month expense magnitude for one
// category. Used by the budget monitor after each recorded expense.
func (s *Service) CategorySpend(ctx context.Context, category string) (float64, error) {
	handle, err := s.CurrentPeriod(ctx)
	if err != nil {
		return 0, err
	}
	agg, err := s.Aggregate(ctx, handle, Filter{Category: category})
	if err != nil {
		return 0, err
	}
	return agg.TotalExpense, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// periodEndOf derives the first instant after the handle's month from its
// title. Handles with unrecognized titles carry no period bound.
func periodEndOf(h Handle) (time.Time, bool) {
	start, err := time.Parse("January 2006", h.Title)
	if err != nil {
		return time.Time{}, false
	}
	return start.AddDate(0, 1, 0), true
}
