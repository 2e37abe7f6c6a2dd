package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adventhp/ledger-bot/internal/domain"
)

// fakeStore is an in-memory Store with one tab per (year, month).
type fakeStore struct {
	ledgers   map[string][]Row
	handles   map[string]Handle
	nextID    int64
	creates   int
	appendErr error
	listErr   error
	ensureErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledgers: make(map[string][]Row),
		handles: make(map[string]Handle),
	}
}

func (f *fakeStore) EnsurePeriodLedger(ctx context.Context, year int, month time.Month) (Handle, error) {
	if f.ensureErr != nil {
		return Handle{}, f.ensureErr
	}
	title := domain.PeriodTitle(year, month)
	if h, ok := f.handles[title]; ok {
		return h, nil
	}
	f.creates++
	f.nextID++
	h := Handle{Title: title, SheetID: f.nextID}
	f.handles[title] = h
	f.ledgers[title] = nil
	return h, nil
}

func (f *fakeStore) AppendRow(ctx context.Context, h Handle, row Row) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.ledgers[h.Title] = append(f.ledgers[h.Title], row)
	return nil
}

func (f *fakeStore) ListRows(ctx context.Context, h Handle) ([]Row, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ledgers[h.Title], nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(store *fakeStore, now time.Time) *Service {
	return NewService(store, zerolog.Nop()).WithClock(fixedClock(now))
}

func TestValidate_CategoryMembership(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		p        domain.Provisional
		wantErr  bool
		category string
	}{
		{
			name:     "exact match",
			p:        domain.Provisional{Kind: domain.TypeExpense, Amount: "100", Description: "x", PaymentMode: "UPI", Category: "Food"},
			category: "Food",
		},
		{
			name:     "case insensitive match canonicalized",
			p:        domain.Provisional{Kind: domain.TypeExpense, Amount: "100", Description: "x", PaymentMode: "cash", Category: "party & leisure"},
			category: "Party & Leisure",
		},
		{
			name:    "unknown category",
			p:       domain.Provisional{Kind: domain.TypeExpense, Amount: "100", Description: "x", PaymentMode: "UPI", Category: "Shopping"},
			wantErr: true,
		},
		{
			name:    "income category on expense",
			p:       domain.Provisional{Kind: domain.TypeExpense, Amount: "100", Description: "x", PaymentMode: "UPI", Category: "Salary"},
			wantErr: true,
		},
		{
			name:     "income category",
			p:        domain.Provisional{Kind: domain.TypeIncome, Amount: "100", Description: "x", Category: "freelance"},
			category: "Freelance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := svc.Validate(tt.p)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Validate() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tx.Category != tt.category {
				t.Errorf("Validate() category = %q, want %q", tx.Category, tt.category)
			}
		})
	}
}

func TestValidate_AmountAndSign(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name    string
		p       domain.Provisional
		want    float64
		wantErr bool
	}{
		{
			name: "expense stored negative",
			p:    domain.Provisional{Kind: domain.TypeExpense, Amount: "450", Description: "groceries", PaymentMode: "UPI", Category: "Food"},
			want: -450,
		},
		{
			name: "already negative expense stays negative",
			p:    domain.Provisional{Kind: domain.TypeExpense, Amount: "-450", Description: "groceries", PaymentMode: "UPI", Category: "Food"},
			want: -450,
		},
		{
			name: "income stored positive",
			p:    domain.Provisional{Kind: domain.TypeIncome, Amount: "-50000", Description: "pay", Category: "Salary"},
			want: 50000,
		},
		{
			name:    "non numeric amount",
			p:       domain.Provisional{Kind: domain.TypeExpense, Amount: "lots", Description: "x", PaymentMode: "UPI", Category: "Food"},
			wantErr: true,
		},
		{
			name:    "zero amount",
			p:       domain.Provisional{Kind: domain.TypeExpense, Amount: "0", Description: "x", PaymentMode: "UPI", Category: "Food"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := svc.Validate(tt.p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tx.Amount != tt.want {
				t.Errorf("Validate() amount = %v, want %v", tx.Amount, tt.want)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	tx, err := svc.Validate(domain.Provisional{Kind: domain.TypeExpense, Amount: "10", Description: "   ", PaymentMode: "upi", Category: "food"})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if tx.Description != domain.DefaultDescription {
		t.Errorf("description = %q, want placeholder", tx.Description)
	}
	if tx.PaymentMode != "UPI" {
		t.Errorf("payment mode = %q, want canonical UPI", tx.PaymentMode)
	}

	income, err := svc.Validate(domain.Provisional{Kind: domain.TypeIncome, Amount: "10", Description: "pay", Category: "Salary"})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if income.PaymentMode != domain.IncomePaymentMode {
		t.Errorf("income payment mode = %q, want %q", income.PaymentMode, domain.IncomePaymentMode)
	}
}

func TestCurrentPeriod_Idempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	h1, err := svc.CurrentPeriod(context.Background())
	if err != nil {
		t.Fatalf("CurrentPeriod() error: %v", err)
	}
	h2, err := svc.CurrentPeriod(context.Background())
	if err != nil {
		t.Fatalf("CurrentPeriod() error: %v", err)
	}

	if h1 != h2 {
		t.Errorf("handles differ: %+v vs %+v", h1, h2)
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
	if h1.Title != "March 2024" {
		t.Errorf("title = %q, want %q", h1.Title, "March 2024")
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	ctx := context.Background()

	tx, err := svc.Validate(domain.Provisional{Kind: domain.TypeExpense, Amount: "450", Description: "Groceries", PaymentMode: "UPI", Category: "Food"})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if err := svc.Record(ctx, tx); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	h, err := svc.CurrentPeriod(ctx)
	if err != nil {
		t.Fatalf("CurrentPeriod() error: %v", err)
	}
	agg, err := svc.Aggregate(ctx, h, Filter{})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}

	if agg.Rows != 1 {
		t.Fatalf("rows = %d, want 1", agg.Rows)
	}
	if agg.ByCategory["Food"] != 450 {
		t.Errorf("Food total = %v, want 450", agg.ByCategory["Food"])
	}
	if agg.ByPaymentMode["UPI"] != 450 {
		t.Errorf("UPI total = %v, want 450", agg.ByPaymentMode["UPI"])
	}
	if agg.Net != -450 {
		t.Errorf("net = %v, want -450", agg.Net)
	}

	row := store.ledgers[h.Title][0]
	if row.Date != "15/03/2024" || row.Type != "EXPENSE" || row.Amount != "-450.00" {
		t.Errorf("stored row = %+v", row)
	}
}

func TestRecord_StoreFailureIsTerminal(t *testing.T) {
	store := newFakeStore()
	store.appendErr = ErrWriteRejected
	svc := newTestService(store, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	tx := domain.Transaction{Date: time.Now(), Kind: domain.TypeExpense, Amount: -10, Description: "x", Category: "Food", PaymentMode: "Cash"}
	err := svc.Record(context.Background(), tx)
	if !errors.Is(err, ErrWriteRejected) {
		t.Errorf("Record() error = %v, want ErrWriteRejected", err)
	}
}

func TestAggregate_SinceDateInclusive(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	ctx := context.Background()

	h, _ := svc.CurrentPeriod(ctx)
	rows := []Row{
		{Date: "01/03/2024", Type: "EXPENSE", Amount: "-100", Description: "a", Category: "Food", PaymentMode: "Cash"},
		{Date: "15/03/2024", Type: "EXPENSE", Amount: "-200", Description: "b", Category: "Food", PaymentMode: "UPI"},
		{Date: "02/04/2024", Type: "EXPENSE", Amount: "-400", Description: "c", Category: "Food", PaymentMode: "UPI"},
	}
	for _, r := range rows {
		store.ledgers[h.Title] = append(store.ledgers[h.Title], r)
	}

	// since 01/03: 01/03 is included (inclusive bound), 15/03 matches,
	// 02/04 falls outside the March ledger's period and is excluded.
	since, _ := domain.ParseDate("01/03/2024")
	agg, err := svc.Aggregate(ctx, h, Filter{Since: since})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.TotalExpense != 300 {
		t.Fatalf("total = %v, want 300", agg.TotalExpense)
	}

	laterSince, _ := domain.ParseDate("02/03/2024")
	agg, err = svc.Aggregate(ctx, h, Filter{Since: laterSince})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.TotalExpense != 200 {
		t.Errorf("total = %v, want 200 (only 15/03 matches)", agg.TotalExpense)
	}
}

func TestAggregate_DefensiveRows(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	h, _ := svc.CurrentPeriod(ctx)
	store.ledgers[h.Title] = []Row{
		{Date: "01/03/2024", Type: "EXPENSE", Amount: "-100", Category: "Food", PaymentMode: "Cash"},
		{Date: "garbage", Type: "EXPENSE", Amount: "-200", Category: "Food", PaymentMode: "Cash"},
		{Date: "05/03/2024", Type: "EXPENSE", Amount: "not-a-number", Category: "Food", PaymentMode: "Cash"},
		{Date: "", Type: "", Amount: "", Category: "", PaymentMode: ""},
	}

	// no filter: all rows tolerated, bad amounts count as zero
	agg, err := svc.Aggregate(ctx, h, Filter{})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.Rows != 4 {
		t.Errorf("rows = %d, want 4", agg.Rows)
	}
	if agg.TotalExpense != 300 {
		t.Errorf("total = %v, want 300", agg.TotalExpense)
	}

	// date filter: malformed dates are non-matching
	since, _ := domain.ParseDate("01/03/2024")
	agg, err = svc.Aggregate(ctx, h, Filter{Since: since})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.Rows != 2 {
		t.Errorf("rows = %d, want 2", agg.Rows)
	}
	if agg.TotalExpense != 100 {
		t.Errorf("total = %v, want 100", agg.TotalExpense)
	}
}

func TestAggregate_CategoryAndPaymentFilters(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	h, _ := svc.CurrentPeriod(ctx)
	store.ledgers[h.Title] = []Row{
		{Date: "01/03/2024", Type: "EXPENSE", Amount: "-100", Category: "Food", PaymentMode: "Cash"},
		{Date: "02/03/2024", Type: "EXPENSE", Amount: "-200", Category: "Food", PaymentMode: "UPI"},
		{Date: "03/03/2024", Type: "EXPENSE", Amount: "-400", Category: "Personal", PaymentMode: "UPI"},
		{Date: "04/03/2024", Type: "INCOME", Amount: "1000", Category: "Salary", PaymentMode: "N/A"},
	}

	agg, err := svc.Aggregate(ctx, h, Filter{Category: "food"})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.TotalExpense != 300 {
		t.Errorf("food total = %v, want 300", agg.TotalExpense)
	}

	agg, err = svc.Aggregate(ctx, h, Filter{PaymentMode: "upi"})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.TotalExpense != 600 {
		t.Errorf("UPI total = %v, want 600", agg.TotalExpense)
	}

	agg, err = svc.Aggregate(ctx, h, Filter{})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if agg.TotalIncome != 1000 {
		t.Errorf("income = %v, want 1000", agg.TotalIncome)
	}
	if agg.Net != 300 {
		t.Errorf("net = %v, want 300", agg.Net)
	}
}

func TestCategorySpend(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	h, _ := svc.CurrentPeriod(ctx)
	store.ledgers[h.Title] = []Row{
		{Date: "01/03/2024", Type: "EXPENSE", Amount: "-4200", Category: "Food", PaymentMode: "UPI"},
		{Date: "02/03/2024", Type: "EXPENSE", Amount: "-100", Category: "Personal", PaymentMode: "Cash"},
	}

	spent, err := svc.CategorySpend(ctx, "Food")
	if err != nil {
		t.Fatalf("CategorySpend() error: %v", err)
	}
	if spent != 4200 {
		t.Errorf("spent = %v, want 4200", spent)
	}
}
