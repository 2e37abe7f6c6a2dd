package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/adventhp/ledger-bot/internal/domain"
)

// Store errors. Both are terminal for the command that triggered the
// write; the caller surfaces them and the user re-submits.
var (
	// ErrStoreUnavailable means the ledger backend could not be reached.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrWriteRejected means the backend refused the write.
	ErrWriteRejected = errors.New("ledger store rejected write")
)

// Header is the fixed column order of every monthly ledger. These names
// are the compatibility surface with stored data and must match exactly
// across read and write.
var Header = []string{"Date", "Type", "Amount", "Description", "Category", "PaymentMode"}

// Handle identifies one monthly ledger. Identity is stable for the same
// (year, month): two lookups of the same period refer to the same ledger.
type Handle struct {
	Title   string
	SheetID int64
}

// Row is one stored ledger row, values as stored text. Rows read back
// from the store may be legacy or partially written; consumers must not
// assume the fields parse.
type Row struct {
	Date        string
	Type        string
	Amount      string
	Description string
	Category    string
	PaymentMode string
}

// RowFromTransaction renders a validated transaction into its stored form.
func RowFromTransaction(t domain.Transaction) Row {
	return Row{
		Date:        domain.FormatDate(t.Date),
		Type:        string(t.Kind),
		Amount:      formatAmount(t.Amount),
		Description: t.Description,
		Category:    t.Category,
		PaymentMode: t.PaymentMode,
	}
}

// Store is the ledger storage collaborator: a spreadsheet-like backend
// holding one tab per calendar month.
type Store interface {
	// EnsurePeriodLedger is an idempotent get-or-create of the ledger for
	// (year, month). Under concurrent creation the store itself is the
	// final authority; callers treat the returned handle as canonical.
	EnsurePeriodLedger(ctx context.Context, year int, month time.Month) (Handle, error)

	// AppendRow appends one row to the given ledger.
	AppendRow(ctx context.Context, h Handle, row Row) error

	// ListRows returns all data rows of the given ledger in order.
	ListRows(ctx context.Context, h Handle) ([]Row, error)
}
