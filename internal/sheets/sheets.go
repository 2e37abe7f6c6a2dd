// Package sheets implements the ledger store over a Google Sheets
// spreadsheet, one tab per calendar month.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
)

// Client is a ledger.Store backed by one spreadsheet. It holds a shared
// Sheets service; construct once and reuse.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	log           zerolog.Logger
}

// New creates a store client for the given spreadsheet. Credentials are
// resolved the usual Google way (GOOGLE_APPLICATION_CREDENTIALS or
// ambient default credentials) unless overridden via opts.
func New(ctx context.Context, spreadsheetID string, log zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.New: creating service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// EnsurePeriodLedger implements ledger.Store. Get-or-create is check-then-
// create with the spreadsheet as final authority: if a concurrent caller
// wins the create race, the rejected create falls back to a fresh lookup.
func (c *Client) EnsurePeriodLedger(ctx context.Context, year int, month time.Month) (ledger.Handle, error) {
	title := domain.PeriodTitle(year, month)

	if h, ok, err := c.lookupSheet(ctx, title); err != nil {
		return ledger.Handle{}, err
	} else if ok {
		return h, nil
	}

	h, err := c.createSheet(ctx, title)
	if err != nil {
		// A second create of the same title is rejected by the API;
		// whoever won holds the canonical tab.
		if h2, ok, lookupErr := c.lookupSheet(ctx, title); lookupErr == nil && ok {
			return h2, nil
		}
		return ledger.Handle{}, err
	}

	c.log.Info().Str("ledger", title).Msg("created monthly ledger")
	return h, nil
}

// AppendRow implements ledger.Store.
func (c *Client) AppendRow(ctx context.Context, h ledger.Handle, row ledger.Row) error {
	values := &sheetsapi.ValueRange{
		Values: [][]interface{}{{
			row.Date, row.Type, row.Amount, row.Description, row.Category, row.PaymentMode,
		}},
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, dataRange(h.Title), values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("AppendRow", err)
	}
	return nil
}

// ListRows implements ledger.Store. The header row is skipped; short rows
// are padded so every returned Row has all six fields.
func (c *Client) ListRows(ctx context.Context, h ledger.Handle) ([]ledger.Row, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, dataRange(h.Title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError("ListRows", err)
	}

	rows := make([]ledger.Row, 0, len(resp.Values))
	for i, raw := range resp.Values {
		if i == 0 {
			continue // header
		}
		rows = append(rows, ledger.Row{
			Date:        cell(raw, 0),
			Type:        cell(raw, 1),
			Amount:      cell(raw, 2),
			Description: cell(raw, 3),
			Category:    cell(raw, 4),
			PaymentMode: cell(raw, 5),
		})
	}
	return rows, nil
}

func (c *Client) lookupSheet(ctx context.Context, title string) (ledger.Handle, bool, error) {
	sp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return ledger.Handle{}, false, wrapAPIError("lookupSheet", err)
	}
	for _, sheet := range sp.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return ledger.Handle{Title: title, SheetID: sheet.Properties.SheetId}, true, nil
		}
	}
	return ledger.Handle{}, false, nil
}

func (c *Client) createSheet(ctx context.Context, title string) (ledger.Handle, error) {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return ledger.Handle{}, wrapAPIError("createSheet", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	header := make([]interface{}, len(ledger.Header))
	for i, name := range ledger.Header {
		header[i] = name
	}
	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, dataRange(title), &sheetsapi.ValueRange{Values: [][]interface{}{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return ledger.Handle{}, wrapAPIError("createSheet: writing header", err)
	}

	return ledger.Handle{Title: title, SheetID: sheetID}, nil
}

func dataRange(title string) string {
	return fmt.Sprintf("'%s'!A:F", title)
}

func cell(raw []interface{}, i int) string {
	if i >= len(raw) {
		return ""
	}
	if s, ok := raw[i].(string); ok {
		return s
	}
	return fmt.Sprint(raw[i])
}

// wrapAPIError maps Sheets API failures onto the store error taxonomy:
// 4xx responses mean the write itself was refused, anything else means
// the store could not be reached.
func wrapAPIError(op string, err error) error {
	if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code >= 400 && apiErr.Code < 500 {
		return fmt.Errorf("%s: %w: %v", op, ledger.ErrWriteRejected, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ledger.ErrStoreUnavailable, err)
}
