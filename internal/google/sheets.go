package google

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
)

// firstSheetRange targets the first sheet of the spreadsheet.
const firstSheetRange = "A1"

var (
	sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	sheetIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Ledger appends booking rows to a spreadsheet.
type Ledger struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewLedger creates a ledger gateway for the spreadsheet at location, which
// may be a full sheet URL or a bare spreadsheet ID.
func NewLedger(ctx context.Context, location string, opts ...option.ClientOption) (*Ledger, error) {
	id, err := SpreadsheetID(location)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Ledger{svc: svc, spreadsheetID: id}, nil
}

// Append writes one booking row.
func (l *Ledger) Append(ctx context.Context, rec model.BookingRecord) error {
	values := &sheets.ValueRange{Values: [][]interface{}{rec.Row()}}

	start := time.Now()
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, firstSheetRange, values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	metrics.RecordExternalCall("sheets", "append", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	return nil
}

// SpreadsheetID extracts the spreadsheet ID from a sheet URL or returns a
// bare ID unchanged.
func SpreadsheetID(location string) (string, error) {
	location = strings.TrimSpace(location)
	if m := sheetURLPattern.FindStringSubmatch(location); m != nil {
		return m[1], nil
	}
	if sheetIDPattern.MatchString(location) {
		return location, nil
	}
	return "", fmt.Errorf("cannot find a spreadsheet ID in %q", location)
}
