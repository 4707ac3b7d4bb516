// Package overrides loads the closed-retailer override table. Closed
// advertiser accounts return null from the live programme-details
// endpoint, so their names are kept in a spreadsheet until all of their
// old transactions have posted.
package overrides

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/moxiedata/affiliate-ledger/internal/ledger"
)

// ValuesGetter reads a cell range from a spreadsheet.
type ValuesGetter interface {
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// SheetsSource reads override rows through the Google Sheets API.
type SheetsSource struct {
	svc *sheets.Service
}

// NewSheetsSource creates a sheets-backed source using Application Default
// Credentials unless overridden by opts.
func NewSheetsSource(ctx context.Context, opts ...option.ClientOption) (*SheetsSource, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("overrides: creating sheets service: %w", err)
	}
	return &SheetsSource{svc: svc}, nil
}

// Values implements ValuesGetter against the live API.
func (s *SheetsSource) Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("overrides: reading range %s: %w", readRange, err)
	}
	return resp.Values, nil
}

// Load reads the override table once and returns it as a retailer map.
// The first row is a header and is discarded; remaining rows map
// advertiser ID (column A) to retailer name (column B). Short rows are
// skipped rather than failing the run.
func Load(ctx context.Context, source ValuesGetter, spreadsheetID, readRange string) (ledger.RetailerMap, error) {
	values, err := source.Values(ctx, spreadsheetID, readRange)
	if err != nil {
		return nil, err
	}

	retailers := ledger.RetailerMap{}
	if len(values) == 0 {
		return retailers, nil
	}

	for _, row := range values[1:] {
		if len(row) < 2 {
			continue
		}
		advertiserID, ok1 := row[0].(string)
		retailer, ok2 := row[1].(string)
		if !ok1 || !ok2 || advertiserID == "" {
			continue
		}
		retailers[advertiserID] = retailer
	}

	return retailers, nil
}

// Loader binds a source to one spreadsheet location, so callers can reload
// the table without carrying the coordinates around.
type Loader struct {
	Source        ValuesGetter
	SpreadsheetID string
	ReadRange     string
}

// Load reads the bound override table.
func (l *Loader) Load(ctx context.Context) (ledger.RetailerMap, error) {
	return Load(ctx, l.Source, l.SpreadsheetID, l.ReadRange)
}
