package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/core"
	ports "ledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes year grids into a spreadsheet, one tab per year.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	timeout       time.Duration
}

var _ ports.GridPublisher = (*Client)(nil)

// New creates a client for spreadsheetID. sheetName is the tab base name;
// the year is prefixed when publishing.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		timeout:       30 * time.Second,
	}, nil
}

// NewWithServiceAccount authenticates with service account key material.
func NewWithServiceAccount(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	return New(ctx, spreadsheetID, sheetName,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// PublishGrid replaces the content of the year's tab with the grid table,
// creating the tab first when the spreadsheet does not have it.
func (c *Client) PublishGrid(ctx context.Context, grid core.YearGrid) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tab := ports.TabName(c.sheetName, grid.Year)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("'%s'!A:O", tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	values := ports.GridTable(grid)
	dataRange := fmt.Sprintf("'%s'!A1", tab)
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Grid published to sheet",
		"tab", tab,
		"year", grid.Year,
		"rows", len(values),
		"updated_cells", resp.UpdatedCells)
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created sheet tab", "tab", tab)
	return nil
}
