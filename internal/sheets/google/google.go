// Package google appends exported transactions to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanzas/internal/core"
	"finanzas/internal/export"
)

const DefaultSheet = "Movimientos"

// values is the slice of the Sheets API the exporter uses.
type values interface {
	get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type Exporter struct {
	values        values
	spreadsheetID string
	sheetBase     string
}

// NewExporter creates a Sheets exporter authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewExporter(ctx context.Context, spreadsheetID, sheetBase string) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = DefaultSheet
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{
		values:        &serviceValues{svc: svc},
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export appends txs to the "<year> <sheet>" tab for now's year, writing the
// header first when the tab is empty. It returns the sheet name written to.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction, now time.Time) (string, error) {
	if len(txs) == 0 {
		return "", export.ErrNothingToExport
	}
	if e.values == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(e.sheetBase, now.Year())
	existing, err := e.values.get(ctx, e.spreadsheetID, fmt.Sprintf("%s!A1:A1", sheet))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", sheet, err)
	}

	rows := make([][]any, 0, len(txs)+1)
	if len(existing) == 0 {
		rows = append(rows, toRow(export.Header))
	}
	for _, t := range txs {
		cells := toRow(export.Row(t))
		// Amount as a number so sheet formulas can sum it.
		cells[4] = t.Amount.Float()
		rows = append(rows, cells)
	}

	if err := e.values.append(ctx, e.spreadsheetID, fmt.Sprintf("%s!A:G", sheet), rows); err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Exported transactions to sheet",
		"sheet", sheet,
		"rows", len(txs))
	return sheet, nil
}

func toRow(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

type serviceValues struct {
	svc *gsheet.Service
}

func (v *serviceValues) get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *serviceValues) append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := v.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}
