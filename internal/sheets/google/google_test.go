package google

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/export"
)

type fakeValues struct {
	existing [][]any
	getErr   error

	appendedRange string
	appended      [][]any
}

func (f *fakeValues) get(_ context.Context, _, _ string) ([][]any, error) {
	return f.existing, f.getErr
}

func (f *fakeValues) append(_ context.Context, _, rng string, rows [][]any) error {
	f.appendedRange = rng
	f.appended = append(f.appended, rows...)
	return nil
}

var exportNow = time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC)

func sampleTxs() []core.Transaction {
	return []core.Transaction{{
		Amount:        core.Money{Cents: 1250},
		Category:      "Comida",
		Description:   "Mercado",
		Date:          core.NewDate(2024, 12, 18),
		Type:          core.Expense,
		Method:        core.MethodVoice,
		PaymentMethod: core.PaymentCash,
	}}
}

func TestNewExporter_MissingSpreadsheetID(t *testing.T) {
	_, err := NewExporter(context.Background(), " ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("error = %v", err)
	}
}

func TestNewExporter_MissingCredentials(t *testing.T) {
	for _, k := range []string{"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	_, err := NewExporter(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("error = %v", err)
	}
}

func TestExportWritesHeaderOnEmptySheet(t *testing.T) {
	fv := &fakeValues{}
	e := &Exporter{values: fv, spreadsheetID: "id", sheetBase: DefaultSheet}

	sheet, err := e.Export(context.Background(), sampleTxs(), exportNow)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if sheet != "2024 Movimientos" || fv.appendedRange != "2024 Movimientos!A:G" {
		t.Errorf("sheet = %q, range = %q", sheet, fv.appendedRange)
	}
	if len(fv.appended) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(fv.appended))
	}
	if fv.appended[0][0] != "Fecha" {
		t.Errorf("first row = %v, want header", fv.appended[0])
	}
	row := fv.appended[1]
	if row[0] != "2024-12-18" || row[1] != "Gasto" || row[4] != 12.5 || row[5] != "Voz" || row[6] != "Efectivo" {
		t.Errorf("row = %v", row)
	}
}

func TestExportAppendsWithoutHeader(t *testing.T) {
	fv := &fakeValues{existing: [][]any{{"Fecha"}}}
	e := &Exporter{values: fv, spreadsheetID: "id", sheetBase: "2023 Archivo"}

	sheet, err := e.Export(context.Background(), sampleTxs(), exportNow)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if sheet != "2023 Archivo" {
		t.Errorf("sheet = %q, want explicit year kept", sheet)
	}
	if len(fv.appended) != 1 {
		t.Errorf("rows = %d, want 1", len(fv.appended))
	}
}

func TestExportErrors(t *testing.T) {
	e := &Exporter{values: &fakeValues{}, spreadsheetID: "id", sheetBase: DefaultSheet}
	if _, err := e.Export(context.Background(), nil, exportNow); !errors.Is(err, export.ErrNothingToExport) {
		t.Errorf("empty export error = %v", err)
	}

	boom := errors.New("quota")
	e.values = &fakeValues{getErr: boom}
	if _, err := e.Export(context.Background(), sampleTxs(), exportNow); !errors.Is(err, boom) {
		t.Errorf("read error = %v", err)
	}

	e.values = nil
	if _, err := e.Export(context.Background(), sampleTxs(), exportNow); err == nil {
		t.Error("expected error without a service")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Movimientos", "2024 Movimientos"},
		{"2023 Movimientos", "2023 Movimientos"},
		{"", ""},
		{"1800 Old", "2024 1800 Old"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, 2024); got != tt.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
