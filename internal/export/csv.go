// Package export serializes a filtered transaction set for spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"finanzas/internal/core"
)

var ErrNothingToExport = errors.New("no transactions to export with the current filters")

// Header is the first row of every export.
var Header = []string{"Fecha", "Tipo", "Categoría", "Descripción", "Monto", "Método", "Pago"}

const bom = "\uFEFF"

// Row renders a transaction as export cells, unquoted.
func Row(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		typeLabel(t.Type),
		t.Category,
		t.Description,
		t.Amount.String(),
		methodLabel(t.Method),
		paymentLabel(t.PaymentMethod),
	}
}

// Rows renders txs in order, without the header.
func Rows(txs []core.Transaction) [][]string {
	out := make([][]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, Row(t))
	}
	return out
}

// WriteCSV writes a UTF-8 BOM, the header and one line per transaction,
// joined by "\n" with no trailing newline. Category and description are
// always quoted.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}

	var b strings.Builder
	b.WriteString(bom)
	b.WriteString(strings.Join(Header, ","))
	for _, t := range txs {
		cells := Row(t)
		cells[2] = quote(cells[2])
		cells[3] = quote(cells[3])
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, ","))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// FileName is the download name for an export made at now.
func FileName(now time.Time) string {
	return "movimientos_" + now.Format("2006-01-02") + ".csv"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

func methodLabel(m core.EntryMethod) string {
	switch m {
	case core.MethodOCR:
		return "OCR"
	case core.MethodVoice:
		return "Voz"
	}
	return "Manual"
}

func paymentLabel(p core.PaymentMethod) string {
	if p == core.PaymentCash {
		return "Efectivo"
	}
	return "Transferencia"
}
