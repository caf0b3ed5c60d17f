// Package extract turns a receipt photo or a voice note into a transaction
// draft the user confirms before it is stored.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"finanzas/internal/core"
)

type Kind string

const (
	KindReceipt Kind = "receipt"
	KindVoice   Kind = "voice"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindReceipt, KindVoice:
		return Kind(s), nil
	}
	return "", fmt.Errorf("extraction kind %q: %w", s, core.ErrInvalidMethod)
}

// Method is the entry method recorded on transactions created from this kind.
func (k Kind) Method() core.EntryMethod {
	if k == KindVoice {
		return core.MethodVoice
	}
	return core.MethodOCR
}

// Draft is what the model read from the input. Any field may be empty.
type Draft struct {
	Kind        Kind                 `json:"kind"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
	Type        core.TransactionType `json:"type"`
}

// modelDraft mirrors the JSON the model is asked to return.
type modelDraft struct {
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
}

// parseDraft reads the model's reply. Unparseable optional fields are dropped
// rather than failing the whole extraction.
func parseDraft(kind Kind, raw string) (Draft, error) {
	var m modelDraft
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &m); err != nil {
		return Draft{}, fmt.Errorf("decode model reply: %w", err)
	}

	d := Draft{
		Kind:        kind,
		Category:    strings.TrimSpace(m.Category),
		Description: strings.TrimSpace(m.Description),
		Type:        core.Expense,
	}
	var amt core.Money
	if err := json.Unmarshal(m.Amount, &amt); err == nil && amt.Validate() == nil {
		d.Amount = amt
	}
	if date, err := core.ParseDate(m.Date); err == nil {
		d.Date = date
	}
	if t := core.TransactionType(strings.ToLower(m.Type)); t.Valid() {
		d.Type = t
	}
	return d, nil
}

// MatchCategory replaces the category with the first of the user's
// categories of the draft's type whose name contains it, ignoring case.
// Unmatched categories are kept as read.
func (d Draft) MatchCategory(cats []core.Category) Draft {
	if d.Category == "" {
		return d
	}
	needle := strings.ToLower(d.Category)
	for _, c := range cats {
		if c.Type == d.Type && strings.Contains(strings.ToLower(c.Name), needle) {
			d.Category = c.Name
			return d
		}
	}
	return d
}

// Transaction converts a confirmed draft into a transaction. The entry method
// follows the draft kind.
func (d Draft) Transaction() (core.Transaction, error) {
	kind, err := ParseKind(string(d.Kind))
	if err != nil {
		return core.Transaction{}, err
	}
	typ := d.Type
	if typ == "" {
		typ = core.Expense
	}
	return core.Transaction{
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
		Type:        typ,
		Method:      kind.Method(),
	}, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Drop ```json fences if the model added them anyway.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
