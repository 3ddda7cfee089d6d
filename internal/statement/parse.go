package statement

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/reconcile"
)

type columns struct {
	date, value, inflow, outflow, memo int
}

func (c columns) complete() bool {
	return c.date >= 0 && c.memo >= 0 && (c.value >= 0 || (c.inflow >= 0 && c.outflow >= 0))
}

func (c columns) found() int {
	n := 0
	for _, i := range []int{c.date, c.value, c.inflow, c.outflow, c.memo} {
		if i >= 0 {
			n++
		}
	}
	return n
}

func (c columns) missing() []string {
	var m []string
	if c.date < 0 {
		m = append(m, "date")
	}
	if c.value < 0 && (c.inflow < 0 || c.outflow < 0) {
		m = append(m, "value (or inflow/outflow)")
	}
	if c.memo < 0 {
		m = append(m, "description")
	}
	return m
}

var (
	dateHeaders    = []string{"data", "date", "dt"}
	valueHeaders   = []string{"valor", "value", "amount", "montante", "quantia"}
	inflowHeaders  = []string{"entrada", "entradas", "credito", "creditos", "inflow", "credit", "credits"}
	outflowHeaders = []string{"saida", "saidas", "debito", "debitos", "outflow", "debit", "debits"}
	memoHeaders    = []string{"descricao", "historico", "description", "history", "memo", "detalhe", "detalhes", "lancamento"}
)

// headerHas reports whether the first word of the normalized cell is one of
// the names; for description columns any word counts.
func headerHas(cell string, names []string, anyWord bool) bool {
	words := strings.Fields(cell)
	if len(words) == 0 {
		return false
	}
	if !anyWord {
		words = words[:1]
	}
	for _, w := range words {
		for _, n := range names {
			if w == n {
				return true
			}
		}
	}
	return false
}

func detectColumns(row []string) columns {
	c := columns{date: -1, value: -1, inflow: -1, outflow: -1, memo: -1}
	for i, raw := range row {
		cell := reconcile.Normalize(raw)
		switch {
		case cell == "":
		case c.date < 0 && headerHas(cell, dateHeaders, false):
			c.date = i
		case c.value < 0 && headerHas(cell, valueHeaders, false):
			c.value = i
		case c.inflow < 0 && headerHas(cell, inflowHeaders, false):
			c.inflow = i
		case c.outflow < 0 && headerHas(cell, outflowHeaders, false):
			c.outflow = i
		case c.memo < 0 && headerHas(cell, memoHeaders, true):
			c.memo = i
		}
	}
	return c
}

// findHeader returns the index of the header row and its columns.
func findHeader(grid [][]string) (int, columns, error) {
	best := columns{date: -1, value: -1, inflow: -1, outflow: -1, memo: -1}
	for i := 0; i < len(grid) && i < HeaderScanRows; i++ {
		c := detectColumns(grid[i])
		if c.complete() {
			return i, c, nil
		}
		if c.found() > best.found() {
			best = c
		}
	}
	return -1, best, &domain.IntegrationError{
		Reason:  fmt.Sprintf("no header row found in the first %d rows", HeaderScanRows),
		Missing: best.missing(),
	}
}

// Parse converts a sheet grid into statement rows. Rows without a readable
// date (balances, footers) are skipped, as are zero-value rows.
func Parse(grid [][]string) ([]domain.StatementRow, error) {
	headerIdx, cols, err := findHeader(grid)
	if err != nil {
		return nil, err
	}

	style := detectStyle(grid[headerIdx+1:], cols)

	var rows []domain.StatementRow
	for i := headerIdx + 1; i < len(grid); i++ {
		rec := grid[i]
		line := i + 1

		date, ok := parseDate(cell(rec, cols.date))
		if !ok {
			continue
		}
		memo := strings.TrimSpace(cell(rec, cols.memo))
		if strings.HasPrefix(reconcile.Normalize(memo), "saldo") {
			continue
		}

		var amount decimal.Decimal
		if cols.value >= 0 {
			amount, err = parseAmount(cell(rec, cols.value), style)
			if err != nil {
				return nil, &domain.IntegrationError{Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
		} else {
			in, err := parseOptionalAmount(cell(rec, cols.inflow), style)
			if err != nil {
				return nil, &domain.IntegrationError{Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
			out, err := parseOptionalAmount(cell(rec, cols.outflow), style)
			if err != nil {
				return nil, &domain.IntegrationError{Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
			amount = in.Abs().Sub(out.Abs())
		}
		if amount.IsZero() {
			continue
		}

		rows = append(rows, domain.StatementRow{Line: line, Date: date, Amount: amount, Memo: memo})
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02/01/06",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Today(t), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		return excelEpoch.AddDate(0, 0, int(math.Floor(serial))), true
	}
	return time.Time{}, false
}

func parseOptionalAmount(s string, style decimalStyle) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return parseAmount(s, style)
}

// decimalStyle is the decimal separator a sheet uses, read from the amounts
// whose separator is unambiguous.
type decimalStyle int

const (
	styleUnknown decimalStyle = iota
	styleComma                // 1.234,56
	styleDot                  // 1,234.56
)

func detectStyle(grid [][]string, cols columns) decimalStyle {
	for _, rec := range grid {
		for _, i := range []int{cols.value, cols.inflow, cols.outflow} {
			if style := cellStyle(cell(rec, i)); style != styleUnknown {
				return style
			}
		}
	}
	return styleUnknown
}

func cellStyle(s string) decimalStyle {
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return styleComma
		}
		return styleDot
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && digitsAfter(s, lastComma) <= 2 {
			return styleComma
		}
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 && digitsAfter(s, lastDot) <= 2 {
			return styleDot
		}
	}
	return styleUnknown
}

func digitsAfter(s string, i int) int {
	n := 0
	for _, r := range s[i+1:] {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

// parseAmount accepts both "1.234,56" and "1,234.56" styles, a leading minus,
// parentheses and a trailing D/C marker. A lone dot followed by three digits
// ("1.500") is a thousands separator on comma-decimal sheets, a decimal point
// on dot-decimal sheets, and rejected when the sheet gives no hint.
func parseAmount(s string, style decimalStyle) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasSuffix(strings.ToUpper(s), "D"):
		negative = true
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToUpper(s), "C"):
		s = s[:len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "+")

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case lastDot >= 0 && len(s)-lastDot-1 == 3:
		switch style {
		case styleComma:
			s = strings.Replace(s, ".", "", 1)
		case styleUnknown:
			return decimal.Zero, fmt.Errorf("ambiguous amount %q: cannot tell thousands from decimals", raw)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
