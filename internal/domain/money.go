package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

func (d Direction) Valid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Sign returns +1 for inflows and -1 for outflows.
func (d Direction) Sign() decimal.Decimal {
	if d == DirectionOutflow {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Period is a half-open date range [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthPeriod returns the calendar month that contains t.
func MonthPeriod(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParsePeriod parses a settlement month in 'YYYY-MM' format.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, NewValidationError("period", "must be in YYYY-MM format, got %q", s)
	}
	return MonthPeriod(t), nil
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Label returns the 'YYYY-MM' form of a monthly period.
func (p Period) Label() string {
	return p.Start.Format("2006-01")
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// Today truncates t to midnight UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
