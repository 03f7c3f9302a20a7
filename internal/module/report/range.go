package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// RangeKind selects the reporting period
type RangeKind string

const (
	RangeMonth   RangeKind = "month"
	RangeQuarter RangeKind = "quarter"
	RangeYear    RangeKind = "year"
	RangeCustom  RangeKind = "custom"
	RangeAll     RangeKind = "all"
)

var (
	ErrInvalidRange = errors.New("invalid report range")
	ErrInvalidDate  = errors.New("range dates must be formatted as YYYY-MM-DD")
)

// Range is a period selector. Start and End are only read for custom ranges;
// empty values default to the first day of the current month and today.
type Range struct {
	Kind  RangeKind `json:"kind"`
	Start string    `json:"start,omitempty"`
	End   string    `json:"end,omitempty"`
}

// Bounds is a resolved, inclusive date window. Dates compare as strings.
type Bounds struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	All   bool   `json:"all"`
}

// Contains reports whether a YYYY-MM-DD date falls inside the window
func (b Bounds) Contains(date string) bool {
	if b.All {
		return true
	}
	return date >= b.Start && date <= b.End
}

// ParseRange builds a Range from query parameters. An empty kind means month.
func ParseRange(kind, start, end string) (Range, error) {
	r := Range{Kind: RangeKind(kind), Start: start, End: end}
	if r.Kind == "" {
		r.Kind = RangeMonth
	}
	switch r.Kind {
	case RangeMonth, RangeQuarter, RangeYear, RangeAll, RangeCustom:
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, kind)
	}
	for _, date := range []string{start, end} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(ledger.DateLayout, date); err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}
	return r, nil
}

// Resolve turns the selector into concrete bounds relative to now
func (r Range) Resolve(now time.Time) (Bounds, error) {
	year, month, _ := now.Date()
	loc := now.Location()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	switch r.Kind {
	case RangeMonth, "":
		return window(firstOfMonth, firstOfMonth.AddDate(0, 1, -1)), nil
	case RangeQuarter:
		startMonth := time.Month((int(month)-1)/3*3 + 1)
		start := time.Date(year, startMonth, 1, 0, 0, 0, 0, loc)
		return window(start, start.AddDate(0, 3, -1)), nil
	case RangeYear:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return window(start, start.AddDate(1, 0, -1)), nil
	case RangeAll:
		return Bounds{All: true}, nil
	case RangeCustom:
		b := Bounds{Start: r.Start, End: r.End}
		if b.Start == "" {
			b.Start = firstOfMonth.Format(ledger.DateLayout)
		}
		if b.End == "" {
			b.End = now.Format(ledger.DateLayout)
		}
		if b.Start > b.End {
			b.Start, b.End = b.End, b.Start
		}
		return b, nil
	}
	return Bounds{}, fmt.Errorf("%w: %q", ErrInvalidRange, r.Kind)
}

func window(start, end time.Time) Bounds {
	return Bounds{Start: start.Format(ledger.DateLayout), End: end.Format(ledger.DateLayout)}
}
