package payroll

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// PAY PERIOD - Recurring calendar window
// =============================================================================

// PayPeriod is an inclusive range of local calendar dates.
//
// Examples:
//   - Weekly, Monday start:   Mon 2024-06-10 - Sun 2024-06-16
//   - Fortnightly:            two consecutive weeks, parity from the epoch
//   - Monthly:                2024-06-01 - 2024-06-30
type PayPeriod struct {
	Start LocalDate
	End   LocalDate
}

// Contains returns true if d is within [Start, End].
func (p PayPeriod) Contains(d LocalDate) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns every date in the period.
func (p PayPeriod) Days() []LocalDate {
	var days []LocalDate
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (p PayPeriod) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodType defines how periods are calculated.
type PeriodType string

const (
	PeriodWeekly      PeriodType = "weekly"
	PeriodFortnightly PeriodType = "fortnightly"
	PeriodMonthly     PeriodType = "monthly"
)

func ParsePeriodType(s string) (PeriodType, error) {
	switch pt := PeriodType(strings.ToLower(strings.TrimSpace(s))); pt {
	case PeriodWeekly, PeriodFortnightly, PeriodMonthly:
		return pt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodType, s)
	}
}

// epoch is the date whose week is week zero for fortnight parity.
var epoch = NewLocalDate(1970, time.January, 1)

// PeriodConfig defines how to calculate periods. WeekStart is used as given,
// so a zero value starts weeks on Sunday; ResolvePayPeriodRange defaults to
// Monday.
type PeriodConfig struct {
	Type PeriodType

	// WeekStart is the first day of weekly and fortnightly periods.
	WeekStart time.Weekday

	// Anchor fixes fortnight parity: the week containing it starts a
	// fortnight. Defaults to the week containing 1970-01-01.
	Anchor *LocalDate
}

// =============================================================================
// PERIOD CALCULATOR - Determines which period a date falls into
// =============================================================================

// PeriodFor returns the period that contains the given date.
func (pc PeriodConfig) PeriodFor(d LocalDate) PayPeriod {
	switch pc.Type {
	case PeriodFortnightly:
		return pc.fortnightPeriod(d)
	case PeriodMonthly:
		return PayPeriod{Start: StartOfMonth(d), End: EndOfMonth(d)}
	default:
		start := pc.weekStartOf(d)
		return PayPeriod{Start: start, End: start.AddDays(6)}
	}
}

func (pc PeriodConfig) weekStartOf(d LocalDate) LocalDate {
	back := (int(d.Weekday()) - int(pc.WeekStart) + 7) % 7
	return d.AddDays(-back)
}

func (pc PeriodConfig) fortnightPeriod(d LocalDate) PayPeriod {
	anchor := epoch
	if pc.Anchor != nil {
		anchor = *pc.Anchor
	}
	zero := pc.weekStartOf(anchor)
	start := pc.weekStartOf(d)

	weekIndex := floorDiv(DaysBetween(zero, start), 7)
	if floorMod(weekIndex, 2) == 1 {
		start = start.AddDays(-7)
	}
	return PayPeriod{Start: start, End: start.AddDays(13)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int { return a - floorDiv(a, b)*b }

// Next returns the period following p.
func (pc PeriodConfig) Next(p PayPeriod) PayPeriod { return pc.PeriodFor(p.End.AddDays(1)) }

// Previous returns the period before p.
func (pc PeriodConfig) Previous(p PayPeriod) PayPeriod { return pc.PeriodFor(p.Start.AddDays(-1)) }

// =============================================================================
// RANGE RESOLVER
// =============================================================================

// PeriodOption adjusts ResolvePayPeriodRange.
type PeriodOption func(*PeriodConfig)

// WithWeekStart sets the first day of weekly and fortnightly periods.
func WithWeekStart(d time.Weekday) PeriodOption {
	return func(pc *PeriodConfig) { pc.WeekStart = d }
}

// WithAnchor fixes fortnight parity to the week containing d.
func WithAnchor(d LocalDate) PeriodOption {
	return func(pc *PeriodConfig) { pc.Anchor = &d }
}

// ResolvePayPeriodRange converts ref to a local date in tz and returns the
// period of the given type containing it. Weeks start on Monday unless
// WithWeekStart says otherwise.
func ResolvePayPeriodRange(ref time.Time, periodType PeriodType, tz string, opts ...PeriodOption) (PayPeriod, error) {
	pt, err := ParsePeriodType(string(periodType))
	if err != nil {
		return PayPeriod{}, err
	}
	loc, err := LoadZone(tz)
	if err != nil {
		return PayPeriod{}, err
	}

	pc := PeriodConfig{Type: pt, WeekStart: time.Monday}
	for _, opt := range opts {
		opt(&pc)
	}
	return pc.PeriodFor(DateOf(ref.In(loc))), nil
}

// =============================================================================
// GROUPING
// =============================================================================

// PeriodGroup is the shifts that start inside one pay period.
type PeriodGroup struct {
	Period PayPeriod
	Shifts []Shift
}

// GroupByPeriod buckets shifts by the period containing their local start
// date. Groups are ordered by period start; shifts keep their input order.
func GroupByPeriod(shifts []Shift, pc PeriodConfig, loc *time.Location) []PeriodGroup {
	index := make(map[PayPeriod]int)
	var groups []PeriodGroup
	for _, s := range shifts {
		p := pc.PeriodFor(DateOf(s.Start.In(loc)))
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, PeriodGroup{Period: p})
		}
		groups[i].Shifts = append(groups[i].Shifts, s)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Period.Start.Before(groups[j].Period.Start)
	})
	return groups
}
