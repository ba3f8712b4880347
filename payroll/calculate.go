package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// CALCULATE - Full pipeline
// =============================================================================

type calcConfig struct {
	jurisdiction string
	periodCheck  *PeriodConfig
}

// CalcOption adjusts a single Calculate call.
type CalcOption func(*calcConfig)

// WithJurisdiction filters public holidays to a state or territory,
// overriding the guide's own StateTerritory.
func WithJurisdiction(j string) CalcOption {
	return func(c *calcConfig) { c.jurisdiction = j }
}

// WithPeriodCheck adds a warning when the pay period containing the shift
// reaches outside the guide's effective window.
func WithPeriodCheck(pc PeriodConfig) CalcOption {
	return func(c *calcConfig) { c.periodCheck = &pc }
}

// Calculate prices a shift under a pay guide. Inputs are validated before
// any work is done; an invalid input yields an error and no result.
func Calculate(shift Shift, guide PayGuide, opts ...CalcOption) (PayCalculationResult, error) {
	cfg := calcConfig{jurisdiction: guide.StateTerritory}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := shift.Validate(); err != nil {
		return PayCalculationResult{}, err
	}
	loc, err := LoadZone(guide.Timezone)
	if err != nil {
		return PayCalculationResult{}, err
	}
	if err := guide.Validate(); err != nil {
		return PayCalculationResult{}, err
	}

	cal := NewHolidayCalendar(guide.PublicHolidays, cfg.jurisdiction)

	slices := Segment(shift, guide, loc, cal)
	rates := make([]RateMatch, len(slices))
	for i, s := range slices {
		rates[i] = MatchRates(s, guide, cal)
	}
	priced := Accumulate(slices, rates, guide, cal)

	result := Aggregate(priced, guide.BaseRate)
	result.Warnings = shiftBoundWarnings(result, guide)
	if cfg.periodCheck != nil {
		if w, ok := CheckEffectiveWindow(shift, guide, *cfg.periodCheck, loc); !ok {
			result.Warnings = append(result.Warnings, w)
		}
	}
	return result, nil
}

func shiftBoundWarnings(res PayCalculationResult, guide PayGuide) []string {
	var warnings []string
	if floor := guide.MinimumShiftHours; floor != nil && res.TotalHours.LessThan(*floor) {
		warnings = append(warnings, fmt.Sprintf("worked %s hours, below the minimum of %s",
			res.TotalHours.StringFixed(2), floor.String()))
	}
	if ceiling := guide.MaximumShiftHours; ceiling != nil && res.TotalHours.GreaterThan(*ceiling) {
		warnings = append(warnings, fmt.Sprintf("worked %s hours, above the maximum of %s",
			res.TotalHours.StringFixed(2), ceiling.String()))
	}
	return warnings
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the shift interval and its breaks.
func (s Shift) Validate() error {
	if !s.End.After(s.Start) {
		return &IntervalError{Start: s.Start, End: s.End, Reason: "end must be after start"}
	}
	if s.Duration() > MaxShiftDuration {
		return &IntervalError{Start: s.Start, End: s.End, Reason: "shift longer than 24 hours"}
	}

	for i, b := range s.Breaks {
		if !b.End.After(b.Start) {
			return &BreakError{Index: i, Break: b, Reason: "end must be after start"}
		}
		if b.Start.Before(s.Start) || b.End.After(s.End) {
			return &BreakError{Index: i, Break: b, Reason: "outside shift"}
		}
	}

	sorted := s.sortedBreaks()
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.Before(sorted[i-1].End) {
			return &BreakError{Index: s.indexOf(sorted[i]), Break: sorted[i], Reason: "overlaps another break"}
		}
	}
	return nil
}

func (s Shift) indexOf(b BreakPeriod) int {
	for i, x := range s.Breaks {
		if x.Start.Equal(b.Start) && x.End.Equal(b.End) {
			return i
		}
	}
	return -1
}

// Validate checks guide invariants that the engine relies on. Timezone
// resolution is checked separately by LoadZone.
func (g PayGuide) Validate() error {
	fail := func(field, reason string) error {
		return &GuideError{GuideID: g.ID, Field: field, Reason: reason}
	}

	if !g.BaseRate.IsPositive() {
		return fail("base_rate", "must be greater than zero")
	}
	if g.EffectiveTo != nil && !g.EffectiveTo.After(g.EffectiveFrom) {
		return fail("effective_to", "must be after effective_from")
	}
	if g.RegularHoursThreshold.IsNegative() {
		return fail("regular_hours_threshold", "must not be negative")
	}
	if g.RegularHoursThreshold.GreaterThan(MaxRegularHours) {
		return fail("regular_hours_threshold", fmt.Sprintf("must not exceed %s hours", MaxRegularHours))
	}
	if g.MinimumShiftHours != nil && g.MaximumShiftHours != nil &&
		g.MinimumShiftHours.GreaterThan(*g.MaximumShiftHours) {
		return fail("minimum_shift_hours", "greater than maximum_shift_hours")
	}

	for _, p := range g.PenaltyTimeFrames {
		if err := p.validate(); err != nil {
			return fail(fmt.Sprintf("penalty %q", p.ID), err.Error())
		}
		if p.Multiplier.LessThan(one) {
			return fail(fmt.Sprintf("penalty %q", p.ID), "multiplier below 1")
		}
	}
	for _, o := range g.OvertimeTimeFrames {
		if err := o.validate(); err != nil {
			return fail(fmt.Sprintf("overtime %q", o.ID), err.Error())
		}
		if o.FirstThreeHoursMult.LessThan(one) || o.AfterThreeHoursMult.LessThan(one) {
			return fail(fmt.Sprintf("overtime %q", o.ID), "multiplier below 1")
		}
	}
	for _, h := range g.PublicHolidays {
		if h.Date.IsZero() {
			return fail(fmt.Sprintf("holiday %q", h.Name), "missing date")
		}
		if h.Multiplier.IsNegative() {
			return fail(fmt.Sprintf("holiday %q", h.Name), "negative multiplier")
		}
	}
	return nil
}

// =============================================================================
// EFFECTIVE WINDOW
// =============================================================================

// CoversPeriod reports whether every instant of the period, in loc, lies
// inside the guide's effective window.
func (g PayGuide) CoversPeriod(p PayPeriod, loc *time.Location) bool {
	first := p.Start.Midnight(loc)
	last := p.End.AddDays(1).Midnight(loc).Add(-time.Nanosecond)
	return g.EffectiveAt(first) && g.EffectiveAt(last)
}

// CheckEffectiveWindow returns a warning when the guide is not effective at
// the shift start, or when the pay period containing the shift extends
// outside the guide's window. ok is true when there is nothing to report.
func CheckEffectiveWindow(shift Shift, guide PayGuide, pc PeriodConfig, loc *time.Location) (warning string, ok bool) {
	if !guide.EffectiveAt(shift.Start) {
		return fmt.Sprintf("pay guide %q is not effective at %s", guide.ID,
			shift.Start.In(loc).Format(time.RFC3339)), false
	}
	period := pc.PeriodFor(DateOf(shift.Start.In(loc)))
	if !guide.CoversPeriod(period, loc) {
		return fmt.Sprintf("pay period %s extends outside the effective window of pay guide %q",
			period, guide.ID), false
	}
	return "", true
}
