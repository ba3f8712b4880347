package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE MATCHER
// =============================================================================

// AppliedRule is a rule matched to a slice, with the multiplier it carries.
type AppliedRule struct {
	RuleRef
	Multiplier decimal.Decimal
}

// RateMatch is the resolved penalty rate of one slice.
type RateMatch struct {
	Multiplier decimal.Decimal
	Rules      []AppliedRule
	IsHoliday  bool
}

// MatchRates resolves the penalty multiplier for a slice. On a public
// holiday only holiday rules are candidates; otherwise day-of-week rules
// anchored on the slice's day, or carried over midnight from the day
// before, are. Any holiday match excludes day-of-week rules. A holiday
// that no holiday frame covers falls back to the holiday's own multiplier.
func MatchRates(s Slice, guide PayGuide, cal HolidayCalendar) RateMatch {
	matched := matchWindows(guide.PenaltyTimeFrames, s, cal)

	rules := make([]AppliedRule, 0, len(matched))
	for _, p := range matched {
		rules = append(rules, AppliedRule{RuleRef: p.Ref(), Multiplier: p.Multiplier})
	}

	h, holiday := cal.HolidayOn(s.Date)
	if holiday && len(rules) == 0 && h.Multiplier.GreaterThan(one) {
		rules = append(rules, AppliedRule{RuleRef: holidayRef(h), Multiplier: h.Multiplier})
	}

	mult, applied := CombineMultipliers(guide.AllowPenaltyCombination, rules)
	return RateMatch{Multiplier: mult, Rules: applied, IsHoliday: holiday}
}

func holidayRef(h PublicHoliday) RuleRef {
	id := RuleID(h.ID)
	if id == "" {
		id = RuleID(fmt.Sprintf("holiday:%s", h.Date))
	}
	return RuleRef{ID: id, Name: h.Name}
}

// matchWindows returns the active rules, in definition order, whose window
// contains the slice.
func matchWindows[R WindowRule](rules []R, s Slice, cal HolidayCalendar) []R {
	today, prev := s.Date, s.Date.AddDays(-1)
	todayHoliday, prevHoliday := isHoliday(cal, today), isHoliday(cal, prev)

	var holiday, weekday []R
	for _, r := range rules {
		w := r.Window()
		if !w.IsActive {
			continue
		}
		if w.IsPublicHoliday {
			if (todayHoliday && w.covers(s.offset)) || (prevHoliday && w.carries(s.offset)) {
				holiday = append(holiday, r)
			}
			continue
		}
		if todayHoliday {
			continue
		}
		if (w.DayOfWeek == today.Weekday() && w.covers(s.offset)) ||
			(!prevHoliday && w.DayOfWeek == prev.Weekday() && w.carries(s.offset)) {
			weekday = append(weekday, r)
		}
	}
	if len(holiday) > 0 {
		return holiday
	}
	return weekday
}

// =============================================================================
// COMBINATION POLICY
// =============================================================================

// CombineMultipliers resolves overlapping penalties. Without combination the
// highest multiplier wins, the first defined on ties. With combination the
// premiums above 1 are added together.
func CombineMultipliers(allowCombination bool, rules []AppliedRule) (decimal.Decimal, []AppliedRule) {
	if len(rules) == 0 {
		return one, nil
	}
	if !allowCombination {
		best := 0
		for i := 1; i < len(rules); i++ {
			if rules[i].Multiplier.GreaterThan(rules[best].Multiplier) {
				best = i
			}
		}
		return rules[best].Multiplier, []AppliedRule{rules[best]}
	}

	ms := make([]decimal.Decimal, len(rules))
	for i, r := range rules {
		ms[i] = r.Multiplier
	}
	return AdditivePremium(ms...), rules
}

// AdditivePremium combines multipliers as 1 + Σ(m − 1), so 1.15 and 1.25
// give 1.40.
func AdditivePremium(ms ...decimal.Decimal) decimal.Decimal {
	total := one
	for _, m := range ms {
		total = total.Add(m.Sub(one))
	}
	return total
}
