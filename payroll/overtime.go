package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME ACCUMULATOR
// =============================================================================

// OvertimeTier classifies worked time against the regular threshold.
type OvertimeTier int

const (
	TierRegular OvertimeTier = iota
	TierFirst                // first three hours past the threshold
	TierSecond               // everything after that
)

func (t OvertimeTier) String() string {
	switch t {
	case TierFirst:
		return "first 3 hours"
	case TierSecond:
		return "after 3 hours"
	default:
		return "regular"
	}
}

// PricedSlice is a slice with its final multiplier and bucket.
type PricedSlice struct {
	Slice
	Multiplier decimal.Decimal
	Kind       PayKind
	Tier       OvertimeTier
	Rules      []AppliedRule
	IsHoliday  bool
}

type scopeKey struct {
	year  int
	index int
}

// scopeOf keys the running total by local date, or by ISO week when the
// guide accumulates overtime weekly.
func scopeOf(d LocalDate, weekly bool) scopeKey {
	if weekly {
		y, w := d.ISOWeek()
		return scopeKey{year: y, index: w}
	}
	return scopeKey{year: d.Year, index: d.utc().YearDay()}
}

// weeklyOvertime reports whether the guide's active day-of-week overtime
// frames between them cover all seven days.
func weeklyOvertime(g PayGuide) bool {
	var seen [7]bool
	n := 0
	for _, f := range g.OvertimeTimeFrames {
		if !f.IsActive || f.IsPublicHoliday || seen[f.DayOfWeek] {
			continue
		}
		seen[f.DayOfWeek] = true
		n++
	}
	return n == len(seen)
}

// tierAt returns the tier that worked time enters after `used` has been
// consumed, and how much room is left in it. The last tier is unbounded.
func tierAt(used, threshold time.Duration) (OvertimeTier, time.Duration) {
	switch {
	case used < threshold:
		return TierRegular, threshold - used
	case used < threshold+OvertimeFirstTier:
		return TierFirst, threshold + OvertimeFirstTier - used
	default:
		return TierSecond, 0
	}
}

// Accumulate walks slices in order and reclassifies time past the regular
// threshold as overtime. Only slices inside a matching overtime window
// accrue; the first matching frame in definition order supplies the tier
// multipliers. A slice that straddles a tier boundary is split at the exact
// instant the boundary is reached.
func Accumulate(slices []Slice, rates []RateMatch, guide PayGuide, cal HolidayCalendar) []PricedSlice {
	threshold := guide.regularThreshold()
	weekly := weeklyOvertime(guide)
	consumed := make(map[scopeKey]time.Duration)

	out := make([]PricedSlice, 0, len(slices))
	for i, s := range slices {
		rate := rates[i]
		frames := matchWindows(guide.OvertimeTimeFrames, s, cal)
		if len(frames) == 0 {
			out = append(out, regular(s, rate))
			continue
		}
		frame := frames[0]

		key := scopeOf(s.Date, weekly)
		used := consumed[key]
		start := s.Start
		for start.Before(s.End) {
			tier, room := tierAt(used, threshold)
			end := s.End
			if room > 0 && start.Add(room).Before(end) {
				end = start.Add(room)
			}
			out = append(out, priceTier(s.sub(start, end), rate, frame, tier))
			used += end.Sub(start)
			start = end
		}
		consumed[key] = used
	}
	return out
}

func regular(s Slice, rate RateMatch) PricedSlice {
	kind := PayBase
	if rate.Multiplier.GreaterThan(one) {
		kind = PayPenalty
	}
	return PricedSlice{Slice: s, Multiplier: rate.Multiplier, Kind: kind, Rules: rate.Rules, IsHoliday: rate.IsHoliday}
}

// priceTier applies the overtime tier multiplier in place of the penalty
// rate. Holiday overtime frames on a holiday stack with the holiday penalty
// using the additive premium.
func priceTier(s Slice, rate RateMatch, frame OvertimeTimeFrame, tier OvertimeTier) PricedSlice {
	if tier == TierRegular {
		return regular(s, rate)
	}

	mult := frame.FirstThreeHoursMult
	if tier == TierSecond {
		mult = frame.AfterThreeHoursMult
	}
	rules := []AppliedRule{{RuleRef: frame.Ref(), Multiplier: mult}}

	if frame.IsPublicHoliday && rate.IsHoliday {
		mult = AdditivePremium(rate.Multiplier, mult)
		rules = append(append([]AppliedRule{}, rate.Rules...), rules...)
	}
	return PricedSlice{Slice: s, Multiplier: mult, Kind: PayOvertime, Tier: tier, Rules: rules, IsHoliday: rate.IsHoliday}
}
