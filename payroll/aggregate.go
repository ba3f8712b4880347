package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY AGGREGATOR
// =============================================================================

// Aggregate prices every slice at hours × baseRate × multiplier and sums
// the results into the breakdown. Bucket totals are accumulated in
// nanosecond-rate units and converted to money once, then rounded to cents.
// TotalPay is the sum of the rounded buckets.
func Aggregate(priced []PricedSlice, baseRate decimal.Decimal) PayCalculationResult {
	var worked time.Duration
	base, penalty, overtime := decimal.Zero, decimal.Zero, decimal.Zero

	var lines []AppliedPenalty
	var lineUnits []decimal.Decimal

	for _, p := range priced {
		d := p.Duration()
		worked += d
		units := decimal.NewFromInt(int64(d)).Mul(baseRate).Mul(p.Multiplier)

		switch p.Kind {
		case PayOvertime:
			overtime = overtime.Add(units)
		case PayPenalty:
			penalty = penalty.Add(units)
		default:
			base = base.Add(units)
		}

		if !p.Multiplier.GreaterThan(one) {
			continue
		}
		ids := ruleIDs(p.Rules)
		if n := len(lines); n > 0 && continues(lines[n-1], p, ids) {
			lines[n-1].End = p.End
			lineUnits[n-1] = lineUnits[n-1].Add(units)
			continue
		}
		lines = append(lines, AppliedPenalty{
			RuleIDs:    ids,
			Name:       lineName(p),
			Kind:       p.Kind,
			Start:      p.Start,
			End:        p.End,
			Multiplier: p.Multiplier,
		})
		lineUnits = append(lineUnits, units)
	}

	for i := range lines {
		lines[i].Hours = Hours(lines[i].End.Sub(lines[i].Start))
		lines[i].Pay = toMoney(lineUnits[i])
	}

	b := PayBreakdown{
		BasePay:     toMoney(base),
		PenaltyPay:  toMoney(penalty),
		OvertimePay: toMoney(overtime),
	}
	b.TotalPay = b.BasePay.Add(b.PenaltyPay).Add(b.OvertimePay)

	return PayCalculationResult{
		TotalHours:       Hours(worked),
		Breakdown:        b,
		AppliedPenalties: lines,
	}
}

func toMoney(units decimal.Decimal) decimal.Decimal {
	return RoundMoney(units.Div(hourNanos))
}

// continues reports whether p extends the audit line without a gap and
// under the same rules.
func continues(line AppliedPenalty, p PricedSlice, ids []RuleID) bool {
	if !line.End.Equal(p.Start) || line.Kind != p.Kind || !line.Multiplier.Equal(p.Multiplier) {
		return false
	}
	if len(line.RuleIDs) != len(ids) {
		return false
	}
	for i := range ids {
		if line.RuleIDs[i] != ids[i] {
			return false
		}
	}
	return true
}

func ruleIDs(rules []AppliedRule) []RuleID {
	ids := make([]RuleID, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

func lineName(p PricedSlice) string {
	names := make([]string, 0, len(p.Rules))
	for _, r := range p.Rules {
		names = append(names, r.Name)
	}
	name := strings.Join(names, " + ")
	if p.Kind == PayOvertime {
		name += " (" + p.Tier.String() + ")"
	}
	return name
}
