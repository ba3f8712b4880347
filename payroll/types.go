/*
Package payroll provides the pay calculation engine.

PURPOSE:
  Given a worked shift and the pay guide that applies to it, compute an
  exact, auditable breakdown of gross pay. The engine is a pure function
  of its inputs: no clock, no I/O, no shared state. Every calculation is
  safe to run concurrently with any other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift / BreakPeriod: the worked interval as UTC instants
  - PayGuide: base rate, timezone, penalty/overtime rules, holidays
  - PenaltyTimeFrame / OvertimeTimeFrame: rules sharing a TimeWindow
  - PayCalculationResult: the breakdown handed back to callers

PIPELINE:
  Shift + PayGuide
    -> Segment     (segment.go)   day- and rule-bounded slices
    -> MatchRates  (match.go)     resolved multiplier per slice
    -> Accumulate  (overtime.go)  regular vs overtime tiers
    -> Aggregate   (aggregate.go) money breakdown
  Calculate (calculate.go) runs the whole pipeline.

  ResolvePayPeriodRange (period.go) is independent of the pipeline.

PRECISION:
  Money and hours are decimal.Decimal. Durations stay exact time.Duration
  values until they are converted to hours for pricing. Money is rounded
  to cents only when slice pay is summed into the breakdown.

SEE ALSO:
  - time.go: LocalDate, TimeOfDay, TimeWindow
  - errors.go: input validation failures
  - period.go: pay period resolution
*/
package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL PRIMITIVES
// =============================================================================

var (
	one       = decimal.NewFromInt(1)
	hourNanos = decimal.NewFromInt(int64(time.Hour))

	// DefaultRegularHours is the regular-hours threshold used when a guide
	// does not configure one.
	DefaultRegularHours = decimal.NewFromInt(8)

	// MaxRegularHours caps a configured threshold at one week, the widest
	// overtime scope.
	MaxRegularHours = decimal.NewFromInt(7 * 24)

	// OvertimeFirstTier is the length of the first overtime tier.
	OvertimeFirstTier = 3 * time.Hour
)

// MoneyPlaces is the currency precision of every amount in a breakdown.
const MoneyPlaces int32 = 2

// Hours converts an exact duration to decimal hours.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(hourNanos)
}

// DurationOf converts decimal hours back to a duration, truncating below
// one nanosecond.
func DurationOf(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(hourNanos).IntPart())
}

// RoundMoney rounds half-up to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type GuideID string
type ShiftID string
type RuleID string

// RuleRef names a rule in audit output.
type RuleRef struct {
	ID   RuleID
	Name string
}

// =============================================================================
// SHIFT - Worked interval
// =============================================================================

// BreakPeriod is an unpaid interval inside a shift.
type BreakPeriod struct {
	Start time.Time
	End   time.Time
}

func (b BreakPeriod) Duration() time.Duration { return b.End.Sub(b.Start) }

// Shift is a worked interval. Breaks may be supplied in any order.
type Shift struct {
	ID     ShiftID
	Start  time.Time
	End    time.Time
	Breaks []BreakPeriod
}

func (s Shift) Duration() time.Duration { return s.End.Sub(s.Start) }

// sortedBreaks returns a copy of the breaks ordered by start.
func (s Shift) sortedBreaks() []BreakPeriod {
	breaks := make([]BreakPeriod, len(s.Breaks))
	copy(breaks, s.Breaks)
	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].Start.Before(breaks[j].Start)
	})
	return breaks
}

// WorkedDuration is the shift duration minus breaks. Only meaningful for a
// shift that passes Validate.
func (s Shift) WorkedDuration() time.Duration {
	d := s.Duration()
	for _, b := range s.Breaks {
		d -= b.Duration()
	}
	return d
}

// =============================================================================
// RULES
// =============================================================================

// WindowRule is implemented by every rule that is scoped to a TimeWindow.
// The matcher works on this interface so penalty and overtime frames share
// one matching path.
type WindowRule interface {
	Window() TimeWindow
	Ref() RuleRef
}

// PenaltyTimeFrame multiplies the base rate inside its window.
type PenaltyTimeFrame struct {
	ID   RuleID
	Name string
	TimeWindow
	Multiplier decimal.Decimal
}

func (p PenaltyTimeFrame) Ref() RuleRef { return RuleRef{ID: p.ID, Name: p.Name} }

// OvertimeTimeFrame marks where worked time accrues toward overtime and
// which tier multipliers apply once the regular threshold is exceeded.
type OvertimeTimeFrame struct {
	ID   RuleID
	Name string
	TimeWindow
	FirstThreeHoursMult decimal.Decimal
	AfterThreeHoursMult decimal.Decimal
}

func (o OvertimeTimeFrame) Ref() RuleRef { return RuleRef{ID: o.ID, Name: o.Name} }

var (
	_ WindowRule = PenaltyTimeFrame{}
	_ WindowRule = OvertimeTimeFrame{}
)

// PublicHoliday is a calendar date, optionally scoped to a state or
// territory. Multiplier applies to the whole day when no holiday penalty
// frame covers the worked time.
type PublicHoliday struct {
	ID             string
	Date           LocalDate
	Name           string
	StateTerritory string
	Multiplier     decimal.Decimal
}

// =============================================================================
// PAY GUIDE
// =============================================================================

// PayGuide is a versioned rule set effective over [EffectiveFrom, EffectiveTo].
type PayGuide struct {
	ID            GuideID
	Name          string
	BaseRate      decimal.Decimal
	Timezone      string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time

	// Advisory bounds. Out-of-bound shifts are priced and flagged, never rejected.
	MinimumShiftHours *decimal.Decimal
	MaximumShiftHours *decimal.Decimal

	AllowPenaltyCombination bool

	// RegularHoursThreshold is the worked time per overtime scope before
	// overtime tiers apply. Zero means DefaultRegularHours.
	RegularHoursThreshold decimal.Decimal

	// StateTerritory is the default jurisdiction for holiday filtering.
	StateTerritory string

	PenaltyTimeFrames  []PenaltyTimeFrame
	OvertimeTimeFrames []OvertimeTimeFrame
	PublicHolidays     []PublicHoliday
}

func (g PayGuide) regularThreshold() time.Duration {
	if g.RegularHoursThreshold.IsZero() {
		return DurationOf(DefaultRegularHours)
	}
	return DurationOf(g.RegularHoursThreshold)
}

// EffectiveAt reports whether t falls inside the guide's effective window.
func (g PayGuide) EffectiveAt(t time.Time) bool {
	if t.Before(g.EffectiveFrom) {
		return false
	}
	return g.EffectiveTo == nil || !t.After(*g.EffectiveTo)
}

// =============================================================================
// RESULT
// =============================================================================

// PayKind is the breakdown bucket a slice of pay lands in.
type PayKind string

const (
	PayBase     PayKind = "base"
	PayPenalty  PayKind = "penalty"
	PayOvertime PayKind = "overtime"
)

// PayBreakdown holds cent-rounded totals. TotalPay is the exact sum of the
// other three.
type PayBreakdown struct {
	BasePay     decimal.Decimal
	OvertimePay decimal.Decimal
	PenaltyPay  decimal.Decimal
	TotalPay    decimal.Decimal
}

// AppliedPenalty is one audit line: a contiguous run of worked time priced
// above the base rate by the same rules.
type AppliedPenalty struct {
	RuleIDs    []RuleID
	Name       string
	Kind       PayKind
	Start      time.Time
	End        time.Time
	Hours      decimal.Decimal
	Pay        decimal.Decimal
	Multiplier decimal.Decimal
}

// PayCalculationResult is produced fresh per call and never mutated.
type PayCalculationResult struct {
	TotalHours       decimal.Decimal
	Breakdown        PayBreakdown
	AppliedPenalties []AppliedPenalty
	Warnings         []string
}
