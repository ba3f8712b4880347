package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/payroll"
)

func segment(t *testing.T, s payroll.Shift, g payroll.PayGuide) []payroll.Slice {
	t.Helper()
	loc, err := payroll.LoadZone(g.Timezone)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	return payroll.Segment(s, g, loc, payroll.NewHolidayCalendar(g.PublicHolidays, g.StateTerritory))
}

func totalDuration(slices []payroll.Slice) time.Duration {
	var d time.Duration
	for _, s := range slices {
		d += s.Duration()
	}
	return d
}

func TestSegment_SplitsAtLocalMidnight(t *testing.T) {
	// GIVEN: Sydney guide, shift Friday 23:00 to Saturday 01:00 local
	// WHEN: Segmenting
	// THEN: Two one-hour slices on consecutive local dates

	syd := zone(t, "Australia/Sydney")
	s := shift(at(syd, 2024, time.June, 14, 23, 0), at(syd, 2024, time.June, 15, 1, 0))

	slices := segment(t, s, baseGuide("Australia/Sydney"))

	require.Len(t, slices, 2)
	assert.Equal(t, payroll.NewLocalDate(2024, time.June, 14), slices[0].Date)
	assert.Equal(t, time.Friday, slices[0].Weekday)
	assert.Equal(t, payroll.NewLocalDate(2024, time.June, 15), slices[1].Date)
	assert.Equal(t, time.Saturday, slices[1].Weekday)
	assert.Equal(t, time.Hour, slices[0].Duration())
	assert.Equal(t, time.Hour, slices[1].Duration())
	assert.Equal(t, time.Duration(0), slices[1].Offset())
}

func TestSegment_SkipsBreaks(t *testing.T) {
	// GIVEN: Two breaks supplied out of order
	// WHEN: Segmenting
	// THEN: Worked time is the gaps between them, in chronological order

	mon := func(h, m int) time.Time { return at(time.UTC, 2024, time.June, 10, h, m) }
	s := shift(mon(9, 0), mon(17, 0),
		payroll.BreakPeriod{Start: mon(15, 0), End: mon(15, 15)},
		payroll.BreakPeriod{Start: mon(12, 0), End: mon(12, 30)},
	)

	slices := segment(t, s, baseGuide("UTC"))

	require.Len(t, slices, 3)
	assert.True(t, slices[0].Start.Equal(mon(9, 0)) && slices[0].End.Equal(mon(12, 0)))
	assert.True(t, slices[1].Start.Equal(mon(12, 30)) && slices[1].End.Equal(mon(15, 0)))
	assert.True(t, slices[2].Start.Equal(mon(15, 15)) && slices[2].End.Equal(mon(17, 0)))
	assert.Equal(t, s.WorkedDuration(), totalDuration(slices))
}

func TestSegment_CutsAtRuleBoundaries(t *testing.T) {
	mon := func(h, m int) time.Time { return at(time.UTC, 2024, time.June, 10, h, m) }
	s := shift(mon(16, 0), mon(23, 0))

	t.Run("relevant rule", func(t *testing.T) {
		g := baseGuide("UTC")
		g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
			penalty("mon-evening", window(time.Monday, "18:00", "22:00"), "1.25"),
		}
		slices := segment(t, s, g)
		require.Len(t, slices, 3)
		assert.True(t, slices[0].End.Equal(mon(18, 0)))
		assert.True(t, slices[1].End.Equal(mon(22, 0)))
		assert.Equal(t, 18*time.Hour, slices[1].Offset())
	})

	t.Run("rule for another day", func(t *testing.T) {
		g := baseGuide("UTC")
		g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
			penalty("sat-evening", window(time.Saturday, "18:00", "22:00"), "1.25"),
		}
		slices := segment(t, s, g)
		require.Len(t, slices, 1)
	})
}

func TestSegment_CutsWhereCarriedWindowEnds(t *testing.T) {
	// GIVEN: Friday night window 22:00-06:00
	// WHEN: Working Saturday 04:00-08:00
	// THEN: Cut at 06:00 where the carried window closes

	g := baseGuide("UTC")
	g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
		penalty("fri-night", window(time.Friday, "22:00", "06:00"), "1.5"),
	}
	s := shift(at(time.UTC, 2024, time.June, 15, 4, 0), at(time.UTC, 2024, time.June, 15, 8, 0))

	slices := segment(t, s, g)

	require.Len(t, slices, 2)
	assert.True(t, slices[0].End.Equal(at(time.UTC, 2024, time.June, 15, 6, 0)))
}

func TestSegment_DaylightSavingTransition(t *testing.T) {
	// GIVEN: Sydney clocks jump from 02:00 to 03:00 on 2024-10-06
	// WHEN: Working Saturday 22:00 to Sunday 06:00 local
	// THEN: Slices sum to the 7 hours actually elapsed

	syd := zone(t, "Australia/Sydney")
	s := shift(at(syd, 2024, time.October, 5, 22, 0), at(syd, 2024, time.October, 6, 6, 0))

	slices := segment(t, s, baseGuide("Australia/Sydney"))

	require.Len(t, slices, 2)
	assert.Equal(t, 2*time.Hour, slices[0].Duration())
	assert.Equal(t, 5*time.Hour, slices[1].Duration())
	assert.Equal(t, 7*time.Hour, totalDuration(slices))
}

func TestSegment_CoversWorkedTimeExactly(t *testing.T) {
	syd := zone(t, "Australia/Sydney")
	g := baseGuide("Australia/Sydney")
	g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
		penalty("weeknight", window(time.Tuesday, "19:00", "07:00"), "1.15"),
		penalty("early", window(time.Wednesday, "05:30", "06:45"), "1.1"),
	}
	s := shift(at(syd, 2024, time.June, 11, 14, 7), at(syd, 2024, time.June, 12, 9, 13),
		payroll.BreakPeriod{Start: at(syd, 2024, time.June, 11, 23, 50), End: at(syd, 2024, time.June, 12, 0, 20)})

	slices := segment(t, s, g)

	assert.Equal(t, s.WorkedDuration(), totalDuration(slices))
	for i := 1; i < len(slices); i++ {
		assert.False(t, slices[i].Start.Before(slices[i-1].End), "slices must not overlap")
	}
	for _, sl := range slices {
		assert.True(t, sl.End.After(sl.Start), "no zero-length slices")
		assert.Equal(t, payroll.DateOf(sl.Start.In(syd)), sl.Date)
	}
}

func TestSegment_BoundaryInSpringForwardGap(t *testing.T) {
	// GIVEN: Sunday 00:00-02:30 at 2x; Sydney skips 02:00-03:00 on 2024-10-06
	// WHEN: Working 01:00 to 04:00 local (two hours elapsed)
	// THEN: The window closes at the transition, after one hour of work

	syd := zone(t, "Australia/Sydney")
	g := baseGuide("Australia/Sydney")
	g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
		penalty("sun-early", window(time.Sunday, "00:00", "02:30"), "2.0"),
	}
	s := shift(at(syd, 2024, time.October, 6, 1, 0), at(syd, 2024, time.October, 6, 4, 0))

	slices := segment(t, s, g)

	require.Len(t, slices, 2)
	assert.Equal(t, time.Hour, slices[0].Duration())
	assert.Equal(t, time.Hour, slices[0].Offset())
	assert.Equal(t, 3*time.Hour, slices[1].Offset())
	assert.Equal(t, 3, slices[1].Start.In(syd).Hour())

	res := calculate(t, s, g)
	assertMoney(t, "50.00", res.Breakdown.PenaltyPay)
	assertMoney(t, "25.00", res.Breakdown.BasePay)
	assertMoney(t, "75.00", res.Breakdown.TotalPay)
	require.Len(t, res.AppliedPenalties, 1)
	assertDecimal(t, "1", res.AppliedPenalties[0].Hours)
}

func TestSegment_BoundaryInFallBackOverlap(t *testing.T) {
	// GIVEN: Sunday 00:00-02:30 at 2x; Sydney repeats 02:00-03:00 on 2024-04-07
	// WHEN: Working 01:00 AEDT to 04:00 AEST (four hours elapsed)
	// THEN: Both passes through 02:00-02:30 are inside the window

	syd := zone(t, "Australia/Sydney")
	g := baseGuide("Australia/Sydney")
	g.PenaltyTimeFrames = []payroll.PenaltyTimeFrame{
		penalty("sun-early", window(time.Sunday, "00:00", "02:30"), "2.0"),
	}
	s := shift(at(syd, 2024, time.April, 7, 1, 0), at(syd, 2024, time.April, 7, 4, 0))
	require.Equal(t, 4*time.Hour, s.Duration())

	slices := segment(t, s, g)

	require.Len(t, slices, 4)
	want := []struct {
		dur    time.Duration
		offset time.Duration
	}{
		{90 * time.Minute, time.Hour},
		{30 * time.Minute, 150 * time.Minute},
		{30 * time.Minute, 2 * time.Hour},
		{90 * time.Minute, 150 * time.Minute},
	}
	for i, w := range want {
		assert.Equal(t, w.dur, slices[i].Duration(), "slice %d", i)
		assert.Equal(t, w.offset, slices[i].Offset(), "slice %d", i)
	}
	assert.Equal(t, 4*time.Hour, totalDuration(slices))

	res := calculate(t, s, g)
	assertMoney(t, "100.00", res.Breakdown.PenaltyPay)
	assertMoney(t, "50.00", res.Breakdown.BasePay)
	assertDecimal(t, "4", res.TotalHours)
}
