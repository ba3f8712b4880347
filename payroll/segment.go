package payroll

import (
	"sort"
	"time"
)

// =============================================================================
// SLICE - Atomic piece of worked time
// =============================================================================

// Slice lies inside one local calendar day and has a single set of
// applicable rules for its whole duration.
type Slice struct {
	Start   time.Time
	End     time.Time
	Date    LocalDate
	Weekday time.Weekday

	// wall-clock offset of Start from the local midnight of Date
	offset time.Duration
}

func (s Slice) Duration() time.Duration { return s.End.Sub(s.Start) }

// Offset is the local wall-clock time at which the slice starts.
func (s Slice) Offset() time.Duration { return s.offset }

// sub narrows the slice to [start, end), which must lie inside it.
func (s Slice) sub(start, end time.Time) Slice {
	return Slice{
		Start:   start,
		End:     end,
		Date:    s.Date,
		Weekday: s.Weekday,
		offset:  s.offset + start.Sub(s.Start),
	}
}

// =============================================================================
// SEGMENTER
// =============================================================================

type interval struct {
	start time.Time
	end   time.Time
}

// workedIntervals subtracts breaks from the shift.
func workedIntervals(shift Shift) []interval {
	var out []interval
	cur := shift.Start
	for _, b := range shift.sortedBreaks() {
		if b.Start.After(cur) {
			out = append(out, interval{start: cur, end: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
	}
	if shift.End.After(cur) {
		out = append(out, interval{start: cur, end: shift.End})
	}
	return out
}

// Segment splits the worked time of a shift into slices. Each worked
// interval is cut at every local midnight in loc, then at every
// time-of-day boundary of an active rule that can apply on that day,
// including windows carried over from the previous day. Zero-length
// slices are dropped. The shift must already be valid.
func Segment(shift Shift, guide PayGuide, loc *time.Location, cal HolidayCalendar) []Slice {
	windows := activeWindows(guide)

	var slices []Slice
	for _, iv := range workedIntervals(shift) {
		cur := iv.start
		for cur.Before(iv.end) {
			date := DateOf(cur.In(loc))
			dayEnd := nextMidnight(date, loc, cur)
			if dayEnd.After(iv.end) {
				dayEnd = iv.end
			}

			from := cur
			for _, cut := range ruleBoundaries(date, loc, windows, cal) {
				if !cut.After(from) || !cut.Before(dayEnd) {
					continue
				}
				slices = appendSlice(slices, from, cut, date, loc)
				from = cut
			}
			slices = appendSlice(slices, from, dayEnd, date, loc)
			cur = dayEnd
		}
	}
	return slices
}

// nextMidnight is the start of the day after d. Zones that skip midnight
// may resolve it to an instant before `after`; step forward until it isn't.
func nextMidnight(d LocalDate, loc *time.Location, after time.Time) time.Time {
	next := d.AddDays(1).Midnight(loc)
	for !next.After(after) {
		next = next.Add(time.Hour)
	}
	return next
}

func appendSlice(slices []Slice, start, end time.Time, date LocalDate, loc *time.Location) []Slice {
	if !end.After(start) {
		return slices
	}
	return append(slices, Slice{
		Start:   start,
		End:     end,
		Date:    date,
		Weekday: date.Weekday(),
		offset:  wallOffset(start.In(loc)),
	})
}

func activeWindows(guide PayGuide) []TimeWindow {
	var windows []TimeWindow
	for _, p := range guide.PenaltyTimeFrames {
		if p.IsActive {
			windows = append(windows, p.Window())
		}
	}
	for _, o := range guide.OvertimeTimeFrames {
		if o.IsActive {
			windows = append(windows, o.Window())
		}
	}
	return windows
}

// ruleBoundaries returns the sorted instants on date d at which some
// relevant window opens or closes. Boundaries are found per stretch of
// constant UTC offset: a boundary skipped by a spring-forward gap falls on
// the transition itself, and one repeated by a fall-back overlap is cut at
// both occurrences. Transitions are cut too, so no slice spans a jump in
// the wall clock.
func ruleBoundaries(d LocalDate, loc *time.Location, windows []TimeWindow, cal HolidayCalendar) []time.Time {
	var marks []TimeOfDay
	for _, w := range windows {
		if relevantOn(w, d, cal) {
			marks = append(marks, w.Start, w.End)
		}
	}
	if len(marks) == 0 {
		return nil
	}

	var cuts []time.Time
	for i, span := range wallSpans(d, loc) {
		if i > 0 {
			cuts = append(cuts, span.start)
		}
		wall := wallOffset(span.start.In(loc))
		for _, m := range marks {
			cut := span.start.Add(m.Duration() - wall)
			if !cut.Before(span.start) && cut.Before(span.end) {
				cuts = append(cuts, cut)
			}
		}
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Before(cuts[j]) })
	return cuts
}

// wallSpans splits local date d into stretches with a single UTC offset.
func wallSpans(d LocalDate, loc *time.Location) []interval {
	start := d.Midnight(loc)
	end := nextMidnight(d, loc, start)

	var spans []interval
	for cur := start; cur.Before(end); {
		next := end
		if _, zoneEnd := cur.ZoneBounds(); !zoneEnd.IsZero() && zoneEnd.Before(end) {
			next = zoneEnd
		}
		spans = append(spans, interval{start: cur, end: next})
		cur = next
	}
	return spans
}

// relevantOn reports whether w can cover any part of date d, either
// anchored on d itself or carried over midnight from the day before.
func relevantOn(w TimeWindow, d LocalDate, cal HolidayCalendar) bool {
	prev := d.AddDays(-1)
	if w.IsPublicHoliday {
		return isHoliday(cal, d) || (w.wraps() && isHoliday(cal, prev))
	}
	return w.DayOfWeek == d.Weekday() || (w.wraps() && w.DayOfWeek == prev.Weekday())
}
