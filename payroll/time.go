package payroll

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// LOCAL DATE - Calendar date without a zone
// =============================================================================

// LocalDate is a calendar date as seen in some timezone. It is comparable
// and usable as a map key.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseLocalDate parses YYYY-MM-DD.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d LocalDate) utc() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// Midnight returns the first instant of the date in loc.
func (d LocalDate) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d LocalDate) AddDays(n int) LocalDate   { return DateOf(d.utc().AddDate(0, 0, n)) }
func (d LocalDate) AddMonths(n int) LocalDate { return DateOf(d.utc().AddDate(0, n, 0)) }
func (d LocalDate) Weekday() time.Weekday     { return d.utc().Weekday() }
func (d LocalDate) Before(o LocalDate) bool   { return d.utc().Before(o.utc()) }
func (d LocalDate) After(o LocalDate) bool    { return d.utc().After(o.utc()) }
func (d LocalDate) IsZero() bool              { return d == LocalDate{} }

func (d LocalDate) ISOWeek() (year, week int) { return d.utc().ISOWeek() }

func (d LocalDate) String() string { return d.utc().Format("2006-01-02") }

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b LocalDate) int { return int(b.utc().Sub(a.utc()) / (24 * time.Hour)) }

func StartOfMonth(d LocalDate) LocalDate { return LocalDate{Year: d.Year, Month: d.Month, Day: 1} }
func EndOfMonth(d LocalDate) LocalDate   { return StartOfMonth(d).AddMonths(1).AddDays(-1) }

// =============================================================================
// TIMEZONES
// =============================================================================

// LoadZone resolves an IANA identifier. An empty name is rejected rather
// than silently mapped to UTC.
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &TimezoneError{Name: name}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &TimezoneError{Name: name, Cause: err}
	}
	return loc, nil
}

// wallOffset is the wall-clock time of t measured from its local midnight.
func wallOffset(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// =============================================================================
// TIME OF DAY
// =============================================================================

// TimeOfDay is a local wall-clock time in minutes since midnight. 24:00 is
// allowed as an end-of-day marker.
type TimeOfDay int

const (
	minutesPerDay TimeOfDay = 24 * 60
	EndOfDay                = minutesPerDay
)

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay parses HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int                { return int(t) / 60 }
func (t TimeOfDay) Minute() int              { return int(t) % 60 }
func (t TimeOfDay) Duration() time.Duration  { return time.Duration(t) * time.Minute }
func (t TimeOfDay) String() string           { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

// On returns the instant at which date d reaches t in loc.
func (t TimeOfDay) On(d LocalDate, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

// =============================================================================
// TIME WINDOW - Shared shape of penalty and overtime rules
// =============================================================================

// TimeWindow scopes a rule to [Start, End) on a weekday or on public
// holidays. When End <= Start the window runs past midnight into the next
// day; Start == End is a full 24 hours.
type TimeWindow struct {
	DayOfWeek       time.Weekday
	IsPublicHoliday bool
	Start           TimeOfDay
	End             TimeOfDay
	IsActive        bool
}

func (w TimeWindow) Window() TimeWindow { return w }

func (w TimeWindow) wraps() bool { return w.End <= w.Start }

// span is the window relative to its anchor day's midnight.
func (w TimeWindow) span() (time.Duration, time.Duration) {
	end := w.End
	if w.wraps() {
		end += minutesPerDay
	}
	return w.Start.Duration(), end.Duration()
}

// covers reports whether a window anchored on the same day contains the
// wall-clock offset off.
func (w TimeWindow) covers(off time.Duration) bool {
	start, end := w.span()
	return off >= start && off < end
}

// carries reports whether a window anchored on the previous day reaches
// the wall-clock offset off after midnight.
func (w TimeWindow) carries(off time.Duration) bool {
	if !w.wraps() {
		return false
	}
	start, end := w.span()
	off += 24 * time.Hour
	return off >= start && off < end
}

func (w TimeWindow) validate() error {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return fmt.Errorf("day of week %d out of range", w.DayOfWeek)
	}
	if w.Start < 0 || w.Start >= minutesPerDay {
		return fmt.Errorf("start %s out of range", w.Start)
	}
	if w.End < 0 || w.End > minutesPerDay {
		return fmt.Errorf("end %s out of range", w.End)
	}
	return nil
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week %q", s)
}
