// Package timeslot models calendar dates, times of day and hourly intervals.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DateLayout = "2006-01-02"

	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
// 24:00 is allowed as an exclusive end of day.
type TimeOfDay int

// FromHour returns the TimeOfDay at the top of hour h.
func FromHour(h int) TimeOfDay {
	return TimeOfDay(h * minutesPerHour)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("time %q must be HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 {
		return 0, fmt.Errorf("time %q has an invalid hour", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", raw)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("time %q must not carry seconds", raw)
	}
	value := TimeOfDay(hour*minutesPerHour + minute)
	if hour < 0 || value > minutesPerDay {
		return 0, fmt.Errorf("time %q is out of range", raw)
	}
	return value, nil
}

// MustParseTimeOfDay panics on malformed input. Intended for constants and tests.
func MustParseTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/minutesPerHour, int(t)%minutesPerHour)
}

func (t TimeOfDay) Hour() int {
	return int(t) / minutesPerHour
}

func (t TimeOfDay) IsWholeHour() bool {
	return int(t)%minutesPerHour == 0
}

// AddHours returns t shifted by n hours.
func (t TimeOfDay) AddHours(n int) TimeOfDay {
	return t + TimeOfDay(n*minutesPerHour)
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseInterval parses a start and end pair.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

func (i Interval) Valid() bool {
	return i.Start >= 0 && i.Start < i.End && i.End <= minutesPerDay
}

// Overlaps reports s1 < e2 && s2 < e1.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.End-i.Start) * time.Minute
}

// WholeHours reports whether both bounds sit on the hour.
func (i Interval) WholeHours() bool {
	return i.Start.IsWholeHour() && i.End.IsWholeHour()
}

// HourCount is the number of hourly slots the interval spans.
func (i Interval) HourCount() int {
	if !i.Valid() {
		return 0
	}
	return int(i.End-i.Start) / minutesPerHour
}

// Hours lists the hourly sub-intervals of i. A trailing partial hour is dropped.
func (i Interval) Hours() []Interval {
	if !i.Valid() {
		return nil
	}
	hours := make([]Interval, 0, i.HourCount())
	for start := i.Start; start.AddHours(1) <= i.End; start = start.AddHours(1) {
		hours = append(hours, Interval{Start: start, End: start.AddHours(1)})
	}
	return hours
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
	}
	return d, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Date normalizes t to midnight UTC of its calendar date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Dates lists each calendar date in [from, to]. Returns nil when to < from.
func Dates(from, to time.Time) []time.Time {
	from, to = Date(from), Date(to)
	if to.Before(from) {
		return nil
	}
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DaysBetween counts the calendar days in [from, to].
func DaysBetween(from, to time.Time) int {
	from, to = Date(from), Date(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseWeekday accepts an English weekday name in any case ("monday", "Sunday").
func ParseWeekday(name string) (time.Weekday, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.ToLower(wd.String()) == normalized {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// At returns the instant of date+t in loc.
func At(date time.Time, t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), int(t)%minutesPerHour, 0, 0, loc)
}

// LoadLocation resolves an IANA zone name, falling back to UTC for empty input.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
