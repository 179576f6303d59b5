package calendar

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekID identifies an ISO-8601 week: Monday to Sunday, week 1 holds the year's first Thursday.
type WeekID struct {
	Year int
	Week int
}

func WeekOf(d Date) WeekID {
	y, w := d.Time().ISOWeek()
	return WeekID{Year: y, Week: w}
}

// weeksInYear returns 52 or 53. Dec 28 always falls in the last ISO week of its year.
func weeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

func (w WeekID) Valid() bool {
	return w.Week >= 1 && w.Week <= weeksInYear(w.Year)
}

func (w WeekID) IsZero() bool { return w == WeekID{} }

// Start returns the Monday of w.
func (w WeekID) Start() Date {
	jan4 := NewDate(w.Year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	return jan4.AddDays(-offset + 7*(w.Week-1))
}

// End returns the Sunday of w.
func (w WeekID) End() Date {
	return w.Start().AddDays(6)
}

func (w WeekID) Days() [7]Date {
	var days [7]Date
	start := w.Start()
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

func (w WeekID) Contains(d Date) bool {
	return WeekOf(d) == w
}

func (w WeekID) Next() WeekID { return WeekOf(w.Start().AddDays(7)) }

func (w WeekID) Prev() WeekID { return WeekOf(w.Start().AddDays(-7)) }

func (w WeekID) Before(other WeekID) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

// IsClosed reports whether the week is over as of today; closed weeks must not be rescored.
func (w WeekID) IsClosed(today Date) bool {
	return today.After(w.End())
}

func (w WeekID) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// ParseWeekID parses the `YYYY-Www` form, e.g. 2024-W05.
func ParseWeekID(s string) (WeekID, error) {
	invalid := fmt.Errorf("invalid week %q: expected YYYY-Www", s)
	parts := strings.SplitN(strings.ToUpper(strings.TrimSpace(s)), "-W", 2)
	if len(parts) != 2 {
		return WeekID{}, invalid
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return WeekID{}, invalid
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return WeekID{}, invalid
	}
	w := WeekID{Year: year, Week: week}
	if !w.Valid() {
		return WeekID{}, invalid
	}
	return w, nil
}

func (w WeekID) MarshalText() ([]byte, error) {
	if w.IsZero() {
		return []byte{}, nil
	}
	return []byte(w.String()), nil
}

func (w *WeekID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*w = WeekID{}
		return nil
	}
	parsed, err := ParseWeekID(string(data))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Scan implements sql.Scanner for the text form.
func (w *WeekID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*w = WeekID{}
		return nil
	case []byte:
		return w.UnmarshalText(v)
	case string:
		return w.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("calendar.WeekID: cannot scan %T", value)
	}
}

// Value implements driver.Valuer.
func (w WeekID) Value() (driver.Value, error) {
	if w.IsZero() {
		return nil, nil
	}
	return w.String(), nil
}
