package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

// длина недельного цикла в минутах
const MinutesPerWeek = 7 * MinutesPerDay

// Clock - время суток с точностью до минуты (минуты от полуночи)
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockOf отбрасывает секунды: в сравнениях участвуют только часы и минуты
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	// "09:30:00" из колонок TIME тоже допустим, секунды игнорируются
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}

	return NewClock(hour, minute), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Days - канонический порядок недели, Sunday=0 ... Saturday=6 (совпадает с time.Weekday)
var Days = []time.Weekday{
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
}

func ParseDay(value string) (time.Weekday, error) {
	value = strings.TrimSpace(value)
	for _, day := range Days {
		if strings.EqualFold(day.String(), value) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q: expected an English weekday name", value)
}

func ValidDay(day time.Weekday) bool {
	return day >= time.Sunday && day <= time.Saturday
}

// WeeklySlot - день недели и диапазон времени, без поведения
type WeeklySlot struct {
	Day   time.Weekday
	Start Clock
	End   Clock
}

// IndexKey отображает (день, время) на прямую недели: day*1440 + minutes.
// Все сравнения вхождений идут только через этот ключ.
func IndexKey(day time.Weekday, at Clock) int {
	return int(day)*MinutesPerDay + int(at)
}

func (s WeeklySlot) Key() int {
	return IndexKey(s.Day, s.Start)
}

// IsActiveAt включает обе границы: start и end считаются "текущими"
func (s WeeklySlot) IsActiveAt(day time.Weekday, at Clock) bool {
	return s.Day == day && s.Start <= at && at <= s.End
}

func (s WeeklySlot) Validate() error {
	if !ValidDay(s.Day) {
		return fmt.Errorf("day out of range: %d", s.Day)
	}
	if !s.Start.Valid() || !s.End.Valid() {
		return fmt.Errorf("time of day out of range")
	}
	if s.Start >= s.End {
		return fmt.Errorf("start %s must be before end %s", s.Start, s.End)
	}
	return nil
}

// Moment переводит момент времени в (день, время суток) в заданной зоне
func Moment(now time.Time, loc *time.Location) (time.Weekday, Clock) {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Weekday(), ClockOf(now)
}
