package schedule

import "time"

type ActivityOption func(*Activity)

func WithName(name string) ActivityOption {
	if name == "" {
		return nil
	}
	return func(a *Activity) {
		a.Name = name
	}
}

func WithDay(day time.Weekday) ActivityOption {
	if !ValidDay(day) {
		return nil
	}
	return func(a *Activity) {
		a.Slot.Day = day
	}
}

func WithStart(start Clock) ActivityOption {
	if !start.Valid() {
		return nil
	}
	return func(a *Activity) {
		a.Slot.Start = start
	}
}

func WithEnd(end Clock) ActivityOption {
	if !end.Valid() {
		return nil
	}
	return func(a *Activity) {
		a.Slot.End = end
	}
}
