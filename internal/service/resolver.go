package service

import (
	"context"
	"fmt"
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/observability"
)

// ResolveCurrentActivity возвращает активность, слот которой содержит now, либо nil.
// При пересекающихся слотах берётся первая в порядке недели, конфликт не разрешается.
func (s *ScheduleService) ResolveCurrentActivity(ctx context.Context, now time.Time) (*schedule.Activity, error) {
	activities, err := s.repo.ListActiveActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение расписания: %w", err)
	}
	return s.currentOf(activities, now), nil
}

func (s *ScheduleService) currentOf(activities []*schedule.Activity, now time.Time) *schedule.Activity {
	day, at := schedule.Moment(now, s.location)
	for _, activity := range activities {
		if !activity.Active {
			continue
		}
		if activity.Slot.IsActiveAt(day, at) {
			observability.RecordResolution(true)
			return activity
		}
	}
	observability.RecordResolution(false)
	return nil
}

type DaySchedule struct {
	Day        time.Weekday
	Activities []*schedule.Activity
}

// Timetable - всё, что нужно странице расписания
type Timetable struct {
	Days           []DaySchedule
	Current        *schedule.Activity
	ActiveSession  *schedule.Session
	TodaysSessions []*schedule.Session
	Now            time.Time
}

func (s *ScheduleService) Timetable(ctx context.Context, now time.Time) (*Timetable, error) {
	activities, err := s.ListActivities(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}

	todays, err := s.ListSessionsForDay(ctx, now)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Weekday][]*schedule.Activity, len(schedule.Days))
	for _, activity := range activities {
		byDay[activity.Slot.Day] = append(byDay[activity.Slot.Day], activity)
	}

	days := make([]DaySchedule, 0, len(schedule.Days))
	for _, day := range schedule.Days {
		days = append(days, DaySchedule{Day: day, Activities: byDay[day]})
	}

	return &Timetable{
		Days:           days,
		Current:        s.currentOf(activities, now),
		ActiveSession:  active,
		TodaysSessions: todays,
		Now:            now.In(s.location),
	}, nil
}
