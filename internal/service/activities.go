package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityInput - сырые значения из HTTP/CLI/импорта; day - английское название, время - HH:MM
type ActivityInput struct {
	Name      string
	Day       string
	StartTime string
	EndTime   string
}

// ActivityPatch - частичное обновление, nil-поля не меняются
type ActivityPatch struct {
	Name      *string
	Day       *string
	StartTime *string
	EndTime   *string
}

func parseDay(value string) (time.Weekday, error) {
	day, err := schedule.ParseDay(value)
	if err != nil {
		return 0, NewValidationError("day", err.Error())
	}
	return day, nil
}

func parseClock(field, value string) (schedule.Clock, error) {
	clock, err := schedule.ParseClock(value)
	if err != nil {
		return 0, NewValidationError(field, err.Error())
	}
	return clock, nil
}

func validateActivity(activity *schedule.Activity) error {
	if strings.TrimSpace(activity.Name) == "" {
		return NewValidationError("name", "название не может быть пустым")
	}
	if err := activity.Slot.Validate(); err != nil {
		return NewValidationError("end_time", err.Error())
	}
	return nil
}

func (s *ScheduleService) CreateActivity(ctx context.Context, input ActivityInput) (*schedule.Activity, error) {
	day, err := parseDay(input.Day)
	if err != nil {
		return nil, err
	}
	start, err := parseClock("start_time", input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock("end_time", input.EndTime)
	if err != nil {
		return nil, err
	}

	activity := &schedule.Activity{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Slot:      schedule.WeeklySlot{Day: day, Start: start, End: end},
		Active:    true,
		CreatedAt: s.now(),
		Version:   1,
	}
	if err := validateActivity(activity); err != nil {
		return nil, err
	}

	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("создание активности: %w", err)
	}

	logger.Info("Service: Активность создана",
		zap.String("activity_id", activity.ID.String()),
		zap.String("name", activity.Name),
		zap.String("day", activity.Slot.Day.String()))
	return activity, nil
}

func (p ActivityPatch) options() ([]schedule.ActivityOption, error) {
	options := []schedule.ActivityOption{}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, NewValidationError("name", "название не может быть пустым")
		}
		options = append(options, schedule.WithName(name))
	}
	if p.Day != nil {
		day, err := parseDay(*p.Day)
		if err != nil {
			return nil, err
		}
		options = append(options, schedule.WithDay(day))
	}
	if p.StartTime != nil {
		start, err := parseClock("start_time", *p.StartTime)
		if err != nil {
			return nil, err
		}
		options = append(options, schedule.WithStart(start))
	}
	if p.EndTime != nil {
		end, err := parseClock("end_time", *p.EndTime)
		if err != nil {
			return nil, err
		}
		options = append(options, schedule.WithEnd(end))
	}
	return options, nil
}

// UpdateActivity: чтение, изменение и запись в одной транзакции, версия защищает от потерянных обновлений
func (s *ScheduleService) UpdateActivity(ctx context.Context, id uuid.UUID, patch ActivityPatch) (*schedule.Activity, error) {
	options, err := patch.options()
	if err != nil {
		return nil, err
	}

	var activity *schedule.Activity
	err = s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		activity, err = repo.FindActivityByID(ctx, id)
		if err != nil {
			return storageError(err, ResourceActivity, id, "получение активности")
		}
		if !activity.Active {
			return NewInvalidState("активность удалена", ToDetail("activity_id", id.String()))
		}

		for _, opt := range options {
			if opt != nil {
				opt(activity)
			}
		}
		if err := validateActivity(activity); err != nil {
			return err
		}

		if err := repo.UpdateActivity(ctx, activity); err != nil {
			return storageError(err, ResourceActivity, id, "обновление активности")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// DeleteActivity - мягкое удаление: active=false, задачи и сессии остаются
func (s *ScheduleService) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		activity, err := repo.FindActivityByID(ctx, id)
		if err != nil {
			return storageError(err, ResourceActivity, id, "получение активности")
		}
		if !activity.Active {
			return nil
		}

		activity.Active = false
		if err := repo.UpdateActivity(ctx, activity); err != nil {
			return storageError(err, ResourceActivity, id, "удаление активности")
		}

		logger.Info("Service: Активность удалена", zap.String("activity_id", id.String()))
		return nil
	})
}

func (s *ScheduleService) GetActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error) {
	activity, err := s.repo.FindActivityByID(ctx, id)
	if err != nil {
		return nil, storageError(err, ResourceActivity, id, "получение активности")
	}
	return activity, nil
}

// ListActivities - активные вхождения в порядке недели; порядок задаёт репозиторий
func (s *ScheduleService) ListActivities(ctx context.Context) ([]*schedule.Activity, error) {
	activities, err := s.repo.ListActiveActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение расписания: %w", err)
	}
	return activities, nil
}

func (s *ScheduleService) ListActivitiesByDay(ctx context.Context, dayName string) ([]*schedule.Activity, error) {
	day, err := parseDay(dayName)
	if err != nil {
		return nil, err
	}

	activities, err := s.ListActivities(ctx)
	if err != nil {
		return nil, err
	}

	res := []*schedule.Activity{}
	for _, activity := range activities {
		if activity.Slot.Day == day {
			res = append(res, activity)
		}
	}
	return res, nil
}
