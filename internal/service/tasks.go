package service

import (
	"context"
	"fmt"
	"strings"
	"timetable/internal/events"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *ScheduleService) CreateTask(ctx context.Context, activityID uuid.UUID, description string) (*schedule.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, NewValidationError("description", "описание не может быть пустым")
	}

	var task *schedule.Task
	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		activity, err := repo.FindActivityByID(ctx, activityID)
		if err != nil {
			return storageError(err, ResourceActivity, activityID, "получение активности")
		}
		if !activity.Active {
			return NewInvalidState("активность удалена", ToDetail("activity_id", activityID.String()))
		}

		task = &schedule.Task{
			ID:          uuid.New(),
			Description: description,
			ActivityID:  activityID,
			CreatedAt:   s.now(),
			Activity:    activity,
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			return storageError(err, ResourceTask, task.ID, "создание задачи")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", task.ID.String()),
		zap.String("activity_id", activityID.String()))
	return task, nil
}

func (s *ScheduleService) GetTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	task, err := s.repo.FindTaskByID(ctx, id)
	if err != nil {
		return nil, storageError(err, ResourceTask, id, "получение задачи")
	}
	return task, nil
}

func (s *ScheduleService) ListTasks(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error) {
	if _, err := s.repo.FindActivityByID(ctx, activityID); err != nil {
		return nil, storageError(err, ResourceActivity, activityID, "получение активности")
	}

	tasks, err := s.repo.ListTasksByActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// CompleteTask выставляет completedAt ровно один раз - при переходе isDone false -> true
func (s *ScheduleService) CompleteTask(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	var (
		task      *schedule.Task
		completed bool
	)

	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		task, err = repo.FindTaskByID(ctx, id)
		if err != nil {
			return storageError(err, ResourceTask, id, "получение задачи")
		}
		if task.IsDone {
			return nil
		}

		now := s.now()
		task.IsDone = true
		task.CompletedAt = &now
		if err := repo.UpdateTask(ctx, task); err != nil {
			return storageError(err, ResourceTask, id, "обновление задачи")
		}
		completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.publish(ctx, events.New(events.TaskCompleted, task.ID, *task.CompletedAt, events.TaskCompletedPayload{
			TaskID:      task.ID,
			ActivityID:  task.ActivityID,
			CompletedAt: *task.CompletedAt,
		}))
	}
	return task, nil
}

func (s *ScheduleService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return storageError(err, ResourceTask, id, "удаление задачи")
	}
	return nil
}
