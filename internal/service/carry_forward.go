package service

import (
	"context"
	"timetable/internal/events"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	"timetable/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// nextOccurrence выбирает кандидата с наименьшим ключом строго больше ключа origin,
// а если такого нет - самое раннее вхождение недели (переход на следующую неделю).
// Равные ключи разрешаются через schedule.Less: раньше созданная, затем меньший id.
func nextOccurrence(origin *schedule.Activity, candidates []*schedule.Activity) (target *schedule.Activity, wrapped bool) {
	current := origin.Key()

	var next, earliest *schedule.Activity
	for _, candidate := range candidates {
		// имя - ключ связи вхождений одной рутины
		if !candidate.Active || candidate.Name != origin.Name {
			continue
		}
		if earliest == nil || schedule.Less(candidate, earliest) {
			earliest = candidate
		}
		if candidate.Key() > current && (next == nil || schedule.Less(candidate, next)) {
			next = candidate
		}
	}

	if next != nil {
		return next, false
	}
	return earliest, earliest != nil
}

// CarryForwardTask переносит незавершённую задачу на следующее вхождение рутины с тем же именем.
// Исходная задача удаляется, новая создаётся с carried=true; всё в одной транзакции.
func (s *ScheduleService) CarryForwardTask(ctx context.Context, taskID uuid.UUID) (*schedule.Task, error) {
	var (
		original *schedule.Task
		origin   *schedule.Activity
		carried  *schedule.Task
		wrapped  bool
	)

	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		original, err = repo.FindTaskByID(ctx, taskID)
		if err != nil {
			return storageError(err, ResourceTask, taskID, "получение задачи")
		}

		origin = original.Activity
		if origin == nil {
			origin, err = repo.FindActivityByID(ctx, original.ActivityID)
			if err != nil {
				return storageError(err, ResourceActivity, original.ActivityID, "получение активности")
			}
		}

		if original.IsDone {
			return NewInvalidState("выполненную задачу нельзя перенести",
				ToDetail("task_id", taskID.String()))
		}

		candidates, err := repo.FindActivitiesByName(ctx, origin.Name)
		if err != nil {
			return storageError(err, ResourceActivity, origin.ID, "поиск вхождений рутины")
		}

		var target *schedule.Activity
		target, wrapped = nextOccurrence(origin, candidates)
		if target == nil {
			notFound := NewNotFound(ResourceActivity, origin.Name)
			notFound.Details["reason"] = "no_active_occurrence"
			return notFound
		}

		carried = &schedule.Task{
			ID:          uuid.New(),
			Description: original.Description,
			Carried:     true,
			ActivityID:  target.ID,
			CreatedAt:   s.now(),
			Activity:    target,
		}

		// сначала создаём, потом удаляем: содержимое задачи не теряется
		if err := repo.CreateTask(ctx, carried); err != nil {
			return storageError(err, ResourceTask, carried.ID, "создание перенесённой задачи")
		}
		if err := repo.DeleteTask(ctx, original.ID); err != nil {
			return storageError(err, ResourceTask, original.ID, "удаление исходной задачи")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordCarryForward(wrapped)
	logger.Info("Service: Задача перенесена",
		zap.String("task_id", taskID.String()),
		zap.String("new_task_id", carried.ID.String()),
		zap.String("from_activity_id", origin.ID.String()),
		zap.String("to_activity_id", carried.ActivityID.String()),
		zap.Bool("wrapped", wrapped))

	s.publish(ctx, events.New(events.TaskCarried, carried.ID, carried.CreatedAt, events.TaskCarriedPayload{
		OriginalTaskID: original.ID,
		NewTaskID:      carried.ID,
		FromActivityID: origin.ID,
		ToActivityID:   carried.ActivityID,
		Wrapped:        wrapped,
		Description:    carried.Description,
	}))

	return carried, nil
}
