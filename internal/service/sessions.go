package service

import (
	"context"
	"fmt"
	"time"
	"timetable/internal/events"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	"timetable/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartSession открывает сессию для активности. Вторая незавершённая сессия не допускается:
// проверка идёт в той же транзакции, что и создание, хранилище дополнительно держит уникальный индекс.
func (s *ScheduleService) StartSession(ctx context.Context, activityID uuid.UUID) (*schedule.Session, error) {
	var session *schedule.Session

	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		activity, err := repo.FindActivityByID(ctx, activityID)
		if err != nil {
			return storageError(err, ResourceActivity, activityID, "получение активности")
		}
		if !activity.Active {
			return NewInvalidState("активность удалена",
				ToDetail("activity_id", activityID.String()))
		}

		open, err := repo.FindOpenSession(ctx)
		if err != nil {
			return fmt.Errorf("поиск открытой сессии: %w", err)
		}
		if open != nil {
			return NewBusinessError(CodeSessionAlreadyOpen, "уже есть незавершённая сессия",
				ToDetail("session_id", open.ID.String()),
				ToDetail("activity_id", open.ActivityID.String()))
		}

		now := s.now()
		session = &schedule.Session{
			ID:              uuid.New(),
			ActivityID:      activityID,
			SessionDate:     now,
			ActualStartTime: now,
			CreatedAt:       now,
		}
		if err := repo.CreateSession(ctx, session); err != nil {
			return storageError(err, ResourceSession, session.ID, "создание сессии")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSessionStarted()
	logger.Info("Service: Сессия начата",
		zap.String("session_id", session.ID.String()),
		zap.String("activity_id", activityID.String()))

	s.publish(ctx, events.New(events.SessionStarted, session.ID, session.ActualStartTime, events.SessionPayload{
		SessionID:  session.ID,
		ActivityID: session.ActivityID,
	}))
	return session, nil
}

// CompleteSession закрывает сессию. Повторное завершение отклоняется, а не перезаписывает данные.
func (s *ScheduleService) CompleteSession(ctx context.Context, sessionID uuid.UUID, learnings string, notes *string) (*schedule.Session, error) {
	var session *schedule.Session

	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		session, err = repo.FindSessionByID(ctx, sessionID)
		if err != nil {
			return storageError(err, ResourceSession, sessionID, "получение сессии")
		}

		if session.Completed {
			return NewInvalidState("сессия уже завершена",
				ToDetail("session_id", sessionID.String()))
		}

		end := s.now()
		session.ActualEndTime = &end
		session.Learnings = learnings
		session.Notes = notes
		session.Completed = true

		if err := repo.SaveSession(ctx, session); err != nil {
			return storageError(err, ResourceSession, sessionID, "сохранение сессии")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSessionCompleted(session.ActualEndTime.Sub(session.ActualStartTime).Seconds())
	logger.Info("Service: Сессия завершена",
		zap.String("session_id", sessionID.String()),
		zap.Duration("duration", session.ActualEndTime.Sub(session.ActualStartTime)))

	s.publish(ctx, events.New(events.SessionCompleted, session.ID, *session.ActualEndTime, events.SessionPayload{
		SessionID:  session.ID,
		ActivityID: session.ActivityID,
		Completed:  true,
	}))
	return session, nil
}

func (s *ScheduleService) GetActiveSession(ctx context.Context) (*schedule.Session, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("поиск открытой сессии: %w", err)
	}
	return session, nil
}

func (s *ScheduleService) GetSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error) {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, storageError(err, ResourceSession, id, "получение сессии")
	}
	return session, nil
}

// ListSessionsForDay - сессии, дата которых приходится на локальные сутки now
func (s *ScheduleService) ListSessionsForDay(ctx context.Context, now time.Time) ([]*schedule.Session, error) {
	local := now.In(s.location)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	to := from.AddDate(0, 0, 1)

	sessions, err := s.repo.ListSessionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("получение сессий за день: %w", err)
	}
	return sessions, nil
}
