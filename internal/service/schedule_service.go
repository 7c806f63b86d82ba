package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"timetable/internal/events"
	"timetable/internal/logger"
	"timetable/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики
type ScheduleService struct {
	repo      Repository
	publisher events.Publisher
	location  *time.Location
	now       func() time.Time
}

type Option func(*ScheduleService)

// WithLocation задаёт единственную зону, в которой считаются день недели и время суток
func WithLocation(loc *time.Location) Option {
	if loc == nil {
		return nil
	}
	return func(s *ScheduleService) {
		s.location = loc
	}
}

func WithPublisher(publisher events.Publisher) Option {
	if publisher == nil {
		return nil
	}
	return func(s *ScheduleService) {
		s.publisher = publisher
	}
}

func WithNow(now func() time.Time) Option {
	if now == nil {
		return nil
	}
	return func(s *ScheduleService) {
		s.now = now
	}
}

func NewScheduleService(repo Repository, options ...Option) *ScheduleService {
	s := &ScheduleService{
		repo:      repo,
		publisher: events.Noop{},
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *ScheduleService) Location() *time.Location {
	return s.location
}

func (s *ScheduleService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// storageError переводит ошибки хранилища в бизнес-ошибки, прочие пробрасывает обёрнутыми
func storageError(err error, resource Resource, id uuid.UUID, operation string) error {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		logger.Info("Service: Запись не найдена",
			zap.String("resource", string(resource)),
			zap.String("target_id", id.String()))
		notFound := NewNotFound(resource, id.String())
		notFound.Err = err
		return notFound
	case errors.Is(err, repository.ErrVersionConflict):
		conflict := NewBusinessError(CodeVersionConflict, fmt.Sprintf("%s %s была изменена параллельно", resource, id),
			ToDetail("resource", resource),
			ToDetail("id", id.String()))
		conflict.Err = err
		return conflict
	case errors.Is(err, repository.ErrOpenSessionExists):
		open := NewBusinessError(CodeSessionAlreadyOpen, "уже есть незавершённая сессия")
		open.Err = err
		return open
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// publish отправляет событие после фиксации; ошибка не отменяет операцию
func (s *ScheduleService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Service: Событие не отправлено",
			zap.String("event_type", string(event.Type)),
			zap.String("aggregate_id", event.AggregateID.String()),
			zap.Error(err))
	}
}
