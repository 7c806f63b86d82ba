package service

import (
	"context"
	"time"
	"timetable/internal/models/schedule"

	"github.com/google/uuid"
)

// Repository - хранилище расписания. Ошибки "не найдено" возвращаются как repository.ErrNotFound.
type Repository interface {
	HealthCheck(context.Context) error

	// WithinTx выполняет fn как одну логическую единицу работы: либо всё, либо ничего
	WithinTx(context.Context, func(context.Context, Repository) error) error

	// только active=true, в порядке schedule.Less: ключ недели, CreatedAt, id
	ListActiveActivities(context.Context) ([]*schedule.Activity, error)
	FindActivityByID(context.Context, uuid.UUID) (*schedule.Activity, error)
	// только active=true с точным совпадением имени
	FindActivitiesByName(context.Context, string) ([]*schedule.Activity, error)
	CreateActivity(context.Context, *schedule.Activity) error
	UpdateActivity(context.Context, *schedule.Activity) error

	// Task.Activity заполнен
	FindTaskByID(context.Context, uuid.UUID) (*schedule.Task, error)
	ListTasksByActivity(context.Context, uuid.UUID) ([]*schedule.Task, error)
	CreateTask(context.Context, *schedule.Task) error
	UpdateTask(context.Context, *schedule.Task) error
	DeleteTask(context.Context, uuid.UUID) error

	CreateSession(context.Context, *schedule.Session) error
	FindSessionByID(context.Context, uuid.UUID) (*schedule.Session, error)
	SaveSession(context.Context, *schedule.Session) error
	// последняя созданная незавершённая сессия или nil, nil
	FindOpenSession(context.Context) (*schedule.Session, error)
	ListSessionsBetween(ctx context.Context, from, to time.Time) ([]*schedule.Session, error)
}
