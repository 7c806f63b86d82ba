package handlers

import (
	"context"
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/google/uuid"
)

// Service - то, что HTTP-слою нужно от service.ScheduleService
type Service interface {
	HealthCheck(ctx context.Context) error
	Location() *time.Location

	Timetable(ctx context.Context, now time.Time) (*service.Timetable, error)
	ResolveCurrentActivity(ctx context.Context, now time.Time) (*schedule.Activity, error)

	CreateActivity(ctx context.Context, input service.ActivityInput) (*schedule.Activity, error)
	UpdateActivity(ctx context.Context, id uuid.UUID, patch service.ActivityPatch) (*schedule.Activity, error)
	DeleteActivity(ctx context.Context, id uuid.UUID) error
	GetActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error)
	ListActivities(ctx context.Context) ([]*schedule.Activity, error)
	ListActivitiesByDay(ctx context.Context, day string) ([]*schedule.Activity, error)

	CreateTask(ctx context.Context, activityID uuid.UUID, description string) (*schedule.Task, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error)
	ListTasks(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID) (*schedule.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	CarryForwardTask(ctx context.Context, id uuid.UUID) (*schedule.Task, error)

	StartSession(ctx context.Context, activityID uuid.UUID) (*schedule.Session, error)
	CompleteSession(ctx context.Context, id uuid.UUID, learnings string, notes *string) (*schedule.Session, error)
	GetActiveSession(ctx context.Context) (*schedule.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error)
}

var _ Service = (*service.ScheduleService)(nil)
