package service_test

import (
	"context"
	"time"
	"timetable/internal/events"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository - мок репозитория
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// WithinTx выполняет fn на самом моке, ожидания задаются по отдельным вызовам
func (m *MockRepository) WithinTx(ctx context.Context, fn func(context.Context, service.Repository) error) error {
	m.Called(ctx)
	return fn(ctx, m)
}

func (m *MockRepository) ListActiveActivities(ctx context.Context) ([]*schedule.Activity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Activity), args.Error(1)
}

func (m *MockRepository) FindActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Activity), args.Error(1)
}

func (m *MockRepository) FindActivitiesByName(ctx context.Context, name string) ([]*schedule.Activity, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Activity), args.Error(1)
}

func (m *MockRepository) CreateActivity(ctx context.Context, a *schedule.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockRepository) UpdateActivity(ctx context.Context, a *schedule.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockRepository) FindTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Task), args.Error(1)
}

func (m *MockRepository) ListTasksByActivity(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error) {
	args := m.Called(ctx, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Task), args.Error(1)
}

func (m *MockRepository) CreateTask(ctx context.Context, t *schedule.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) UpdateTask(ctx context.Context, t *schedule.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateSession(ctx context.Context, s *schedule.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockRepository) FindSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Session), args.Error(1)
}

func (m *MockRepository) SaveSession(ctx context.Context, s *schedule.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockRepository) FindOpenSession(ctx context.Context) (*schedule.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Session), args.Error(1)
}

func (m *MockRepository) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]*schedule.Session, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Session), args.Error(1)
}

var _ service.Repository = (*MockRepository)(nil)

// MockPublisher - мок публикации событий
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
