package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"timetable/internal/migrations"
	"timetable/internal/models/schedule"
	"timetable/internal/repository"
	"timetable/internal/repository/postgres"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  *postgrescontainer.PostgresContainer
	storage    *postgres.Storage
	ctx        context.Context
	connString string
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgrescontainer.Run(s.ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("timetable"),
		postgrescontainer.WithUsername("test"),
		postgrescontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(s.T(), err)
	s.container = container

	s.connString, err = container.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), migrations.Up(s.connString))

	s.storage, err = postgres.New(s.ctx, s.connString)
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "TRUNCATE sessions, tasks, activities")
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) createActivity(name string, day time.Weekday, start, end schedule.Clock) *schedule.Activity {
	activity := &schedule.Activity{
		ID:     uuid.New(),
		Name:   name,
		Slot:   schedule.WeeklySlot{Day: day, Start: start, End: end},
		Active: true,
	}
	require.NoError(s.T(), s.storage.CreateActivity(s.ctx, activity))
	return activity
}

func (s *PostgresTestSuite) TestActivities() {
	late := s.createActivity("Gym", time.Wednesday, schedule.NewClock(18, 0), schedule.NewClock(19, 0))
	early := s.createActivity("Gym", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))
	other := s.createActivity("Reading", time.Sunday, schedule.NewClock(21, 0), schedule.NewClock(22, 0))

	activities, err := s.storage.ListActiveActivities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 3)
	s.Equal(other.ID, activities[0].ID)
	s.Equal(early.ID, activities[1].ID)
	s.Equal(late.ID, activities[2].ID)
	s.Equal(schedule.NewClock(7, 0), activities[1].Slot.Start)
	s.Equal(time.Monday, activities[1].Slot.Day)

	byName, err := s.storage.FindActivitiesByName(s.ctx, "Gym")
	s.Require().NoError(err)
	s.Len(byName, 2)

	_, err = s.storage.FindActivityByID(s.ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestUpdateActivity_VersionConflict() {
	activity := s.createActivity("Gym", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))

	first, err := s.storage.FindActivityByID(s.ctx, activity.ID)
	s.Require().NoError(err)
	stale, err := s.storage.FindActivityByID(s.ctx, activity.ID)
	s.Require().NoError(err)

	first.Active = false
	s.Require().NoError(s.storage.UpdateActivity(s.ctx, first))
	s.Equal(2, first.Version)
	s.NotNil(first.UpdatedAt)

	stale.Name = "Lost"
	s.ErrorIs(s.storage.UpdateActivity(s.ctx, stale), repository.ErrVersionConflict)

	missing := &schedule.Activity{ID: uuid.New(), Version: 1}
	s.ErrorIs(s.storage.UpdateActivity(s.ctx, missing), repository.ErrNotFound)

	active, err := s.storage.ListActiveActivities(s.ctx)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *PostgresTestSuite) TestTasks() {
	activity := s.createActivity("Reading", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))

	task := &schedule.Task{ID: uuid.New(), Description: "Chapter 1", ActivityID: activity.ID}
	s.Require().NoError(s.storage.CreateTask(s.ctx, task))

	found, err := s.storage.FindTaskByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("Chapter 1", found.Description)
	s.Require().NotNil(found.Activity)
	s.Equal("Reading", found.Activity.Name)
	s.Equal(schedule.NewClock(8, 0), found.Activity.Slot.End)

	now := time.Now()
	found.IsDone = true
	found.CompletedAt = &now
	s.Require().NoError(s.storage.UpdateTask(s.ctx, found))

	tasks, err := s.storage.ListTasksByActivity(s.ctx, activity.ID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.True(tasks[0].IsDone)
	s.NotNil(tasks[0].CompletedAt)

	s.Require().NoError(s.storage.DeleteTask(s.ctx, task.ID))
	s.ErrorIs(s.storage.DeleteTask(s.ctx, task.ID), repository.ErrNotFound)

	orphan := &schedule.Task{ID: uuid.New(), Description: "x", ActivityID: uuid.New()}
	s.ErrorIs(s.storage.CreateTask(s.ctx, orphan), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestSessions_UniqueOpen() {
	activity := s.createActivity("Gym", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))
	now := time.Now()

	first := &schedule.Session{ID: uuid.New(), ActivityID: activity.ID, SessionDate: now, ActualStartTime: now}
	s.Require().NoError(s.storage.CreateSession(s.ctx, first))

	// индекс срабатывает даже без проверки в сервисе
	second := &schedule.Session{ID: uuid.New(), ActivityID: activity.ID, SessionDate: now, ActualStartTime: now}
	s.ErrorIs(s.storage.CreateSession(s.ctx, second), repository.ErrOpenSessionExists)

	open, err := s.storage.FindOpenSession(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(open)
	s.Equal(first.ID, open.ID)

	end := now.Add(time.Hour)
	notes := "ok"
	open.ActualEndTime = &end
	open.Learnings = "form"
	open.Notes = &notes
	open.Completed = true
	s.Require().NoError(s.storage.SaveSession(s.ctx, open))

	open, err = s.storage.FindOpenSession(s.ctx)
	s.Require().NoError(err)
	s.Nil(open)

	s.Require().NoError(s.storage.CreateSession(s.ctx, second))

	sessions, err := s.storage.ListSessionsBetween(s.ctx, now.Add(-time.Minute), now.Add(time.Minute))
	s.Require().NoError(err)
	s.Len(sessions, 2)
}

func (s *PostgresTestSuite) TestWithinTx_Rollback() {
	activity := s.createActivity("Gym", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))
	task := &schedule.Task{ID: uuid.New(), Description: "gone", ActivityID: activity.ID}
	boom := errors.New("boom")

	err := s.storage.WithinTx(s.ctx, func(ctx context.Context, tx service.Repository) error {
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.storage.FindTaskByID(s.ctx, task.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestCarryForward_EndToEnd() {
	svc := service.NewScheduleService(s.storage, service.WithLocation(time.UTC))

	monday := s.createActivity("Gym", time.Monday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))
	friday := s.createActivity("Gym", time.Friday, schedule.NewClock(7, 0), schedule.NewClock(8, 0))

	task, err := svc.CreateTask(s.ctx, friday.ID, "Squats")
	s.Require().NoError(err)

	carried, err := svc.CarryForwardTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(monday.ID, carried.ActivityID)
	s.True(carried.Carried)

	_, err = svc.GetTaskByID(s.ctx, task.ID)
	s.True(service.IsCode(err, service.CodeNotFound))
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционные тесты пропущены в режиме -short")
	}
	suite.Run(t, new(PostgresTestSuite))
}
