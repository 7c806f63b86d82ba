package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/repository/inmemory"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	storage *inmemory.Storage
	svc     *service.ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	storage := inmemory.NewStorage()
	return &fixture{
		storage: storage,
		svc: service.NewScheduleService(storage,
			service.WithLocation(time.UTC),
			service.WithNow(func() time.Time { return fixedNow })),
	}
}

// addAt создаёт активность с ключом недели key
func (f *fixture) addAt(t *testing.T, name string, key int) *schedule.Activity {
	t.Helper()
	return f.addCreatedAt(t, name, key, fixedNow)
}

func (f *fixture) addCreatedAt(t *testing.T, name string, key int, createdAt time.Time) *schedule.Activity {
	t.Helper()
	day := time.Weekday(key / schedule.MinutesPerDay)
	start := schedule.Clock(key % schedule.MinutesPerDay)
	activity := &schedule.Activity{
		ID:        uuid.New(),
		Name:      name,
		Slot:      schedule.WeeklySlot{Day: day, Start: start, End: start + 30},
		Active:    true,
		CreatedAt: createdAt,
		Version:   1,
	}
	require.NoError(t, f.storage.CreateActivity(context.Background(), activity))
	return activity
}

func (f *fixture) addTask(t *testing.T, activity *schedule.Activity, description string) *schedule.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), activity.ID, description)
	require.NoError(t, err)
	return task
}

// TestCarryForwardTask тестирует выбор следующего вхождения
func TestCarryForwardTask(t *testing.T) {
	tests := []struct {
		name      string
		keys      []int
		originIdx int
		targetIdx int
	}{
		{name: "first moves to second", keys: []int{100, 500, 900}, originIdx: 0, targetIdx: 1},
		{name: "middle moves to last", keys: []int{100, 500, 900}, originIdx: 1, targetIdx: 2},
		{name: "last wraps to first", keys: []int{100, 500, 900}, originIdx: 2, targetIdx: 0},
		{name: "singleton stays in place", keys: []int{500}, originIdx: 0, targetIdx: 0},
		{name: "insertion order does not matter", keys: []int{900, 100, 500}, originIdx: 1, targetIdx: 2},
		{name: "across days", keys: []int{schedule.IndexKey(time.Saturday, 600), schedule.IndexKey(time.Monday, 420)}, originIdx: 0, targetIdx: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			activities := make([]*schedule.Activity, 0, len(tt.keys))
			for _, key := range tt.keys {
				activities = append(activities, f.addAt(t, "Gym", key))
			}
			// другая рутина не должна попадать в кандидаты
			f.addAt(t, "Reading", tt.keys[tt.originIdx]+1)

			original := f.addTask(t, activities[tt.originIdx], "Squats 5x5")

			carried, err := f.svc.CarryForwardTask(ctx, original.ID)
			require.NoError(t, err)

			assert.Equal(t, activities[tt.targetIdx].ID, carried.ActivityID)
			assert.True(t, carried.Carried)
			assert.False(t, carried.IsDone)
			assert.Equal(t, "Squats 5x5", carried.Description)
			assert.NotEqual(t, original.ID, carried.ID)

			_, err = f.svc.GetTaskByID(ctx, original.ID)
			assert.True(t, service.IsCode(err, service.CodeNotFound))

			// ровно одна задача с этим описанием по всем вхождениям
			count := 0
			for _, activity := range activities {
				tasks, err := f.svc.ListTasks(ctx, activity.ID)
				require.NoError(t, err)
				for _, task := range tasks {
					if task.Description == "Squats 5x5" {
						count++
						assert.True(t, task.Carried)
					}
				}
			}
			assert.Equal(t, 1, count)
		})
	}
}

// TestCarryForwardTask_TieBreak проверяет равные ключи: раньше созданная, затем меньший id
func TestCarryForwardTask_TieBreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	origin := f.addAt(t, "Gym", 100)
	later := f.addCreatedAt(t, "Gym", 500, fixedNow.Add(time.Minute))
	earlier := f.addCreatedAt(t, "Gym", 500, fixedNow.Add(-time.Minute))
	require.NotEqual(t, later.ID, earlier.ID)

	task := f.addTask(t, origin, "Deadlift")
	carried, err := f.svc.CarryForwardTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, carried.ActivityID)
}

// TestCarryForwardTask_Errors тестирует ошибочные сценарии
func TestCarryForwardTask_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("task not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CarryForwardTask(ctx, uuid.New())
		assertCode(t, err, service.CodeNotFound)
	})

	t.Run("done task rejected", func(t *testing.T) {
		f := newFixture(t)
		origin := f.addAt(t, "Gym", 100)
		f.addAt(t, "Gym", 500)
		task := f.addTask(t, origin, "Bench")

		_, err := f.svc.CompleteTask(ctx, task.ID)
		require.NoError(t, err)

		_, err = f.svc.CarryForwardTask(ctx, task.ID)
		assertCode(t, err, service.CodeInvalidState)

		stored, err := f.svc.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, origin.ID, stored.ActivityID)
	})

	t.Run("no active occurrence", func(t *testing.T) {
		f := newFixture(t)
		origin := f.addAt(t, "Gym", 100)
		task := f.addTask(t, origin, "Rows")

		require.NoError(t, f.svc.DeleteActivity(ctx, origin.ID))

		_, err := f.svc.CarryForwardTask(ctx, task.ID)
		assertCode(t, err, service.CodeNotFound)
		var busErr *service.BusinessError
		require.True(t, errors.As(err, &busErr))
		assert.Equal(t, "no_active_occurrence", busErr.Details["reason"])

		// исходная задача на месте
		stored, err := f.svc.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, stored.Carried)
	})

	t.Run("inactive origin still carries to an active occurrence", func(t *testing.T) {
		f := newFixture(t)
		origin := f.addAt(t, "Gym", 100)
		target := f.addAt(t, "Gym", 50)
		task := f.addTask(t, origin, "Pullups")

		require.NoError(t, f.svc.DeleteActivity(ctx, origin.ID))

		carried, err := f.svc.CarryForwardTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, target.ID, carried.ActivityID)
	})
}

// TestCarryForwardTask_RollbackOnDeleteFailure проверяет атомарность переноса
func TestCarryForwardTask_RollbackOnDeleteFailure(t *testing.T) {
	origin := activeActivity("Gym", time.Sunday, schedule.NewClock(1, 0), schedule.NewClock(2, 0))
	target := activeActivity("Gym", time.Monday, schedule.NewClock(1, 0), schedule.NewClock(2, 0))
	task := &schedule.Task{ID: uuid.New(), Description: "Squats", ActivityID: origin.ID, Activity: origin}

	mockRepo := new(MockRepository)
	mockRepo.On("WithinTx", mock.Anything).Return()
	mockRepo.On("FindTaskByID", mock.Anything, task.ID).Return(task, nil)
	mockRepo.On("FindActivitiesByName", mock.Anything, "Gym").Return([]*schedule.Activity{origin, target}, nil)
	mockRepo.On("CreateTask", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("DeleteTask", mock.Anything, task.ID).Return(errors.New("disk full"))

	publisher := new(MockPublisher)

	svc := newMockService(mockRepo, service.WithPublisher(publisher))
	carried, err := svc.CarryForwardTask(context.Background(), task.ID)
	assert.Error(t, err)
	assert.Nil(t, carried)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}
