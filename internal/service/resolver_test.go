package service_test

import (
	"context"
	"testing"
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveCurrentActivity тестирует поиск текущей активности
func TestResolveCurrentActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// воскресенье 09:00-10:00
	morning := f.addAt(t, "Reading", schedule.IndexKey(time.Sunday, schedule.NewClock(9, 0)))
	morning.Slot.End = schedule.NewClock(10, 0)
	require.NoError(t, f.storage.UpdateActivity(ctx, morning))

	tests := []struct {
		name   string
		now    time.Time
		expect *schedule.Activity
	}{
		{name: "at start", now: time.Date(2024, time.January, 7, 9, 0, 0, 0, time.UTC), expect: morning},
		{name: "inside", now: time.Date(2024, time.January, 7, 9, 30, 0, 0, time.UTC), expect: morning},
		{name: "at end is inclusive", now: time.Date(2024, time.January, 7, 10, 0, 59, 0, time.UTC), expect: morning},
		{name: "one minute after end", now: time.Date(2024, time.January, 7, 10, 1, 0, 0, time.UTC), expect: nil},
		{name: "before start", now: time.Date(2024, time.January, 7, 8, 59, 59, 0, time.UTC), expect: nil},
		{name: "same time other day", now: time.Date(2024, time.January, 8, 9, 30, 0, 0, time.UTC), expect: nil},
		{name: "next week same slot", now: time.Date(2024, time.January, 14, 9, 30, 0, 0, time.UTC), expect: morning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, err := f.svc.ResolveCurrentActivity(ctx, tt.now)
			require.NoError(t, err)
			if tt.expect == nil {
				assert.Nil(t, current)
				return
			}
			require.NotNil(t, current)
			assert.Equal(t, tt.expect.ID, current.ID)
		})
	}
}

// TestResolveCurrentActivity_Overlap при пересечении побеждает более ранняя в порядке недели
func TestResolveCurrentActivity_Overlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	late := f.addAt(t, "Late", schedule.IndexKey(time.Sunday, schedule.NewClock(9, 15)))
	early := f.addAt(t, "Early", schedule.IndexKey(time.Sunday, schedule.NewClock(9, 0)))
	require.NotEqual(t, late.ID, early.ID)

	current, err := f.svc.ResolveCurrentActivity(ctx, time.Date(2024, time.January, 7, 9, 20, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, early.ID, current.ID)
}

// TestResolveCurrentActivity_Location день недели считается в зоне сервиса
func TestResolveCurrentActivity_Location(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	monday := f.addAt(t, "Run", schedule.IndexKey(time.Monday, schedule.NewClock(1, 0)))

	loc := time.FixedZone("UTC+3", 3*60*60)
	svc := service.NewScheduleService(f.storage, service.WithLocation(loc))

	// воскресенье 22:10 UTC = понедельник 01:10 UTC+3
	current, err := svc.ResolveCurrentActivity(ctx, time.Date(2024, time.January, 7, 22, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, monday.ID, current.ID)

	current, err = f.svc.ResolveCurrentActivity(ctx, time.Date(2024, time.January, 7, 22, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, current)
}

// TestResolveCurrentActivity_IgnoresDeleted удалённые активности не резолвятся
func TestResolveCurrentActivity_IgnoresDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	activity := f.addAt(t, "Run", schedule.IndexKey(time.Sunday, schedule.NewClock(10, 20)))

	require.NoError(t, f.svc.DeleteActivity(ctx, activity.ID))
	// повторное удаление идемпотентно
	require.NoError(t, f.svc.DeleteActivity(ctx, activity.ID))

	current, err := f.svc.ResolveCurrentActivity(ctx, fixedNow)
	require.NoError(t, err)
	assert.Nil(t, current)
}

// TestTimetable собирает неделю, текущую активность и сессии дня
func TestTimetable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	current := f.addAt(t, "Gym", schedule.IndexKey(time.Sunday, schedule.NewClock(10, 15)))
	f.addAt(t, "Gym", schedule.IndexKey(time.Wednesday, schedule.NewClock(18, 0)))
	f.addAt(t, "Reading", schedule.IndexKey(time.Wednesday, schedule.NewClock(7, 0)))

	session, err := f.svc.StartSession(ctx, current.ID)
	require.NoError(t, err)

	timetable, err := f.svc.Timetable(ctx, fixedNow)
	require.NoError(t, err)

	require.Len(t, timetable.Days, 7)
	assert.Equal(t, time.Sunday, timetable.Days[0].Day)
	assert.Len(t, timetable.Days[0].Activities, 1)
	require.Len(t, timetable.Days[3].Activities, 2)
	assert.Equal(t, "Reading", timetable.Days[3].Activities[0].Name)
	assert.Equal(t, "Gym", timetable.Days[3].Activities[1].Name)

	require.NotNil(t, timetable.Current)
	assert.Equal(t, current.ID, timetable.Current.ID)
	require.NotNil(t, timetable.ActiveSession)
	assert.Equal(t, session.ID, timetable.ActiveSession.ID)
	assert.Len(t, timetable.TodaysSessions, 1)
}

// TestListActivitiesByDay тестирует фильтр по дню
func TestListActivitiesByDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addAt(t, "Gym", schedule.IndexKey(time.Tuesday, schedule.NewClock(18, 0)))
	f.addAt(t, "Reading", schedule.IndexKey(time.Tuesday, schedule.NewClock(7, 0)))
	f.addAt(t, "Gym", schedule.IndexKey(time.Friday, schedule.NewClock(18, 0)))

	tuesday, err := f.svc.ListActivitiesByDay(ctx, "tuesday")
	require.NoError(t, err)
	require.Len(t, tuesday, 2)
	assert.Equal(t, "Reading", tuesday[0].Name)

	_, err = f.svc.ListActivitiesByDay(ctx, "someday")
	assertCode(t, err, service.CodeValidation)
}

// TestSessions_SingleOpen проверяет, что вторая сессия не открывается, пока первая не закрыта
func TestSessions_SingleOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	gym := f.addAt(t, "Gym", schedule.IndexKey(time.Sunday, schedule.NewClock(10, 0)))
	reading := f.addAt(t, "Reading", schedule.IndexKey(time.Sunday, schedule.NewClock(11, 0)))

	first, err := f.svc.StartSession(ctx, gym.ID)
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, reading.ID)
	assertCode(t, err, service.CodeSessionAlreadyOpen)

	active, err := f.svc.GetActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)

	completed, err := f.svc.CompleteSession(ctx, first.ID, "form improved", nil)
	require.NoError(t, err)
	assert.True(t, completed.Completed)

	_, err = f.svc.CompleteSession(ctx, first.ID, "overwrite", nil)
	assertCode(t, err, service.CodeInvalidState)

	stored, err := f.svc.GetSessionByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "form improved", stored.Learnings)

	active, err = f.svc.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = f.svc.StartSession(ctx, reading.ID)
	require.NoError(t, err)
}
