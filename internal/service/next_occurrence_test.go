package service

import (
	"testing"
	"time"
	"timetable/internal/models/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func occurrence(name string, day time.Weekday, start schedule.Clock) *schedule.Activity {
	return &schedule.Activity{
		ID:     uuid.New(),
		Name:   name,
		Slot:   schedule.WeeklySlot{Day: day, Start: start, End: start + 30},
		Active: true,
	}
}

func TestNextOccurrence(t *testing.T) {
	sunday := occurrence("Gym", time.Sunday, schedule.NewClock(9, 0))
	wednesday := occurrence("Gym", time.Wednesday, schedule.NewClock(9, 0))
	saturday := occurrence("Gym", time.Saturday, schedule.NewClock(9, 0))
	other := occurrence("Reading", time.Thursday, schedule.NewClock(9, 0))
	inactive := occurrence("Gym", time.Monday, schedule.NewClock(9, 0))
	inactive.Active = false

	candidates := []*schedule.Activity{saturday, other, inactive, wednesday, sunday}

	target, wrapped := nextOccurrence(sunday, candidates)
	assert.Equal(t, wednesday, target)
	assert.False(t, wrapped)

	target, wrapped = nextOccurrence(wednesday, candidates)
	assert.Equal(t, saturday, target)
	assert.False(t, wrapped)

	target, wrapped = nextOccurrence(saturday, candidates)
	assert.Equal(t, sunday, target)
	assert.True(t, wrapped)

	// удалённое вхождение-источник всё равно задаёт позицию в неделе
	target, wrapped = nextOccurrence(inactive, candidates)
	assert.Equal(t, wednesday, target)
	assert.False(t, wrapped)

	target, wrapped = nextOccurrence(sunday, []*schedule.Activity{other, inactive})
	assert.Nil(t, target)
	assert.False(t, wrapped)
}

func TestNextOccurrence_TieBreak(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	origin := occurrence("Gym", time.Monday, schedule.NewClock(7, 0))

	first := occurrence("Gym", time.Friday, schedule.NewClock(7, 0))
	first.CreatedAt = base
	second := occurrence("Gym", time.Friday, schedule.NewClock(7, 0))
	second.CreatedAt = base.Add(time.Second)

	target, _ := nextOccurrence(origin, []*schedule.Activity{second, first})
	assert.Equal(t, first, target)

	// одинаковое время создания - решает лексический порядок id
	sameA := occurrence("Gym", time.Friday, schedule.NewClock(7, 0))
	sameB := occurrence("Gym", time.Friday, schedule.NewClock(7, 0))
	sameA.CreatedAt, sameB.CreatedAt = base, base
	expected := sameA
	if sameB.ID.String() < sameA.ID.String() {
		expected = sameB
	}

	target, _ = nextOccurrence(origin, []*schedule.Activity{sameA, sameB})
	assert.Equal(t, expected, target)
	target, _ = nextOccurrence(origin, []*schedule.Activity{sameB, sameA})
	assert.Equal(t, expected, target)
}
