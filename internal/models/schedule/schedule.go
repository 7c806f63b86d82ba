package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Activity - одно вхождение рутины в недельном расписании.
// Name не уникален: строки с одинаковым именем - повторения одной рутины.
type Activity struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slot      WeeklySlot `json:"-"`
	Active    bool       `json:"active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version   int        `json:"version" db:"version"`
}

func (a *Activity) Key() int {
	return a.Slot.Key()
}

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Description string     `json:"description" db:"description"`
	IsDone      bool       `json:"is_done" db:"is_done"`
	Carried     bool       `json:"carried" db:"carried"`
	ActivityID  uuid.UUID  `json:"activity_id" db:"activity_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// заполняется репозиторием в FindTaskByID
	Activity *Activity `json:"-" db:"-"`
}

type Session struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ActivityID      uuid.UUID  `json:"activity_id" db:"activity_id"`
	SessionDate     time.Time  `json:"session_date" db:"session_date"`
	ActualStartTime time.Time  `json:"actual_start_time" db:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time,omitempty" db:"actual_end_time"`
	Learnings       string     `json:"learnings" db:"learnings"`
	Notes           *string    `json:"notes,omitempty" db:"notes"`
	Completed       bool       `json:"completed" db:"completed"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Less упорядочивает по ключу недели, при равенстве - по времени создания, затем по id
func Less(a, b *Activity) bool {
	if a.Key() != b.Key() {
		return a.Key() < b.Key()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
