package dto

import (
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type CreateActivityRequest struct {
	Name      string `json:"name"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (r CreateActivityRequest) Input() service.ActivityInput {
	return service.ActivityInput{
		Name:      r.Name,
		Day:       r.Day,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type UpdateActivityRequest struct {
	Name      *string `json:"name,omitempty"`
	Day       *string `json:"day,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

func (r UpdateActivityRequest) Patch() service.ActivityPatch {
	return service.ActivityPatch{
		Name:      r.Name,
		Day:       r.Day,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type CreateTaskRequest struct {
	Description string `json:"description"`
}

type CompleteSessionRequest struct {
	Learnings string  `json:"learnings"`
	Notes     *string `json:"notes,omitempty"`
}

type ActivityResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Day       string     `json:"day"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   int        `json:"version"`
}

func FromActivity(a *schedule.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		Name:      a.Name,
		Day:       a.Slot.Day.String(),
		StartTime: a.Slot.Start.String(),
		EndTime:   a.Slot.End.String(),
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Version:   a.Version,
	}
}

func FromActivityList(activities []*schedule.Activity) []ActivityResponse {
	result := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		result[i] = FromActivity(a)
	}
	return result
}

// OptionalActivity - nil, когда активности нет (например, сейчас ничего не идёт)
func OptionalActivity(a *schedule.Activity) *ActivityResponse {
	if a == nil {
		return nil
	}
	resp := FromActivity(a)
	return &resp
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	IsDone      bool       `json:"is_done"`
	Carried     bool       `json:"carried"`
	ActivityID  uuid.UUID  `json:"activity_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func FromTask(t *schedule.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Description: t.Description,
		IsDone:      t.IsDone,
		Carried:     t.Carried,
		ActivityID:  t.ActivityID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

func FromTaskList(tasks []*schedule.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type SessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	ActivityID      uuid.UUID  `json:"activity_id"`
	SessionDate     string     `json:"session_date"`
	ActualStartTime time.Time  `json:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time,omitempty"`
	Learnings       string     `json:"learnings"`
	Notes           *string    `json:"notes,omitempty"`
	Completed       bool       `json:"completed"`
}

// FromSession выводит дату сессии в зоне расписания loc
func FromSession(s *schedule.Session, loc *time.Location) SessionResponse {
	date := s.SessionDate
	if loc != nil {
		date = date.In(loc)
	}
	return SessionResponse{
		ID:              s.ID,
		ActivityID:      s.ActivityID,
		SessionDate:     date.Format(dateLayout),
		ActualStartTime: s.ActualStartTime,
		ActualEndTime:   s.ActualEndTime,
		Learnings:       s.Learnings,
		Notes:           s.Notes,
		Completed:       s.Completed,
	}
}

func OptionalSession(s *schedule.Session, loc *time.Location) *SessionResponse {
	if s == nil {
		return nil
	}
	resp := FromSession(s, loc)
	return &resp
}

type DayResponse struct {
	Day        string             `json:"day"`
	Activities []ActivityResponse `json:"activities"`
}

type TimetableResponse struct {
	Now            time.Time         `json:"now"`
	Today          string            `json:"today"`
	Days           []DayResponse     `json:"days"`
	Current        *ActivityResponse `json:"current"`
	ActiveSession  *SessionResponse  `json:"active_session"`
	TodaysSessions []SessionResponse `json:"todays_sessions"`
}

func FromTimetable(t *service.Timetable) TimetableResponse {
	loc := t.Now.Location()

	days := make([]DayResponse, len(t.Days))
	for i, day := range t.Days {
		days[i] = DayResponse{
			Day:        day.Day.String(),
			Activities: FromActivityList(day.Activities),
		}
	}

	sessions := make([]SessionResponse, len(t.TodaysSessions))
	for i, s := range t.TodaysSessions {
		sessions[i] = FromSession(s, loc)
	}

	return TimetableResponse{
		Now:            t.Now,
		Today:          t.Now.Weekday().String(),
		Days:           days,
		Current:        OptionalActivity(t.Current),
		ActiveSession:  OptionalSession(t.ActiveSession, loc),
		TodaysSessions: sessions,
	}
}
