package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	repo "timetable/internal/repository"
	"timetable/internal/service"

	"github.com/google/uuid"
)

type state struct {
	activities  map[uuid.UUID]*schedule.Activity
	tasks       map[uuid.UUID]*schedule.Task
	sessions    map[uuid.UUID]*schedule.Session
	activityIDs []uuid.UUID
	taskIDs     []uuid.UUID
	sessionIDs  []uuid.UUID
}

// Storage хранит копии записей: изменения снаружи не попадают в хранилище без Update
type Storage struct {
	data  *state
	mtx   *sync.RWMutex
	txMtx *sync.Mutex
	// хранилище транзакции пишет в свою копию состояния и txMtx уже держит
	inTx bool
}

func NewStorage() *Storage {
	return &Storage{
		data: &state{
			activities: make(map[uuid.UUID]*schedule.Activity),
			tasks:      make(map[uuid.UUID]*schedule.Task),
			sessions:   make(map[uuid.UUID]*schedule.Session),
		},
		mtx:   &sync.RWMutex{},
		txMtx: &sync.Mutex{},
	}
}

var _ service.Repository = (*Storage)(nil)

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// WithinTx выполняет fn над копией состояния и публикует её только при успехе.
// Запись вне транзакции ждёт её завершения, поэтому фиксация копии ничего не затирает,
// а читатели до фиксации видят прежнее состояние.
func (s *Storage) WithinTx(ctx context.Context, fn func(context.Context, service.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.txMtx.Lock()
	defer s.txMtx.Unlock()

	s.mtx.RLock()
	staged := s.data.clone()
	s.mtx.RUnlock()

	tx := &Storage{
		data:  staged,
		mtx:   &sync.RWMutex{},
		txMtx: s.txMtx,
		inTx:  true,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mtx.Lock()
	s.data = staged
	s.mtx.Unlock()
	return nil
}

// lockWrite возвращает функцию разблокировки
func (s *Storage) lockWrite() func() {
	if !s.inTx {
		s.txMtx.Lock()
	}
	s.mtx.Lock()
	return func() {
		s.mtx.Unlock()
		if !s.inTx {
			s.txMtx.Unlock()
		}
	}
}

func (st *state) clone() *state {
	cp := &state{
		activities:  make(map[uuid.UUID]*schedule.Activity, len(st.activities)),
		tasks:       make(map[uuid.UUID]*schedule.Task, len(st.tasks)),
		sessions:    make(map[uuid.UUID]*schedule.Session, len(st.sessions)),
		activityIDs: append([]uuid.UUID{}, st.activityIDs...),
		taskIDs:     append([]uuid.UUID{}, st.taskIDs...),
		sessionIDs:  append([]uuid.UUID{}, st.sessionIDs...),
	}
	for id, a := range st.activities {
		cp.activities[id] = copyActivity(a)
	}
	for id, t := range st.tasks {
		cp.tasks[id] = copyTask(t)
	}
	for id, ss := range st.sessions {
		cp.sessions[id] = copySession(ss)
	}
	return cp
}

func copyActivity(a *schedule.Activity) *schedule.Activity {
	cp := *a
	return &cp
}

func copyTask(t *schedule.Task) *schedule.Task {
	cp := *t
	cp.Activity = nil
	return &cp
}

func copySession(ss *schedule.Session) *schedule.Session {
	cp := *ss
	return &cp
}

func (s *Storage) ListActiveActivities(ctx context.Context) ([]*schedule.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*schedule.Activity{}
	for _, id := range s.data.activityIDs {
		activity := s.data.activities[id]
		if !activity.Active {
			continue
		}
		res = append(res, copyActivity(activity))
	}

	sort.SliceStable(res, func(i, j int) bool {
		return schedule.Less(res[i], res[j])
	})
	return res, nil
}

func (s *Storage) FindActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	activity, ok := s.data.activities[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyActivity(activity), nil
}

func (s *Storage) FindActivitiesByName(ctx context.Context, name string) ([]*schedule.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*schedule.Activity{}
	for _, id := range s.data.activityIDs {
		activity := s.data.activities[id]
		if !activity.Active || activity.Name != name {
			continue
		}
		res = append(res, copyActivity(activity))
	}
	return res, nil
}

func (s *Storage) CreateActivity(ctx context.Context, activityToCreate *schedule.Activity) error {
	defer s.lockWrite()()

	if activityToCreate.CreatedAt.IsZero() {
		activityToCreate.CreatedAt = time.Now()
	}
	if activityToCreate.Version == 0 {
		activityToCreate.Version = 1
	}

	s.data.activities[activityToCreate.ID] = copyActivity(activityToCreate)
	s.data.activityIDs = append(s.data.activityIDs, activityToCreate.ID)
	return nil
}

func (s *Storage) UpdateActivity(ctx context.Context, activityToUpdate *schedule.Activity) error {
	defer s.lockWrite()()

	existing, ok := s.data.activities[activityToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if existing.Version != activityToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	activityToUpdate.UpdatedAt = &now
	activityToUpdate.Version++
	s.data.activities[activityToUpdate.ID] = copyActivity(activityToUpdate)
	return nil
}

func (s *Storage) FindTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	task, ok := s.data.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	res := copyTask(task)
	if activity, ok := s.data.activities[task.ActivityID]; ok {
		res.Activity = copyActivity(activity)
	}
	return res, nil
}

func (s *Storage) ListTasksByActivity(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*schedule.Task{}
	for _, id := range s.data.taskIDs {
		task := s.data.tasks[id]
		if task.ActivityID != activityID {
			continue
		}
		res = append(res, copyTask(task))
	}
	return res, nil
}

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *schedule.Task) error {
	defer s.lockWrite()()

	// внешний ключ на активность
	if _, ok := s.data.activities[taskToCreate.ActivityID]; !ok {
		return repo.ErrNotFound
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	s.data.tasks[taskToCreate.ID] = copyTask(taskToCreate)
	s.data.taskIDs = append(s.data.taskIDs, taskToCreate.ID)
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *schedule.Task) error {
	defer s.lockWrite()()

	if _, ok := s.data.tasks[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	s.data.tasks[taskToUpdate.ID] = copyTask(taskToUpdate)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	defer s.lockWrite()()

	if _, ok := s.data.tasks[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.data.tasks, id)
	for ind, val := range s.data.taskIDs {
		if val == id {
			s.data.taskIDs = append(s.data.taskIDs[:ind], s.data.taskIDs[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) CreateSession(ctx context.Context, sessionToCreate *schedule.Session) error {
	defer s.lockWrite()()

	if _, ok := s.data.activities[sessionToCreate.ActivityID]; !ok {
		return repo.ErrNotFound
	}
	// аналог уникального частичного индекса в postgres
	if !sessionToCreate.Completed {
		for _, existing := range s.data.sessions {
			if !existing.Completed {
				return repo.ErrOpenSessionExists
			}
		}
	}
	if sessionToCreate.CreatedAt.IsZero() {
		sessionToCreate.CreatedAt = time.Now()
	}

	s.data.sessions[sessionToCreate.ID] = copySession(sessionToCreate)
	s.data.sessionIDs = append(s.data.sessionIDs, sessionToCreate.ID)
	return nil
}

func (s *Storage) FindSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	session, ok := s.data.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copySession(session), nil
}

func (s *Storage) SaveSession(ctx context.Context, sessionToSave *schedule.Session) error {
	defer s.lockWrite()()

	if _, ok := s.data.sessions[sessionToSave.ID]; !ok {
		return repo.ErrNotFound
	}
	s.data.sessions[sessionToSave.ID] = copySession(sessionToSave)
	return nil
}

func (s *Storage) FindOpenSession(ctx context.Context) (*schedule.Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	// обход с конца: последняя созданная
	for i := len(s.data.sessionIDs) - 1; i >= 0; i-- {
		session := s.data.sessions[s.data.sessionIDs[i]]
		if !session.Completed {
			return copySession(session), nil
		}
	}
	return nil, nil
}

func (s *Storage) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]*schedule.Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*schedule.Session{}
	for _, id := range s.data.sessionIDs {
		session := s.data.sessions[id]
		if session.SessionDate.Before(from) || !session.SessionDate.Before(to) {
			continue
		}
		res = append(res, copySession(session))
	}
	return res, nil
}
