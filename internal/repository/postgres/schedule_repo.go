package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	repo "timetable/internal/repository"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	slowQuery = time.Millisecond * 100
)

// querier - общее у пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

// PoolOption настраивает пул поверх значений по умолчанию
type PoolOption func(*pgxpool.Config)

func WithMaxConns(n int) PoolOption {
	if n <= 0 {
		return nil
	}
	return func(c *pgxpool.Config) {
		c.MaxConns = int32(n)
	}
}

func WithMinConns(n int) PoolOption {
	if n < 0 {
		return nil
	}
	return func(c *pgxpool.Config) {
		c.MinConns = int32(n)
	}
}

func WithIdleTimeout(d time.Duration) PoolOption {
	if d <= 0 {
		return nil
	}
	return func(c *pgxpool.Config) {
		c.MaxConnIdleTime = d
	}
}

func New(ctx context.Context, connString string, options ...PoolOption) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range options {
		if opt != nil {
			opt(config)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, db: pool}, nil
}

var _ service.Repository = (*Storage)(nil)

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// WithinTx открывает транзакцию; вложенный вызов работает в уже открытой
func (s *Storage) WithinTx(ctx context.Context, fn func(context.Context, service.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	start := time.Now()
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &Storage{pool: s.pool, db: tx, inTx: true})
	})

	warnIfSlow(start, slowQuery*5, "транзакция")
	return err
}

func warnIfSlow(start time.Time, limit time.Duration, operation string) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
	}
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

const activityColumns = `id, name, day, start_minute, end_minute, is_active, created_at, updated_at, version`

func scanActivity(row pgx.Row) (*schedule.Activity, error) {
	var (
		activity        schedule.Activity
		day, start, end int
	)
	err := row.Scan(
		&activity.ID,
		&activity.Name,
		&day,
		&start,
		&end,
		&activity.Active,
		&activity.CreatedAt,
		&activity.UpdatedAt,
		&activity.Version,
	)
	if err != nil {
		return nil, err
	}
	activity.Slot = schedule.WeeklySlot{Day: time.Weekday(day), Start: schedule.Clock(start), End: schedule.Clock(end)}
	return &activity, nil
}

func (s *Storage) queryActivities(ctx context.Context, query string, args ...any) ([]*schedule.Activity, error) {
	start := time.Now()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить активности", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	defer rows.Close()

	activities := []*schedule.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования активности", err)
			return nil, fmt.Errorf("сканирование активности: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение активностей")
	return activities, nil
}

func (s *Storage) ListActiveActivities(ctx context.Context) ([]*schedule.Activity, error) {
	query := `SELECT ` + activityColumns + `
				FROM activities
				WHERE is_active
				ORDER BY day, start_minute, created_at, id::text`

	return s.queryActivities(ctx, query)
}

func (s *Storage) FindActivitiesByName(ctx context.Context, name string) ([]*schedule.Activity, error) {
	query := `SELECT ` + activityColumns + `
				FROM activities
				WHERE is_active AND name = $1
				ORDER BY day, start_minute, created_at, id::text`

	return s.queryActivities(ctx, query, name)
}

func (s *Storage) FindActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error) {
	start := time.Now()

	query := `SELECT ` + activityColumns + `
				FROM activities
				WHERE id = $1`

	activity, err := scanActivity(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активность", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение активности: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение активности")
	return activity, nil
}

func (s *Storage) CreateActivity(ctx context.Context, activityToCreate *schedule.Activity) error {
	start := time.Now()

	if activityToCreate.CreatedAt.IsZero() {
		activityToCreate.CreatedAt = time.Now()
	}
	if activityToCreate.Version == 0 {
		activityToCreate.Version = 1
	}

	query := `INSERT INTO activities
				(id, name, day, start_minute, end_minute, is_active, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(ctx, query,
		activityToCreate.ID,
		activityToCreate.Name,
		int(activityToCreate.Slot.Day),
		int(activityToCreate.Slot.Start),
		int(activityToCreate.Slot.End),
		activityToCreate.Active,
		activityToCreate.CreatedAt,
		activityToCreate.Version,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить активность", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление активности: %w", err)
	}

	warnIfSlow(start, slowQuery/2, "добавление активности")
	return nil
}

func (s *Storage) UpdateActivity(ctx context.Context, activityToUpdate *schedule.Activity) error {
	start := time.Now()

	query := `UPDATE activities
			SET name = $1,
				day = $2,
				start_minute = $3,
				end_minute = $4,
				is_active = $5,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $6 AND version = $7
			RETURNING updated_at, version`

	err := s.db.QueryRow(ctx, query,
		activityToUpdate.Name,
		int(activityToUpdate.Slot.Day),
		int(activityToUpdate.Slot.Start),
		int(activityToUpdate.Slot.End),
		activityToUpdate.Active,
		activityToUpdate.ID,
		activityToUpdate.Version,
	).Scan(&activityToUpdate.UpdatedAt, &activityToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, findErr := s.FindActivityByID(ctx, activityToUpdate.ID); errors.Is(findErr, repo.ErrNotFound) {
				return repo.ErrNotFound
			}
			logger.Warn("Repository: Конфликт версий при обновлении активности",
				zap.String("activity_id", activityToUpdate.ID.String()),
				zap.Int("expected_version", activityToUpdate.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить активность", err)
		return fmt.Errorf("обновление активности: %w", err)
	}

	warnIfSlow(start, slowQuery, "обновление активности")
	return nil
}

const taskColumns = `t.id, t.description, t.is_done, t.carried, t.activity_id, t.created_at, t.updated_at, t.completed_at`

func scanTask(row pgx.Row, extra ...any) (*schedule.Task, error) {
	var task schedule.Task
	dest := []any{
		&task.ID,
		&task.Description,
		&task.IsDone,
		&task.Carried,
		&task.ActivityID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Storage) FindTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `,
				a.id, a.name, a.day, a.start_minute, a.end_minute, a.is_active, a.created_at, a.updated_at, a.version
				FROM tasks t
				JOIN activities a ON a.id = t.activity_id
				WHERE t.id = $1`

	var (
		activity        schedule.Activity
		day, from, till int
	)
	task, err := scanTask(s.db.QueryRow(ctx, query, id),
		&activity.ID,
		&activity.Name,
		&day,
		&from,
		&till,
		&activity.Active,
		&activity.CreatedAt,
		&activity.UpdatedAt,
		&activity.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	activity.Slot = schedule.WeeklySlot{Day: time.Weekday(day), Start: schedule.Clock(from), End: schedule.Clock(till)}
	task.Activity = &activity

	warnIfSlow(start, slowQuery, "получение задачи")
	return task, nil
}

func (s *Storage) ListTasksByActivity(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks t
				WHERE t.activity_id = $1
				ORDER BY t.created_at, t.id::text`

	rows, err := s.db.Query(ctx, query, activityID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*schedule.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение задач")
	return tasks, nil
}

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *schedule.Task) error {
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks
				(id, description, is_done, carried, activity_id, created_at, completed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query,
		taskToCreate.ID,
		taskToCreate.Description,
		taskToCreate.IsDone,
		taskToCreate.Carried,
		taskToCreate.ActivityID,
		taskToCreate.CreatedAt,
		taskToCreate.CompletedAt,
	)
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery/2, "добавление задачи")
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *schedule.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET description = $1,
				is_done = $2,
				carried = $3,
				completed_at = $4,
				updated_at = NOW()
			WHERE id = $5
			RETURNING updated_at`

	err := s.db.QueryRow(ctx, query,
		taskToUpdate.Description,
		taskToUpdate.IsDone,
		taskToUpdate.Carried,
		taskToUpdate.CompletedAt,
		taskToUpdate.ID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery, "обновление задачи")
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, slowQuery, "удаление задачи")
	return nil
}

const sessionColumns = `id, activity_id, session_date, actual_start_time, actual_end_time, learnings, notes, completed, created_at`

func scanSession(row pgx.Row) (*schedule.Session, error) {
	var session schedule.Session
	err := row.Scan(
		&session.ID,
		&session.ActivityID,
		&session.SessionDate,
		&session.ActualStartTime,
		&session.ActualEndTime,
		&session.Learnings,
		&session.Notes,
		&session.Completed,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) CreateSession(ctx context.Context, sessionToCreate *schedule.Session) error {
	start := time.Now()

	if sessionToCreate.CreatedAt.IsZero() {
		sessionToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO sessions
				(id, activity_id, session_date, actual_start_time, actual_end_time, learnings, notes, completed, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Exec(ctx, query,
		sessionToCreate.ID,
		sessionToCreate.ActivityID,
		sessionToCreate.SessionDate,
		sessionToCreate.ActualStartTime,
		sessionToCreate.ActualEndTime,
		sessionToCreate.Learnings,
		sessionToCreate.Notes,
		sessionToCreate.Completed,
		sessionToCreate.CreatedAt,
	)
	if err != nil {
		switch {
		case hasCode(err, codeUniqueViolation):
			logger.Warn("Repository: Уже есть незавершённая сессия",
				zap.String("session_id", sessionToCreate.ID.String()))
			return repo.ErrOpenSessionExists
		case hasCode(err, codeForeignKeyViolation):
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить сессию", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление сессии: %w", err)
	}

	warnIfSlow(start, slowQuery/2, "добавление сессии")
	return nil
}

func (s *Storage) FindSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error) {
	start := time.Now()

	query := `SELECT ` + sessionColumns + `
				FROM sessions
				WHERE id = $1`

	session, err := scanSession(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить сессию", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение сессии: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение сессии")
	return session, nil
}

func (s *Storage) SaveSession(ctx context.Context, sessionToSave *schedule.Session) error {
	start := time.Now()

	query := `UPDATE sessions
			SET actual_end_time = $1,
				learnings = $2,
				notes = $3,
				completed = $4
			WHERE id = $5`

	tag, err := s.db.Exec(ctx, query,
		sessionToSave.ActualEndTime,
		sessionToSave.Learnings,
		sessionToSave.Notes,
		sessionToSave.Completed,
		sessionToSave.ID,
	)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return repo.ErrOpenSessionExists
		}
		logger.Error("Repository: Не удалось сохранить сессию", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение сессии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, slowQuery, "сохранение сессии")
	return nil
}

func (s *Storage) FindOpenSession(ctx context.Context) (*schedule.Session, error) {
	start := time.Now()

	query := `SELECT ` + sessionColumns + `
				FROM sessions
				WHERE NOT completed
				ORDER BY created_at DESC
				LIMIT 1`

	session, err := scanSession(s.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error("Repository: Не удалось получить открытую сессию", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение открытой сессии: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение открытой сессии")
	return session, nil
}

func (s *Storage) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]*schedule.Session, error) {
	start := time.Now()

	query := `SELECT ` + sessionColumns + `
				FROM sessions
				WHERE session_date >= $1 AND session_date < $2
				ORDER BY actual_start_time`

	rows, err := s.db.Query(ctx, query, from, to)
	if err != nil {
		logger.Error("Repository: Не удалось получить сессии", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение сессий: %w", err)
	}
	defer rows.Close()

	sessions := []*schedule.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования сессии", err)
			return nil, fmt.Errorf("сканирование сессии: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, slowQuery, "получение сессий")
	return sessions, nil
}
