package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	repo "timetable/internal/repository"
	"timetable/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type activityRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	Name        string    `gorm:"not null;index:idx_activities_name"`
	Day         int       `gorm:"not null;index:idx_activities_week,priority:1"`
	StartMinute int       `gorm:"not null;index:idx_activities_week,priority:2"`
	EndMinute   int       `gorm:"not null"`
	IsActive    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time
	Version     int `gorm:"not null"`
}

func (activityRow) TableName() string { return "activities" }

type taskRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	Description string    `gorm:"not null"`
	IsDone      bool      `gorm:"not null"`
	Carried     bool      `gorm:"not null"`
	ActivityID  uuid.UUID `gorm:"type:text;not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time
	CompletedAt *time.Time

	Activity activityRow `gorm:"foreignKey:ActivityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (taskRow) TableName() string { return "tasks" }

type sessionRow struct {
	ID              uuid.UUID `gorm:"type:text;primaryKey"`
	ActivityID      uuid.UUID `gorm:"type:text;not null;index"`
	SessionDate     time.Time `gorm:"not null;index"`
	ActualStartTime time.Time `gorm:"not null"`
	ActualEndTime   *time.Time
	Learnings       string `gorm:"not null"`
	Notes           *string
	Completed       bool      `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`

	Activity activityRow `gorm:"foreignKey:ActivityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (sessionRow) TableName() string { return "sessions" }

// уникальный частичный индекс: строк с completed = 0 не больше одной
const singleOpenSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_single_open
	ON sessions (completed) WHERE completed = 0`

type Storage struct {
	db   *gorm.DB
	inTx bool
}

// New открывает файл базы (каталог создаётся) и приводит схему к актуальной
func New(path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			logger.Error("Repository: Не удалось создать каталог базы", err)
			return nil, fmt.Errorf("создание каталога базы: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err)
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	// sqlite не любит параллельных писателей
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("получение соединения: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&activityRow{}, &taskRow{}, &sessionRow{}); err != nil {
		logger.Error("Repository: Ошибка миграции SQLite", err)
		return nil, fmt.Errorf("миграция sqlite: %w", err)
	}
	if err := db.Exec(singleOpenSessionIndex).Error; err != nil {
		logger.Error("Repository: Ошибка создания индекса", err)
		return nil, fmt.Errorf("создание индекса: %w", err)
	}

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("path", path))
	return &Storage{db: db}, nil
}

var _ service.Repository = (*Storage)(nil)

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	logger.Info("Repository: Закрытие соединения SQLite")
	return sqlDB.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение соединения: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) WithinTx(ctx context.Context, fn func(context.Context, service.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Storage{db: tx, inTx: true})
	})
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toActivityRow(a *schedule.Activity) activityRow {
	return activityRow{
		ID:          a.ID,
		Name:        a.Name,
		Day:         int(a.Slot.Day),
		StartMinute: int(a.Slot.Start),
		EndMinute:   int(a.Slot.End),
		IsActive:    a.Active,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   utc(a.UpdatedAt),
		Version:     a.Version,
	}
}

func (r activityRow) model() *schedule.Activity {
	return &schedule.Activity{
		ID:   r.ID,
		Name: r.Name,
		Slot: schedule.WeeklySlot{
			Day:   time.Weekday(r.Day),
			Start: schedule.Clock(r.StartMinute),
			End:   schedule.Clock(r.EndMinute),
		},
		Active:    r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}
}

func toTaskRow(t *schedule.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Description: t.Description,
		IsDone:      t.IsDone,
		Carried:     t.Carried,
		ActivityID:  t.ActivityID,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   utc(t.UpdatedAt),
		CompletedAt: utc(t.CompletedAt),
	}
}

func (r taskRow) model() *schedule.Task {
	return &schedule.Task{
		ID:          r.ID,
		Description: r.Description,
		IsDone:      r.IsDone,
		Carried:     r.Carried,
		ActivityID:  r.ActivityID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}
}

func toSessionRow(s *schedule.Session) sessionRow {
	return sessionRow{
		ID:              s.ID,
		ActivityID:      s.ActivityID,
		SessionDate:     s.SessionDate.UTC(),
		ActualStartTime: s.ActualStartTime.UTC(),
		ActualEndTime:   utc(s.ActualEndTime),
		Learnings:       s.Learnings,
		Notes:           s.Notes,
		Completed:       s.Completed,
		CreatedAt:       s.CreatedAt.UTC(),
	}
}

func (r sessionRow) model() *schedule.Session {
	return &schedule.Session{
		ID:              r.ID,
		ActivityID:      r.ActivityID,
		SessionDate:     r.SessionDate,
		ActualStartTime: r.ActualStartTime,
		ActualEndTime:   r.ActualEndTime,
		Learnings:       r.Learnings,
		Notes:           r.Notes,
		Completed:       r.Completed,
		CreatedAt:       r.CreatedAt,
	}
}

func (s *Storage) listActivities(ctx context.Context, query *gorm.DB) ([]*schedule.Activity, error) {
	var rows []activityRow
	err := query.WithContext(ctx).
		Order("day, start_minute, created_at, id").
		Find(&rows).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить активности", err)
		return nil, fmt.Errorf("получение активностей: %w", err)
	}

	activities := make([]*schedule.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, row.model())
	}
	return activities, nil
}

func (s *Storage) ListActiveActivities(ctx context.Context) ([]*schedule.Activity, error) {
	return s.listActivities(ctx, s.db.Where("is_active = ?", true))
}

func (s *Storage) FindActivitiesByName(ctx context.Context, name string) ([]*schedule.Activity, error) {
	return s.listActivities(ctx, s.db.Where("is_active = ? AND name = ?", true, name))
}

func (s *Storage) FindActivityByID(ctx context.Context, id uuid.UUID) (*schedule.Activity, error) {
	var row activityRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активность", err)
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	return row.model(), nil
}

func (s *Storage) CreateActivity(ctx context.Context, activityToCreate *schedule.Activity) error {
	if activityToCreate.CreatedAt.IsZero() {
		activityToCreate.CreatedAt = time.Now()
	}
	if activityToCreate.Version == 0 {
		activityToCreate.Version = 1
	}

	row := toActivityRow(activityToCreate)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("Repository: Не удалось добавить активность", err)
		return fmt.Errorf("добавление активности: %w", err)
	}
	return nil
}

func (s *Storage) UpdateActivity(ctx context.Context, activityToUpdate *schedule.Activity) error {
	now := time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&activityRow{}).
		Where("id = ? AND version = ?", activityToUpdate.ID, activityToUpdate.Version).
		Updates(map[string]any{
			"name":         activityToUpdate.Name,
			"day":          int(activityToUpdate.Slot.Day),
			"start_minute": int(activityToUpdate.Slot.Start),
			"end_minute":   int(activityToUpdate.Slot.End),
			"is_active":    activityToUpdate.Active,
			"updated_at":   now,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		logger.Error("Repository: Не удалось обновить активность", result.Error)
		return fmt.Errorf("обновление активности: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := s.FindActivityByID(ctx, activityToUpdate.ID); errors.Is(err, repo.ErrNotFound) {
			return repo.ErrNotFound
		}
		logger.Warn("Repository: Конфликт версий при обновлении активности",
			zap.String("activity_id", activityToUpdate.ID.String()),
			zap.Int("expected_version", activityToUpdate.Version))
		return repo.ErrVersionConflict
	}

	activityToUpdate.UpdatedAt = &now
	activityToUpdate.Version++
	return nil
}

func (s *Storage) FindTaskByID(ctx context.Context, id uuid.UUID) (*schedule.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Preload("Activity").Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	task := row.model()
	task.Activity = row.Activity.model()
	return task, nil
}

func (s *Storage) ListTasksByActivity(ctx context.Context, activityID uuid.UUID) ([]*schedule.Task, error) {
	var rows []taskRow
	err := s.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*schedule.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.model())
	}
	return tasks, nil
}

func (s *Storage) activityExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&activityRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("проверка активности: %w", err)
	}
	return count > 0, nil
}

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *schedule.Task) error {
	exists, err := s.activityExists(ctx, taskToCreate.ActivityID)
	if err != nil {
		return err
	}
	if !exists {
		return repo.ErrNotFound
	}

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	row := toTaskRow(taskToCreate)
	if err := s.db.WithContext(ctx).Omit("Activity").Create(&row).Error; err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *schedule.Task) error {
	now := time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ?", taskToUpdate.ID).
		Updates(map[string]any{
			"description":  taskToUpdate.Description,
			"is_done":      taskToUpdate.IsDone,
			"carried":      taskToUpdate.Carried,
			"completed_at": utc(taskToUpdate.CompletedAt),
			"updated_at":   now,
		})
	if result.Error != nil {
		logger.Error("Repository: Не удалось обновить задачу", result.Error)
		return fmt.Errorf("обновление задачи: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	taskToUpdate.UpdatedAt = &now
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{})
	if result.Error != nil {
		logger.Error("Repository: Удаление задачи", result.Error)
		return fmt.Errorf("удаление задачи: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) CreateSession(ctx context.Context, sessionToCreate *schedule.Session) error {
	exists, err := s.activityExists(ctx, sessionToCreate.ActivityID)
	if err != nil {
		return err
	}
	if !exists {
		return repo.ErrNotFound
	}

	if sessionToCreate.CreatedAt.IsZero() {
		sessionToCreate.CreatedAt = time.Now()
	}

	row := toSessionRow(sessionToCreate)
	if err := s.db.WithContext(ctx).Omit("Activity").Create(&row).Error; err != nil {
		if isDuplicate(err) {
			logger.Warn("Repository: Уже есть незавершённая сессия",
				zap.String("session_id", sessionToCreate.ID.String()))
			return repo.ErrOpenSessionExists
		}
		logger.Error("Repository: Не удалось добавить сессию", err)
		return fmt.Errorf("добавление сессии: %w", err)
	}
	return nil
}

func (s *Storage) FindSessionByID(ctx context.Context, id uuid.UUID) (*schedule.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить сессию", err)
		return nil, fmt.Errorf("получение сессии: %w", err)
	}
	return row.model(), nil
}

func (s *Storage) SaveSession(ctx context.Context, sessionToSave *schedule.Session) error {
	result := s.db.WithContext(ctx).Model(&sessionRow{}).
		Where("id = ?", sessionToSave.ID).
		Updates(map[string]any{
			"actual_end_time": utc(sessionToSave.ActualEndTime),
			"learnings":       sessionToSave.Learnings,
			"notes":           sessionToSave.Notes,
			"completed":       sessionToSave.Completed,
		})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return repo.ErrOpenSessionExists
		}
		logger.Error("Repository: Не удалось сохранить сессию", result.Error)
		return fmt.Errorf("сохранение сессии: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) FindOpenSession(ctx context.Context) (*schedule.Session, error) {
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Where("completed = ?", false).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить открытую сессию", err)
		return nil, fmt.Errorf("получение открытой сессии: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].model(), nil
}

func (s *Storage) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]*schedule.Session, error) {
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Where("session_date >= ? AND session_date < ?", from.UTC(), to.UTC()).
		Order("actual_start_time").
		Find(&rows).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить сессии", err)
		return nil, fmt.Errorf("получение сессий: %w", err)
	}

	sessions := make([]*schedule.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.model())
	}
	return sessions, nil
}
