// Package migrations хранит схему PostgreSQL и применяет её через golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"timetable/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

// драйвер pgx/v5 регистрируется под схемой pgx5
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

func newMigrate(connString string) (*migrate.Migrate, error) {
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Migrations: Ошибка закрытия", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

func Up(connString string) error {
	logger.Info("Migrations: Применение миграций")

	m, err := newMigrate(connString)
	if err != nil {
		logger.Error("Migrations: Не удалось инициализировать миграции", err)
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Migrations: Схема актуальна")
			return nil
		}
		logger.Error("Migrations: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Migrations: Миграции применены", zap.Uint("version", version))
	return nil
}

func Down(connString string) error {
	logger.Info("Migrations: Откат миграций")

	m, err := newMigrate(connString)
	if err != nil {
		logger.Error("Migrations: Не удалось инициализировать миграции", err)
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Migrations: Миграции откачены")
	return nil
}
