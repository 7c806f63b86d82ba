// Package importer загружает недельное расписание из YAML-файла.
//
// Формат:
//
//	activities:
//	  - name: Gym
//	    day: Monday
//	    start: "09:00"
//	    end: "10:00"
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Entry struct {
	Name  string `yaml:"name"`
	Day   string `yaml:"day"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type File struct {
	Activities []Entry `yaml:"activities"`
}

// ActivityCreator - часть сервиса, нужная импорту
type ActivityCreator interface {
	CreateActivity(ctx context.Context, input service.ActivityInput) (*schedule.Activity, error)
}

// Failure - строка файла, отклонённая валидацией
type Failure struct {
	Index int
	Entry Entry
	Err   error
}

type Result struct {
	Created []*schedule.Activity
	Failed  []Failure
}

func Parse(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("разбор YAML расписания: %w", err)
	}
	return &file, nil
}

func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие файла расписания: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Import создаёт активности по порядку. Ошибки валидации копятся в Result.Failed,
// любая другая ошибка прерывает импорт; уже созданные активности остаются.
func Import(ctx context.Context, creator ActivityCreator, file *File) (*Result, error) {
	result := &Result{}

	for i, entry := range file.Activities {
		activity, err := creator.CreateActivity(ctx, service.ActivityInput{
			Name:      entry.Name,
			Day:       entry.Day,
			StartTime: entry.Start,
			EndTime:   entry.End,
		})
		if err != nil {
			if service.IsCode(err, service.CodeValidation) {

				logger.Warn("Import: строка пропущена",
					zap.Int("index", i),
					zap.String("name", entry.Name),
					zap.Error(err))

				result.Failed = append(result.Failed, Failure{Index: i, Entry: entry, Err: err})
				continue
			}
			return result, fmt.Errorf("импорт строки %d (%s): %w", i, entry.Name, err)
		}
		result.Created = append(result.Created, activity)
	}

	logger.Info("Import: расписание загружено",
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}
