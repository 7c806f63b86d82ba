package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TIMETABLE"

const (
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Events     EventsConfig     `mapstructure:"events"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"` // запросов в минуту на клиента, 0 - без лимита
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres", "sqlite" или "inmemory"
}

type ScheduleConfig struct {
	// IANA-зона, в которой считаются день недели и время; пусто или "Local" - зона процесса
	Timezone string `mapstructure:"timezone"`
}

type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"` // пусто - события не отправляются
	Topic   string   `mapstructure:"topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.sqlite_path", "timetable.db")

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("schedule.timezone", "Local")

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "timetable.events")
}

// Load читает значения по умолчанию, затем config.yml (или файл path), затем переменные TIMETABLE_*.
// Отсутствие config.yml в рабочем каталоге не ошибка, отсутствие явно указанного файла - ошибка.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфигурации: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("repository.type=postgres требует database.url")
		}
	case RepositorySQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("repository.type=sqlite требует database.sqlite_path")
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("неизвестный repository.type %q", c.Repository.Type)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server.port не задан")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit не может быть отрицательным")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location - зона расписания
func (c *Config) Location() (*time.Location, error) {
	switch c.Schedule.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("неизвестная зона schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
