package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"timetable/internal/config"
	"timetable/internal/events"
	"timetable/internal/handlers"
	"timetable/internal/logger"
	"timetable/internal/middleware"
	"timetable/internal/migrations"
	"timetable/internal/repository/inmemory"
	"timetable/internal/repository/postgres"
	"timetable/internal/repository/sqlite"
	"timetable/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.Repository // интерфейс!
	publisher  events.Publisher
	service    *service.ScheduleService
	shutdowns  []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init поднимает всё, кроме прослушивания порта: CLI использует Service() без HTTP
func (a *App) Init(ctx context.Context) (*App, error) {

	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.initPublisher()

	loc, err := a.config.Location()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = service.NewScheduleService(a.repository,
		service.WithLocation(loc),
		service.WithPublisher(a.publisher))

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("timezone", loc.String()),
		zap.String("addr", a.server.Addr))

	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if err := migrations.Up(a.config.Database.URL); err != nil {
			return fmt.Errorf("применение миграций: %w", err)
		}

		storage, err := postgres.New(ctx, a.config.Database.URL,
			postgres.WithMaxConns(a.config.Database.MaxConnections),
			postgres.WithMinConns(a.config.Database.MinConnections),
			postgres.WithIdleTimeout(a.config.Database.IdleTimeout))
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}

		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула postgres...")
			storage.Close()
		})

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("открытие sqlite: %w", err)
		}

		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие sqlite...")
			if err := storage.Close(); err != nil {
				logger.Error("Ошибка закрытия sqlite", err)
			}
		})

	default:
		a.repository = inmemory.NewStorage()
	}
	return nil
}

func (a *App) initPublisher() {
	if len(a.config.Events.Brokers) == 0 {
		a.publisher = events.Noop{}
		return
	}

	publisher := events.NewKafkaPublisher(a.config.Events.Brokers, a.config.Events.Topic)
	a.publisher = publisher
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие kafka writer...")
		if err := publisher.Close(); err != nil {
			logger.Error("Events: ошибка закрытия", err)
		}
	})
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Handle("/metrics", promhttp.Handler())

	handlers.NewScheduleHandler(a.service, nil).Routes(r)

	a.router = r
}

func (a *App) Service() *service.ScheduleService {
	return a.service
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run блокируется до отмены ctx или ошибки сервера, затем мягко останавливает сервер
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("HTTP: Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("HTTP: Сервер остановлен")
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.config.Server.ShutdownTimeout > 0 {
		return a.config.Server.ShutdownTimeout
	}
	return 15 * time.Second
}

// Close освобождает ресурсы; повторный вызов ничего не делает
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
