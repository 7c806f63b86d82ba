package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"timetable/internal/app"
	"timetable/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, repoType string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: config.DatabaseConfig{
			SQLitePath: filepath.Join(t.TempDir(), "timetable.db"),
		},
		Logging:    config.LoggingConfig{Level: "error"},
		Repository: config.RepositoryConfig{Type: repoType},
		Schedule:   config.ScheduleConfig{Timezone: "UTC"},
	}
}

func TestApp_InMemoryRoutes(t *testing.T) {
	a, err := app.New(testConfig(t, config.RepositoryInMemory)).Init(context.Background())
	require.NoError(t, err)
	defer a.Close()

	router := a.Router()

	req := httptest.NewRequest(http.MethodPost, "/activities",
		strings.NewReader(`{"name":"Gym","day":"Monday","start_time":"09:00","end_time":"10:00"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/timetable", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Timetable struct {
			Days []struct {
				Day        string `json:"day"`
				Activities []any  `json:"activities"`
			} `json:"days"`
		} `json:"timetable"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Timetable.Days, 7)
	assert.Len(t, body.Timetable.Days[1].Activities, 1)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "timetable_")
}

func TestApp_SQLite(t *testing.T) {
	a, err := app.New(testConfig(t, config.RepositorySQLite)).Init(context.Background())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Service().HealthCheck(context.Background()))
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := app.New(testConfig(t, config.RepositoryInMemory)).Init(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}
