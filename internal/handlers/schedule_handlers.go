package handlers

import (
	"net/http"
	"time"
	"timetable/internal/handlers/dto"
	"timetable/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	Service Service
	now     func() time.Time
}

// NewScheduleHandler: now == nil означает time.Now
func NewScheduleHandler(svc Service, now func() time.Time) *ScheduleHandler {
	if now == nil {
		now = time.Now
	}
	return &ScheduleHandler{
		Service: svc,
		now:     now,
	}
}

// Routes регистрирует все маршруты расписания
func (h *ScheduleHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/timetable", h.GetTimetable)
	r.Get("/current", h.GetCurrentActivity)

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", h.ListActivities)  // GET /activities?day=Monday
		r.Post("/", h.CreateActivity) // POST /activities

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetActivityByID)   // GET /activities/{id}
			r.Patch("/", h.UpdateActivity)  // PATCH /activities/{id}
			r.Delete("/", h.DeleteActivity) // DELETE /activities/{id}
			r.Get("/tasks", h.ListTasks)    // GET /activities/{id}/tasks
			r.Post("/tasks", h.CreateTask)  // POST /activities/{id}/tasks
		})
	})

	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", h.GetTaskByID)            // GET /tasks/{id}
		r.Delete("/", h.DeleteTask)          // DELETE /tasks/{id}
		r.Post("/complete", h.CompleteTask)  // POST /tasks/{id}/complete
		r.Post("/carry", h.CarryForwardTask) // POST /tasks/{id}/carry
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/active", h.GetActiveSession)          // GET /sessions/active
		r.Post("/start/{activityId}", h.StartSession) // POST /sessions/start/{activityId}
		r.Get("/{id}", h.GetSessionByID)              // GET /sessions/{id}
		r.Post("/{id}/complete", h.CompleteSession)   // POST /sessions/{id}/complete
	})
}

func (h *ScheduleHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.HealthCheck(r.Context()); err != nil {

		logger.Error("HTTP: Сервис нездоров", err)

		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

func (h *ScheduleHandler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	timetable, err := h.Service.Timetable(r.Context(), h.now())
	if err != nil {
		respondServiceError(w, r, err, "timetable")
		return
	}

	logger.Info("HTTP_OUT: Расписание получено",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("timetable", dto.FromTimetable(timetable)))
}

func (h *ScheduleHandler) GetCurrentActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	now := h.now()
	current, err := h.Service.ResolveCurrentActivity(r.Context(), now)
	if err != nil {
		respondServiceError(w, r, err, "resolve_current")
		return
	}

	logger.Info("HTTP_OUT: Текущая активность определена",
		zap.Bool("found", current != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("now", now.In(h.Service.Location())),
		toPayload("current", dto.OptionalActivity(current)))
}
