package handlers

import (
	"net/http"
	"time"
	"timetable/internal/handlers/dto"
	"timetable/internal/logger"
	"timetable/internal/models/schedule"

	"go.uber.org/zap"
)

func (h *ScheduleHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	day := r.URL.Query().Get("day")

	var (
		activities []*schedule.Activity
		err        error
	)
	if day != "" {
		activities, err = h.Service.ListActivitiesByDay(r.Context(), day)
	} else {
		activities, err = h.Service.ListActivities(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, err, "list_activities")
		return
	}

	logger.Info("HTTP_OUT: Активности получены",
		zap.String("day", day),
		zap.Int("count", len(activities)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activities", dto.FromActivityList(activities)))
}

func (h *ScheduleHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateActivityRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: запрос к сервису создания активности")

	activity, err := h.Service.CreateActivity(r.Context(), request.Input())
	if err != nil {
		respondServiceError(w, r, err, "create_activity")
		return
	}

	logger.Info("HTTP_OUT: Активность создана",
		zap.String("activity_id", activity.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	w.Header().Set("Location", "/activities/"+activity.ID.String())
	responseWithJSON(w, http.StatusCreated, toPayload("activity", dto.FromActivity(activity)))
}

func (h *ScheduleHandler) GetActivityByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	activity, err := h.Service.GetActivityByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get_activity")
		return
	}

	logger.Info("HTTP_OUT: Активность получена",
		zap.String("activity_id", activity.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(activity)))
}

func (h *ScheduleHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateActivityRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: запрос к сервису обновления активности")

	activity, err := h.Service.UpdateActivity(r.Context(), id, request.Patch())
	if err != nil {
		respondServiceError(w, r, err, "update_activity")
		return
	}

	logger.Info("HTTP_OUT: Активность обновлена",
		zap.String("activity_id", activity.ID.String()),
		zap.Int("version", activity.Version),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(activity)))
}

func (h *ScheduleHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления активности")

	if err := h.Service.DeleteActivity(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete_activity")
		return
	}

	logger.Info("HTTP_OUT: Активность удалена",
		zap.String("activity_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	responseNoContent(w)
}
