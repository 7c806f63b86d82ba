package handlers

import (
	"net/http"
	"time"
	"timetable/internal/handlers/dto"
	"timetable/internal/logger"

	"go.uber.org/zap"
)

func (h *ScheduleHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	activityID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tasks, err := h.Service.ListTasks(r.Context(), activityID)
	if err != nil {
		respondServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.String("activity_id", activityID.String()),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (h *ScheduleHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	activityID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	task, err := h.Service.CreateTask(r.Context(), activityID, request.Description)
	if err != nil {
		respondServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", task.ID.String()),
		zap.String("activity_id", activityID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(task)))
}

func (h *ScheduleHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.Service.GetTaskByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task)))
}

func (h *ScheduleHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.Service.CompleteTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "complete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача выполнена",
		zap.String("task_id", task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task)))
}

// CarryForwardTask переносит задачу на ближайшее следующее вхождение активности с тем же именем
func (h *ScheduleHandler) CarryForwardTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для переноса задачи")

	carried, err := h.Service.CarryForwardTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "carry_forward_task")
		return
	}

	logger.Info("HTTP_OUT: Задача перенесена",
		zap.String("original_task_id", id.String()),
		zap.String("task_id", carried.ID.String()),
		zap.String("activity_id", carried.ActivityID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated,
		toPayload("task", dto.FromTask(carried)),
		toPayload("carried_from", id))
}

func (h *ScheduleHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteTask(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	responseNoContent(w)
}
