package handlers

import (
	"net/http"
	"time"
	"timetable/internal/handlers/dto"
	"timetable/internal/logger"

	"go.uber.org/zap"
)

func (h *ScheduleHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	activityID, ok := parseID(w, r, "activityId")
	if !ok {
		return
	}

	session, err := h.Service.StartSession(r.Context(), activityID)
	if err != nil {
		respondServiceError(w, r, err, "start_session")
		return
	}

	logger.Info("HTTP_OUT: Сессия начата",
		zap.String("session_id", session.ID.String()),
		zap.String("activity_id", activityID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated,
		toPayload("session", dto.FromSession(session, h.Service.Location())))
}

// CompleteSession принимает пустое тело как пустые learnings
func (h *ScheduleHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.CompleteSessionRequest
	if !decodeOptionalJSON(w, r, &request) {
		return
	}

	session, err := h.Service.CompleteSession(r.Context(), id, request.Learnings, request.Notes)
	if err != nil {
		respondServiceError(w, r, err, "complete_session")
		return
	}

	logger.Info("HTTP_OUT: Сессия завершена",
		zap.String("session_id", session.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("session", dto.FromSession(session, h.Service.Location())))
}

func (h *ScheduleHandler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	session, err := h.Service.GetActiveSession(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "active_session")
		return
	}

	logger.Info("HTTP_OUT: Активная сессия получена",
		zap.Bool("found", session != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("session", dto.OptionalSession(session, h.Service.Location())))
}

func (h *ScheduleHandler) GetSessionByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	session, err := h.Service.GetSessionByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get_session")
		return
	}

	logger.Info("HTTP_OUT: Сессия получена",
		zap.String("session_id", session.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("session", dto.FromSession(session, h.Service.Location())))
}
