package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"timetable/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ограничение на тело запроса
const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// parseID читает uuid из параметра маршрута; при ошибке ответ уже записан
func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, param)
	id, err := uuid.Parse(idParam)
	if err != nil {

		logger.Warn("HTTP: Не удалось получить id",
			zap.String("param", param),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, fmt.Sprintf("не удалось получить %s: %s", param, err.Error()))
		return uuid.Nil, false
	}

	if id == uuid.Nil {

		logger.Warn("HTTP: Неверное значение id",
			zap.String("param", param),
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, param+" не может быть пустым")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON проверяет Content-Type и разбирает тело; при ошибке ответ уже записан
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный Content-Type",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "ожидается Content-Type: application/json")
		return false
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	defer r.Body.Close()

	if err := decoder.Decode(dst); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

// decodeOptionalJSON пропускает пустое тело, в том числе chunked без Content-Length
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}

	reader := bufio.NewReader(r.Body)
	if _, err := reader.Peek(1); err == io.EOF {
		r.Body.Close()
		return true
	}

	r.Body = struct {
		io.Reader
		io.Closer
	}{reader, r.Body}
	return decodeJSON(w, r, dst)
}
