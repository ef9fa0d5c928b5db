package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"mindtracking/internal/platform/logger"
	"mindtracking/internal/service"
	"mindtracking/internal/transport/rest/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// statusFor maps a service error kind onto an HTTP status
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status and message carried by err.
// Server-side failures are logged with their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := statusFor(service.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, service.MessageOf(err))
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return service.ValidationError("Corpo da requisição vazio.")
	}
	if err != nil {
		return service.ValidationError("Corpo da requisição inválido.")
	}
	return nil
}

// pathUser returns the {userId} path variable when it belongs to the caller
func pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["userId"]
	caller := middleware.GetUserID(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido.")
		return "", false
	}
	if userID != caller {
		writeError(w, http.StatusForbidden, "Acesso negado aos dados de outro usuário.")
		return "", false
	}
	return userID, true
}
