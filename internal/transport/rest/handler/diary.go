package handler

import (
	"context"
	"net/http"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/transport/rest/middleware"
)

// DiaryAPI is the diary surface used by DiaryHandler
type DiaryAPI interface {
	Create(ctx context.Context, userID string, req *model.CreateDiaryRequest) (*model.DiaryEntry, error)
	List(ctx context.Context, userID string) ([]*model.DiaryEntry, error)
}

// DiaryHandler handles diary endpoints
type DiaryHandler struct {
	svc DiaryAPI
	log *logger.Logger
}

// NewDiaryHandler creates a new diary handler
func NewDiaryHandler(svc DiaryAPI, log *logger.Logger) *DiaryHandler {
	return &DiaryHandler{svc: svc, log: log}
}

// Create handles POST /v1/diary. The analysis arrives later over the WebSocket.
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDiaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	entry, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Entrada registrada. A análise será enviada em instantes.",
		"entrada": entry,
	})
}

// List handles GET /v1/diary
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"entradas": entries,
	})
}
