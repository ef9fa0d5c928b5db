package handler

import (
	"context"
	"net/http"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/transport/rest/middleware"
)

// ChatAPI is the companion surface used by ChatHandler
type ChatAPI interface {
	Send(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatReply, error)
	Tip(ctx context.Context, userID string) (string, error)
}

// ChatHandler handles companion chat endpoints
type ChatHandler struct {
	svc ChatAPI
	log *logger.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(svc ChatAPI, log *logger.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

// Send handles POST /v1/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	reply, err := h.svc.Send(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"response":           reply.Response,
		"diagnostico_gerado": reply.DiagnosisNew,
	})
}

// Tip handles GET /v1/chat/tip
func (h *ChatHandler) Tip(w http.ResponseWriter, r *http.Request) {
	tip, err := h.svc.Tip(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"dica":    tip,
	})
}
