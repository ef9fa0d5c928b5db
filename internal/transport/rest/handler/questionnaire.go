package handler

import (
	"context"
	"net/http"
	"strconv"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/transport/rest/middleware"
)

// QuestionnaireAPI is the questionnaire surface used by QuestionnaireHandler
type QuestionnaireAPI interface {
	Questions(ctx context.Context, initialOnly bool) ([]*model.Question, error)
	DailyQuestions(ctx context.Context) ([]*model.Question, error)
	SubmitInitial(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error)
	SubmitDaily(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error)
	UserScore(ctx context.Context, userID string) (*model.Score, error)
	History(ctx context.Context, userID string) ([]model.HistoryItem, error)
	Stats(ctx context.Context, userID string) (*model.UserStats, error)
	DailyStatus(ctx context.Context, userID string) (*model.DailyStatus, error)
}

// QuestionnaireHandler handles catalog, submission and score endpoints
type QuestionnaireHandler struct {
	svc QuestionnaireAPI
	log *logger.Logger
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(svc QuestionnaireAPI, log *logger.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc, log: log}
}

// Questions handles GET /v1/questionnaires/questions?inicial=true|false
func (h *QuestionnaireHandler) Questions(w http.ResponseWriter, r *http.Request) {
	initialOnly := true
	if v := r.URL.Query().Get("inicial"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "O parâmetro inicial deve ser true ou false.")
			return
		}
		initialOnly = b
	}

	questions, err := h.svc.Questions(r.Context(), initialOnly)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"perguntas": questions,
	})
}

// DailyQuestions handles GET /v1/questionnaires/daily/questions
func (h *QuestionnaireHandler) DailyQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.DailyQuestions(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"perguntas": questions,
	})
}

// SubmitInitial handles POST /v1/questionnaires/initial
func (h *QuestionnaireHandler) SubmitInitial(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.svc.SubmitInitial, "Questionário inicial salvo com sucesso.")
}

// SubmitDaily handles POST /v1/questionnaires/daily
func (h *QuestionnaireHandler) SubmitDaily(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.svc.SubmitDaily, "Questionário diário salvo com sucesso.")
}

type submitFunc func(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error)

func (h *QuestionnaireHandler) submit(w http.ResponseWriter, r *http.Request, fn submitFunc, message string) {
	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	q, err := fn(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":         true,
		"message":         message,
		"questionario_id": q.ID,
		"data":            q.Day,
	})
}

// Score handles GET /v1/users/{userId}/score
func (h *QuestionnaireHandler) Score(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	score, err := h.svc.UserScore(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := map[string]interface{}{
		"success":    true,
		"nota":       score.Normalized,
		"respondido": score.Answered,
		"message":    "Pontuação calculada com sucesso.",
	}
	if score.Answered {
		resp["nivel"] = score.Level
	} else {
		resp["message"] = "Nenhum questionário respondido ainda."
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /v1/users/{userId}/history
func (h *QuestionnaireHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	items, err := h.svc.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"historico": items,
	})
}

// Stats handles GET /v1/users/{userId}/stats
func (h *QuestionnaireHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"estatisticas": stats,
	})
}

// DailyStatus handles GET /v1/users/{userId}/daily/status
func (h *QuestionnaireHandler) DailyStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	status, err := h.svc.DailyStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"ja_respondido": status.Answered,
		"data":          status.Day,
	})
}
