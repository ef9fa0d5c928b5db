package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindtracking/internal/config"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/service"
	"mindtracking/internal/transport/ws"
)

type stubAuth struct {
	deleted string
}

func (s *stubAuth) Register(_ context.Context, req *model.RegisterRequest) (*model.Profile, error) {
	if req.Email == "taken@example.com" {
		return nil, service.ConflictError("Este e-mail já está cadastrado.")
	}
	return &model.Profile{ID: "new", Email: req.Email}, nil
}

func (s *stubAuth) Login(_ context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req.Password != "ok" {
		return nil, service.UnauthorizedError("E-mail ou senha incorretos.")
	}
	return &model.LoginResponse{Token: "tok-u1", User: model.Profile{ID: "u1"}}, nil
}

func (s *stubAuth) DeleteAccount(_ context.Context, userID string) error {
	s.deleted = userID
	return nil
}

func (s *stubAuth) ValidateToken(token string) (*model.UserClaims, error) {
	if strings.HasPrefix(token, "tok-") {
		return &model.UserClaims{UserID: strings.TrimPrefix(token, "tok-")}, nil
	}
	return nil, service.UnauthorizedError("Token inválido ou expirado.")
}

type stubQuestionnaires struct {
	score     *model.Score
	submitErr error
	lastReq   *model.SubmitRequest
}

func (s *stubQuestionnaires) Questions(_ context.Context, initialOnly bool) ([]*model.Question, error) {
	if initialOnly {
		return []*model.Question{{ID: 1}}, nil
	}
	return []*model.Question{{ID: 1}, {ID: 11}}, nil
}

func (s *stubQuestionnaires) DailyQuestions(context.Context) ([]*model.Question, error) {
	return nil, service.ErrInsufficientQuestions
}

func (s *stubQuestionnaires) SubmitInitial(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error) {
	return s.SubmitDaily(ctx, userID, req)
}

func (s *stubQuestionnaires) SubmitDaily(_ context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error) {
	s.lastReq = req
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &model.Questionnaire{ID: "q1", UserID: userID, Day: "2024-03-10"}, nil
}

func (s *stubQuestionnaires) UserScore(context.Context, string) (*model.Score, error) {
	return s.score, nil
}

func (s *stubQuestionnaires) History(context.Context, string) ([]model.HistoryItem, error) {
	return []model.HistoryItem{}, nil
}

func (s *stubQuestionnaires) Stats(context.Context, string) (*model.UserStats, error) {
	return nil, service.StorageError("count", errors.New("connection reset"))
}

func (s *stubQuestionnaires) DailyStatus(context.Context, string) (*model.DailyStatus, error) {
	return &model.DailyStatus{Answered: true, Day: "2024-03-10"}, nil
}

type stubDiary struct{}

func (stubDiary) Create(_ context.Context, userID string, req *model.CreateDiaryRequest) (*model.DiaryEntry, error) {
	return &model.DiaryEntry{ID: "d1", UserID: userID, Text: req.Text}, nil
}

func (stubDiary) List(context.Context, string) ([]*model.DiaryEntry, error) {
	return []*model.DiaryEntry{}, nil
}

type stubChat struct{}

func (stubChat) Send(context.Context, string, *model.ChatRequest) (*model.ChatReply, error) {
	return nil, service.UnavailableError("Desculpe, ocorreu um erro ao processar sua mensagem.", errors.New("timeout"))
}

func (stubChat) Tip(context.Context, string) (string, error) {
	return "", service.NotFoundError("Não encontramos nenhum diagnóstico recente.")
}

type stubInsights struct {
	window int
}

func (s *stubInsights) Report(_ context.Context, userID string, window int) (*model.InsightReport, error) {
	s.window = window
	return &model.InsightReport{UserID: userID, WindowDays: window}, nil
}

type stubReports struct{}

func (stubReports) Build(_ context.Context, userID string) (*model.UserReport, error) {
	return &model.UserReport{User: model.Profile{ID: userID}}, nil
}

type fixture struct {
	router         http.Handler
	auth           *stubAuth
	questionnaires *stubQuestionnaires
	insights       *stubInsights
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hub := ws.NewHub(logger.Nop())
	t.Cleanup(hub.Close)

	f := &fixture{
		auth:           &stubAuth{},
		questionnaires: &stubQuestionnaires{score: &model.Score{Normalized: 8, Level: model.LevelGood, Answered: true}},
		insights:       &stubInsights{},
	}
	f.router = NewRouter(&Container{
		Config: &config.Config{
			CORSOrigins:    "*",
			CORSMethods:    "GET, POST, DELETE, OPTIONS",
			CORSHeaders:    "Content-Type, Authorization",
			RequestTimeout: time.Second,
		},
		Log:                  logger.Nop(),
		AuthService:          f.auth,
		QuestionnaireService: f.questionnaires,
		DiaryService:         stubDiary{},
		ChatService:          stubChat{},
		InsightService:       f.insights,
		ReportService:        stubReports{},
		WSHub:                hub,
	})
	return f
}

func (f *fixture) do(method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RequestIDIsPropagated(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRouter_Auth(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodGet, "/v1/users/u1/score", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = f.do(http.MethodGet, "/v1/users/u1/score", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(http.MethodGet, "/v1/users/u2/score", "tok-u1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RegisterLoginDelete(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodPost, "/v1/auth/register", "", `{"nome":"Ana","email":"ana@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = f.do(http.MethodPost, "/v1/auth/register", "", `{"email":"taken@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Este e-mail já está cadastrado.", body["message"])

	rec, body = f.do(http.MethodPost, "/v1/auth/login", "", `{"email":"ana@example.com","senha":"ok"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-u1", body["token"])

	rec, _ = f.do(http.MethodPost, "/v1/auth/login", "", `{"email":"ana@example.com","senha":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(http.MethodDelete, "/v1/auth/account", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", f.auth.deleted)
}

func TestRouter_Score(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodGet, "/v1/users/u1/score", "tok-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 8.0, body["nota"])
	assert.Equal(t, "Bom", body["nivel"])

	f.questionnaires.score = &model.Score{}
	_, body = f.do(http.MethodGet, "/v1/users/u1/score", "tok-u1", "")
	assert.Equal(t, 0.0, body["nota"])
	assert.NotContains(t, body, "nivel")
	assert.Equal(t, false, body["respondido"])
}

func TestRouter_Submit(t *testing.T) {
	f := newFixture(t)
	payload := `{"respostas":[{"pergunta_id":11,"alternativa_id":112}]}`

	rec, body := f.do(http.MethodPost, "/v1/questionnaires/daily", "tok-u1", payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "q1", body["questionario_id"])
	require.Len(t, f.questionnaires.lastReq.Answers, 1)
	assert.Equal(t, model.AnswerInput{QuestionID: 11, AlternativeID: 112}, f.questionnaires.lastReq.Answers[0])

	f.questionnaires.submitErr = service.ConflictError("Você já respondeu o questionário hoje. Volte amanhã!")
	rec, body = f.do(http.MethodPost, "/v1/questionnaires/daily", "tok-u1", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Você já respondeu o questionário hoje. Volte amanhã!", body["message"])

	rec, _ = f.do(http.MethodPost, "/v1/questionnaires/initial", "tok-u1", `{"respostas":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(http.MethodPost, "/v1/questionnaires/initial", "tok-u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"storage failure", http.MethodGet, "/v1/users/u1/stats", "", http.StatusInternalServerError},
		{"insufficient pool", http.MethodGet, "/v1/questionnaires/daily/questions", "", http.StatusInternalServerError},
		{"assistant down", http.MethodPost, "/v1/chat", `{"message":"oi"}`, http.StatusServiceUnavailable},
		{"no diagnosis", http.MethodGet, "/v1/chat/tip", "", http.StatusNotFound},
		{"bad question filter", http.MethodGet, "/v1/questionnaires/questions?inicial=talvez", "", http.StatusBadRequest},
		{"bad window", http.MethodGet, "/v1/users/u1/insights?janela=abc", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(tt.method, tt.path, "tok-u1", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
			assert.NotContains(t, body["message"], "connection reset")
		})
	}
}

func TestRouter_UserResources(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodGet, "/v1/users/u1/insights?janela=7", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, f.insights.window)
	assert.NotNil(t, body["insights"])

	rec, _ = f.do(http.MethodGet, "/v1/users/u1/insights", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.insights.window)

	rec, body = f.do(http.MethodGet, "/v1/users/u1/daily/status", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ja_respondido"])

	rec, body = f.do(http.MethodGet, "/v1/users/u1/history", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["historico"])

	rec, body = f.do(http.MethodGet, "/v1/users/u1/report", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["relatorio"])

	rec, body = f.do(http.MethodPost, "/v1/diary", "tok-u1", `{"texto":"hoje foi bom"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotNil(t, body["entrada"])

	rec, body = f.do(http.MethodGet, "/v1/questionnaires/questions?inicial=false", "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["perguntas"], 2)
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(http.MethodOptions, "/v1/diary", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
