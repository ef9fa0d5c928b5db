package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"mindtracking/internal/config"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/transport/rest/handler"
	"mindtracking/internal/transport/rest/middleware"
	"mindtracking/internal/transport/ws"
)

// AuthAPI is everything the router needs from the auth service
type AuthAPI interface {
	handler.AuthAPI
	middleware.TokenValidator
}

// Container holds all dependencies for the router
type Container struct {
	Config               *config.Config
	Log                  *logger.Logger
	AuthService          AuthAPI
	QuestionnaireService handler.QuestionnaireAPI
	DiaryService         handler.DiaryAPI
	ChatService          handler.ChatAPI
	InsightService       handler.InsightAPI
	ReportService        handler.ReportAPI
	WSHub                *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.Log)
	questionnaireHandler := handler.NewQuestionnaireHandler(c.QuestionnaireService, c.Log)
	diaryHandler := handler.NewDiaryHandler(c.DiaryService, c.Log)
	chatHandler := handler.NewChatHandler(c.ChatService, c.Log)
	reportHandler := handler.NewReportHandler(c.InsightService, c.ReportService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// Request id first so every later layer can log it
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(c.Log))
	r.Use(middleware.Recover(c.Log))
	r.Use(middleware.CORS(c.Config.CORSOrigins, c.Config.CORSMethods, c.Config.CORSHeaders))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.Serve).Methods("GET")

	api := v1.NewRoute().Subrouter()
	api.Use(middleware.Timeout(c.Config.RequestTimeout))

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// User routes (require auth)
	userRoutes := api.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/account", authHandler.DeleteAccount).Methods("DELETE", "OPTIONS")

	userRoutes.HandleFunc("/questionnaires/questions", questionnaireHandler.Questions).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/initial", questionnaireHandler.SubmitInitial).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/daily/questions", questionnaireHandler.DailyQuestions).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/daily", questionnaireHandler.SubmitDaily).Methods("POST", "OPTIONS")

	userRoutes.HandleFunc("/users/{userId}/score", questionnaireHandler.Score).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/{userId}/history", questionnaireHandler.History).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/{userId}/stats", questionnaireHandler.Stats).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/{userId}/daily/status", questionnaireHandler.DailyStatus).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/{userId}/insights", reportHandler.Insights).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/{userId}/report", reportHandler.Report).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/diary", diaryHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/diary", diaryHandler.List).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/chat", chatHandler.Send).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/chat/tip", chatHandler.Tip).Methods("GET", "OPTIONS")

	return r
}
