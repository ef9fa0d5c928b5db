package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"mindtracking/internal/cache"
	"mindtracking/internal/config"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
	"mindtracking/internal/service"
	"mindtracking/internal/transport/rest"
	"mindtracking/internal/transport/ws"
)

// App owns the process-wide connections and the wired services
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Mongo *mongo.Client
	DB    *mongo.Database
	Redis *redis.Client
	Hub   *ws.Hub

	Auth           *service.AuthService
	Questionnaires *service.QuestionnaireService
	Diary          *service.DiaryService
	Chat           *service.ChatService
	Insights       *service.InsightService
	Reports        *service.ReportService
}

// New connects to MongoDB and Redis, ensures indexes and wires every service
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("connected to MongoDB", "db", cfg.MongoDB)

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// The caches are advisory; the unique indexes keep the rules without them
		log.Warn("redis unavailable, running on storage checks only", "addr", cfg.RedisAddr, "error", err)
	} else {
		log.Info("connected to Redis", "addr", cfg.RedisAddr)
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Mongo:  mongoClient,
		DB:     db,
		Redis:  rdb,
		Hub:    ws.NewHub(log),
	}
	a.wire()
	return a, nil
}

func (a *App) wire() {
	// Repositories
	users := repository.NewUserRepo(a.DB)
	questions := repository.NewQuestionRepo(a.DB)
	questionnaires := repository.NewQuestionnaireRepo(a.DB)
	diary := repository.NewDiaryRepo(a.DB)
	diagnoses := repository.NewDiagnosisRepo(a.DB)

	// Caches
	gateCache := cache.NewGateCache(a.Redis)
	poolCache := cache.NewPoolCache(a.Redis)
	sessionCache := cache.NewSessionCache(a.Redis)
	insightCache := cache.NewInsightCache(a.Redis)

	// Services
	gate := service.NewDailyGate(questionnaires, diary, gateCache, a.Config.Location, a.Log)
	companion := service.NewCompanionService(a.Config.AI)

	a.Questionnaires = service.NewQuestionnaireService(users, questions, questionnaires, poolCache, insightCache, gate, a.Log)
	a.Diary = service.NewDiaryService(users, diary, companion, gate, insightCache, a.Log)
	a.Chat = service.NewChatService(sessionCache, diagnoses, companion, a.Log)
	a.Insights = service.NewInsightService(users, questionnaires, diary, insightCache, gate, a.Log)
	a.Reports = service.NewReportService(users, questionnaires, diary, diagnoses, a.Insights, gate, a.Log)
	a.Auth = service.NewAuthService(users, questionnaires, diary, diagnoses, a.Chat, gate, a.Config.JWTSecret, a.Log)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	a.Questionnaires.SetBroadcaster(a.Hub)
	a.Diary.SetBroadcaster(a.Hub)
	a.Chat.SetBroadcaster(a.Hub)
}

// Router builds the HTTP handler
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		Config:               a.Config,
		Log:                  a.Log,
		AuthService:          a.Auth,
		QuestionnaireService: a.Questionnaires,
		DiaryService:         a.Diary,
		ChatService:          a.Chat,
		InsightService:       a.Insights,
		ReportService:        a.Reports,
		WSHub:                a.Hub,
	})
}

// Run serves HTTP and runs the diary sweeper until ctx is cancelled, then
// shuts down gracefully and waits for in-flight diary enrichments.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("server starting", "port", a.Config.Port, "ai_enabled", a.Config.AI.IsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.Diary.RunSweeper(gctx, a.Config.EnrichInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Diary.Wait()
	a.Hub.Close()
	return err
}

// Close releases the connections
func (a *App) Close(ctx context.Context) {
	if err := a.Redis.Close(); err != nil {
		a.Log.Warn("redis close failed", "error", err)
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.Log.Warn("mongo disconnect failed", "error", err)
	}
}
