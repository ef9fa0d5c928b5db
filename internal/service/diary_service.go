package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"mindtracking/internal/cache"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// DiaryService writes diary entries in two phases: the shell is stored
// immediately and the derived fields are filled later by the assistant.
type DiaryService struct {
	users         repository.UserRepo
	diary         repository.DiaryRepo
	assistant     Assistant
	gate          *DailyGate
	insights      cache.InsightCache
	broadcaster   Broadcaster
	log           *logger.Logger
	enrichTimeout time.Duration
	wg            sync.WaitGroup
}

// NewDiaryService creates a new diary service
func NewDiaryService(
	users repository.UserRepo,
	diary repository.DiaryRepo,
	assistant Assistant,
	gate *DailyGate,
	insights cache.InsightCache,
	log *logger.Logger,
) *DiaryService {
	return &DiaryService{
		users:         users,
		diary:         diary,
		assistant:     assistant,
		gate:          gate,
		insights:      insights,
		log:           log,
		enrichTimeout: 30 * time.Second,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *DiaryService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create stores the shell entry and starts enrichment in the background
func (s *DiaryService) Create(ctx context.Context, userID string, req *model.CreateDiaryRequest) (*model.DiaryEntry, error) {
	if req == nil {
		return nil, ValidationError("O campo texto é obrigatório.")
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	day := s.gate.Today()
	if err := s.gate.CheckDiary(ctx, userID, day); err != nil {
		return nil, err
	}

	entry := &model.DiaryEntry{
		UserID:    userID,
		Day:       day,
		CreatedAt: s.gate.Now(),
		Text:      req.Text,
	}
	if err := s.diary.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.gate.RecordDiary(ctx, userID, day)
			return nil, ConflictError("Você já escreveu no diário hoje. Volte amanhã!")
		}
		return nil, StorageError("create diary entry", err)
	}
	s.gate.RecordDiary(ctx, userID, day)

	shell := *entry
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.enrichTimeout)
		defer cancel()
		if err := s.Enrich(ctx, &shell); err != nil {
			s.log.Warn("diary enrichment failed, sweeper will retry", "entry", shell.ID, "error", err)
		}
	}()

	return entry, nil
}

// Enrich analyzes entry and applies the result once. A second call for an
// already analyzed entry is a no-op.
func (s *DiaryService) Enrich(ctx context.Context, entry *model.DiaryEntry) error {
	analysis := s.assistant.AnalyzeDiary(ctx, entry.Text)
	at := s.gate.Now()

	applied, err := s.diary.ApplyAnalysis(ctx, entry.ID, analysis, at)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	entry.Emotion = &analysis.Emotion
	entry.Intensity = &analysis.Intensity
	entry.Comment = &analysis.Comment
	entry.AnalyzedAt = &at

	if err := s.insights.Invalidate(ctx, entry.UserID); err != nil {
		s.log.Warn("insight cache invalidate failed", "user", entry.UserID, "error", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.SendToUser(entry.UserID, EventDiaryAnalyzed, entry)
	}
	s.log.Info("diary entry analyzed", "entry", entry.ID, "emotion", analysis.Emotion, "intensity", analysis.Intensity)
	return nil
}

// List returns the user's entries newest first
func (s *DiaryService) List(ctx context.Context, userID string) ([]*model.DiaryEntry, error) {
	if err := requireUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	entries, err := s.diary.ListByUser(ctx, userID)
	if err != nil {
		return nil, StorageError("list diary entries", err)
	}
	return entries, nil
}

// EnrichPending retries shells older than minAge that were never analyzed
func (s *DiaryService) EnrichPending(ctx context.Context, minAge time.Duration, limit int64) (int, error) {
	pending, err := s.diary.ListPending(ctx, s.gate.Now().Add(-minAge), limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := s.Enrich(ctx, e); err != nil {
			s.log.Warn("pending diary enrichment failed", "entry", e.ID, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

// RunSweeper calls EnrichPending every interval until ctx is done
func (s *DiaryService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.EnrichPending(ctx, interval, 50)
			if err != nil {
				s.log.Error("diary sweeper failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("diary sweeper enriched entries", "count", n)
			}
		}
	}
}

// Wait blocks until in-flight enrichments finish
func (s *DiaryService) Wait() {
	s.wg.Wait()
}
