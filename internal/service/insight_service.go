package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"mindtracking/internal/cache"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// InsightService builds trend and correlation reports over a lookback window
type InsightService struct {
	users          repository.UserRepo
	questionnaires repository.QuestionnaireRepo
	diary          repository.DiaryRepo
	cache          cache.InsightCache
	gate           *DailyGate
	log            *logger.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(
	users repository.UserRepo,
	questionnaires repository.QuestionnaireRepo,
	diary repository.DiaryRepo,
	insightCache cache.InsightCache,
	gate *DailyGate,
	log *logger.Logger,
) *InsightService {
	return &InsightService{
		users:          users,
		questionnaires: questionnaires,
		diary:          diary,
		cache:          insightCache,
		gate:           gate,
		log:            log,
	}
}

// Report returns the insight report for the last window days, ending today.
// window 0 selects the default.
func (s *InsightService) Report(ctx context.Context, userID string, window int) (*model.InsightReport, error) {
	if window == 0 {
		window = model.DefaultInsightWindow
	}
	if window < 1 || window > model.MaxInsightWindow {
		return nil, ValidationError("A janela deve estar entre 1 e 365 dias.")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if user == nil {
		return nil, NotFoundError(msgUserNotFound)
	}

	// Read before loading the series so a concurrent invalidation blocks the store
	version, verErr := s.cache.Version(ctx, userID)
	if verErr != nil {
		s.log.Warn("insight cache version read failed", "user", userID, "error", verErr)
	}

	if cached, err := s.cache.Get(ctx, userID, window); err != nil {
		s.log.Warn("insight cache read failed", "user", userID, "error", err)
	} else if cached != nil && cached.To == s.gate.Today() {
		return cached, nil
	}

	from := s.gate.DaysBack(window)
	var (
		questionnaires []*model.Questionnaire
		entries        []*model.DiaryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questionnaires, err = s.questionnaires.ListSince(gctx, userID, from)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.diary.ListAnalyzedSince(gctx, userID, from)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, StorageError("load insight series", err)
	}

	report := Analyze(userID, window, from, s.gate.Today(), ScoreSeries(questionnaires), s.IntensitySeries(entries))
	report.GeneratedAt = s.gate.Now()

	if verErr == nil {
		if err := s.cache.Set(ctx, report, version); err != nil {
			s.log.Warn("insight cache write failed", "user", userID, "error", err)
		}
	}
	return report, nil
}

// Analyze assembles a report from already loaded series
func Analyze(userID string, window int, from, to string, scores []model.ScorePoint, diary []model.IntensityPoint) *model.InsightReport {
	pairs := PairSameDay(scores, diary)
	return &model.InsightReport{
		UserID:         userID,
		WindowDays:     window,
		From:           from,
		To:             to,
		Correlation:    Correlate(pairs),
		ScoreTrend:     ScoreTrend(scores),
		IntensityTrend: IntensityTrend(diary),
		Pairs:          pairs,
	}
}

// ScoreSeries converts instances into score points ordered by day, skipping empty instances
func ScoreSeries(list []*model.Questionnaire) []model.ScorePoint {
	out := make([]model.ScorePoint, 0, len(list))
	for _, q := range list {
		score := ComputeScore(q.Points())
		if !score.Answered {
			continue
		}
		out = append(out, model.ScorePoint{Day: q.Day, SubmittedAt: q.CreatedAt, Normalized: score.Normalized})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// IntensitySeries converts analyzed diary entries into intensity points
func (s *InsightService) IntensitySeries(entries []*model.DiaryEntry) []model.IntensityPoint {
	out := make([]model.IntensityPoint, 0, len(entries))
	for _, e := range entries {
		if e.Intensity == nil {
			continue
		}
		if _, ok := e.Intensity.Weight(); !ok {
			continue
		}
		day := e.Day
		if day == "" {
			day = s.gate.DayOf(e.CreatedAt)
		}
		out = append(out, model.IntensityPoint{Day: day, At: e.CreatedAt, Intensity: *e.Intensity})
	}
	return out
}
