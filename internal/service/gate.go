package service

import (
	"context"
	"time"

	"mindtracking/internal/cache"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

const dayLayout = "2006-01-02"

// Gate scopes: one questionnaire of any kind and one diary entry per day
const (
	scopeQuestionnaire = "questionnaire"
	scopeDiary         = "diary"
)

// DailyGate answers "has this user already written today?". Its checks are
// advisory; the unique indexes behind the repositories are the real guard.
type DailyGate struct {
	questionnaires repository.QuestionnaireRepo
	diary          repository.DiaryRepo
	cache          cache.GateCache
	loc            *time.Location
	now            func() time.Time
	log            *logger.Logger
}

// NewDailyGate creates a gate that evaluates calendar days in loc
func NewDailyGate(
	questionnaires repository.QuestionnaireRepo,
	diary repository.DiaryRepo,
	gateCache cache.GateCache,
	loc *time.Location,
	log *logger.Logger,
) *DailyGate {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyGate{
		questionnaires: questionnaires,
		diary:          diary,
		cache:          gateCache,
		loc:            loc,
		now:            time.Now,
		log:            log,
	}
}

// SetClock replaces the time source
func (g *DailyGate) SetClock(now func() time.Time) { g.now = now }

// Now returns the current instant
func (g *DailyGate) Now() time.Time { return g.now() }

// Today returns the current calendar day in the gate's timezone
func (g *DailyGate) Today() string { return g.DayOf(g.now()) }

// DayOf formats t as a calendar day in the gate's timezone
func (g *DailyGate) DayOf(t time.Time) string { return t.In(g.loc).Format(dayLayout) }

// DaysBack returns the day n-1 days before today, so a window of n days ends today
func (g *DailyGate) DaysBack(n int) string {
	return g.DayOf(g.now().In(g.loc).AddDate(0, 0, -(n - 1)))
}

// CheckQuestionnaire rejects when the user already has an instance for day
func (g *DailyGate) CheckQuestionnaire(ctx context.Context, userID, day string) error {
	return g.check(ctx, scopeQuestionnaire, userID, day, g.questionnaires.ExistsForDay,
		"Você já respondeu o questionário hoje. Volte amanhã!")
}

// CheckDiary rejects when the user already has a diary entry for day
func (g *DailyGate) CheckDiary(ctx context.Context, userID, day string) error {
	return g.check(ctx, scopeDiary, userID, day, g.diary.ExistsForDay,
		"Você já escreveu no diário hoje. Volte amanhã!")
}

func (g *DailyGate) check(
	ctx context.Context,
	scope, userID, day string,
	exists func(ctx context.Context, userID, day string) (bool, error),
	msg string,
) error {
	marked, err := g.cache.IsMarked(ctx, scope, userID, day)
	if err != nil {
		g.log.Warn("gate cache unavailable, falling back to storage", "scope", scope, "error", err)
	} else if marked {
		return ConflictError(msg)
	}

	found, err := exists(ctx, userID, day)
	if err != nil {
		return StorageError("gate pre-check", err)
	}
	if found {
		g.mark(ctx, scope, userID, day)
		return ConflictError(msg)
	}
	return nil
}

// Answered reports whether a questionnaire exists for day
func (g *DailyGate) Answered(ctx context.Context, userID, day string) (bool, error) {
	if marked, err := g.cache.IsMarked(ctx, scopeQuestionnaire, userID, day); err == nil && marked {
		return true, nil
	}
	found, err := g.questionnaires.ExistsForDay(ctx, userID, day)
	if err != nil {
		return false, StorageError("daily status", err)
	}
	return found, nil
}

// RecordQuestionnaire marks the fast path after a successful insert
func (g *DailyGate) RecordQuestionnaire(ctx context.Context, userID, day string) {
	g.mark(ctx, scopeQuestionnaire, userID, day)
}

// RecordDiary marks the fast path after a successful insert
func (g *DailyGate) RecordDiary(ctx context.Context, userID, day string) {
	g.mark(ctx, scopeDiary, userID, day)
}

func (g *DailyGate) mark(ctx context.Context, scope, userID, day string) {
	if err := g.cache.Mark(ctx, scope, userID, day, g.untilEndOfDay()); err != nil {
		g.log.Warn("gate cache mark failed", "scope", scope, "error", err)
	}
}

// Forget drops today's marks, used when an account is deleted
func (g *DailyGate) Forget(ctx context.Context, userID string) {
	day := g.Today()
	for _, scope := range []string{scopeQuestionnaire, scopeDiary} {
		if err := g.cache.Clear(ctx, scope, userID, day); err != nil {
			g.log.Warn("gate cache clear failed", "scope", scope, "error", err)
		}
	}
}

func (g *DailyGate) untilEndOfDay() time.Duration {
	now := g.now().In(g.loc)
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, g.loc)
	return next.Sub(now)
}
