package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindtracking/internal/model"
)

func TestDiaryService_CreateEnrichesInBackground(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	entry, err := svc.Create(ctx, "u1", &model.CreateDiaryRequest{Text: "Hoje foi um dia tranquilo no trabalho."})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2024-03-10", entry.Day)
	assert.Nil(t, entry.AnalyzedAt)

	svc.Wait()

	stored, err := env.diary.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AnalyzedAt)
	assert.Equal(t, "calma", *stored.Emotion)
	assert.Equal(t, model.IntensityLow, *stored.Intensity)
	assert.Equal(t, []string{EventDiaryAnalyzed}, env.events.types())
	assert.Equal(t, 1, env.insightCache.invalidated)
}

func TestDiaryService_OncePerDay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	_, err := svc.Create(ctx, "u1", &model.CreateDiaryRequest{Text: "primeira entrada do dia"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", &model.CreateDiaryRequest{Text: "segunda entrada do dia"})
	assert.Equal(t, KindConflict, KindOf(err))

	env.clock.Advance(24 * time.Hour)
	_, err = svc.Create(ctx, "u1", &model.CreateDiaryRequest{Text: "entrada de amanhã"})
	assert.NoError(t, err)
	svc.Wait()
}

func TestDiaryService_Validation(t *testing.T) {
	env := newTestEnv()
	svc := env.diaryService()

	for _, req := range []*model.CreateDiaryRequest{nil, {}, {Text: strings.Repeat("a", 5001)}} {
		_, err := svc.Create(context.Background(), "u1", req)
		assert.Equal(t, KindValidation, KindOf(err))
	}
	assert.Empty(t, env.diary.entries)
}

func TestDiaryService_EnrichIsAppliedOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	entry := &model.DiaryEntry{UserID: "u1", Day: "2024-03-10", Text: "texto"}
	require.NoError(t, env.diary.Create(ctx, entry))

	require.NoError(t, svc.Enrich(ctx, entry))
	env.assistant.analysis = model.DiaryAnalysis{Emotion: "raiva", Intensity: model.IntensityHigh, Comment: "outro"}
	require.NoError(t, svc.Enrich(ctx, entry))

	stored, _ := env.diary.GetByID(ctx, entry.ID)
	assert.Equal(t, "calma", *stored.Emotion)
	assert.Equal(t, 1, env.diary.applied)
	assert.Len(t, env.events.types(), 1)
}

func TestDiaryService_EnrichPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	old := env.clock.Now().Add(-10 * time.Minute)
	for _, day := range []string{"2024-03-08", "2024-03-09"} {
		require.NoError(t, env.diary.Create(ctx, &model.DiaryEntry{UserID: "u1", Day: day, CreatedAt: old, Text: "texto"}))
	}
	require.NoError(t, env.diary.Create(ctx, &model.DiaryEntry{UserID: "u1", Day: "2024-03-10", CreatedAt: env.clock.Now(), Text: "recente"}))

	n, err := svc.EnrichPending(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.EnrichPending(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDiaryService_RunSweeperStopsOnCancel(t *testing.T) {
	env := newTestEnv()
	svc := env.diaryService()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestDiaryService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, env.diary.Create(ctx, &model.DiaryEntry{UserID: "u1", Day: "2024-03-09", Text: "ontem"}))
	require.NoError(t, env.diary.Create(ctx, &model.DiaryEntry{UserID: "u1", Day: "2024-03-10", Text: "hoje"}))

	list, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hoje", list[0].Text)
}

func TestDiaryService_UnknownUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := env.diaryService()

	_, err := svc.List(ctx, "ghost")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.Create(ctx, "ghost", &model.CreateDiaryRequest{Text: "texto de quem não existe"})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, env.diary.entries)
}
