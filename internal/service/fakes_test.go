package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// In-memory stand-ins for the repositories and caches. The questionnaire and
// diary fakes enforce the same unique keys as the MongoDB indexes.

var errStore = errors.New("store unavailable")

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	seq   int
	fail  error
	marks int
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*model.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) MarkInitialDone(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.InitialQuestionnaire {
		return false, nil
	}
	u.InitialQuestionnaire = true
	f.marks++
	return true, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeQuestions struct {
	all []*model.Question
}

func (f *fakeQuestions) filter(keep func(*model.Question) bool) []*model.Question {
	var out []*model.Question
	for _, q := range f.all {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

func (f *fakeQuestions) GetInitial(context.Context) ([]*model.Question, error) {
	return f.filter(func(q *model.Question) bool { return q.IsInitial() }), nil
}

func (f *fakeQuestions) GetAll(context.Context) ([]*model.Question, error) {
	return f.filter(func(*model.Question) bool { return true }), nil
}

func (f *fakeQuestions) GetDailyPool(context.Context) ([]*model.Question, error) {
	return f.filter(func(q *model.Question) bool { return !q.IsInitial() }), nil
}

func (f *fakeQuestions) GetByIDs(_ context.Context, ids []int) ([]*model.Question, error) {
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return f.filter(func(q *model.Question) bool { return want[q.ID] }), nil
}

func (f *fakeQuestions) Upsert(_ context.Context, q *model.Question) error {
	f.all = append(f.all, q)
	return nil
}

type fakeQuestionnaires struct {
	mu   sync.Mutex
	list []*model.Questionnaire
	seq  int
	// skipPrecheck makes ExistsForDay lie, so only Create's unique keys guard
	skipPrecheck bool
}

func (f *fakeQuestionnaires) Create(_ context.Context, q *model.Questionnaire) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.list {
		if e.UserID != q.UserID {
			continue
		}
		if e.Day == q.Day || (e.Kind == model.KindInitial && q.Kind == model.KindInitial) {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	q.ID = fmt.Sprintf("q-%d", f.seq)
	f.list = append(f.list, q)
	return nil
}

func (f *fakeQuestionnaires) ExistsForDay(_ context.Context, userID, day string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipPrecheck {
		return false, nil
	}
	for _, e := range f.list {
		if e.UserID == userID && e.Day == day {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuestionnaires) HasInitial(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.list {
		if e.UserID == userID && e.Kind == model.KindInitial {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuestionnaires) ListByUser(ctx context.Context, userID string) ([]*model.Questionnaire, error) {
	return f.ListSince(ctx, userID, "")
}

func (f *fakeQuestionnaires) ListSince(_ context.Context, userID, fromDay string) ([]*model.Questionnaire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Questionnaire{}
	for _, e := range f.list {
		if e.UserID == userID && e.Day >= fromDay {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeQuestionnaires) CountByUser(ctx context.Context, userID string) (int64, error) {
	list, _ := f.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

func (f *fakeQuestionnaires) Totals(ctx context.Context, userID string) (*repository.ScoreTotals, error) {
	list, _ := f.ListByUser(ctx, userID)
	t := &repository.ScoreTotals{}
	for _, q := range list {
		for _, a := range q.Answers {
			t.Raw += a.Points
			t.Answers++
		}
	}
	return t, nil
}

func (f *fakeQuestionnaires) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.list[:0]
	for _, e := range f.list {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	f.list = kept
	return nil
}

type fakeDiary struct {
	mu      sync.Mutex
	entries []*model.DiaryEntry
	seq     int
	applied int
}

func (f *fakeDiary) Create(_ context.Context, e *model.DiaryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.UserID == e.UserID && x.Day == e.Day {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	e.ID = fmt.Sprintf("d-%d", f.seq)
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeDiary) GetByID(_ context.Context, id string) (*model.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.ID == id {
			cp := *x
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDiary) ExistsForDay(_ context.Context, userID, day string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.UserID == userID && x.Day == day {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDiary) ApplyAnalysis(_ context.Context, id string, a *model.DiaryAnalysis, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.ID != id {
			continue
		}
		if x.AnalyzedAt != nil {
			return false, nil
		}
		emotion, intensity, comment := a.Emotion, a.Intensity, a.Comment
		x.Emotion, x.Intensity, x.Comment, x.AnalyzedAt = &emotion, &intensity, &comment, &at
		f.applied++
		return true, nil
	}
	return false, nil
}

func (f *fakeDiary) ListByUser(_ context.Context, userID string) ([]*model.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.DiaryEntry{}
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			cp := *f.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDiary) ListAnalyzedSince(_ context.Context, userID, fromDay string) ([]*model.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.DiaryEntry
	for _, x := range f.entries {
		if x.UserID == userID && x.Day >= fromDay && x.AnalyzedAt != nil {
			cp := *x
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDiary) ListPending(_ context.Context, before time.Time, limit int64) ([]*model.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.DiaryEntry
	for _, x := range f.entries {
		if x.AnalyzedAt == nil && x.CreatedAt.Before(before) && int64(len(out)) < limit {
			cp := *x
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDiary) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	for _, x := range f.entries {
		if x.UserID != userID {
			kept = append(kept, x)
		}
	}
	f.entries = kept
	return nil
}

type fakeDiagnoses struct {
	mu   sync.Mutex
	list []*model.Diagnosis
}

func (f *fakeDiagnoses) Create(_ context.Context, d *model.Diagnosis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = fmt.Sprintf("diag-%d", len(f.list)+1)
	f.list = append(f.list, d)
	return nil
}

func (f *fakeDiagnoses) Latest(_ context.Context, userID string) (*model.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.list) - 1; i >= 0; i-- {
		if f.list[i].UserID == userID {
			return f.list[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDiagnoses) ListByUser(_ context.Context, userID string) ([]*model.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Diagnosis{}
	for _, d := range f.list {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiagnoses) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.list[:0]
	for _, d := range f.list {
		if d.UserID != userID {
			kept = append(kept, d)
		}
	}
	f.list = kept
	return nil
}

type fakeGateCache struct {
	mu    sync.Mutex
	marks map[string]bool
	fail  error
}

func newFakeGateCache() *fakeGateCache { return &fakeGateCache{marks: map[string]bool{}} }

func (f *fakeGateCache) IsMarked(_ context.Context, scope, userID, day string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return false, f.fail
	}
	return f.marks[scope+userID+day], nil
}

func (f *fakeGateCache) Mark(_ context.Context, scope, userID, day string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.marks[scope+userID+day] = true
	return nil
}

func (f *fakeGateCache) Clear(_ context.Context, scope, userID, day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.marks, scope+userID+day)
	return nil
}

type fakePoolCache struct {
	pool []*model.Question
}

func (f *fakePoolCache) SetPool(_ context.Context, pool []*model.Question) error {
	f.pool = pool
	return nil
}

func (f *fakePoolCache) GetPool(context.Context) ([]*model.Question, error) { return f.pool, nil }

func (f *fakePoolCache) DeletePool(context.Context) error {
	f.pool = nil
	return nil
}

type fakeInsightCache struct {
	mu          sync.Mutex
	reports     map[string]*model.InsightReport
	versions    map[string]int64
	invalidated int
}

func newFakeInsightCache() *fakeInsightCache {
	return &fakeInsightCache{reports: map[string]*model.InsightReport{}, versions: map[string]int64{}}
}

func (f *fakeInsightCache) Version(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[userID], nil
}

func (f *fakeInsightCache) Get(_ context.Context, userID string, window int) (*model.InsightReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[fmt.Sprintf("%s/%d", userID, window)], nil
}

func (f *fakeInsightCache) Set(_ context.Context, r *model.InsightReport, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versions[r.UserID] != version {
		return nil
	}
	f.reports[fmt.Sprintf("%s/%d", r.UserID, r.WindowDays)] = r
	return nil
}

func (f *fakeInsightCache) Invalidate(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, r := range f.reports {
		if r.UserID == userID {
			delete(f.reports, k)
		}
	}
	f.versions[userID]++
	f.invalidated++
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*model.ChatSession{}}
}

func (f *fakeSessions) Update(_ context.Context, userID string, fn func(*model.ChatSession) error) (*model.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.ChatSession{UserID: userID}
	if cur, ok := f.sessions[userID]; ok {
		cp := *cur
		cp.Turns = append([]model.ChatMessage(nil), cur.Turns...)
		cp.Pending = append([]string(nil), cur.Pending...)
		s = &cp
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	f.sessions[userID] = s
	out := *s
	return &out, nil
}

func (f *fakeSessions) Get(_ context.Context, userID string) (*model.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	return nil
}

type fakeAssistant struct {
	mu          sync.Mutex
	analysis    model.DiaryAnalysis
	replyErr    error
	diagnoseErr error
	diagnosed   [][]string
	tipFor      []string
}

func (f *fakeAssistant) AnalyzeDiary(context.Context, string) *model.DiaryAnalysis {
	a := f.analysis
	return &a
}

func (f *fakeAssistant) Reply(_ context.Context, turns []model.ChatMessage) (string, error) {
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return fmt.Sprintf("resposta %d", len(turns)), nil
}

func (f *fakeAssistant) Diagnose(_ context.Context, msgs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.diagnoseErr != nil {
		return "", f.diagnoseErr
	}
	f.diagnosed = append(f.diagnosed, msgs)
	return fmt.Sprintf("diagnóstico de %d mensagens", len(msgs)), nil
}

func (f *fakeAssistant) Tip(_ context.Context, diagnosis string) (string, error) {
	f.tipFor = append(f.tipFor, diagnosis)
	return "dica", nil
}

type sentEvent struct {
	userID  string
	msgType string
	payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeBroadcaster) SendToUser(userID, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{userID, msgType, payload})
}

func (f *fakeBroadcaster) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.msgType
	}
	return out
}

// fixedClock returns a settable clock starting at the given instant
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var saoPaulo = time.FixedZone("BRT", -3*60*60)

// testEnv wires every service over the fakes
type testEnv struct {
	clock          *fixedClock
	users          *fakeUsers
	questions      *fakeQuestions
	questionnaires *fakeQuestionnaires
	diary          *fakeDiary
	diagnoses      *fakeDiagnoses
	gateCache      *fakeGateCache
	pool           *fakePoolCache
	insightCache   *fakeInsightCache
	sessions       *fakeSessions
	assistant      *fakeAssistant
	events         *fakeBroadcaster
	gate           *DailyGate
	log            *logger.Logger
}

func newTestEnv() *testEnv {
	env := &testEnv{
		clock:          &fixedClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, saoPaulo)},
		users:          newFakeUsers(&model.User{ID: "u1", Name: "Ana", Email: "ana@example.com", BirthDate: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)}),
		questions:      &fakeQuestions{all: catalog(10, 12)},
		questionnaires: &fakeQuestionnaires{},
		diary:          &fakeDiary{},
		diagnoses:      &fakeDiagnoses{},
		gateCache:      newFakeGateCache(),
		pool:           &fakePoolCache{},
		insightCache:   newFakeInsightCache(),
		sessions:       newFakeSessions(),
		assistant:      &fakeAssistant{analysis: model.DiaryAnalysis{Emotion: "calma", Intensity: model.IntensityLow, Comment: "ok"}},
		events:         &fakeBroadcaster{},
		log:            logger.Nop(),
	}
	env.gate = NewDailyGate(env.questionnaires, env.diary, env.gateCache, saoPaulo, env.log)
	env.gate.SetClock(env.clock.Now)
	return env
}

func (e *testEnv) questionnaireService() *QuestionnaireService {
	s := NewQuestionnaireService(e.users, e.questions, e.questionnaires, e.pool, e.insightCache, e.gate, e.log)
	s.SetBroadcaster(e.events)
	return s
}

func (e *testEnv) diaryService() *DiaryService {
	s := NewDiaryService(e.users, e.diary, e.assistant, e.gate, e.insightCache, e.log)
	s.SetBroadcaster(e.events)
	return s
}

func (e *testEnv) insightService() *InsightService {
	return NewInsightService(e.users, e.questionnaires, e.diary, e.insightCache, e.gate, e.log)
}

func (e *testEnv) chatService() *ChatService {
	s := NewChatService(e.sessions, e.diagnoses, e.assistant, e.log)
	s.SetBroadcaster(e.events)
	return s
}

// catalog builds initial questions 1..initial and daily questions after them.
// Alternative k of every question is worth k-1 points.
func catalog(initial, daily int) []*model.Question {
	var out []*model.Question
	for id := 1; id <= initial+daily; id++ {
		q := &model.Question{ID: id, Text: fmt.Sprintf("Pergunta %d", id)}
		for k := 1; k <= 5; k++ {
			q.Alternatives = append(q.Alternatives, model.Alternative{
				ID:     id*10 + k,
				Text:   fmt.Sprintf("Alternativa %d", k),
				Points: k - 1,
			})
		}
		out = append(out, q)
	}
	return out
}

// answer picks the alternative of question id worth points
func answer(id, points int) model.AnswerInput {
	return model.AnswerInput{QuestionID: id, AlternativeID: id*10 + points + 1}
}
