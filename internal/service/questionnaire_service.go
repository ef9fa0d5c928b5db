package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"mindtracking/internal/cache"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// QuestionnaireService handles the catalog, submissions, scores and history
type QuestionnaireService struct {
	users          repository.UserRepo
	questions      repository.QuestionRepo
	questionnaires repository.QuestionnaireRepo
	pool           cache.PoolCache
	insights       cache.InsightCache
	gate           *DailyGate
	shuffle        func(n int, swap func(i, j int))
	broadcaster    Broadcaster
	log            *logger.Logger
}

// NewQuestionnaireService creates a new questionnaire service
func NewQuestionnaireService(
	users repository.UserRepo,
	questions repository.QuestionRepo,
	questionnaires repository.QuestionnaireRepo,
	pool cache.PoolCache,
	insights cache.InsightCache,
	gate *DailyGate,
	log *logger.Logger,
) *QuestionnaireService {
	return &QuestionnaireService{
		users:          users,
		questions:      questions,
		questionnaires: questionnaires,
		pool:           pool,
		insights:       insights,
		gate:           gate,
		shuffle:        rand.Shuffle,
		log:            log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *QuestionnaireService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetShuffle replaces the shuffle used for daily selection
func (s *QuestionnaireService) SetShuffle(shuffle func(n int, swap func(i, j int))) {
	s.shuffle = shuffle
}

// Questions returns the initial questions, or the whole catalog when initialOnly is false
func (s *QuestionnaireService) Questions(ctx context.Context, initialOnly bool) ([]*model.Question, error) {
	var (
		qs  []*model.Question
		err error
	)
	if initialOnly {
		qs, err = s.questions.GetInitial(ctx)
	} else {
		qs, err = s.questions.GetAll(ctx)
	}
	if err != nil {
		return nil, StorageError("load questions", err)
	}
	if len(qs) == 0 {
		return nil, NotFoundError("Nenhuma pergunta encontrada para este tipo de questionário.")
	}
	return qs, nil
}

// DailyQuestions draws a random daily session from the pool
func (s *QuestionnaireService) DailyQuestions(ctx context.Context) ([]*model.Question, error) {
	pool, err := s.dailyPool(ctx)
	if err != nil {
		return nil, err
	}
	return SelectDailyQuestions(pool, s.shuffle)
}

func (s *QuestionnaireService) dailyPool(ctx context.Context) ([]*model.Question, error) {
	pool, err := s.pool.GetPool(ctx)
	if err != nil {
		s.log.Warn("pool cache read failed", "error", err)
	}
	if len(pool) > 0 {
		return pool, nil
	}

	pool, err = s.questions.GetDailyPool(ctx)
	if err != nil {
		return nil, StorageError("load daily pool", err)
	}
	if len(pool) > 0 {
		if err := s.pool.SetPool(ctx, pool); err != nil {
			s.log.Warn("pool cache write failed", "error", err)
		}
	}
	return pool, nil
}

// SubmitInitial stores the one-time initial questionnaire and flips the user flag
func (s *QuestionnaireService) SubmitInitial(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error) {
	return s.submit(ctx, userID, model.KindInitial, req)
}

// SubmitDaily stores today's questionnaire
func (s *QuestionnaireService) SubmitDaily(ctx context.Context, userID string, req *model.SubmitRequest) (*model.Questionnaire, error) {
	return s.submit(ctx, userID, model.KindDaily, req)
}

func (s *QuestionnaireService) submit(ctx context.Context, userID string, kind model.QuestionnaireKind, req *model.SubmitRequest) (*model.Questionnaire, error) {
	if req == nil {
		return nil, ValidationError("Dados inválidos. Por favor, forneça pelo menos uma resposta.")
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if kind == model.KindDaily && len(req.Answers) > model.MaxDailyAnswers {
		return nil, ValidationError("O questionário diário aceita no máximo 10 respostas.")
	}
	seen := make(map[int]bool, len(req.Answers))
	for _, a := range req.Answers {
		if seen[a.QuestionID] {
			return nil, ValidationError("Cada pergunta só pode ser respondida uma vez.")
		}
		seen[a.QuestionID] = true
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if user == nil {
		return nil, NotFoundError(msgUserNotFound)
	}

	day := s.gate.Today()
	if kind == model.KindInitial && user.InitialQuestionnaire {
		return nil, ConflictError("Você já respondeu o questionário inicial. Não é possível enviar novas respostas.")
	}
	if err := s.gate.CheckQuestionnaire(ctx, userID, day); err != nil {
		return nil, err
	}

	answers, err := s.resolveAnswers(ctx, kind, req.Answers)
	if err != nil {
		return nil, err
	}

	q := &model.Questionnaire{
		UserID:    userID,
		Kind:      kind,
		Day:       day,
		Answers:   answers,
		CreatedAt: s.gate.Now(),
	}
	if err := s.questionnaires.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateSubmission(ctx, userID, kind)
		}
		return nil, StorageError("create questionnaire", err)
	}
	s.gate.RecordQuestionnaire(ctx, userID, day)

	if kind == model.KindInitial {
		if _, err := s.users.MarkInitialDone(ctx, userID); err != nil {
			// The partial unique index still blocks a second initial; the flag is repaired on the next attempt.
			s.log.Error("mark initial questionnaire failed", "user", userID, "error", err)
		}
	}

	s.afterWrite(ctx, userID)
	s.log.Info("questionnaire stored", "user", userID, "kind", kind, "answers", len(answers))
	return q, nil
}

// resolveAnswers checks every pair against the catalog and copies point values
func (s *QuestionnaireService) resolveAnswers(ctx context.Context, kind model.QuestionnaireKind, in []model.AnswerInput) ([]model.Answer, error) {
	ids := make([]int, len(in))
	for i, a := range in {
		ids[i] = a.QuestionID
	}
	found, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, StorageError("load questions", err)
	}
	byID := make(map[int]*model.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	out := make([]model.Answer, 0, len(in))
	for _, a := range in {
		q, ok := byID[a.QuestionID]
		if !ok || q.IsInitial() != (kind == model.KindInitial) {
			return nil, ValidationError(msgInvalidAnswers)
		}
		alt := q.Alternative(a.AlternativeID)
		if alt == nil {
			return nil, ValidationError(msgInvalidAnswers)
		}
		out = append(out, model.Answer{
			QuestionID:    q.ID,
			AlternativeID: alt.ID,
			Points:        alt.Points,
		})
	}
	return out, nil
}

// duplicateSubmission explains which unique index rejected the insert
func (s *QuestionnaireService) duplicateSubmission(ctx context.Context, userID string, kind model.QuestionnaireKind) error {
	if kind == model.KindInitial {
		has, err := s.questionnaires.HasInitial(ctx, userID)
		if err == nil && has {
			if _, err := s.users.MarkInitialDone(ctx, userID); err != nil {
				s.log.Warn("repair initial flag failed", "user", userID, "error", err)
			}
			return ConflictError("Você já respondeu o questionário inicial. Não é possível enviar novas respostas.")
		}
	}
	s.gate.RecordQuestionnaire(ctx, userID, s.gate.Today())
	return ConflictError("Você já respondeu o questionário hoje. Volte amanhã!")
}

func (s *QuestionnaireService) afterWrite(ctx context.Context, userID string) {
	if err := s.insights.Invalidate(ctx, userID); err != nil {
		s.log.Warn("insight cache invalidate failed", "user", userID, "error", err)
	}
	if s.broadcaster == nil {
		return
	}
	if score, err := s.UserScore(ctx, userID); err == nil {
		s.broadcaster.SendToUser(userID, EventScoreUpdated, score)
	}
}

// UserScore scores every answer the user has given across all instances
func (s *QuestionnaireService) UserScore(ctx context.Context, userID string) (*model.Score, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	totals, err := s.questionnaires.Totals(ctx, userID)
	if err != nil {
		return nil, StorageError("score totals", err)
	}
	score := ScoreFromTotals(totals.Raw, totals.Answers)
	return &score, nil
}

// History lists every instance newest first, each with its own score
func (s *QuestionnaireService) History(ctx context.Context, userID string) ([]model.HistoryItem, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	list, err := s.questionnaires.ListByUser(ctx, userID)
	if err != nil {
		return nil, StorageError("list questionnaires", err)
	}
	return buildHistory(list), nil
}

func buildHistory(list []*model.Questionnaire) []model.HistoryItem {
	items := make([]model.HistoryItem, 0, len(list))
	for _, q := range list {
		score := ComputeScore(q.Points())
		items = append(items, model.HistoryItem{
			QuestionnaireID: q.ID,
			Day:             q.Day,
			Kind:            q.Kind,
			Raw:             score.Raw,
			Normalized:      score.Normalized,
			Level:           score.Level,
			SubmittedAt:     q.CreatedAt,
		})
	}
	return items
}

// Stats returns the questionnaire count and the user's age
func (s *QuestionnaireService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if user == nil {
		return nil, NotFoundError(msgUserNotFound)
	}
	n, err := s.questionnaires.CountByUser(ctx, userID)
	if err != nil {
		return nil, StorageError("count questionnaires", err)
	}
	return &model.UserStats{
		TotalQuestionnaires: int(n),
		Age:                 user.AgeAt(s.gate.Now().In(s.gate.loc)),
	}, nil
}

// DailyStatus reports whether today's questionnaire was already answered
func (s *QuestionnaireService) DailyStatus(ctx context.Context, userID string) (*model.DailyStatus, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	day := s.gate.Today()
	answered, err := s.gate.Answered(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return &model.DailyStatus{Answered: answered, Day: day}, nil
}

func (s *QuestionnaireService) requireUser(ctx context.Context, userID string) error {
	return requireUser(ctx, s.users, userID)
}

// requireUser answers NotFound for ids without an account
func requireUser(ctx context.Context, users repository.UserRepo, userID string) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return StorageError("load user", err)
	}
	if user == nil {
		return NotFoundError(msgUserNotFound)
	}
	return nil
}
