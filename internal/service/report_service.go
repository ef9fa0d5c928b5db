package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// ReportService assembles the exportable user report
type ReportService struct {
	users          repository.UserRepo
	questionnaires repository.QuestionnaireRepo
	diary          repository.DiaryRepo
	diagnoses      repository.DiagnosisRepo
	insights       *InsightService
	gate           *DailyGate
	log            *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(
	users repository.UserRepo,
	questionnaires repository.QuestionnaireRepo,
	diary repository.DiaryRepo,
	diagnoses repository.DiagnosisRepo,
	insights *InsightService,
	gate *DailyGate,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		users:          users,
		questionnaires: questionnaires,
		diary:          diary,
		diagnoses:      diagnoses,
		insights:       insights,
		gate:           gate,
		log:            log,
	}
}

// Build loads every section of the report concurrently
func (s *ReportService) Build(ctx context.Context, userID string) (*model.UserReport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if user == nil {
		return nil, NotFoundError(msgUserNotFound)
	}

	report := &model.UserReport{
		User:                 user.Profile(),
		InitialQuestionnaire: user.InitialQuestionnaire,
		GeneratedAt:          s.gate.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.questionnaires.ListByUser(gctx, userID)
		if err != nil {
			return err
		}
		report.History = buildHistory(list)
		report.Stats = model.UserStats{
			TotalQuestionnaires: len(list),
			Age:                 user.AgeAt(s.gate.Now().In(s.gate.loc)),
		}
		return nil
	})
	g.Go(func() error {
		totals, err := s.questionnaires.Totals(gctx, userID)
		if err != nil {
			return err
		}
		report.Score = ScoreFromTotals(totals.Raw, totals.Answers)
		return nil
	})
	g.Go(func() error {
		entries, err := s.diary.ListByUser(gctx, userID)
		report.Diary = entries
		return err
	})
	g.Go(func() error {
		list, err := s.diagnoses.ListByUser(gctx, userID)
		report.Diagnoses = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, StorageError("build report", err)
	}

	if s.insights != nil {
		insights, err := s.insights.Report(ctx, userID, model.DefaultInsightWindow)
		if err != nil {
			s.log.Warn("report insights unavailable", "user", userID, "error", err)
		} else {
			report.Insights = insights
		}
	}
	return report, nil
}
