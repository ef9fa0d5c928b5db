package handler

import (
	"context"
	"net/http"
	"strconv"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
)

// InsightAPI builds trend and correlation reports
type InsightAPI interface {
	Report(ctx context.Context, userID string, window int) (*model.InsightReport, error)
}

// ReportAPI builds the full user report
type ReportAPI interface {
	Build(ctx context.Context, userID string) (*model.UserReport, error)
}

// ReportHandler handles insight and report endpoints
type ReportHandler struct {
	insights InsightAPI
	reports  ReportAPI
	log      *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(insights InsightAPI, reports ReportAPI, log *logger.Logger) *ReportHandler {
	return &ReportHandler{insights: insights, reports: reports, log: log}
}

// Insights handles GET /v1/users/{userId}/insights?janela=N
func (h *ReportHandler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}

	window := 0
	if v := r.URL.Query().Get("janela"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "A janela deve estar entre 1 e 365 dias.")
			return
		}
		window = n
	}

	report, err := h.insights.Report(r.Context(), userID, window)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": report,
	})
}

// Report handles GET /v1/users/{userId}/report
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Build(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"relatorio": report,
	})
}
