package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/de-tools/approval-atlas/pkg/adapters"
	"github.com/de-tools/approval-atlas/pkg/models/api"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/services/analysis"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 32 << 20

type Handler struct {
	analysis analysis.Controller
}

func NewHandler(controller analysis.Controller) *Handler {
	return &Handler{analysis: controller}
}

// RunAnalysis starts a run over the rows in the request body, or over the
// configured source when the body carries none.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body api.RunRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req analysis.Request
	if len(body.Segments) > 0 {
		stats, err := adapters.MapApiSegmentStatsToDomain(body.Segments)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("%w: %w", anomaly.ErrInvalidInput, err))
			return
		}
		req.Source = analysis.NewStaticSource("request", stats)
	}

	result, err := h.analysis.Run(ctx, req)
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}

	writeJSON(w, r, http.StatusCreated, adapters.MapRunDomainToApi(*result))
}

func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.latest(w, r); ok {
		writeJSON(w, r, http.StatusOK, adapters.MapRunDomainToApi(*result))
	}
}

func (h *Handler) GetLatestInsights(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.latest(w, r); ok {
		writeJSON(w, r, http.StatusOK, adapters.MapInsightsDomainToApi(result.Insights))
	}
}

func (h *Handler) GetLatestAnomalies(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}

	records := result.Anomalies
	if r.URL.Query().Get("flagged") == "true" {
		records = make([]domain.AnomalyRecord, 0, len(result.Anomalies))
		for _, a := range result.Anomalies {
			if a.IsAnomaly {
				records = append(records, a)
			}
		}
	}
	writeJSON(w, r, http.StatusOK, adapters.MapAnomaliesDomainToApi(records))
}

func (h *Handler) GetLatestSummary(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.latest(w, r); ok {
		writeJSON(w, r, http.StatusOK, adapters.MapSummaryDomainToApi(result.Summary))
	}
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapRunDomainToApi(*result))
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) (*domain.RunResult, bool) {
	result, err := h.analysis.Latest(r.Context())
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return nil, false
	}
	return result, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, anomaly.ErrInvalidInput), errors.Is(err, anomaly.ErrNoBaseline):
		return http.StatusUnprocessableEntity
	case errors.Is(err, analysis.ErrNoResult):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, r, status, api.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
