package httpapi

import (
	"net/http"

	"github.com/riskibarqy/typer-league/internal/usecase"
)

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListSubmissions")
	defer span.End()

	items, err := h.submissionService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list submissions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]submissionSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, submissionSummaryDTO{
			Username:        item.Username,
			SubmittedAt:     formatTime(item.SubmittedAt),
			PredictionCount: len(item.Predictions),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetSubmission")
	defer span.End()

	username := r.PathValue("username")
	item, err := h.submissionService.GetByUsername(ctx, username)
	if err != nil {
		h.logger.WarnContext(ctx, "get submission failed", "username", username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submissionToDTO(item))
}

func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "CreateSubmission")
	defer span.End()

	var req createSubmissionRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	predictions := make([]usecase.SubmitPredictionInput, 0, len(req.Predictions))
	for _, p := range req.Predictions {
		predictions = append(predictions, usecase.SubmitPredictionInput{
			MatchID: p.MatchID,
			Bet:     p.Bet,
			Score:   p.Score,
		})
	}

	item, err := h.submissionService.Submit(ctx, usecase.SubmitInput{
		Username:    req.Username,
		Predictions: predictions,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create submission failed", "username", req.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, submissionToDTO(item))
}
