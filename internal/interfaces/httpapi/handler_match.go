package httpapi

import (
	"net/http"

	"github.com/riskibarqy/typer-league/internal/usecase"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListMatches")
	defer span.End()

	items, err := h.matchService.ListMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items, h.roundSize()))
}

func (h *Handler) UpsertFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "UpsertFixtures")
	defer span.End()

	var req upsertFixturesRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	inputs := make([]usecase.UpsertFixtureInput, 0, len(req.Matches))
	for _, item := range req.Matches {
		inputs = append(inputs, usecase.UpsertFixtureInput{
			ID:        item.ID,
			Home:      item.Home,
			Away:      item.Away,
			KickoffAt: item.KickoffAt,
		})
	}

	items, err := h.matchService.UpsertFixtures(ctx, inputs)
	if err != nil {
		h.logger.WarnContext(ctx, "upsert fixtures failed", "count", len(inputs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items, h.roundSize()))
}

func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RecordResult")
	defer span.End()

	matchID, err := pathInt(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req recordResultRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.RecordResult(ctx, matchID, req.Score)
	if err != nil {
		h.logger.WarnContext(ctx, "record result failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item, h.roundSize()))
}
