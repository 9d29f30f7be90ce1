package httpapi

import "net/http"

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetLeaderboard")
	defer span.End()

	view, err := h.leaderboardService.GetLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(view))
}

func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetRecords")
	defer span.End()

	records, err := h.leaderboardService.GetRecords(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get records failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recordsToDTO(records, h.leaderboardService.Rules().HallOfFameThreshold))
}

func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetSeries")
	defer span.End()

	series, roundCount, err := h.leaderboardService.GetSeries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get series failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seriesToDTO(series, roundCount))
}

func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetUserStats")
	defer span.End()

	username := r.PathValue("username")
	stats, err := h.leaderboardService.GetUserStats(ctx, username)
	if err != nil {
		h.logger.WarnContext(ctx, "get user stats failed", "username", username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userStatsToDTO(stats))
}
