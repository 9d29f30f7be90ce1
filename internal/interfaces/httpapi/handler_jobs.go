package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/typer-league/internal/usecase"
)

func (h *Handler) RunFeedSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunFeedSyncJob")
	defer span.End()

	if h.feedSyncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: feed sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.feedSyncService.Sync(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run feed sync job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunLeaderboardRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunLeaderboardRefreshJob")
	defer span.End()

	snapshot, err := h.leaderboardService.Refresh(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run leaderboard refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshResultToDTO(snapshot))
}
