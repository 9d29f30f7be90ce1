package httpapi

import "net/http"

type routeRegistrar struct {
	mux      *http.ServeMux
	observer HTTPObserver
}

func (r *routeRegistrar) handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, instrument(pattern, r.observer, handler))
}

func (r *routeRegistrar) handleFunc(pattern string, handler http.HandlerFunc) {
	r.handle(pattern, handler)
}

func registerSystemRoutes(routes *routeRegistrar, handler *Handler, metricsHandler http.Handler) {
	routes.mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		routes.mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerPublicRoutes(routes *routeRegistrar, handler *Handler) {
	routes.handleFunc("GET /v1/matches", handler.ListMatches)
	routes.handleFunc("GET /v1/leaderboard", handler.GetLeaderboard)
	routes.handleFunc("GET /v1/leaderboard/records", handler.GetRecords)
	routes.handleFunc("GET /v1/leaderboard/series", handler.GetSeries)
	routes.handleFunc("GET /v1/users/{username}/stats", handler.GetUserStats)
	routes.handleFunc("GET /v1/submissions", handler.ListSubmissions)
	routes.handleFunc("GET /v1/submissions/{username}", handler.GetSubmission)
	routes.handleFunc("POST /v1/submissions", handler.CreateSubmission)
}

func registerInternalRoutes(routes *routeRegistrar, handler *Handler, internalJobToken string) {
	routes.handle("POST /v1/internal/matches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.UpsertFixtures)))
	routes.handle("PUT /v1/internal/matches/{matchID}/result", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecordResult)))
	routes.handle("POST /v1/internal/jobs/sync-feed", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFeedSyncJob)))
	routes.handle("POST /v1/internal/jobs/refresh-leaderboard", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLeaderboardRefreshJob)))
}
