package httpapi

import (
	"time"

	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/usecase"
)

type createSubmissionRequest struct {
	Username    string                        `json:"username" validate:"required,max=64"`
	Predictions []submissionPredictionRequest `json:"predictions" validate:"required,min=1,dive"`
}

type submissionPredictionRequest struct {
	MatchID int    `json:"match_id" validate:"required,min=1"`
	Bet     string `json:"bet" validate:"max=8"`
	Score   string `json:"score" validate:"max=16"`
}

type upsertFixturesRequest struct {
	Matches []fixtureRequest `json:"matches" validate:"required,min=1,dive"`
}

type fixtureRequest struct {
	ID        int        `json:"id" validate:"required,min=1"`
	Home      string     `json:"home" validate:"required,max=100"`
	Away      string     `json:"away" validate:"required,max=100"`
	KickoffAt *time.Time `json:"kickoff_at"`
}

type recordResultRequest struct {
	Score string `json:"score" validate:"required,max=16"`
}

type matchDTO struct {
	ID        int    `json:"id"`
	RoundID   int    `json:"round_id"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	Score     string `json:"score,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Played    bool   `json:"played"`
	KickoffAt string `json:"kickoff_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type predictionDTO struct {
	MatchID int    `json:"match_id"`
	Home    string `json:"home"`
	Away    string `json:"away"`
	Bet     string `json:"bet"`
	Score   string `json:"score"`
}

type submissionDTO struct {
	Username    string          `json:"username"`
	SubmittedAt string          `json:"submitted_at,omitempty"`
	Predictions []predictionDTO `json:"predictions"`
}

type submissionSummaryDTO struct {
	Username        string `json:"username"`
	SubmittedAt     string `json:"submitted_at,omitempty"`
	PredictionCount int    `json:"prediction_count"`
}

type entryDTO struct {
	Rank                     int     `json:"rank"`
	PreviousRank             int     `json:"previous_rank,omitempty"`
	Trend                    string  `json:"trend"`
	Username                 string  `json:"username"`
	Points                   int     `json:"points"`
	BestRoundID              int     `json:"best_round_id"`
	AveragePoints            float64 `json:"average_points"`
	MaxOutcomeCorrectInRound int     `json:"max_outcome_correct_in_round"`
	MaxExactScoreInRound     int     `json:"max_exact_score_in_round"`
	FavoriteTeam             string  `json:"favorite_team"`
	MostSuccessfulTeam       string  `json:"most_successful_team"`
	MostDisappointingTeam    string  `json:"most_disappointing_team"`
}

type leaderboardDTO struct {
	SnapshotID string     `json:"snapshot_id,omitempty"`
	ComputedAt string     `json:"computed_at,omitempty"`
	RoundCount int        `json:"round_count"`
	Entries    []entryDTO `json:"entries"`
}

type recordDTO struct {
	Value     int      `json:"value"`
	Usernames []string `json:"usernames"`
}

type hallOfFameDTO struct {
	Username        string `json:"username"`
	BestRoundID     int    `json:"best_round_id"`
	BestRoundPoints int    `json:"best_round_points"`
}

type roundBestDTO struct {
	RoundID   int      `json:"round_id"`
	Points    int      `json:"points"`
	Usernames []string `json:"usernames"`
}

type recordsDTO struct {
	BestRoundPoints          recordDTO       `json:"best_round_points"`
	MaxOutcomeCorrectInRound recordDTO       `json:"max_outcome_correct_in_round"`
	MaxExactScoreInRound     recordDTO       `json:"max_exact_score_in_round"`
	HallOfFameThreshold      int             `json:"hall_of_fame_threshold"`
	HallOfFame               []hallOfFameDTO `json:"hall_of_fame"`
	RoundBest                []roundBestDTO  `json:"round_best"`
}

type seriesDTO struct {
	Username string `json:"username"`
	Points   []int  `json:"points"`
}

type seriesListDTO struct {
	RoundCount int         `json:"round_count"`
	Users      []seriesDTO `json:"users"`
}

type roundTallyDTO struct {
	RoundID        int  `json:"round_id"`
	Points         int  `json:"points"`
	OutcomeCorrect int  `json:"outcome_correct"`
	ExactScore     int  `json:"exact_score"`
	Active         bool `json:"active"`
}

type teamCountDTO struct {
	Team      string `json:"team"`
	Chosen    int    `json:"chosen"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

type userStatsDTO struct {
	Entry      entryDTO        `json:"entry"`
	RoundCount int             `json:"round_count"`
	Rounds     []roundTallyDTO `json:"rounds"`
	Series     []int           `json:"series"`
	Teams      []teamCountDTO  `json:"teams"`
	ComputedAt string          `json:"computed_at,omitempty"`
}

type refreshResultDTO struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	ComputedAt string `json:"computed_at,omitempty"`
	Users      int    `json:"users"`
	RoundCount int    `json:"round_count"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func matchToDTO(v match.Match, roundSize int) matchDTO {
	out := matchDTO{
		ID:        v.ID,
		RoundID:   leaderboard.RoundID(v.ID, roundSize),
		Home:      v.Home,
		Away:      v.Away,
		UpdatedAt: formatTime(v.UpdatedAt),
	}
	if score, ok := v.OfficialScore(); ok {
		out.Score = score.String()
		out.Outcome = string(score.Outcome())
		out.Played = true
	}
	if v.KickoffAt != nil {
		out.KickoffAt = formatTime(*v.KickoffAt)
	}
	return out
}

func matchesToDTO(items []match.Match, roundSize int) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item, roundSize))
	}
	return out
}

func submissionToDTO(v submission.Submission) submissionDTO {
	predictions := make([]predictionDTO, 0, len(v.Predictions))
	for _, p := range v.Predictions {
		predictions = append(predictions, predictionDTO{
			MatchID: p.MatchID,
			Home:    p.Home,
			Away:    p.Away,
			Bet:     p.Bet,
			Score:   p.Score,
		})
	}
	return submissionDTO{
		Username:    v.Username,
		SubmittedAt: formatTime(v.SubmittedAt),
		Predictions: predictions,
	}
}

func entryToDTO(v leaderboard.Entry) entryDTO {
	return entryDTO{
		Rank:                     v.Rank,
		PreviousRank:             v.PreviousRank,
		Trend:                    string(v.Trend),
		Username:                 v.Username,
		Points:                   v.Points,
		BestRoundID:              v.BestRoundID,
		AveragePoints:            v.AveragePoints,
		MaxOutcomeCorrectInRound: v.MaxOutcomeCorrectInRound,
		MaxExactScoreInRound:     v.MaxExactScoreInRound,
		FavoriteTeam:             v.FavoriteTeam,
		MostSuccessfulTeam:       v.MostSuccessfulTeam,
		MostDisappointingTeam:    v.MostDisappointingTeam,
	}
}

func leaderboardToDTO(v usecase.LeaderboardView) leaderboardDTO {
	entries := make([]entryDTO, 0, len(v.Entries))
	for _, entry := range v.Entries {
		entries = append(entries, entryToDTO(entry))
	}
	return leaderboardDTO{
		SnapshotID: v.SnapshotID,
		ComputedAt: formatTime(v.ComputedAt),
		RoundCount: v.RoundCount,
		Entries:    entries,
	}
}

func recordToDTO(v leaderboard.Record) recordDTO {
	usernames := v.Usernames
	if usernames == nil {
		usernames = []string{}
	}
	return recordDTO{Value: v.Value, Usernames: usernames}
}

func recordsToDTO(v leaderboard.Records, threshold int) recordsDTO {
	hall := make([]hallOfFameDTO, 0, len(v.HallOfFame))
	for _, item := range v.HallOfFame {
		hall = append(hall, hallOfFameDTO{
			Username:        item.Username,
			BestRoundID:     item.BestRoundID,
			BestRoundPoints: item.BestRoundPoints,
		})
	}
	roundBest := make([]roundBestDTO, 0, len(v.RoundBest))
	for _, item := range v.RoundBest {
		roundBest = append(roundBest, roundBestDTO{
			RoundID:   item.RoundID,
			Points:    item.Points,
			Usernames: item.Usernames,
		})
	}
	return recordsDTO{
		BestRoundPoints:          recordToDTO(v.BestRoundPoints),
		MaxOutcomeCorrectInRound: recordToDTO(v.MaxOutcomeCorrectInRound),
		MaxExactScoreInRound:     recordToDTO(v.MaxExactScoreInRound),
		HallOfFameThreshold:      threshold,
		HallOfFame:               hall,
		RoundBest:                roundBest,
	}
}

func seriesToDTO(items []leaderboard.UserSeries, roundCount int) seriesListDTO {
	users := make([]seriesDTO, 0, len(items))
	for _, item := range items {
		users = append(users, seriesDTO{Username: item.Username, Points: item.Points})
	}
	return seriesListDTO{RoundCount: roundCount, Users: users}
}

func userStatsToDTO(v usecase.UserStats) userStatsDTO {
	rounds := make([]roundTallyDTO, 0, len(v.Aggregate.Rounds))
	for _, tally := range v.Aggregate.Rounds {
		rounds = append(rounds, roundTallyDTO{
			RoundID:        tally.RoundID,
			Points:         tally.Points,
			OutcomeCorrect: tally.OutcomeCorrect,
			ExactScore:     tally.ExactScore,
			Active:         tally.Active,
		})
	}
	teams := make([]teamCountDTO, 0, len(v.Aggregate.Affinity.Teams))
	for _, team := range v.Aggregate.Affinity.Teams {
		teams = append(teams, teamCountDTO{
			Team:      team.Team,
			Chosen:    team.Chosen,
			Successes: team.Successes,
			Failures:  team.Failures,
		})
	}
	series := v.Series.Points
	if series == nil {
		series = []int{}
	}
	return userStatsDTO{
		Entry:      entryToDTO(v.Entry),
		RoundCount: v.RoundCount,
		Rounds:     rounds,
		Series:     series,
		Teams:      teams,
		ComputedAt: formatTime(v.ComputedAt),
	}
}

func refreshResultToDTO(v leaderboard.Snapshot) refreshResultDTO {
	return refreshResultDTO{
		SnapshotID: v.ID,
		ComputedAt: formatTime(v.ComputedAt),
		Users:      len(v.Entries),
		RoundCount: v.RoundCount,
	}
}
