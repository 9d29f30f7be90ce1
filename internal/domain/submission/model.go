package submission

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/typer-league/internal/domain/match"
)

var ErrAlreadySubmitted = errors.New("submission already exists for user")

// Prediction is one user's pick for one match. Bet and Score are kept as
// typed so that malformed values stay inert instead of being rejected.
type Prediction struct {
	MatchID int
	Home    string
	Away    string
	Bet     string
	Score   string
}

// Submission is the single, immutable set of predictions owned by a user.
type Submission struct {
	Username    string
	Predictions []Prediction
	SubmittedAt time.Time
}

// PredictionFor returns the prediction for matchID, if any.
func (s Submission) PredictionFor(matchID int) (Prediction, bool) {
	for _, item := range s.Predictions {
		if item.MatchID == matchID {
			return item, true
		}
	}
	return Prediction{}, false
}

// NormalizeUsername trims the free-text user key. Usernames are otherwise opaque.
func NormalizeUsername(raw string) string {
	return strings.TrimSpace(raw)
}

// InferBet derives the bet token from a typed score, mirroring the entry form
// which fills the 1/X/2 selector once a valid score is typed. Unparseable
// scores yield an empty token.
func InferBet(score string) string {
	parsed, ok := match.ParseScore(strings.TrimSpace(score))
	if !ok {
		return ""
	}
	return string(parsed.Outcome())
}

// SortPredictions orders predictions by match id. Ties keep their input order.
func SortPredictions(items []Prediction) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].MatchID < items[j].MatchID
	})
}
