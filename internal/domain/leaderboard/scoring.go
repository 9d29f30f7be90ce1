package leaderboard

import (
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

// Result is what one prediction contributes to its round. Counted is false
// for inert predictions (unplayed match or malformed score).
type Result struct {
	Points         int
	OutcomeCorrect bool
	ExactScore     bool
	Counted        bool
}

// ScorePrediction scores p against the official result of m. An exact score
// is worth rules.ExactScorePoints and also counts as outcome-correct; a
// correct bet token alone is worth rules.OutcomePoints.
func ScorePrediction(p submission.Prediction, m match.Match, rules Rules) Result {
	official, ok := m.OfficialScore()
	if !ok {
		return Result{}
	}
	predicted, ok := match.ParseScore(p.Score)
	if !ok {
		return Result{}
	}

	if predicted == official {
		return Result{
			Points:         rules.ExactScorePoints,
			OutcomeCorrect: true,
			ExactScore:     true,
			Counted:        true,
		}
	}

	bet, ok := match.ParseOutcome(p.Bet)
	if ok && bet == official.Outcome() {
		return Result{
			Points:         rules.OutcomePoints,
			OutcomeCorrect: true,
			Counted:        true,
		}
	}

	return Result{Counted: true}
}
