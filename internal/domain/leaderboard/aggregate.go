package leaderboard

import (
	"math"

	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

// RoundTally is one user's result for one round. A round is active when at
// least one of the user's matches in it has an official score.
type RoundTally struct {
	RoundID        int
	Points         int
	OutcomeCorrect int
	ExactScore     int
	Active         bool
}

// UserAggregate is everything derived from a single user's submission.
type UserAggregate struct {
	Username                 string
	Rounds                   []RoundTally
	BestRoundID              int
	BestRoundPoints          int
	TotalPoints              int
	AveragePoints            float64
	MaxOutcomeCorrectInRound int
	MaxExactScoreInRound     int
	Affinity                 TeamAffinity
}

// AggregateUser folds a submission into per-round tallies and the derived
// maxima. It depends only on the submission and the read-only match index, so
// users can be aggregated independently of each other.
func AggregateUser(sub submission.Submission, matches MatchIndex, rules Rules) UserAggregate {
	rules = rules.normalized()
	rounds := PartitionRounds(sub.Predictions, matches, rules.RoundSize)

	out := UserAggregate{
		Username:    sub.Username,
		BestRoundID: -1,
		Rounds:      make([]RoundTally, 0, len(rounds)),
	}

	ordered := make([]Pairing, 0, len(sub.Predictions))
	activeSum := 0
	activeCount := 0
	for _, roundID := range sortedRoundIDs(rounds) {
		pairs := rounds[roundID]
		ordered = append(ordered, pairs...)

		tally := tallyRound(roundID, pairs, rules)
		out.Rounds = append(out.Rounds, tally)

		if tally.OutcomeCorrect > out.MaxOutcomeCorrectInRound {
			out.MaxOutcomeCorrectInRound = tally.OutcomeCorrect
		}
		if tally.ExactScore > out.MaxExactScoreInRound {
			out.MaxExactScoreInRound = tally.ExactScore
		}
		if !tally.Active {
			continue
		}

		activeSum += tally.Points
		activeCount++
		if out.BestRoundID < 0 || tally.Points > out.BestRoundPoints {
			out.BestRoundID = roundID
			out.BestRoundPoints = tally.Points
		}
	}

	out.TotalPoints = out.BestRoundPoints
	out.AveragePoints = averagePoints(activeSum, activeCount)
	out.Affinity = AnalyzeTeamAffinity(ordered)

	return out
}

// RoundPoints returns the user's points in roundID, zero when absent.
func (a UserAggregate) RoundPoints(roundID int) int {
	for _, tally := range a.Rounds {
		if tally.RoundID == roundID {
			return tally.Points
		}
	}
	return 0
}

func tallyRound(roundID int, pairs []Pairing, rules Rules) RoundTally {
	tally := RoundTally{RoundID: roundID}
	for _, pair := range pairs {
		if pair.Match.Played() {
			tally.Active = true
		}

		result := ScorePrediction(pair.Prediction, pair.Match, rules)
		if !result.Counted {
			continue
		}
		tally.Points += result.Points
		if result.OutcomeCorrect {
			tally.OutcomeCorrect++
		}
		if result.ExactScore {
			tally.ExactScore++
		}
	}
	return tally
}

func averagePoints(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*100) / 100
}
