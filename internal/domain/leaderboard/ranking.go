package leaderboard

import "sort"

// Trend is the rank movement of a user between two recomputations.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank                     int
	PreviousRank             int
	Trend                    Trend
	Username                 string
	Points                   int
	BestRoundID              int
	AveragePoints            float64
	MaxOutcomeCorrectInRound int
	MaxExactScoreInRound     int
	FavoriteTeam             string
	MostSuccessfulTeam       string
	MostDisappointingTeam    string
}

// SortAggregates returns a copy ordered by points, then by the best exact
// score count. Equal entries keep their input order.
func SortAggregates(aggregates []UserAggregate) []UserAggregate {
	out := append([]UserAggregate(nil), aggregates...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].MaxExactScoreInRound > out[j].MaxExactScoreInRound
	})
	return out
}

// BuildLeaderboard ranks the given aggregates 1..N and derives each user's
// trend against previousRanks (username -> rank of the retained snapshot).
// Users missing from previousRanks are reported as TrendSame.
func BuildLeaderboard(aggregates []UserAggregate, previousRanks map[string]int) []Entry {
	sorted := SortAggregates(aggregates)

	out := make([]Entry, 0, len(sorted))
	for i, agg := range sorted {
		rank := i + 1
		previous, seen := previousRanks[agg.Username]
		if !seen {
			previous = 0
		}

		out = append(out, Entry{
			Rank:                     rank,
			PreviousRank:             previous,
			Trend:                    ResolveTrend(previous, rank, seen),
			Username:                 agg.Username,
			Points:                   agg.TotalPoints,
			BestRoundID:              agg.BestRoundID,
			AveragePoints:            agg.AveragePoints,
			MaxOutcomeCorrectInRound: agg.MaxOutcomeCorrectInRound,
			MaxExactScoreInRound:     agg.MaxExactScoreInRound,
			FavoriteTeam:             agg.Affinity.MostChosenTeam,
			MostSuccessfulTeam:       agg.Affinity.MostSuccessfulTeam,
			MostDisappointingTeam:    agg.Affinity.MostDisappointingTeam,
		})
	}

	return out
}

// ResolveTrend compares ranks where a larger number is worse.
func ResolveTrend(previousRank, currentRank int, seen bool) Trend {
	if !seen || previousRank <= 0 {
		return TrendSame
	}
	switch {
	case previousRank > currentRank:
		return TrendUp
	case previousRank < currentRank:
		return TrendDown
	default:
		return TrendSame
	}
}
