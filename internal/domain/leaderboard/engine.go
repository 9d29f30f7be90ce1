package leaderboard

import (
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

// Compute runs a full recomputation over every submission. previous may be
// nil; it is only read for trend resolution. ID, Fingerprint and ComputedAt
// are left for the caller to fill.
func Compute(matches []match.Match, submissions []submission.Submission, previous *Snapshot, rules Rules) Snapshot {
	rules = rules.normalized()
	index := NewMatchIndex(matches)

	aggregates := make([]UserAggregate, 0, len(submissions))
	for _, sub := range submissions {
		aggregates = append(aggregates, AggregateUser(sub, index, rules))
	}

	return Assemble(aggregates, index.RoundCount(rules.RoundSize), previous, rules)
}

// Assemble builds the cross-user part of a snapshot from per-user aggregates
// computed elsewhere. The order of aggregates decides ties between exact
// duplicates.
func Assemble(aggregates []UserAggregate, roundCount int, previous *Snapshot, rules Rules) Snapshot {
	rules = rules.normalized()

	entries := BuildLeaderboard(aggregates, previous.Ranks())
	ranked := SortAggregates(aggregates)

	return Snapshot{
		RoundCount: roundCount,
		Entries:    entries,
		Records:    BuildRecords(ranked, rules),
		Series:     UserRoundSeries(ranked, roundCount),
		Aggregates: ranked,
	}
}

// UserRoundSeries lays out each user's round points over roundCount slots.
// Rounds without activity stay at zero.
func UserRoundSeries(aggregates []UserAggregate, roundCount int) []UserSeries {
	if roundCount < 0 {
		roundCount = 0
	}
	out := make([]UserSeries, 0, len(aggregates))
	for _, agg := range aggregates {
		points := make([]int, roundCount)
		for _, tally := range agg.Rounds {
			if tally.RoundID >= 0 && tally.RoundID < roundCount {
				points[tally.RoundID] = tally.Points
			}
		}
		out = append(out, UserSeries{Username: agg.Username, Points: points})
	}
	return out
}
