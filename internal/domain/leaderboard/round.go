package leaderboard

import (
	"sort"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

// MatchIndex is a read-only lookup of matches by id.
type MatchIndex map[int]match.Match

func NewMatchIndex(matches []match.Match) MatchIndex {
	out := make(MatchIndex, len(matches))
	for _, item := range matches {
		out[item.ID] = item
	}
	return out
}

// RoundCount is the number of rounds spanned by the indexed matches.
func (idx MatchIndex) RoundCount(roundSize int) int {
	maxRound := -1
	for id := range idx {
		if round := RoundID(id, roundSize); round > maxRound {
			maxRound = round
		}
	}
	return maxRound + 1
}

// RoundID maps a positive match id to its zero-based round. Ids below one
// have no round and yield -1.
func RoundID(matchID, roundSize int) int {
	if matchID < 1 {
		return -1
	}
	if roundSize < 1 {
		roundSize = DefaultRoundSize
	}
	return (matchID - 1) / roundSize
}

// Pairing joins a prediction with the match it refers to.
type Pairing struct {
	Prediction submission.Prediction
	Match      match.Match
}

// PartitionRounds groups predictions by round. Predictions for unknown
// matches are dropped. Within a round, pairings keep ascending match id order.
func PartitionRounds(predictions []submission.Prediction, matches MatchIndex, roundSize int) map[int][]Pairing {
	ordered := append([]submission.Prediction(nil), predictions...)
	submission.SortPredictions(ordered)

	out := make(map[int][]Pairing)
	for _, p := range ordered {
		m, ok := matches[p.MatchID]
		if !ok {
			continue
		}
		round := RoundID(p.MatchID, roundSize)
		if round < 0 {
			continue
		}
		out[round] = append(out[round], Pairing{Prediction: p, Match: m})
	}
	return out
}

func sortedRoundIDs(rounds map[int][]Pairing) []int {
	ids := make([]int, 0, len(rounds))
	for id := range rounds {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
