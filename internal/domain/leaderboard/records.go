package leaderboard

import "sort"

// Record is a global maximum together with every user reaching it.
type Record struct {
	Value     int
	Usernames []string
}

// HallOfFameEntry is a user whose best round met the configured threshold.
type HallOfFameEntry struct {
	Username        string
	BestRoundID     int
	BestRoundPoints int
}

// RoundBest lists the users sharing the top score of one round.
type RoundBest struct {
	RoundID   int
	Points    int
	Usernames []string
}

type Records struct {
	BestRoundPoints          Record
	MaxOutcomeCorrectInRound Record
	MaxExactScoreInRound     Record
	HallOfFame               []HallOfFameEntry
	RoundBest                []RoundBest
}

// BuildRecords scans the aggregates for global extrema. Achiever lists follow
// the order of aggregates. An empty population yields zero-valued records.
func BuildRecords(aggregates []UserAggregate, rules Rules) Records {
	out := Records{
		BestRoundPoints:          Record{Usernames: []string{}},
		MaxOutcomeCorrectInRound: Record{Usernames: []string{}},
		MaxExactScoreInRound:     Record{Usernames: []string{}},
		HallOfFame:               []HallOfFameEntry{},
		RoundBest:                []RoundBest{},
	}
	if len(aggregates) == 0 {
		return out
	}

	out.BestRoundPoints = maxRecord(aggregates, func(a UserAggregate) int { return a.BestRoundPoints })
	out.MaxOutcomeCorrectInRound = maxRecord(aggregates, func(a UserAggregate) int { return a.MaxOutcomeCorrectInRound })
	out.MaxExactScoreInRound = maxRecord(aggregates, func(a UserAggregate) int { return a.MaxExactScoreInRound })

	for _, agg := range aggregates {
		if agg.BestRoundPoints >= rules.HallOfFameThreshold {
			out.HallOfFame = append(out.HallOfFame, HallOfFameEntry{
				Username:        agg.Username,
				BestRoundID:     agg.BestRoundID,
				BestRoundPoints: agg.BestRoundPoints,
			})
		}
	}

	out.RoundBest = roundBestPerformers(aggregates)
	return out
}

func maxRecord(aggregates []UserAggregate, value func(UserAggregate) int) Record {
	best := value(aggregates[0])
	for _, agg := range aggregates[1:] {
		if v := value(agg); v > best {
			best = v
		}
	}

	users := make([]string, 0, 1)
	for _, agg := range aggregates {
		if value(agg) == best {
			users = append(users, agg.Username)
		}
	}
	return Record{Value: best, Usernames: users}
}

func roundBestPerformers(aggregates []UserAggregate) []RoundBest {
	byRound := make(map[int]*RoundBest)
	for _, agg := range aggregates {
		for _, tally := range agg.Rounds {
			if !tally.Active {
				continue
			}
			current, ok := byRound[tally.RoundID]
			switch {
			case !ok:
				byRound[tally.RoundID] = &RoundBest{
					RoundID:   tally.RoundID,
					Points:    tally.Points,
					Usernames: []string{agg.Username},
				}
			case tally.Points > current.Points:
				current.Points = tally.Points
				current.Usernames = []string{agg.Username}
			case tally.Points == current.Points:
				current.Usernames = append(current.Usernames, agg.Username)
			}
		}
	}

	out := make([]RoundBest, 0, len(byRound))
	for _, item := range byRound {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RoundID < out[j].RoundID
	})
	return out
}
