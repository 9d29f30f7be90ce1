package leaderboard

import (
	"strings"

	"github.com/riskibarqy/typer-league/internal/domain/match"
)

// TeamAffinity summarises which teams a user backed and how that went.
type TeamAffinity struct {
	MostChosenTeam        string
	MostSuccessfulTeam    string
	MostDisappointingTeam string
	Teams                 []TeamCount
}

// TeamCount holds per-team tallies in first-seen order.
type TeamCount struct {
	Team      string
	Chosen    int
	Successes int
	Failures  int
}

// AnalyzeTeamAffinity attributes every well-formed home or away pick on a
// played match to the backed team. Draw picks back nobody. Pairings are read
// in the given order, which decides ties.
func AnalyzeTeamAffinity(pairs []Pairing) TeamAffinity {
	chosen := newOrderedCounter()
	successes := newOrderedCounter()
	failures := newOrderedCounter()

	for _, pair := range pairs {
		official, ok := pair.Match.OfficialScore()
		if !ok {
			continue
		}
		if _, ok := match.ParseScore(pair.Prediction.Score); !ok {
			continue
		}
		bet, ok := match.ParseOutcome(pair.Prediction.Bet)
		if !ok || bet == match.OutcomeDraw {
			continue
		}

		team := backedTeam(pair, bet)
		if team == "" {
			continue
		}

		chosen.Add(team, 1)
		if bet == official.Outcome() {
			successes.Add(team, 1)
		} else {
			failures.Add(team, 1)
		}
	}

	out := TeamAffinity{
		MostChosenTeam:        NoTeam,
		MostSuccessfulTeam:    NoTeam,
		MostDisappointingTeam: NoTeam,
		Teams:                 make([]TeamCount, 0, chosen.Len()),
	}
	if chosen.Len() == 0 {
		return out
	}

	keys := chosen.Keys()
	out.MostChosenTeam, _ = firstMax(keys, chosen.Get)
	out.MostSuccessfulTeam, _ = firstMax(keys, successes.Get)
	out.MostDisappointingTeam, _ = firstMax(keys, failures.Get)
	for _, team := range keys {
		out.Teams = append(out.Teams, TeamCount{
			Team:      team,
			Chosen:    chosen.Get(team),
			Successes: successes.Get(team),
			Failures:  failures.Get(team),
		})
	}

	return out
}

func backedTeam(pair Pairing, bet match.Outcome) string {
	home := strings.TrimSpace(pair.Prediction.Home)
	if home == "" {
		home = strings.TrimSpace(pair.Match.Home)
	}
	away := strings.TrimSpace(pair.Prediction.Away)
	if away == "" {
		away = strings.TrimSpace(pair.Match.Away)
	}

	if bet == match.OutcomeHome {
		return home
	}
	return away
}
