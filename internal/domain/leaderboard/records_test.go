package leaderboard

import (
	"reflect"
	"testing"

	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

func TestBuildRecords_TiesAndHallOfFame(t *testing.T) {
	t.Parallel()

	aggregates := []UserAggregate{
		{
			Username: "ala", BestRoundID: 0, BestRoundPoints: 21, MaxOutcomeCorrectInRound: 7, MaxExactScoreInRound: 4,
			Rounds: []RoundTally{{RoundID: 0, Points: 21, Active: true}, {RoundID: 1, Points: 5, Active: true}},
		},
		{
			Username: "bart", BestRoundID: 1, BestRoundPoints: 21, MaxOutcomeCorrectInRound: 9, MaxExactScoreInRound: 2,
			Rounds: []RoundTally{{RoundID: 0, Points: 4, Active: true}, {RoundID: 1, Points: 21, Active: true}},
		},
		{
			Username: "cezary", BestRoundID: 0, BestRoundPoints: 20, MaxOutcomeCorrectInRound: 9, MaxExactScoreInRound: 1,
			Rounds: []RoundTally{{RoundID: 0, Points: 20, Active: true}, {RoundID: 2, Points: 0}},
		},
		{
			Username: "dorota", BestRoundID: 1, BestRoundPoints: 19, MaxOutcomeCorrectInRound: 3, MaxExactScoreInRound: 4,
			Rounds: []RoundTally{{RoundID: 1, Points: 19, Active: true}},
		},
	}

	records := BuildRecords(aggregates, DefaultRules())

	if records.BestRoundPoints.Value != 21 || !reflect.DeepEqual(records.BestRoundPoints.Usernames, []string{"ala", "bart"}) {
		t.Fatalf("unexpected best round record: %+v", records.BestRoundPoints)
	}
	if records.MaxOutcomeCorrectInRound.Value != 9 || !reflect.DeepEqual(records.MaxOutcomeCorrectInRound.Usernames, []string{"bart", "cezary"}) {
		t.Fatalf("unexpected outcome record: %+v", records.MaxOutcomeCorrectInRound)
	}
	if records.MaxExactScoreInRound.Value != 4 || !reflect.DeepEqual(records.MaxExactScoreInRound.Usernames, []string{"ala", "dorota"}) {
		t.Fatalf("unexpected exact record: %+v", records.MaxExactScoreInRound)
	}

	hall := make([]string, 0, len(records.HallOfFame))
	for _, item := range records.HallOfFame {
		hall = append(hall, item.Username)
	}
	if !reflect.DeepEqual(hall, []string{"ala", "bart", "cezary"}) {
		t.Fatalf("unexpected hall of fame: %v", hall)
	}

	wantRounds := []RoundBest{
		{RoundID: 0, Points: 21, Usernames: []string{"ala"}},
		{RoundID: 1, Points: 21, Usernames: []string{"bart"}},
	}
	if !reflect.DeepEqual(records.RoundBest, wantRounds) {
		t.Fatalf("unexpected round best performers: %+v", records.RoundBest)
	}
}

func TestBuildRecords_RoundBestTies(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{
		{Username: "a", Predictions: []submission.Prediction{exact(1)}},
		{Username: "b", Predictions: []submission.Prediction{exact(2)}},
		{Username: "c", Predictions: []submission.Prediction{outcomeOnly(3)}},
	}
	snapshot := Compute(playedMatches(9), subs, nil, DefaultRules())

	if len(snapshot.Records.RoundBest) != 1 {
		t.Fatalf("expected one round, got %+v", snapshot.Records.RoundBest)
	}
	got := snapshot.Records.RoundBest[0]
	if got.Points != 3 || !reflect.DeepEqual(got.Usernames, []string{"a", "b"}) {
		t.Fatalf("unexpected round best: %+v", got)
	}
}

func TestBuildRecords_ConfigurableThreshold(t *testing.T) {
	t.Parallel()

	aggregates := []UserAggregate{
		{Username: "a", BestRoundPoints: 6},
		{Username: "b", BestRoundPoints: 5},
	}
	rules := DefaultRules()
	rules.HallOfFameThreshold = 6

	records := BuildRecords(aggregates, rules)
	if len(records.HallOfFame) != 1 || records.HallOfFame[0].Username != "a" {
		t.Fatalf("unexpected hall of fame: %+v", records.HallOfFame)
	}
}
