package leaderboard

const (
	DefaultRoundSize           = 9
	DefaultHallOfFameThreshold = 20
	DefaultExactScorePoints    = 3
	DefaultOutcomePoints       = 1

	// NoTeam is reported when a user has no qualifying team pick.
	NoTeam = "------"
)

// Rules stores the scoring and partitioning parameters of the pool.
type Rules struct {
	RoundSize           int
	HallOfFameThreshold int
	ExactScorePoints    int
	OutcomePoints       int
}

func DefaultRules() Rules {
	return Rules{
		RoundSize:           DefaultRoundSize,
		HallOfFameThreshold: DefaultHallOfFameThreshold,
		ExactScorePoints:    DefaultExactScorePoints,
		OutcomePoints:       DefaultOutcomePoints,
	}
}

func (r Rules) normalized() Rules {
	if r.RoundSize < 1 {
		r.RoundSize = DefaultRoundSize
	}
	return r
}
