package match

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Outcome is the ternary result of a match.
type Outcome string

const (
	OutcomeHome Outcome = "1"
	OutcomeDraw Outcome = "X"
	OutcomeAway Outcome = "2"
)

var scorePattern = regexp.MustCompile(`^\d+:\d+$`)

// ParseOutcome accepts exactly the bet tokens 1, X and 2.
func ParseOutcome(raw string) (Outcome, bool) {
	switch Outcome(raw) {
	case OutcomeHome:
		return OutcomeHome, true
	case OutcomeDraw:
		return OutcomeDraw, true
	case OutcomeAway:
		return OutcomeAway, true
	default:
		return "", false
	}
}

// Score is a parsed "h:a" result.
type Score struct {
	Home int
	Away int
}

// ParseScore parses a strict "h:a" score string. Anything that does not match
// ^\d+:\d+$ is rejected.
func ParseScore(raw string) (Score, bool) {
	if !scorePattern.MatchString(raw) {
		return Score{}, false
	}

	home, away, _ := strings.Cut(raw, ":")
	h, err := strconv.Atoi(home)
	if err != nil {
		return Score{}, false
	}
	a, err := strconv.Atoi(away)
	if err != nil {
		return Score{}, false
	}

	return Score{Home: h, Away: a}, true
}

func (s Score) String() string {
	return strconv.Itoa(s.Home) + ":" + strconv.Itoa(s.Away)
}

// Outcome classifies the score as home win, draw or away win.
func (s Score) Outcome() Outcome {
	return ClassifyOutcome(s)
}

func ClassifyOutcome(s Score) Outcome {
	switch {
	case s.Home == s.Away:
		return OutcomeDraw
	case s.Home > s.Away:
		return OutcomeHome
	default:
		return OutcomeAway
	}
}

// Match is one fixture of the pool. Score stays empty until the official
// result is known.
type Match struct {
	ID        int
	Home      string
	Away      string
	Score     string
	KickoffAt *time.Time
	UpdatedAt time.Time
}

// OfficialScore returns the parsed official score. A score that does not
// parse is reported as not played.
func (m Match) OfficialScore() (Score, bool) {
	if strings.TrimSpace(m.Score) == "" {
		return Score{}, false
	}
	return ParseScore(strings.TrimSpace(m.Score))
}

func (m Match) Played() bool {
	_, ok := m.OfficialScore()
	return ok
}
