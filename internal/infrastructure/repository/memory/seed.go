package memory

import "github.com/riskibarqy/typer-league/internal/domain/match"

// SeedMatches returns the opening two rounds of a tournament without results.
func SeedMatches() []match.Match {
	pairs := [][2]string{
		{"Germany", "Scotland"},
		{"Hungary", "Switzerland"},
		{"Spain", "Croatia"},
		{"Italy", "Albania"},
		{"Poland", "Netherlands"},
		{"Slovenia", "Denmark"},
		{"Serbia", "England"},
		{"Romania", "Ukraine"},
		{"Belgium", "Slovakia"},
		{"Austria", "France"},
		{"Turkey", "Georgia"},
		{"Portugal", "Czechia"},
		{"Croatia", "Albania"},
		{"Germany", "Hungary"},
		{"Scotland", "Switzerland"},
		{"Slovenia", "Serbia"},
		{"Denmark", "England"},
		{"Spain", "Italy"},
	}

	out := make([]match.Match, 0, len(pairs))
	for i, pair := range pairs {
		out = append(out, match.Match{ID: i + 1, Home: pair[0], Away: pair[1]})
	}
	return out
}
