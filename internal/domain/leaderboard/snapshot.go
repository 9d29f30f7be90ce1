package leaderboard

import "time"

// UserSeries is one user's per-round points, indexed by round id.
type UserSeries struct {
	Username string
	Points   []int
}

// Snapshot is the full result of one recomputation. The caller keeps the
// latest snapshot and hands it back as the previous one next time.
type Snapshot struct {
	ID          string
	Fingerprint string
	ComputedAt  time.Time
	RoundCount  int
	Entries     []Entry
	Records     Records
	Series      []UserSeries
	Aggregates  []UserAggregate
}

// Ranks maps username to rank. A nil snapshot has no ranks.
func (s *Snapshot) Ranks() map[string]int {
	if s == nil {
		return nil
	}
	out := make(map[string]int, len(s.Entries))
	for _, entry := range s.Entries {
		out[entry.Username] = entry.Rank
	}
	return out
}

func (s *Snapshot) Entry(username string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	for _, entry := range s.Entries {
		if entry.Username == username {
			return entry, true
		}
	}
	return Entry{}, false
}

func (s *Snapshot) Aggregate(username string) (UserAggregate, bool) {
	if s == nil {
		return UserAggregate{}, false
	}
	for _, agg := range s.Aggregates {
		if agg.Username == username {
			return agg, true
		}
	}
	return UserAggregate{}, false
}

func (s *Snapshot) SeriesFor(username string) (UserSeries, bool) {
	if s == nil {
		return UserSeries{}, false
	}
	for _, item := range s.Series {
		if item.Username == username {
			return item, true
		}
	}
	return UserSeries{}, false
}
