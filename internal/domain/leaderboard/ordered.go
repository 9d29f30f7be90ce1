package leaderboard

// orderedCounter is a string-keyed counter that remembers first-seen order,
// so that "highest count" lookups break ties deterministically.
type orderedCounter struct {
	keys   []string
	counts map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: make(map[string]int)}
}

// Add registers key on first use and adds delta to its count.
func (c *orderedCounter) Add(key string, delta int) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += delta
}

func (c *orderedCounter) Get(key string) int {
	return c.counts[key]
}

func (c *orderedCounter) Keys() []string {
	return c.keys
}

func (c *orderedCounter) Len() int {
	return len(c.keys)
}

// firstMax returns the first key in keys whose score is strictly highest.
func firstMax(keys []string, score func(string) int) (string, bool) {
	best := ""
	bestScore := 0
	found := false
	for _, key := range keys {
		v := score(key)
		if !found || v > bestScore {
			best = key
			bestScore = v
			found = true
		}
	}
	return best, found
}
