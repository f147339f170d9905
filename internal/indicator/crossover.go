package indicator

import "github.com/moznion/go-optional"

// Crossover tracks whether a fast series is above a slow one.
// Before both series have values the fast series counts as not above.
type Crossover struct {
	above bool
}

func NewCrossover() *Crossover {
	return &Crossover{}
}

// Update returns +1 when fast moves from at-or-below slow to above it, -1 on the
// reverse move and 0 otherwise. It is None while either input is None.
func (c *Crossover) Update(fast, slow optional.Option[float64]) optional.Option[int] {
	if fast.IsNone() || slow.IsNone() {
		return optional.None[int]()
	}

	above := fast.Unwrap() > slow.Unwrap()

	cross := 0
	if above && !c.above {
		cross = 1
	} else if !above && c.above {
		cross = -1
	}

	c.above = above

	return optional.Some(cross)
}

func (c *Crossover) Reset() {
	c.above = false
}
