package vc

import (
	"math/rand/v2"
	"strconv"
)

// Tag format constants. A tag namespaces one run's working state and output
// files inside the external engine.
const (
	tagPrefix    = "USER_"
	tagSuffixMin = 10000000
	tagSuffixMax = 99999999
)

// RandInt is the randomness source for tag suffixes. It must return a
// uniformly distributed value in [0, n).
type RandInt func(n int64) int64

// TagGenerator produces per-run correlation tags of the form
// USER_<8-digit number>. Uniqueness is best effort: collisions between
// concurrent runs are possible and tolerated.
type TagGenerator struct {
	randInt RandInt
}

// NewTagGenerator creates a TagGenerator drawing from randInt. A nil randInt
// selects the shared math/rand/v2 source, which is safe for concurrent use.
func NewTagGenerator(randInt RandInt) *TagGenerator {
	if randInt == nil {
		randInt = rand.Int64N
	}

	return &TagGenerator{randInt: randInt}
}

// Next returns a fresh tag with a suffix in [10000000, 99999999].
func (g *TagGenerator) Next() string {
	suffix := tagSuffixMin + g.randInt(tagSuffixMax-tagSuffixMin+1)

	return tagPrefix + strconv.FormatInt(suffix, 10)
}
