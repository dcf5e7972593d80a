package util

import (
	"math/rand"
	"time"
)

// NewSeededRNG returns a generator and the seed it used. A zero seed
// picks one from the clock; log it to reproduce a run.
func NewSeededRNG(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}
