package roll

import (
	"math/rand/v2"
)

// Color tags a note for display only
type Color string

const (
	Green Color = "green"
	Pink  Color = "pink"
)

// Colors is the closed set of note colors
var Colors = []Color{Green, Pink}

// Note is a placed musical event. Start and Duration are surface distances,
// not time.
type Note struct {
	ID       string  `json:"id"`
	Seq      uint64  `json:"seq"`
	Key      int     `json:"key"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Color    Color   `json:"color"`
}

// End is the surface position where the note stops
func (n Note) End() float64 {
	return n.Start + n.Duration
}

// Covers reports whether the note sits on key and spans position x
func (n Note) Covers(key int, x float64) bool {
	return n.Key == key && x >= n.Start && x < n.End()
}

// ColorSource picks note colors. Seed it for reproducible tests.
type ColorSource struct {
	rng *rand.Rand
}

func NewColorSource(seed uint64) *ColorSource {
	return &ColorSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns a uniformly chosen color
func (c *ColorSource) Pick() Color {
	return Colors[c.rng.IntN(len(Colors))]
}
