package roll

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// OctaveKeys is the number of semitones in an octave
const OctaveKeys = 12

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// semitone offsets (from C) that are black keys
var blackKeys = [OctaveKeys]bool{1: true, 3: true, 6: true, 8: true, 10: true}

var ErrInvalidLayout = errors.New("invalid layout")

// Layout is the fixed geometry of the editing surface
type Layout struct {
	StartOctave  int     // octave of key index 0 (always a C)
	EndOctave    int     // octave of the top C
	MeasureWidth float64 // surface distance per measure
	Measures     int
	RowHeight    float64 // surface distance per key row
}

// DefaultLayout is C2..C4, four measures of 160
func DefaultLayout() Layout {
	return Layout{
		StartOctave:  2,
		EndOctave:    4,
		MeasureWidth: 160,
		Measures:     4,
		RowHeight:    30,
	}
}

// Validate reports whether the layout describes a usable surface
func (l Layout) Validate() error {
	switch {
	case l.EndOctave < l.StartOctave:
		return fmt.Errorf("%w: end octave %d below start octave %d", ErrInvalidLayout, l.EndOctave, l.StartOctave)
	case l.StartOctave < -1 || l.EndOctave > 9:
		return fmt.Errorf("%w: octaves %d..%d outside MIDI range", ErrInvalidLayout, l.StartOctave, l.EndOctave)
	case l.MeasureWidth <= 0:
		return fmt.Errorf("%w: measure width %g", ErrInvalidLayout, l.MeasureWidth)
	case l.Measures <= 0:
		return fmt.Errorf("%w: measures %d", ErrInvalidLayout, l.Measures)
	case l.RowHeight <= 0:
		return fmt.Errorf("%w: row height %g", ErrInvalidLayout, l.RowHeight)
	}
	return nil
}

// TotalKeys is the number of rows, top C included
func (l Layout) TotalKeys() int {
	return (l.EndOctave-l.StartOctave)*OctaveKeys + 1
}

func (l Layout) TotalWidth() float64 {
	return l.MeasureWidth * float64(l.Measures)
}

func (l Layout) TotalHeight() float64 {
	return l.RowHeight * float64(l.TotalKeys())
}

// CellSize is the width of one grid cell at the given subdivision
func (l Layout) CellSize(subdivisions Subdivision) float64 {
	return l.MeasureWidth / float64(subdivisions)
}

// PitchName returns e.g. "C#3" for a key index
func (l Layout) PitchName(index int) string {
	octave := floorDiv(index, OctaveKeys) + l.StartOctave
	return noteNames[mod12(index)] + strconv.Itoa(octave)
}

// MIDINote maps a key index to a MIDI note number (C4 = 60)
func (l Layout) MIDINote(index int) uint8 {
	n := (l.StartOctave+1)*OctaveKeys + index
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// KeyAt returns the key for a vertical surface position. Row 0 at the top
// is the highest key. Positions off the surface clamp to the nearest row.
func (l Layout) KeyAt(y float64) int {
	row := int(math.Floor(y / l.RowHeight))
	row = clampInt(row, 0, l.TotalKeys()-1)
	return l.TotalKeys() - 1 - row
}

// RowOf is the inverse of KeyAt: the visual row a key is drawn on
func (l Layout) RowOf(key int) int {
	return l.TotalKeys() - 1 - key
}

// IsBlackKey reports whether a key index falls on a black key
func IsBlackKey(index int) bool {
	return blackKeys[mod12(index)]
}

// Snap rounds position to the nearest multiple of cellSize, halves rounding up
func Snap(position, cellSize float64) float64 {
	s := math.Floor(position/cellSize+0.5) * cellSize
	if s < 0 {
		return 0
	}
	return s
}

func mod12(i int) int {
	m := i % OctaveKeys
	if m < 0 {
		m += OctaveKeys
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
