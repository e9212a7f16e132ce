package roll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayoutMatchesTwoOctaves(t *testing.T) {
	l := DefaultLayout()
	require.NoError(t, l.Validate())

	assert := assert.New(t)
	assert.Equal(25, l.TotalKeys())
	assert.Equal(640.0, l.TotalWidth())
	assert.Equal(750.0, l.TotalHeight())
	assert.Equal("C2", l.PitchName(0))
	assert.Equal("C4", l.PitchName(24))
	assert.Equal(uint8(36), l.MIDINote(0))
	assert.Equal(uint8(60), l.MIDINote(24))
}

func TestLayoutValidateRejectsBadGeometry(t *testing.T) {
	cases := map[string]Layout{
		"inverted octaves": {StartOctave: 4, EndOctave: 2, MeasureWidth: 160, Measures: 4, RowHeight: 30},
		"zero width":       {StartOctave: 2, EndOctave: 4, MeasureWidth: 0, Measures: 4, RowHeight: 30},
		"no measures":      {StartOctave: 2, EndOctave: 4, MeasureWidth: 160, Measures: 0, RowHeight: 30},
		"flat rows":        {StartOctave: 2, EndOctave: 4, MeasureWidth: 160, Measures: 4, RowHeight: 0},
		"above midi":       {StartOctave: 2, EndOctave: 12, MeasureWidth: 160, Measures: 4, RowHeight: 30},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
		})
	}
}

func TestIsBlackKeyPeriodic(t *testing.T) {
	black := map[int]bool{1: true, 3: true, 6: true, 8: true, 10: true}
	for i := -24; i < 120; i++ {
		assert.Equal(t, black[mod12(i)], IsBlackKey(i), "index %d", i)
		assert.Equal(t, IsBlackKey(i), IsBlackKey(i+12), "index %d", i)
	}
}

func TestPitchNameOctaveUp(t *testing.T) {
	l := DefaultLayout()
	for i := 0; i < l.TotalKeys(); i++ {
		a, b := l.PitchName(i), l.PitchName(i+12)
		letter := a[:len(a)-1]
		assert.Equal(t, letter, b[:len(b)-1])
		assert.Equal(t, a[len(a)-1]+1, b[len(b)-1], "%s -> %s", a, b)
		assert.Equal(t, a, l.PitchName(i), "deterministic")
	}
	assert.Equal(t, "C#2", l.PitchName(1))
	assert.Equal(t, "B3", l.PitchName(23))
}

func TestSnapProperties(t *testing.T) {
	for _, cell := range []float64{10, 20, 40, 80, 160} {
		for x := 0.0; x <= 700; x += 0.5 {
			s := Snap(x, cell)
			assert.Zero(t, math.Mod(s, cell), "snap(%g, %g)", x, cell)
			assert.LessOrEqual(t, math.Abs(s-x), cell/2, "snap(%g, %g)", x, cell)
			assert.GreaterOrEqual(t, s, 0.0)
		}
	}
}

func TestSnapRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 10.0, Snap(5, 10))
	assert.Equal(t, 0.0, Snap(4.999, 10))
	assert.Equal(t, 20.0, Snap(15, 10))
	assert.Equal(t, 0.0, Snap(-3, 10))
}

func TestKeyAtTopRowIsHighest(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 24, l.KeyAt(0))
	assert.Equal(t, 24, l.KeyAt(29.9))
	assert.Equal(t, 23, l.KeyAt(30))
	assert.Equal(t, 0, l.KeyAt(749))
	assert.Equal(t, 0, l.KeyAt(10_000), "clamped below")
	assert.Equal(t, 24, l.KeyAt(-50), "clamped above")
	assert.Equal(t, 0, l.RowOf(24))
}

func TestCellSize(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 10.0, l.CellSize(Sixteenth))
	assert.Equal(t, 160.0, l.CellSize(Whole))
}

func TestParseSubdivision(t *testing.T) {
	for in, want := range map[string]Subdivision{"16": Sixteenth, "1/8": Eighth, "1": Whole, " 4 ": Quarter} {
		got, err := ParseSubdivision(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSubdivision("3")
	assert.Error(t, err)
	_, err = ParseSubdivision("abc")
	assert.Error(t, err)

	assert.Equal(t, "1/16", Sixteenth.Label())
	assert.Equal(t, "1", Whole.Label())
	assert.Equal(t, Sixteenth, Whole.Next())
	assert.Equal(t, Eighth, Sixteenth.Next())
}
