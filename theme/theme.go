package theme

import (
	"github.com/charmbracelet/lipgloss"

	"go-pianoroll/roll"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Key column
	WhiteKey rune // ▕ edge after a white key label
	BlackKey rune // █ edge after a black key label

	// Surface cells
	Cell       rune // · empty cell on a grid line
	Blank      rune //   empty cell between grid lines
	MeasureBar rune // │ measure boundary
	NoteHead   rune // ▌ first column of a note
	NoteBody   rune // █ rest of a note
	Draft      rune // ▒ note being drawn
	Hover      rune // ░ pointer position
	Playhead   rune // ┃ current playback position
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			WhiteKey: '▕',
			BlackKey: '█',

			Cell:       '·',
			Blank:      ' ',
			MeasureBar: '│',
			NoteHead:   '▌',
			NoteBody:   '█',
			Draft:      '▒',
			Hover:      '░',
			Playhead:   '┃',
		},
	}
}

// Default is the built-in night palette
func Default() *Theme {
	return New(DefaultPalette())
}

// Color roles are palette indices into default.gpl
const (
	RoleBG = iota
	RoleSurface
	RoleGrid
	RoleMuted
	RoleFG
	RoleAccent
	RoleCursor
	RolePink
	RoleGreen
	RolePinkStroke
	RoleGreenStroke
	RoleWarning
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return t.role(RoleBG)
}

func (t *Theme) Surface() lipgloss.Color {
	return t.role(RoleSurface)
}

func (t *Theme) Grid() lipgloss.Color {
	return t.role(RoleGrid)
}

func (t *Theme) FG() lipgloss.Color {
	return t.role(RoleFG)
}

func (t *Theme) Accent() lipgloss.Color {
	return t.role(RoleAccent)
}

func (t *Theme) Muted() lipgloss.Color {
	return t.role(RoleMuted)
}

func (t *Theme) Cursor() lipgloss.Color {
	return t.role(RoleCursor)
}

func (t *Theme) Warning() lipgloss.Color {
	return t.role(RoleWarning)
}

// NoteFill is the body color for a note color name
func (t *Theme) NoteFill(c roll.Color) lipgloss.Color {
	if c == roll.Pink {
		return t.role(RolePink)
	}
	return t.role(RoleGreen)
}

// NoteStroke is the darker outline shade paired with NoteFill
func (t *Theme) NoteStroke(c roll.Color) lipgloss.Color {
	if c == roll.Pink {
		return t.role(RolePinkStroke)
	}
	return t.role(RoleGreenStroke)
}

func (t *Theme) role(i int) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Index(i))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
