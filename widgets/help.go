package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderSwatch renders a single colored block
func RenderSwatch(color lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(color)
	return style.Render("■")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color lipgloss.Color, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderSwatch(color), name, desc)
}

// RenderChoices renders options on one line, the selected one bracketed
// and highlighted.
func RenderChoices(options []string, selected int, highlight lipgloss.Color) string {
	hl := lipgloss.NewStyle().Foreground(highlight).Bold(true)
	parts := make([]string, len(options))
	for i, o := range options {
		if i == selected {
			parts[i] = hl.Render("[" + o + "]")
		} else {
			parts[i] = " " + o + " "
		}
	}
	return strings.Join(parts, "")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
