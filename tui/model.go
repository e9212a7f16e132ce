package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"go-pianoroll/debug"
	"go-pianoroll/playback"
	"go-pianoroll/roll"
	"go-pianoroll/theme"
	"go-pianoroll/widgets"
)

// Screen geometry. The surface starts below the header and right of the
// key column; one terminal column is one sixteenth of a measure.
const (
	surfaceTop  = 3
	keyColWidth = 5
	colsPerBar  = int(roll.Sixteenth)

	playheadInterval = 50 * time.Millisecond
)

type Model struct {
	Ctrl   *roll.Controller
	Player *playback.Scheduler // nil when running silent
	Theme  *theme.Theme

	ctx      context.Context
	log      *zap.Logger
	debounce func(func())
	saver    *gridSaver

	inside   bool
	quitting bool
	showHelp bool
}

type UpdateMsg struct{}

type tickMsg time.Time

// Option configures a Model
type Option func(*Model)

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSubdivisionSaver calls save with the grid choice once it has stopped
// changing for the given delay. A change still waiting is saved on quit.
func WithSubdivisionSaver(delay time.Duration, save func(roll.Subdivision)) Option {
	return func(m *Model) {
		m.debounce = debounce.New(delay)
		m.saver = &gridSaver{save: save}
	}
}

// gridSaver holds the latest unsaved grid choice
type gridSaver struct {
	mu      sync.Mutex
	pending bool
	sub     roll.Subdivision
	save    func(roll.Subdivision)
}

func (g *gridSaver) mark(s roll.Subdivision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = true
	g.sub = s
}

// flush saves the pending choice, if any. Held across save so a quit
// waits for a save already running.
func (g *gridSaver) flush() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.pending {
		return
	}
	g.pending = false
	g.save(g.sub)
}

func NewModel(ctx context.Context, ctrl *roll.Controller, player *playback.Scheduler, th *theme.Theme, opts ...Option) Model {
	m := Model{
		Ctrl:   ctrl,
		Player: player,
		Theme:  th,
		ctx:    ctx,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func ListenForUpdates(player *playback.Scheduler) tea.Cmd {
	return func() tea.Msg {
		<-player.Updates()
		return UpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(playheadInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	if m.Player == nil {
		return nil
	}
	return ListenForUpdates(m.Player)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case UpdateMsg:
		cmds := []tea.Cmd{ListenForUpdates(m.Player)}
		if m.Player.Playing() {
			cmds = append(cmds, tick())
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		if m.Player != nil && m.Player.Playing() {
			return m, tick()
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.Player != nil {
			m.Player.Stop()
		}
		if m.saver != nil {
			m.saver.flush()
		}
		return m, tea.Quit

	case " ", "space", "p":
		if m.Player != nil {
			m.Player.Toggle(m.ctx, m.Ctrl.Store().Notes())
		}

	case "g":
		m.setSubdivision(m.Ctrl.Subdivision().Next())

	case "1", "2", "3", "4", "5":
		// 1 is a whole measure, 5 a sixteenth
		i := int(msg.String()[0] - '1')
		m.setSubdivision(roll.Subdivisions[len(roll.Subdivisions)-1-i])

	case "x", "delete", "backspace":
		m.Ctrl.DeleteAtHover()

	case "esc":
		m.Ctrl.Cancel()

	case "c":
		if m.Ctrl.State() == roll.Idle {
			m.Ctrl.Store().Clear()
		}

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) setSubdivision(s roll.Subdivision) {
	if s == m.Ctrl.Subdivision() {
		return
	}
	m.Ctrl.SetSubdivision(s)
	if m.saver != nil {
		m.saver.mark(s)
		m.debounce(m.saver.flush)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row, inside := m.surfaceCell(msg.X, msg.Y)
	layout := m.Ctrl.Layout()
	w := colWidth(layout)
	x := float64(col) * w
	y := float64(row)*layout.RowHeight + layout.RowHeight/2

	switch msg.Action {
	case tea.MouseActionPress:
		if !inside || msg.Button != tea.MouseButtonLeft {
			return
		}
		m.inside = true
		if m.Ctrl.Press(x, y) {
			m.log.Debug("note deleted by click", zap.Int("col", col), zap.Int("row", row))
		}
		m.Ctrl.Move(x, y)

	case tea.MouseActionMotion:
		if !inside {
			if m.inside {
				m.inside = false
				m.Ctrl.Leave()
			}
			return
		}
		m.inside = true
		debug.LogEvery(50, "mouse", "motion col=%d row=%d state=%s", col, row, m.Ctrl.State())
		if m.Ctrl.State() == roll.Drawing {
			// grow to the right edge of the column under the pointer
			m.Ctrl.DragTo(x, y, x+w)
			return
		}
		m.Ctrl.Move(x, y)

	case tea.MouseActionRelease:
		if m.Ctrl.State() == roll.Drawing {
			m.Ctrl.Release(x+w, y)
		}
		if inside {
			m.Ctrl.Move(x, y)
		}
	}
}

// surfaceCell maps a terminal position to a surface column and row. Values
// outside the surface are clamped and reported with inside false.
func (m Model) surfaceCell(sx, sy int) (col, row int, inside bool) {
	layout := m.Ctrl.Layout()
	cols := surfaceCols(layout)
	rows := layout.TotalKeys()

	col = sx - keyColWidth
	row = sy - surfaceTop
	inside = col >= 0 && col < cols && row >= 0 && row < rows

	col = min(max(col, 0), cols-1)
	row = min(max(row, 0), rows-1)
	return col, row, inside
}

func colWidth(l roll.Layout) float64 {
	return l.CellSize(roll.Sixteenth)
}

func surfaceCols(l roll.Layout) int {
	return l.Measures * colsPerBar
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	tooltipStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Surface()).
		Padding(0, 1)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("go-pianoroll  ") + m.statusView())
	out.WriteString("\n\n")
	out.WriteString(m.surfaceView())
	out.WriteString("\n")

	if h, ok := m.Ctrl.Hover(); ok {
		layout := m.Ctrl.Layout()
		out.WriteString(tooltipStyle.Render(fmt.Sprintf("%s  %.0f", layout.PitchName(h.Key), h.X)))
	}
	out.WriteString("\n")

	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(helpSections)))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(m.Theme.NoteFill(roll.Green), "green", "note"))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(m.Theme.NoteFill(roll.Pink), "pink", "note"))
	} else {
		out.WriteString(dimStyle.Render("click:place/delete  drag:lengthen  space:play  g/1-5:grid  x:delete  ?:help  q:quit"))
	}

	return out.String()
}

var helpSections = []widgets.KeySection{
	{Title: "Editing", Keys: []widgets.KeyBinding{
		{Key: "click", Desc: "place a note, or delete the one under the pointer"},
		{Key: "drag", Desc: "lengthen the note being placed"},
		{Key: "x", Desc: "delete the note under the pointer"},
		{Key: "esc", Desc: "discard the note being placed"},
		{Key: "c", Desc: "clear all notes"},
	}},
	{Title: "Grid", Keys: []widgets.KeyBinding{
		{Key: "g", Desc: "next grid size"},
		{Key: "1-5", Desc: "whole to sixteenth"},
	}},
	{Title: "Playback", Keys: []widgets.KeyBinding{
		{Key: "space / p", Desc: "play or stop"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) statusView() string {
	warn := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	fg := lipgloss.NewStyle().Foreground(m.Theme.FG())

	var state string
	switch {
	case m.Player == nil:
		state = warn.Render("SILENT")
	case !m.Player.Available():
		state = warn.Render("NO AUDIO")
	case m.Player.State() == playback.Playing:
		state = fg.Render(fmt.Sprintf("⏸ PLAY %4.1fs/%4.1fs", m.Player.Elapsed().Seconds(), m.Player.Total().Seconds()))
	case m.Player.State() == playback.Starting:
		state = fg.Render("⏸ STARTING")
	default:
		state = fg.Render("▶ STOP")
	}

	labels := make([]string, len(roll.Subdivisions))
	selected := 0
	for i, s := range roll.Subdivisions {
		labels[i] = s.Label()
		if s == m.Ctrl.Subdivision() {
			selected = i
		}
	}
	grid := widgets.RenderChoices(labels, selected, m.Theme.Accent())

	return fmt.Sprintf("%s  grid:%s  notes:%d", state, grid, m.Ctrl.Store().Len())
}

// playheadCol is the column under the playhead, or -1 when stopped
func (m Model) playheadCol() int {
	if m.Player == nil || m.Player.State() != playback.Playing {
		return -1
	}
	return playheadColumn(m.Player.Elapsed(), m.Player.Total())
}

// playheadColumn maps elapsed time back through the trigger timing, where
// one pass covers a single measure
func playheadColumn(elapsed, total time.Duration) int {
	if total <= 0 || elapsed < 0 {
		return -1
	}
	return int(float64(colsPerBar) * float64(elapsed) / float64(total))
}

func (m Model) surfaceView() string {
	layout := m.Ctrl.Layout()
	store := m.Ctrl.Store()
	sym := m.Theme.Symbols
	w := colWidth(layout)
	cols := surfaceCols(layout)
	colsPerCell := max(int(m.Ctrl.CellSize()/w+0.5), 1)
	playhead := m.playheadCol()
	hover, hovering := m.Ctrl.Hover()
	draft, drawing := store.Draft()

	whiteKey := lipgloss.NewStyle().Foreground(m.Theme.BG()).Background(m.Theme.FG())
	blackKey := lipgloss.NewStyle().Foreground(m.Theme.FG()).Background(m.Theme.BG())
	gridStyle := lipgloss.NewStyle().Foreground(m.Theme.Grid())
	barStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	hoverStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	playStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())

	var out strings.Builder
	for row := 0; row < layout.TotalKeys(); row++ {
		key := layout.TotalKeys() - 1 - row

		label := fmt.Sprintf("%-4s", layout.PitchName(key))
		if roll.IsBlackKey(key) {
			out.WriteString(blackKey.Render(label))
			out.WriteRune(sym.BlackKey)
		} else {
			out.WriteString(whiteKey.Render(label))
			out.WriteRune(sym.WhiteKey)
		}

		for col := 0; col < cols; col++ {
			x := float64(col) * w
			mid := x + w/2

			switch {
			case col == playhead:
				out.WriteString(playStyle.Render(string(sym.Playhead)))

			case drawing && draft.Key == key && mid >= draft.Start && mid < draft.End():
				out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.NoteFill(draft.Color)).Render(string(sym.Draft)))

			default:
				if n, ok := store.NoteAt(key, mid); ok {
					glyph := sym.NoteBody
					if n.Start >= x && n.Start < x+w {
						glyph = sym.NoteHead
					}
					style := lipgloss.NewStyle().
						Foreground(m.Theme.NoteFill(n.Color)).
						Background(m.Theme.NoteStroke(n.Color))
					out.WriteString(style.Render(string(glyph)))
					continue
				}

				if hovering && hover.Row == row && mid >= hover.X && mid < hover.X+m.Ctrl.CellSize() {
					out.WriteString(hoverStyle.Render(string(sym.Hover)))
					continue
				}

				switch {
				case col%colsPerBar == 0:
					out.WriteString(barStyle.Render(string(sym.MeasureBar)))
				case col%colsPerCell == 0:
					out.WriteString(gridStyle.Render(string(sym.Cell)))
				default:
					out.WriteRune(sym.Blank)
				}
			}
		}
		if row < layout.TotalKeys()-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}
