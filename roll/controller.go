package roll

import (
	"math"

	"go.uber.org/zap"
)

// GestureState is the placement state machine
type GestureState int

const (
	Idle GestureState = iota
	Drawing
)

func (g GestureState) String() string {
	if g == Drawing {
		return "drawing"
	}
	return "idle"
}

// Hover is the snapped cell under the pointer
type Hover struct {
	X   float64 // snapped surface position of the cell
	Row int     // visual row, 0 at top
	Key int
}

// Controller turns pointer events over the surface into store mutations.
// Coordinates are surface distances with the origin at the top-left.
type Controller struct {
	layout Layout
	store  *Store
	colors *ColorSource
	sub    Subdivision
	log    *zap.Logger

	state GestureState
	hover *Hover
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func NewController(layout Layout, store *Store, colors *ColorSource, sub Subdivision, opts ...ControllerOption) *Controller {
	c := &Controller{
		layout: layout,
		store:  store,
		colors: colors,
		sub:    sub,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Layout() Layout { return c.layout }
func (c *Controller) Store() *Store { return c.store }
func (c *Controller) State() GestureState { return c.state }
func (c *Controller) Subdivision() Subdivision { return c.sub }
func (c *Controller) CellSize() float64 { return c.layout.CellSize(c.sub) }

// SetSubdivision changes the grid for future gestures. Committed notes keep
// their geometry and a draft in progress keeps its own cell size.
func (c *Controller) SetSubdivision(s Subdivision) {
	if !s.Valid() || s == c.sub {
		return
	}
	c.sub = s
	c.log.Debug("grid changed", zap.String("subdivision", s.Label()))
}

// Press either deletes the committed note under the pointer or starts a new
// draft. It never does both. Returns true if a note was deleted.
func (c *Controller) Press(x, y float64) bool {
	x, y = c.clampPoint(x, y)
	key := c.layout.KeyAt(y)

	if n, ok := c.store.NoteAt(key, x); ok {
		c.store.Remove(n.ID)
		c.log.Debug("note removed", zap.String("id", n.ID), zap.Int("key", n.Key))
		return true
	}

	// a press without a release in between: finish the old gesture first
	if c.state == Drawing {
		c.commit()
	}

	cell := c.CellSize()
	start := math.Min(Snap(x, cell), c.layout.TotalWidth()-cell)
	n := c.store.CreateDraft(key, start, cell, c.colors.Pick())
	c.state = Drawing
	c.log.Debug("draft started",
		zap.String("id", n.ID),
		zap.Int("key", key),
		zap.Float64("start", start),
		zap.Float64("cell", cell))
	return false
}

// Move updates the hover cell and, while drawing, the draft length
func (c *Controller) Move(x, y float64) {
	c.DragTo(x, y, x)
}

// DragTo is Move with the draft end given apart from the pointer, for
// hosts whose pointer covers a span rather than a point.
func (c *Controller) DragTo(x, y, end float64) {
	x, y = c.clampPoint(x, y)
	end, _ = c.clampPoint(end, y)
	cell := c.CellSize()

	row := clampInt(int(math.Floor(y/c.layout.RowHeight)), 0, c.layout.TotalKeys()-1)
	c.hover = &Hover{
		X:   math.Min(Snap(x, cell), c.layout.TotalWidth()-cell),
		Row: row,
		Key: c.layout.TotalKeys() - 1 - row,
	}

	if c.state == Drawing {
		c.store.GrowDraft(end)
	}
}

// Release ends the gesture and commits the draft as it stands
func (c *Controller) Release(x, y float64) (Note, bool) {
	if c.state != Drawing {
		return Note{}, false
	}
	return c.commit()
}

// Leave clears the hover cell. A gesture in progress is committed at its
// last size, the same as a release.
func (c *Controller) Leave() (Note, bool) {
	c.hover = nil
	if c.state != Drawing {
		return Note{}, false
	}
	return c.commit()
}

// Cancel drops a gesture in progress without committing it
func (c *Controller) Cancel() {
	if c.state == Drawing {
		c.store.AbortDraft()
		c.state = Idle
		c.log.Debug("draft aborted")
	}
}

// Delete removes a committed note by id
func (c *Controller) Delete(id string) bool {
	return c.store.Remove(id)
}

// DeleteAtHover removes the committed note under the hover cell, if any
func (c *Controller) DeleteAtHover() bool {
	if c.hover == nil {
		return false
	}
	n, ok := c.store.NoteAt(c.hover.Key, c.hover.X)
	if !ok {
		return false
	}
	return c.store.Remove(n.ID)
}

func (c *Controller) Hover() (Hover, bool) {
	if c.hover == nil {
		return Hover{}, false
	}
	return *c.hover, true
}

func (c *Controller) commit() (Note, bool) {
	c.state = Idle
	n, ok := c.store.CommitDraft()
	if ok {
		c.log.Debug("note committed",
			zap.String("id", n.ID),
			zap.Int("key", n.Key),
			zap.Float64("start", n.Start),
			zap.Float64("duration", n.Duration))
	}
	return n, ok
}

func (c *Controller) clampPoint(x, y float64) (float64, float64) {
	return clamp(x, 0, c.layout.TotalWidth()), clamp(y, 0, math.Nextafter(c.layout.TotalHeight(), 0))
}
