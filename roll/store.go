package roll

import (
	"github.com/google/uuid"
)

// Store holds committed notes in creation order plus at most one draft.
// It is not safe for concurrent use; the UI owns it.
type Store struct {
	notes []Note
	seq   uint64
	newID func() string

	draft     *Note
	draftCell float64 // cell size the draft was created with
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithIDFunc replaces the UUID generator
func WithIDFunc(f func() string) StoreOption {
	return func(s *Store) {
		s.newID = f
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft starts a new draft one cell long. A pending draft is dropped.
func (s *Store) CreateDraft(key int, start, cellSize float64, color Color) Note {
	s.seq++
	s.draft = &Note{
		ID:       s.newID(),
		Seq:      s.seq,
		Key:      key,
		Start:    start,
		Duration: cellSize,
		Color:    color,
	}
	s.draftCell = cellSize
	return *s.draft
}

// GrowDraft resizes the draft so it ends near newEnd. Never below one cell.
func (s *Store) GrowDraft(newEnd float64) {
	if s.draft == nil {
		return
	}
	s.draft.Duration = max(s.draftCell, Snap(newEnd-s.draft.Start, s.draftCell))
}

// CommitDraft moves the draft into the committed set
func (s *Store) CommitDraft() (Note, bool) {
	if s.draft == nil {
		return Note{}, false
	}
	n := *s.draft
	s.notes = append(s.notes, n)
	s.draft = nil
	s.draftCell = 0
	return n, true
}

// AbortDraft discards the draft
func (s *Store) AbortDraft() {
	s.draft = nil
	s.draftCell = 0
}

// Remove deletes a committed note. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every committed note and any draft
func (s *Store) Clear() {
	s.notes = nil
	s.AbortDraft()
}

// Notes returns a copy of the committed notes in creation order
func (s *Store) Notes() []Note {
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *Store) Len() int {
	return len(s.notes)
}

func (s *Store) Draft() (Note, bool) {
	if s.draft == nil {
		return Note{}, false
	}
	return *s.draft, true
}

// NoteAt hit-tests committed notes. The newest note wins on overlap since
// it is drawn on top.
func (s *Store) NoteAt(key int, x float64) (Note, bool) {
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].Covers(key, x) {
			return s.notes[i], true
		}
	}
	return Note{}, false
}
