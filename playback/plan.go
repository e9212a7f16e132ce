package playback

import (
	"math"
	"sort"
	"time"

	"go-pianoroll/roll"
)

// Tempo is fixed for a session; there is no time signature editing
type Tempo struct {
	BPM             float64
	BeatsPerMeasure int
}

// DefaultTempo gives four seconds per measure
func DefaultTempo() Tempo {
	return Tempo{BPM: 60, BeatsPerMeasure: 4}
}

func (t Tempo) SecondsPerMeasure() float64 {
	return float64(t.BeatsPerMeasure) * 60.0 / t.BPM
}

// TimelineSeconds is the length of the whole timeline
func TimelineSeconds(layout roll.Layout, tempo Tempo) float64 {
	return float64(layout.Measures) * tempo.SecondsPerMeasure()
}

// Trigger is one "play this pitch for this long at this offset" command
type Trigger struct {
	NoteID   string
	Key      int
	Pitch    string
	MIDINote uint8
	Offset   time.Duration
	Duration time.Duration
}

// End is when the note should be released, relative to playback start
func (t Trigger) End() time.Duration {
	return t.Offset + t.Duration
}

// Plan converts notes into triggers relative to a single start instant.
// Surface distance scales by timeline length per measure width. Triggers are
// ordered by offset; ties keep creation order.
func Plan(layout roll.Layout, tempo Tempo, notes []roll.Note) []Trigger {
	total := TimelineSeconds(layout, tempo)
	triggers := make([]Trigger, 0, len(notes))
	for _, n := range notes {
		triggers = append(triggers, Trigger{
			NoteID:   n.ID,
			Key:      n.Key,
			Pitch:    layout.PitchName(n.Key),
			MIDINote: layout.MIDINote(n.Key),
			Offset:   seconds(n.Start / layout.MeasureWidth * total),
			Duration: seconds(n.Duration / layout.MeasureWidth * total),
		})
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Offset < triggers[j].Offset
	})
	return triggers
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
