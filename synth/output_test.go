package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-pianoroll/midi"
	"go-pianoroll/playback"
)

type wire struct {
	msgs   []gomidi.Message
	closed int
	fail   error
}

func newTestOutput(t *testing.T, w *wire) *Output {
	t.Helper()
	o := New("test", 3, 90)
	o.open = func(ctx context.Context, portName string) (sendFunc, func() error, error) {
		send := func(m gomidi.Message) error {
			if w.fail != nil {
				return w.fail
			}
			w.msgs = append(w.msgs, m)
			return nil
		}
		return send, func() error { w.closed++; return nil }, nil
	}
	require.NoError(t, o.Activate(context.Background()))
	return o
}

func trig(note uint8) playback.Trigger {
	return playback.Trigger{MIDINote: note}
}

func TestNoteOnSendsOnChannel(t *testing.T) {
	w := &wire{}
	o := newTestOutput(t, w)

	require.NoError(t, o.NoteOn(trig(60)))
	require.Len(t, w.msgs, 1)

	var ch, key, vel uint8
	require.True(t, w.msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(2), ch, "channel 3 is zero-based 2")
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(90), vel)
	assert.Equal(t, 1, o.Held())

	require.NoError(t, o.NoteOff(trig(60)))
	require.Len(t, w.msgs, 2)
	assert.True(t, w.msgs[1].GetNoteOff(&ch, &key, &vel))
	assert.Zero(t, o.Held())
}

func TestOverlappingSamePitchReleasesOnce(t *testing.T) {
	w := &wire{}
	o := newTestOutput(t, w)

	require.NoError(t, o.NoteOn(trig(48)))
	require.NoError(t, o.NoteOn(trig(48)))
	require.NoError(t, o.NoteOff(trig(48)))
	assert.Len(t, w.msgs, 2, "first off is swallowed")
	require.NoError(t, o.NoteOff(trig(48)))
	assert.Len(t, w.msgs, 3)

	require.NoError(t, o.NoteOff(trig(48)))
	assert.Len(t, w.msgs, 3, "stray off is ignored")
}

func TestSilenceReleasesHeldNotes(t *testing.T) {
	w := &wire{}
	o := newTestOutput(t, w)

	o.NoteOn(trig(50))
	o.NoteOn(trig(52))
	w.msgs = nil

	require.NoError(t, o.Silence())
	require.Len(t, w.msgs, 4)

	offs := 0
	var ch, key, vel, cc, val uint8
	for _, m := range w.msgs[:2] {
		if m.GetNoteOff(&ch, &key, &vel) {
			offs++
		}
	}
	assert.Equal(t, 2, offs)
	require.True(t, w.msgs[2].GetControlChange(&ch, &cc, &val))
	assert.Equal(t, midi.CCAllNotesOff, cc)
	require.True(t, w.msgs[3].GetControlChange(&ch, &cc, &val))
	assert.Equal(t, midi.CCAllSoundOff, cc)
	assert.Equal(t, uint8(2), ch)
	assert.Zero(t, o.Held())
}

func TestCloseSilencesAndClosesPort(t *testing.T) {
	w := &wire{}
	o := newTestOutput(t, w)
	o.NoteOn(trig(50))

	require.NoError(t, o.Close())
	assert.Equal(t, 1, w.closed)
	require.NoError(t, o.Close())
	assert.Equal(t, 1, w.closed)

	assert.ErrorIs(t, o.NoteOn(trig(50)), ErrNotActive)
}

func TestActivateFailure(t *testing.T) {
	o := New("", 1, 100)
	denied := errors.New("port busy")
	o.open = func(ctx context.Context, portName string) (sendFunc, func() error, error) {
		return nil, nil, denied
	}
	assert.ErrorIs(t, o.Activate(context.Background()), denied)
	assert.ErrorIs(t, o.NoteOn(trig(60)), ErrNotActive)
	assert.NoError(t, o.Silence())
}

func TestSendErrorsAreWrapped(t *testing.T) {
	w := &wire{}
	o := newTestOutput(t, w)
	w.fail = errors.New("cable pulled")
	assert.ErrorIs(t, o.NoteOn(trig(60)), w.fail)
}

func TestActivateTwiceOpensOnce(t *testing.T) {
	opened := 0
	o := New("", 0, 100)
	o.open = func(ctx context.Context, portName string) (sendFunc, func() error, error) {
		opened++
		return func(gomidi.Message) error { return nil }, nil, nil
	}
	require.NoError(t, o.Activate(context.Background()))
	require.NoError(t, o.Activate(context.Background()))
	assert.Equal(t, 1, opened)
	assert.NoError(t, o.Close())
}
