package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"go-pianoroll/midi"
	"go-pianoroll/playback"
)

var ErrNotActive = errors.New("synth output not active")

// sendFunc writes one message to the port
type sendFunc func(gomidi.Message) error

// Output plays triggers on an external synth through a MIDI output port.
// It implements playback.Instrument.
type Output struct {
	portName string
	channel  uint8 // zero-based
	velocity uint8
	log      *zap.Logger

	// opens the port; replaced in tests
	open func(ctx context.Context, portName string) (sendFunc, func() error, error)

	mu    sync.Mutex
	send  sendFunc
	close func() error
	held  map[uint8]int // sounding count per MIDI note
}

// Option configures an Output
type Option func(*Output)

func WithLogger(l *zap.Logger) Option {
	return func(o *Output) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates an output for the named port. Channel is 1-16 as shown to
// users; an empty port name means the first available port.
func New(portName string, channel, velocity uint8, opts ...Option) *Output {
	if channel < 1 || channel > 16 {
		channel = 1
	}
	o := &Output{
		portName: portName,
		channel:  channel - 1,
		velocity: velocity,
		log:      zap.NewNop(),
		open:     openPort,
		held:     make(map[uint8]int),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ playback.Instrument = (*Output)(nil)

func openPort(ctx context.Context, portName string) (sendFunc, func() error, error) {
	port, err := midi.FindOut(ctx, portName)
	if err != nil {
		return nil, nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	return send, port.Close, nil
}

// Activate opens the port. Calling it again once open is a no-op.
func (o *Output) Activate(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send != nil {
		return nil
	}
	send, closeFn, err := o.open(ctx, o.portName)
	if err != nil {
		return err
	}
	o.send = send
	o.close = closeFn
	o.log.Info("synth output open", zap.String("port", o.portName), zap.Uint8("channel", o.channel+1))
	return nil
}

// NoteOn starts a note. Overlapping notes of the same pitch retrigger.
func (o *Output) NoteOn(t playback.Trigger) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return ErrNotActive
	}
	o.held[t.MIDINote]++
	return o.sendLocked(midi.Event{Type: midi.NoteOn, Channel: o.channel, Note: t.MIDINote, Velocity: o.velocity})
}

// NoteOff releases a note once every overlapping trigger of that pitch has
// ended.
func (o *Output) NoteOff(t playback.Trigger) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return ErrNotActive
	}
	n := o.held[t.MIDINote]
	if n == 0 {
		return nil
	}
	if n > 1 {
		o.held[t.MIDINote] = n - 1
		return nil
	}
	delete(o.held, t.MIDINote)
	return o.sendLocked(midi.Event{Type: midi.NoteOff, Channel: o.channel, Note: t.MIDINote})
}

// Silence releases every held note, then sends all-notes-off and
// all-sound-off
func (o *Output) Silence() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.silenceLocked()
}

func (o *Output) silenceLocked() error {
	if o.send == nil {
		return nil
	}
	var errs []error
	for note := range o.held {
		errs = append(errs, o.sendLocked(midi.Event{Type: midi.NoteOff, Channel: o.channel, Note: note}))
	}
	clear(o.held)
	errs = append(errs,
		o.sendLocked(midi.Event{Type: midi.CC, Channel: o.channel, Note: midi.CCAllNotesOff}),
		// also cuts release tails
		o.sendLocked(midi.Event{Type: midi.CC, Channel: o.channel, Note: midi.CCAllSoundOff}),
	)
	return errors.Join(errs...)
}

// Close silences and closes the port
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return nil
	}
	err := o.silenceLocked()
	if o.close != nil {
		err = errors.Join(err, o.close())
	}
	o.send = nil
	o.close = nil
	return err
}

// Held reports how many notes are sounding
func (o *Output) Held() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.held)
}

func (o *Output) sendLocked(e midi.Event) error {
	if err := o.send(e.Message()); err != nil {
		return fmt.Errorf("send %#x note %d: %w", e.Type, e.Note, err)
	}
	return nil
}
