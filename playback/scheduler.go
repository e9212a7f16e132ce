package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-pianoroll/roll"
)

// State of the transport
type State int

const (
	Stopped  State = iota
	Starting       // waiting for the instrument to activate
	Playing
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// ErrUnavailable wraps the reason the instrument could not be activated
var ErrUnavailable = errors.New("playback unavailable")

const defaultActivateTimeout = 3 * time.Second

// Instrument produces sound. The scheduler owns it exclusively.
type Instrument interface {
	// Activate acquires the output. Never called concurrently; after a
	// success it is not called again.
	Activate(ctx context.Context) error
	NoteOn(t Trigger) error
	NoteOff(t Trigger) error
	// Silence releases everything still sounding
	Silence() error
	Close() error
}

// Scheduler plays the committed notes once through an Instrument
type Scheduler struct {
	layout          roll.Layout
	tempo           Tempo
	inst            Instrument
	clock           Clock
	log             *zap.Logger
	activateTimeout time.Duration

	mu         sync.Mutex
	state      State
	activated  bool
	activating bool
	cancelAct  context.CancelFunc
	pending    []Trigger // started when the activation in flight succeeds
	err        error
	closed     bool
	gen        uint64 // bumped on every start and stop; stale callbacks compare against it
	timers     []Timer
	startedAt  time.Time

	closeOnce sync.Once

	// Notify UI of state changes
	updates chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithActivateTimeout bounds how long Activate may take
func WithActivateTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.activateTimeout = d
		}
	}
}

func New(layout roll.Layout, tempo Tempo, inst Instrument, opts ...Option) *Scheduler {
	s := &Scheduler{
		layout:          layout,
		tempo:           tempo,
		inst:            inst,
		clock:           RealClock(),
		log:             zap.NewNop(),
		activateTimeout: defaultActivateTimeout,
		updates:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Updates signals (coalesced) whenever the state changes
func (s *Scheduler) Updates() <-chan struct{} {
	return s.updates
}

// Total is the length of one pass over the timeline
func (s *Scheduler) Total() time.Duration {
	return seconds(TimelineSeconds(s.layout, s.tempo))
}

// Play schedules every note and arms the auto-stop timer. Ignored unless
// Stopped, so a second request while activating or playing never stacks.
// Only one Activate call is ever in flight: a Play after Stop during
// activation hands its notes to the activation already running.
func (s *Scheduler) Play(ctx context.Context, notes []roll.Note) {
	s.mu.Lock()
	if s.closed || s.err != nil || s.state != Stopped {
		s.mu.Unlock()
		return
	}

	plan := Plan(s.layout, s.tempo, notes)

	if s.activated {
		s.startLocked(plan)
		s.mu.Unlock()
		s.notify()
		return
	}

	s.state = Starting
	s.gen++
	s.pending = plan
	if s.activating {
		s.mu.Unlock()
		s.notify()
		return
	}

	s.activating = true
	actx, cancel := context.WithTimeout(ctx, s.activateTimeout)
	s.cancelAct = cancel
	s.mu.Unlock()
	s.notify()

	go s.activate(actx)
}

// activate runs the single Activate call. A failure is sticky: the
// instrument is unusable, so the scheduler stays inert even if the user
// stopped while waiting.
func (s *Scheduler) activate(ctx context.Context) {
	err := s.inst.Activate(ctx)

	s.mu.Lock()
	s.cancelAct()
	s.cancelAct = nil
	s.activating = false
	plan := s.pending
	s.pending = nil

	if s.closed {
		// Close ran while we were activating and left the instrument to us
		s.mu.Unlock()
		if err := s.closeInstrument(); err != nil {
			s.log.Warn("close instrument", zap.Error(err))
		}
		return
	}

	if err != nil {
		s.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		s.log.Warn("instrument activation failed", zap.Error(err))
		s.state = Stopped
		s.mu.Unlock()
		s.notify()
		return
	}

	s.activated = true
	if s.state != Starting {
		// stopped while activating
		s.mu.Unlock()
		return
	}
	s.startLocked(plan)
	s.mu.Unlock()
	s.notify()
}

func (s *Scheduler) startLocked(plan []Trigger) {
	s.gen++
	gen := s.gen
	s.state = Playing
	s.startedAt = s.clock.Now()

	for _, t := range plan {
		t := t
		s.timers = append(s.timers,
			s.clock.AfterFunc(t.Offset, func() { s.fire(gen, t, true) }),
			s.clock.AfterFunc(t.End(), func() { s.fire(gen, t, false) }),
		)
	}
	total := s.Total()
	s.timers = append(s.timers, s.clock.AfterFunc(total, func() { s.expire(gen) }))

	s.log.Info("playback started", zap.Int("notes", len(plan)), zap.Duration("total", total))
}

func (s *Scheduler) fire(gen uint64, t Trigger, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != Playing {
		return
	}

	var err error
	if on {
		err = s.inst.NoteOn(t)
	} else {
		err = s.inst.NoteOff(t)
	}
	if err != nil {
		s.log.Warn("trigger failed", zap.String("pitch", t.Pitch), zap.Bool("on", on), zap.Error(err))
	}
}

func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.log.Info("playback finished")
	s.mu.Unlock()
	s.notify()
}

// Stop cancels all pending triggers and the auto-stop timer. Once it
// returns no further trigger reaches the instrument.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopped := s.stopLocked()
	s.mu.Unlock()
	if stopped {
		s.log.Info("playback stopped")
		s.notify()
	}
}

func (s *Scheduler) stopLocked() bool {
	if s.state == Stopped {
		return false
	}
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	if s.state == Playing {
		if err := s.inst.Silence(); err != nil {
			s.log.Warn("silence failed", zap.Error(err))
		}
	}
	s.state = Stopped
	return true
}

// Toggle is the play/pause control
func (s *Scheduler) Toggle(ctx context.Context, notes []roll.Note) {
	if s.Playing() {
		s.Stop()
		return
	}
	s.Play(ctx, notes)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Playing is true while starting or playing; the control shows "pause"
func (s *Scheduler) Playing() bool {
	return s.State() != Stopped
}

// Available is false once activation has failed
func (s *Scheduler) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err == nil && !s.closed
}

// Err returns the activation failure, if any
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Elapsed is the time since playback started, zero unless Playing
func (s *Scheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing {
		return 0
	}
	return s.clock.Now().Sub(s.startedAt)
}

// Close stops playback and releases the instrument. If an activation is
// still running the instrument is closed as soon as it returns.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	activating := s.activating
	if s.cancelAct != nil {
		s.cancelAct()
	}
	s.mu.Unlock()

	if activating {
		return nil
	}
	return s.closeInstrument()
}

func (s *Scheduler) closeInstrument() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.inst.Close()
	})
	return err
}

func (s *Scheduler) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
