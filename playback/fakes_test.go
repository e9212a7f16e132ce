package playback

import (
	"context"
	"sort"
	"sync"
	"time"
)

// manualClock fires timers only when advanced
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Time
	seq   int
	f     func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// pending counts armed timers that have neither fired nor been stopped
func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves time forward, firing due timers in deadline order
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		due := make([]*manualTimer, 0)
		for _, t := range c.timers {
			if !t.done && !t.at.After(target) {
				due = append(due, t)
			}
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		if len(due) > 0 {
			next = due[0]
			next.done = true
			c.now = next.at
		} else {
			c.now = target
		}
		c.mu.Unlock()

		if next == nil {
			return
		}
		next.f()
	}
}

type event struct {
	kind string // "on", "off", "silence"
	note uint8
	at   time.Time
}

// recorder is an Instrument that remembers what it was asked to do
type recorder struct {
	clock *manualClock

	mu          sync.Mutex
	events      []event
	activate    func(ctx context.Context) error
	activated   int
	inFlight    int
	maxInFlight int
	closed      int
}

func newRecorder(clock *manualClock) *recorder {
	return &recorder{clock: clock}
}

func (r *recorder) Activate(ctx context.Context) error {
	r.mu.Lock()
	r.activated++
	r.inFlight++
	r.maxInFlight = max(r.maxInFlight, r.inFlight)
	fn := r.activate
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (r *recorder) activations() (total, maxConcurrent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activated, r.maxInFlight
}

func (r *recorder) activatedCount() int {
	total, _ := r.activations()
	return total
}

func (r *recorder) closes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) record(kind string, note uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: kind, note: note, at: r.clock.Now()})
}

func (r *recorder) NoteOn(t Trigger) error {
	r.record("on", t.MIDINote)
	return nil
}

func (r *recorder) NoteOff(t Trigger) error {
	r.record("off", t.MIDINote)
	return nil
}

func (r *recorder) Silence() error {
	r.record("silence", 0)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.kind == kind {
			n++
		}
	}
	return n
}
