package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ScanTimeout bounds a port listing; CoreMIDI can hang
const ScanTimeout = 3 * time.Second

var (
	ErrNoOutput    = errors.New("no MIDI output port")
	ErrScanTimeout = errors.New("MIDI port scan timed out")
)

// swapped out in tests
var getOutPorts = func() []drivers.Out {
	return gomidi.GetOutPorts()
}

// OutPorts lists output ports, giving up when ctx ends or after ScanTimeout
func OutPorts(ctx context.Context) ([]drivers.Out, error) {
	ctx, cancel := context.WithTimeout(ctx, ScanTimeout)
	defer cancel()

	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- getOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-ctx.Done():
		// User may need to run: sudo killall coreaudiod midiserver
		return nil, fmt.Errorf("%w: %w", ErrScanTimeout, ctx.Err())
	}
}

// OutPortNames lists output port names
func OutPortNames(ctx context.Context) ([]string, error) {
	outs, err := OutPorts(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// FindOut returns the output port called name. An empty name picks the
// first port; otherwise an exact match wins over a case-insensitive
// substring match.
func FindOut(ctx context.Context, name string) (drivers.Out, error) {
	outs, err := OutPorts(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	idx := MatchPort(names, name)
	if idx < 0 {
		if name == "" {
			return nil, ErrNoOutput
		}
		return nil, fmt.Errorf("%w: %q", ErrNoOutput, name)
	}
	return outs[idx], nil
}

// MatchPort picks a port index by name, -1 if none fits
func MatchPort(names []string, want string) int {
	if len(names) == 0 {
		return -1
	}
	if want == "" {
		return 0
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	lower := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			return i
		}
	}
	return -1
}
