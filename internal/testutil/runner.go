package testutil

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrInjected is returned by a RecordingRunner for a failing command.
var ErrInjected = errors.New("injected command failure")

// RecordingRunner records the first command of every batch it runs. It can
// delay each batch and fail batches containing a marker.
type RecordingRunner struct {
	Delay  time.Duration
	FailOn string

	mu      sync.Mutex
	order   []string
	running int
	peak    int
}

func (r *RecordingRunner) Run(ctx context.Context, commands []string) error {
	r.mu.Lock()
	r.running++
	r.peak = max(r.peak, r.running)
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	script := strings.Join(commands, " && ")
	if r.FailOn != "" && strings.Contains(script, r.FailOn) {
		return ErrInjected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(commands) > 0 {
		r.order = append(r.order, commands[0])
	}
	return nil
}

// Order returns the first command of every successful batch, in completion
// order.
func (r *RecordingRunner) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Peak returns the highest number of batches observed running at once.
func (r *RecordingRunner) Peak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}
