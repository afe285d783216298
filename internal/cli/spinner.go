package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a message on uiOut while a conversion runs. A nil
// spinner is valid and does nothing.
type spinner struct {
	message string
	ctx     context.Context
	stop    chan struct{}
	exited  chan struct{}
	once    sync.Once
}

// startSpinner starts animating message until Stop is called or ctx ends.
func startSpinner(ctx context.Context, message string) *spinner {
	s := &spinner{
		message: message,
		ctx:     ctx,
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.exited)
	defer s.clear()

	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()
	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stop:
			return
		case <-tick.C:
			glyph := styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)])
			fmt.Fprintf(uiOut, "\r%s %s", glyph, StyleDim.Render(s.message))
		}
	}
}

func (s *spinner) clear() {
	fmt.Fprintf(uiOut, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// Stop ends the animation and waits for the line to be cleared. Repeated
// calls are no-ops.
func (s *spinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.stop)
		<-s.exited
	})
}

// Cancelled reports whether the context ended before Stop was called.
func (s *spinner) Cancelled() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.stop:
		return false
	default:
		return s.ctx.Err() != nil
	}
}
