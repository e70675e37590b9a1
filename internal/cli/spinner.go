package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// Spinner provides a progress indicator with context cancellation support.
// Its message can change while it spins.
type Spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far, for clearing
	once    sync.Once
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       os.Stderr,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				line := styleIconSpinner.Render(s.frames[i%len(s.frames)]) + " " + StyleDim.Render(s.message)
				s.width = max(s.width, len(s.message)+4)
				fmt.Fprintf(s.w, "\r%s", line)
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop stops the spinner and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
		<-s.stopped
		s.clearLine()
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	width := max(s.width, len(s.message)+4)
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", width))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Search Progress
// =============================================================================

// spinnerProgress shows the state of a running search on a spinner.
type spinnerProgress struct {
	s *Spinner
}

func (p spinnerProgress) BudgetStarted(budget int) {
	p.s.SetMessage(fmt.Sprintf("budget %d: searching depth", budget))
}

func (p spinnerProgress) DepthTried(budget, depth int, status smt.Status) {
	p.s.SetMessage(fmt.Sprintf("budget %d: depth %d %s", budget, depth, status))
}

func (p spinnerProgress) Restarted(budget, bound int) {
	p.s.SetMessage(fmt.Sprintf("budget %d: depth bound raised to %d", budget, bound))
}

func (p spinnerProgress) SwapsImproved(budget, swaps int) {
	p.s.SetMessage(fmt.Sprintf("budget %d: %d swaps", budget, swaps))
}

func (p spinnerProgress) BudgetFinished(budget int, result *schedule.TopologyResult, err error) {
	if err != nil {
		p.s.SetMessage(fmt.Sprintf("budget %d: %v", budget, err))
		return
	}
	p.s.SetMessage(fmt.Sprintf("budget %d: depth %d, %d swaps", budget, result.D, result.SwapCount))
}
