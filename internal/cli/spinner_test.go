package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// syncBuffer guards a buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testSpinner(ctx context.Context, msg string) (*Spinner, *syncBuffer) {
	s := newSpinnerWithContext(ctx, msg)
	buf := &syncBuffer{}
	s.w = buf
	return s, buf
}

func TestSpinnerDraws(t *testing.T) {
	s, buf := testSpinner(context.Background(), "Testing...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Testing...") {
		t.Errorf("output = %q", buf.String())
	}
	if !s.Cancelled() {
		t.Error("Cancelled() = false after Stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := testSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := testSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	s, buf := testSpinner(context.Background(), "first")
	s.Start()
	s.SetMessage("second message")
	time.Sleep(200 * time.Millisecond)
	s.Stop()
	if !strings.Contains(buf.String(), "second message") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinnerProgress(t *testing.T) {
	s, _ := testSpinner(context.Background(), "")
	p := spinnerProgress{s: s}

	tests := []struct {
		event func()
		want  string
	}{
		{func() { p.BudgetStarted(2) }, "budget 2: searching depth"},
		{func() { p.DepthTried(2, 7, smt.Unsat) }, "budget 2: depth 7 unsat"},
		{func() { p.Restarted(2, 16) }, "budget 2: depth bound raised to 16"},
		{func() { p.SwapsImproved(2, 3) }, "budget 2: 3 swaps"},
		{func() { p.BudgetFinished(2, &schedule.TopologyResult{D: 8, SwapCount: 1}, nil) }, "budget 2: depth 8, 1 swaps"},
		{func() { p.BudgetFinished(3, nil, errors.New("gave up")) }, "budget 3: gave up"},
	}
	for _, tt := range tests {
		tt.event()
		if s.message != tt.want {
			t.Errorf("message = %q, want %q", s.message, tt.want)
		}
	}
}
