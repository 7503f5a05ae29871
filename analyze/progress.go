package analyze

import (
	"errors"
	"sync"

	"github.com/SebastianChristoph/brickonizer/datastructures"
)

var (
	// ErrAnalysisRunning signals a start request while another analysis is
	// still in flight for the same session.
	ErrAnalysisRunning = errors.New("analysis already running")
	// ErrNoBoxes signals a start request for a session without any boxes.
	ErrNoBoxes = errors.New("no boxes to analyze")
)

// Progress is the per-session analysis state, shared between the pipeline
// goroutine and the progress polling handlers. It has its own lock and is
// never held across a recognizer call, so polling can't starve.
type Progress struct {
	mu         sync.Mutex
	current    int
	total      int
	inProgress bool
	cancelled  bool
}

// TryStart claims the session's single analysis slot. Only one analysis may
// run per session; a second start returns ErrAnalysisRunning and changes
// nothing.
func (p *Progress) TryStart(total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inProgress {
		return ErrAnalysisRunning
	}
	if total <= 0 {
		return ErrNoBoxes
	}
	p.current = 0
	p.total = total
	p.inProgress = true
	p.cancelled = false
	return nil
}

// Advance marks one more box as processed. The new value is immediately
// visible to concurrent Snapshot calls.
func (p *Progress) Advance() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
}

// Cancel requests a running analysis to stop between calls. It reports
// whether an analysis was actually running; cancelling an idle session is a
// no-op.
func (p *Progress) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inProgress {
		return false
	}
	p.cancelled = true
	return true
}

func (p *Progress) IsCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

func (p *Progress) finish() {
	p.mu.Lock()
	p.inProgress = false
	p.mu.Unlock()
}

func (p *Progress) Snapshot() datastructures.AnalysisProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := datastructures.AnalysisProgress{
		Current:    p.current,
		Total:      p.total,
		InProgress: p.inProgress,
		Cancelled:  p.cancelled,
	}
	if p.total > 0 {
		snapshot.Percentage = p.current * 100 / p.total
	}
	return snapshot
}
