package analyze

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SebastianChristoph/brickonizer/datastructures"
	"github.com/SebastianChristoph/brickonizer/recognize"
)

type stubRecognizer struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (recognize.Result, error)
}

func (r *stubRecognizer) Recognize(_ context.Context, _ []byte) (recognize.Result, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()
	return r.fn(call)
}

func (r *stubRecognizer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ImageName: "page1.jpg",
			Box:       datastructures.BoundingBox{X: i * 10, Y: 10, Width: 50, Height: 50},
			Crop:      []byte("jpeg"),
		}
	}
	return items
}

func collectSink(parts *[]datastructures.PartResult, mu *sync.Mutex) func(datastructures.PartResult) {
	return func(part datastructures.PartResult) {
		mu.Lock()
		*parts = append(*parts, part)
		mu.Unlock()
	}
}

func TestPipelineProducesOnePartPerBox(t *testing.T) {
	recognizer := &stubRecognizer{fn: func(call int) (recognize.Result, error) {
		switch call {
		case 1:
			return recognize.Result{
				Items:  []datastructures.Candidate{{ID: "3001", Name: "Brick 2 x 4", Score: 0.9}},
				Colors: []datastructures.ColorCandidate{{Name: "Red", Score: 0.8}},
			}, nil
		case 2:
			return recognize.Result{}, nil
		default:
			return recognize.Result{}, errors.New("connection reset")
		}
	}}

	var mu sync.Mutex
	var parts []datastructures.PartResult
	progress := &Progress{}
	if err := progress.TryStart(3); err != nil {
		t.Fatal(err)
	}

	summary := New(recognizer, 0).Run(context.Background(), testItems(3), progress, collectSink(&parts, &mu))

	if summary.Total != 3 || summary.Recognized != 1 || summary.Failed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if !parts[0].Recognized || parts[0].PartID != "3001" || parts[0].Confidence != 0.9 {
		t.Fatalf("unexpected first part: %+v", parts[0])
	}
	if parts[0].CandidateColors[0].Name != "Red" {
		t.Fatalf("color candidates missing: %+v", parts[0])
	}
	if parts[1].Recognized || parts[1].Error != "" {
		t.Fatalf("empty candidate list must be unrecognized without error: %+v", parts[1])
	}
	if parts[2].Recognized || parts[2].Error == "" {
		t.Fatalf("transport failure must be recorded on the part: %+v", parts[2])
	}

	snapshot := progress.Snapshot()
	if snapshot.Current != 3 || snapshot.Total != 3 || snapshot.InProgress || snapshot.Percentage != 100 {
		t.Fatalf("unexpected final progress: %+v", snapshot)
	}
}

func TestTryStartConflict(t *testing.T) {
	progress := &Progress{}
	if err := progress.TryStart(2); err != nil {
		t.Fatal(err)
	}
	if err := progress.TryStart(2); !errors.Is(err, ErrAnalysisRunning) {
		t.Fatalf("expected ErrAnalysisRunning, got %v", err)
	}
	progress.finish()
	if err := progress.TryStart(2); err != nil {
		t.Fatalf("restart after finish failed: %v", err)
	}
}

func TestTryStartWithoutBoxes(t *testing.T) {
	progress := &Progress{}
	if err := progress.TryStart(0); !errors.Is(err, ErrNoBoxes) {
		t.Fatalf("expected ErrNoBoxes, got %v", err)
	}
}

func TestCancelStopsBetweenCalls(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	recognizer := &stubRecognizer{fn: func(int) (recognize.Result, error) {
		started <- struct{}{}
		<-release
		return recognize.Result{Items: []datastructures.Candidate{{ID: "3001", Score: 0.9}}}, nil
	}}

	var mu sync.Mutex
	var parts []datastructures.PartResult
	progress := &Progress{}
	if err := progress.TryStart(3); err != nil {
		t.Fatal(err)
	}

	done := make(chan datastructures.AnalysisSummary)
	go func() {
		done <- New(recognizer, 0).Run(context.Background(), testItems(3), progress, collectSink(&parts, &mu))
	}()

	<-started
	if !progress.Cancel() {
		t.Fatal("cancel of a running analysis must report true")
	}
	release <- struct{}{}

	<-done
	mu.Lock()
	produced := len(parts)
	mu.Unlock()
	if produced != 1 {
		t.Fatalf("expected 1 part before cancel took effect, got %d", produced)
	}
	if recognizer.callCount() != 1 {
		t.Fatalf("expected 1 recognizer call, got %d", recognizer.callCount())
	}

	snapshot := progress.Snapshot()
	if snapshot.InProgress {
		t.Fatal("in_progress must return to false after cancel")
	}
	if !snapshot.Cancelled {
		t.Fatal("cancelled flag lost")
	}
	if snapshot.Current > snapshot.Total {
		t.Fatalf("current exceeds total: %+v", snapshot)
	}
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	progress := &Progress{}
	if progress.Cancel() {
		t.Fatal("cancel of an idle session must be a no-op")
	}
}

func TestMinimumIntervalBetweenCalls(t *testing.T) {
	var mu sync.Mutex
	var callTimes []time.Time
	recognizer := &stubRecognizer{fn: func(int) (recognize.Result, error) {
		mu.Lock()
		callTimes = append(callTimes, time.Now())
		mu.Unlock()
		return recognize.Result{}, nil
	}}

	const interval = 30 * time.Millisecond
	progress := &Progress{}
	if err := progress.TryStart(3); err != nil {
		t.Fatal(err)
	}
	var parts []datastructures.PartResult
	New(recognizer, interval).Run(context.Background(), testItems(3), progress, collectSink(&parts, &mu))

	if len(callTimes) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(callTimes))
	}
	for i := 1; i < len(callTimes); i++ {
		if gap := callTimes[i].Sub(callTimes[i-1]); gap < interval-5*time.Millisecond {
			t.Fatalf("calls %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestCropFailureRecordedWithoutAPICall(t *testing.T) {
	recognizer := &stubRecognizer{fn: func(int) (recognize.Result, error) {
		return recognize.Result{}, nil
	}}

	items := testItems(2)
	items[0].Crop = nil
	items[0].CropErr = errors.New("box outside image")

	var mu sync.Mutex
	var parts []datastructures.PartResult
	progress := &Progress{}
	if err := progress.TryStart(2); err != nil {
		t.Fatal(err)
	}
	New(recognizer, 0).Run(context.Background(), items, progress, collectSink(&parts, &mu))

	if recognizer.callCount() != 1 {
		t.Fatalf("crop failure must not hit the API, got %d calls", recognizer.callCount())
	}
	if parts[0].Recognized || parts[0].Error != "box outside image" {
		t.Fatalf("crop failure not recorded: %+v", parts[0])
	}
	if len(parts) != 2 {
		t.Fatal("run must continue past a failed box")
	}
}

func TestProgressVisibleDuringRun(t *testing.T) {
	step := make(chan struct{})
	recognizer := &stubRecognizer{fn: func(int) (recognize.Result, error) {
		<-step
		return recognize.Result{}, nil
	}}

	var mu sync.Mutex
	var parts []datastructures.PartResult
	progress := &Progress{}
	if err := progress.TryStart(2); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		New(recognizer, 0).Run(context.Background(), testItems(2), progress, collectSink(&parts, &mu))
		close(done)
	}()

	//the poll path must not block while a call is in flight
	if snapshot := progress.Snapshot(); snapshot.Current != 0 || !snapshot.InProgress {
		t.Fatalf("unexpected snapshot before first call returned: %+v", snapshot)
	}

	step <- struct{}{}
	deadline := time.After(2 * time.Second)
	for {
		if progress.Snapshot().Current == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("progress increment not observed")
		case <-time.After(time.Millisecond):
		}
	}

	step <- struct{}{}
	<-done
	if snapshot := progress.Snapshot(); snapshot.Current != 2 || snapshot.InProgress {
		t.Fatalf("unexpected final snapshot: %+v", snapshot)
	}
}
