package recognize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scantext/pkg/models"
)

// fakeEngine returns the file content as recognized text. Content "fail"
// triggers a recognition error; perCallDelay staggers completion so batches
// finish out of acquisition order.
type fakeEngine struct {
	calls        atomic.Int32
	perCallDelay func(text string) time.Duration
	block        chan struct{}
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	e.calls.Add(1)

	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	text := string(data)
	if e.perCallDelay != nil {
		select {
		case <-time.After(e.perCallDelay(text)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if text == "fail" {
		return "", errors.New("engine rejected image")
	}
	return text, nil
}

// batchOf writes one file per text and returns the acquired handles in order.
func batchOf(t *testing.T, texts ...string) []models.AcquiredImage {
	t.Helper()
	dir := t.TempDir()

	images := make([]models.AcquiredImage, len(texts))
	for i, text := range texts {
		path := filepath.Join(dir, fmt.Sprintf("img-%d.png", i))
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
		images[i] = models.AcquiredImage{Ordinal: i, Path: path, Format: "png"}
	}
	return images
}

func TestRecognizePreservesOrder(t *testing.T) {
	// Earlier ordinals finish last: with full concurrency, completion order is
	// the reverse of acquisition order.
	engine := &fakeEngine{
		perCallDelay: func(text string) time.Duration {
			switch text {
			case "alpha":
				return 60 * time.Millisecond
			case "beta":
				return 40 * time.Millisecond
			case "gamma":
				return 20 * time.Millisecond
			default:
				return 0
			}
		},
	}
	images := batchOf(t, "alpha", "beta", "gamma", "delta")
	c := NewCoordinator(engine, WithConcurrency(4))

	results, err := c.Recognize(context.Background(), images)
	if err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	want := []string{"alpha", "beta", "gamma", "delta"}
	for i, r := range results {
		if r.Ordinal != i {
			t.Errorf("result %d has ordinal %d", i, r.Ordinal)
		}
		if r.Text != want[i] {
			t.Errorf("result %d text = %q, want %q", i, r.Text, want[i])
		}
		if r.Failed {
			t.Errorf("result %d unexpectedly failed", i)
		}
	}
}

func TestRecognizeFailureDoesNotAbortBatch(t *testing.T) {
	engine := &fakeEngine{}
	images := batchOf(t, "first", "fail", "third")

	var mu sync.Mutex
	var failedOrdinals []int
	c := NewCoordinator(engine,
		WithFailureHandler(func(ordinal int, err error) {
			mu.Lock()
			failedOrdinals = append(failedOrdinals, ordinal)
			mu.Unlock()
		}))

	results, err := c.Recognize(context.Background(), images)
	if err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want one per image", len(results))
	}

	if results[0].Text != "first" || results[0].Failed {
		t.Errorf("result 0 = %+v", results[0])
	}
	if !results[1].Failed || results[1].Text != "" {
		t.Errorf("failed image must yield empty flagged result, got %+v", results[1])
	}
	if results[2].Text != "third" || results[2].Failed {
		t.Errorf("result 2 = %+v", results[2])
	}

	if len(failedOrdinals) != 1 || failedOrdinals[0] != 1 {
		t.Errorf("failure handler saw ordinals %v, want [1]", failedOrdinals)
	}
}

func TestRecognizeMissingFileIsPerImageFailure(t *testing.T) {
	engine := &fakeEngine{}
	images := batchOf(t, "ok")
	images = append(images, models.AcquiredImage{
		Ordinal: 1, Path: filepath.Join(t.TempDir(), "missing.png"), Format: "png",
	})

	results, err := NewCoordinator(engine).Recognize(context.Background(), images)
	if err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}
	if !results[1].Failed {
		t.Errorf("unreadable image must be flagged failed, got %+v", results[1])
	}
	if results[0].Text != "ok" {
		t.Errorf("healthy image affected by neighbor failure: %+v", results[0])
	}
}

func TestRecognizeEmptyBatch(t *testing.T) {
	c := NewCoordinator(&fakeEngine{})

	results, err := c.Recognize(context.Background(), nil)
	if results != nil {
		t.Errorf("empty batch returned results %v", results)
	}
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("error = %v, want ErrEmptyBatch", err)
	}
}

func TestRecognizeCancellationAbortsBatch(t *testing.T) {
	engine := &fakeEngine{block: make(chan struct{})}
	images := batchOf(t, "one", "two")

	ctx, cancel := context.WithCancel(context.Background())
	c := NewCoordinator(engine, WithConcurrency(2))

	done := make(chan struct{})
	var results []models.RecognitionResult
	var err error
	go func() {
		results, err = c.Recognize(ctx, images)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Recognize() did not return after cancellation")
	}

	if err == nil {
		t.Fatal("cancelled batch returned nil error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
	if results != nil {
		t.Errorf("aborted batch returned partial results %v", results)
	}
}

func TestRecognizeEachImageOnce(t *testing.T) {
	engine := &fakeEngine{}
	images := batchOf(t, "a", "b", "c", "d", "e")

	if _, err := NewCoordinator(engine, WithConcurrency(3)).Recognize(context.Background(), images); err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}
	if got := engine.calls.Load(); got != 5 {
		t.Errorf("engine called %d times, want exactly once per image", got)
	}
}
