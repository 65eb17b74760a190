package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxelwire/bridge/internal/chunk"
)

func blockingGenerator(release <-chan struct{}) Generator {
	return func(ctx context.Context, x, z int32) (*chunk.Chunk, error) {
		<-release
		return chunk.NewChunk(x, z, 0, 256), nil
	}
}

func TestTrySubmitFailsFastWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	// A single worker that never drains lets the queue fill deterministically.
	p := NewPool(1, blockingGenerator(release), nil)
	defer func() { close(release); p.Close() }()

	// The one in-flight request the worker pulls off immediately still
	// occupies a semaphore slot while it runs, so exactly MaxQueueLength fit.
	for i := 0; i < MaxQueueLength; i++ {
		if _, err := p.TrySubmit(int32(i), 0, float64(i)); err != nil {
			t.Fatalf("TrySubmit %d: %v", i, err)
		}
	}
	time.Sleep(10 * time.Millisecond) // let the worker claim its first request

	if _, err := p.TrySubmit(9999, 0, 0); err != ErrQueueFull {
		t.Fatalf("TrySubmit at capacity = %v, want ErrQueueFull", err)
	}
}

func TestSubmitBlocksUntilSlotFrees(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(1, blockingGenerator(release), nil)
	defer p.Close()

	for i := 0; i < MaxQueueLength; i++ {
		if _, err := p.TrySubmit(int32(i), 0, float64(i)); err != nil {
			t.Fatalf("TrySubmit %d: %v", i, err)
		}
	}
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	var submitErr error
	go func() {
		_, submitErr = p.Submit(context.Background(), 12345, 0, 0)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Submit returned before any slot freed")
	case <-time.After(30 * time.Millisecond):
	}

	close(release) // let the worker drain everything

	select {
	case <-done:
		if submitErr != nil {
			t.Fatalf("Submit: %v", submitErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit never returned after slots freed")
	}
}

func TestSubmitRespectsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(1, blockingGenerator(release), nil)
	defer func() { close(release); p.Close() }()

	for i := 0; i < MaxQueueLength; i++ {
		if _, err := p.TrySubmit(int32(i), 0, float64(i)); err != nil {
			t.Fatalf("TrySubmit %d: %v", i, err)
		}
	}
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Submit(ctx, 1, 1, 0); err != context.DeadlineExceeded {
		t.Fatalf("Submit with exhausted queue = %v, want DeadlineExceeded", err)
	}
}

func TestPriorityOrdering(t *testing.T) {
	gate := make(chan struct{})
	var mu sync.Mutex
	var order []int32

	p := NewPool(1, func(ctx context.Context, x, z int32) (*chunk.Chunk, error) {
		<-gate // hold the worker so every request queues up first
		mu.Lock()
		order = append(order, x)
		mu.Unlock()
		return chunk.NewChunk(x, z, 0, 256), nil
	}, nil)
	defer p.Close()

	results := make([]<-chan Result, 0, 4)
	// First request is claimed by the worker immediately (and blocks on
	// gate); the rest queue up and must drain in priority order.
	r, err := p.Submit(context.Background(), 0, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	results = append(results, r)
	time.Sleep(10 * time.Millisecond)

	for _, pr := range []struct {
		x        int32
		priority float64
	}{{3, 30}, {1, 10}, {2, 20}} {
		r, err := p.Submit(context.Background(), pr.x, 0, pr.priority)
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, r)
	}

	close(gate)
	for _, r := range results {
		<-r
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int32{0, 1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
