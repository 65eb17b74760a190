// Package worker implements the bounded chunk-generation worker pool of
// spec.md §4.7 and §5: generation requests are priority-ordered by distance
// from the requesting player, a fixed worker count drains them, and a full
// queue applies backpressure rather than growing without bound.
package worker

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/voxelwire/bridge/internal/chunk"
)

// MaxQueueLength is the request-queue backpressure bound (spec.md §4.7:
// "If the request queue is full (>= 256), new requests block until
// drained").
const MaxQueueLength = 256

// Generator produces a chunk's contents; it holds no world references, only
// its inputs and outputs (spec.md §5: "Worker pools ... hold no world
// references, only inputs and outputs").
type Generator func(ctx context.Context, x, z int32) (*chunk.Chunk, error)

// Result is delivered to a request's caller once generation completes.
type Result struct {
	Chunk *chunk.Chunk
	Err   error
}

type request struct {
	x, z     int32
	priority float64 // lower sorts first: distance from the requesting player
	result   chan Result
	index    int
}

type priorityQueue []*request

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *priorityQueue) Push(x interface{}) { r := x.(*request); r.index = len(*q); *q = append(*q, r) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	r := old[n-1]
	*q = old[:n-1]
	return r
}

// Pool is a fixed-size worker pool draining a priority queue of chunk
// generation requests.
type Pool struct {
	generate Generator
	limiter  *rate.Limiter

	// sem bounds admitted-but-not-yet-completed requests to MaxQueueLength:
	// a slot is acquired before a request joins the heap and released once
	// a worker finishes generating it, so an in-flight generation still
	// counts against the bound and the heap itself needs no capacity check.
	sem chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	queue  priorityQueue
	closed bool
}

// NewPool starts a pool with the given worker count. limiter may be nil to
// disable rate limiting (golang.org/x/time/rate, as used for disk-I/O and
// chunk-generation throttling).
func NewPool(workers int, generate Generator, limiter *rate.Limiter) *Pool {
	p := &Pool{generate: generate, limiter: limiter, sem: make(chan struct{}, MaxQueueLength)}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// ErrQueueFull is returned by TrySubmit when the request queue is at
// MaxQueueLength (spec.md §5: "submission that would exceed the bound fails
// fast and the caller defers").
var ErrQueueFull = fmt.Errorf("worker: request queue full")

// ErrPoolClosed is returned once the pool has been closed.
var ErrPoolClosed = fmt.Errorf("worker: pool closed")

// TrySubmit enqueues a request without blocking, failing fast if the queue
// is already at capacity.
func (p *Pool) TrySubmit(x, z int32, priority float64) (<-chan Result, error) {
	select {
	case p.sem <- struct{}{}:
	default:
		return nil, ErrQueueFull
	}
	return p.push(x, z, priority)
}

// Submit enqueues a request, blocking until room is available or ctx is
// cancelled (spec.md §4.7: "new requests block until drained" — the chunk
// load pipeline's own backpressure contract, distinct from TrySubmit's
// fail-fast used elsewhere per spec.md §5).
func (p *Pool) Submit(ctx context.Context, x, z int32, priority float64) (<-chan Result, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.push(x, z, priority)
}

func (p *Pool) push(x, z int32, priority float64) (<-chan Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		<-p.sem
		return nil, ErrPoolClosed
	}
	r := &request{x: x, z: z, priority: priority, result: make(chan Result, 1)}
	heap.Push(&p.queue, r)
	p.cond.Signal()
	return r.result, nil
}

func (p *Pool) worker() {
	for {
		p.mu.Lock()
		for !p.closed && len(p.queue) == 0 {
			p.cond.Wait()
		}
		if p.closed && len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		r := heap.Pop(&p.queue).(*request)
		p.mu.Unlock()

		ctx := context.Background()
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				r.result <- Result{Err: err}
				<-p.sem
				continue
			}
		}
		c, err := p.generate(ctx, r.x, r.z)
		r.result <- Result{Chunk: c, Err: err}

		// The request keeps its admission slot until generation actually
		// finishes, not merely until it leaves the queue: an in-flight
		// generation still counts against the backpressure bound.
		<-p.sem
	}
}

// Close stops accepting new work; in-flight and already-queued requests
// still run to completion (spec.md §5: "pending chunk generations are not
// cancelled ... but their results are discarded if the requester is gone").
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}
