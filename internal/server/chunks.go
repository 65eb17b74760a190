package server

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/voxelwire/bridge/internal/chunk"
	"github.com/voxelwire/bridge/internal/region"
	"github.com/voxelwire/bridge/internal/view"
	"github.com/voxelwire/bridge/internal/worker"
)

// ChunkPipeline wires the bounded chunk-generation worker pool (package
// worker) and on-disk persistence (package region) to the view-distance
// diffing of package view, implementing spec.md §4.7's load/view pipeline:
// "the diff between the old and new view squares becomes a set of chunks to
// load and a set to unload," loads either serialize a resident chunk or
// enqueue a generation request, and "requests are ordered by priority
// (closer first)".
type ChunkPipeline struct {
	world   *World
	pool    *worker.Pool
	baseDir string
	log     *slog.Logger
}

// NewChunkPipeline starts the worker pool backing a pipeline. generate
// produces a fresh chunk when neither a resident copy nor a saved region
// file has one (spec.md §4.7: "a worker pool generates new chunks"). limiter
// throttles the generation rate (golang.org/x/time/rate); pass nil to leave
// generation unthrottled beyond the worker count itself.
func NewChunkPipeline(w *World, workers int, generate worker.Generator, baseDir string, limiter *rate.Limiter, log *slog.Logger) *ChunkPipeline {
	return &ChunkPipeline{
		world:   w,
		pool:    worker.NewPool(workers, wrapWithRegionLookup(baseDir, w.span, generate), limiter),
		baseDir: baseDir,
		log:     log,
	}
}

// wrapWithRegionLookup checks on-disk region storage before falling through
// to procedural generation, so a worker never regenerates a chunk that was
// already saved (spec.md §4.8's region files exist precisely to avoid that).
func wrapWithRegionLookup(baseDir string, span regionSpan, generate worker.Generator) worker.Generator {
	return func(ctx context.Context, x, z int32) (*chunk.Chunk, error) {
		rx, rz := x>>5, z>>5
		lx, lz := int(x&31), int(z&31)
		if r, err := region.Load(baseDir, rx, rz, span.minY, span.maxY); err == nil && r != nil {
			if c, err := r.Get(lx, lz); err == nil && c != nil {
				return c, nil
			}
		}
		return generate(ctx, x, z)
	}
}

// Close stops accepting new generation requests.
func (cp *ChunkPipeline) Close() { cp.pool.Close() }

// UpdatePlayerView recomputes which chunks p should have loaded after moving
// from oldCenter to newCenter, submitting generation requests for newly
// needed chunks (priority ordered by distance from newCenter, spec.md §4.7)
// and releasing references to chunks that fell out of view.
func (cp *ChunkPipeline) UpdatePlayerView(ctx context.Context, p *Player, oldCenter, newCenter view.ChunkPos) error {
	unload, load := view.Diff(oldCenter, newCenter, p.ViewDistance)

	for _, rect := range unload {
		for _, pos := range rect.Positions() {
			key := chunkKey{pos.X, pos.Z}
			if _, ok := p.loadedChunks[key]; !ok {
				continue
			}
			delete(p.loadedChunks, key)
			cp.world.mu.Lock()
			if rc, ok := cp.world.chunks[key]; ok {
				rc.refs--
				if rc.refs <= 0 {
					delete(cp.world.chunks, key)
				}
			}
			cp.world.mu.Unlock()
		}
	}

	for _, rect := range load {
		for _, pos := range rect.Positions() {
			key := chunkKey{pos.X, pos.Z}
			if _, already := p.loadedChunks[key]; already {
				continue
			}
			if rc := cp.world.acquireChunkRef(key); rc != nil {
				p.loadedChunks[key] = struct{}{}
				continue
			}
			priority := distance(pos, newCenter)
			result, err := cp.pool.Submit(ctx, pos.X, pos.Z, priority)
			if err != nil {
				return err
			}
			p.loadedChunks[key] = struct{}{}
			go cp.installWhenReady(key, result)
		}
	}
	return nil
}

func (cp *ChunkPipeline) installWhenReady(key chunkKey, result <-chan worker.Result) {
	r := <-result
	if r.Err != nil {
		if cp.log != nil {
			cp.log.Warn("server: chunk generation failed", "x", key.x, "z", key.z, "err", r.Err)
		}
		return
	}
	cp.world.installChunk(key, r.Chunk)
	cp.world.acquireChunkRef(key)
}

func distance(a, b view.ChunkPos) float64 {
	dx := float64(a.X - b.X)
	dz := float64(a.Z - b.Z)
	return dx*dx + dz*dz
}
