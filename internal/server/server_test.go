package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voxelwire/bridge/internal/chunk"
	"github.com/voxelwire/bridge/internal/proxy"
	"github.com/voxelwire/bridge/internal/view"
)

// loopbackStream adapts an io.Reader/io.Writer pair into the
// io.ReadWriteCloser a Session expects, without pulling in net.Pipe's
// synchronous rendezvous semantics (a yamux stream is buffered).
type loopbackStream struct {
	r io.Reader
	w io.Writer
}

func (l loopbackStream) Read(p []byte) (int, error)  { return l.r.Read(p) }
func (l loopbackStream) Write(p []byte) (int, error) { return l.w.Write(p) }
func (l loopbackStream) Close() error                { return nil }

func newStreamPair() (client, serverSide io.ReadWriteCloser) {
	cToS, sToC := io.Pipe()
	return loopbackStream{r: sToC, w: cToS}, loopbackStream{r: cToS, w: sToC}
}

func TestAddPlayerSupersedesStaleSession(t *testing.T) {
	w := NewWorld(0, 256)
	id := uuid.New()

	_, firstServerSide := newStreamPair()
	first := &Player{Username: "Steve", UUID: id, Session: NewSession(firstServerSide), ViewDistance: 4}
	w.AddPlayer(first)
	if w.PlayerCount() != 1 {
		t.Fatalf("player count = %d, want 1", w.PlayerCount())
	}

	_, secondServerSide := newStreamPair()
	second := &Player{Username: "Steve", UUID: id, Session: NewSession(secondServerSide), ViewDistance: 4}
	w.AddPlayer(second)
	if w.PlayerCount() != 1 {
		t.Fatalf("player count after reconnect = %d, want 1 (same uuid)", w.PlayerCount())
	}
}

func TestServeSessionHandshakeAndPositionUpdate(t *testing.T) {
	w := NewWorld(0, 256)
	client, srv := newStreamPair()

	done := make(chan error, 1)
	go func() { done <- ServeSession(w, srv) }()

	id := uuid.New()
	clientSess := NewSession(client)
	if err := clientSess.Send(proxy.KindChatMessage, proxy.ChatMessage{Sender: "Alex", Text: id.String()}); err != nil {
		t.Fatal(err)
	}

	// Give ServeSession a moment to register the player before we look it up.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if w.PlayerCount() == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if w.PlayerCount() != 1 {
		t.Fatal("player never registered after handshake")
	}

	if err := clientSess.Send(proxy.KindPlayerPosition, proxy.PlayerPosition{X: 1, Y: 2, Z: 3}); err != nil {
		t.Fatal(err)
	}

	deadline = time.Now().Add(time.Second)
	var got *Player
	for time.Now().Before(deadline) {
		w.ForEachPlayer(func(p *Player) {
			if p.UUID == id && p.X == 1 {
				got = p
			}
		})
		if got != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got == nil {
		t.Fatal("position update never applied")
	}

	clientSess.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeSession did not exit after the client closed")
	}
}

func TestChunkPipelineLoadsRequestedChunksAndReleasesUnloaded(t *testing.T) {
	w := NewWorld(0, 256)
	dir := t.TempDir()
	generate := func(ctx context.Context, x, z int32) (*chunk.Chunk, error) {
		return chunk.NewChunk(x, z, 0, 256), nil
	}
	pipeline := NewChunkPipeline(w, 2, generate, dir, nil, nil)
	defer pipeline.Close()

	p := &Player{Username: "Steve", UUID: uuid.New(), ViewDistance: 1, loadedChunks: make(map[chunkKey]struct{})}

	ctx := context.Background()
	if err := pipeline.UpdatePlayerView(ctx, p, view.ChunkPos{}, view.ChunkPos{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(p.loadedChunks) < 9 {
		time.Sleep(5 * time.Millisecond)
	}
	if len(p.loadedChunks) != 9 {
		t.Fatalf("loadedChunks = %d, want 9 (3x3 at view distance 1)", len(p.loadedChunks))
	}

	if err := pipeline.UpdatePlayerView(ctx, p, view.ChunkPos{X: 0, Z: 0}, view.ChunkPos{X: 5, Z: 5}); err != nil {
		t.Fatal(err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, stillThere := p.loadedChunks[chunkKey{0, 0}]; !stillThere {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, stillThere := p.loadedChunks[chunkKey{0, 0}]; stillThere {
		t.Fatal("chunk (0,0) should have been unloaded after moving far away")
	}
}
