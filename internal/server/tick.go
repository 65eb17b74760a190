package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/voxelwire/bridge/internal/proxy"
	"github.com/voxelwire/bridge/internal/telemetry"
)

// TickRate is the fixed tick-loop frequency in Hz (spec.md §5). World state
// is not mutated by the tick loop; see World.
const TickRate = 20

// keepAliveInterval mirrors the teacher's keepAliveUser, which sent a
// keep-alive every 18 seconds to stay under the 20-second client timeout;
// kept unchanged here since the margin is still correct at any tick rate.
const keepAliveInterval = 18 * time.Second

// Server runs the world tick loop and accepts yamux sessions from the proxy
// front-end, one session per connected player (SPEC_FULL.md §4.11).
type Server struct {
	World   *World
	Metrics *telemetry.Metrics
	Log     *slog.Logger

	nextKeepAlive int64
}

// NewServer builds a Server over a freshly-created World.
func NewServer(w *World, m *telemetry.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = telemetry.Discard
	}
	return &Server{World: w, Metrics: m, Log: log}
}

// Run accepts proxy connections on ln until ctx is cancelled. Each accepted
// TCP connection carries one yamux session (SPEC_FULL.md §4.11); the proxy
// dials one connection per logged-in player and opens one persistent stream
// on it. Streams are accepted following dmitrymodder-minewire's handler.go
// accept-and-multiplex pattern (yamux.Server(conn, nil) then
// session.Accept() in a loop), without that source's tunnel-proxy disguise.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.acceptSessions(conn)
	}
}

func (s *Server) acceptSessions(conn net.Conn) {
	session, err := yamux.Server(conn, nil)
	if err != nil {
		s.Log.Warn("server: yamux handshake failed", "err", err)
		_ = conn.Close()
		return
	}
	for {
		stream, err := session.Accept()
		if err != nil {
			return
		}
		go func() {
			if err := ServeSession(s.World, stream); err != nil {
				s.Log.Debug("server: session ended", "err", err)
			}
		}()
	}
}

// RunTickLoop drives the 20Hz world loop until ctx is cancelled. The
// keep-alive broadcast below is issued from this loop through Broadcast,
// which writes to every session synchronously: per-session errors are
// ignored, but a player whose stream is slow to accept the write stalls
// this loop until that write completes.
func (s *Server) RunTickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			s.tick()
			if s.Metrics != nil {
				s.Metrics.ObserveTick(time.Since(start))
				s.Metrics.SetPlayersConnected(s.World.PlayerCount())
			}
		case <-keepAlive.C:
			s.nextKeepAlive++
			s.World.Broadcast(proxy.KindKeepAlive, proxy.KeepAlive{ID: s.nextKeepAlive})
		}
	}
}

// tick is the per-tick world step; it does no work. Chunk load/unload diffing
// triggered by player movement lives in chunks.go; this function is the
// extension point a full build wires additional per-tick systems into
// (entity AI, redstone, etc. — all out of spec.md's scope, §1 non-goals).
func (s *Server) tick() {}
