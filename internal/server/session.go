package server

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/voxelwire/bridge/internal/proto"
	"github.com/voxelwire/bridge/internal/proxy"
)

// Session is the server-side end of one player's persistent yamux stream
// (SPEC_FULL.md §4.11): "one persistent stream per connected player ...
// keeps ordering per-player, a hard requirement (spec.md §5)". Each
// canonical message is length-prefixed with a VarInt (reusing proto.VarInt
// rather than inventing a second length encoding) so that messages stay
// delimited on the raw stream the way MaxFrameLength framing delimits
// wire packets in proto.Stream.
type Session struct {
	stream io.ReadWriteCloser

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an accepted yamux stream.
func NewSession(stream io.ReadWriteCloser) *Session {
	return &Session{stream: stream}
}

// Close ends the session; safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.stream.Close()
}

// Send encodes one canonical message and writes it to the session's stream
// on the caller's goroutine while holding the session lock. There is no
// outbound queue: Send returns only once the stream has accepted the bytes,
// so a slow client blocks whichever goroutine called Send, and no message is
// dropped.
func (s *Session) Send(kind proxy.CanonicalKind, payload interface{}) error {
	data, err := proxy.EncodeCanonical(kind, payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("server: session closed")
	}
	if _, err := proto.VarInt(len(data)).WriteTo(s.stream); err != nil {
		return err
	}
	_, err = s.stream.Write(data)
	return err
}

// Receive blocks until one canonical message arrives and decodes it.
func (s *Session) Receive() (proxy.CanonicalKind, interface{}, error) {
	var length proto.VarInt
	if _, err := length.ReadFrom(s.stream); err != nil {
		return 0, nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.stream, buf); err != nil {
		return 0, nil, err
	}
	return proxy.DecodeCanonical(buf)
}

// ServeSession reads canonical messages from a freshly-accepted stream until
// it errors out, dispatching each to w. The first message must be an
// identity handshake encoded as a ChatMessage whose Sender field carries the
// username and whose Text field carries the UUID string — a minimal
// handshake sufficient for this carrier, distinct from the client-facing
// login flow in package proxy which already ran on the proxy side.
func ServeSession(w *World, stream io.ReadWriteCloser) error {
	sess := NewSession(stream)
	kind, payload, err := sess.Receive()
	if err != nil {
		sess.Close()
		return err
	}
	hello, ok := payload.(proxy.ChatMessage)
	if kind != proxy.KindChatMessage || !ok {
		sess.Close()
		return fmt.Errorf("server: first session message must be an identity handshake")
	}
	id, err := uuid.Parse(hello.Text)
	if err != nil {
		sess.Close()
		return fmt.Errorf("server: identity handshake carries an invalid uuid: %w", err)
	}

	p := &Player{Username: hello.Sender, UUID: id, Session: sess, ViewDistance: 8}
	w.AddPlayer(p)
	defer w.RemovePlayer(id)

	for {
		kind, payload, err := sess.Receive()
		if err != nil {
			return err
		}
		switch kind {
		case proxy.KindPlayerPosition:
			pos := payload.(proxy.PlayerPosition)
			p.X, p.Y, p.Z, p.Yaw, p.Pitch = pos.X, pos.Y, pos.Z, pos.Yaw, pos.Pitch
		case proxy.KindChatMessage:
			msg := payload.(proxy.ChatMessage)
			w.Broadcast(proxy.KindChatMessage, proxy.ChatMessage{Sender: p.Username, Text: msg.Text})
		case proxy.KindKeepAlive:
			// Client acknowledging a keep-alive; no action needed beyond
			// having received traffic, which a connection-liveness timer
			// (out of this sample's scope) would reset.
		}
	}
}

// Broadcast sends a canonical message to every connected player by calling
// Send for each in turn on the caller's goroutine. Per-session errors are
// ignored; a player whose stream is slow to accept the write blocks the
// caller until that write completes, and nothing is dropped.
func (w *World) Broadcast(kind proxy.CanonicalKind, payload interface{}) {
	w.ForEachPlayer(func(p *Player) {
		_ = p.Session.Send(kind, payload)
	})
}
