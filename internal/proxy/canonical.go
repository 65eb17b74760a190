package proxy

import (
	"fmt"

	"github.com/voxelwire/bridge/internal/transport"
)

// Canonical packets are the version-agnostic messages exchanged between the
// proxy front-end and the server back-end over the yamux carrier of
// SPEC_FULL.md §4.11, encoded with the transport codec (§4.8) rather than
// any single protocol version's wire format. The proxy is responsible for
// translating to and from whatever wire packet ids the connected client's
// negotiated protocol version uses (spec.md §4.3); this file only defines
// the canonical shapes and their transport-codec encoding.
//
// This is a representative subset — position updates, chat, and keep-alive
// — sufficient to exercise the carrier end to end; a production build
// extends CanonicalKind with the remainder of the play-state packet catalog
// using the same Header/field pattern.
type CanonicalKind uint8

const (
	KindPlayerPosition CanonicalKind = iota
	KindChatMessage
	KindKeepAlive
)

// PlayerPosition is the serverbound canonical form of a player's movement,
// collapsing every protocol version's dedicated Position/PositionAndLook/
// PlayerRotation packets into one shape (spec.md §4.3: "normalizes to one
// canonical representation regardless of the client's specific packet").
type PlayerPosition struct {
	X, Y, Z  float64
	Yaw      float32
	Pitch    float32
	OnGround bool
}

// ChatMessage carries both serverbound chat input and clientbound broadcast.
type ChatMessage struct {
	Sender string
	Text   string
}

// KeepAlive carries the round-trip id used to detect dead connections.
type KeepAlive struct {
	ID int64
}

// EncodeCanonical writes one canonical message, tagged with its kind, as a
// transport-codec Enum (kind as tag, payload as the single field).
func EncodeCanonical(kind CanonicalKind, payload interface{}) ([]byte, error) {
	w := transport.NewWriter()
	w.BeginEnum(int(kind))
	switch kind {
	case KindPlayerPosition:
		p, ok := payload.(PlayerPosition)
		if !ok {
			return nil, fmt.Errorf("proxy: KindPlayerPosition payload has wrong type %T", payload)
		}
		w.BeginStruct(6)
		w.WriteDouble(p.X)
		w.WriteDouble(p.Y)
		w.WriteDouble(p.Z)
		w.WriteFloat(p.Yaw)
		w.WriteFloat(p.Pitch)
		writeBool(w, p.OnGround)
	case KindChatMessage:
		c, ok := payload.(ChatMessage)
		if !ok {
			return nil, fmt.Errorf("proxy: KindChatMessage payload has wrong type %T", payload)
		}
		w.BeginStruct(2)
		w.WriteString(c.Sender)
		w.WriteString(c.Text)
	case KindKeepAlive:
		k, ok := payload.(KeepAlive)
		if !ok {
			return nil, fmt.Errorf("proxy: KindKeepAlive payload has wrong type %T", payload)
		}
		w.WriteVarLong(k.ID)
	default:
		return nil, fmt.Errorf("proxy: unknown canonical kind %d", kind)
	}
	return w.Bytes(), nil
}

func writeBool(w *transport.Writer, b bool) {
	if b {
		w.WriteVarInt(1)
	} else {
		w.WriteVarInt(0)
	}
}

func readBool(r *transport.Reader) (bool, error) {
	v, err := r.ReadVarInt()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// DecodeCanonical parses a buffer produced by EncodeCanonical, returning the
// kind and the decoded payload as one of PlayerPosition, ChatMessage, or
// KeepAlive.
func DecodeCanonical(data []byte) (CanonicalKind, interface{}, error) {
	r := transport.NewReader(data)
	tag, err := r.BeginEnum()
	if err != nil {
		return 0, nil, err
	}
	kind := CanonicalKind(tag)
	switch kind {
	case KindPlayerPosition:
		n, err := r.BeginStruct()
		if err != nil {
			return 0, nil, err
		}
		var p PlayerPosition
		if p.X, err = r.ReadDouble(); err != nil {
			return 0, nil, err
		}
		if p.Y, err = r.ReadDouble(); err != nil {
			return 0, nil, err
		}
		if p.Z, err = r.ReadDouble(); err != nil {
			return 0, nil, err
		}
		var yaw, pitch float32
		if yaw, err = r.ReadFloat(); err != nil {
			return 0, nil, err
		}
		p.Yaw = yaw
		if pitch, err = r.ReadFloat(); err != nil {
			return 0, nil, err
		}
		p.Pitch = pitch
		if p.OnGround, err = readBool(r); err != nil {
			return 0, nil, err
		}
		for i := 6; i < n; i++ {
			if err := r.Skip(); err != nil {
				return 0, nil, err
			}
		}
		return kind, p, nil
	case KindChatMessage:
		n, err := r.BeginStruct()
		if err != nil {
			return 0, nil, err
		}
		var c ChatMessage
		if c.Sender, err = r.ReadString(); err != nil {
			return 0, nil, err
		}
		if c.Text, err = r.ReadString(); err != nil {
			return 0, nil, err
		}
		for i := 2; i < n; i++ {
			if err := r.Skip(); err != nil {
				return 0, nil, err
			}
		}
		return kind, c, nil
	case KindKeepAlive:
		id, err := r.ReadVarLong()
		if err != nil {
			return 0, nil, err
		}
		return kind, KeepAlive{ID: id}, nil
	default:
		return 0, nil, fmt.Errorf("proxy: canonical tag %d: %w", tag, transport.ErrUnknownEnumTag)
	}
}
