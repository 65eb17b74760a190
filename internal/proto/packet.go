package proto

import (
	"bytes"
	"errors"
	"io"
)

// MaxFrameLength is the largest payload length spec.md §4.1 allows:
// 2 MiB - 1. Anything bigger is a fatal framing error.
const MaxFrameLength = 2097151

var (
	// ErrFrameTooLarge is returned when a frame's declared length exceeds
	// MaxFrameLength, or is negative.
	ErrFrameTooLarge = errors.New("proto: frame length out of bounds")
)

// Packet is a version-agnostic container for a decoded packet id and its raw
// field bytes. Canonical translation (spec.md §4.3) happens one layer above
// this: Packet only knows about framing, not about what the fields mean.
type Packet struct {
	ID   int32
	Data bytes.Buffer
}

// NewPacket builds a packet from an id and a sequence of fields, writing each
// field's encoding into the packet body in order.
func NewPacket(id int32, fields ...Field) *Packet {
	pk := &Packet{ID: id}
	for _, f := range fields {
		_, _ = f.WriteTo(&pk.Data)
	}
	return pk
}

// Read implements io.Reader over the packet's remaining field bytes, so a
// Packet can be passed directly to any Field's ReadFrom.
func (pk *Packet) Read(p []byte) (int, error) { return pk.Data.Read(p) }

// Write implements io.Writer, appending to the packet's field bytes.
func (pk *Packet) Write(p []byte) (int, error) { return pk.Data.Write(p) }

// MarshalTo serializes the packet as [VarInt length][VarInt id][data] into w,
// without framing-level compression. Compressed framing is done by
// Stream.WritePacket (see stream.go).
func (pk *Packet) MarshalTo(w io.Writer) error {
	id := VarInt(pk.ID)
	total := id.Len() + pk.Data.Len()

	if _, err := VarInt(total).WriteTo(w); err != nil {
		return err
	}
	if _, err := id.WriteTo(w); err != nil {
		return err
	}
	_, err := pk.Data.WriteTo(w)
	return err
}

// UnmarshalFrom reads one uncompressed [VarInt length][VarInt id][data] frame
// from r into pk.
func (pk *Packet) UnmarshalFrom(r io.Reader) error {
	var length VarInt
	if _, err := length.ReadFrom(r); err != nil {
		return err
	}
	if length < 0 || int(length) > MaxFrameLength {
		return ErrFrameTooLarge
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	body := bytes.NewBuffer(buf)

	var id VarInt
	if _, err := id.ReadFrom(body); err != nil {
		return err
	}
	pk.ID = int32(id)
	pk.Data = *body
	return nil
}
