// Package proto implements the wire primitives shared by every supported
// Minecraft protocol version: the fixed-width numeric types, the two
// variable-length integer encodings, and the canonical packet envelope that
// sits on top of them.
package proto

import (
	"errors"
	"io"
	"math"

	"github.com/google/uuid"
)

// Field is any wire primitive that can write itself to a connection.
type Field interface {
	io.WriterTo
}

type (
	// Boolean is a single byte, 0x01 for true and 0x00 for false.
	Boolean bool
	// Byte is a signed 8-bit integer.
	Byte int8
	// UnsignedByte is an unsigned 8-bit integer.
	UnsignedByte uint8
	// Short is a signed big-endian 16-bit integer.
	Short int16
	// UnsignedShort is an unsigned big-endian 16-bit integer.
	UnsignedShort uint16
	// Int is a signed big-endian 32-bit integer.
	Int int32
	// Long is a signed big-endian 64-bit integer.
	Long int64
	// Float is an IEEE-754 32-bit float, big-endian.
	Float float32
	// Double is an IEEE-754 64-bit float, big-endian.
	Double float64
	// String is a VarInt-length-prefixed UTF-8 string.
	String string
	// VarInt is a 7-bits-per-byte variable length encoding of a signed 32-bit
	// integer. Never more than 5 bytes.
	VarInt int32
	// VarLong is the 64-bit counterpart of VarInt. Never more than 10 bytes.
	VarLong int64
	// Angle is a rotation expressed in 1/256ths of a full turn.
	Angle Byte
	// UUID is a raw 128-bit value.
	UUID uuid.UUID
)

// MaxStringLength bounds String decoding so a hostile or confused peer cannot
// force an unbounded allocation.
const MaxStringLength = 32767 * 4

var (
	// ErrVarIntTooBig is returned when a VarInt uses more than 5 continuation
	// bytes (spec §4.1: "an oversized varint ... is fatal").
	ErrVarIntTooBig = errors.New("proto: varint is too big")
	// ErrVarLongTooBig is the VarLong equivalent of ErrVarIntTooBig.
	ErrVarLongTooBig = errors.New("proto: varlong is too big")
	// ErrStringTooLong guards against a String length prefix larger than
	// MaxStringLength.
	ErrStringTooLong = errors.New("proto: string exceeds maximum length")
)

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return b[0], err
}

// Zig zig-zag encodes a signed 32-bit integer so small negative values stay
// small once varint-encoded (spec §8 "Zig-zag").
func Zig(n int32) uint32 { return uint32((n << 1) ^ (n >> 31)) }

// Zag reverses Zig.
func Zag(n uint32) int32 { return int32(n>>1) ^ -int32(n&1) }

// ZigLong is the 64-bit counterpart of Zig.
func ZigLong(n int64) uint64 { return uint64((n << 1) ^ (n >> 63)) }

// ZagLong reverses ZigLong.
func ZagLong(n uint64) int64 { return int64(n>>1) ^ -int64(n&1) }

func (b Boolean) WriteTo(w io.Writer) (int64, error) {
	v := byte(0x00)
	if b {
		v = 0x01
	}
	n, err := w.Write([]byte{v})
	return int64(n), err
}

func (b *Boolean) ReadFrom(r io.Reader) (int64, error) {
	v, err := readByte(r)
	if err != nil {
		return 0, err
	}
	*b = v != 0
	return 1, nil
}

func (b Byte) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte{byte(b)})
	return int64(n), err
}

func (b *Byte) ReadFrom(r io.Reader) (int64, error) {
	v, err := readByte(r)
	if err != nil {
		return 0, err
	}
	*b = Byte(v)
	return 1, nil
}

func (u UnsignedByte) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte{byte(u)})
	return int64(n), err
}

func (u *UnsignedByte) ReadFrom(r io.Reader) (int64, error) {
	v, err := readByte(r)
	if err != nil {
		return 0, err
	}
	*u = UnsignedByte(v)
	return 1, nil
}

func (s Short) WriteTo(w io.Writer) (int64, error) {
	v := uint16(s)
	n, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return int64(n), err
}

func (s *Short) ReadFrom(r io.Reader) (int64, error) {
	var b [2]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(n), err
	}
	*s = Short(uint16(b[0])<<8 | uint16(b[1]))
	return int64(n), nil
}

func (u UnsignedShort) WriteTo(w io.Writer) (int64, error) {
	v := uint16(u)
	n, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return int64(n), err
}

func (u *UnsignedShort) ReadFrom(r io.Reader) (int64, error) {
	var b [2]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(n), err
	}
	*u = UnsignedShort(uint16(b[0])<<8 | uint16(b[1]))
	return int64(n), nil
}

func (i Int) WriteTo(w io.Writer) (int64, error) {
	v := uint32(i)
	n, err := w.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
	return int64(n), err
}

func (i *Int) ReadFrom(r io.Reader) (int64, error) {
	var b [4]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(n), err
	}
	*i = Int(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	return int64(n), nil
}

func (l Long) WriteTo(w io.Writer) (int64, error) {
	v := uint64(l)
	buf := []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (l *Long) ReadFrom(r io.Reader) (int64, error) {
	var b [8]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(n), err
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	*l = Long(v)
	return int64(n), nil
}

func (f Float) WriteTo(w io.Writer) (int64, error) {
	return Int(math.Float32bits(float32(f))).WriteTo(w)
}

func (f *Float) ReadFrom(r io.Reader) (int64, error) {
	var v Int
	n, err := v.ReadFrom(r)
	if err != nil {
		return n, err
	}
	*f = Float(math.Float32frombits(uint32(v)))
	return n, nil
}

func (d Double) WriteTo(w io.Writer) (int64, error) {
	return Long(math.Float64bits(float64(d))).WriteTo(w)
}

func (d *Double) ReadFrom(r io.Reader) (int64, error) {
	var v Long
	n, err := v.ReadFrom(r)
	if err != nil {
		return n, err
	}
	*d = Double(math.Float64frombits(uint64(v)))
	return n, nil
}

// Len returns the number of bytes this VarInt occupies on the wire, without
// writing it. Packet framing needs this to compute a frame's total length
// before it commits any bytes (see proto.Packet.MarshalTo).
func (v VarInt) Len() int {
	n := 1
	u := uint32(v)
	for u >>= 7; u != 0; u >>= 7 {
		n++
	}
	return n
}

func (v VarInt) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, 5)
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if u == 0 {
			break
		}
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (v *VarInt) ReadFrom(r io.Reader) (int64, error) {
	var result uint32
	var n int64
	for shift := uint(0); ; shift += 7 {
		if shift >= 35 {
			return n, ErrVarIntTooBig
		}
		b, err := readByte(r)
		if err != nil {
			return n, err
		}
		n++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	*v = VarInt(result)
	return n, nil
}

func (v VarLong) Len() int {
	n := 1
	u := uint64(v)
	for u >>= 7; u != 0; u >>= 7 {
		n++
	}
	return n
}

func (v VarLong) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, 10)
	u := uint64(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if u == 0 {
			break
		}
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (v *VarLong) ReadFrom(r io.Reader) (int64, error) {
	var result uint64
	var n int64
	for shift := uint(0); ; shift += 7 {
		if shift >= 70 {
			return n, ErrVarLongTooBig
		}
		b, err := readByte(r)
		if err != nil {
			return n, err
		}
		n++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	*v = VarLong(result)
	return n, nil
}

func (a Angle) WriteTo(w io.Writer) (int64, error) { return Byte(a).WriteTo(w) }
func (a *Angle) ReadFrom(r io.Reader) (int64, error) {
	return (*Byte)(a).ReadFrom(r)
}

// FromDegrees converts a float yaw/pitch (0..360) to the 1/256-turn Angle
// encoding used on the wire.
func FromDegrees(deg float32) Angle {
	return Angle(int8(math.Floor(float64(deg) / 360 * 256)))
}

func (s String) WriteTo(w io.Writer) (int64, error) {
	raw := []byte(s)
	n, err := VarInt(len(raw)).WriteTo(w)
	if err != nil {
		return n, err
	}
	n2, err := w.Write(raw)
	return n + int64(n2), err
}

func (s *String) ReadFrom(r io.Reader) (int64, error) {
	var l VarInt
	n, err := l.ReadFrom(r)
	if err != nil {
		return n, err
	}
	if l < 0 || int(l) > MaxStringLength {
		return n, ErrStringTooLong
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		return n, err
	}
	*s = String(buf)
	return n + int64(l), nil
}

func (u UUID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(u[:])
	return int64(n), err
}

func (u *UUID) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.ReadFull(r, u[:])
	return int64(n), err
}
