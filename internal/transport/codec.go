// Package transport implements the self-describing binary codec used for
// proxy<->server messages and region-file persistence (spec.md §4.8),
// grounded on original_source/bb_transfer/src/lib.rs's Header/ZigZag design
// (read.rs/write.rs were not retrieved, so the byte-level packing below is
// this module's own, built from lib.rs's doc comments and spec.md's
// "5 LSB of header + continuation bytes" description).
package transport

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// Header is the 3-bit field-width tag that precedes every value.
type Header uint8

const (
	HNone Header = iota
	HVarInt
	HFloat
	HDouble
	HStruct
	HEnum
	HBytes
	HList
)

func (h Header) String() string {
	switch h {
	case HNone:
		return "None"
	case HVarInt:
		return "VarInt"
	case HFloat:
		return "Float"
	case HDouble:
		return "Double"
	case HStruct:
		return "Struct"
	case HEnum:
		return "Enum"
	case HBytes:
		return "Bytes"
	case HList:
		return "List"
	default:
		return fmt.Sprintf("Header(%d)", uint8(h))
	}
}

// ErrUnknownEnumTag is returned when a reader decodes an Enum header whose
// tag it does not recognize — spec.md §4.8: "unknown tags are a hard error."
var ErrUnknownEnumTag = fmt.Errorf("transport: unknown enum tag")

// Writer builds a message in this format into an in-memory buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded message so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// writeHeaderValue packs header into the top 3 bits of the first byte and
// value into the remaining 5 bits (4 data bits + a continuation bit), then
// continues with standard 7-bit-plus-continuation varint bytes for any
// remaining high bits.
func (w *Writer) writeHeaderValue(h Header, value uint64) {
	lo := byte(value & 0x0F)
	rest := value >> 4
	first := byte(h)<<5 | lo
	if rest != 0 {
		first |= 0x10
	}
	w.buf.WriteByte(first)
	for rest != 0 {
		b := byte(rest & 0x7F)
		rest >>= 7
		if rest != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
	}
}

// WriteNone writes a placeholder field with no data.
func (w *Writer) WriteNone() { w.writeHeaderValue(HNone, 0) }

// WriteVarInt writes a zig-zag-encoded signed 32-bit integer.
func (w *Writer) WriteVarInt(n int32) { w.writeHeaderValue(HVarInt, uint64(zig32(n))) }

// WriteVarLong writes a zig-zag-encoded signed 64-bit integer.
func (w *Writer) WriteVarLong(n int64) { w.writeHeaderValue(HVarInt, zig64(n)) }

// WriteUVarInt writes an unsigned value with no zig-zag step.
func (w *Writer) WriteUVarInt(n uint32) { w.writeHeaderValue(HVarInt, uint64(n)) }

// WriteFloat writes a 32-bit float.
func (w *Writer) WriteFloat(f float32) {
	w.writeHeaderValue(HFloat, 0)
	var b [4]byte
	bits := math.Float32bits(f)
	b[0], b[1], b[2], b[3] = byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24)
	w.buf.Write(b[:])
}

// WriteDouble writes a 64-bit float.
func (w *Writer) WriteDouble(f float64) {
	w.writeHeaderValue(HDouble, 0)
	var b [8]byte
	bits := math.Float64bits(f)
	for i := range b {
		b[i] = byte(bits >> (8 * i))
	}
	w.buf.Write(b[:])
}

// WriteBytes writes a length-prefixed byte string.
func (w *Writer) WriteBytes(data []byte) {
	w.writeHeaderValue(HBytes, uint64(len(data)))
	w.buf.Write(data)
}

// WriteString writes a UTF-8 string using the Bytes encoding.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// BeginStruct writes a struct header with the given field count; the caller
// then writes exactly n fields (WriteNone for any it wants to omit).
func (w *Writer) BeginStruct(fieldCount int) { w.writeHeaderValue(HStruct, uint64(fieldCount)) }

// BeginEnum writes an enum tag; the caller writes exactly one more field as
// that variant's payload.
func (w *Writer) BeginEnum(tag int) { w.writeHeaderValue(HEnum, uint64(tag)) }

// BeginList writes a list header with the given element count; the caller
// then writes exactly that many elements of a single shared type.
func (w *Writer) BeginList(count int) { w.writeHeaderValue(HList, uint64(count)) }

// Reader decodes a message written by Writer.
type Reader struct {
	r   io.ByteReader
	src []byte
	pos int
}

// NewReader wraps a byte slice for decoding.
func NewReader(data []byte) *Reader { return &Reader{src: data} }

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.src) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.src[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readRaw(n int) ([]byte, error) {
	if r.pos+n > len(r.src) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.src[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadHeader reads one header byte plus its associated varint: the value
// itself for None/VarInt, or a count/tag/length for Struct/Enum/Bytes/List
// (Float/Double carry no value and the returned uint64 is always 0).
func (r *Reader) ReadHeader() (Header, uint64, error) {
	first, err := r.readByte()
	if err != nil {
		return 0, 0, err
	}
	h := Header(first >> 5)
	value := uint64(first & 0x0F)
	if first&0x10 != 0 {
		shift := uint(4)
		for {
			b, err := r.readByte()
			if err != nil {
				return 0, 0, err
			}
			value |= uint64(b&0x7F) << shift
			shift += 7
			if b&0x80 == 0 {
				break
			}
		}
	}
	return h, value, nil
}

// ReadVarInt reads a VarInt header and zig-zag-decodes it as an int32. It is
// an error if the header is not VarInt.
func (r *Reader) ReadVarInt() (int32, error) {
	h, v, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HVarInt {
		return 0, fmt.Errorf("transport: expected VarInt header, got %s", h)
	}
	return zag32(uint32(v)), nil
}

// ReadVarLong reads a VarInt header and zig-zag-decodes it as an int64.
func (r *Reader) ReadVarLong() (int64, error) {
	h, v, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HVarInt {
		return 0, fmt.Errorf("transport: expected VarInt header, got %s", h)
	}
	return zag64(v), nil
}

// ReadFloat reads a Float header and its 4 raw bytes.
func (r *Reader) ReadFloat() (float32, error) {
	h, _, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HFloat {
		return 0, fmt.Errorf("transport: expected Float header, got %s", h)
	}
	b, err := r.readRaw(4)
	if err != nil {
		return 0, err
	}
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits), nil
}

// ReadDouble reads a Double header and its 8 raw bytes.
func (r *Reader) ReadDouble() (float64, error) {
	h, _, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HDouble {
		return 0, fmt.Errorf("transport: expected Double header, got %s", h)
	}
	b, err := r.readRaw(8)
	if err != nil {
		return 0, err
	}
	var bits uint64
	for i := 7; i >= 0; i-- {
		bits = bits<<8 | uint64(b[i])
	}
	return math.Float64frombits(bits), nil
}

// ReadBytes reads a Bytes header and its payload.
func (r *Reader) ReadBytes() ([]byte, error) {
	h, n, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}
	if h != HBytes {
		return nil, fmt.Errorf("transport: expected Bytes header, got %s", h)
	}
	return r.readRaw(int(n))
}

// ReadString reads a Bytes-encoded UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BeginStruct reads a Struct header and returns the number of fields the
// sender wrote, so the caller can decode min(want, sent) fields by name and
// then Skip the rest (spec.md §4.8's forward-compatibility contract).
func (r *Reader) BeginStruct() (int, error) {
	h, n, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HStruct {
		return 0, fmt.Errorf("transport: expected Struct header, got %s", h)
	}
	return int(n), nil
}

// BeginEnum reads an enum tag. Callers should compare it against their known
// tag set and return ErrUnknownEnumTag on no match, per spec.md §4.8.
func (r *Reader) BeginEnum() (int, error) {
	h, n, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HEnum {
		return 0, fmt.Errorf("transport: expected Enum header, got %s", h)
	}
	return int(n), nil
}

// BeginList reads a list header and returns its element count.
func (r *Reader) BeginList() (int, error) {
	h, n, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h != HList {
		return 0, fmt.Errorf("transport: expected List header, got %s", h)
	}
	return int(n), nil
}

// Skip consumes one value of whatever type follows, regardless of what it
// is — the mechanism that lets an older reader discard fields/variants it
// doesn't know about (spec.md §4.8: "skipped fields are absorbed by the
// header's self-describing width").
func (r *Reader) Skip() error {
	h, n, err := r.ReadHeader()
	if err != nil {
		return err
	}
	switch h {
	case HNone, HVarInt:
		return nil
	case HFloat:
		_, err := r.readRaw(4)
		return err
	case HDouble:
		_, err := r.readRaw(8)
		return err
	case HBytes:
		_, err := r.readRaw(int(n))
		return err
	case HStruct, HList:
		for i := uint64(0); i < n; i++ {
			if err := r.Skip(); err != nil {
				return err
			}
		}
		return nil
	case HEnum:
		return r.Skip() // exactly one payload field follows the tag
	default:
		return fmt.Errorf("transport: unknown header id %d", h)
	}
}

func zig32(n int32) uint32  { return uint32((n << 1) ^ (n >> 31)) }
func zag32(n uint32) int32  { return int32(n>>1) ^ -int32(n&1) }
func zig64(n int64) uint64  { return uint64((n << 1) ^ (n >> 63)) }
func zag64(n uint64) int64  { return int64(n>>1) ^ -int64(n&1) }
