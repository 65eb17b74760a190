package proto

import (
	"bytes"
	"crypto/cipher"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrDecompressedSizeMismatch is returned when a frame's declared
// uncompressed length doesn't match what the zlib stream actually produced
// (spec.md §4.1: "mismatch is fatal").
var ErrDecompressedSizeMismatch = errors.New("proto: decompressed size mismatch")

// DisableCompression is the threshold value meaning "compression never
// applies," matching spec.md §3's Connection.compression_threshold = -1.
const DisableCompression = -1

// Stream is one client connection's framing state: the read/write sides of
// the TCP socket, each optionally wrapped in an AES-128-CFB8 keystream, plus
// the negotiated compression threshold. It is the runtime embodiment of the
// "Connection" entity in spec.md §3 minus the player/profile fields, which
// live one layer up in the proxy package.
//
// Both transitions described in spec.md §4.1 — enabling encryption, enabling
// compression — are one-way: once set, EnableEncryption/SetCompression must
// not be called again for the lifetime of the Stream.
type Stream struct {
	r io.Reader
	w io.Writer

	encReader cipher.Stream
	encWriter cipher.Stream

	compressionThreshold int
}

// NewStream wraps a raw connection with no encryption and compression
// disabled — the state a Connection starts in right after accept.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{r: rw, w: rw, compressionThreshold: DisableCompression}
}

// EnableEncryption installs AES-128-CFB8 stream ciphers for both directions,
// using the shared secret as both key and IV (spec.md §4.2, §6). It must be
// called at most once.
func (s *Stream) EnableEncryption(encrypt, decrypt cipher.Stream) {
	s.encReader = decrypt
	s.encWriter = encrypt
}

// SetCompression enables framing compression with the given threshold. A
// packet whose serialized length is strictly greater than threshold is
// zlib-compressed on write; threshold < 0 disables compression entirely.
func (s *Stream) SetCompression(threshold int) {
	s.compressionThreshold = threshold
}

// CompressionThreshold reports the currently negotiated threshold.
func (s *Stream) CompressionThreshold() int { return s.compressionThreshold }

// cipherReader/cipherWriter apply the stream cipher, if any, byte for byte in
// arrival order (spec.md §4.1: "must be applied byte-for-byte in arrival
// order").
type cipherReader struct {
	r      io.Reader
	stream cipher.Stream
}

func (c *cipherReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.stream != nil {
		c.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

type cipherWriter struct {
	w      io.Writer
	stream cipher.Stream
}

func (c *cipherWriter) Write(p []byte) (int, error) {
	if c.stream == nil {
		return c.w.Write(p)
	}
	buf := make([]byte, len(p))
	c.stream.XORKeyStream(buf, p)
	return c.w.Write(buf)
}

func (s *Stream) reader() io.Reader { return &cipherReader{r: s.r, stream: s.encReader} }
func (s *Stream) writer() io.Writer { return &cipherWriter{w: s.w, stream: s.encWriter} }

// WritePacket frames and writes pk, applying compression (if enabled) and
// encryption (if enabled), in that order.
func (s *Stream) WritePacket(pk *Packet) error {
	var body bytes.Buffer
	id := VarInt(pk.ID)
	if _, err := id.WriteTo(&body); err != nil {
		return err
	}
	if _, err := pk.Data.WriteTo(&body); err != nil {
		return err
	}

	w := s.writer()

	if s.compressionThreshold < 0 {
		if _, err := VarInt(body.Len()).WriteTo(w); err != nil {
			return err
		}
		_, err := body.WriteTo(w)
		return err
	}

	uncompressedLen := body.Len()
	var payload bytes.Buffer
	if uncompressedLen <= s.compressionThreshold {
		// Below threshold: leading uncompressed-length is 0, payload raw.
		if _, err := VarInt(0).WriteTo(&payload); err != nil {
			return err
		}
		if _, err := body.WriteTo(&payload); err != nil {
			return err
		}
	} else {
		if _, err := VarInt(uncompressedLen).WriteTo(&payload); err != nil {
			return err
		}
		zw := zlib.NewWriter(&payload)
		if _, err := body.WriteTo(zw); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
	}

	if _, err := VarInt(payload.Len()).WriteTo(w); err != nil {
		return err
	}
	_, err := payload.WriteTo(w)
	return err
}

// ReadPacket blocks until one full frame has arrived, undoing encryption and
// compression as negotiated, and returns the decoded Packet.
func (s *Stream) ReadPacket() (*Packet, error) {
	r := s.reader()

	var frameLen VarInt
	if _, err := frameLen.ReadFrom(r); err != nil {
		return nil, err
	}
	if frameLen < 0 || int(frameLen) > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(frame)

	var body *bytes.Buffer
	if s.compressionThreshold < 0 {
		body = buf
	} else {
		var uncompressedLen VarInt
		if _, err := uncompressedLen.ReadFrom(buf); err != nil {
			return nil, err
		}
		if uncompressedLen == 0 {
			body = buf
		} else {
			zr, err := zlib.NewReader(buf)
			if err != nil {
				return nil, err
			}
			defer zr.Close()
			decompressed := make([]byte, uncompressedLen)
			if _, err := io.ReadFull(zr, decompressed); err != nil {
				return nil, err
			}
			// Any leftover bytes mean the declared length was wrong.
			var extra [1]byte
			if n, _ := zr.Read(extra[:]); n != 0 {
				return nil, ErrDecompressedSizeMismatch
			}
			body = bytes.NewBuffer(decompressed)
		}
	}

	var id VarInt
	if _, err := id.ReadFrom(body); err != nil {
		return nil, err
	}
	return &Packet{ID: int32(id), Data: *body}, nil
}
