// Package rcon implements the optional RCON text interface described in
// spec.md §4.8 external interfaces and tested in spec.md §8 scenario 6,
// grounded on original_source/bb_server/src/rcon/mod.rs. That source uses a
// hand-rolled mio reactor per connection; this package uses a goroutine per
// connection instead; idiomatic Go's blocking io.Reader/io.Writer make the
// non-blocking buffering the Rust Conn type needs unnecessary.
package rcon

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"log/slog"
)

// Packet types on the wire (spec.md §6: "i32 type (3=login, 2=command,
// 0=response)").
const (
	TypeLogin    int32 = 3
	TypeCommand  int32 = 2
	TypeResponse int32 = 0
	// TypeAuthFailure shares its wire value with TypeCommand (both are 2);
	// it is the reply type for a rejected login (spec.md §8 scenario 6).
	TypeAuthFailure int32 = 2
)

// MaxPacketLength bounds a single packet's declared length (including the
// 4-byte id and 4-byte type fields plus the two terminating NULs),
// mirroring original_source's 4096-byte sanity check.
const MaxPacketLength = 4096

// Packet is one RCON frame.
type Packet struct {
	ID      int32
	Type    int32
	Payload string
}

// ErrInvalidLength is returned for a declared length outside (0, MaxPacketLength].
var ErrInvalidLength = fmt.Errorf("rcon: invalid packet length")

// ReadPacket decodes one frame: little-endian i32 length (excluding itself),
// i32 id, i32 type, NUL-terminated payload, trailing NUL.
func ReadPacket(r io.Reader) (Packet, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Packet{}, err
	}
	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if length <= 0 || length > MaxPacketLength {
		return Packet{}, ErrInvalidLength
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, err
	}
	if len(body) < 10 {
		return Packet{}, ErrInvalidLength
	}
	id := int32(binary.LittleEndian.Uint32(body[0:4]))
	ty := int32(binary.LittleEndian.Uint32(body[4:8]))
	rest := body[8:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return Packet{}, fmt.Errorf("rcon: missing terminating NUL")
	}
	payload := string(rest[:nul])
	if len(rest) != nul+2 || rest[nul+1] != 0 {
		return Packet{}, fmt.Errorf("rcon: malformed trailer")
	}
	return Packet{ID: id, Type: ty, Payload: payload}, nil
}

// WritePacket encodes and writes one frame.
func WritePacket(w io.Writer, p Packet) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, p.ID)
	binary.Write(&buf, binary.LittleEndian, p.Type)
	buf.WriteString(p.Payload)
	buf.WriteByte(0)
	buf.WriteByte(0)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(buf.Len()))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Executor runs an RCON command (the same command registry in-world
// commands use, per spec.md §6) and returns the monospace chat output.
type Executor func(command string) string

// Server accepts RCON connections and handles the login/command protocol.
type Server struct {
	Password string
	Execute  Executor
	Log      *slog.Logger
}

// Serve runs the accept loop until Accept fails, e.g. because the listener
// was closed (spec.md §5: worker/reactor loops hold no world
// references beyond what's passed in, here the Executor closure).
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	loggedIn := false

	for {
		p, err := ReadPacket(r)
		if err != nil {
			if err != io.EOF {
				s.logger().Warn("rcon: read error", "err", err)
			}
			return
		}

		switch p.Type {
		case TypeLogin:
			if loggedIn {
				return
			}
			if p.Payload == s.Password {
				loggedIn = true
				s.logger().Info("rcon client logged in")
				if err := WritePacket(conn, Packet{ID: p.ID, Type: TypeLogin, Payload: "logged in"}); err != nil {
					return
				}
			} else {
				_ = WritePacket(conn, Packet{ID: -1, Type: TypeAuthFailure, Payload: "invalid password"})
				return
			}
		case TypeCommand:
			if !loggedIn {
				return
			}
			var output string
			if s.Execute != nil {
				output = s.Execute(p.Payload)
			}
			if err := WritePacket(conn, Packet{ID: p.ID, Type: TypeResponse, Payload: output}); err != nil {
				return
			}
		default:
			s.logger().Warn("rcon: unexpected packet type", "type", p.Type)
			return
		}
	}
}
