package proxy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/voxelwire/bridge/internal/crypto"
	"github.com/voxelwire/bridge/internal/proto"
	"github.com/voxelwire/bridge/internal/version"
)

// offlineNamespace is the fixed namespace vanilla servers use to derive an
// offline player's UUID: a version-3 (MD5) UUID of "OfflinePlayer:<name>"
// under the nil namespace, which google/uuid exposes as NewMD5.
var offlineNamespace uuid.UUID

// OfflineUUID derives the deterministic offline-mode player UUID for a
// username, matching vanilla's Player.getOfflineUUID.
func OfflineUUID(username string) uuid.UUID {
	return uuid.NewMD5(offlineNamespace, []byte("OfflinePlayer:"+username))
}

// Handshake is the first packet of every connection (spec.md §4.2): it
// carries the client's declared protocol version and the next state to
// transition to (1 = status, 2 = login).
type Handshake struct {
	ProtocolVersion version.Protocol
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

// ReadHandshake decodes packet id 0x00 in the Handshaking state.
func ReadHandshake(pk *proto.Packet) (Handshake, error) {
	if pk.ID != 0x00 {
		return Handshake{}, fmt.Errorf("proxy: expected handshake packet id 0x00, got 0x%02x", pk.ID)
	}
	var protocolVersion proto.VarInt
	var addr proto.String
	var port proto.UnsignedShort
	var next proto.VarInt
	if _, err := protocolVersion.ReadFrom(pk); err != nil {
		return Handshake{}, err
	}
	if _, err := addr.ReadFrom(pk); err != nil {
		return Handshake{}, err
	}
	if _, err := port.ReadFrom(pk); err != nil {
		return Handshake{}, err
	}
	if _, err := next.ReadFrom(pk); err != nil {
		return Handshake{}, err
	}
	return Handshake{
		ProtocolVersion: version.Protocol(protocolVersion),
		ServerAddress:   string(addr),
		ServerPort:      uint16(port),
		NextState:       int32(next),
	}, nil
}

// LoginStart is the client's first login-state packet, carrying its chosen
// username.
type LoginStart struct {
	Username string
}

func ReadLoginStart(pk *proto.Packet) (LoginStart, error) {
	var name proto.String
	if _, err := name.ReadFrom(pk); err != nil {
		return LoginStart{}, err
	}
	return LoginStart{Username: string(name)}, nil
}

// ErrLoginDisconnected is returned by LoginFlow when it has already sent a
// Disconnect packet and closed out the login attempt.
var ErrLoginDisconnected = errors.New("proxy: client disconnected during login")

// LoginResult is what a completed login flow hands off to the server
// connection registry.
type LoginResult struct {
	Username string
	UUID     uuid.UUID
}

// LoginFlow drives the login-state packet exchange on s: optional encryption
// request/response, optional compression enable, and the final Login
// Success packet. The player's UUID is always the derived offline UUID; no
// online-mode session-server check is made.
//
// Session-server verification (Mojang's hasJoined request) is out of scope
// per spec.md's non-goals; EncryptionRequest/Response still runs when
// encryption is enabled, since that's also what makes the connection's
// traffic opaque on the wire, independent of identity verification.
func LoginFlow(s *proto.Stream, start LoginStart, keys *crypto.KeyPair, encryption bool, compressionThreshold int) (LoginResult, error) {
	username := start.Username

	if encryption && keys != nil {
		token, err := crypto.NewVerifyToken()
		if err != nil {
			return LoginResult{}, err
		}
		req := proto.NewPacket(0x01,
			proto.String(""), // empty server id, vanilla convention
			proto.VarInt(len(keys.PublicKeyDER())),
		)
		req.Write(keys.PublicKeyDER())
		_, _ = proto.VarInt(len(token)).WriteTo(req)
		req.Write(token)
		if err := s.WritePacket(req); err != nil {
			return LoginResult{}, err
		}

		resp, err := s.ReadPacket()
		if err != nil {
			return LoginResult{}, err
		}
		var secretLen, tokenLen proto.VarInt
		if _, err := secretLen.ReadFrom(resp); err != nil {
			return LoginResult{}, err
		}
		secret := make([]byte, secretLen)
		if _, err := resp.Read(secret); err != nil {
			return LoginResult{}, err
		}
		if _, err := tokenLen.ReadFrom(resp); err != nil {
			return LoginResult{}, err
		}
		encToken := make([]byte, tokenLen)
		if _, err := resp.Read(encToken); err != nil {
			return LoginResult{}, err
		}

		sharedSecret, err := keys.CompleteHandshake(secret, encToken, token)
		if err != nil {
			return LoginResult{}, err
		}
		ciphers, err := crypto.NewCiphers(sharedSecret)
		if err != nil {
			return LoginResult{}, err
		}
		s.EnableEncryption(ciphers.Encrypt, ciphers.Decrypt)
	}

	if compressionThreshold >= 0 {
		setCompression := proto.NewPacket(0x03, proto.VarInt(compressionThreshold))
		if err := s.WritePacket(setCompression); err != nil {
			return LoginResult{}, err
		}
		s.SetCompression(compressionThreshold)
	}

	id := OfflineUUID(username)
	success := proto.NewPacket(0x02, proto.UUID(id), proto.String(username), proto.VarInt(0))
	if err := s.WritePacket(success); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Username: username, UUID: id}, nil
}

// WriteDisconnect sends a login- or play-state Disconnect packet with a
// plain-text reason wrapped as chat JSON, matching spec.md §7's protocol
// error handling ("terminate with a Disconnect packet and a human-readable
// reason if possible").
func WriteDisconnect(s *proto.Stream, packetID int32, reason string) error {
	msg := fmt.Sprintf(`{"text":%q}`, reason)
	return s.WritePacket(proto.NewPacket(packetID, proto.String(msg)))
}
