package proxy

import (
	"fmt"
	"io"
	"net"

	"github.com/hashicorp/yamux"

	"github.com/voxelwire/bridge/internal/crypto"
	"github.com/voxelwire/bridge/internal/proto"
	"github.com/voxelwire/bridge/internal/version"
)

// play-state packet ids for the one protocol version this sample carrier
// speaks on the wire (1.16.5, protocol 754 — the same version the teacher
// repo's player.go hard-coded). A production build keys this table by
// Handshake.ProtocolVersion the way internal/block.BuildTable keys its
// translation by version.Block; see canonical.go's package comment for the
// same "representative subset" scoping.
const (
	playKeepAliveID      int32 = 0x1F
	playPlayerPositionID int32 = 0x12
	playChatID           int32 = 0x03
	playClientChatID     int32 = 0x03
	playDisconnectID     int32 = 0x19
)

// FrontendConfig configures ServeClient's behavior for one listener.
type FrontendConfig struct {
	Keys                 *crypto.KeyPair
	Encryption           bool
	CompressionThreshold int
	MOTD                 string
	ProtocolName         string
	MaxPlayers           int
	PlayerCount          func() int
	// BackendAddr is the world server's canonical-carrier listen address
	// (SPEC_FULL.md §4.11); ServeClient dials it once per logged-in player.
	BackendAddr string
}

// ServeClient drives one accepted client connection end to end: handshake,
// then either the status ping or the login-and-relay flow, matching
// spec.md §4.2's state machine. It returns once the client disconnects.
// conn need only satisfy io.ReadWriteCloser; callers pass a net.Conn in
// production and an in-memory pipe in tests.
func ServeClient(conn io.ReadWriteCloser, cfg FrontendConfig) error {
	defer conn.Close()
	s := proto.NewStream(conn)

	first, err := s.ReadPacket()
	if err != nil {
		return err
	}
	hs, err := ReadHandshake(first)
	if err != nil {
		return err
	}

	switch hs.NextState {
	case 1:
		return serveStatus(s, cfg)
	case 2:
		if !hs.ProtocolVersion.Supported() {
			err := version.ErrUnsupportedVersion{Protocol: hs.ProtocolVersion}
			_ = WriteDisconnect(s, 0x00, err.Error())
			return err
		}
		return serveLogin(s, cfg)
	default:
		return fmt.Errorf("proxy: handshake requested unsupported next state %d", hs.NextState)
	}
}

func serveStatus(s *proto.Stream, cfg FrontendConfig) error {
	request, err := s.ReadPacket()
	if err != nil {
		return err
	}
	_ = request // status request packet 0x00 carries no fields

	online := 0
	if cfg.PlayerCount != nil {
		online = cfg.PlayerCount()
	}
	resp := StatusResponse{
		Version:     StatusVersion{Name: cfg.ProtocolName, Protocol: 754},
		Players:     StatusPlayers{Max: cfg.MaxPlayers, Online: online},
		Description: StatusDescription{Text: cfg.MOTD},
	}
	if err := WriteStatusResponse(s, resp); err != nil {
		return err
	}

	ping, err := s.ReadPacket()
	if err != nil {
		// A status-only client is free to disconnect right after the
		// response without sending a ping.
		return nil
	}
	var payload proto.Long
	if _, err := payload.ReadFrom(ping); err != nil {
		return err
	}
	return WritePong(s, payload)
}

func serveLogin(s *proto.Stream, cfg FrontendConfig) error {
	loginPacket, err := s.ReadPacket()
	if err != nil {
		return err
	}
	start, err := ReadLoginStart(loginPacket)
	if err != nil {
		return err
	}

	result, err := LoginFlow(s, start, cfg.Keys, cfg.Encryption, cfg.CompressionThreshold)
	if err != nil {
		return err
	}

	backendConn, err := net.Dial("tcp", cfg.BackendAddr)
	if err != nil {
		_ = WriteDisconnect(s, playDisconnectID, "could not reach the world server")
		return err
	}
	defer backendConn.Close()

	session, err := yamux.Client(backendConn, nil)
	if err != nil {
		return err
	}
	stream, err := session.Open()
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := sendCanonical(stream, KindChatMessage, ChatMessage{Sender: result.Username, Text: result.UUID.String()}); err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() { errc <- relayClientToBackend(s, stream) }()
	go func() { errc <- relayBackendToClient(stream, s) }()
	return <-errc
}

// relayClientToBackend forwards the client's Player Position packets to the
// backend as canonical PlayerPosition messages (spec.md §5's carrier).
func relayClientToBackend(client *proto.Stream, backend io.Writer) error {
	for {
		pk, err := client.ReadPacket()
		if err != nil {
			return err
		}
		switch pk.ID {
		case playPlayerPositionID:
			var x, y, z proto.Double
			var onGround proto.Boolean
			if _, err := x.ReadFrom(pk); err != nil {
				continue
			}
			if _, err := y.ReadFrom(pk); err != nil {
				continue
			}
			if _, err := z.ReadFrom(pk); err != nil {
				continue
			}
			if _, err := onGround.ReadFrom(pk); err != nil {
				continue
			}
			_ = sendCanonical(backend, KindPlayerPosition, PlayerPosition{X: float64(x), Y: float64(y), Z: float64(z), OnGround: bool(onGround)})
		case playClientChatID:
			var msg proto.String
			if _, err := msg.ReadFrom(pk); err != nil {
				continue
			}
			_ = sendCanonical(backend, KindChatMessage, ChatMessage{Text: string(msg)})
		case playKeepAliveID:
			// Client's keep-alive acknowledgement; the carrier's liveness
			// timer (out of this sample's scope) would reset here.
		}
	}
}

// relayBackendToClient forwards canonical messages from the backend onto the
// client's real wire-protocol stream.
func relayBackendToClient(backend io.Reader, client *proto.Stream) error {
	for {
		kind, payload, err := recvCanonical(backend)
		if err != nil {
			return err
		}
		switch kind {
		case KindKeepAlive:
			ka := payload.(KeepAlive)
			if err := client.WritePacket(proto.NewPacket(playKeepAliveID, proto.Long(ka.ID))); err != nil {
				return err
			}
		case KindChatMessage:
			msg := payload.(ChatMessage)
			text := fmt.Sprintf(`{"text":"<%s> %s"}`, msg.Sender, msg.Text)
			if err := client.WritePacket(proto.NewPacket(playChatID, proto.String(text), proto.Byte(0))); err != nil {
				return err
			}
		case KindPlayerPosition:
			// Other players' positions: out of scope for this sample (no
			// entity-spawn packets are implemented), silently dropped.
		}
	}
}

func sendCanonical(w io.Writer, kind CanonicalKind, payload interface{}) error {
	data, err := EncodeCanonical(kind, payload)
	if err != nil {
		return err
	}
	if _, err := proto.VarInt(len(data)).WriteTo(w); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func recvCanonical(r io.Reader) (CanonicalKind, interface{}, error) {
	var length proto.VarInt
	if _, err := length.ReadFrom(r); err != nil {
		return 0, nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, nil, err
	}
	return DecodeCanonical(buf)
}
