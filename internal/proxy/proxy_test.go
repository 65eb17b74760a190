package proxy

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"

	"github.com/voxelwire/bridge/internal/crypto"
	"github.com/voxelwire/bridge/internal/proto"
	"github.com/voxelwire/bridge/internal/version"
)

// pipe is an in-memory io.ReadWriter splitting writes and reads into
// separate buffers, standing in for a net.Conn in these protocol-exchange
// tests.
type pipe struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func newPipePair() (client, server *pipe) {
	a, b := new(bytes.Buffer), new(bytes.Buffer)
	return &pipe{in: b, out: a}, &pipe{in: a, out: b}
}

func (p *pipe) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *pipe) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *pipe) Close() error                { return nil }

func TestHandshakeRoundTrip(t *testing.T) {
	client, server := newPipePair()
	cs := proto.NewStream(client)
	ss := proto.NewStream(server)

	pk := proto.NewPacket(0x00,
		proto.VarInt(version.V1_20),
		proto.String("play.example.com"),
		proto.UnsignedShort(25565),
		proto.VarInt(2),
	)
	if err := cs.WritePacket(pk); err != nil {
		t.Fatal(err)
	}

	got, err := ss.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	hs, err := ReadHandshake(got)
	if err != nil {
		t.Fatal(err)
	}
	if hs.ProtocolVersion != version.V1_20 || hs.ServerAddress != "play.example.com" || hs.ServerPort != 25565 || hs.NextState != 2 {
		t.Fatalf("handshake = %+v", hs)
	}
}

func TestOfflineUUIDIsDeterministic(t *testing.T) {
	a := OfflineUUID("Notch")
	b := OfflineUUID("Notch")
	if a != b {
		t.Fatal("OfflineUUID is not deterministic for the same username")
	}
	if OfflineUUID("Notch") == OfflineUUID("Herobrine") {
		t.Fatal("different usernames collided")
	}
	if a.Version() != 3 {
		t.Fatalf("offline UUID version = %d, want 3 (MD5 namespace)", a.Version())
	}
}

func TestLoginFlowWithoutEncryptionSetsCompressionAndReturnsIdentity(t *testing.T) {
	client, server := newPipePair()
	cs := proto.NewStream(client)
	ss := proto.NewStream(server)

	done := make(chan struct {
		res LoginResult
		err error
	}, 1)
	go func() {
		res, err := LoginFlow(ss, LoginStart{Username: "Steve"}, nil, false, 64)
		done <- struct {
			res LoginResult
			err error
		}{res, err}
	}()

	// Client side reads whatever the server sends: Set Compression then
	// Login Success, in that order (no encryption negotiated).
	setCompression, err := cs.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if setCompression.ID != 0x03 {
		t.Fatalf("expected Set Compression (0x03), got 0x%02x", setCompression.ID)
	}
	var threshold proto.VarInt
	if _, err := threshold.ReadFrom(setCompression); err != nil {
		t.Fatal(err)
	}
	if threshold != 64 {
		t.Fatalf("compression threshold = %d, want 64", threshold)
	}
	// Applying SetCompression client-side keeps framing in sync for the
	// Login Success packet that follows.
	cs.SetCompression(64)

	success, err := cs.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if success.ID != 0x02 {
		t.Fatalf("expected Login Success (0x02), got 0x%02x", success.ID)
	}

	result := <-done
	if result.err != nil {
		t.Fatal(result.err)
	}
	if result.res.Username != "Steve" {
		t.Fatalf("username = %q", result.res.Username)
	}
	if result.res.UUID != OfflineUUID("Steve") {
		t.Fatal("returned UUID does not match the deterministic offline derivation")
	}
}

func TestLoginFlowWithEncryptionInstallsCiphersOnBothSides(t *testing.T) {
	client, server := newPipePair()
	cs := proto.NewStream(client)
	ss := proto.NewStream(server)

	keys, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := LoginFlow(ss, LoginStart{Username: "Alex"}, keys, true, -1)
		done <- err
	}()

	req, err := cs.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if req.ID != 0x01 {
		t.Fatalf("expected Encryption Request (0x01), got 0x%02x", req.ID)
	}
	var serverID proto.String
	if _, err := serverID.ReadFrom(req); err != nil {
		t.Fatal(err)
	}
	var keyLen proto.VarInt
	if _, err := keyLen.ReadFrom(req); err != nil {
		t.Fatal(err)
	}
	pubDER := make([]byte, keyLen)
	if _, err := req.Read(pubDER); err != nil {
		t.Fatal(err)
	}
	var tokenLen proto.VarInt
	if _, err := tokenLen.ReadFrom(req); err != nil {
		t.Fatal(err)
	}
	token := make([]byte, tokenLen)
	if _, err := req.Read(token); err != nil {
		t.Fatal(err)
	}

	sharedSecret := []byte("0123456789abcdef") // AES-128 key length
	encSecret := rsaEncrypt(t, pubDER, sharedSecret)
	encToken := rsaEncrypt(t, pubDER, token)

	resp := proto.NewPacket(0x01, proto.VarInt(len(encSecret)))
	resp.Write(encSecret)
	_, _ = proto.VarInt(len(encToken)).WriteTo(resp)
	resp.Write(encToken)
	if err := cs.WritePacket(resp); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err != nil {
		t.Fatal(err)
	}

	clientCiphers, err := crypto.NewCiphers(sharedSecret)
	if err != nil {
		t.Fatal(err)
	}
	cs.EnableEncryption(clientCiphers.Encrypt, clientCiphers.Decrypt)

	// Now both sides have encryption enabled; a Login Success packet sent
	// over the encrypted stream should still decode cleanly.
	success, err := cs.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if success.ID != 0x02 {
		t.Fatalf("expected Login Success, got 0x%02x", success.ID)
	}
}

func rsaEncrypt(t *testing.T, pubDER, plaintext []byte) []byte {
	t.Helper()
	parsed, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		t.Fatal(err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		t.Fatalf("parsed key is %T, not *rsa.PublicKey", parsed)
	}
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}
