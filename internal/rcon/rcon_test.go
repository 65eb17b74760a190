package rcon

import (
	"net"
	"testing"
	"time"
)

func TestPacketRoundTrip(t *testing.T) {
	var buf netBuf
	p := Packet{ID: 7, Type: TypeCommand, Payload: "say hi"}
	if err := WritePacket(&buf, p); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPacket(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Fatalf("round trip = %+v, want %+v", got, p)
	}
}

type netBuf struct{ b []byte }

func (n *netBuf) Write(p []byte) (int, error) { n.b = append(n.b, p...); return len(p), nil }
func (n *netBuf) Read(p []byte) (int, error) {
	k := copy(p, n.b)
	n.b = n.b[k:]
	return k, nil
}

// TestLoginScenario is spec.md §8 scenario 6.
func TestLoginScenario(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := &Server{
		Password: "hunter2",
		Execute:  func(cmd string) string { return "ok: " + cmd },
	}
	go srv.handleConn(serverConn)

	deadline := time.Now().Add(2 * time.Second)
	clientConn.SetDeadline(deadline)

	// Wrong password.
	if err := WritePacket(clientConn, Packet{ID: 42, Type: TypeLogin, Payload: "wrong"}); err != nil {
		t.Fatal(err)
	}
	reply, err := ReadPacket(clientConn)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ID != -1 || reply.Type != TypeAuthFailure {
		t.Fatalf("wrong-password reply = %+v, want id=-1 type=%d", reply, TypeAuthFailure)
	}

	// handleConn closes the connection after a failed login; reconnect.
	serverConn2, clientConn2 := net.Pipe()
	defer clientConn2.Close()
	clientConn2.SetDeadline(deadline)
	go srv.handleConn(serverConn2)

	if err := WritePacket(clientConn2, Packet{ID: 42, Type: TypeLogin, Payload: "hunter2"}); err != nil {
		t.Fatal(err)
	}
	reply, err = ReadPacket(clientConn2)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ID != 42 || reply.Type != TypeLogin || reply.Payload != "logged in" {
		t.Fatalf("correct-password reply = %+v", reply)
	}

	if err := WritePacket(clientConn2, Packet{ID: 5, Type: TypeCommand, Payload: "say hi"}); err != nil {
		t.Fatal(err)
	}
	reply, err = ReadPacket(clientConn2)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ID != 5 || reply.Type != TypeResponse || reply.Payload != "ok: say hi" {
		t.Fatalf("command reply = %+v", reply)
	}
}
