// Package proxy implements the client-facing half of the bridge: the
// handshake/status/login state machine of spec.md §4.2 and §6, adapted from
// the teacher repo's connection.go (which hard-codes one protocol version
// and one login flow) into a version-agnostic flow that negotiates
// encryption and compression before handing the connection off to the
// world-owning server process over a yamux session (SPEC_FULL.md §4.11).
package proxy

import (
	"encoding/json"

	"github.com/voxelwire/bridge/internal/proto"
)

// StatusResponse is the JSON payload of the Server List Ping response
// (spec.md §6), shaped the way dmitrymodder-minewire's handler.go builds its
// StatusResponse for the same packet.
type StatusResponse struct {
	Version     StatusVersion     `json:"version"`
	Players     StatusPlayers     `json:"players"`
	Description StatusDescription `json:"description"`
	Favicon     string            `json:"favicon,omitempty"`
}

type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type StatusPlayers struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

type StatusDescription struct {
	Text string `json:"text"`
}

// WriteStatusResponse encodes r as JSON and writes it as a Status Response
// packet (id 0x00 in every supported protocol version's status state).
func WriteStatusResponse(s *proto.Stream, r StatusResponse) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	pk := proto.NewPacket(0x00, proto.String(body))
	return s.WritePacket(pk)
}

// WritePong replies to a status Ping with the same payload, as spec.md §6's
// status sub-protocol requires.
func WritePong(s *proto.Stream, payload proto.Long) error {
	return s.WritePacket(proto.NewPacket(0x01, payload))
}
