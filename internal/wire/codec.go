// Package wire implements the framed arbiter message format.
//
// Every payload is
//
//	[ header (0x00, kind) ] [ data_0 ] ... [ data_{k-1} ] [ checksum ]
//
// wrapped in whatever envelope the socket role requires: a router message
// carries a leading peer-identity frame plus an empty delimiter, a dealer
// message carries just the delimiter, a pair message carries no envelope.
// The checksum frame is CRC-32 (IEEE) over the concatenation of the header
// and data frames, big-endian.
//
// Decode never fails: malformed traffic yields KindUnknown with an empty
// payload. Encode never fails; it only lays out frames, and sending them
// is left to the caller's socket.
package wire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
)

// Role tags the socket role an encode or decode targets. The frame layout
// is a pure function of (role, message).
type Role int

const (
	RolePair Role = iota
	RoleDealer
	RoleRouter
)

// headerIndex returns the frame index of the header for this role.
func (r Role) headerIndex() int {
	switch r {
	case RoleRouter:
		return 2 // identity + delimiter
	case RoleDealer:
		return 1 // delimiter
	default:
		return 0
	}
}

const headerLen = 2

// Encode lays out m for transmission on a socket of the given role.
func Encode(role Role, m domain.Message) zmq4.Msg {
	header := []byte{0x00, byte(m.Kind)}

	frames := make([][]byte, 0, len(m.Data)+4)
	if role == RoleRouter {
		frames = append(frames, []byte(m.Identity))
	}
	if role == RoleRouter || role == RoleDealer {
		frames = append(frames, []byte{})
	}
	frames = append(frames, header)
	frames = append(frames, m.Data...)
	frames = append(frames, checksum(header, m.Data))

	return zmq4.NewMsgFrom(frames...)
}

// Decode interprets one received multi-frame message for the given role.
// For the router role the leading identity frame is captured as the
// message's Identity.
func Decode(role Role, raw zmq4.Msg) domain.Message {
	frames := raw.Frames

	var identity string
	if role == RoleRouter && len(frames) > 0 {
		identity = string(frames[0])
	}

	hi := role.headerIndex()

	// A valid message has at least a header and a checksum frame past
	// the envelope, and a header of exactly two bytes.
	if len(frames) < hi+2 || len(frames[hi]) != headerLen {
		return domain.Message{Identity: identity, Kind: domain.KindUnknown}
	}

	header := frames[hi]
	data := frames[hi+1 : len(frames)-1]
	sum := frames[len(frames)-1]

	if !bytes.Equal(sum, checksum(header, data)) {
		return domain.Message{Identity: identity, Kind: domain.KindUnknown}
	}

	return domain.Message{
		Identity: identity,
		Kind:     domain.KindFromCode(header[1]),
		Data:     data,
	}
}

// checksum computes the CRC-32 (IEEE) of header and data frames
// concatenated, as a 4-byte big-endian frame.
func checksum(header []byte, data [][]byte) []byte {
	h := crc32.NewIEEE()
	h.Write(header)
	for _, f := range data {
		h.Write(f)
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, h.Sum32())
	return out
}
