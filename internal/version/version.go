// Package version enumerates the protocol versions this bridge serves and
// the coarser "block version" each one maps to (spec.md §3). Every protocol
// version in 47..763 (1.8 through 1.20) belongs to exactly one block
// version; 1.13 is intentionally unsupported, per spec.md's open-question
// resolution.
package version

import "fmt"

// Protocol is a negotiated wire protocol id, as sent in the client's
// Handshake packet.
type Protocol int32

// Supported protocol versions, named the way the community protocol wiki
// names them. Only one id per block-version boundary is listed in detail
// here; anything not named below that still maps to a supported block
// version (e.g. the 1.9.x point releases) is accepted via the ranges table
// that Block() scans.
const (
	V1_8     Protocol = 47
	V1_9     Protocol = 107
	V1_9_4   Protocol = 110
	V1_10_2  Protocol = 210
	V1_11_2  Protocol = 316
	V1_12_2  Protocol = 340
	V1_13    Protocol = 393 // rejected: see Supported()
	V1_13_2  Protocol = 404 // rejected: see Supported()
	V1_14_4  Protocol = 498
	V1_15_2  Protocol = 578
	V1_16_5  Protocol = 754
	V1_17_1  Protocol = 756
	V1_18_2  Protocol = 758
	V1_19_4  Protocol = 762
	V1_20    Protocol = 763
	Latest            = V1_20
	Invalid  Protocol = 0
)

// Block is the coarser version block ids actually belong to. Many protocol
// versions collapse into one block version (spec.md §3).
type Block int

const (
	BlockInvalid Block = iota
	Block1_8
	Block1_9
	Block1_10
	Block1_11
	Block1_12
	// Block1_13 intentionally absent.
	Block1_14
	Block1_15
	Block1_16
	Block1_17
	Block1_18
	Block1_19
	Block1_20
	blockCount
)

// LatestBlock is the version world state is stored in, regardless of which
// protocol versions are currently connected.
const LatestBlock = Block1_20

var blockNames = [blockCount]string{
	BlockInvalid: "invalid",
	Block1_8:     "1.8", Block1_9: "1.9", Block1_10: "1.10", Block1_11: "1.11",
	Block1_12: "1.12", Block1_14: "1.14", Block1_15: "1.15", Block1_16: "1.16",
	Block1_17: "1.17", Block1_18: "1.18", Block1_19: "1.19", Block1_20: "1.20",
}

func (b Block) String() string {
	if b < 0 || int(b) >= len(blockNames) {
		return "invalid"
	}
	return blockNames[b]
}

// protocolRange associates a closed interval of protocol ids with the block
// version they all share.
type protocolRange struct {
	lo, hi Protocol
	block  Block
}

// ranges must stay sorted by lo; Block (and through it Supported) scans it
// linearly since there are only a handful of entries.
var ranges = []protocolRange{
	{47, 47, Block1_8},
	{107, 110, Block1_9},
	{210, 210, Block1_10},
	{315, 316, Block1_11},
	{335, 340, Block1_12},
	{393, 404, BlockInvalid}, // 1.13.x: unsupported
	{477, 498, Block1_14},
	{573, 578, Block1_15},
	{735, 754, Block1_16},
	{755, 756, Block1_17},
	{757, 758, Block1_18},
	{759, 762, Block1_19},
	{763, 763, Block1_20},
}

// Block returns the block version this protocol id belongs to, or
// BlockInvalid if the id is out of the supported range (including the 1.13
// gap).
func (p Protocol) Block() Block {
	for _, r := range ranges {
		if p >= r.lo && p <= r.hi {
			return r.block
		}
	}
	return BlockInvalid
}

// Supported reports whether a client announcing this protocol id can be
// served at all.
func (p Protocol) Supported() bool { return p.Block() != BlockInvalid }

// ErrUnsupportedVersion is returned by login handling when a client's
// protocol id falls in the unsupported 1.13 gap or outside 47..763.
type ErrUnsupportedVersion struct {
	Protocol Protocol
}

func (e ErrUnsupportedVersion) Error() string {
	if e.Protocol >= 393 && e.Protocol <= 404 {
		return fmt.Sprintf("protocol %d (1.13.x) is not supported by this server", e.Protocol)
	}
	return fmt.Sprintf("protocol %d is outside the supported range (47..763)", e.Protocol)
}
