// Package region implements on-disk chunk persistence (spec.md §4.8,
// §6 "Region files on disk"): a 32x32 grid of chunks encoded with the
// transport codec and gzip-compressed, one file per region, grounded on
// original_source/bb_server/src/world/bbr/fs.rs's Region::save/load.
package region

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"

	"github.com/voxelwire/bridge/internal/chunk"
	"github.com/voxelwire/bridge/internal/transport"
)

// Width is the number of chunks along one axis of a region (spec.md §4.8:
// "a region covers a 32x32 grid of chunks").
const Width = 32

// SlotCount is the number of chunk slots in one region.
const SlotCount = Width * Width

// Region is a 32x32 grid of chunk columns, all sharing one vertical extent.
type Region struct {
	X, Z       int32
	minY, maxY int
	chunks     [SlotCount]*chunk.Chunk
}

// New creates an empty region at the given region coordinates.
func New(x, z int32, minY, maxY int) *Region {
	return &Region{X: x, Z: z, minY: minY, maxY: maxY}
}

func slotIndex(localX, localZ int) (int, error) {
	if localX < 0 || localX >= Width || localZ < 0 || localZ >= Width {
		return 0, fmt.Errorf("region: local position (%d,%d) out of range", localX, localZ)
	}
	return localZ*Width + localX, nil
}

// Get returns the chunk at a region-local position (0..32 on each axis), or
// nil if that slot is empty.
func (r *Region) Get(localX, localZ int) (*chunk.Chunk, error) {
	idx, err := slotIndex(localX, localZ)
	if err != nil {
		return nil, err
	}
	return r.chunks[idx], nil
}

// Set installs a chunk at a region-local position, replacing whatever was
// there (nil clears the slot).
func (r *Region) Set(localX, localZ int, c *chunk.Chunk) error {
	idx, err := slotIndex(localX, localZ)
	if err != nil {
		return err
	}
	r.chunks[idx] = c
	return nil
}

// Path is the on-disk location for a region file under baseDir, matching
// spec.md §6: "world/chunks/<rx>.<rz>.bbr".
func Path(baseDir string, x, z int32) string {
	return filepath.Join(baseDir, "world", "chunks", fmt.Sprintf("%d.%d.bbr", x, z))
}

// encodeChunk writes one chunk's present sections as a struct of per-section
// value lists — None if the slot is empty.
func encodeChunk(w *transport.Writer, c *chunk.Chunk) {
	if c == nil {
		w.WriteNone()
		return
	}
	sections := c.PresentSections()
	w.BeginStruct(3)
	w.WriteVarInt(int32(c.X))
	w.WriteVarInt(int32(c.Z))
	w.BeginList(len(sections))
	for _, sec := range sections {
		if sec == nil {
			w.WriteNone()
			continue
		}
		w.BeginList(chunk.SectionVolume)
		for x := 0; x < 16; x++ {
			for y := 0; y < 16; y++ {
				for z := 0; z < 16; z++ {
					w.WriteVarInt(int32(sec.Get(x, y, z)))
				}
			}
		}
	}
}

func decodeChunk(r *transport.Reader, minY, maxY int) (*chunk.Chunk, error) {
	h, n, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}
	switch h {
	case transport.HNone:
		return nil, nil
	case transport.HStruct:
		if n < 3 {
			return nil, fmt.Errorf("region: chunk struct has %d fields, want at least 3", n)
		}
		x, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		z, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		c := chunk.NewChunk(x, z, minY, maxY)
		count, err := r.BeginList()
		if err != nil {
			return nil, err
		}
		for secIdx := 0; secIdx < count; secIdx++ {
			sh, sn, err := r.ReadHeader()
			if err != nil {
				return nil, err
			}
			if sh == transport.HNone {
				continue
			}
			if sh != transport.HList {
				return nil, fmt.Errorf("region: expected section list, got %s", sh)
			}
			secY := minY + secIdx*16
			for i := 0; i < int(sn); i++ {
				id, err := r.ReadVarInt()
				if err != nil {
					return nil, err
				}
				x, y, z := i>>8&0xF, i>>4&0xF, i&0xF
				if err := c.SetBlock(x, secY+y, z, uint32(id)); err != nil {
					return nil, err
				}
			}
		}
		for i := int(n); i > 3; i-- {
			if err := r.Skip(); err != nil {
				return nil, err
			}
		}
		return c, nil
	default:
		return nil, fmt.Errorf("region: unexpected header %s for chunk slot", h)
	}
}

// Encode serializes the region into the transport codec format described in
// spec.md §4.8: a struct with one field per chunk slot.
func (r *Region) Encode() []byte {
	w := transport.NewWriter()
	w.BeginStruct(SlotCount)
	for _, c := range r.chunks {
		encodeChunk(w, c)
	}
	return w.Bytes()
}

// Decode populates chunks from a buffer produced by Encode.
func Decode(data []byte, x, z int32, minY, maxY int) (*Region, error) {
	r := New(x, z, minY, maxY)
	reader := transport.NewReader(data)
	n, err := reader.BeginStruct()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n && i < SlotCount; i++ {
		c, err := decodeChunk(reader, minY, maxY)
		if err != nil {
			return nil, fmt.Errorf("region: slot %d: %w", i, err)
		}
		r.chunks[i] = c
	}
	for i := n; i < SlotCount; i++ {
		r.chunks[i] = nil
	}
	return r, nil
}

// Save gzip-compresses the encoded region and writes it to baseDir,
// creating parent directories as needed.
func (r *Region) Save(baseDir string) error {
	path := Path(baseDir, r.X, r.Z)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var compressed bytes.Buffer
	gw := pgzip.NewWriter(&compressed)
	if _, err := gw.Write(r.Encode()); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, compressed.Bytes(), 0o644)
}

// Load reads and decompresses a region file from baseDir. It returns
// (nil, nil) if the file does not exist, matching spec.md §6's "None for
// absent chunks" — here generalized to an absent region entirely.
func Load(baseDir string, x, z int32, minY, maxY int) (*Region, error) {
	path := Path(baseDir, x, z)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	gr, err := pgzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}
	return Decode(data, x, z, minY, maxY)
}
