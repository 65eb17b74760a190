// Package chunk implements the paletted block storage and chunk column
// described in spec.md §3–§4.4: a 16×16×16 section backed by a
// bit-packed array whose width grows and shrinks with its palette, and a
// column of such sections addressed by y-index.
//
// Per spec.md §9's design note, Section is a closed two-variant sum type
// (Paletted, Fixed) rather than an open interface meant for external
// implementations — dynamic dispatch over an unbounded set of section kinds
// buys nothing here, since every supported protocol version needs exactly
// one of these two wire shapes.
package chunk

import (
	"fmt"
	"math/bits"
	"sort"
)

// SectionVolume is the number of blocks in one section (16³).
const SectionVolume = 16 * 16 * 16

// MinBitsPerEntry is the floor bpe never shrinks below (spec.md §3, §4.4).
const MinBitsPerEntry = 4

// Section is the closed set of block-storage representations a chunk column
// can hold. PalettedSection is used for every supported version; FixedSection
// exists only for the legacy 1.8 wire encoding (spec.md §4.5).
type Section interface {
	Get(x, y, z int) uint32
	Set(x, y, z int, stateID uint32)
	Fill(minX, minY, minZ, maxX, maxY, maxZ int, stateID uint32)
}

// relIndex packs a block position within a section into the canonical
// (x<<8)|(y<<4)|z index used by both block storage and light storage
// (spec.md §3 "Section").
func relIndex(x, y, z int) int { return (x << 8) | (y << 4) | z }

// PalettedSection is the bit-packed, palette-backed block storage described
// in spec.md §3 and §4.4.
type PalettedSection struct {
	palette []uint32 // ordered, deduplicated; index 0 reserved for air
	counts  []int    // counts[i] = number of cells holding palette[i]
	reverse map[uint32]int
	bpe     uint8
	words   []uint64
}

// NewPalettedSection returns an all-air section at the minimum bpe.
func NewPalettedSection() *PalettedSection {
	s := &PalettedSection{
		palette: []uint32{0},
		counts:  []int{SectionVolume},
		reverse: map[uint32]int{0: 0},
		bpe:     MinBitsPerEntry,
	}
	s.words = make([]uint64, wordCount(s.bpe))
	return s
}

// entriesPerWord is how many bpe-wide entries fit in a u64 word without
// straddling — spec.md §4.4's 1.16+ wire layout, which this package treats
// as the canonical in-memory layout.
func entriesPerWord(bpe uint8) int { return 64 / int(bpe) }

func wordCount(bpe uint8) int {
	epw := entriesPerWord(bpe)
	return (SectionVolume + epw - 1) / epw
}

// bitsNeeded returns ⌈log2(n)⌉ for n >= 1, i.e. the number of bits required
// to address n distinct palette slots (0..n-1).
func bitsNeeded(n int) uint8 {
	if n <= 1 {
		return 0
	}
	return uint8(bits.Len(uint(n - 1)))
}

func targetBPE(paletteLen int) uint8 {
	b := bitsNeeded(paletteLen)
	if b < MinBitsPerEntry {
		return MinBitsPerEntry
	}
	return b
}

func (s *PalettedSection) readRaw(pos int) int {
	epw := entriesPerWord(s.bpe)
	word := pos / epw
	slot := pos % epw
	shift := uint(slot) * uint(s.bpe)
	mask := uint64(1)<<s.bpe - 1
	return int((s.words[word] >> shift) & mask)
}

func (s *PalettedSection) writeRaw(pos int, value int) {
	epw := entriesPerWord(s.bpe)
	word := pos / epw
	slot := pos % epw
	shift := uint(slot) * uint(s.bpe)
	mask := uint64(1)<<s.bpe - 1
	s.words[word] &^= mask << shift
	s.words[word] |= (uint64(value) & mask) << shift
}

// Get reads the block state id stored at a section-relative position.
func (s *PalettedSection) Get(x, y, z int) uint32 {
	idx := s.readRaw(relIndex(x, y, z))
	return s.palette[idx]
}

// Set implements the algorithm of spec.md §4.4: look up or insert the
// target id in the palette, update occupancy counts, and collapse the
// vacated entry if it drops to zero (air excepted).
func (s *PalettedSection) Set(x, y, z int, newID uint32) {
	pos := relIndex(x, y, z)
	pOld := s.readRaw(pos)
	if s.palette[pOld] == newID {
		return
	}

	pNew, ok := s.reverse[newID]
	if !ok {
		pNew = s.insert(newID)
		// insert() remaps every stored index, including the one at pos, so
		// pOld (read before the call) may now be stale — re-read it.
		pOld = s.readRaw(pos)
	}

	s.counts[pOld]--
	s.counts[pNew]++
	s.writeRaw(pos, pNew)

	if s.counts[pOld] == 0 && pOld != 0 {
		s.remove(pOld)
	}
}

// insert adds newID to the palette in sorted order, remapping every stored
// index and growing bpe if needed. It returns newID's palette index.
func (s *PalettedSection) insert(newID uint32) int {
	ins := sort.Search(len(s.palette), func(i int) bool { return s.palette[i] > newID })

	shift := func(old int) int {
		if old >= ins {
			return old + 1
		}
		return old
	}
	newLen := len(s.palette) + 1

	decoded := s.decodeAll()
	for i, v := range decoded {
		decoded[i] = shift(v)
	}

	s.palette = append(s.palette[:ins:ins], append([]uint32{newID}, s.palette[ins:]...)...)
	s.counts = append(s.counts[:ins:ins], append([]int{0}, s.counts[ins:]...)...)
	for k, v := range s.reverse {
		if v >= ins {
			s.reverse[k] = v + 1
		}
	}
	s.reverse[newID] = ins

	s.relayout(targetBPE(newLen), decoded)
	return ins
}

// remove deletes palette entry idx (which must have a zero count and not be
// air), remapping every stored index above it down by one and possibly
// shrinking bpe.
func (s *PalettedSection) remove(idx int) {
	removedID := s.palette[idx]

	shift := func(old int) int {
		switch {
		case old == idx:
			return old // unreachable: caller guarantees count is zero
		case old > idx:
			return old - 1
		default:
			return old
		}
	}
	decoded := s.decodeAll()
	for i, v := range decoded {
		decoded[i] = shift(v)
	}

	s.palette = append(s.palette[:idx], s.palette[idx+1:]...)
	s.counts = append(s.counts[:idx], s.counts[idx+1:]...)
	delete(s.reverse, removedID)
	for k, v := range s.reverse {
		if v > idx {
			s.reverse[k] = v - 1
		}
	}

	newBpe := s.bpe
	if shrunk := targetBPE(len(s.palette)); shrunk < s.bpe && int(s.bpe) > MinBitsPerEntry {
		// spec.md §4.4: shrink only when palette.len <= 2^(bpe-1) and bpe > 4.
		if len(s.palette) <= 1<<(s.bpe-1) {
			newBpe = shrunk
		}
	}
	s.relayout(newBpe, decoded)
}

func (s *PalettedSection) decodeAll() []int {
	out := make([]int, SectionVolume)
	for i := range out {
		out[i] = s.readRaw(i)
	}
	return out
}

func (s *PalettedSection) relayout(newBpe uint8, values []int) {
	s.bpe = newBpe
	s.words = make([]uint64, wordCount(newBpe))
	for i, v := range values {
		s.writeRaw(i, v)
	}
}

// Fill sets every position in the inclusive box [min,max] to stateID. When
// the box spans the whole section, the palette is first collapsed to
// {air, stateID}, matching spec.md §4.4's optimization; otherwise it falls
// back to the per-cell loop.
func (s *PalettedSection) Fill(minX, minY, minZ, maxX, maxY, maxZ int, stateID uint32) {
	if minX == 0 && minY == 0 && minZ == 0 && maxX == 15 && maxY == 15 && maxZ == 15 {
		s.palette = []uint32{0, stateID}
		s.counts = []int{0, SectionVolume}
		s.reverse = map[uint32]int{0: 0, stateID: 1}
		s.relayout(targetBPE(2), repeat(1, SectionVolume))
		if stateID == 0 {
			s.palette = []uint32{0}
			s.counts = []int{SectionVolume}
			s.reverse = map[uint32]int{0: 0}
			s.relayout(MinBitsPerEntry, repeat(0, SectionVolume))
		}
		return
	}
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				s.Set(x, y, z, stateID)
			}
		}
	}
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Palette exposes the current deduplicated palette in order — used by the
// cross-version wire encoder (spec.md §4.5) and by tests.
func (s *PalettedSection) Palette() []uint32 {
	out := make([]uint32, len(s.palette))
	copy(out, s.palette)
	return out
}

// BitsPerEntry reports the section's current bpe.
func (s *PalettedSection) BitsPerEntry() uint8 { return s.bpe }

// Validate checks the invariants of spec.md §3: counts sum to the section
// volume, every non-air entry has a positive count, and the bit array only
// ever references valid palette indices (implied by construction, checked
// here for defense in depth).
func (s *PalettedSection) Validate() error {
	total := 0
	for i, c := range s.counts {
		total += c
		if c <= 0 && i != 0 {
			return fmt.Errorf("chunk: palette entry %d has non-positive count %d", i, c)
		}
	}
	if total != SectionVolume {
		return fmt.Errorf("chunk: palette counts sum to %d, want %d", total, SectionVolume)
	}
	return nil
}
