package chunk

// FixedSection is the legacy 1.8 section representation: no palette, every
// cell stores its 12-bit (id<<4)|metadata value directly (spec.md §4.5).
// It exists as the second half of the closed Section sum type described in
// spec.md §9's design note ("trait-object Section ... replaced with {Paletted,
// Fixed}"); a palette buys nothing in 1.8's world since its id space was
// already small and densely packed on the wire.
type FixedSection struct {
	cells [SectionVolume]uint16
}

// NewFixedSection returns an all-air (id 0) section.
func NewFixedSection() *FixedSection { return &FixedSection{} }

// Get returns the 12-bit legacy value at a section-relative position.
func (s *FixedSection) Get(x, y, z int) uint32 {
	return uint32(s.cells[relIndex(x, y, z)])
}

// Set stores stateID truncated to 12 bits, the legacy (id<<4)|metadata
// encoding's full width.
func (s *FixedSection) Set(x, y, z int, stateID uint32) {
	s.cells[relIndex(x, y, z)] = uint16(stateID & 0xFFF)
}

// Fill writes stateID across the inclusive box.
func (s *FixedSection) Fill(minX, minY, minZ, maxX, maxY, maxZ int, stateID uint32) {
	v := uint16(stateID & 0xFFF)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				s.cells[relIndex(x, y, z)] = v
			}
		}
	}
}

// FromPaletted downgrades a PalettedSection to legacy fixed form for a 1.8
// client, applying a cross-version Table to each distinct palette entry
// exactly once rather than once per cell (spec.md §4.5's "apply the
// translation to the palette, not per-cell").
func FromPaletted(src *PalettedSection, translate func(latestStateID uint32) uint32) *FixedSection {
	dst := NewFixedSection()
	palette := src.Palette()
	translated := make([]uint32, len(palette))
	for i, id := range palette {
		translated[i] = translate(id)
	}
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				idx := src.readRaw(relIndex(x, y, z))
				dst.Set(x, y, z, translated[idx])
			}
		}
	}
	return dst
}
