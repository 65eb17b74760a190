package chunk

import "fmt"

// Chunk is a column of sections addressed by absolute block y, grounded in
// original_source's bb_common/src/chunk/mod.rs and common/src/chunk/mod.rs
// Column type: a fixed-size vector of optional sections, where a nil entry
// means "entirely air, not yet allocated" rather than "does not exist".
type Chunk struct {
	X, Z        int32
	minY, maxY  int
	minSectionY int // world min_y / 16, may be negative (spec.md §3 additions)
	sections    []*PalettedSection
}

// NewChunk allocates an empty column spanning [minY, maxY) in world block
// coordinates. Every section starts nil (all air) until first written.
func NewChunk(x, z int32, minY, maxY int) *Chunk {
	count := (maxY - minY) / 16
	return &Chunk{
		X:           x,
		Z:           z,
		minY:        minY,
		maxY:        maxY,
		minSectionY: minY / 16,
		sections:    make([]*PalettedSection, count),
	}
}

// MinY is the column's inclusive lower world-y bound.
func (c *Chunk) MinY() int { return c.minY }

// MaxY is the column's exclusive upper world-y bound.
func (c *Chunk) MaxY() int { return c.maxY }

func (c *Chunk) sectionIndex(y int) (int, bool) {
	idx := (y >> 4) - c.minSectionY
	if idx < 0 || idx >= len(c.sections) {
		return 0, false
	}
	return idx, true
}

// SectionCount is the number of section slots in the column, occupied or not.
func (c *Chunk) SectionCount() int { return len(c.sections) }

// Section returns the section at absolute y (nil if never allocated).
func (c *Chunk) Section(y int) (*PalettedSection, bool) {
	idx, ok := c.sectionIndex(y)
	if !ok {
		return nil, false
	}
	return c.sections[idx], true
}

// sectionAt lazily allocates the section at absolute y, used by Set/Fill
// which must mutate a concrete section even if it was previously all air.
func (c *Chunk) sectionAt(y int) (*PalettedSection, int, error) {
	idx, ok := c.sectionIndex(y)
	if !ok {
		return nil, 0, fmt.Errorf("chunk: y=%d out of column range", y)
	}
	if c.sections[idx] == nil {
		c.sections[idx] = NewPalettedSection()
	}
	return c.sections[idx], idx, nil
}

// GetBlock returns the state id at an absolute block position, or air (0)
// for any section that was never allocated.
func (c *Chunk) GetBlock(x, y, z int) uint32 {
	idx, ok := c.sectionIndex(y)
	if !ok || c.sections[idx] == nil {
		return 0
	}
	return c.sections[idx].Get(x, y&15, z)
}

// SetBlock writes the state id at an absolute block position, allocating the
// backing section on first write.
func (c *Chunk) SetBlock(x, y, z int, stateID uint32) error {
	sec, _, err := c.sectionAt(y)
	if err != nil {
		return err
	}
	sec.Set(x, y&15, z, stateID)
	return nil
}

// FillBlocks sets a box (in absolute block coordinates, y-extent may span
// multiple sections) to a single state id.
func (c *Chunk) FillBlocks(minX, minY, minZ, maxX, maxY, maxZ int, stateID uint32) error {
	for secY := (minY >> 4) << 4; secY <= maxY; secY += 16 {
		loY := secY
		if loY < minY {
			loY = minY
		}
		hiY := secY + 15
		if hiY > maxY {
			hiY = maxY
		}
		if loY > hiY {
			continue
		}
		sec, _, err := c.sectionAt(secY)
		if err != nil {
			return err
		}
		sec.Fill(minX, loY&15, minZ, maxX, hiY&15, maxZ, stateID)
	}
	return nil
}

// PresentSections returns the column's sections trimmed of trailing nils —
// the shape that crosses the wire and is written to region storage (the
// "truncates trailing None" rule from original_source's Column encoder).
// Interior nils (an all-air section below a populated one) are preserved:
// only a run of nils at the very top is dropped.
func (c *Chunk) PresentSections() []*PalettedSection {
	last := len(c.sections) - 1
	for last >= 0 && c.sections[last] == nil {
		last--
	}
	return c.sections[:last+1]
}
