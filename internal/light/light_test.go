package light

import "testing"

// allTransparent is a BlockSource where every cell is open air, used to
// isolate propagation geometry from block-table lookups.
type allTransparent struct {
	minY, maxY      int
	opaque          map[[3]int]bool
}

func newAllTransparent(minY, maxY int) *allTransparent {
	return &allTransparent{minY: minY, maxY: maxY, opaque: map[[3]int]bool{}}
}

func (s *allTransparent) IsTransparent(x, y, z int) bool { return !s.opaque[[3]int{x, y, z}] }
func (s *allTransparent) MinY() int                       { return s.minY }
func (s *allTransparent) MaxY() int                       { return s.maxY }

// TestBlockLightScenario is spec.md §8 scenario 1: a torch (emission 14) at
// (0,64,0) in an open room leaves light(5,64,0)=9, light(14,64,0)=0, and
// light(-2,64,0)=12.
func TestBlockLightScenario(t *testing.T) {
	src := newAllTransparent(0, 256)
	c := NewChunk(BlockLight, 0, 256)
	c.SetLight(Pos{0, 64, 0}, 14)
	c.Update(src, Pos{0, 64, 0})

	cases := []struct {
		x, y, z int
		want    uint8
	}{
		{5, 64, 0, 9},
		{14, 64, 0, 0},
		{-2, 64, 0, 12},
	}
	for _, tc := range cases {
		if got := c.GetLight(Pos{tc.x, tc.y, tc.z}); got != tc.want {
			t.Fatalf("light(%d,%d,%d) = %d, want %d", tc.x, tc.y, tc.z, got, tc.want)
		}
	}
}

// TestBlockLightMonotonicAndBounded is spec.md §8's general property: no
// propagated level exceeds the source level, and light never appears beyond
// source_level blocks away (BFS hop count, i.e. Manhattan distance over the
// six face neighbours).
func TestBlockLightMonotonicAndBounded(t *testing.T) {
	src := newAllTransparent(0, 256)
	c := NewChunk(BlockLight, 0, 256)
	const source = 10
	c.SetLight(Pos{0, 64, 0}, source)
	c.Update(src, Pos{0, 64, 0})

	for d := -15; d <= 15; d++ {
		got := c.GetLight(Pos{d, 64, 0})
		if got > source {
			t.Fatalf("light(%d,64,0) = %d exceeds source level %d", d, got, source)
		}
		dist := d
		if dist < 0 {
			dist = -dist
		}
		if dist >= source && got != 0 {
			t.Fatalf("light(%d,64,0) = %d, want 0 beyond radius %d", d, got, source)
		}
	}
}

func TestSkyLightFreeFallsThenDecrementsLaterally(t *testing.T) {
	src := newAllTransparent(0, 256)
	c := NewChunk(SkyLight, 0, 256)
	c.SetLight(Pos{0, 200, 0}, 15)
	c.Update(src, Pos{0, 200, 0})

	if got := c.GetLight(Pos{0, 50, 0}); got != 15 {
		t.Fatalf("sky light after free fall straight down = %d, want 15", got)
	}
	if got := c.GetLight(Pos{3, 200, 0}); got != 12 {
		t.Fatalf("sky light 3 blocks lateral = %d, want 12", got)
	}
}

func TestSkyLightBlockedByOpaqueCeiling(t *testing.T) {
	src := newAllTransparent(0, 256)
	src.opaque[[3]int{0, 100, 0}] = true
	c := NewChunk(SkyLight, 0, 256)
	c.SetLight(Pos{0, 150, 0}, 15)
	c.Update(src, Pos{0, 150, 0})

	if got := c.GetLight(Pos{0, 90, 0}); got != 0 {
		t.Fatalf("sky light below opaque ceiling = %d, want 0", got)
	}
}

func TestLightRemovalClearsAndRestoresFromBoundary(t *testing.T) {
	src := newAllTransparent(0, 256)
	c := NewChunk(BlockLight, 0, 256)

	// Two torches six blocks apart; the midpoint is lit by both.
	c.SetLight(Pos{0, 64, 0}, 14)
	c.Update(src, Pos{0, 64, 0})
	c.SetLight(Pos{6, 64, 0}, 14)
	c.Update(src, Pos{6, 64, 0})

	if got := c.GetLight(Pos{3, 64, 0}); got != 11 {
		t.Fatalf("midpoint light before removal = %d, want 11", got)
	}

	Remove(c, src, Pos{0, 64, 0})

	if got := c.GetLight(Pos{0, 64, 0}); got != 0 {
		t.Fatalf("light at removed source = %d, want 0", got)
	}
	// The second torch should have re-lit everything within its own radius.
	if got := c.GetLight(Pos{3, 64, 0}); got != 11 {
		t.Fatalf("midpoint light after removal = %d, want 11 (re-lit by remaining torch)", got)
	}
}

func TestDirtySectionsReportsCrossSectionWrites(t *testing.T) {
	c := NewChunk(BlockLight, 0, 256)
	c.SetLight(Pos{0, 5, 0}, 10)
	c.SetLight(Pos{0, 20, 0}, 10)
	dirty := c.DirtySections()
	if len(dirty) != 2 {
		t.Fatalf("dirty sections = %v, want 2 entries", dirty)
	}
	if len(c.DirtySections()) != 0 {
		t.Fatal("DirtySections should clear the set after reading")
	}
}
