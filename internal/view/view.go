// Package view implements the view-distance load/unload diffing of
// spec.md §4.7: on player movement, the old and new view squares are
// diffed into axis-aligned strips of chunks to unload and load.
package view

// ChunkPos is a chunk column coordinate.
type ChunkPos struct {
	X, Z int32
}

// Rect is an inclusive axis-aligned rectangle of chunk coordinates.
type Rect struct {
	MinX, MinZ, MaxX, MaxZ int32
}

// Empty reports whether the rectangle contains no chunks.
func (r Rect) Empty() bool { return r.MinX > r.MaxX || r.MinZ > r.MaxZ }

// Positions enumerates every chunk position in the rectangle.
func (r Rect) Positions() []ChunkPos {
	if r.Empty() {
		return nil
	}
	out := make([]ChunkPos, 0, int(r.MaxX-r.MinX+1)*int(r.MaxZ-r.MinZ+1))
	for x := r.MinX; x <= r.MaxX; x++ {
		for z := r.MinZ; z <= r.MaxZ; z++ {
			out = append(out, ChunkPos{x, z})
		}
	}
	return out
}

// Square returns the view square of radius V (inclusive) centered on c —
// a (2V+1)x(2V+1) rectangle of chunks.
func Square(c ChunkPos, viewDistance int32) Rect {
	return Rect{
		MinX: c.X - viewDistance, MaxX: c.X + viewDistance,
		MinZ: c.Z - viewDistance, MaxZ: c.Z + viewDistance,
	}
}

func intersect(a, b Rect) Rect {
	r := Rect{
		MinX: max32(a.MinX, b.MinX), MaxX: min32(a.MaxX, b.MaxX),
		MinZ: max32(a.MinZ, b.MinZ), MaxZ: min32(a.MaxZ, b.MaxZ),
	}
	return r
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// subtract decomposes a \ b into at most four non-overlapping axis-aligned
// strips: full-width top and bottom bands outside b's z-range, then left
// and right bands restricted to the overlapping z-range — the decomposition
// spec.md §4.7 calls "at most four axis-aligned strips".
func subtract(a, b Rect) []Rect {
	i := intersect(a, b)
	if i.Empty() {
		if a.Empty() {
			return nil
		}
		return []Rect{a}
	}

	var strips []Rect
	if top := (Rect{a.MinX, a.MinZ, a.MaxX, i.MinZ - 1}); !top.Empty() {
		strips = append(strips, top)
	}
	if bottom := (Rect{a.MinX, i.MaxZ + 1, a.MaxX, a.MaxZ}); !bottom.Empty() {
		strips = append(strips, bottom)
	}
	if left := (Rect{a.MinX, i.MinZ, i.MinX - 1, i.MaxZ}); !left.Empty() {
		strips = append(strips, left)
	}
	if right := (Rect{i.MaxX + 1, i.MinZ, a.MaxX, i.MaxZ}); !right.Empty() {
		strips = append(strips, right)
	}
	return strips
}

// Diff computes the chunks to unload and load when a player's view center
// moves from oldCenter to newCenter at the given view distance.
func Diff(oldCenter, newCenter ChunkPos, viewDistance int32) (unload, load []Rect) {
	oldSquare := Square(oldCenter, viewDistance)
	newSquare := Square(newCenter, viewDistance)
	return subtract(oldSquare, newSquare), subtract(newSquare, oldSquare)
}
