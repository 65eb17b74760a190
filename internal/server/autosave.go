package server

import (
	"github.com/voxelwire/bridge/internal/region"
)

// Autosave writes every resident chunk to its region file on disk, grouping
// chunks by the region they fall in (spec.md §4.8) so each region file is
// written at most once per autosave tick (SPEC_FULL.md §6's
// region.autosave-interval). Errors for individual regions are collected but
// do not stop the sweep — one bad region file shouldn't block the rest from
// saving, mirroring worker.Pool's per-request isolation.
func (w *World) Autosave(baseDir string) []error {
	type regionKey struct{ rx, rz int32 }

	w.mu.RLock()
	byRegion := make(map[regionKey]*region.Region)
	for key, rc := range w.chunks {
		if rc.col == nil {
			continue
		}
		rk := regionKey{key.x >> 5, key.z >> 5}
		r, ok := byRegion[rk]
		if !ok {
			r = region.New(rk.rx, rk.rz, w.span.minY, w.span.maxY)
			byRegion[rk] = r
		}
		lx, lz := int(key.x&31), int(key.z&31)
		_ = r.Set(lx, lz, rc.col)
	}
	w.mu.RUnlock()

	var errs []error
	for _, r := range byRegion {
		if err := r.Save(baseDir); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
