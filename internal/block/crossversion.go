package block

import "github.com/voxelwire/bridge/internal/version"

// Introduction describes a kind that did not exist before a given block
// version. Cross-version tables use it to decide what an older client
// should see in its place (spec.md §4.5, §8 scenario 3: crying_obsidian
// downgrades to obsidian for 1.15 and earlier).
type Introduction struct {
	KindName     string
	IntroducedAt version.Block
	Fallback     string // kind name substituted for versions before IntroducedAt
}

// Table is the per-block-version translation described in spec.md §3
// "Cross-version map": two parallel arrays giving O(1) id translation in
// both directions. Air (state 0) always maps to air in both directions.
type Table struct {
	Block  version.Block
	ToOld  []uint32 // indexed by latest state id
	ToNew  []uint32 // indexed by old-version state id (same id space here, see BuildTable doc)
}

// ToOldID translates a latest-version state id to this table's version,
// returning 0 (air) if s is out of range — spec.md §4.5's "returns 0 (air)
// when V's equivalent is missing" extended defensively to out-of-range ids.
func (t *Table) ToOldID(s uint32) uint32 {
	if int(s) >= len(t.ToOld) {
		return 0
	}
	return t.ToOld[s]
}

// ToNewID translates an id in this table's old version back to a latest
// state id.
func (t *Table) ToNewID(old uint32) uint32 {
	if int(old) >= len(t.ToNew) {
		return 0
	}
	return t.ToNew[old]
}

// BuildTable constructs the translation table for one block version from the
// latest Registry and a list of kind introductions.
//
// Real tables are generated at build time from the community block-id
// corpus (spec.md §3: "Generation of these tables is a build-time
// concern"); this constructor is the runtime-available equivalent used by
// tests and by the sample data in this module, operating on one shared
// dense state-id space rather than a second, independently-numbered legacy
// space. A state whose kind didn't exist yet in the target version collapses
// onto its configured fallback's default state — which is lossy exactly the
// way spec.md §4.5 describes ("wastes one entry") — and BuildTable does not
// attempt the optional palette-dedup pass. No other code does either:
// chunk.FromPaletted applies the table once per palette entry and keeps any
// duplicate entries that result.
func BuildTable(reg *Registry, target version.Block, introductions []Introduction) *Table {
	n := int(reg.StateCount())
	t := &Table{Block: target, ToOld: make([]uint32, n), ToNew: make([]uint32, n)}

	unsupported := make(map[string]*Kind, len(introductions))
	for _, intro := range introductions {
		if target >= intro.IntroducedAt {
			continue
		}
		fallback, ok := reg.KindByName(intro.Fallback)
		if !ok {
			continue
		}
		if k, ok := reg.KindByName(intro.KindName); ok {
			unsupported[k.Name] = fallback
		}
	}

	for s := uint32(0); s < uint32(n); s++ {
		// Identity by default: the id exists unchanged in the old version.
		t.ToOld[s] = s
		t.ToNew[s] = s
	}
	for s := uint32(0); s < uint32(n); s++ {
		k, ok := reg.KindForState(s)
		if !ok {
			continue
		}
		if fallback, unsup := unsupported[k.Name]; unsup {
			t.ToOld[s] = fallback.Default().StateID()
			// ToNew for this id is never reached (no old client ever sends an
			// id inside an unsupported kind's range), so it is left as
			// identity — harmless, since nothing downstream looks it up.
		}
	}
	return t
}
