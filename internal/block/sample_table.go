package block

// SampleLatestKinds returns a small, representative slice of the latest
// (1.20) block registry: enough kinds, with enough property shapes (no
// properties, boolean, bounded int, enum), to exercise every code path that
// depends on the registry. A production deployment replaces this with the
// full generated table — see SPEC_FULL.md §3 for the generation contract
// this mirrors (modeled on original_source/data/src/block/paletted.rs's
// JsonBlock/JsonBlockState shape: name, hardness, states list of
// bool/int/enum).
func SampleLatestKinds() []*Kind {
	return []*Kind{
		{
			Name: "minecraft:air", Material: "air", Hardness: 0, BlastResistance: 0,
			LightEmission: 0, LightFilter: 0, Transparent: true,
		},
		{
			Name: "minecraft:stone", Material: "stone", Hardness: 1.5, BlastResistance: 6,
			Transparent: false,
		},
		{
			Name: "minecraft:obsidian", Material: "stone", Hardness: 50, BlastResistance: 1200,
			Transparent: false,
		},
		{
			// Added in 1.16; crosses the cross-version translation boundary used
			// in spec.md §8 scenario 3.
			Name: "minecraft:crying_obsidian", Material: "stone", Hardness: 50, BlastResistance: 1200,
			Transparent: false, LightEmission: 10,
		},
		{
			Name: "minecraft:glass", Material: "glass", Hardness: 0.3, BlastResistance: 0.3,
			Transparent: true,
		},
		{
			Name: "minecraft:torch", Material: "decoration", Hardness: 0, BlastResistance: 0,
			Transparent: true, LightEmission: 14,
		},
		{
			Name: "minecraft:oak_leaves", Material: "plant", Hardness: 0.2, BlastResistance: 0.2,
			Transparent: true, LightFilter: 1,
			Properties: []Property{
				NewIntProperty("distance", 1, 7),
				NewBoolProperty("persistent"),
			},
		},
		{
			Name: "minecraft:oak_stairs", Material: "wood", Hardness: 2, BlastResistance: 3,
			Transparent: false,
			Properties: []Property{
				NewEnumProperty("facing", []string{"north", "south", "west", "east"}),
				NewEnumProperty("half", []string{"top", "bottom"}),
				NewEnumProperty("shape", []string{"straight", "inner_left", "inner_right", "outer_left", "outer_right"}),
				NewBoolProperty("waterlogged"),
			},
		},
		{
			Name: "minecraft:oak_door", Material: "wood", Hardness: 3, BlastResistance: 3,
			Transparent: true,
			Properties: []Property{
				NewEnumProperty("facing", []string{"north", "south", "west", "east"}),
				NewBoolProperty("open"),
				NewEnumProperty("hinge", []string{"left", "right"}),
				NewBoolProperty("powered"),
				NewEnumProperty("half", []string{"upper", "lower"}),
			},
		},
		{
			Name: "minecraft:water", Material: "liquid", Hardness: 100, BlastResistance: 100,
			Transparent: true, LightFilter: 2,
			Properties: []Property{
				NewIntProperty("level", 0, 15),
			},
		},
	}
}
