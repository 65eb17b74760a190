package block

import "testing"

func TestStateIDRoundTrip(t *testing.T) {
	reg, err := NewRegistry(SampleLatestKinds())
	if err != nil {
		t.Fatal(err)
	}

	stairs, ok := reg.KindByName("minecraft:oak_stairs")
	if !ok {
		t.Fatal("missing oak_stairs")
	}

	for facing := 0; facing < 4; facing++ {
		for half := 0; half < 2; half++ {
			for shape := 0; shape < 5; shape++ {
				for waterlogged := 0; waterlogged < 2; waterlogged++ {
					ty := Type{Kind: stairs, Indices: []int{facing, half, shape, waterlogged}}
					id := ty.StateID()

					decoded, err := reg.TypeForState(id)
					if err != nil {
						t.Fatalf("TypeForState(%d): %v", id, err)
					}
					if decoded.Kind != stairs {
						t.Fatalf("decoded kind = %s, want oak_stairs", decoded.Kind.Name)
					}
					for i, want := range ty.Indices {
						if decoded.Indices[i] != want {
							t.Fatalf("index %d: got %d want %d (state %d)", i, decoded.Indices[i], want, id)
						}
					}
				}
			}
		}
	}
}

func TestAirIsStateZero(t *testing.T) {
	reg, err := NewRegistry(SampleLatestKinds())
	if err != nil {
		t.Fatal(err)
	}
	air, ok := reg.KindByName("minecraft:air")
	if !ok {
		t.Fatal("missing air")
	}
	if air.BaseStateID != 0 {
		t.Fatalf("air base state id = %d, want 0", air.BaseStateID)
	}
	k, ok := reg.KindForState(0)
	if !ok || k.Name != "minecraft:air" {
		t.Fatalf("state 0 should resolve to air, got %v", k)
	}
}

func TestNoPropertyKindHasSingleState(t *testing.T) {
	reg, err := NewRegistry(SampleLatestKinds())
	if err != nil {
		t.Fatal(err)
	}
	stone, ok := reg.KindByName("minecraft:stone")
	if !ok {
		t.Fatal("missing stone")
	}
	if stone.StateCount() != 1 {
		t.Fatalf("stone state count = %d, want 1", stone.StateCount())
	}
	if stone.Default().StateID() != stone.BaseStateID {
		t.Fatalf("stone default state id should equal its base state id")
	}
}
