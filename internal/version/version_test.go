package version

import "testing"

func TestBlockMapping(t *testing.T) {
	cases := []struct {
		p    Protocol
		want Block
	}{
		{V1_8, Block1_8},
		{V1_9, Block1_9},
		{V1_9_4, Block1_9},
		{V1_12_2, Block1_12},
		{V1_16_5, Block1_16},
		{Latest, LatestBlock},
	}
	for _, c := range cases {
		if got := c.p.Block(); got != c.want {
			t.Errorf("Protocol(%d).Block() = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestUnsupported1_13(t *testing.T) {
	for _, p := range []Protocol{393, 401, 404} {
		if p.Supported() {
			t.Errorf("protocol %d should be unsupported (1.13 gap)", p)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	if Protocol(1).Supported() {
		t.Fatal("protocol 1 should not be supported")
	}
	if Protocol(9999).Supported() {
		t.Fatal("protocol 9999 should not be supported")
	}
}
