package transport

import (
	"bytes"
	"testing"
)

func TestZigZag(t *testing.T) {
	cases := []struct {
		n    int32
		want uint32
	}{{0, 0}, {-1, 1}, {1, 2}, {-2, 3}}
	for _, c := range cases {
		if got := zig32(c.n); got != c.want {
			t.Fatalf("zig32(%d) = %d, want %d", c.n, got, c.want)
		}
		if got := zag32(c.want); got != c.n {
			t.Fatalf("zag32(%d) = %d, want %d", c.want, got, c.n)
		}
	}
	for n := int32(-1000); n < 1000; n++ {
		if got := zag32(zig32(n)); got != n {
			t.Fatalf("zag32(zig32(%d)) = %d", n, got)
		}
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 127, -128, 1 << 20, -(1 << 20), math32Max, math32Min} {
		w := NewWriter()
		w.WriteVarInt(n)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarInt()
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if got != n {
			t.Fatalf("round trip n=%d got %d", n, got)
		}
	}
}

const (
	math32Max = int32(1<<31 - 1)
	math32Min = int32(-1 << 31)
)

func TestStructForwardCompatibility(t *testing.T) {
	// Sender writes 3 fields; an older reader only wants the first 2.
	w := NewWriter()
	w.BeginStruct(3)
	w.WriteVarInt(10)
	w.WriteVarInt(20)
	w.WriteString("extra")

	r := NewReader(w.Bytes())
	n, err := r.BeginStruct()
	if err != nil || n != 3 {
		t.Fatalf("BeginStruct: n=%d err=%v", n, err)
	}
	a, _ := r.ReadVarInt()
	b, _ := r.ReadVarInt()
	if a != 10 || b != 20 {
		t.Fatalf("got a=%d b=%d", a, b)
	}
	for i := 2; i < n; i++ {
		if err := r.Skip(); err != nil {
			t.Fatalf("skip field %d: %v", i, err)
		}
	}
}

func TestStructMissingTrailingFieldsReadAsNone(t *testing.T) {
	// Sender (older) writes only 1 field; a newer reader expects 2 and must
	// treat the absent one as None.
	w := NewWriter()
	w.BeginStruct(1)
	w.WriteVarInt(99)

	r := NewReader(w.Bytes())
	n, _ := r.BeginStruct()
	a, _ := r.ReadVarInt()
	if a != 99 {
		t.Fatalf("a = %d, want 99", a)
	}
	if n != 1 {
		t.Fatalf("sent field count = %d, want 1 (second field is absent, caller defaults it)", n)
	}
}

func TestEnumUnknownTagIsHardError(t *testing.T) {
	w := NewWriter()
	w.BeginEnum(99)
	w.WriteVarInt(1)

	r := NewReader(w.Bytes())
	tag, err := r.BeginEnum()
	if err != nil {
		t.Fatal(err)
	}
	known := map[int]bool{0: true, 1: true}
	if !known[tag] {
		err = ErrUnknownEnumTag
	}
	if err != ErrUnknownEnumTag {
		t.Fatalf("expected ErrUnknownEnumTag, got %v", err)
	}
}

func TestListRoundTrip(t *testing.T) {
	values := []int32{1, 2, 3, 4, 5}
	w := NewWriter()
	w.BeginList(len(values))
	for _, v := range values {
		w.WriteVarInt(v)
	}

	r := NewReader(w.Bytes())
	n, err := r.BeginList()
	if err != nil || n != len(values) {
		t.Fatalf("BeginList: n=%d err=%v", n, err)
	}
	for i := 0; i < n; i++ {
		got, err := r.ReadVarInt()
		if err != nil || got != values[i] {
			t.Fatalf("element %d: got %d err %v", i, got, err)
		}
	}
}

func TestFloatDoubleRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteFloat(3.5)
	w.WriteDouble(-12.125)
	r := NewReader(w.Bytes())
	f, err := r.ReadFloat()
	if err != nil || f != 3.5 {
		t.Fatalf("float: got %v err %v", f, err)
	}
	d, err := r.ReadDouble()
	if err != nil || d != -12.125 {
		t.Fatalf("double: got %v err %v", d, err)
	}
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteString("hello")
	r := NewReader(w.Bytes())
	b, err := r.ReadBytes()
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("bytes: got %v err %v", b, err)
	}
	s, err := r.ReadString()
	if err != nil || s != "hello" {
		t.Fatalf("string: got %q err %v", s, err)
	}
}
