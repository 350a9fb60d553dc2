package term

import (
	"strings"
	"testing"
)

func sampleDerive() Derive {
	return Derive{
		Outs:     []OutSpec{{Path: "/depot/store/out", ID: HashBytes([]byte("out"))}},
		Ins:      []ID{HashBytes([]byte("in1")), HashBytes([]byte("in2"))},
		Builder:  "/depot/store/builder.sh",
		Platform: "amd64-linux",
		Bindings: []Binding{{Name: "mode", Value: "release"}},
	}
}

// TestEncodeDecodeRoundTrip verifies that decoding an encoding yields a
// structurally identical tree.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	trees := []Node{
		Str(""),
		Str("hello"),
		ListOf(),
		ListOf(Str("a"), Str("b")),
		Make("Include", Str(HashBytes([]byte("x")).String())),
		sampleDerive().Term(),
		Slice{
			Roots: []ID{HashBytes([]byte("r"))},
			Elems: []SliceElem{{Path: "/depot/store/x", ID: HashBytes([]byte("r"))}},
		}.Term(),
	}

	for _, tree := range trees {
		data, err := Encode(tree)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", tree, err)
		}
		back, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode of %s failed: %v", tree, err)
		}
		if !tree.Equal(back) {
			t.Errorf("round trip changed %s into %s", tree, back)
		}

		// Re-encoding the decoded tree yields the same id: hashing
		// survives a decode/encode round trip
		again, err := Encode(back)
		if err != nil {
			t.Fatalf("re-Encode failed: %v", err)
		}
		if HashBytes(data) != HashBytes(again) {
			t.Errorf("re-encoding %s changed its hash", tree)
		}
	}
}

// TestEncodeDeterministic verifies that equal trees encode to equal
// bytes, which is what makes hashing an identity.
func TestEncodeDeterministic(t *testing.T) {
	a := sampleDerive().Term()
	b := sampleDerive().Term()

	ha, err := HashTerm(a)
	if err != nil {
		t.Fatalf("HashTerm failed: %v", err)
	}
	hb, err := HashTerm(b)
	if err != nil {
		t.Fatalf("HashTerm failed: %v", err)
	}
	if ha != hb {
		t.Errorf("equal trees hashed differently: %s vs %s", ha, hb)
	}

	other := sampleDerive()
	other.Platform = "riscv64-linux"
	hc, err := HashTerm(other.Term())
	if err != nil {
		t.Fatalf("HashTerm failed: %v", err)
	}
	if ha == hc {
		t.Error("different trees hashed identically")
	}
}

// TestDecodeRejectsTrailingBytes verifies that garbage after a valid
// encoding is rejected.
func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(Str("x"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := Decode(append(data, 0, 0, 0, 0)); err == nil {
		t.Error("Decode accepted trailing bytes")
	}
}

// TestParseID verifies strict id parsing.
func TestParseID(t *testing.T) {
	id := HashBytes([]byte("content"))

	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("ParseID rejected canonical form: %v", err)
	}
	if parsed != id {
		t.Error("ParseID changed the id")
	}

	bad := []string{
		"",
		"abc",
		strings.Repeat("g", 2*IDSize),
		id.String() + "00",
		strings.ToUpper(id.String())[:2*IDSize-2] + "ZZ",
	}
	for _, s := range bad {
		if _, err := ParseID(s); err == nil {
			t.Errorf("ParseID accepted %q", s)
		}
	}
}

// TestNodeString spot-checks the printed form used in error messages.
func TestNodeString(t *testing.T) {
	n := Make("Derive", ListOf(Str("a")), Str("b"))
	want := `Derive(["a"],"b")`
	if got := n.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
