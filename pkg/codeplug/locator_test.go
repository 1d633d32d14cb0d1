package codeplug

import "testing"

func TestLocate_RejectsLabelWithoutTerminator(t *testing.T) {
	// Printable run straight to the end of known memory, never
	// NUL-terminated.
	mem := []byte("Calling 1")
	loc := DefaultLocator()
	if _, _, ok := loc.Locate(mem, 0); ok {
		t.Error("label without NUL terminator must not locate")
	}
}

func TestLocate_RejectsEmptyLabel(t *testing.T) {
	mem := make([]byte, 0x100)
	for i := range mem {
		mem[i] = 0xFF
	}
	loc := DefaultLocator()
	if _, _, ok := loc.Locate(mem, 0x20); ok {
		t.Error("filler must not produce a label")
	}
}

func TestLocate_NoSignatureBelowThreshold(t *testing.T) {
	// Valid label followed by bytes that decode to nothing plausible.
	mem := make([]byte, 0x100)
	for i := range mem {
		mem[i] = 0xAB // invalid BCD nibble everywhere
	}
	copy(mem[0x20:], "Ghost")
	mem[0x25] = 0x00

	loc := DefaultLocator()
	_, label, ok := loc.Locate(mem, 0x20)
	if ok {
		t.Error("implausible signature region must not locate")
	}
	if label != "Ghost" {
		t.Errorf("label = %q, want %q even on failure", label, "Ghost")
	}
}

func TestLocate_FindsSignatureAfterPad(t *testing.T) {
	mem := make([]byte, 0x100)
	copy(mem[0x20:], "Calling 1")
	// NUL terminator then six pad bytes, mixed 0x00/0xFF.
	pad := []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0xFF, 0x00}
	copy(mem[0x29:], pad)
	sigAt := uint32(0x29 + len(pad))
	copy(mem[sigAt:], rx443)
	copy(mem[sigAt+4:], tx448)
	copy(mem[sigAt+8:], digitalParams)

	loc := DefaultLocator()
	sig, label, ok := loc.Locate(mem, 0x20)
	if !ok {
		t.Fatal("slot should locate")
	}
	if label != "Calling 1" {
		t.Errorf("label = %q", label)
	}
	if sig != sigAt {
		t.Errorf("sig = 0x%X, want 0x%X", sig, sigAt)
	}
}
