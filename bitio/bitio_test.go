package bitio

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	w := NewWriter(4)
	if err := w.Write(0x1F, 5); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(0x2, 2); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(0xABCD, 16); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := NewBitReader(w.Bytes(), w.BitLen())
	v, err := r.Read(5)
	if err != nil || v != 0x1F {
		t.Fatalf("Read(5) = %d, %v, want 0x1F", v, err)
	}
	v, err = r.Read(2)
	if err != nil || v != 0x2 {
		t.Fatalf("Read(2) = %d, %v, want 0x2", v, err)
	}
	v, err = r.Read(16)
	if err != nil || v != 0xABCD {
		t.Fatalf("Read(16) = %d, %v, want 0xABCD", v, err)
	}
}

func TestReadTruncated(t *testing.T) {
	w := NewWriter(1)
	_ = w.Write(0x3, 2)
	r := NewBitReader(w.Bytes(), w.BitLen())
	if _, err := r.Read(8); err != ErrTruncated {
		t.Fatalf("Read(8) err = %v, want ErrTruncated", err)
	}
}

func TestBitWidthValidation(t *testing.T) {
	w := NewWriter(1)
	if err := w.Write(0, 0); err != ErrBitWidth {
		t.Fatalf("Write(0 bits) err = %v, want ErrBitWidth", err)
	}
	if err := w.Write(0, 33); err != ErrBitWidth {
		t.Fatalf("Write(33 bits) err = %v, want ErrBitWidth", err)
	}
}

func TestByteAlignment(t *testing.T) {
	w := NewWriter(2)
	_ = w.Write(0x01, 8)
	_ = w.Write(0xAB, 8)
	_ = w.Write(0xCD, 8)
	want := []byte{0x01, 0xAB, 0xCD}
	got := w.Bytes()
	if len(got) != len(want) {
		t.Fatalf("Bytes() = %x, want %x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Bytes() = %x, want %x", got, want)
		}
	}
}
