package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadRequest_Encode(t *testing.T) {
	tests := []struct {
		name string
		req  ReadRequest
		want []byte
	}{
		{
			name: "channel region read",
			req:  ReadRequest{Address: 0x00601C, Length: 0x1000},
			want: []byte{0x52, 0x00, 0x60, 0x1C, 0x00, 0x10},
		},
		{
			name: "probe read",
			req:  ReadRequest{Address: 0x008027, Length: 4},
			want: []byte{0x52, 0x00, 0x80, 0x27, 0x04, 0x00},
		},
		{
			name: "length crosses the little-endian byte boundary",
			req:  ReadRequest{Address: 0x123456, Length: 0x0201},
			want: []byte{0x52, 0x12, 0x34, 0x56, 0x01, 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.Encode()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestValidateHeader(t *testing.T) {
	req := ReadRequest{Address: 0x00601C, Length: 0x1000}

	t.Run("exact echo accepted", func(t *testing.T) {
		hdr := []byte{0x57, 0x00, 0x60, 0x1C, 0x00, 0x10}
		if err := ValidateHeader(req, hdr); err != nil {
			t.Errorf("ValidateHeader rejected valid header: %v", err)
		}
	})

	t.Run("any echoed byte mismatch rejected", func(t *testing.T) {
		for i := 0; i < HeaderSize; i++ {
			hdr := []byte{0x57, 0x00, 0x60, 0x1C, 0x00, 0x10}
			hdr[i] ^= 0x01
			err := ValidateHeader(req, hdr)
			if err == nil {
				t.Fatalf("byte %d mismatch not detected", i)
			}
			var mismatch *HeaderMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected HeaderMismatchError, got %T", err)
			}
		}
	})

	t.Run("short header rejected", func(t *testing.T) {
		if err := ValidateHeader(req, []byte{0x57, 0x00}); err == nil {
			t.Error("expected error for short header")
		}
	})
}

func TestVersionProbe(t *testing.T) {
	got := VersionProbe(0x00, 0x0D)
	want := []byte{0x56, 0x00, 0x00, 0x00, 0x0D}
	if !bytes.Equal(got, want) {
		t.Errorf("VersionProbe = % X, want % X", got, want)
	}
}
