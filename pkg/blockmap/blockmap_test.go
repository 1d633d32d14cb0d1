package blockmap

import (
	"testing"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	m, err := Load("", 0x200000)
	if err != nil {
		t.Fatalf("Load of embedded default failed: %v", err)
	}
	if len(m.Blocks) == 0 {
		t.Fatal("default map has no blocks")
	}
	// The channel label region must be covered by the default schedule.
	covered := false
	for _, b := range m.Blocks {
		if b.Address <= 0x00601C && uint32(b.Address)+uint32(b.Length) > 0x00601C {
			covered = true
		}
	}
	if !covered {
		t.Error("default map does not cover the channel slot region")
	}
	if m.TotalBytes() <= 0 {
		t.Error("TotalBytes must be positive")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid map with hex addresses",
			yaml: "blocks:\n  - address: 0x006000\n    length: 0x1000\n",
		},
		{
			name:    "empty map rejected",
			yaml:    "blocks: []\n",
			wantErr: true,
		},
		{
			name:    "zero length rejected",
			yaml:    "blocks:\n  - address: 0x006000\n    length: 0\n",
			wantErr: true,
		},
		{
			name:    "block past memory bound rejected",
			yaml:    "blocks:\n  - address: 0x1FFF00\n    length: 0x1000\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml rejected",
			yaml:    "blocks: [address: oops",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), 0x200000)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
