package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
)

func TestTxColumn(t *testing.T) {
	tests := []struct {
		name string
		rx   float64
		tx   float64
		want string
	}{
		{"plus five", 443.58750, 448.58750, "+5"},
		{"minus five", 448.58750, 443.58750, "-5"},
		{"plus six hundred k", 145.00000, 145.60000, "+0.6"},
		{"minus six hundred k", 145.60000, 145.00000, "-0.6"},
		{"simplex prints absolute", 446.00625, 446.00625, "446.00625"},
		{"odd split prints absolute", 144.95000, 145.85000, "145.85000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txColumn(tt.rx, tt.tx); got != tt.want {
				t.Errorf("txColumn(%.5f, %.5f) = %q, want %q", tt.rx, tt.tx, got, tt.want)
			}
		})
	}
}

func TestChannelName16(t *testing.T) {
	if got := channelName16("Calling 1"); got != "Calling_1" {
		t.Errorf("got %q, want Calling_1", got)
	}
	if got := channelName16("A very long channel name"); len(got) != 16 {
		t.Errorf("clipped name is %d chars: %q", len(got), got)
	}
}

func TestWriteDigitalTable(t *testing.T) {
	chans := []codeplug.Channel{
		{
			Index: 1, Name: "Calling 1", RXMHz: 443.58750, TXMHz: 448.58750,
			PowerHigh: true, Timeslot: 1, ColorCode: 1, Digital: true,
		},
		{
			Index: 3, Name: "Local 2", RXMHz: 145.31250, TXMHz: 145.31250,
			Timeslot: 2, ColorCode: 3,
		},
	}

	var buf bytes.Buffer
	WriteDigitalTable(&buf, chans)
	out := buf.String()

	if !strings.Contains(out, "# Table of digital channels.") {
		t.Error("missing table header comment")
	}
	if !strings.Contains(out, "Digital Name             Receive") {
		t.Error("missing column header")
	}
	if !strings.Contains(out, "Calling_1") {
		t.Error("missing channel name with underscore")
	}
	if !strings.Contains(out, "+5") {
		t.Error("repeater shift not collapsed to +5")
	}
	if !strings.Contains(out, "145.31250") {
		t.Error("simplex TX should print as absolute frequency")
	}
}

func TestWriteZoneTable(t *testing.T) {
	zones := []codeplug.Zone{
		{Offset: 0x0100, Name: "Richmond"},
		{Offset: 0x0120, Name: "Goochland"},
	}

	var buf bytes.Buffer
	WriteZoneTable(&buf, zones, true)
	out := buf.String()

	if !strings.Contains(out, "Zone    Name             Channels") {
		t.Error("missing zone column header")
	}
	if !strings.Contains(out, "   1    Richmond") {
		t.Errorf("zone row malformed:\n%s", out)
	}
	// Unknown membership prints as '-'.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Richmond") && !strings.HasSuffix(strings.TrimRight(line, " "), "-") {
			t.Errorf("zone row should end with '-': %q", line)
		}
	}

	// Empty zone list emits nothing at all.
	var empty bytes.Buffer
	WriteZoneTable(&empty, nil, true)
	if empty.Len() != 0 {
		t.Error("empty zone list should produce no output")
	}
}
