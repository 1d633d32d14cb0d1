package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
)

// channelName16 clips a name to 16 characters with spaces as
// underscores, the convention used by dmrconfig-style channel tables.
func channelName16(name string) string {
	s := strings.ReplaceAll(name, " ", "_")
	if len(s) > 16 {
		s = s[:16]
	}
	return s
}

// txColumn renders the transmit column, collapsing the standard repeater
// shifts to +/- offsets.
func txColumn(rx, tx float64) string {
	diff := tx - rx
	switch {
	case diff > 4.999 && diff < 5.001:
		return "+5"
	case diff < -4.999 && diff > -5.001:
		return "-5"
	case diff > 0.599 && diff < 0.601:
		return "+0.6"
	case diff < -0.599 && diff > -0.601:
		return "-0.6"
	}
	return fmt.Sprintf("%.5f", tx)
}

// WriteDigitalTable renders the digital channel table. Columns whose
// codeplug location is still unknown print as '-'.
func WriteDigitalTable(w io.Writer, chans []codeplug.Channel) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "# Table of digital channels.\n")
	fmt.Fprintf(w, "# 1) Channel number: 1-%d\n", protocol.NumChannels)
	fmt.Fprintf(w, "# 2) Name: up to 16 characters, use '_' instead of space\n")
	fmt.Fprintf(w, "# 3) Receive frequency in MHz\n")
	fmt.Fprintf(w, "# 4) Transmit frequency or +/- offset in MHz\n")
	fmt.Fprintf(w, "# 5) Transmit power: High, Low\n")
	fmt.Fprintf(w, "# 6) Scan list: - or index in Scanlist table\n")
	fmt.Fprintf(w, "# 7) Transmit timeout timer in seconds: 0, 15, 30, 45... 555\n")
	fmt.Fprintf(w, "# 8) Receive only: -, +\n")
	fmt.Fprintf(w, "# 9) Admit criteria: -, Free, Color\n")
	fmt.Fprintf(w, "# 10) Color code: 0, 1, 2, 3... 15\n")
	fmt.Fprintf(w, "# 11) Time slot: 1 or 2\n")
	fmt.Fprintf(w, "# 12) Receive group list: - or index in Grouplist table\n")
	fmt.Fprintf(w, "# 13) Contact for transmit: - or index in Contacts table\n")
	fmt.Fprintf(w, "#\n")
	fmt.Fprintf(w, "Digital Name             Receive   Transmit Power Scan TOT RO Admit  Color Slot RxGL TxContact\n")

	idx := 1
	for _, ch := range chans {
		power := "Low"
		if ch.PowerHigh {
			power = "High"
		}
		fmt.Fprintf(w, "%5d   %-16.16s %-8.6g %-8s %-5s %-4s %-3s %-2s %-5s %-5d %-4d %-4s %-8s\n",
			idx, channelName16(ch.Name), ch.RXMHz, txColumn(ch.RXMHz, ch.TXMHz),
			power, "-", "-", "-", "-", ch.ColorCode, ch.Timeslot, "-", "-")
		idx++
	}
}

// WriteAnalogTable renders the analog channel table header. Rows are
// intentionally omitted until the analog field mapping is confirmed.
func WriteAnalogTable(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "# Table of analog channels.\n")
	fmt.Fprintf(w, "# 1) Channel number: 1-%d\n", protocol.NumChannels)
	fmt.Fprintf(w, "# 2) Name: up to 16 characters, use '_' instead of space\n")
	fmt.Fprintf(w, "# 3) Receive frequency in MHz\n")
	fmt.Fprintf(w, "# 4) Transmit frequency or +/- offset in MHz\n")
	fmt.Fprintf(w, "# 5) Transmit power: High, Low\n")
	fmt.Fprintf(w, "# 6) Scan list: - or index\n")
	fmt.Fprintf(w, "# 7) Transmit timeout timer in seconds: 0, 15, 30, 45... 555\n")
	fmt.Fprintf(w, "# 8) Receive only: -, +\n")
	fmt.Fprintf(w, "# 9) Admit criteria: -, Free, Tone\n")
	fmt.Fprintf(w, "# 10) Squelch level: 0, 1, 2, 3, 4, 5, 6, 7, 8, 9\n")
	fmt.Fprintf(w, "# 11) Guard tone for receive, or '-' to disable\n")
	fmt.Fprintf(w, "# 12) Guard tone for transmit, or '-' to disable\n")
	fmt.Fprintf(w, "# 13) Bandwidth in kHz: 12.5, 20, 25\n")
	fmt.Fprintf(w, "#\n")
	fmt.Fprintf(w, "Analog  Name             Receive   Transmit Power Scan TOT RO Admit  Squelch RxTone TxTone Width\n")
}

// WriteZoneTable renders the zone table. Channel membership is not yet
// mapped in the codeplug, so members print as '-'.
func WriteZoneTable(w io.Writer, zones []codeplug.Zone, verbose bool) {
	if len(zones) == 0 {
		return
	}
	fmt.Fprintf(w, "\n")
	if verbose {
		fmt.Fprintf(w, "# Table of channel zones.\n")
		fmt.Fprintf(w, "# 1) Zone number: 1-%d\n", protocol.NumZones)
		fmt.Fprintf(w, "# 2) Name: up to 16 characters, use '_' instead of space\n")
		fmt.Fprintf(w, "# 3) List of channels: numbers and ranges (N-M) separated by comma\n")
		fmt.Fprintf(w, "#\n")
	}
	fmt.Fprintf(w, "Zone    Name             Channels\n")
	for i, z := range zones {
		fmt.Fprintf(w, "%4d    %-16.16s -\n", i+1, z.Name)
	}
}
