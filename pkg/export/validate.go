package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
)

// ValidationResult reports a CPS CSV cross-check against the radio.
type ValidationResult struct {
	Kind     string // "zones" or "channels"
	Checked  int
	Missing  int
	Problems []string
}

// Passed reports whether every CSV entry was found on the radio.
func (r ValidationResult) Passed() bool {
	return r.Missing == 0
}

// Summary renders the one-line verdict.
func (r ValidationResult) Summary() string {
	if r.Passed() {
		return "Validation PASSED."
	}
	return fmt.Sprintf("Validation FAILED: %d missing items.", r.Missing)
}

// ValidateCSV cross-checks a CPS export CSV against the decoded state of
// the radio. Two formats are recognized by header sniffing: the zone
// export (No.,Zone Name,Channel Members with pipe-separated members) and
// the channel export (No.,Channel Name,...). The check is one-way: every
// CSV entry must exist on the radio, extra radio entries are fine.
func ValidateCSV(r io.Reader, chans []codeplug.Channel, zones []codeplug.Zone) (ValidationResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return ValidationResult{}, err
		}
		return ValidationResult{}, fmt.Errorf("empty CSV input")
	}
	header := strings.TrimRight(sc.Text(), "\r\n")

	isZoneCSV := strings.Contains(header, "Zone Name") && strings.Contains(header, "Channel Members")
	isChanCSV := !isZoneCSV && strings.Contains(header, "Channel Name")
	if !isZoneCSV && !isChanCSV {
		return ValidationResult{}, fmt.Errorf("unsupported CSV format, header: %s", header)
	}

	chanNames := make(map[string]bool, len(chans))
	for _, ch := range chans {
		chanNames[ch.Name] = true
	}
	zoneNames := make(map[string]bool, len(zones))
	for _, z := range zones {
		zoneNames[z.Name] = true
	}

	var res ValidationResult
	if isZoneCSV {
		res.Kind = "zones"
	} else {
		res.Kind = "channels"
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}

		// Split off the first two columns; everything after the second
		// comma stays joined.
		parts := strings.SplitN(line, ",", 3)
		if len(parts) < 3 {
			continue
		}
		name := parts[1]

		res.Checked++
		if isZoneCSV {
			if !zoneNames[name] {
				res.Missing++
				res.Problems = append(res.Problems, fmt.Sprintf("Missing zone: %s", name))
			}
			for _, m := range strings.Split(parts[2], "|") {
				m = strings.TrimSpace(m)
				if m == "" {
					continue
				}
				if !chanNames[m] {
					res.Missing++
					res.Problems = append(res.Problems,
						fmt.Sprintf("Missing channel from radio: %s (zone %s)", m, name))
				}
			}
		} else {
			if !chanNames[name] {
				res.Missing++
				res.Problems = append(res.Problems, fmt.Sprintf("Missing channel: %s", name))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return res, err
	}
	return res, nil
}
