// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// ParseSentence parses one NMEA line. ok is false for blank lines, non-NMEA
// noise, and sentence types other than RMC.
func ParseSentence(line string) (fix Fix, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return Fix{}, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false, fmt.Errorf("nmea parse: %w", err)
	}

	// We only use RMC; GGA/GSA/etc. are ignored for now.
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false, nil
	}
	m := sentence.(nmea.RMC)

	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Validity:   string(m.Validity),
	}, true, nil
}
