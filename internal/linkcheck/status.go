// Package linkcheck probes vendor resource pages and classifies whether the
// linked recording can actually be played.
package linkcheck

import (
	"fmt"
	"strings"
)

// Status is the health of one resource link.
type Status int

const (
	Unknown Status = iota
	Live
	Dead
	Unavailable
	Blocked
)

// Column is the header appended to a table by a URL check.
const Column = "URL_STATUS"

// Statuses lists every status in report order.
var Statuses = []Status{Live, Dead, Unavailable, Blocked, Unknown}

func (s Status) String() string {
	switch s {
	case Live:
		return "Live"
	case Dead:
		return "Dead"
	case Unavailable:
		return "Unavailable"
	case Blocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// MarshalText lets statuses key YAML and JSON maps by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus reads a status written by String.
func ParseStatus(v string) (Status, error) {
	for _, s := range Statuses {
		if strings.EqualFold(strings.TrimSpace(v), s.String()) {
			return s, nil
		}
	}
	return Unknown, fmt.Errorf("unknown link status %q", v)
}

// Problem reports whether a link needs a human to look at it.
func (s Status) Problem() bool {
	return s != Live
}
