package focus

import (
	"strings"

	"github.com/Faultbox/bodyview/internal/scene"
)

// Status is the clinical state of a body part, which picks its highlight color.
type Status int

const (
	StatusActive Status = iota // Current injury
	StatusPast                 // Past or recovered injury
	StatusOther                // Anything else, e.g. moderate findings
)

var statusNames = map[Status]string{
	StatusActive: "active",
	StatusPast:   "past",
	StatusOther:  "other",
}

var statusColors = map[Status]scene.Color{
	StatusActive: {R: 1, G: 0, B: 0},
	StatusPast:   {R: 0, G: 1, B: 0},
	StatusOther:  {R: 1, G: 0.65, B: 0},
}

// ParseStatus maps host strings onto a Status. Unknown values are StatusOther.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive
	case "past", "recovered":
		return StatusPast
	default:
		return StatusOther
	}
}

// Color returns the highlight color for the status.
func (s Status) Color() scene.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[StatusOther]
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusOther]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}
