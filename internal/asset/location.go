package asset

import (
	"fmt"
	"strings"
)

const hereText = "here"

// Location is an ordered path of junctions describing an origin or owner.
// Order is significant: the last junction is the most specific one.
type Location []Junction

// Last returns the final junction, or false for the empty location.
func (l Location) Last() (Junction, bool) {
	if len(l) == 0 {
		return nil, false
	}
	return l[len(l)-1], true
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	if l == nil {
		return nil
	}
	out := make(Location, len(l))
	for i, j := range l {
		if key, ok := j.(GeneralKey); ok {
			j = append(GeneralKey(nil), key...)
		}
		out[i] = j
	}
	return out
}

// String renders junctions joined by "/"; the empty location is "here".
func (l Location) String() string {
	if len(l) == 0 {
		return hereText
	}
	segs := make([]string, len(l))
	for i, j := range l {
		segs[i] = j.String()
	}
	return strings.Join(segs, "/")
}

// ParseLocation parses the form produced by Location.String.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == hereText {
		return Location{}, nil
	}

	segs := strings.Split(s, "/")
	loc := make(Location, 0, len(segs))
	for i, seg := range segs {
		j, err := parseJunction(seg)
		if err != nil {
			return nil, fmt.Errorf("junction %d: %w", i, err)
		}
		loc = append(loc, j)
	}
	return loc, nil
}

func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(text []byte) error {
	parsed, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
