// Package dasha builds and queries planetary-period trees for the six
// supported Dasha systems.
//
// A tree is a pure function of a chart, the system catalog and the build
// options. Every node's children partition it exactly: they are contiguous,
// ordered by the resolved direction, and their durations sum to the parent's
// duration at nanosecond precision.
package dasha

import (
	"fmt"
	"strings"
)

// SystemID is the closed set of Dasha systems.
type SystemID int

const (
	Vimshottari SystemID = iota
	Yogini
	Ashtottari
	Kalachakra
	Chara
	Sudarshana
)

var systemNames = [...]string{"vimshottari", "yogini", "ashtottari", "kalachakra", "chara", "sudarshana"}

// Systems returns all systems in display order.
func Systems() []SystemID {
	return []SystemID{Vimshottari, Yogini, Ashtottari, Kalachakra, Chara, Sudarshana}
}

func (s SystemID) String() string {
	if s < Vimshottari || s > Sudarshana {
		return fmt.Sprintf("system(%d)", int(s))
	}
	return systemNames[s]
}

// MarshalText encodes the system by name.
func (s SystemID) MarshalText() ([]byte, error) {
	if s < Vimshottari || s > Sudarshana {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSystem, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a system name.
func (s *SystemID) UnmarshalText(b []byte) error {
	v, err := ParseSystem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSystem resolves a case-insensitive system name.
func ParseSystem(name string) (SystemID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, sn := range systemNames {
		if sn == n {
			return SystemID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
}
