package roll

import (
	"fmt"
	"strconv"
	"strings"
)

// Subdivision is the number of grid cells per measure
type Subdivision int

const (
	Whole     Subdivision = 1
	Half      Subdivision = 2
	Quarter   Subdivision = 4
	Eighth    Subdivision = 8
	Sixteenth Subdivision = 16
)

// Subdivisions in selector order, finest first
var Subdivisions = []Subdivision{Sixteenth, Eighth, Quarter, Half, Whole}

func (s Subdivision) Valid() bool {
	for _, v := range Subdivisions {
		if s == v {
			return true
		}
	}
	return false
}

// Label formats the subdivision the way the grid selector shows it
func (s Subdivision) Label() string {
	if s == Whole {
		return "1"
	}
	return "1/" + strconv.Itoa(int(s))
}

func (s Subdivision) String() string {
	return s.Label()
}

// Next returns the following entry in selector order, wrapping around
func (s Subdivision) Next() Subdivision {
	for i, v := range Subdivisions {
		if v == s {
			return Subdivisions[(i+1)%len(Subdivisions)]
		}
	}
	return Sixteenth
}

// ParseSubdivision accepts "16", "1/16" or "1"
func ParseSubdivision(str string) (Subdivision, error) {
	str = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(str), "1/"))
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("parse subdivision %q: %w", str, err)
	}
	s := Subdivision(n)
	if !s.Valid() {
		return 0, fmt.Errorf("subdivision %d not one of 1, 2, 4, 8, 16", n)
	}
	return s, nil
}
