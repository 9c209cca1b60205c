package model

import (
	"fmt"

	"github.com/snarrenberg/westerlines/pitch"
)

// Mode is major or minor.
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

// Key is a tonic pitch class plus mode. Octave is not part of a Key's
// identity; only pitch.Pitch.PitchClass() matters for diatonic tests, but
// the tonic is kept as a full Pitch so it can be named with the correct
// letter spelling (C# minor vs D- minor have the same pitch class).
type Key struct {
	Tonic pitch.Pitch
	Mode  Mode
}

func (k Key) String() string {
	return k.Tonic.Name() + " " + k.Mode.String()
}

// TriadPitchClasses returns the pitch classes of the tonic triad (root,
// third, fifth) for this key's mode.
func (k Key) TriadPitchClasses() [3]int {
	root := k.Tonic.PitchClass()
	third := 4
	if k.Mode == Minor {
		third = 3
	}
	return [3]int{root, (root + third) % 12, (root + 7) % 12}
}

// ScalePitchClasses returns the pitch classes belonging to the scale: the
// seven major-scale degrees, or, for minor, the union of ascending and
// descending melodic-minor forms ("operative scale").
func (k Key) ScalePitchClasses() map[int]bool {
	root := k.Tonic.PitchClass()
	set := map[int]bool{}
	if k.Mode == Major {
		for _, d := range []int{0, 2, 4, 5, 7, 9, 11} {
			set[(root+d)%12] = true
		}
		return set
	}
	for _, d := range []int{0, 2, 3, 5, 7, 8, 9, 10, 11} {
		set[(root+d)%12] = true
	}
	return set
}

// ParseKey builds a Key from "Key override" tuple
// (tonicLetter, accidental, mode). tonicLetter must be a single natural
// letter name A-G; accidental is signed semitones (sharps positive,
// flats negative); mode is "major" or "minor".
func ParseKey(tonicLetter string, accidental int, mode string) (Key, error) {
	if len(tonicLetter) != 1 {
		return Key{}, fmt.Errorf("model: key tonic letter %q is not a well-formed letter name", tonicLetter)
	}
	letter := pitch.Letter(tonicLetter[0] - 'a' + 'A')
	if tonicLetter[0] >= 'A' && tonicLetter[0] <= 'Z' {
		letter = pitch.Letter(tonicLetter[0])
	}
	switch letter {
	case pitch.C, pitch.D, pitch.E, pitch.F, pitch.G, pitch.A, pitch.B:
	default:
		return Key{}, fmt.Errorf("model: key tonic letter %q is not a well-formed letter name", tonicLetter)
	}
	var m Mode
	switch mode {
	case "major", "":
		m = Major
	case "minor":
		m = Minor
	default:
		return Key{}, fmt.Errorf("model: key mode %q is not \"major\" or \"minor\"", mode)
	}
	return Key{Tonic: pitch.Pitch{Letter: letter, Accidental: accidental, Octave: 4}, Mode: m}, nil
}
