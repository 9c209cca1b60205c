// Package pitch provides the minimal pitch/interval arithmetic the rest
// of the codebase treats as an external primitive. No library in the
// retrieved corpus offers diatonic step arithmetic over
// letter+accidental+octave pitch names, so this is a small from-scratch
// adapter rather than a wrapped third-party dependency; see DESIGN.md.
package pitch

import "fmt"

// Letter is one of the seven natural note names.
type Letter byte

const (
	C Letter = 'C'
	D Letter = 'D'
	E Letter = 'E'
	F Letter = 'F'
	G Letter = 'G'
	A Letter = 'A'
	B Letter = 'B'
)

var letterSemitone = map[Letter]int{
	C: 0, D: 2, E: 4, F: 5, G: 7, A: 9, B: 11,
}

var letterOrder = map[Letter]int{
	C: 0, D: 1, E: 2, F: 3, G: 4, A: 5, B: 6,
}

var orderLetter = [7]Letter{C, D, E, F, G, A, B}

// Pitch is a letter name, accidental (in semitones, -2..2), and octave
// (scientific pitch notation, middle C = C4).
type Pitch struct {
	Letter     Letter
	Accidental int
	Octave     int
}

// Parse reads a pitch name such as "F#4", "Bb3", "C4" or "C-4" (the "-"
// spelling for flat follows the music21 convention, e.g. "B- minor").
func Parse(name string) (Pitch, error) {
	if len(name) < 2 {
		return Pitch{}, fmt.Errorf("pitch %q too short", name)
	}
	letter := Letter(name[0])
	if _, ok := letterOrder[letter]; !ok {
		return Pitch{}, fmt.Errorf("pitch %q has invalid letter", name)
	}
	i := 1
	acc := 0
	for i < len(name) {
		switch name[i] {
		case '#':
			acc++
		case 'b', '-':
			acc--
		default:
			goto digits
		}
		i++
	}
digits:
	if i >= len(name) {
		return Pitch{}, fmt.Errorf("pitch %q missing octave", name)
	}
	octave := 0
	neg := false
	rest := name[i:]
	if len(rest) > 0 && rest[0] == '-' {
		neg = true
		rest = rest[1:]
	}
	if rest == "" {
		return Pitch{}, fmt.Errorf("pitch %q missing octave", name)
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return Pitch{}, fmt.Errorf("pitch %q has invalid octave", name)
		}
		octave = octave*10 + int(r-'0')
	}
	if neg {
		octave = -octave
	}
	return Pitch{Letter: letter, Accidental: acc, Octave: octave}, nil
}

// Name renders the pitch back to a string, e.g. "F#4".
func (p Pitch) Name() string {
	s := string(p.Letter)
	switch {
	case p.Accidental > 0:
		for i := 0; i < p.Accidental; i++ {
			s += "#"
		}
	case p.Accidental < 0:
		for i := 0; i < -p.Accidental; i++ {
			s += "-"
		}
	}
	return fmt.Sprintf("%s%d", s, p.Octave)
}

// MIDI returns the chromatic MIDI note number (C4 == 60, matching the
// convention gitlab.com/gomidi/midi/v2 uses).
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + letterSemitone[p.Letter] + p.Accidental
}

// DiatonicStepNum returns a letter-only step count, ignoring accidentals,
// increasing by one per natural letter and by seven per octave. Used for
// step/skip/same classification and for octave-extended scale degrees.
func (p Pitch) DiatonicStepNum() int {
	return p.Octave*7 + letterOrder[p.Letter]
}

// DiatonicStepsTo returns the signed number of diatonic (letter) steps from
// p to other, e.g. C4 to E4 is 2, C4 to B3 is -1.
func (p Pitch) DiatonicStepsTo(other Pitch) int {
	return other.DiatonicStepNum() - p.DiatonicStepNum()
}

// SemitonesTo returns the signed chromatic distance in semitones.
func (p Pitch) SemitonesTo(other Pitch) int {
	return other.MIDI() - p.MIDI()
}

// IsDiatonicStep reports whether the motion from p to other is a step in
// the generic (letter) sense: exactly one natural scale step, any
// accidental.
func (p Pitch) IsDiatonicStep(other Pitch) bool {
	d := p.DiatonicStepsTo(other)
	return d == 1 || d == -1
}

// IsUnison reports whether p and other are the identical pitch (same
// letter, accidental, and octave).
func (p Pitch) IsUnison(other Pitch) bool {
	return p == other
}

// TransposeLetters moves a pitch by a number of diatonic letter steps,
// carrying the octave across B-C boundaries. The accidental is kept
// unchanged; it is not adjusted to any scale.
func (p Pitch) TransposeLetters(steps int) Pitch {
	total := letterOrder[p.Letter] + steps
	octaveShift := total / 7
	idx := total % 7
	if idx < 0 {
		idx += 7
		octaveShift--
	}
	return Pitch{Letter: orderLetter[idx], Accidental: p.Accidental, Octave: p.Octave + octaveShift}
}

// PitchClass returns the chromatic residue 0-11, with C == 0.
func (p Pitch) PitchClass() int {
	pc := (letterSemitone[p.Letter] + p.Accidental) % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}
