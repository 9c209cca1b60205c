// Package csd implements the scale-degree mapper: given a pitch and a
// key, it returns the pitch's concrete scale degree or fails with
// "pitch not in scale." The direction of a minor-mode 6th or 7th degree
// (ascending for the raised form, descending for the lowered form, none
// otherwise) is inferred from which chromatic spelling the input pitch
// actually used.
package csd

import (
	"fmt"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
)

var majorOffsets = [7]int{0, 2, 4, 5, 7, 9, 11}
var minorOffsets = [7]int{0, 2, 3, 5, 7, 8, 10} // descending/natural form
var minorRaisedSixSeven = [7]int{0, 2, 3, 5, 7, 9, 11}

// Map returns p's concrete scale degree relative to k, or an error if p is
// not diatonic in k's scale.
func Map(p pitch.Pitch, k model.Key) (model.ConcreteScaleDegree, error) {
	steps := k.Tonic.DiatonicStepsTo(p)
	residue := steps % 7
	if residue < 0 {
		residue += 7
	}
	actualPC := mod12(p.PitchClass() - k.Tonic.PitchClass())

	if k.Mode == model.Major {
		if actualPC != majorOffsets[residue] {
			return model.ConcreteScaleDegree{}, notInScale(p, k)
		}
		return model.NewCSD(steps, model.DirectionNone), nil
	}

	// Minor: degrees 1-5 (residue 0-4) are unambiguous; 6 and 7
	// (residue 5, 6) carry a direction depending on which chromatic
	// form of the pitch was used.
	switch residue {
	case 5, 6:
		raised := minorRaisedSixSeven[residue]
		lowered := minorOffsets[residue]
		switch actualPC {
		case raised:
			return model.NewCSD(steps, model.DirectionAscending), nil
		case lowered:
			return model.NewCSD(steps, model.DirectionDescending), nil
		default:
			return model.ConcreteScaleDegree{}, notInScale(p, k)
		}
	default:
		if actualPC != minorOffsets[residue] {
			return model.ConcreteScaleDegree{}, notInScale(p, k)
		}
		return model.NewCSD(steps, model.DirectionNone), nil
	}
}

// MapAll maps every pitch in pitches, returning the first error
// encountered (with its index) alongside any degrees successfully mapped
// before it; callers (context.Build) use the partial result to keep
// building diagnostics for the rest of the part.
func MapAll(pitches []pitch.Pitch, k model.Key) ([]model.ConcreteScaleDegree, int, error) {
	out := make([]model.ConcreteScaleDegree, len(pitches))
	for i, p := range pitches {
		csd, err := Map(p, k)
		if err != nil {
			return out, i, err
		}
		out[i] = csd
	}
	return out, -1, nil
}

func mod12(x int) int {
	x %= 12
	if x < 0 {
		x += 12
	}
	return x
}

func notInScale(p pitch.Pitch, k model.Key) error {
	return fmt.Errorf("pitch %s is not in the scale of %s", p.Name(), k.String())
}
