package parser

import (
	"testing"

	"github.com/snarrenberg/westerlines/consecutions"
	"github.com/snarrenberg/westerlines/csd"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func buildPart(t *testing.T, names []string, key model.Key) *model.Part {
	events := make([]model.Event, len(names))
	for i, n := range names {
		p, err := pitch.Parse(n)
		if err != nil {
			t.Fatalf("parsing %q: %v", n, err)
		}
		c, err := csd.Map(p, key)
		if err != nil {
			t.Fatalf("mapping %q in %v: %v", n, key, err)
		}
		events[i] = model.Event{Index: i, Pitch: p, CSD: c, MeasureIndex: i}
	}
	consecutions.Annotate(events)
	return &model.Part{Events: events, Species: model.FirstSpecies}
}

func cMajor() model.Key {
	return model.Key{Tonic: pitch.Pitch{Letter: pitch.C, Octave: 4}, Mode: model.Major}
}

func dMinor() model.Key {
	return model.Key{Tonic: pitch.Pitch{Letter: pitch.D, Octave: 4}, Mode: model.Minor}
}

func TestOctaveDescentParsesAsPrimaryHeadedOnEight(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4"}, key)

	out, errs := Parse(part, key, model.Primary, nil)
	assert.Empty(t, errs)
	assert.NotEmpty(t, out)

	var octave *model.Interpretation
	for i := range out {
		if out[i].HeadDegree == 8 {
			octave = &out[i]
		}
	}
	if assert.NotNil(t, octave, "expected an interpretation headed on 8") {
		assert.Equal(t, model.RuleS1, octave.RuleLabels[0])
		assert.Equal(t, model.RuleS3, octave.RuleLabels[3], "structural dominant on G4")
		assert.Equal(t, model.RuleS4, octave.RuleLabels[5], "intermediate triad pitch on E4")
		assert.Equal(t, model.RuleS2, octave.RuleLabels[7])
		for _, idx := range []int{1, 2, 4, 6} {
			assert.Equal(t, model.RulePassing, octave.RuleLabels[idx])
		}
		assert.Equal(t, 0, octave.S1Index)
		assert.Equal(t, 3, octave.S3Index)
		assert.Equal(t, 7, octave.S2Index)
	}
}

// The Fux Dorian cantus firmus opens on the tonic, so the head of its
// primary-line reading falls mid-line, on the third degree.
func TestFuxCantusFirmusParsesAsPrimaryHeadedOnThree(t *testing.T) {
	key := dMinor()
	part := buildPart(t, []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}, key)

	out, errs := Parse(part, key, model.Primary, nil)
	assert.Empty(t, errs)
	assert.NotEmpty(t, out)

	s3Choices := map[int]bool{}
	for _, interp := range out {
		assert.Equal(t, 3, interp.HeadDegree)
		assert.Equal(t, model.RuleS1, interp.RuleLabels[interp.S1Index])
		assert.Equal(t, model.RuleS3, interp.RuleLabels[interp.S3Index])
		assert.Equal(t, model.RuleS2, interp.RuleLabels[9])
		s3Choices[interp.S3Index] = true
	}
	assert.True(t, len(s3Choices) > 1, "expected interpretations differing in the structural-dominant position")
}

func TestFuxCantusFirmusIsNotABassLine(t *testing.T) {
	key := dMinor()
	part := buildPart(t, []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}, key)

	out, errs := Parse(part, key, model.Bass, nil)
	assert.Empty(t, out)
	assert.NotEmpty(t, errs, "no fifth degree in the line, so no structural dominant")
}

func TestBassLineArpeggiatesToDominant(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4", "E4", "G4", "C4"}, key)

	out, errs := Parse(part, key, model.Bass, nil)
	assert.Empty(t, errs)
	assert.Len(t, out, 1)
	assert.Equal(t, model.RuleS1, out[0].RuleLabels[0])
	assert.Equal(t, model.RuleS3, out[0].RuleLabels[2])
	assert.Equal(t, model.RuleS2, out[0].RuleLabels[3])
	assert.Equal(t, model.RuleArpeggiation, out[0].RuleLabels[1])
}

func TestGenericLineWithNeighbor(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4", "D4", "C4"}, key)

	out, errs := Parse(part, key, model.Generic, nil)
	assert.Empty(t, errs)
	assert.Len(t, out, 1)
	assert.Equal(t, model.RuleNeighbor, out[0].RuleLabels[1])

	var neighborArcs int
	for _, a := range out[0].Arcs {
		if a.Rule == model.ArcNeighbor {
			neighborArcs++
			assert.Equal(t, []int{0, 1, 2}, a.Indices)
		}
	}
	assert.Equal(t, 1, neighborArcs)
}

func TestRepetitionBeforeStructuralToneIsAnAnticipation(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"E4", "D4", "C4", "C4"}, key)

	out, errs := Parse(part, key, model.Primary, nil)
	assert.Empty(t, errs)
	assert.NotEmpty(t, out)
	interp := out[0]
	assert.Equal(t, model.RuleS1, interp.RuleLabels[0])
	assert.Equal(t, model.RuleS3, interp.RuleLabels[1])
	assert.Equal(t, model.RuleAnticipation, interp.RuleLabels[2])
	assert.Equal(t, model.RuleS2, interp.RuleLabels[3])
}

// A consonant skip away from a nonharmonic neighbor figure is
// reattached as an insertion inside the enclosing arc, marked with
// parentheses.
func TestInterpolatedTriadPitchInsideNeighborArcIsAnInsertion(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4", "E4", "B3", "C4"}, key)

	out, errs := Parse(part, key, model.Generic, nil)
	assert.Empty(t, errs)
	assert.Len(t, out, 1)
	interp := out[0]
	assert.Equal(t, model.RuleInsertion, interp.RuleLabels[1])
	assert.True(t, interp.Parentheses[1])
	assert.Equal(t, model.RuleNeighbor, interp.RuleLabels[2])
}

func TestUnattachableNonTriadPitchReportsGenerationError(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4", "F4", "A4", "C5"}, key)

	out, errs := Parse(part, key, model.LineTypeAny, nil)
	assert.Empty(t, out)
	if assert.NotEmpty(t, errs) {
		assert.Equal(t, 1, errs[0].EventIndex)
		assert.Equal(t, "The non-tonic-triad pitch F4 in measure 1 cannot be generated.", errs[0].Message)
	}
}

func TestSingleEventPartHasNoInterpretation(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4"}, key)

	out, errs := Parse(part, key, model.LineTypeAny, nil)
	assert.Empty(t, out)
	assert.NotEmpty(t, errs)
}

func TestParseIsDeterministic(t *testing.T) {
	key := dMinor()
	names := []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}

	first, _ := Parse(buildPart(t, names, key), key, model.LineTypeAny, nil)
	second, _ := Parse(buildPart(t, names, key), key, model.LineTypeAny, nil)
	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, interpSignature(first[i]), interpSignature(second[i]))
	}
}

func TestEveryEventCarriesExactlyOneLabel(t *testing.T) {
	key := dMinor()
	part := buildPart(t, []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}, key)

	out, _ := Parse(part, key, model.LineTypeAny, nil)
	assert.NotEmpty(t, out)
	for _, interp := range out {
		for i := range part.Events {
			label, ok := interp.RuleLabels[i]
			assert.True(t, ok, "event %d has no rule label", i)
			assert.NotEqual(t, model.RuleNone, label)
		}
	}
}

func TestArcsFormANonCrossingForest(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4"}, key)

	out, _ := Parse(part, key, model.LineTypeAny, nil)
	assert.NotEmpty(t, out)
	for _, interp := range out {
		arcs := interp.Arcs
		for i := 0; i < len(arcs); i++ {
			for j := i + 1; j < len(arcs); j++ {
				if arcs[i].Dashed || arcs[j].Dashed {
					continue
				}
				assert.False(t, arcs[i].Crosses(arcs[j]),
					"arcs %v and %v cross", arcs[i].Indices, arcs[j].Indices)
			}
		}
	}
}

// Reversing a bass line's events does not smuggle in a primary-line
// reading: the reversed line still lacks a descending step path.
func TestReversedBassLineIsNotAPrimaryLine(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"C4", "G3", "C4"}, key)
	reversed := buildPart(t, []string{"C4", "G3", "C4"}, key)

	bassOut, _ := Parse(part, key, model.Bass, nil)
	assert.NotEmpty(t, bassOut)

	primaryOut, errs := Parse(reversed, key, model.Primary, nil)
	assert.Empty(t, primaryOut)
	assert.NotEmpty(t, errs)
}

func TestFifthDescentHeadedOnFive(t *testing.T) {
	key := cMajor()
	part := buildPart(t, []string{"G4", "A4", "G4", "F4", "E4", "D4", "C4"}, key)

	out, errs := Parse(part, key, model.Primary, nil)
	assert.Empty(t, errs)
	assert.NotEmpty(t, out)
	interp := out[0]
	assert.Equal(t, 5, interp.HeadDegree)
	assert.Equal(t, model.RuleS1, interp.RuleLabels[0])
	assert.Equal(t, model.RuleNeighbor, interp.RuleLabels[1])
	assert.Equal(t, model.RuleS3, interp.RuleLabels[5], "structural dominant support on the penultimate second degree")
	assert.Equal(t, model.RuleS2, interp.RuleLabels[6])
}
