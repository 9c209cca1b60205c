package keyfinder

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func partFromNames(t *testing.T, names []string, species model.Species) *model.Part {
	p := &model.Part{Species: species}
	for i, n := range names {
		pp, err := pitch.Parse(n)
		if err != nil {
			t.Fatalf("parsing %q: %v", n, err)
		}
		p.Events = append(p.Events, model.Event{Index: i, Pitch: pp})
	}
	annotateConsecutions(p)
	return p
}

// annotateConsecutions avoids importing the consecutions package from
// this package's tests to keep the dependency graph one-directional in
// the test; it duplicates just enough logic for the skip/step judgments
// candidatesFromScale needs.
func annotateConsecutions(p *model.Part) {
	for i := range p.Events {
		if i == len(p.Events)-1 {
			continue
		}
		a, b := p.Events[i].Pitch, p.Events[i+1].Pitch
		steps := a.DiatonicStepsTo(b)
		t := model.Skip
		if a.IsUnison(b) {
			t = model.Same
		} else if steps == 1 || steps == -1 {
			t = model.Step
		}
		p.Events[i].Consecutions.RightType = t
	}
}

func TestInferFuxDorianCantusFirmus(t *testing.T) {
	// D E F D E F G F E D, in D minor (Fux's first cantus firmus).
	part := partFromNames(t, []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}, model.FirstSpecies)
	k, err := Infer([]*model.Part{part})
	assert.NoError(t, err)
	assert.Equal(t, pitch.Letter('D'), k.Tonic.Letter)
	assert.Equal(t, model.Minor, k.Mode)
}

func TestInferCMajorScale(t *testing.T) {
	part := partFromNames(t, []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"}, model.FirstSpecies)
	k, err := Infer([]*model.Part{part})
	assert.NoError(t, err)
	assert.Equal(t, pitch.Letter('C'), k.Tonic.Letter)
	assert.Equal(t, model.Major, k.Mode)
}

func TestValidateRejectsNonScalePitch(t *testing.T) {
	part := partFromNames(t, []string{"C4", "D4", "E4", "F#4", "G4"}, model.FirstSpecies)
	k := model.Key{Tonic: pitch.Pitch{Letter: 'C', Octave: 4}, Mode: model.Major}
	err := Validate([]*model.Part{part}, k)
	assert.Error(t, err)
}
