package harmony

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func ev(name string, measure int, onset model.Offset) model.Event {
	p, err := pitch.Parse(name)
	if err != nil {
		panic(err)
	}
	return model.Event{Pitch: p, MeasureIndex: measure, OnsetOffset: onset, Duration: model.NewOffset(4, 1)}
}

func TestLocalHarmoniesTriadAtDownbeat(t *testing.T) {
	cf := &model.Part{Num: 0, Species: model.FirstSpecies, Events: []model.Event{
		ev("D4", 0, model.NewOffset(0, 1)),
		ev("F4", 1, model.NewOffset(4, 1)),
	}}
	cp := &model.Part{Num: 1, Species: model.FirstSpecies, Events: []model.Event{
		ev("F4", 0, model.NewOffset(0, 1)),
		ev("A4", 1, model.NewOffset(4, 1)),
	}}
	key := model.Key{Tonic: pitch.Pitch{Letter: 'D', Octave: 4}, Mode: model.Minor}

	lh := LocalHarmonies([]*model.Part{cf, cp}, key)
	assert.Len(t, lh[0], 1)
	assert.True(t, lh[0][0].IsTriadic)
	assert.Equal(t, pitch.Pitch{Letter: 'D', Octave: 4}.PitchClass(), lh[0][0].RootPitchClass)
}

func TestFromSpansAssignsSpanTriads(t *testing.T) {
	cp := &model.Part{Num: 0, Species: model.ThirdSpecies, Events: []model.Event{
		ev("C4", 0, model.NewOffset(0, 1)),
		ev("D4", 1, model.NewOffset(4, 1)),
		ev("G4", 2, model.NewOffset(8, 1)),
		ev("C4", 3, model.NewOffset(12, 1)),
	}}
	key := model.Key{Tonic: pitch.Pitch{Letter: 'C', Octave: 4}, Mode: model.Major}
	pre := 4.0
	spans := model.HarmonicSpans{
		OffsetPredominant:  &pre,
		OffsetDominant:     8.0,
		OffsetClosingTonic: 12.0,
	}

	lh := FromSpans([]*model.Part{cp}, key, spans)

	assert.Equal(t, 0, lh[0][0].RootPitchClass, "initial tonic span")
	assert.Equal(t, 2, lh[1][0].RootPitchClass, "predominant span is the supertonic triad")
	assert.Equal(t, 7, lh[2][0].RootPitchClass, "dominant span")
	assert.Equal(t, 0, lh[3][0].RootPitchClass, "closing tonic span")
	for _, hs := range lh {
		assert.True(t, hs[0].IsTriadic)
	}
}

func TestLocalHarmoniesThirdSpeciesMultiplePerMeasure(t *testing.T) {
	cf := &model.Part{Num: 0, Species: model.FirstSpecies, Events: []model.Event{
		ev("D4", 0, model.NewOffset(0, 1)),
	}}
	cp := &model.Part{Num: 1, Species: model.ThirdSpecies, Events: []model.Event{
		ev("D5", 0, model.NewOffset(0, 1)),
		ev("F5", 0, model.NewOffset(1, 1)),
		ev("A5", 0, model.NewOffset(2, 1)),
		ev("D5", 0, model.NewOffset(3, 1)),
	}}
	key := model.Key{Tonic: pitch.Pitch{Letter: 'D', Octave: 4}, Mode: model.Minor}

	lh := LocalHarmonies([]*model.Part{cf, cp}, key)
	assert.Len(t, lh[0], 4)
}
