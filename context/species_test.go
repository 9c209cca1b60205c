package context

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func eventAt(measure int, onset model.Offset, tied bool) model.Event {
	return model.Event{
		Pitch:        pitch.Pitch{Letter: pitch.C, Octave: 4},
		MeasureIndex: measure,
		OnsetOffset:  onset,
		Duration:     model.NewOffset(2, 1),
		TiedToNext:   tied,
	}
}

func TestDetectFirstSpecies(t *testing.T) {
	p := &model.Part{Events: []model.Event{
		eventAt(0, model.NewOffset(0, 1), false),
		eventAt(1, model.NewOffset(4, 1), false),
		eventAt(2, model.NewOffset(8, 1), false),
	}}
	assert.Equal(t, model.FirstSpecies, DetectSpecies(p))
}

func TestDetectSecondSpecies(t *testing.T) {
	p := &model.Part{Events: []model.Event{
		eventAt(0, model.NewOffset(0, 1), false),
		eventAt(0, model.NewOffset(2, 1), false),
		eventAt(1, model.NewOffset(4, 1), false),
		eventAt(1, model.NewOffset(6, 1), false),
	}}
	assert.Equal(t, model.SecondSpecies, DetectSpecies(p))
}

func TestDetectFourthSpeciesFromSyncopatedTies(t *testing.T) {
	p := &model.Part{Events: []model.Event{
		eventAt(0, model.NewOffset(0, 1), false),
		eventAt(0, model.NewOffset(2, 1), true),
		eventAt(1, model.NewOffset(4, 1), false),
		eventAt(1, model.NewOffset(6, 1), true),
		eventAt(2, model.NewOffset(8, 1), false),
		eventAt(2, model.NewOffset(10, 1), false),
	}}
	assert.Equal(t, model.FourthSpecies, DetectSpecies(p))
}

func TestDetectThirdSpecies(t *testing.T) {
	var events []model.Event
	for m := 0; m < 2; m++ {
		for q := 0; q < 4; q++ {
			events = append(events, eventAt(m, model.NewOffset(int64(m*4+q), 1), false))
		}
	}
	p := &model.Part{Events: events}
	assert.Equal(t, model.ThirdSpecies, DetectSpecies(p))
}

func TestDetectFifthSpeciesFromMixedRhythm(t *testing.T) {
	p := &model.Part{Events: []model.Event{
		eventAt(0, model.NewOffset(0, 1), false),
		eventAt(1, model.NewOffset(4, 1), false),
		eventAt(1, model.NewOffset(6, 1), false),
		eventAt(1, model.NewOffset(7, 1), false),
	}}
	assert.Equal(t, model.FifthSpecies, DetectSpecies(p))
}
