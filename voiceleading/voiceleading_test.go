package voiceleading

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func mkEvent(t *testing.T, name string, measure int) model.Event {
	p, err := pitch.Parse(name)
	if err != nil {
		t.Fatalf("parsing %q: %v", name, err)
	}
	return model.Event{Pitch: p, MeasureIndex: measure, OnsetOffset: model.NewOffset(int64(measure), 1), Duration: model.NewOffset(1, 1)}
}

func TestCheckFlagsParallelFifths(t *testing.T) {
	upper := &model.Part{Num: 0, Name: "upper", Events: []model.Event{
		mkEvent(t, "D4", 0), mkEvent(t, "E4", 1),
	}}
	lower := &model.Part{Num: 1, Name: "lower", Events: []model.Event{
		mkEvent(t, "G3", 0), mkEvent(t, "A3", 1),
	}}
	ctx := &model.GlobalContext{Parts: []*model.Part{upper, lower}}

	violations := Check(ctx)
	found := false
	for _, v := range violations {
		if v.Kind == model.ParallelPerfect {
			found = true
		}
	}
	assert.True(t, found, "expected a parallel perfect finding")
}

func TestCompoundLeapsFlaggedButOctaveAllowed(t *testing.T) {
	flag := func(a, b string) bool {
		p := &model.Part{Num: 0, Name: "line", Events: []model.Event{
			mkEvent(t, a, 0), mkEvent(t, b, 1),
		}}
		ctx := &model.GlobalContext{Parts: []*model.Part{p}}
		for _, v := range Check(ctx) {
			if v.Kind == model.DisallowedLeap {
				return true
			}
		}
		return false
	}

	assert.True(t, flag("C4", "B4"), "seventh")
	assert.True(t, flag("C4", "D5"), "ninth")
	assert.True(t, flag("C4", "E5"), "tenth")
	assert.False(t, flag("C4", "C5"), "octave is permitted")
	assert.False(t, flag("C4", "A4"), "sixth is permitted")
}

func TestCheckFlagsCrossRelation(t *testing.T) {
	upper := &model.Part{Num: 0, Name: "upper", Events: []model.Event{
		mkEvent(t, "F5", 0), mkEvent(t, "E5", 1),
	}}
	lower := &model.Part{Num: 1, Name: "lower", Events: []model.Event{
		mkEvent(t, "A3", 0), mkEvent(t, "F#3", 1),
	}}
	ctx := &model.GlobalContext{Parts: []*model.Part{upper, lower}}

	violations := Check(ctx)
	found := false
	for _, v := range violations {
		if v.Kind == model.CrossRelation {
			found = true
		}
	}
	assert.True(t, found, "expected a cross-relation finding")
}

func TestFourthSpeciesSuspensionMustResolveDownByStep(t *testing.T) {
	// D4 prepared, held over the bar, then leaving by leap instead of
	// descending to C4.
	events := []model.Event{
		mkEvent(t, "D4", 0), mkEvent(t, "D4", 1), mkEvent(t, "F4", 1),
	}
	events[0].TiedToNext = true
	events[2].Consecutions = model.Consecutions{LeftType: model.Skip, LeftDirection: model.Up}
	p := &model.Part{Num: 0, Name: "syncopated", Species: model.FourthSpecies, Events: events}
	ctx := &model.GlobalContext{Parts: []*model.Part{p}}

	violations := Check(ctx)
	found := false
	for _, v := range violations {
		if v.Kind == model.SpeciesRhythm {
			found = true
		}
	}
	assert.True(t, found, "expected a suspension-resolution finding")
}

func TestFourthSpeciesProperSuspensionIsClean(t *testing.T) {
	events := []model.Event{
		mkEvent(t, "D4", 0), mkEvent(t, "D4", 1), mkEvent(t, "C4", 1),
	}
	events[0].TiedToNext = true
	events[2].Consecutions = model.Consecutions{LeftType: model.Step, LeftDirection: model.Down}
	p := &model.Part{Num: 0, Name: "syncopated", Species: model.FourthSpecies, Events: events}
	ctx := &model.GlobalContext{Parts: []*model.Part{p}}

	for _, v := range Check(ctx) {
		assert.NotEqual(t, model.SpeciesRhythm, v.Kind)
	}
}

func TestCheckFlagsVoiceCrossing(t *testing.T) {
	upper := &model.Part{Num: 0, Name: "upper", Events: []model.Event{
		mkEvent(t, "C3", 0),
	}}
	lower := &model.Part{Num: 1, Name: "lower", Events: []model.Event{
		mkEvent(t, "C4", 0),
	}}
	ctx := &model.GlobalContext{Parts: []*model.Part{upper, lower}}

	violations := Check(ctx)
	found := false
	for _, v := range violations {
		if v.Kind == model.VoiceCrossing {
			found = true
		}
	}
	assert.True(t, found, "expected a voice-crossing finding")
}
