package csd

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, name string) pitch.Pitch {
	p, err := pitch.Parse(name)
	if err != nil {
		t.Fatalf("parsing %q: %v", name, err)
	}
	return p
}

func TestMapCMajor(t *testing.T) {
	assert := assert.New(t)
	k := model.Key{Tonic: mustParse(t, "C4"), Mode: model.Major}

	tonic, err := Map(mustParse(t, "C4"), k)
	assert.NoError(err)
	assert.Equal(0, tonic.Value)
	assert.Equal(1, tonic.Degree())

	leadingTone, err := Map(mustParse(t, "B3"), k)
	assert.NoError(err)
	assert.Equal(-1, leadingTone.Value)

	octave, err := Map(mustParse(t, "C5"), k)
	assert.NoError(err)
	assert.Equal(7, octave.Value)

	_, err = Map(mustParse(t, "C#4"), k)
	assert.Error(err)
}

func TestMapMinorSixSevenDirection(t *testing.T) {
	assert := assert.New(t)
	k := model.Key{Tonic: mustParse(t, "D4"), Mode: model.Minor}

	// D minor: natural minor 6 = Bb, raised (melodic) 6 = B.
	lowered6, err := Map(mustParse(t, "B-4"), k)
	assert.NoError(err)
	assert.Equal(model.DirectionDescending, lowered6.Direction)

	raised6, err := Map(mustParse(t, "B4"), k)
	assert.NoError(err)
	assert.Equal(model.DirectionAscending, raised6.Direction)

	// degree 3 (F) is unambiguous.
	third, err := Map(mustParse(t, "F4"), k)
	assert.NoError(err)
	assert.Equal(model.DirectionNone, third.Direction)

	_, err = Map(mustParse(t, "B#4"), k)
	assert.Error(err)
}
