package evaluate

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func octaveDescent(t *testing.T) []*model.Part {
	names := []string{"C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4"}
	events := make([]model.Event, len(names))
	for i, n := range names {
		p, err := pitch.Parse(n)
		if err != nil {
			t.Fatalf("parsing %q: %v", n, err)
		}
		events[i] = model.Event{
			Index:        i,
			Pitch:        p,
			OnsetOffset:  model.NewOffset(int64(i*4), 1),
			Duration:     model.NewOffset(4, 1),
			MeasureIndex: i,
		}
	}
	return []*model.Part{{Num: 0, Events: events}}
}

func TestLinesCacheHitSkipsReparse(t *testing.T) {
	dir := t.TempDir()

	g1, err := Lines(octaveDescent(t), Options{CacheDir: dir})
	assert.NoError(t, err)
	first := g1.Parts[0]
	assert.NotEmpty(t, first.Interpretations)
	assert.Empty(t, first.CachedCounts, "a miss parses and stores, it does not read")

	g2, err := Lines(octaveDescent(t), Options{CacheDir: dir})
	assert.NoError(t, err)
	second := g2.Parts[0]
	assert.Empty(t, second.Interpretations, "a hit skips the parser entirely")
	assert.Equal(t, len(first.Interpretations[model.Primary]), second.CachedCounts[model.Primary])
	assert.Equal(t, len(first.Interpretations[model.Bass]), second.CachedCounts[model.Bass])
	assert.Equal(t, len(first.Interpretations[model.Generic]), second.CachedCounts[model.Generic])
}

func TestLinesRestrictedRequestBypassesCache(t *testing.T) {
	dir := t.TempDir()

	_, err := Lines(octaveDescent(t), Options{CacheDir: dir})
	assert.NoError(t, err)

	// A single-line-type request cannot be answered by the cached
	// full-outcome record, so it parses as usual.
	g, err := Lines(octaveDescent(t), Options{CacheDir: dir, PartLineType: model.Primary})
	assert.NoError(t, err)
	assert.NotEmpty(t, g.Parts[0].Interpretations[model.Primary])
	assert.Empty(t, g.Parts[0].CachedCounts)
}

func TestLinesWithoutCacheDirNeverTouchesCacheState(t *testing.T) {
	g, err := Lines(octaveDescent(t), Options{})
	assert.NoError(t, err)
	assert.NotEmpty(t, g.Parts[0].Interpretations)
	assert.Empty(t, g.Parts[0].CachedCounts)
}
