package cache

import (
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func sigFor(t *testing.T, names []string) string {
	key := model.Key{Tonic: pitch.Pitch{Letter: pitch.C, Octave: 4}, Mode: model.Major}
	var events []model.Event
	for _, n := range names {
		p, err := pitch.Parse(n)
		if err != nil {
			t.Fatalf("parsing %q: %v", n, err)
		}
		events = append(events, model.Event{Pitch: p})
	}
	return Signature(events, key)
}

func TestSignatureIsOrderSensitive(t *testing.T) {
	a := sigFor(t, []string{"C4", "E4", "G4"})
	b := sigFor(t, []string{"G4", "E4", "C4"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, sigFor(t, []string{"C4", "E4", "G4"}))
}

func TestPutThenGetFromBucket(t *testing.T) {
	dir := t.TempDir()
	sig := sigFor(t, []string{"C4", "D4", "C4"})
	counts := map[model.LineType]int{model.Primary: 2, model.Generic: 1}

	assert.NoError(t, Put(dir, sig, counts))

	rec, ok := Get(dir, sig)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), rec.Primary)
	assert.Equal(t, uint32(0), rec.Bass)
	assert.Equal(t, uint32(1), rec.Generic)
	assert.True(t, rec.Generable)
	assert.Equal(t, counts[model.Primary], rec.Counts()[model.Primary])
}

func TestGetMissesUnknownSignature(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, Put(dir, sigFor(t, []string{"C4", "C4"}), map[model.LineType]int{model.Generic: 1}))

	_, ok := Get(dir, sigFor(t, []string{"E4", "E4"}))
	assert.False(t, ok)
}

func TestCompactThenGetFromChunk(t *testing.T) {
	dir := t.TempDir()
	sigA := sigFor(t, []string{"C4", "D4", "E4", "D4", "C4"})
	sigB := sigFor(t, []string{"C4", "G3", "C4"})

	assert.NoError(t, Put(dir, sigA, map[model.LineType]int{model.Primary: 1, model.Generic: 1}))
	assert.NoError(t, Put(dir, sigB, map[model.LineType]int{model.Bass: 1, model.Generic: 1}))

	overviews, err := Compact(dir)
	assert.NoError(t, err)
	assert.NotEmpty(t, overviews)

	// Buckets are gone after compaction; the hit must come from a chunk.
	rec, ok := Get(dir, sigA)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), rec.Primary)
	assert.True(t, rec.Generable)

	rec, ok = Get(dir, sigB)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), rec.Bass)
}

func TestLatestBucketRecordWins(t *testing.T) {
	dir := t.TempDir()
	sig := sigFor(t, []string{"G4", "F4", "E4", "D4", "C4"})

	assert.NoError(t, Put(dir, sig, map[model.LineType]int{model.Primary: 1}))
	assert.NoError(t, Put(dir, sig, map[model.LineType]int{model.Primary: 3}))

	rec, ok := Get(dir, sig)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), rec.Primary)
}

func TestDeleteAllRemovesBuckets(t *testing.T) {
	dir := t.TempDir()
	sig := sigFor(t, []string{"C4", "C4"})
	assert.NoError(t, Put(dir, sig, map[model.LineType]int{model.Generic: 1}))
	assert.NoError(t, DeleteAll(dir))

	_, ok := Get(dir, sig)
	assert.False(t, ok)
}
