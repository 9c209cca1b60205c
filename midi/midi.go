// Package midi is a second Score Import Loader, reading a Standard MIDI
// File and converting each track into a model.Part: read the file,
// decode it behind a panic-recovery guard (the decoder panics on some
// malformed inputs), then reduce each track's note-on/note-off stream
// to a monophonic melodic line.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadFile reads filepath as a Standard MIDI File, guarding the decode
// with recover so a malformed file surfaces as an error.
func ReadFile(filepath string) (s *smf.SMF, e error) {
	var blank smf.SMF
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &blank, fmt.Errorf("midi: reading %s: %w", filepath, err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return &blank, fmt.Errorf("midi: parsing %s: %w", filepath, err)
	}
	return res, nil
}

// sharpNames spells every chromatic pitch class with sharps. The
// spelling is not only cosmetic: csd.Map and the step/skip judgments
// read letter names, so a pitch that the key spells with a flat (Bb in
// F major) is imported as its sharp spelling (A#) and is reported as
// not in the scale.
var sharpNames = [12]struct {
	letter pitch.Letter
	acc    int
}{
	{pitch.C, 0}, {pitch.C, 1}, {pitch.D, 0}, {pitch.D, 1}, {pitch.E, 0}, {pitch.F, 0},
	{pitch.F, 1}, {pitch.G, 0}, {pitch.G, 1}, {pitch.A, 0}, {pitch.A, 1}, {pitch.B, 0},
}

func fromMIDINumber(n uint8) pitch.Pitch {
	octave := int(n)/12 - 1
	pc := int(n) % 12
	spelling := sharpNames[pc]
	return pitch.Pitch{Letter: spelling.letter, Accidental: spelling.acc, Octave: octave}
}

type noteSpan struct {
	key        uint8
	startTicks int64
	endTicks   int64
}

// LoadFile reads a Standard MIDI File and converts each track carrying
// note events into a model.Part, ordered top to bottom by the track's
// average pitch (highest first).
func LoadFile(filepath string) ([]*model.Part, error) {
	mf, err := ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	ticksPerQuarter, ok := ticksPerQuarterNote(mf)
	if !ok {
		return nil, fmt.Errorf("midi: %s does not use metric (quarter-note) timing", filepath)
	}

	var parts []*model.Part
	for _, track := range mf.Tracks {
		spans := trackNoteSpans(track)
		if len(spans) == 0 {
			continue
		}
		parts = append(parts, &model.Part{Events: spansToEvents(spans, ticksPerQuarter)})
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return averagePitch(parts[i]) > averagePitch(parts[j])
	})
	for i, p := range parts {
		p.Num = i
	}
	return parts, nil
}

func ticksPerQuarterNote(mf *smf.SMF) (int64, bool) {
	mt, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return 0, false
	}
	return int64(mt.Ticks4th()), true
}

func trackNoteSpans(track smf.Track) []noteSpan {
	var spans []noteSpan
	open := map[uint8]int64{}
	var absTicks int64
	for _, evt := range track {
		absTicks += int64(evt.Delta)
		var channel, key, velocity uint8
		switch {
		case evt.Message.GetNoteOn(&channel, &key, &velocity):
			open[key] = absTicks
		case evt.Message.GetNoteOff(&channel, &key, &velocity):
			if start, ok := open[key]; ok {
				spans = append(spans, noteSpan{key: key, startTicks: start, endTicks: absTicks})
				delete(open, key)
			}
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].startTicks < spans[j].startTicks })
	return spans
}

func spansToEvents(spans []noteSpan, ticksPerQuarter int64) []model.Event {
	events := make([]model.Event, len(spans))
	for i, s := range spans {
		onset := model.NewOffset(s.startTicks, ticksPerQuarter)
		duration := model.NewOffset(s.endTicks-s.startTicks, ticksPerQuarter)
		measure := int(s.startTicks / (ticksPerQuarter * 4))
		events[i] = model.Event{
			Index:        i,
			Pitch:        fromMIDINumber(s.key),
			OnsetOffset:  onset,
			Duration:     duration,
			MeasureIndex: measure,
			TiedToNext:   i+1 < len(spans) && spans[i+1].startTicks == s.endTicks && spans[i+1].key == s.key,
		}
	}
	return events
}

func averagePitch(p *model.Part) float64 {
	if len(p.Events) == 0 {
		return 0
	}
	total := 0
	for _, e := range p.Events {
		total += e.Pitch.MIDI()
	}
	return float64(total) / float64(len(p.Events))
}
