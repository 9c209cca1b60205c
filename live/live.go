// Package live implements real-time MIDI-input feedback: incoming
// note-on/note-off messages accumulate into a single-part performance
// buffer and, after a quiet period, re-run the same line-parsing
// pipeline evaluate-lines uses, so a performer gets "is this still a
// generable line?" feedback as they play.
package live

import (
	"fmt"
	"time"

	"github.com/bep/debounce"
	"github.com/snarrenberg/westerlines/evaluate"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// Feedback is one update delivered to a Listener's callback after the
// debounce window elapses.
type Feedback struct {
	Context *model.GlobalContext
	Err     error
}

// Listener owns an open MIDI input port and the growing performance
// buffer fed from it.
type Listener struct {
	opts     evaluate.Options
	events   []model.Event
	debounce func(func())
	onUpdate func(Feedback)
}

// New opens MIDI input port index portNum and returns a Listener that
// calls onUpdate, debounced by window, every time the captured line
// changes and re-evaluation completes.
func New(portNum int, window time.Duration, opts evaluate.Options, onUpdate func(Feedback)) (*Listener, func(), error) {
	in, err := midi.InPort(portNum)
	if err != nil {
		return nil, nil, fmt.Errorf("live: opening MIDI input %d: %w", portNum, err)
	}

	l := &Listener{
		opts:     opts,
		debounce: debounce.New(window),
		onUpdate: onUpdate,
	}

	stop, err := midi.ListenTo(in, l.handle)
	if err != nil {
		return nil, nil, fmt.Errorf("live: listening: %w", err)
	}
	return l, stop, nil
}

func (l *Listener) handle(msg midi.Message, timestampms int32) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		// Each captured note is its own measure: a live performance has
		// no barlines, and one note per measure reads as first species.
		l.events = append(l.events, model.Event{
			Index:        len(l.events),
			Pitch:        pitchFromMIDI(int(key)),
			OnsetOffset:  model.NewOffset(int64(len(l.events)), 1),
			Duration:     model.NewOffset(1, 1),
			MeasureIndex: len(l.events),
		})
		l.debounce(l.reevaluate)
	case msg.GetNoteEnd(&ch, &key):
		// note-off carries no line-construction information on its own;
		// the note was already captured on its note-on.
	default:
	}
}

func (l *Listener) reevaluate() {
	part := &model.Part{Num: 0, Events: append([]model.Event(nil), l.events...)}
	g, err := evaluate.Lines([]*model.Part{part}, l.opts)
	l.onUpdate(Feedback{Context: g, Err: err})
}

// pitchFromMIDI respells a MIDI key number using sharps only.
// Scale-degree mapping and step/skip judgments read letter names, so a
// pitch that the key spells with a flat is captured as its sharp
// spelling and is reported as not in the scale.
func pitchFromMIDI(key int) pitch.Pitch {
	names := []struct {
		letter pitch.Letter
		acc    int
	}{
		{pitch.C, 0}, {pitch.C, 1}, {pitch.D, 0}, {pitch.D, 1}, {pitch.E, 0},
		{pitch.F, 0}, {pitch.F, 1}, {pitch.G, 0}, {pitch.G, 1}, {pitch.A, 0},
		{pitch.A, 1}, {pitch.B, 0},
	}
	octave := key/12 - 1
	n := names[key%12]
	return pitch.Pitch{Letter: n.letter, Accidental: n.acc, Octave: octave}
}
