// Package consecutions computes the melodic-motion classification for
// every event in a part: a note's left/right interval type and
// direction, derived from its immediate neighbors.
package consecutions

import "github.com/snarrenberg/westerlines/model"

// Annotate fills in the Consecutions field of every event in events,
// in place. "Step" is judged generically, by the letter (diatonic)
// distance between neighboring pitches rather than by raw interval
// quality; the events' CSD values are not read.
func Annotate(events []model.Event) {
	for i := range events {
		var left, right *model.Event
		if i > 0 {
			left = &events[i-1]
		}
		if i < len(events)-1 {
			right = &events[i+1]
		}
		events[i].Consecutions = classify(left, &events[i], right)
	}
}

func classify(left, target, right *model.Event) model.Consecutions {
	var c model.Consecutions
	if left != nil {
		c.LeftType, c.LeftDirection = motion(left, target)
	}
	if right != nil {
		c.RightType, c.RightDirection = motion(target, right)
	}
	return c
}

// motion classifies the motion from a to b using letter-diatonic step
// distance: zero steps is "same," one step (up or down) is "step,"
// anything else is "skip." This mirrors consecutions.py's
// isDiatonicStep/P1 test but operates on the pitch directly rather than
// on a music21 Interval object.
func motion(a, b *model.Event) (model.ConsecutionType, model.MotionDirection) {
	if a.Pitch.IsUnison(b.Pitch) {
		return model.Same, model.DirNone
	}
	steps := a.Pitch.DiatonicStepsTo(b.Pitch)
	dir := model.Up
	if steps < 0 {
		dir = model.Down
	}
	if steps == 1 || steps == -1 {
		return model.Step, dir
	}
	return model.Skip, dir
}
