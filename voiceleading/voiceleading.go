// Package voiceleading implements the Voice-Leading Checker: a purely
// diagnostic walk over aligned part streams that never modifies its
// input. Every adjacent pair of parts is walked computing a
// vertical-linear quartet (the two onset intervals plus the melodic
// motion each voice took to get there), which is tested against the
// forbidden-motion and dissonance rules.
package voiceleading

import (
	"fmt"

	"github.com/snarrenberg/westerlines/harmony"
	"github.com/snarrenberg/westerlines/model"
)

var perfectIntervals = map[int]bool{0: true, 7: true}
var consonantIntervals = map[int]bool{0: true, 3: true, 4: true, 7: true, 8: true, 9: true}

// quartet is the vertical-linear quartet: the harmonic intervals formed
// at two successive onsets between a pair of parts, plus how each voice
// moved between them.
type quartet struct {
	upperFrom, upperTo model.Event
	lowerFrom, lowerTo model.Event
}

func (q quartet) intervalFrom() int { return q.lowerFrom.Pitch.SemitonesTo(q.upperFrom.Pitch) }
func (q quartet) intervalTo() int   { return q.lowerTo.Pitch.SemitonesTo(q.upperTo.Pitch) }

func (q quartet) upperMotion() (steps int) { return q.upperFrom.Pitch.DiatonicStepsTo(q.upperTo.Pitch) }
func (q quartet) lowerMotion() (steps int) { return q.lowerFrom.Pitch.DiatonicStepsTo(q.lowerTo.Pitch) }

func sameDirection(a, b int) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// Check walks every adjacent pair of parts (top to bottom, registral
// ordering) plus, for dissonance and leap rules, every part on its own,
// and returns every violation found. Parts must already carry CSDs,
// consecutions, and rule labels from context.Build and parser.Parse.
func Check(ctx *model.GlobalContext) []model.Violation {
	var out []model.Violation
	for i := 0; i+1 < len(ctx.Parts); i++ {
		out = append(out, checkPair(ctx.Parts[i], ctx.Parts[i+1])...)
	}
	for _, p := range ctx.Parts {
		out = append(out, checkDissonanceTreatment(ctx, p)...)
		out = append(out, checkDisallowedLeaps(p)...)
		out = append(out, checkSpeciesRhythm(ctx, p)...)
	}
	return out
}

// checkPair walks one adjacent pair of parts for crossing, overlap, and
// forbidden motion into perfect intervals: upper is the higher part,
// lower the lower part.
func checkPair(upper, lower *model.Part) []model.Violation {
	var out []model.Violation
	n := len(upper.Events)
	if len(lower.Events) < n {
		n = len(lower.Events)
	}
	for i := 0; i < n; i++ {
		u, l := upper.Events[i], lower.Events[i]
		if u.Pitch.SemitonesTo(l.Pitch) > 0 {
			out = append(out, model.Violation{
				Kind:      model.VoiceCrossing,
				Measures:  []int{u.MeasureIndex},
				PartNums:  []int{upper.Num, lower.Num},
				EventIdxs: map[int]int{upper.Num: i, lower.Num: i},
				Message:   fmt.Sprintf("upper part %s sounds below lower part %s at event %d", upper.Name, lower.Name, i),
			})
		}
	}

	for i := 0; i+1 < n; i++ {
		q := quartet{upperFrom: upper.Events[i], upperTo: upper.Events[i+1], lowerFrom: lower.Events[i], lowerTo: lower.Events[i+1]}
		out = append(out, checkQuartet(upper, lower, i, q)...)
	}
	return out
}

func checkQuartet(upper, lower *model.Part, i int, q quartet) []model.Violation {
	var out []model.Violation
	um, lm := q.upperMotion(), q.lowerMotion()
	intFrom, intTo := mod12(q.intervalFrom()), mod12(q.intervalTo())

	// overlap: the lower voice rises above where the upper voice just was,
	// or the upper voice falls below where the lower voice just was.
	if q.lowerTo.Pitch.SemitonesTo(q.upperFrom.Pitch) < 0 || q.upperTo.Pitch.SemitonesTo(q.lowerFrom.Pitch) > 0 {
		out = append(out, model.Violation{
			Kind:      model.VoiceOverlap,
			Measures:  []int{q.upperTo.MeasureIndex},
			PartNums:  []int{upper.Num, lower.Num},
			EventIdxs: map[int]int{upper.Num: i + 1, lower.Num: i + 1},
			Message:   fmt.Sprintf("voice overlap between %s and %s at event %d", upper.Name, lower.Name, i+1),
		})
	}

	if perfectIntervals[intFrom] && perfectIntervals[intTo] && um != 0 && lm != 0 {
		if sameDirection(um, lm) {
			if intFrom == intTo {
				out = append(out, model.Violation{
					Kind:      model.ParallelPerfect,
					Measures:  []int{q.upperTo.MeasureIndex},
					PartNums:  []int{upper.Num, lower.Num},
					EventIdxs: map[int]int{upper.Num: i + 1, lower.Num: i + 1},
					Message:   fmt.Sprintf("parallel %s between %s and %s at event %d", intervalName(intTo), upper.Name, lower.Name, i+1),
				})
			}
		}
	} else if !perfectIntervals[intFrom] && perfectIntervals[intTo] && sameDirection(um, lm) {
		leap := absInt(um) > 1 || absInt(lm) > 1
		if leap {
			out = append(out, model.Violation{
				Kind:      model.HiddenPerfect,
				Measures:  []int{q.upperTo.MeasureIndex},
				PartNums:  []int{upper.Num, lower.Num},
				EventIdxs: map[int]int{upper.Num: i + 1, lower.Num: i + 1},
				Message:   fmt.Sprintf("hidden %s approached by similar motion with a leap at event %d", intervalName(intTo), i+1),
			})
		}
	}

	// Cross relation: a chromatic inflection of one scale degree split
	// diagonally between the two voices. Exempt when the inflecting
	// voice is in second species and moves by step (ITT, p. 115).
	if isCrossRelationPair(q.upperFrom, q.lowerTo) || isCrossRelationPair(q.lowerFrom, q.upperTo) {
		upperSteps := upper.Species == model.SecondSpecies && absInt(um) == 1
		lowerSteps := lower.Species == model.SecondSpecies && absInt(lm) == 1
		if !upperSteps && !lowerSteps {
			out = append(out, model.Violation{
				Kind:      model.CrossRelation,
				Measures:  []int{q.upperFrom.MeasureIndex, q.upperTo.MeasureIndex},
				PartNums:  []int{upper.Num, lower.Num},
				EventIdxs: map[int]int{upper.Num: i + 1, lower.Num: i + 1},
				Message:   fmt.Sprintf("cross relation between %s and %s going into event %d", upper.Name, lower.Name, i+1),
			})
		}
	}
	return out
}

// isCrossRelationPair reports whether b restates a's letter degree a
// chromatic semitone away (an augmented or diminished unison at any
// octave).
func isCrossRelationPair(a, b model.Event) bool {
	steps := a.Pitch.DiatonicStepsTo(b.Pitch)
	if steps%7 != 0 {
		return false
	}
	chromatic := a.Pitch.SemitonesTo(b.Pitch) - 12*(steps/7)
	return chromatic == 1 || chromatic == -1
}

func mod12(x int) int {
	x %= 12
	if x < 0 {
		x += 12
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func intervalName(semitones int) string {
	switch semitones {
	case 0:
		return "unison/octave"
	case 7:
		return "fifth"
	default:
		return fmt.Sprintf("%d semitones", semitones)
	}
}

// checkDissonanceTreatment implements dissonance rule: any
// vertical interval outside {P1, m3, M3, P5, m6, M6, P8} against another
// sounding part must be explained by a recognized non-harmonic rule
// label (a note already licensed as passing, neighbor, or similar is
// trusted) and must resolve by step; an unexplained dissonant note that
// does not step away is flagged.
func checkDissonanceTreatment(ctx *model.GlobalContext, p *model.Part) []model.Violation {
	var out []model.Violation
	for i, e := range p.Events {
		if e.RuleLabel != model.RuleUnexplained {
			continue
		}
		if !isDissonantAgainstOthers(ctx, p, e) {
			continue
		}
		if e.Consecutions.RightType != model.Step && i != len(p.Events)-1 {
			out = append(out, model.Violation{
				Kind:      model.UnresolvedDissonance,
				Measures:  []int{e.MeasureIndex},
				PartNums:  []int{p.Num},
				EventIdxs: map[int]int{p.Num: i},
				Message:   fmt.Sprintf("event %d in %s is dissonant, unexplained, and does not resolve by step", i, p.Name),
			})
		}
	}
	return out
}

func isDissonantAgainstOthers(ctx *model.GlobalContext, p *model.Part, e model.Event) bool {
	for _, other := range ctx.Parts {
		if other.Num == p.Num {
			continue
		}
		idx := harmony.ActiveEventAt(other, e.OnsetOffset)
		if idx < 0 {
			continue
		}
		interval := mod12(absInt(e.Pitch.SemitonesTo(other.Events[idx].Pitch)))
		if !consonantIntervals[interval] {
			return true
		}
	}
	return false
}

// checkDisallowedLeaps flags leaps of a seventh or larger (the octave
// excepted) and any augmented or diminished second, third, fourth or
// fifth.
func checkDisallowedLeaps(p *model.Part) []model.Violation {
	var out []model.Violation
	for i := 0; i+1 < len(p.Events); i++ {
		a, b := p.Events[i], p.Events[i+1]
		steps := absInt(a.Pitch.DiatonicStepsTo(b.Pitch))
		semis := absInt(a.Pitch.SemitonesTo(b.Pitch))
		if steps == 6 || steps >= 8 {
			out = append(out, model.Violation{
				Kind:      model.DisallowedLeap,
				Measures:  []int{b.MeasureIndex},
				PartNums:  []int{p.Num},
				EventIdxs: map[int]int{p.Num: i + 1},
				Message:   fmt.Sprintf("leap of a seventh or larger in %s from event %d to %d", p.Name, i, i+1),
			})
			continue
		}
		if steps > 0 && steps <= 4 && isAugmentedOrDiminished(steps, semis) {
			out = append(out, model.Violation{
				Kind:      model.DisallowedLeap,
				Measures:  []int{b.MeasureIndex},
				PartNums:  []int{p.Num},
				EventIdxs: map[int]int{p.Num: i + 1},
				Message:   fmt.Sprintf("augmented or diminished leap in %s from event %d to %d", p.Name, i, i+1),
			})
		}
	}
	return out
}

var genericSemitones = map[int][]int{0: {0}, 1: {1, 2}, 2: {3, 4}, 3: {5}, 4: {7}}

func isAugmentedOrDiminished(genericSteps, semitones int) bool {
	sizes, ok := genericSemitones[genericSteps]
	if !ok {
		return false
	}
	for _, s := range sizes {
		if semitones == s {
			return false
		}
	}
	return true
}

// checkSpeciesRhythm implements species-specific
// constraints: second species requires consonance on strong beats;
// fourth species requires the preparation-suspension-resolution
// pattern. First/third/fifth species carry no extra rhythmic
// constraint beyond what the parser and dissonance check already
// enforce.
func checkSpeciesRhythm(ctx *model.GlobalContext, p *model.Part) []model.Violation {
	var out []model.Violation
	switch p.Species {
	case model.SecondSpecies:
		lastMeasure := -1
		for i, e := range p.Events {
			downbeat := e.MeasureIndex != lastMeasure
			lastMeasure = e.MeasureIndex
			if downbeat && isDissonantAgainstOthers(ctx, p, e) {
				out = append(out, model.Violation{
					Kind:      model.SpeciesRhythm,
					Measures:  []int{e.MeasureIndex},
					PartNums:  []int{p.Num},
					EventIdxs: map[int]int{p.Num: i},
					Message:   fmt.Sprintf("second-species strong beat at event %d is not consonant", i),
				})
			}
		}
	case model.FourthSpecies:
		// Preparation is the tied attack, the suspension its held
		// continuation on the next strong beat, and the resolution the
		// event after that, which must descend by step.
		for i, e := range p.Events {
			if !e.TiedToNext || i+2 >= len(p.Events) {
				continue
			}
			res := p.Events[i+2]
			if res.Consecutions.LeftType != model.Step || res.Consecutions.LeftDirection != model.Down {
				out = append(out, model.Violation{
					Kind:      model.SpeciesRhythm,
					Measures:  []int{res.MeasureIndex},
					PartNums:  []int{p.Num},
					EventIdxs: map[int]int{p.Num: i + 2},
					Message:   fmt.Sprintf("suspension at event %d does not resolve down by step", i+1),
				})
			}
		}
	}
	return out
}
