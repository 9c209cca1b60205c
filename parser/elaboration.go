package parser

import "github.com/snarrenberg/westerlines/model"

// Interval predicates over events with assigned concrete scale degrees.

func isTriadMember(e model.Event, key model.Key) bool {
	triad := key.TriadPitchClasses()
	pc := e.Pitch.PitchClass()
	return pc == triad[0] || pc == triad[1] || pc == triad[2]
}

// isLinearConsonance accepts thirds, perfect fourths and fifths, sixths,
// and octaves, judged by letter distance plus chromatic size.
func isLinearConsonance(a, b model.Event) bool {
	steps := a.Pitch.DiatonicStepsTo(b.Pitch)
	semis := a.Pitch.SemitonesTo(b.Pitch)
	if steps < 0 {
		steps = -steps
	}
	if semis < 0 {
		semis = -semis
	}
	switch steps {
	case 2:
		return semis == 3 || semis == 4 // m3, M3
	case 3:
		return semis == 5 // P4
	case 4:
		return semis == 7 // P5
	case 5:
		return semis == 8 || semis == 9 // m6, M6
	case 7:
		return semis == 12 // P8
	default:
		return false
	}
}

// isSemiSimple rejects leaps wider than an octave.
func isSemiSimple(a, b model.Event) bool {
	steps := a.Pitch.DiatonicStepsTo(b.Pitch)
	if steps < 0 {
		steps = -steps
	}
	return steps <= 7
}

func isDiatonicStepPair(a, b model.Event) bool {
	return a.Pitch.IsDiatonicStep(b.Pitch)
}

// isDirectedStep reports whether b resolves a by step in a direction a's
// scale degree permits: a raised 6th or 7th degree must continue upward,
// a lowered one downward.
func isDirectedStep(a, b model.Event) bool {
	if !isDiatonicStepPair(a, b) {
		return false
	}
	up := b.CSD.Value > a.CSD.Value
	switch a.CSD.Direction {
	case model.DirectionAscending:
		return up
	case model.DirectionDescending:
		return !up
	default:
		return true
	}
}

// assembleLabels turns one pre-parse state's arcs plus a basic-arc
// skeleton into the per-event rule labels and parenthesis marks of an
// interpretation. Every event receives exactly one label:
//
//   - skeleton events carry the structural labels the caller stamped;
//   - arc interiors carry the label of their arc's rule;
//   - the right endpoint of a repetition arc carries the repetition
//     label, unless it is itself structural, in which case the LEFT
//     event is an anticipation of the structural pitch;
//   - harmonic events inside another arc's span that belong to no arc
//     are insertions, marked with parentheses;
//   - remaining unattached harmonic events reached by skip are
//     arpeggiations, by repetition are repetitions, and an unattached
//     event restating a structural scale degree in another octave is a
//     register transfer, bound by a dashed arc.
func assembleLabels(events []model.Event, arcs []model.Arc, structural map[int]model.RuleLabel) (map[int]model.RuleLabel, map[int]bool, []model.Arc) {
	labels := map[int]model.RuleLabel{}
	parens := map[int]bool{}
	outArcs := append([]model.Arc(nil), arcs...)

	for i, l := range structural {
		labels[i] = l
	}

	for _, a := range arcs {
		switch a.Rule {
		case model.ArcRepetition:
			left, right := a.Left(), a.Right()
			if _, structuralRight := labels[right]; structuralRight {
				if _, ok := labels[left]; !ok {
					labels[left] = model.RuleAnticipation
				}
			} else if _, ok := labels[right]; !ok {
				labels[right] = model.RuleRepetition
			}
		case model.ArcNeighbor:
			for _, i := range a.Interior() {
				if _, ok := labels[i]; !ok {
					labels[i] = model.RuleNeighbor
				}
			}
		case model.ArcPassing:
			for _, i := range a.Interior() {
				if _, ok := labels[i]; !ok {
					labels[i] = model.RulePassing
				}
			}
		}
	}

	// Insertions: events spanned by an arc but not members of it.
	for _, a := range arcs {
		members := map[int]bool{}
		for _, i := range a.Indices {
			members[i] = true
		}
		for i := a.Left() + 1; i < a.Right(); i++ {
			if members[i] {
				continue
			}
			if _, ok := labels[i]; ok {
				continue
			}
			labels[i] = model.RuleInsertion
			parens[i] = true
		}
	}

	// Remaining unattached events.
	for i := range events {
		if _, ok := labels[i]; ok {
			continue
		}
		if target, octaves := transferTarget(events, structural, i); octaves {
			labels[i] = model.RuleTransfer
			lo, hi := i, target
			if hi < lo {
				lo, hi = hi, lo
			}
			outArcs = append(outArcs, model.Arc{Indices: []int{lo, hi}, Rule: model.ArcTransfer, Dashed: true})
			continue
		}
		if events[i].Consecutions.LeftType == model.Same {
			labels[i] = model.RuleRepetition
			continue
		}
		labels[i] = model.RuleArpeggiation
	}
	return labels, parens, outArcs
}

// transferTarget looks for a structural event sharing i's scale-degree
// residue in a different octave, scanning in event order so the bound
// arc is deterministic.
func transferTarget(events []model.Event, structural map[int]model.RuleLabel, i int) (int, bool) {
	for j := range events {
		if j == i {
			continue
		}
		if _, ok := structural[j]; !ok {
			continue
		}
		if events[j].CSD.SameResidue(events[i].CSD) && events[j].CSD.Value != events[i].CSD.Value {
			return j, true
		}
	}
	return -1, false
}
