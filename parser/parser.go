// Package parser implements the Line Parser: a transition-based search
// engine that enumerates the syntactic derivations of a line as a
// primary, bass, or generic closed tonal line and labels every event
// with the construction rule that explains it.
//
// The parse proceeds in two stages. The preliminary scanner consumes
// events left to right, maintaining open heads, open transitions, and
// closed arcs, forking the whole state wherever more than one
// attachment rule applies and pruning branches whose pending
// transitions become unresolvable. The second stage then searches each
// surviving state for basic structures of the requested line type:
// every candidate head and every stepwise descent to the final tonic
// yields its own interpretation, and all are retained.
package parser

import (
	"sort"
	"strconv"

	"github.com/snarrenberg/westerlines/constants"
	"github.com/snarrenberg/westerlines/model"
)

// Parse runs the parser for one requested line type, or for all three if
// lineType is model.LineTypeAny. It returns every surviving
// interpretation, ordered deterministically. When the requested line
// type(s) admit no interpretation at all, it returns the aggregated
// diagnostics, one per event index, describing the shallowest failure.
func Parse(part *model.Part, key model.Key, lineType model.LineType, harmonies map[int][]model.LocalHarmony) ([]model.Interpretation, []model.ParseError) {
	events := part.Events
	if len(events) < 2 {
		return nil, []model.ParseError{{EventIndex: 0, Message: "a line requires at least the two events of a basic arc"}}
	}
	for i, e := range events {
		if !e.CSD.Valid() {
			return nil, []model.ParseError{{EventIndex: i, Message: "event has no concrete scale degree"}}
		}
	}

	m := &machine{events: events, harmonic: harmonicTest(part, key, harmonies)}
	states, dead := m.preParse(attackIndices(events), constants.MaxBranches)

	requested := []model.LineType{lineType}
	if lineType == model.LineTypeAny {
		requested = []model.LineType{model.Primary, model.Bass, model.Generic}
	}

	var all []model.Interpretation
	var buildErrs []model.ParseError
	for _, lt := range requested {
		for _, s := range states {
			ints, errs := buildStructures(s, events, key, lt)
			all = append(all, ints...)
			buildErrs = append(buildErrs, errs...)
		}
	}

	if part.Species == model.ThirdSpecies || part.Species == model.FifthSpecies {
		all = filterByLocalHarmony(all, events, harmonies)
	}
	all = canonicalize(all)

	if len(all) == 0 {
		errs := aggregateErrors(append(dead, buildErrs...))
		if len(errs) == 0 {
			// Every structural reading was vetoed by the local harmonic
			// context (third-species refinement).
			errs = []model.ParseError{{EventIndex: 0, Message: "No interpretation satisfies the local harmonic context."}}
		}
		return nil, errs
	}
	return all, nil
}

// attackIndices filters out tied continuations, so the scanner visits
// only attacks: an event is a continuation when its predecessor is tied
// to it at the same pitch.
func attackIndices(events []model.Event) []int {
	var out []int
	for i := range events {
		if i > 0 && events[i-1].TiedToNext && events[i-1].Pitch.IsUnison(events[i].Pitch) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// harmonicTest builds the machine's harmonic-membership predicate. The
// global referent is the tonic triad; in third and fifth species a pitch
// consonant with its measure's local harmony also counts.
func harmonicTest(part *model.Part, key model.Key, harmonies map[int][]model.LocalHarmony) func(model.Event) bool {
	triadic := part.Species == model.ThirdSpecies || part.Species == model.FifthSpecies
	return func(e model.Event) bool {
		if isTriadMember(e, key) {
			return true
		}
		if !triadic {
			return false
		}
		for _, lh := range harmonies[e.MeasureIndex] {
			if lh.IsTriadic && lh.PitchClasses[e.Pitch.PitchClass()] {
				return true
			}
		}
		return false
	}
}

func buildStructures(s *parseState, events []model.Event, key model.Key, lt model.LineType) ([]model.Interpretation, []model.ParseError) {
	switch lt {
	case model.Primary:
		return buildPrimary(s, events, key)
	case model.Bass:
		return buildBass(s, events, key)
	case model.Generic:
		return buildGeneric(s, events, key)
	default:
		return nil, nil
	}
}

// headDegree renders a primary head's degree relative to the final
// tonic's octave: the fifth above reads as 5, the octave as 8.
func headDegree(headVal, finalVal int) int {
	switch headVal - finalVal {
	case 1:
		return 2
	case 2:
		return 3
	case 4:
		return 5
	case 7:
		return 8
	default:
		return 0
	}
}

// interiorArc returns the arc that holds idx as a dependent interior
// event, or nil.
func interiorArc(arcs []model.Arc, idx int) *model.Arc {
	for k := range arcs {
		for _, i := range arcs[k].Interior() {
			if i == idx {
				return &arcs[k]
			}
		}
	}
	return nil
}

// buildPrimary searches one pre-parse state for primary basic arcs: a
// head on 2, 3, 5, or 8 above the final tonic, a stepwise descent to the
// final, and a structural dominant. Every head candidate and every
// descent yields a distinct interpretation; all are retained.
func buildPrimary(s *parseState, events []model.Event, key model.Key) ([]model.Interpretation, []model.ParseError) {
	final := len(events) - 1
	if events[final].CSD.Residue() != 0 {
		return nil, []model.ParseError{{EventIndex: final, Message: "A primary line must end on the tonic degree."}}
	}
	t := events[final].CSD.Value

	headVals := map[int]bool{t + 1: true, t + 2: true, t + 4: true, t + 7: true}
	var heads []int
	for _, h := range s.openHeads {
		if h < final && headVals[events[h].CSD.Value] {
			heads = append(heads, h)
		}
	}
	if len(heads) == 0 {
		return nil, []model.ParseError{{EventIndex: 0, Message: "No candidate for the head of a primary line detected."}}
	}

	var out []model.Interpretation
	for _, h := range heads {
		for _, chain := range descentChains(s, events, h, final) {
			kept, ok := dissolveAbsorbed(s.arcs, chain, events, key, h, final)
			if !ok {
				continue
			}
			for _, s3 := range primaryS3Candidates(events, kept, chain, t, final) {
				structural := map[int]model.RuleLabel{
					h:     model.RuleS1,
					final: model.RuleS2,
					s3:    model.RuleS3,
				}
				for _, idx := range chain[1 : len(chain)-1] {
					if idx == s3 {
						continue
					}
					// In a full-octave descent the intermediate triad
					// pitch on the third degree is itself structural.
					if events[h].CSD.Value == t+7 && events[idx].CSD.Value == t+2 {
						structural[idx] = model.RuleS4
						continue
					}
					structural[idx] = model.RulePassing
				}
				labels, parens, arcs := assembleLabels(events, kept, structural)
				basic := model.Arc{Indices: append([]int(nil), chain...), Rule: model.ArcBasicPrimary}
				out = append(out, model.Interpretation{
					LineType:    model.Primary,
					Arcs:        append([]model.Arc{basic}, arcs...),
					RuleLabels:  labels,
					Parentheses: parens,
					S1Index:     h,
					S2Index:     final,
					S3Index:     s3,
					S3Final:     final,
					HeadDegree:  headDegree(events[h].CSD.Value, t),
				})
			}
		}
	}
	if len(out) == 0 {
		return nil, []model.ParseError{{EventIndex: final, Message: "No structural-dominant candidate admits a stepwise descent to the final tonic."}}
	}
	return out, nil
}

// descentChains enumerates every strictly descending by-step index chain
// from head h to the final event: one event per scale-degree value from
// the head's value down to the final's, each later in the line than its
// predecessor. A chain member interior to an existing arc is allowed
// only if that arc nests inside the basic arc's span, where it can be
// absorbed.
func descentChains(s *parseState, events []model.Event, h, final int) [][]int {
	headVal, finalVal := events[h].CSD.Value, events[final].CSD.Value
	var out [][]int
	var walk func(chain []int, prev, need int)
	walk = func(chain []int, prev, need int) {
		if len(out) >= constants.MaxBranches {
			return
		}
		if need == finalVal {
			full := append(append([]int(nil), chain...), final)
			out = append(out, full)
			return
		}
		for idx := prev + 1; idx < final; idx++ {
			if events[idx].CSD.Value != need {
				continue
			}
			if a := interiorArc(s.arcs, idx); a != nil {
				if a.Left() < h || a.Right() > final {
					continue
				}
			}
			walk(append(chain, idx), idx, need-1)
		}
	}
	walk([]int{h}, h, headVal-1)
	return out
}

// dissolveAbsorbed removes arcs whose interior members the basic
// descent reuses, verifying that every remaining member of a dissolved
// arc is harmonic (it will be relabeled as an arpeggiation or
// repetition). It also rejects the candidate when a surviving arc would
// cross the basic arc's left boundary.
func dissolveAbsorbed(arcs []model.Arc, chain []int, events []model.Event, key model.Key, h, final int) ([]model.Arc, bool) {
	onChain := map[int]bool{}
	for _, i := range chain {
		onChain[i] = true
	}
	var kept []model.Arc
	for _, a := range arcs {
		absorbed := false
		for _, i := range a.Interior() {
			if onChain[i] {
				absorbed = true
				break
			}
		}
		if !absorbed {
			if a.Left() < h && a.Right() > h {
				return nil, false
			}
			kept = append(kept, a)
			continue
		}
		for _, memb := range a.Indices {
			if !onChain[memb] && !isTriadMember(events[memb], key) {
				return nil, false
			}
		}
	}
	return kept, true
}

// primaryS3Candidates locates the structural dominant for a descent. A
// line headed on the upper octave passes through the fifth degree on its
// way down, and that event is the dominant. A line headed on the third
// or fifth degree closes through the second degree, whose dominant
// support makes the penultimate chain event the candidate. A line headed
// on the second degree needs a separate, uncovered fifth-degree event
// before the final tonic; each such event yields its own interpretation.
func primaryS3Candidates(events []model.Event, arcs []model.Arc, chain []int, t, final int) []int {
	head := chain[0]
	headVal := events[head].CSD.Value

	if headVal == t+7 {
		for _, idx := range chain[1 : len(chain)-1] {
			if events[idx].CSD.Value == t+4 {
				return []int{idx}
			}
		}
		return nil
	}
	if headVal == t+2 || headVal == t+4 {
		pen := chain[len(chain)-2]
		if pen != head && events[pen].CSD.Value == t+1 {
			return []int{pen}
		}
		return nil
	}
	// Head on the second degree: the head itself is the penultimate, so
	// the dominant must be stated elsewhere.
	var out []int
	for idx := 0; idx < final; idx++ {
		if idx != head && events[idx].CSD.Residue() == 4 && interiorArc(arcs, idx) == nil {
			out = append(out, idx)
		}
	}
	return out
}

// buildBass searches one pre-parse state for bass basic arcs: tonic
// endpoints and a structural dominant the line arpeggiates to, one
// interpretation per candidate.
func buildBass(s *parseState, events []model.Event, key model.Key) ([]model.Interpretation, []model.ParseError) {
	final := len(events) - 1
	var errs []model.ParseError
	if events[0].CSD.Residue() != 0 {
		errs = append(errs, model.ParseError{EventIndex: 0, Message: "A bass line must begin on the tonic degree."})
	}
	if events[final].CSD.Residue() != 0 {
		errs = append(errs, model.ParseError{EventIndex: final, Message: "A bass line must end on the tonic degree."})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var cands []int
	for idx := 1; idx < final; idx++ {
		if events[idx].CSD.Residue() == 4 && interiorArc(s.arcs, idx) == nil {
			cands = append(cands, idx)
		}
	}
	if len(cands) == 0 {
		return nil, []model.ParseError{{EventIndex: final, Message: "No candidate for the structural dominant detected."}}
	}

	var out []model.Interpretation
	for _, s3 := range cands {
		structural := map[int]model.RuleLabel{
			0:     model.RuleS1,
			s3:    model.RuleS3,
			final: model.RuleS2,
		}
		labels, parens, arcs := assembleLabels(events, s.arcs, structural)
		basic := model.Arc{Indices: []int{0, s3, final}, Rule: model.ArcBasicBass}
		out = append(out, model.Interpretation{
			LineType:    model.Bass,
			Arcs:        append([]model.Arc{basic}, arcs...),
			RuleLabels:  labels,
			Parentheses: parens,
			S1Index:     0,
			S2Index:     final,
			S3Index:     s3,
			S3Final:     final,
			HeadDegree:  1,
		})
	}
	return out, nil
}

// buildGeneric accepts any line bounded by tonic-triad pitches; no
// structural dominant is required.
func buildGeneric(s *parseState, events []model.Event, key model.Key) ([]model.Interpretation, []model.ParseError) {
	final := len(events) - 1
	if !isTriadMember(events[0], key) || !isTriadMember(events[final], key) {
		idx := 0
		if isTriadMember(events[0], key) {
			idx = final
		}
		return nil, []model.ParseError{{EventIndex: idx, Message: "The line is not bounded by tonic-triad pitches and hence not a valid tonic line."}}
	}

	structural := map[int]model.RuleLabel{0: model.RuleS1, final: model.RuleS2}
	labels, parens, arcs := assembleLabels(events, s.arcs, structural)
	basic := model.Arc{Indices: []int{0, final}, Rule: model.ArcBasicGeneric}
	return []model.Interpretation{{
		LineType:    model.Generic,
		Arcs:        append([]model.Arc{basic}, arcs...),
		RuleLabels:  labels,
		Parentheses: parens,
		S1Index:     -1,
		S2Index:     -1,
		S3Index:     -1,
		S3Final:     -1,
	}}, nil
}

// filterByLocalHarmony implements the third-species refinement: an event
// off the downbeat must either take part in a passing or neighbor arc or
// be consonant with its measure's triad.
func filterByLocalHarmony(ints []model.Interpretation, events []model.Event, harmonies map[int][]model.LocalHarmony) []model.Interpretation {
	var out []model.Interpretation
	for _, interp := range ints {
		if localHarmonyOK(interp, events, harmonies) {
			out = append(out, interp)
		}
	}
	return out
}

func localHarmonyOK(interp model.Interpretation, events []model.Event, harmonies map[int][]model.LocalHarmony) bool {
	for i, e := range events {
		lhs := harmonies[e.MeasureIndex]
		if len(lhs) == 0 {
			continue
		}
		var nearest model.LocalHarmony
		found := false
		for _, lh := range lhs {
			if !found || !e.OnsetOffset.Less(lh.OnsetOffset) {
				nearest = lh
				found = true
			}
		}
		if !found || !nearest.IsTriadic {
			continue
		}
		if nearest.PitchClasses[e.Pitch.PitchClass()] {
			continue
		}
		switch interp.RuleLabels[i] {
		case model.RulePassing, model.RuleNeighbor, model.RuleRepetition, model.RuleInsertion:
		default:
			return false
		}
	}
	return true
}

// canonicalize coalesces duplicate interpretations from different
// branches and imposes the deterministic output order: line type, head
// position, structural-dominant position, then arc-set signature.
func canonicalize(ints []model.Interpretation) []model.Interpretation {
	seen := map[string]bool{}
	var out []model.Interpretation
	for _, i := range ints {
		i.Arcs = model.SortedArcs(i.Arcs)
		sig := interpSignature(i)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, i)
	}
	sort.SliceStable(out, func(a, b int) bool {
		x, y := out[a], out[b]
		if x.LineType != y.LineType {
			return x.LineType < y.LineType
		}
		if x.S1Index != y.S1Index {
			return x.S1Index < y.S1Index
		}
		if x.S3Index != y.S3Index {
			return x.S3Index < y.S3Index
		}
		return interpSignature(x) < interpSignature(y)
	})
	return out
}

func interpSignature(i model.Interpretation) string {
	keys := make([]int, 0, len(i.RuleLabels))
	for k := range i.RuleLabels {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	sig := i.LineType.String() + "|"
	for _, k := range keys {
		sig += string(i.RuleLabels[k]) + ","
	}
	sig += "|"
	for _, a := range i.Arcs {
		sig += arcSig(a)
	}
	return sig
}

func arcSig(a model.Arc) string {
	s := "["
	for _, i := range a.Indices {
		s += strconv.Itoa(i) + " "
	}
	return s + strconv.Itoa(int(a.Rule)) + "]"
}

// aggregateErrors reduces the failures collected from dead branches to a
// single diagnostic per event index (the shallowest failure recorded
// there), ordered by position.
func aggregateErrors(errs []model.ParseError) []model.ParseError {
	byIndex := map[int]string{}
	for _, e := range errs {
		if _, ok := byIndex[e.EventIndex]; !ok {
			byIndex[e.EventIndex] = e.Message
		}
	}
	keys := make([]int, 0, len(byIndex))
	for k := range byIndex {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]model.ParseError, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.ParseError{EventIndex: k, Message: byIndex[k]})
	}
	return out
}
