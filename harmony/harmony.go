// Package harmony derives vertical sonorities and, from them, the
// per-measure local harmonic context. The "what's sounding at this
// instant" computation works directly from model.Event's
// [onset, onset+duration) intervals across a multi-part score.
package harmony

import (
	"sort"

	"github.com/snarrenberg/westerlines/model"
)

// ActiveEventAt returns the index of the event in p sounding at offset o
// (o within [onset, onset+duration)), or -1 if none.
func ActiveEventAt(p *model.Part, o model.Offset) int {
	for i, e := range p.Events {
		end := e.OnsetOffset.Add(e.Duration)
		if !o.Less(e.OnsetOffset) && o.Less(end) {
			return i
		}
	}
	return -1
}

// SonorityAt builds the vertical sonority sounding at offset o across
// all parts: the part->event mappings and the resulting pitch classes.
func SonorityAt(parts []*model.Part, o model.Offset) model.Sonority {
	s := model.Sonority{Offset: o, PartPitches: map[int]int{}, PitchClasses: map[int]bool{}}
	for _, p := range parts {
		idx := ActiveEventAt(p, o)
		s.PartPitches[p.Num] = idx
		if idx >= 0 {
			s.PitchClasses[p.Events[idx].Pitch.PitchClass()] = true
		}
	}
	return s
}

// QueryOffsets returns, for every measure index present in any part, the
// sorted, deduplicated onset offsets in that measure across all parts:
// the downbeat plus (for third species) every subdivision onset.
func QueryOffsets(parts []*model.Part) map[int][]model.Offset {
	byMeasure := map[int][]model.Offset{}
	for _, p := range parts {
		for _, e := range p.Events {
			byMeasure[e.MeasureIndex] = appendUnique(byMeasure[e.MeasureIndex], e.OnsetOffset)
		}
	}
	for m := range byMeasure {
		sort.Slice(byMeasure[m], func(i, j int) bool { return byMeasure[m][i].Less(byMeasure[m][j]) })
	}
	return byMeasure
}

func appendUnique(offsets []model.Offset, o model.Offset) []model.Offset {
	for _, existing := range offsets {
		if existing == o {
			return offsets
		}
	}
	return append(offsets, o)
}

// LocalHarmonies computes, for every measure, the active triad(s):
// first- through second- and fourth-species parts yield one harmony per
// measure (at the downbeat); third species
// yields one per subdivision onset. At each query point, if the
// sounding pitches form a consonant triad consistent with the key, that
// is the harmony; otherwise the closest triadic reading is approximated
// by also considering the immediately following sonority (a stepwise
// resolution to a consonance).
func LocalHarmonies(parts []*model.Part, key model.Key) map[int][]model.LocalHarmony {
	queryPoints := QueryOffsets(parts)
	measures := make([]int, 0, len(queryPoints))
	for m := range queryPoints {
		measures = append(measures, m)
	}
	sort.Ints(measures)

	third := false
	for _, p := range parts {
		if p.Species == model.ThirdSpecies {
			third = true
		}
	}

	out := map[int][]model.LocalHarmony{}
	for _, m := range measures {
		offsets := queryPoints[m]
		if !third && len(offsets) > 0 {
			offsets = offsets[:1]
		}
		for _, onset := range offsets {
			out[m] = append(out[m], harmonyAt(parts, key, onset))
		}
	}
	return out
}

func harmonyAt(parts []*model.Part, key model.Key, onset model.Offset) model.LocalHarmony {
	s := SonorityAt(parts, onset)
	lh := model.LocalHarmony{OnsetOffset: onset, PitchClasses: s.PitchClasses}
	if root, ok := triadicRoot(s.PitchClasses, key); ok {
		lh.RootPitchClass = root
		lh.IsTriadic = true
		return lh
	}
	if next := nextSonority(parts, onset); next != nil {
		if root, ok := triadicRoot(unionPitchClasses(s.PitchClasses, next.PitchClasses), key); ok {
			lh.RootPitchClass = root
			lh.IsTriadic = true
		}
	}
	return lh
}

func nextSonority(parts []*model.Part, after model.Offset) *model.Sonority {
	best := model.Offset{}
	found := false
	for _, p := range parts {
		for _, e := range p.Events {
			if after.Less(e.OnsetOffset) && (!found || e.OnsetOffset.Less(best)) {
				best = e.OnsetOffset
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	s := SonorityAt(parts, best)
	return &s
}

func unionPitchClasses(a, b map[int]bool) map[int]bool {
	out := map[int]bool{}
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// FromSpans builds the local harmonic context from caller-supplied
// harmonic spans (the harmonic-species override) instead of inferring it
// from vertical sonorities: every onset falls in the initial-tonic,
// predominant, dominant, or closing-tonic span and takes that span's
// triad. The dominant triad carries the raised leading tone in minor,
// the predominant (the supertonic triad) the lowered sixth degree.
func FromSpans(parts []*model.Part, key model.Key, spans model.HarmonicSpans) map[int][]model.LocalHarmony {
	out := map[int][]model.LocalHarmony{}
	for m, offsets := range QueryOffsets(parts) {
		for _, onset := range offsets {
			root, pcs := spanTriad(key, spans, onset.Float64())
			out[m] = append(out[m], model.LocalHarmony{
				OnsetOffset:    onset,
				RootPitchClass: root,
				PitchClasses:   pcs,
				IsTriadic:      true,
			})
		}
	}
	return out
}

func spanTriad(key model.Key, spans model.HarmonicSpans, offset float64) (int, map[int]bool) {
	tonic := key.Tonic.PitchClass()
	switch {
	case offset >= spans.OffsetClosingTonic:
		return tonic, triadSet(key.TriadPitchClasses())
	case offset >= spans.OffsetDominant:
		root := (tonic + 7) % 12
		return root, triadSet([3]int{root, (root + 4) % 12, (root + 7) % 12})
	case spans.OffsetPredominant != nil && offset >= *spans.OffsetPredominant:
		root := (tonic + 2) % 12
		fifth := 7
		if key.Mode == model.Minor {
			fifth = 6
		}
		return root, triadSet([3]int{root, (root + 3) % 12, (root + fifth) % 12})
	default:
		return tonic, triadSet(key.TriadPitchClasses())
	}
}

func triadSet(triad [3]int) map[int]bool {
	return map[int]bool{triad[0]: true, triad[1]: true, triad[2]: true}
}

var triadPatterns = []([3]int){{0, 4, 7}, {0, 3, 7}}

// triadicRoot reports whether pcs forms a consonant triad (major or
// minor, in root position or any inversion) consistent with key's scale,
// and if so, its root pitch class.
func triadicRoot(pcs map[int]bool, key model.Key) (int, bool) {
	if len(pcs) < 2 || len(pcs) > 3 {
		return 0, false
	}
	scale := key.ScalePitchClasses()
	for pc := range pcs {
		if !scale[pc] {
			return 0, false
		}
	}
	for candidateRoot := range pcs {
		for _, pattern := range triadPatterns {
			matches := true
			for pc := range pcs {
				if !inPattern(candidateRoot, pattern, pc) {
					matches = false
					break
				}
			}
			if matches {
				return candidateRoot, true
			}
		}
	}
	return 0, false
}

func inPattern(root int, pattern [3]int, pc int) bool {
	for _, d := range pattern {
		if (root+d)%12 == pc {
			return true
		}
	}
	return false
}
