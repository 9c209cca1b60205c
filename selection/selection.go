// Package selection implements the Parse-Selection Layer:
// once every part has been parsed independently, this package filters
// the cross-product of interpretations down to the combinations that
// satisfy the multi-part preference rules, without ever inventing an
// interpretation that parser.Parse did not already produce.
package selection

import (
	"github.com/snarrenberg/westerlines/model"
)

// PartResult pairs a part with the interpretations the parser found for
// it, grouped by line type, matching model.Part.Interpretations.
type PartResult struct {
	Part            *model.Part
	Interpretations map[model.LineType][]model.Interpretation
}

// Combination is one selected reading across all parts: one
// interpretation per part, indexed in the same order as the input.
type Combination struct {
	PartInterpretations []model.Interpretation
}

// distance returns the absolute offset, in event indices, between a
// primary interpretation's S2 (the final, tonic-bearing event) and a
// bass interpretation's S3Index, the alignment measure for the
// two-part case.
func distance(primary, bass model.Interpretation) int {
	d := primary.S2Index - bass.S3Index
	if d < 0 {
		return -d
	}
	return d
}

// Select applies preference rules to a set of per-part
// results and returns the surviving combinations.
func Select(results []PartResult) []Combination {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return passthrough(results[0])
	case 2:
		return selectTwoPart(results[0], results[1])
	default:
		return selectMultiPart(results)
	}
}

func passthrough(r PartResult) []Combination {
	var out []Combination
	for _, ints := range r.Interpretations {
		for _, i := range ints {
			out = append(out, Combination{PartInterpretations: []model.Interpretation{i}})
		}
	}
	return out
}

// selectTwoPart implements the two-part case literally: every
// compatible (primary, bass) pair is scored by distance; only the
// minimum-distance pairs (ties kept) survive. If either part has no
// primary/bass interpretations at all, every combination of whatever
// line types it does have is kept (the distance rule only applies when
// both a primary and a bass reading exist to align).
func selectTwoPart(a, b PartResult) []Combination {
	primariesA, bassesA := a.Interpretations[model.Primary], a.Interpretations[model.Bass]
	primariesB, bassesB := b.Interpretations[model.Primary], b.Interpretations[model.Bass]

	var pairs []Combination
	var distances []int
	consider := func(primary, bass model.Interpretation) {
		pairs = append(pairs, Combination{PartInterpretations: []model.Interpretation{primary, bass}})
		distances = append(distances, distance(primary, bass))
	}
	for _, p := range primariesA {
		for _, bs := range bassesB {
			consider(p, bs)
		}
	}
	for _, p := range primariesB {
		for _, bs := range bassesA {
			consider(p, bs)
		}
	}

	if len(pairs) == 0 {
		return everyCombination(a, b)
	}

	min := distances[0]
	for _, d := range distances {
		if d < min {
			min = d
		}
	}
	var out []Combination
	for i, d := range distances {
		if d == min {
			out = append(out, pairs[i])
		}
	}
	return out
}

func everyCombination(a, b PartResult) []Combination {
	var out []Combination
	for _, intsA := range a.Interpretations {
		for _, ia := range intsA {
			for _, intsB := range b.Interpretations {
				for _, ib := range intsB {
					out = append(out, Combination{PartInterpretations: []model.Interpretation{ia, ib}})
				}
			}
		}
	}
	return out
}

// selectMultiPart implements three-(or-more)-part case:
// require at least one upper line (every part but the last) be primary;
// among combinations satisfying that, prefer S3 alignment between the
// chosen primary and the bass (the last part), analogously to the
// two-part rule.
func selectMultiPart(results []PartResult) []Combination {
	if len(results) == 0 {
		return nil
	}
	bass := results[len(results)-1]
	upper := results[:len(results)-1]

	var withPrimary []Combination
	var distances []int
	var anyPrimary bool
	for _, bs := range bass.Interpretations[model.Bass] {
		combo := buildUpperCombos(upper, bs, &anyPrimary)
		for _, c := range combo {
			withPrimary = append(withPrimary, c.combo)
			distances = append(distances, c.dist)
		}
	}
	if !anyPrimary || len(withPrimary) == 0 {
		return everyCombinationN(results)
	}

	min := distances[0]
	for _, d := range distances {
		if d < min {
			min = d
		}
	}
	var out []Combination
	for i, d := range distances {
		if d == min {
			out = append(out, withPrimary[i])
		}
	}
	return out
}

type scoredCombo struct {
	combo Combination
	dist  int
}

func buildUpperCombos(upper []PartResult, bass model.Interpretation, anyPrimary *bool) []scoredCombo {
	if len(upper) == 0 {
		return nil
	}
	var out []scoredCombo
	for partIdx, pr := range upper {
		for _, primary := range pr.Interpretations[model.Primary] {
			*anyPrimary = true
			interps := make([]model.Interpretation, len(upper)+1)
			for i, other := range upper {
				if i == partIdx {
					interps[i] = primary
					continue
				}
				interps[i] = firstOf(other)
			}
			interps[len(upper)] = bass
			out = append(out, scoredCombo{
				combo: Combination{PartInterpretations: interps},
				dist:  distance(primary, bass),
			})
		}
	}
	return out
}

func firstOf(r PartResult) model.Interpretation {
	for _, ints := range r.Interpretations {
		if len(ints) > 0 {
			return ints[0]
		}
	}
	return model.Interpretation{LineType: model.LineTypeAny}
}

func everyCombinationN(results []PartResult) []Combination {
	combos := []Combination{{}}
	for _, r := range results {
		var next []Combination
		var all []model.Interpretation
		for _, ints := range r.Interpretations {
			all = append(all, ints...)
		}
		if len(all) == 0 {
			all = []model.Interpretation{{LineType: model.LineTypeAny}}
		}
		for _, c := range combos {
			for _, i := range all {
				next = append(next, Combination{PartInterpretations: append(append([]model.Interpretation{}, c.PartInterpretations...), i)})
			}
		}
		combos = next
	}
	return combos
}
