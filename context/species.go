package context

import "github.com/snarrenberg/westerlines/model"

// DetectSpecies classifies a part's rhythmic species from the
// regularity of its per-measure note counts. The detector works from
// onset counts and tie flags already present on each model.Event, which
// is sufficient for the uniform-rhythm exercises the Score Import
// adapters produce.
func DetectSpecies(p *model.Part) model.Species {
	if len(p.Events) == 0 {
		return model.SpeciesUnknown
	}
	counts := map[int]int{}
	lastMeasure := 0
	for _, e := range p.Events {
		counts[e.MeasureIndex]++
		if e.MeasureIndex > lastMeasure {
			lastMeasure = e.MeasureIndex
		}
	}

	n, uniform := uniformCount(counts)
	switch {
	case uniform && n == 1:
		if looksSyncopated(p) {
			return model.FourthSpecies
		}
		return model.FirstSpecies
	case uniform && n == 2:
		if looksSyncopated(p) {
			return model.FourthSpecies
		}
		return model.SecondSpecies
	case uniform && n == 4:
		return model.ThirdSpecies
	default:
		return model.FifthSpecies
	}
}

func uniformCount(counts map[int]int) (int, bool) {
	first := -1
	for _, c := range counts {
		if first == -1 {
			first = c
			continue
		}
		if c != first {
			return 0, false
		}
	}
	if first == -1 {
		return 0, false
	}
	return first, true
}

// looksSyncopated reports whether a substantial share of the part's
// notes are tied across a barline, the rhythmic signature of
// fourth-species suspension chains.
func looksSyncopated(p *model.Part) bool {
	tiedAcross := 0
	for i := 0; i+1 < len(p.Events); i++ {
		e, next := p.Events[i], p.Events[i+1]
		if e.TiedToNext && next.MeasureIndex > e.MeasureIndex {
			tiedAcross++
		}
	}
	return tiedAcross > 0 && tiedAcross*3 >= len(p.Events)
}
