// Package excerpt trims a part down to the measure window surrounding a
// parse error, so error reports can show just the offending passage
// instead of the whole line.
package excerpt

import "github.com/snarrenberg/westerlines/model"

// window is how many measures of context to keep on either side of the
// offending event, enough to see its melodic approach and departure
// without reproducing the whole line.
const window = 2

// AroundError returns the slice of p's events within window measures of
// err's event, plus the index offset to add back to get the original
// part's indices (so a caller can still report "measure N" correctly).
func AroundError(p *model.Part, err model.ParseError) (events []model.Event, firstIndex int) {
	if err.EventIndex < 0 || err.EventIndex >= len(p.Events) {
		return p.Events, 0
	}
	center := p.Events[err.EventIndex].MeasureIndex
	low, high := center-window, center+window

	start, end := 0, len(p.Events)
	for i, e := range p.Events {
		if e.MeasureIndex >= low {
			start = i
			break
		}
	}
	for i := len(p.Events) - 1; i >= 0; i-- {
		if p.Events[i].MeasureIndex <= high {
			end = i + 1
			break
		}
	}
	if start >= end {
		return p.Events, 0
	}
	return p.Events[start:end], start
}
