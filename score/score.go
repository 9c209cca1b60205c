// Package score implements the reference Score Import Loader: it
// consumes the required fields (pitch, onsetOffset, duration,
// measureIndex, tiedToNext) from a JSON score document and produces the
// model.Part slice the rest of the pipeline operates on.
package score

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
)

// offsetDenominator is fine enough to represent anything from whole
// notes down to 32nd-note triplets without rounding error for the
// rhythms species counterpoint exercises use.
const offsetDenominator = 96

// FromDoc converts a wire-level model.ScoreDoc into parts ordered top to
// bottom.
func FromDoc(doc model.ScoreDoc) ([]*model.Part, error) {
	if len(doc.Parts) == 0 {
		return nil, fmt.Errorf("score: no parts")
	}
	parts := make([]*model.Part, len(doc.Parts))
	for partNum, eventDocs := range doc.Parts {
		if len(eventDocs) == 0 {
			return nil, fmt.Errorf("score: part %d has no events", partNum)
		}
		events := make([]model.Event, len(eventDocs))
		for i, ed := range eventDocs {
			p, err := pitch.Parse(ed.Pitch)
			if err != nil {
				return nil, fmt.Errorf("score: part %d event %d: %w", partNum, i, err)
			}
			events[i] = model.Event{
				Index:        i,
				Pitch:        p,
				OnsetOffset:  floatToOffset(ed.OnsetOffset),
				Duration:     floatToOffset(ed.Duration),
				MeasureIndex: ed.MeasureIndex,
				TiedToNext:   ed.TiedToNext,
			}
		}
		parts[partNum] = &model.Part{Num: partNum, Events: events}
	}
	return parts, nil
}

func floatToOffset(v float64) model.Offset {
	num := int64(v*float64(offsetDenominator) + 0.5)
	return model.NewOffset(num, offsetDenominator)
}

// LoadFile reads a JSON-encoded score document from path and converts
// it to parts. Malformed input surfaces as a returned error, not a panic.
func LoadFile(path string) ([]*model.Part, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score: reading %s: %w", path, err)
	}
	var doc model.ScoreDoc
	if err := json.Unmarshal(dat, &doc); err != nil {
		return nil, fmt.Errorf("score: parsing %s: %w", path, err)
	}
	return FromDoc(doc)
}

// ToDoc renders parts back to the wire format, the inverse of FromDoc.
func ToDoc(parts []*model.Part) model.ScoreDoc {
	doc := model.ScoreDoc{Parts: make([][]model.EventDoc, len(parts))}
	for i, p := range parts {
		docs := make([]model.EventDoc, len(p.Events))
		for j, e := range p.Events {
			docs[j] = model.EventDoc{
				Pitch:        e.Pitch.Name(),
				OnsetOffset:  e.OnsetOffset.Float64(),
				Duration:     e.Duration.Float64(),
				MeasureIndex: e.MeasureIndex,
				TiedToNext:   e.TiedToNext,
			}
		}
		doc.Parts[i] = docs
	}
	return doc
}
