package report

import (
	"strings"
	"testing"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
	"github.com/stretchr/testify/assert"
)

func partWith(interps map[model.LineType][]model.Interpretation) *model.Part {
	return &model.Part{
		Num:             0,
		Species:         model.FirstSpecies,
		Interpretations: interps,
	}
}

func TestReportBeginsWithParseReportHeader(t *testing.T) {
	b := New()
	key := model.Key{Tonic: pitch.Pitch{Letter: pitch.D, Octave: 4}, Mode: model.Minor}
	b.WriteHeader(key, false)

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "PARSE REPORT\n"))
	assert.Contains(t, out, "Key: D4 minor (inferred)")
}

func TestSelectedTypeSentences(t *testing.T) {
	b := New()
	p := partWith(map[model.LineType][]model.Interpretation{
		model.Primary: {{LineType: model.Primary, HeadDegree: 3}},
	})
	b.WritePartResult(p, model.Primary)
	assert.Contains(t, b.String(), "The line is generable as a primary line.")

	b = New()
	b.WritePartResult(p, model.Bass)
	assert.Contains(t, b.String(), "The line is not generable as the selected type: bass.")
}

func TestUnrestrictedRequestSentences(t *testing.T) {
	b := New()
	p := partWith(map[model.LineType][]model.Interpretation{
		model.Generic: {{LineType: model.Generic}},
	})
	b.WritePartResult(p, model.LineTypeAny)
	assert.Contains(t, b.String(), "The line is generable only as a generic line.")

	b = New()
	p = partWith(map[model.LineType][]model.Interpretation{
		model.Primary: {{LineType: model.Primary, HeadDegree: 8}},
		model.Bass:    {{LineType: model.Bass}},
	})
	b.WritePartResult(p, model.LineTypeAny)
	assert.Contains(t, b.String(), "The line is generable as both a primary line and a bass line.")
}

func TestParseErrorsListedUnderPart(t *testing.T) {
	b := New()
	p := partWith(nil)
	p.Errors = []model.ParseError{{EventIndex: 2, Message: "The non-tonic-triad pitch F4 in measure 2 cannot be generated."}}
	b.WritePartResult(p, model.LineTypeAny)

	out := b.String()
	assert.Contains(t, out, "The line is not generable.")
	assert.Contains(t, out, "The following linear errors were found:")
	assert.Contains(t, out, "The non-tonic-triad pitch F4 in measure 2 cannot be generated.")
}

func TestCleanViolationReport(t *testing.T) {
	b := New()
	b.WriteViolations(nil)
	assert.Contains(t, b.String(), "Voice leading: no violations found.")
}
