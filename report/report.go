// Package report builds the two output surfaces: the "PARSE REPORT"
// text block, and an optional annotated-score data structure recording
// every event's rule label and every arc as a slur-like grouping.
// Everything collects into a strings.Builder via a scoped *Builder
// rather than writing straight to stdout, so the CLI layer decides
// where the text goes.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/snarrenberg/westerlines/excerpt"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/util"
)

// Builder accumulates a text report. It is not safe for concurrent use,
// matching single-threaded scheduling model.
type Builder struct {
	sb strings.Builder
}

// New returns an empty report Builder.
func New() *Builder { return &Builder{} }

func (b *Builder) line(format string, args ...interface{}) {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// String returns the accumulated report text.
func (b *Builder) String() string { return b.sb.String() }

// WriteHeader writes the report's opening line and the governing key.
func (b *Builder) WriteHeader(key model.Key, keyFromUser bool) {
	b.line("PARSE REPORT")
	if keyFromUser {
		b.line("Key: %s (user-supplied)", key.String())
	} else {
		b.line("Key: %s (inferred)", key.String())
	}
	b.sb.WriteByte('\n')
}

// WritePartResult reports, for one part, whether the line is generable
// as the requested type (or, for an unrestricted request, which types it
// generates under), followed by the per-type interpretation counts and
// any parse errors.
func (b *Builder) WritePartResult(p *model.Part, requested model.LineType) {
	label := p.Name
	if label == "" {
		label = fmt.Sprintf("part %d", p.Num)
	}
	b.line("%s (%s species):", label, p.Species.String())
	b.line("  %s", generabilitySentence(p, requested))

	if len(p.Errors) > 0 {
		b.line("  The following linear errors were found:")
		for _, e := range p.Errors {
			b.line("    %s", e.Message)
			b.line("      passage: %s", passageAround(p, e))
		}
	}

	types := util.GetKeys(p.Interpretations)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, lt := range types {
		ints := p.Interpretations[lt]
		if len(ints) == 0 {
			continue
		}
		switch lt {
		case model.Primary:
			degrees := map[int]bool{}
			for _, i := range ints {
				degrees[i.HeadDegree] = true
			}
			heads := sortedKeys(degrees)
			b.line("  primary: head = %s, %d interpretation(s).", degreeList(heads), len(ints))
		case model.Bass:
			b.line("  bass: %d interpretation(s).", len(ints))
		case model.Generic:
			b.line("  generic: %d interpretation(s).", len(ints))
		}
	}
	if len(p.Interpretations) == 0 && len(p.CachedCounts) > 0 {
		for _, lt := range []model.LineType{model.Primary, model.Bass, model.Generic} {
			if n := p.CachedCounts[lt]; n > 0 {
				b.line("  %s: %d interpretation(s) (cached).", lt.String(), n)
			}
		}
	}
	b.sb.WriteByte('\n')
}

// passageAround renders the measure window surrounding an error's event,
// bracketing the offending pitch, so the report shows the passage in
// question instead of the whole line.
func passageAround(p *model.Part, e model.ParseError) string {
	events, first := excerpt.AroundError(p, e)
	names := make([]string, len(events))
	for i, ev := range events {
		name := ev.Pitch.Name()
		if first+i == e.EventIndex {
			name = "[" + name + "]"
		}
		names[i] = name
	}
	return strings.Join(names, " ")
}

// generabilitySentence states the part's generability as a single
// sentence, phrased by whether the caller restricted the line type. A
// part satisfied from the interpretation cache carries counts rather
// than interpretations; either source answers the question.
func generabilitySentence(p *model.Part, requested model.LineType) string {
	has := func(lt model.LineType) bool {
		return len(p.Interpretations[lt]) > 0 || p.CachedCounts[lt] > 0
	}
	hasPrimary := has(model.Primary)
	hasBass := has(model.Bass)
	hasGeneric := has(model.Generic)

	switch requested {
	case model.Primary, model.Bass, model.Generic:
		if has(requested) {
			return fmt.Sprintf("The line is generable as a %s line.", requested.String())
		}
		return fmt.Sprintf("The line is not generable as the selected type: %s.", requested.String())
	}
	switch {
	case hasPrimary && hasBass:
		return "The line is generable as both a primary line and a bass line."
	case hasBass:
		return "The line is generable as a bass line but not as a primary line."
	case hasPrimary:
		return "The line is generable as a primary line but not as a bass line."
	case hasGeneric:
		return "The line is generable only as a generic line."
	default:
		return "The line is not generable."
	}
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func degreeList(heads []int) string {
	parts := make([]string, len(heads))
	for i, h := range heads {
		parts[i] = fmt.Sprintf("%d^", h)
	}
	return strings.Join(parts, ", ")
}

// WriteLineDetail renders a per-event breakdown of p under interp,
// indenting each elaboration beneath its governing structural tones by
// its dependency Level.
func (b *Builder) WriteLineDetail(p *model.Part, interp model.Interpretation) {
	p.ApplyInterpretation(interp)
	levels := make([]int, len(p.Events))
	for i, e := range p.Events {
		levels[i] = e.Level
	}
	elaborationCount := len(util.FilterZeros(levels))
	maxIndent := int(util.Min(util.Sum(levels), uint64(maxLineIndent)))

	b.line("  %d elaboration(s) over %d event(s):", elaborationCount, len(p.Events))
	for i, e := range p.Events {
		indent := strings.Repeat("  ", util.Min(e.Level, maxIndent))
		label := interp.RuleLabels[i]
		b.line("    %s%s (%s) [%s]", indent, e.Pitch.Name(), e.CSD.String(), label)
	}
}

const maxLineIndent = 4

// WriteViolations renders voice-leading findings, or a clean-check line
// if none were found.
func (b *Builder) WriteViolations(violations []model.Violation) {
	if len(violations) == 0 {
		b.line("Voice leading: no violations found.")
		return
	}
	b.line("Voice leading: %d violation(s) found.", len(violations))
	for _, v := range violations {
		b.line("  [%s] %s", v.Kind.String(), v.Message)
	}
}

// AnnotatedEvent is one event's rendering for the annotated-score output.
type AnnotatedEvent struct {
	Index     int
	PitchName string
	Measure   int
	RuleLabel model.RuleLabel
	InParens  bool
}

// AnnotatedArc is an arc's rendering: a slur-like grouping, dashed for
// register transfer.
type AnnotatedArc struct {
	Left, Right int
	Rule        string
	Dashed      bool
}

// AnnotatedPart is the optional annotated-score output for one part and
// one selected interpretation.
type AnnotatedPart struct {
	Name   string
	Events []AnnotatedEvent
	Arcs   []AnnotatedArc
}

// Annotate builds an AnnotatedPart from a part and one of its
// interpretations.
func Annotate(p *model.Part, interp model.Interpretation) AnnotatedPart {
	ap := AnnotatedPart{Name: p.Name}
	for i, e := range p.Events {
		label := interp.RuleLabels[i]
		ap.Events = append(ap.Events, AnnotatedEvent{
			Index:     i,
			PitchName: e.Pitch.Name(),
			Measure:   e.MeasureIndex,
			RuleLabel: label,
			InParens:  interp.Parentheses[i],
		})
	}
	for _, arc := range model.SortedArcs(interp.Arcs) {
		ap.Arcs = append(ap.Arcs, AnnotatedArc{
			Left:   arc.Left(),
			Right:  arc.Right(),
			Rule:   arc.Rule.String(),
			Dashed: arc.Dashed,
		})
	}
	return ap
}
