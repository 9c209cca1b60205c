// Package evaluate wires the per-component packages (context, parser,
// selection, voiceleading) into the two operations the CLI and
// HTTP surfaces expose: "evaluate-lines" and "evaluate-counterpoint".
// context.Build resolves the shared analysis state once; the two
// functions below derive their results from it.
package evaluate

import (
	"fmt"

	"github.com/snarrenberg/westerlines/cache"
	"github.com/snarrenberg/westerlines/context"
	"github.com/snarrenberg/westerlines/harmony"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/parser"
	"github.com/snarrenberg/westerlines/selection"
	"github.com/snarrenberg/westerlines/voiceleading"
)

// Options carries overrides, shared by both operations.
type Options struct {
	Key           *model.Key
	PartSelection *int // nil: every part
	PartLineType  model.LineType

	// HarmonicSpans, when present, replaces the inferred per-measure
	// harmony with the caller-declared tonic/predominant/dominant spans
	// (the harmonic-species override).
	HarmonicSpans *model.HarmonicSpans

	// CacheDir, when non-empty, enables the interpretation cache: a
	// part whose signature has a cached outcome skips the parser and
	// carries the cached counts instead; misses are parsed and written
	// back. Only unrestricted (any-line-type) requests use the cache,
	// since a cached record holds the full per-type outcome.
	CacheDir string
}

func buildOptions(opts Options) context.BuildOptions {
	if opts.Key != nil {
		return context.BuildOptions{Key: opts.Key, KeyGiven: true}
	}
	return context.BuildOptions{}
}

// selectedParts resolves partSelection override against an
// already-built context.
func selectedParts(g *model.GlobalContext, opts Options) ([]*model.Part, error) {
	if opts.PartSelection == nil {
		return g.Parts, nil
	}
	p := g.ResolvePartSelection(*opts.PartSelection)
	if p == nil {
		return nil, fmt.Errorf("evaluate: partSelection %d out of range for %d parts", *opts.PartSelection, len(g.Parts))
	}
	return []*model.Part{p}, nil
}

// Lines runs the Line Parser over every requested part and
// line type, storing the resulting interpretations and any parse errors
// directly on each model.Part. It returns the built GlobalContext so
// callers (report, the HTTP handler) can read Key/KeyFromUser alongside
// the per-part results.
func Lines(parts []*model.Part, opts Options) (*model.GlobalContext, error) {
	g, err := context.Build(parts, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	if opts.HarmonicSpans != nil {
		g.LocalHarmony = harmony.FromSpans(g.Parts, g.Key, *opts.HarmonicSpans)
	}

	targets, err := selectedParts(g, opts)
	if err != nil {
		return nil, err
	}
	lineType := opts.PartLineType
	useCache := opts.CacheDir != "" && lineType == model.LineTypeAny
	for _, p := range targets {
		if len(p.Errors) > 0 {
			// A CSD failure already recorded by context.Build means this
			// part cannot be parsed at all; don't also report "no
			// interpretation" on top of it.
			continue
		}
		if useCache {
			if rec, ok := cache.Get(opts.CacheDir, cache.Signature(p.Events, g.Key)); ok {
				p.CachedCounts = rec.Counts()
				continue
			}
		}
		ints, errs := parser.Parse(p, g.Key, lineType, g.LocalHarmony)
		p.Interpretations = groupByLineType(ints)
		p.Errors = append(p.Errors, errs...)
		// Only successful outcomes are cached; a failed parse re-runs on
		// the next request so its diagnostics are reported in full.
		if useCache && len(errs) == 0 {
			counts := map[model.LineType]int{}
			for lt, is := range p.Interpretations {
				counts[lt] = len(is)
			}
			if err := cache.Put(opts.CacheDir, cache.Signature(p.Events, g.Key), counts); err != nil {
				g.Errors = append(g.Errors, "cache: "+err.Error())
			}
		}
	}
	return g, nil
}

func groupByLineType(ints []model.Interpretation) map[model.LineType][]model.Interpretation {
	out := map[model.LineType][]model.Interpretation{}
	for _, i := range ints {
		out[i.LineType] = append(out[i.LineType], i)
	}
	return out
}

// CounterpointOutcome is the result of Counterpoint: the selected
// cross-part combination (for annotation) plus the checker's findings.
type CounterpointOutcome struct {
	Context     *model.GlobalContext
	Combination selection.Combination
	Violations  []model.Violation
}

// Counterpoint runs the full pipeline end to end: parse every part
// under every line type, let the parse-selection layer pick the
// preferred cross-part reading, stamp that reading's rule labels onto
// the events, and run the voice-leading checker over the result. If
// any part admits no interpretation at all, the checker still runs
// against unlabeled events (every event defaults to RuleUnexplained),
// so parse errors stay contained to the offending part and analysis
// continues.
func Counterpoint(parts []*model.Part, opts Options) (*CounterpointOutcome, error) {
	g, err := context.Build(parts, buildOptions(opts))
	if err != nil {
		return nil, err
	}

	var results []selection.PartResult
	for _, p := range g.Parts {
		if len(p.Errors) == 0 {
			ints, errs := parser.Parse(p, g.Key, model.LineTypeAny, g.LocalHarmony)
			p.Interpretations = groupByLineType(ints)
			p.Errors = append(p.Errors, errs...)
		}
		results = append(results, selection.PartResult{Part: p, Interpretations: p.Interpretations})
	}

	combos := selection.Select(results)
	var chosen selection.Combination
	if len(combos) > 0 {
		chosen = combos[0]
	}
	for i, p := range g.Parts {
		if i < len(chosen.PartInterpretations) {
			p.ApplyInterpretation(chosen.PartInterpretations[i])
		} else {
			p.ApplyInterpretation(model.Interpretation{})
		}
	}

	violations := voiceleading.Check(g)
	return &CounterpointOutcome{Context: g, Combination: chosen, Violations: violations}, nil
}
