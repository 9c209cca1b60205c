// Package context assembles the global context: it takes raw,
// score-imported parts, resolves the governing key, stamps every event
// with its concrete scale degree and consecutions, detects each part's
// species, then builds the per-measure local harmonic context that
// third-species parsing and the voice-leading checker both read. The
// whole struct is populated up front rather than computed lazily.
package context

import (
	"fmt"

	"github.com/snarrenberg/westerlines/consecutions"
	"github.com/snarrenberg/westerlines/csd"
	"github.com/snarrenberg/westerlines/harmony"
	"github.com/snarrenberg/westerlines/keyfinder"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
)

// BuildOptions carries the score-import overrides a caller may supply:
// an explicit key (skipping inference) and nothing else. Part selection
// is resolved later, by the selection package, once parses exist to
// select among.
type BuildOptions struct {
	Key      *model.Key // nil: infer
	KeyGiven bool
}

// Build assembles a GlobalContext from raw parts. Parts must already
// have Num and Events populated by a score.Loader; Build fills in
// Species, Key, every event's CSD and Consecutions, and LocalHarmony.
//
// A key that fails validation or inference is a fatal error for the
// whole context: nothing downstream can be trusted
// without a governing scale. Per-event CSD failures, by contrast, are
// recorded on the offending part (ParseError) and building continues
// for the rest of the score, since the line parser needs the chance to
// report every part's errors in a single pass.
func Build(parts []*model.Part, opts BuildOptions) (*model.GlobalContext, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("context: cannot build from zero parts")
	}

	g := &model.GlobalContext{Parts: parts}

	for _, p := range parts {
		p.Species = DetectSpecies(p)
		consecutions.Annotate(p.Events)
	}

	if opts.KeyGiven && opts.Key != nil {
		if err := keyfinder.Validate(parts, *opts.Key); err != nil {
			return nil, err
		}
		g.Key = *opts.Key
		g.KeyFromUser = true
	} else {
		k, err := keyfinder.Infer(parts)
		if err != nil {
			return nil, err
		}
		g.Key = k
	}

	for _, p := range parts {
		pitches := make([]pitch.Pitch, len(p.Events))
		for i, e := range p.Events {
			pitches[i] = e.Pitch
		}
		degrees, failedAt, err := csd.MapAll(pitches, g.Key)
		for i := 0; i < len(degrees) && (failedAt == -1 || i < failedAt); i++ {
			p.Events[i].CSD = degrees[i]
		}
		if err != nil {
			p.Errors = append(p.Errors, model.ParseError{
				EventIndex: failedAt,
				Message:    err.Error(),
			})
		}
	}

	g.LocalHarmony = harmony.LocalHarmonies(parts, g.Key)

	return g, nil
}
