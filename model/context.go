package model

// LocalHarmony is the triad active over a measure (or, in third species,
// a finer subdivision).
type LocalHarmony struct {
	OnsetOffset    Offset
	RootPitchClass int
	PitchClasses   map[int]bool
	IsTriadic      bool
}

// GlobalContext owns the parts and the inferred (or user-supplied) key,
// the state every downstream package shares.
type GlobalContext struct {
	Parts        []*Part
	Key          Key
	KeyFromUser  bool
	LocalHarmony map[int][]LocalHarmony // keyed by measure index
	Errors       []string
}

// PartByNum returns a part by its 0-based top-to-bottom number, or nil.
func (g *GlobalContext) PartByNum(num int) *Part {
	for _, p := range g.Parts {
		if p.Num == num {
			return p
		}
	}
	return nil
}

// ResolvePartSelection implements partSelection override:
// 0-based from top, negative indexes from bottom.
func (g *GlobalContext) ResolvePartSelection(sel int) *Part {
	n := len(g.Parts)
	if n == 0 {
		return nil
	}
	idx := sel
	if idx < 0 {
		idx = n + idx
	}
	if idx < 0 || idx >= n {
		return nil
	}
	return g.Parts[idx]
}
