package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/snarrenberg/westerlines/model"
)

// parseState is one branch of the preliminary parse: the lists of open
// heads and open transitions, the arcs closed so far, and the lefthead/
// interior bookkeeping for each pending transition. States are value-like
// and cloned on every fork, so branches never share mutable arc or
// dependency data.
type parseState struct {
	openHeads       []int
	openTransitions []int
	arcs            []model.Arc

	// lefthead maps a pending transition to the head it departs from;
	// interior maps it to earlier transition members already absorbed
	// into the motion in progress (its codependents).
	lefthead map[int]int
	interior map[int][]int

	failed  bool
	failure model.ParseError
}

// machine is the scanner shared by every branch: the event stream and
// the harmonic-membership test. In first, second, and fourth species the
// test is tonic-triad membership; in third and fifth species it also
// admits pitches consonant with the measure's local harmony.
type machine struct {
	events   []model.Event
	harmonic func(model.Event) bool
}

func newParseState() *parseState {
	return &parseState{
		openHeads: []int{0},
		lefthead:  map[int]int{},
		interior:  map[int][]int{},
	}
}

func (s *parseState) clone() *parseState {
	c := &parseState{
		openHeads:       append([]int(nil), s.openHeads...),
		openTransitions: append([]int(nil), s.openTransitions...),
		arcs:            append([]model.Arc(nil), s.arcs...),
		lefthead:        make(map[int]int, len(s.lefthead)),
		interior:        make(map[int][]int, len(s.interior)),
	}
	for k, v := range s.lefthead {
		c.lefthead[k] = v
	}
	for k, v := range s.interior {
		c.interior[k] = append([]int(nil), v...)
	}
	return c
}

func (s *parseState) fail(idx int, msg string) *parseState {
	s.failed = true
	s.failure = model.ParseError{EventIndex: idx, Message: msg}
	return s
}

// signature serializes the state so duplicate branches (identical arc
// sets and open lists) can be coalesced.
func (s *parseState) signature() string {
	var sb strings.Builder
	for _, a := range model.SortedArcs(s.arcs) {
		fmt.Fprintf(&sb, "%v%d;", a.Indices, a.Rule)
	}
	fmt.Fprintf(&sb, "H%v T%v", s.openHeads, s.openTransitions)
	return sb.String()
}

func (s *parseState) hasHead(i int) bool {
	for _, h := range s.openHeads {
		if h == i {
			return true
		}
	}
	return false
}

func (s *parseState) isPending(i int) bool {
	for _, t := range s.openTransitions {
		if t == i {
			return true
		}
	}
	return false
}

func (s *parseState) removeTransition(t int) {
	out := s.openTransitions[:0]
	for _, x := range s.openTransitions {
		if x != t {
			out = append(out, x)
		}
	}
	s.openTransitions = out
}

// pruneHeadsBetween drops open heads strictly inside (lo, hi): heads
// leapfrogged by a closing arc are no longer attachment targets.
func (s *parseState) pruneHeadsBetween(lo, hi int) {
	out := s.openHeads[:0]
	for _, h := range s.openHeads {
		if h <= lo || h >= hi {
			out = append(out, h)
		}
	}
	s.openHeads = out
}

// closeTransition forms the arc for pending transition t resolving on
// event j and updates the open lists. The arc runs from t's lefthead
// through its absorbed interior members and t itself to j, and is
// classified as a neighbor if it returns to the lefthead's pitch,
// otherwise as a passing motion.
func (s *parseState) closeTransition(events []model.Event, t, j int) {
	lh := s.lefthead[t]
	indices := []int{lh}
	indices = append(indices, s.interior[t]...)
	indices = append(indices, t, j)
	sort.Ints(indices)

	rule := model.ArcPassing
	if events[lh].Pitch.IsUnison(events[j].Pitch) {
		rule = model.ArcNeighbor
	}
	s.arcs = append(s.arcs, model.Arc{Indices: indices, Rule: rule})
	s.removeTransition(t)
	delete(s.lefthead, t)
	delete(s.interior, t)
	s.pruneHeadsBetween(t, j)
	if !s.hasHead(j) {
		s.openHeads = append(s.openHeads, j)
	}
}

// advance consumes event j against the branch's current state and
// returns the successor branches. Most transitions are forced and yield
// a single successor; genuinely ambiguous attachments (a nonharmonic
// pitch reached by skip that could hang from more than one step-related
// open head) fork the parse, one branch per alternative.
func (m *machine) advance(s *parseState, i, j int) []*parseState {
	events := m.events
	hi := m.harmonic(events[i])
	hj := m.harmonic(events[j])
	cons := events[j].Consecutions
	step := cons.LeftType == model.Step
	same := cons.LeftType == model.Same
	skip := cons.LeftType == model.Skip

	switch {
	// Skip wider than an octave.
	case skip && !isSemiSimple(events[i], events[j]):
		return []*parseState{s.fail(j, fmt.Sprintf(
			"The leap from %s to %s in measure %d exceeds an octave and cannot be generated.",
			events[i].Pitch.Name(), events[j].Pitch.Name(), events[j].MeasureIndex))}

	// Dissonant skip.
	case skip && !isLinearConsonance(events[i], events[j]):
		return []*parseState{s.fail(j, fmt.Sprintf(
			"The dissonant leap from %s to %s in measure %d cannot be generated.",
			events[i].Pitch.Name(), events[j].Pitch.Name(), events[j].MeasureIndex))}

	// Both pitches harmonic.
	case hi && hj:
		if same {
			s.arcs = append(s.arcs, model.Arc{Indices: []int{i, j}, Rule: model.ArcRepetition})
			return []*parseState{s}
		}
		if step {
			// A step between two harmonic pitches resolves the most
			// recent step-related pending transition (forced closure).
			for k := len(s.openTransitions) - 1; k >= 0; k-- {
				t := s.openTransitions[k]
				if isDirectedStep(events[t], events[j]) {
					s.closeTransition(events, t, j)
					return []*parseState{s}
				}
			}
		}
		if !s.hasHead(j) {
			s.openHeads = append(s.openHeads, j)
		}
		return []*parseState{s}

	// Step from harmonic to nonharmonic: open a new transition.
	case hi && !hj && step:
		lh := i
		if !s.hasHead(i) {
			// i was itself attached (e.g. as a repetition); hang the new
			// transition from the most recent open head with i's pitch.
			for k := len(s.openHeads) - 1; k >= 0; k-- {
				if events[s.openHeads[k]].Pitch.IsUnison(events[i].Pitch) {
					lh = s.openHeads[k]
					break
				}
			}
		}
		s.openTransitions = append(s.openTransitions, j)
		s.lefthead[j] = lh
		return []*parseState{s}

	// Step from nonharmonic to harmonic: resolve pending transitions.
	case !hi && hj && step:
		for k := len(s.openTransitions) - 1; k >= 0; k-- {
			t := s.openTransitions[k]
			if isDirectedStep(events[t], events[j]) {
				s.closeTransition(events, t, j)
			}
		}
		if !s.hasHead(j) {
			s.openHeads = append(s.openHeads, j)
		}
		return []*parseState{s}

	// Step between nonharmonic pitches: the motion in progress extends,
	// or reverses into a double-neighbor figure.
	case !hi && !hj && step:
		if s.isPending(i) {
			s.interior[j] = append(append([]int(nil), s.interior[i]...), i)
			s.lefthead[j] = s.lefthead[i]
			s.removeTransition(i)
			delete(s.lefthead, i)
			delete(s.interior, i)
			s.openTransitions = append(s.openTransitions, j)
			return []*parseState{s}
		}
		// i already closed into an arc; j hangs from a step-related
		// open head.
		return m.attachBySkipOrFail(s, j)

	// Consonant skip from nonharmonic to harmonic: the pending
	// transition stays open, j becomes a new head.
	case !hi && hj:
		if !s.hasHead(j) {
			s.openHeads = append(s.openHeads, j)
		}
		return []*parseState{s}

	// Consonant skip from harmonic to nonharmonic: j must hang from an
	// earlier step-related head. More than one candidate forks the parse.
	case hi && !hj:
		return m.attachBySkipOrFail(s, j)

	// Skip or unison between nonharmonic pitches.
	default:
		return []*parseState{s.fail(j, nonTriadError(events[j]))}
	}
}

// attachBySkipOrFail hangs nonharmonic event j from a step-related open
// head. Each step-related candidate yields its own branch; no candidate
// at all is a syntax error: j appears out of the blue.
func (m *machine) attachBySkipOrFail(s *parseState, j int) []*parseState {
	var out []*parseState
	for k := len(s.openHeads) - 1; k >= 0; k-- {
		h := s.openHeads[k]
		if isDiatonicStepPair(m.events[h], m.events[j]) {
			b := s.clone()
			b.openTransitions = append(b.openTransitions, j)
			b.lefthead[j] = h
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return []*parseState{s.fail(j, nonTriadError(m.events[j]))}
	}
	return out
}

func nonTriadError(e model.Event) string {
	return fmt.Sprintf("The non-tonic-triad pitch %s in measure %d cannot be generated.",
		e.Pitch.Name(), e.MeasureIndex)
}

// prune kills the branch if any pending transition has no conceivable
// forward resolution: no later event lies a directed step away from it.
func (s *parseState) prune(events []model.Event, after int) {
	for _, t := range s.openTransitions {
		resolvable := false
		for f := after + 1; f < len(events); f++ {
			if isDirectedStep(events[t], events[f]) {
				resolvable = true
				break
			}
		}
		if !resolvable {
			s.fail(t, nonTriadError(events[t]))
			return
		}
	}
}

// preParse runs the scanner over the attack events of a line, forking on
// ambiguity, and returns every surviving terminal state (pending
// transitions all discharged) plus the failures collected from dead
// branches. attacks holds the indices the scanner visits; tied
// continuations are excluded the way preParseLine filters its buffer to
// tie starts.
func (m *machine) preParse(attacks []int, maxBranches int) ([]*parseState, []model.ParseError) {
	live := []*parseState{newParseState()}
	var dead []model.ParseError

	for n := 1; n < len(attacks); n++ {
		i, j := attacks[n-1], attacks[n]
		var next []*parseState
		for _, s := range live {
			for _, b := range m.advance(s, i, j) {
				if b.failed {
					dead = append(dead, b.failure)
					continue
				}
				b.prune(m.events, j)
				if b.failed {
					dead = append(dead, b.failure)
					continue
				}
				next = append(next, b)
			}
		}
		next = coalesce(next)
		if len(next) > maxBranches {
			return nil, []model.ParseError{{EventIndex: j, Message: "interpretation search exceeded limits"}}
		}
		if len(next) == 0 {
			return nil, dead
		}
		live = next
	}

	var out []*parseState
	for _, s := range live {
		if len(s.openTransitions) > 0 {
			dead = append(dead, model.ParseError{
				EventIndex: s.openTransitions[0],
				Message:    nonTriadError(m.events[s.openTransitions[0]]),
			})
			continue
		}
		out = append(out, s)
	}
	return out, dead
}

func coalesce(states []*parseState) []*parseState {
	seen := map[string]bool{}
	out := states[:0]
	for _, s := range states {
		sig := s.signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, s)
	}
	return out
}
