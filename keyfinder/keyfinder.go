// Package keyfinder implements the Key Finder: validating a
// user-supplied key, or inferring one from the score by intersecting
// per-part candidate sets derived from a scale/terminal filter and a
// hanging-note filter, then applying preference rules to break ties.
package keyfinder

import (
	"fmt"
	"sort"

	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/pitch"
)

// Error is returned for both "ambiguous" and "no candidates" failures,
// Key errors.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

type candidate struct {
	rootPC int
	mode   model.Mode
}

func (c candidate) key(spell func(pc int) pitch.Pitch) model.Key {
	return model.Key{Tonic: spell(c.rootPC), Mode: c.mode}
}

var majorTriad = [3]int{0, 4, 7}
var minorTriad = [3]int{0, 3, 7}
var majorScale = []int{0, 2, 4, 5, 7, 9, 11}
var minorScale = []int{0, 2, 3, 5, 7, 8, 9, 10, 11} // union of ascending/descending forms

// Infer intersects every part's scale-filter and hanging-note-filter
// candidate sets and applies the tie-breaking preference rules of
// It returns an error if zero or more than one key
// survives.
func Infer(parts []*model.Part) (model.Key, error) {
	if len(parts) == 0 {
		return model.Key{}, &Error{"cannot infer a key from zero parts"}
	}

	var scaleSets, hangingSets []map[candidate]bool
	for _, p := range parts {
		scaleCands, err := candidatesFromScale(p)
		if err != nil {
			return model.Key{}, err
		}
		scaleSets = append(scaleSets, toSet(scaleCands))
		hangingSets = append(hangingSets, toSet(candidatesFromHanging(p)))
	}

	scaleIntersection := intersectAll(scaleSets)
	hangingIntersection := intersectAll(hangingSets)
	candidates := intersectTwo(scaleIntersection, hangingIntersection)

	if len(candidates) == 0 {
		return model.Key{}, &Error{"no viable key is inferrable from this score"}
	}
	if len(candidates) > 1 {
		candidates = preferEndingOnTonic(candidates, parts)
	}
	if len(candidates) > 1 {
		candidates = preferBeginningOnTonic(candidates, parts)
	}
	if len(candidates) > 1 {
		candidates = preferMajorOnTieAcrossModeOnly(candidates)
	}
	if len(candidates) != 1 {
		return model.Key{}, ambiguityError(candidates, parts[0])
	}

	var only candidate
	for c := range candidates {
		only = c
	}
	return only.key(func(pc int) pitch.Pitch { return spellFromPart(parts[0], pc) }), nil
}

// Validate checks a user-supplied key against every part using the same
// filters Infer uses, returning a descriptive error if the key does not
// fit.
func Validate(parts []*model.Part, k model.Key) error {
	rootPC := k.Tonic.PitchClass()
	for _, p := range parts {
		if len(p.Events) == 0 {
			return &Error{fmt.Sprintf("%s has no events", p.Name)}
		}
		triad := triadFor(rootPC, k.Mode)
		scale := scaleFor(rootPC, k.Mode)
		first, last := p.First().Pitch.PitchClass(), p.Last().Pitch.PitchClass()
		if !inSet(triad, first) || !inSet(triad, last) {
			return &Error{fmt.Sprintf("%s: first or last note is not a triad pitch in %s", p.Name, k)}
		}
		for _, e := range p.Events {
			if !scale[e.Pitch.PitchClass()] {
				return &Error{fmt.Sprintf("%s: pitch %s does not belong to the scale of %s", p.Name, e.Pitch.Name(), k)}
			}
		}
		if !exemptFromLeapTest(p.Species) && !leapTestWeak(leapPairs(p), triad) {
			return &Error{fmt.Sprintf("%s: at least one leap fails to include a triad pitch in %s", p.Name, k)}
		}
	}
	return nil
}

func exemptFromLeapTest(s model.Species) bool {
	return s != model.FirstSpecies && s != model.SecondSpecies && s != model.FourthSpecies
}

func triadFor(rootPC int, m model.Mode) [3]int {
	pattern := majorTriad
	if m == model.Minor {
		pattern = minorTriad
	}
	return [3]int{(rootPC + pattern[0]) % 12, (rootPC + pattern[1]) % 12, (rootPC + pattern[2]) % 12}
}

func scaleFor(rootPC int, m model.Mode) map[int]bool {
	pattern := majorScale
	if m == model.Minor {
		pattern = minorScale
	}
	set := map[int]bool{}
	for _, d := range pattern {
		set[(rootPC+d)%12] = true
	}
	return set
}

func inSet(triad [3]int, pc int) bool {
	return triad[0] == pc || triad[1] == pc || triad[2] == pc
}

type leapPair struct{ a, b int }

func leapPairs(p *model.Part) []leapPair {
	var pairs []leapPair
	for i := 0; i < len(p.Events)-1; i++ {
		if p.Events[i].Consecutions.RightType == model.Skip {
			pairs = append(pairs, leapPair{p.Events[i].Pitch.PitchClass(), p.Events[i+1].Pitch.PitchClass()})
		}
	}
	return pairs
}

// leapTestWeak requires at least one endpoint of every leap to be a triad
// pitch.
func leapTestWeak(pairs []leapPair, triad [3]int) bool {
	for _, pr := range pairs {
		if !inSet(triad, pr.a) && !inSet(triad, pr.b) {
			return false
		}
	}
	return true
}

// leapTestStrong requires both endpoints of at least one leap to be triad
// pitches. Kept as a documented, unused-by-default alternative to
// leapTestWeak.
func leapTestStrong(pairs []leapPair, triad [3]int) bool {
	if len(pairs) == 0 {
		return true
	}
	for _, pr := range pairs {
		if inSet(triad, pr.a) && inSet(triad, pr.b) {
			return true
		}
	}
	return false
}

func candidatesFromScale(p *model.Part) ([]candidate, error) {
	if len(p.Events) == 0 {
		return nil, &Error{fmt.Sprintf("%s has no events", p.Name)}
	}
	first, last := p.First().Pitch.PitchClass(), p.Last().Pitch.PitchClass()
	pairs := leapPairs(p)
	var out []candidate
	for root := 0; root < 12; root++ {
		for _, m := range []model.Mode{model.Major, model.Minor} {
			triad := triadFor(root, m)
			if !inSet(triad, first) || !inSet(triad, last) {
				continue
			}
			scale := scaleFor(root, m)
			ok := true
			for _, e := range p.Events {
				if !scale[e.Pitch.PitchClass()] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if !exemptFromLeapTest(p.Species) && !leapTestWeak(pairs, triad) {
				continue
			}
			out = append(out, candidate{rootPC: root, mode: m})
		}
	}
	return out, nil
}

// candidatesFromHanging implements the hanging-note filter: a pitch is
// "hanging" if no subsequent same-pitch or stepwise successor closes it
// off. The surviving set is read as a sonority and matched against
// tonic-triad shapes.
func candidatesFromHanging(p *model.Part) []candidate {
	hanging := hangingPitchClasses(p)
	return candidatesFromHangingSet(hanging)
}

// hangingPitchClasses walks the line in reverse exactly as
// keyFinder.py's getPartKeyUsingHangingNotes does, tracking closed-off
// letters so a later (earlier in time) recurrence of an already-resolved
// letter does not reopen it.
func hangingPitchClasses(p *model.Part) []pitch.Pitch {
	type letterKey = byte
	hangingNames := map[string]bool{}
	var hangingOrder []pitch.Pitch
	displaced := map[letterKey]bool{}

	closeNeighbors := func(l letterKey) {
		idx := letterIndex(l)
		displaced[letterOrder[(idx+6)%7]] = true
		displaced[letterOrder[(idx+1)%7]] = true
	}

	for i := len(p.Events) - 1; i >= 0; i-- {
		x := p.Events[i].Pitch
		name := fmt.Sprintf("%c%d", x.Letter, x.Accidental)
		switch {
		case !hangingNames[name] && !displaced[byte(x.Letter)]:
			hangingNames[name] = true
			hangingOrder = append(hangingOrder, x)
			closeNeighbors(byte(x.Letter))
		case hangingNames[name]:
			// already accounted for; nothing to do
		case displaced[byte(x.Letter)]:
			closeNeighbors(byte(x.Letter))
		}
	}
	return hangingOrder
}

var letterOrder = [7]byte{'C', 'D', 'E', 'F', 'G', 'A', 'B'}

func letterIndex(l byte) int {
	for i, c := range letterOrder {
		if c == l {
			return i
		}
	}
	return 0
}

func candidatesFromHangingSet(hanging []pitch.Pitch) []candidate {
	if len(hanging) == 0 {
		return nil
	}
	pcs := map[int]bool{}
	for _, h := range hanging {
		pcs[h.PitchClass()] = true
	}
	root := lowestPitchClass(hanging)

	switch len(pcs) {
	case 1:
		// unison/octave: maximally ambiguous, matching
		// keyFinder.py's commonName in {'unison','note','Perfect Octave'}.
		return []candidate{
			{root, model.Minor}, {root, model.Major},
			{(root + 9) % 12, model.Minor}, {(root + 8) % 12, model.Major},
			{(root + 5) % 12, model.Minor}, {(root + 5) % 12, model.Major},
		}
	case 2:
		other := otherPitchClass(pcs, root)
		interval := mod12(other - root)
		switch interval {
		case 3:
			return []candidate{{root, model.Minor}, {(root + 8) % 12, model.Major}}
		case 4:
			return []candidate{{root, model.Major}, {(root + 9) % 12, model.Minor}}
		case 7:
			return []candidate{{root, model.Minor}, {root, model.Major}}
		case 5:
			// a fourth: the upper pitch is the triad root
			return []candidate{{other, model.Minor}, {other, model.Major}}
		default:
			return nil
		}
	case 3:
		for candRoot := range pcs {
			if isTriadShape(pcs, candRoot, majorTriad) {
				return []candidate{{candRoot, model.Major}}
			}
			if isTriadShape(pcs, candRoot, minorTriad) {
				return []candidate{{candRoot, model.Minor}}
			}
		}
		return nil
	default:
		return nil
	}
}

func isTriadShape(pcs map[int]bool, root int, pattern [3]int) bool {
	for _, d := range pattern {
		if !pcs[(root+d)%12] {
			return false
		}
	}
	return true
}

func lowestPitchClass(pitches []pitch.Pitch) int {
	lowest := pitches[0]
	for _, p := range pitches[1:] {
		if p.MIDI() < lowest.MIDI() {
			lowest = p
		}
	}
	return lowest.PitchClass()
}

func otherPitchClass(pcs map[int]bool, exclude int) int {
	for pc := range pcs {
		if pc != exclude {
			return pc
		}
	}
	return exclude
}

func mod12(x int) int {
	x %= 12
	if x < 0 {
		x += 12
	}
	return x
}

func toSet(cands []candidate) map[candidate]bool {
	set := map[candidate]bool{}
	for _, c := range cands {
		set[c] = true
	}
	return set
}

func intersectAll(sets []map[candidate]bool) map[candidate]bool {
	if len(sets) == 0 {
		return map[candidate]bool{}
	}
	out := map[candidate]bool{}
	for c := range sets[0] {
		in := true
		for _, s := range sets[1:] {
			if !s[c] {
				in = false
				break
			}
		}
		if in {
			out[c] = true
		}
	}
	return out
}

func intersectTwo(a, b map[candidate]bool) map[candidate]bool {
	out := map[candidate]bool{}
	for c := range a {
		if b[c] {
			out[c] = true
		}
	}
	return out
}

// preferEndingOnTonic keeps only candidates for which the most parts end
// on the tonic degree, first tiebreaker.
func preferEndingOnTonic(cands map[candidate]bool, parts []*model.Part) map[candidate]bool {
	return preferByTerminal(cands, parts, func(p *model.Part) int { return p.Last().Pitch.PitchClass() })
}

func preferBeginningOnTonic(cands map[candidate]bool, parts []*model.Part) map[candidate]bool {
	return preferByTerminal(cands, parts, func(p *model.Part) int { return p.First().Pitch.PitchClass() })
}

func preferByTerminal(cands map[candidate]bool, parts []*model.Part, terminal func(*model.Part) int) map[candidate]bool {
	type weighted struct {
		c candidate
		w int
	}
	var weights []weighted
	for c := range cands {
		w := 0
		for _, p := range parts {
			if terminal(p) == c.rootPC {
				w++
			}
		}
		weights = append(weights, weighted{c, w})
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i].w > weights[j].w })
	if len(weights) > 0 && weights[0].w > 0 {
		best := weights[0].w
		out := map[candidate]bool{}
		for _, wc := range weights {
			if wc.w == best {
				out[wc.c] = true
			}
		}
		if len(out) < len(cands) {
			return out
		}
	}
	return cands
}

// preferMajorOnTieAcrossModeOnly implements last
// tiebreaker: "on a tie between modes with identical tonic, prefer
// major."
func preferMajorOnTieAcrossModeOnly(cands map[candidate]bool) map[candidate]bool {
	if len(cands) != 2 {
		return cands
	}
	var list []candidate
	for c := range cands {
		list = append(list, c)
	}
	if list[0].rootPC == list[1].rootPC && list[0].mode != list[1].mode {
		for _, c := range list {
			if c.mode == model.Major {
				return map[candidate]bool{c: true}
			}
		}
	}
	return cands
}

func ambiguityError(cands map[candidate]bool, p *model.Part) *Error {
	if len(cands) == 0 {
		return &Error{"no viable key is inferrable from this score"}
	}
	names := make([]string, 0, len(cands))
	for c := range cands {
		names = append(names, c.key(func(pc int) pitch.Pitch { return spellFromPart(p, pc) }).String())
	}
	sort.Strings(names)
	msg := "more than one key is possible for this score:"
	for _, n := range names {
		msg += " " + n + ";"
	}
	return &Error{msg}
}

// spellFromPart picks a letter spelling for pitch class pc, preferring
// the spelling already used somewhere in the part (so a D minor score
// reads back as "D minor," not "D- major" enharmonically), falling back
// to the spelling with the smallest accidental magnitude.
func spellFromPart(p *model.Part, pc int) pitch.Pitch {
	for _, e := range p.Events {
		if e.Pitch.PitchClass() == pc {
			return pitch.Pitch{Letter: e.Pitch.Letter, Accidental: e.Pitch.Accidental, Octave: 4}
		}
	}
	best := pitch.Pitch{Letter: 'C', Accidental: 0, Octave: 4}
	bestAbs := 99
	for _, l := range letterOrder {
		natural := naturalPitchClass(l)
		acc := pc - natural
		for acc > 6 {
			acc -= 12
		}
		for acc < -6 {
			acc += 12
		}
		a := acc
		if a < 0 {
			a = -a
		}
		if a < bestAbs {
			bestAbs = a
			best = pitch.Pitch{Letter: pitch.Letter(l), Accidental: acc, Octave: 4}
		}
	}
	return best
}

func naturalPitchClass(l byte) int {
	switch l {
	case 'C':
		return 0
	case 'D':
		return 2
	case 'E':
		return 4
	case 'F':
		return 5
	case 'G':
		return 7
	case 'A':
		return 9
	case 'B':
		return 11
	}
	return 0
}
