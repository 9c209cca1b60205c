package model

// ArcRule names the elaboration or basic-arc rule that produced an Arc,
// classified by its surface shape.
type ArcRule int

const (
	ArcBasicPrimary ArcRule = iota
	ArcBasicBass
	ArcBasicGeneric
	ArcRepetition
	ArcNeighbor
	ArcPassing
	ArcArpeggiation
	ArcAnticipation
	ArcInsertion
	ArcTransfer
)

func (r ArcRule) String() string {
	switch r {
	case ArcBasicPrimary:
		return "basic-primary"
	case ArcBasicBass:
		return "basic-bass"
	case ArcBasicGeneric:
		return "basic-generic"
	case ArcRepetition:
		return "repetition"
	case ArcNeighbor:
		return "neighbor"
	case ArcPassing:
		return "passing"
	case ArcArpeggiation:
		return "arpeggiation"
	case ArcAnticipation:
		return "anticipation"
	case ArcInsertion:
		return "insertion"
	case ArcTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Arc is a prolongational span: an ordered, non-empty sequence
// of event indices with n >= 1 interior/terminal points. Interior holds
// only the events strictly between Indices[0] and Indices[len-1]; it is
// derived, not independently settable, to keep that relationship true
// by construction.
type Arc struct {
	Indices []int
	Rule    ArcRule
	Dashed  bool // true for register-transfer arcs
}

// Left returns the arc's left endpoint index.
func (a Arc) Left() int { return a.Indices[0] }

// Right returns the arc's right endpoint index.
func (a Arc) Right() int { return a.Indices[len(a.Indices)-1] }

// Interior returns the indices strictly between the endpoints.
func (a Arc) Interior() []int {
	if len(a.Indices) <= 2 {
		return nil
	}
	return a.Indices[1 : len(a.Indices)-1]
}

// Covers reports whether index i lies within the arc's span, inclusive.
func (a Arc) Covers(i int) bool {
	return a.Left() <= i && i <= a.Right()
}

// Crosses reports whether two arcs overlap without one nesting inside
// the other, a condition disallowed except for same-residue
// register-transfer arcs. Arcs that merely abut at a shared endpoint do
// not cross.
func (a Arc) Crosses(b Arc) bool {
	al, ar := a.Left(), a.Right()
	bl, br := b.Left(), b.Right()
	nested := (al <= bl && br <= ar) || (bl <= al && ar <= br)
	disjoint := ar <= bl || br <= al
	return !nested && !disjoint
}

// Interpretation is one candidate parse of a part: a line-type
// classification, the arc forest, and per-event rule labels (the labels
// also live directly on the Event for convenience, but are copied here
// so an Interpretation is self-contained and comparable across
// branches).
type Interpretation struct {
	LineType    LineType
	Arcs        []Arc
	RuleLabels  map[int]RuleLabel
	Parentheses map[int]bool

	S1Index int // head of a primary line's basic arc
	S2Index int // penultimate tone
	S3Index int // structural-dominant event
	S3Final int // for bass lines: the tonic-return event after S3

	// HeadDegree is the CSD.Degree() of the S1 event, used by report
	// text ("head = 3^").
	HeadDegree int
}

// SortedArcs returns a's arcs ordered by ascending left endpoint, then
// ascending right endpoint, the canonical order required for
// deterministic output.
func SortedArcs(arcs []Arc) []Arc {
	out := make([]Arc, len(arcs))
	copy(out, arcs)
	// simple insertion sort: arcs sets are small, and this keeps the
	// module free of a sort.Slice closure at every call site.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && arcLess(out[j], out[j-1]) {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

func arcLess(a, b Arc) bool {
	if a.Left() != b.Left() {
		return a.Left() < b.Left()
	}
	return a.Right() < b.Right()
}
