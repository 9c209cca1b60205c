// Package model holds the data model shared across the analysis pipeline:
// pitch events, scale degrees, keys, consecutions, arcs, interpretations,
// parts, and the global context. It deliberately carries no behavior beyond
// simple accessors; the packages that consume it (csd, keyfinder, context,
// parser, selection, voiceleading, report) own the logic.
package model

import (
	"fmt"

	"github.com/snarrenberg/westerlines/pitch"
)

// Offset is a rational onset/duration measured in quarter notes, following
// music21's convention rather than ticks, so that third- and
// fourth-species rhythms compare cleanly.
type Offset struct {
	Num, Den int64
}

// NewOffset builds a reduced Offset. Den must be positive.
func NewOffset(num, den int64) Offset {
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	if g == 0 {
		g = 1
	}
	return Offset{Num: num / g, Den: den / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// Float64 renders the offset as a float for reports and cheap comparisons.
func (o Offset) Float64() float64 {
	if o.Den == 0 {
		return 0
	}
	return float64(o.Num) / float64(o.Den)
}

// Less reports whether o sorts before other.
func (o Offset) Less(other Offset) bool {
	return o.Num*other.Den < other.Num*o.Den
}

// Add returns o + other.
func (o Offset) Add(other Offset) Offset {
	return NewOffset(o.Num*other.Den+other.Num*o.Den, o.Den*other.Den)
}

func (o Offset) String() string {
	if o.Den == 1 {
		return fmt.Sprintf("%d", o.Num)
	}
	return fmt.Sprintf("%d/%d", o.Num, o.Den)
}

// Event is a single pitched note in a part: pitch event E.
type Event struct {
	Index        int
	Pitch        pitch.Pitch
	OnsetOffset  Offset
	Duration     Offset
	MeasureIndex int
	TiedToNext   bool

	// Filled in by later stages; zero value means "not yet assigned."
	CSD          ConcreteScaleDegree
	Consecutions Consecutions
	RuleLabel    RuleLabel
	Level        int
	Parenthesis  bool
}
