package ast

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the program file.
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range is the span of a node in the program file. Nodes built without a
// file, like those of tests, have the zero Range.
// The easiest way to be a Positioner is to embed a Range
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }

func (r Range) End() token.Pos { return r.PosEnd }

func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

// RangeBetween spans from the start of fst to the end of snd
func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// RangeOf returns the span of any Positioner, or the zero Range for nil
func RangeOf(p Positioner) Range {
	switch p := p.(type) {
	case nil:
		return Range{}
	case Range:
		return p
	case *Range:
		return *p
	}
	return Range{p.Pos(), p.End()}
}
