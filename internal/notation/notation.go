// Package notation parses dice notation strings into expressions.
package notation

import "fmt"

// MaxOperations bounds the number of chained arithmetic operations in a
// single expression.
const MaxOperations = 16

// FudgeSides is the sides sentinel for Fudge dice ("dF").
const FudgeSides = 0

// CompareOp is a comparison operator in an explode or reroll condition.
type CompareOp int

const (
	CompareEqual CompareOp = iota
	CompareGreater
	CompareLess
	CompareGreaterEqual
	CompareLessEqual
)

// String returns the notation form of the operator.
func (op CompareOp) String() string {
	switch op {
	case CompareEqual:
		return "="
	case CompareGreater:
		return ">"
	case CompareLess:
		return "<"
	case CompareGreaterEqual:
		return ">="
	case CompareLessEqual:
		return "<="
	default:
		return "?"
	}
}

// Matches reports whether value satisfies the comparison.
func (op CompareOp) Matches(value, threshold int) bool {
	switch op {
	case CompareEqual:
		return value == threshold
	case CompareGreater:
		return value > threshold
	case CompareLess:
		return value < threshold
	case CompareGreaterEqual:
		return value >= threshold
	case CompareLessEqual:
		return value <= threshold
	default:
		return false
	}
}

// ComparePoint gates an explode or reroll trigger.
type ComparePoint struct {
	Op    CompareOp
	Value int
}

func (c ComparePoint) String() string {
	return fmt.Sprintf("%s%d", c.Op, c.Value)
}

// ExplodeKind selects how explosion results are recorded.
type ExplodeKind int

const (
	// ExplodeStandard appends each extra draw as a new die.
	ExplodeStandard ExplodeKind = iota
	// ExplodeCompound sums extra draws into the original die.
	ExplodeCompound
	// ExplodePenetrating appends extra draws reduced by 1 (floored at 1).
	ExplodePenetrating
)

// Explode configures an explode modifier. A nil Compare means "trigger on
// the die's maximum face value".
type Explode struct {
	Kind    ExplodeKind
	Compare *ComparePoint
}

// Reroll configures a reroll modifier. A nil Compare means "trigger when
// the value equals 1". Once limits replacement to a single draw.
type Reroll struct {
	Once    bool
	Compare *ComparePoint
}

// KeepDropKind selects which dice a keep/drop modifier retains.
type KeepDropKind int

const (
	KeepHighest KeepDropKind = iota
	KeepLowest
	DropHighest
	DropLowest
)

// KeepDrop filters rolled dice by rank. Count is validated against the dice
// count at parse time: 0 < Count <= DiceSpec.Count.
type KeepDrop struct {
	Kind  KeepDropKind
	Count int
}

// DiceSpec describes one dice term. Sides of FudgeSides (0) marks a Fudge
// die; all other values are ordinary numeric dice, 100 included.
type DiceSpec struct {
	Count    int
	Sides    int
	Explode  *Explode
	Reroll   *Reroll
	KeepDrop *KeepDrop
}

// Fudge reports whether the spec describes Fudge dice.
func (d DiceSpec) Fudge() bool {
	return d.Sides == FudgeSides
}

// Modified reports whether the spec carries any modifier.
func (d DiceSpec) Modified() bool {
	return d.Explode != nil || d.Reroll != nil || d.KeepDrop != nil
}

// Term is either a dice specification or a signed number. Dice is non-nil
// for dice terms; Number holds the literal otherwise.
type Term struct {
	Dice   *DiceSpec
	Number int
}

// Operator is a binary arithmetic operator between expression terms.
type Operator int

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
)

// String returns the notation form of the operator.
func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return "?"
	}
}

// Operation is one operator/term pair in an expression chain.
type Operation struct {
	Operator Operator
	Term     Term
}

// Expression is a base term followed by up to MaxOperations operator/term
// pairs, evaluated strictly left to right with no operator precedence.
type Expression struct {
	Base       Term
	Operations []Operation
}
