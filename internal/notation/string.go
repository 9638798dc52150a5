package notation

import (
	"strconv"
	"strings"
)

// String returns the canonical notation for the spec, e.g. "4d6!k3".
func (d DiceSpec) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.Count))
	b.WriteByte('d')
	if d.Fudge() {
		b.WriteByte('F')
	} else {
		b.WriteString(strconv.Itoa(d.Sides))
	}
	if d.Explode != nil {
		b.WriteByte('!')
		switch d.Explode.Kind {
		case ExplodeCompound:
			b.WriteByte('!')
		case ExplodePenetrating:
			b.WriteByte('p')
		}
		if d.Explode.Compare != nil {
			b.WriteString(d.Explode.Compare.String())
		}
	}
	if d.Reroll != nil {
		b.WriteByte('r')
		if d.Reroll.Once {
			b.WriteByte('o')
		}
		if d.Reroll.Compare != nil {
			b.WriteString(d.Reroll.Compare.String())
		}
	}
	if d.KeepDrop != nil {
		switch d.KeepDrop.Kind {
		case KeepHighest:
			b.WriteByte('k')
		case KeepLowest:
			b.WriteString("kl")
		case DropHighest:
			b.WriteString("dh")
		case DropLowest:
			b.WriteByte('d')
		}
		b.WriteString(strconv.Itoa(d.KeepDrop.Count))
	}
	return b.String()
}

// String returns the canonical notation for the term.
func (t Term) String() string {
	if t.Dice != nil {
		return t.Dice.String()
	}
	return strconv.Itoa(t.Number)
}

// String returns the canonical notation for the expression.
func (e Expression) String() string {
	var b strings.Builder
	b.WriteString(e.Base.String())
	for _, op := range e.Operations {
		b.WriteString(op.Operator.String())
		b.WriteString(op.Term.String())
	}
	return b.String()
}
