package notation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidFormat indicates no recognizable dice or number term.
var ErrInvalidFormat = errors.New("no dice or number term")

// ErrInvalidCount indicates a dice count of zero.
var ErrInvalidCount = errors.New("dice count must be at least 1")

// ErrInvalidSides indicates missing sides or a sides value of zero.
var ErrInvalidSides = errors.New("dice sides must be at least 1, %, or F")

// ErrInvalidModifier indicates a malformed comparison point or an
// out-of-range keep/drop count.
var ErrInvalidModifier = errors.New("invalid modifier")

// ErrOverflow indicates a numeric value outside its allowed range.
var ErrOverflow = errors.New("number out of range")

// ErrUnexpectedCharacter indicates trailing or malformed input.
var ErrUnexpectedCharacter = errors.New("unexpected character")

// ErrTooManyOperations indicates an expression chain longer than
// MaxOperations.
var ErrTooManyOperations = errors.New("too many chained operations")

// ParseError reports a parse failure and the byte offset it occurred at.
// Use errors.Is against the Err... sentinels to match the failure kind.
type ParseError struct {
	Pos int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Pos)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(pos int, err error) error {
	return &ParseError{Pos: pos, Err: err}
}

// Parse turns a single notation string into an Expression. The whole input
// must be consumed; any trailing character after a full expression is an
// error.
func Parse(input string) (Expression, error) {
	p := &parser{input: input}
	base, err := p.parseTerm()
	if err != nil {
		return Expression{}, err
	}
	expr := Expression{Base: base}
	for !p.eof() {
		opPos := p.pos
		var op Operator
		switch p.input[p.pos] {
		case '+':
			op = Add
		case '-':
			op = Subtract
		case '*':
			op = Multiply
		case '/':
			op = Divide
		default:
			return Expression{}, parseErr(opPos, ErrUnexpectedCharacter)
		}
		if len(expr.Operations) >= MaxOperations {
			return Expression{}, parseErr(opPos, ErrTooManyOperations)
		}
		p.pos++
		term, err := p.parseTerm()
		if err != nil {
			if errors.Is(err, ErrInvalidFormat) {
				return Expression{}, parseErr(p.pos, ErrUnexpectedCharacter)
			}
			return Expression{}, err
		}
		expr.Operations = append(expr.Operations, Operation{Operator: op, Term: term})
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peekIs(b byte) bool {
	return p.pos < len(p.input) && p.input[p.pos] == b
}

// peekIsLetter matches a notation letter case-insensitively.
func (p *parser) peekIsLetter(b byte) bool {
	return p.pos < len(p.input) && lower(p.input[p.pos]) == b
}

// digits consumes a run of decimal digits and returns its lexeme.
func (p *parser) digits() (string, bool) {
	start := p.pos
	for p.pos < len(p.input) && isDigit(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	return p.input[start:p.pos], true
}

// parseTerm decides between a dice term and a signed number by looking
// ahead past optional leading digits for a 'd', restoring the position
// before committing to either branch.
func (p *parser) parseTerm() (Term, error) {
	i := p.pos
	for i < len(p.input) && isDigit(p.input[i]) {
		i++
	}
	if i < len(p.input) && lower(p.input[i]) == 'd' {
		spec, err := p.parseDice()
		if err != nil {
			return Term{}, err
		}
		return Term{Dice: spec}, nil
	}
	return p.parseNumber()
}

func (p *parser) parseDice() (*DiceSpec, error) {
	spec := &DiceSpec{Count: 1}
	countStart := p.pos
	if lexeme, ok := p.digits(); ok {
		n, err := parseUint32(lexeme, countStart)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, parseErr(countStart, ErrInvalidCount)
		}
		spec.Count = n
	}
	p.pos++ // the 'd' guaranteed by the caller's lookahead

	sidesStart := p.pos
	switch {
	case p.peekIs('%'):
		p.pos++
		spec.Sides = 100
	case p.peekIsLetter('f'):
		p.pos++
		spec.Sides = FudgeSides
	default:
		lexeme, ok := p.digits()
		if !ok {
			return nil, parseErr(sidesStart, ErrInvalidSides)
		}
		n, err := parseUint32(lexeme, sidesStart)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, parseErr(sidesStart, ErrInvalidSides)
		}
		spec.Sides = n
	}

	// Modifiers follow in a fixed syntactic order.
	explode, err := p.parseExplode()
	if err != nil {
		return nil, err
	}
	spec.Explode = explode

	reroll, err := p.parseReroll()
	if err != nil {
		return nil, err
	}
	spec.Reroll = reroll

	keepDrop, err := p.parseKeepDrop(spec.Count)
	if err != nil {
		return nil, err
	}
	spec.KeepDrop = keepDrop

	return spec, nil
}

func (p *parser) parseExplode() (*Explode, error) {
	if !p.peekIs('!') {
		return nil, nil
	}
	p.pos++
	explode := &Explode{Kind: ExplodeStandard}
	switch {
	case p.peekIs('!'):
		p.pos++
		explode.Kind = ExplodeCompound
	case p.peekIsLetter('p'):
		p.pos++
		explode.Kind = ExplodePenetrating
	}
	compare, err := p.parseComparePoint()
	if err != nil {
		return nil, err
	}
	explode.Compare = compare
	return explode, nil
}

func (p *parser) parseReroll() (*Reroll, error) {
	if !p.peekIsLetter('r') {
		return nil, nil
	}
	p.pos++
	reroll := &Reroll{}
	if p.peekIsLetter('o') {
		p.pos++
		reroll.Once = true
	}
	compare, err := p.parseComparePoint()
	if err != nil {
		return nil, err
	}
	if compare == nil {
		// A bare number is shorthand for "equals that value" (r1 == r=1).
		numStart := p.pos
		if lexeme, ok := p.digits(); ok {
			n, err := parseUint32(lexeme, numStart)
			if err != nil {
				return nil, err
			}
			compare = &ComparePoint{Op: CompareEqual, Value: n}
		}
	}
	reroll.Compare = compare
	return reroll, nil
}

// parseKeepDrop parses a trailing keep/drop modifier. A 'd' only introduces
// a drop modifier when immediately followed by 'h', 'l', or a digit;
// otherwise the position is restored and no modifier is reported, leaving
// the character for the outer expression parser.
func (p *parser) parseKeepDrop(diceCount int) (*KeepDrop, error) {
	start := p.pos
	var kind KeepDropKind
	switch {
	case p.peekIsLetter('k'):
		p.pos++
		kind = KeepHighest
		switch {
		case p.peekIsLetter('h'):
			p.pos++
		case p.peekIsLetter('l'):
			p.pos++
			kind = KeepLowest
		}
	case p.peekIsLetter('d'):
		p.pos++
		kind = DropLowest
		switch {
		case p.peekIsLetter('h'):
			p.pos++
			kind = DropHighest
		case p.peekIsLetter('l'):
			p.pos++
		default:
			if p.eof() || !isDigit(p.input[p.pos]) {
				p.pos = start
				return nil, nil
			}
		}
	default:
		return nil, nil
	}
	numStart := p.pos
	lexeme, ok := p.digits()
	if !ok {
		return nil, parseErr(numStart, ErrInvalidModifier)
	}
	n, err := parseUint32(lexeme, numStart)
	if err != nil {
		return nil, err
	}
	if n == 0 || n > diceCount {
		return nil, parseErr(numStart, ErrInvalidModifier)
	}
	return &KeepDrop{Kind: kind, Count: n}, nil
}

func (p *parser) parseComparePoint() (*ComparePoint, error) {
	opPos := p.pos
	var op CompareOp
	switch {
	case p.peekIs('='):
		p.pos++
		op = CompareEqual
	case p.peekIs('>'):
		p.pos++
		op = CompareGreater
		if p.peekIs('=') {
			p.pos++
			op = CompareGreaterEqual
		}
	case p.peekIs('<'):
		p.pos++
		op = CompareLess
		if p.peekIs('=') {
			p.pos++
			op = CompareLessEqual
		}
	default:
		return nil, nil
	}
	numStart := p.pos
	lexeme, ok := p.digits()
	if !ok {
		return nil, parseErr(opPos, ErrInvalidModifier)
	}
	n, err := parseUint32(lexeme, numStart)
	if err != nil {
		return nil, err
	}
	return &ComparePoint{Op: op, Value: n}, nil
}

func (p *parser) parseNumber() (Term, error) {
	start := p.pos
	negative := false
	switch {
	case p.peekIs('+'):
		p.pos++
	case p.peekIs('-'):
		p.pos++
		negative = true
	}
	numStart := p.pos
	lexeme, ok := p.digits()
	if !ok {
		p.pos = start
		return Term{}, parseErr(start, ErrInvalidFormat)
	}
	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return Term{}, parseErr(numStart, ErrOverflow)
	}
	if negative {
		value = -value
	}
	if value < math.MinInt32 || value > math.MaxInt32 {
		return Term{}, parseErr(numStart, ErrOverflow)
	}
	return Term{Number: int(value)}, nil
}

func parseUint32(lexeme string, pos int) (int, error) {
	value, err := strconv.ParseUint(lexeme, 10, 32)
	if err != nil {
		return 0, parseErr(pos, ErrOverflow)
	}
	return int(value), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
