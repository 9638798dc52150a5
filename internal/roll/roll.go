// Package roll evaluates parsed dice expressions against a random source.
package roll

import (
	"errors"
	"math"
	"sort"

	"github.com/verte-zerg/droll/internal/notation"
)

// MaxDice bounds how many dice a single dice term may hold, explosions
// included.
const MaxDice = 256

// Safety caps on modifier loops. Hitting a cap stops further work silently;
// it is a deterministic truncation, not an error.
const (
	maxExplosions = 100
	maxRerolls    = 100
)

// ErrDivisionByZero indicates a division by a zero operand.
var ErrDivisionByZero = errors.New("division by zero")

// ErrOverflow indicates arithmetic outside the signed 32-bit range.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrTooManyDice indicates a dice term with more than MaxDice dice.
var ErrTooManyDice = errors.New("too many dice")

// Source draws a uniform value in [1, sides]. Draw order is part of the
// observable contract: for a deterministic source, identical expressions
// produce identical results.
type Source interface {
	Roll(sides int) int
}

// Die is the outcome of a single die. For Fudge dice, Value stays in the
// internal 1..3 domain; FudgeValue maps it for display.
type Die struct {
	Value    int
	Kept     bool
	Exploded bool
}

// FudgeValue maps the internal 1..3 Fudge domain to the -1/0/+1 display
// values.
func FudgeValue(value int) int {
	return value - 2
}

// DiceResult is the outcome of one dice term, in draw order. Subtotal sums
// the values of kept dice.
type DiceResult struct {
	Dice     []Die
	Subtotal int
}

// Result is the outcome of a whole expression. Terms holds one DiceResult
// per dice term, in expression order. HasModifiers reports whether any dice
// term carried a modifier or the expression chained arithmetic, i.e.
// whether the total says more than the dice themselves.
type Result struct {
	Terms        []DiceResult
	Total        int
	HasModifiers bool
}

// KeptDropped counts kept and dropped dice across all terms.
func (r *Result) KeptDropped() (kept, dropped int) {
	for _, term := range r.Terms {
		for _, die := range term.Dice {
			if die.Kept {
				kept++
			} else {
				dropped++
			}
		}
	}
	return kept, dropped
}

// Evaluate walks the expression left to right, drawing dice from src and
// applying modifiers in the fixed order explode, reroll, keep/drop.
func Evaluate(expr notation.Expression, src Source) (*Result, error) {
	result := &Result{HasModifiers: len(expr.Operations) > 0}

	total, err := evaluateTerm(expr.Base, src, result)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Operations {
		value, err := evaluateTerm(op.Term, src, result)
		if err != nil {
			return nil, err
		}
		total, err = apply(op.Operator, total, value)
		if err != nil {
			return nil, err
		}
	}
	result.Total = total
	return result, nil
}

// evaluateTerm resolves one term to its numeric value, appending a
// DiceResult to result for dice terms.
func evaluateTerm(term notation.Term, src Source, result *Result) (int, error) {
	if term.Dice == nil {
		return term.Number, nil
	}
	if term.Dice.Modified() {
		result.HasModifiers = true
	}
	diceResult, err := evaluateDice(*term.Dice, src)
	if err != nil {
		return 0, err
	}
	if diceResult.Subtotal < math.MinInt32 || diceResult.Subtotal > math.MaxInt32 {
		return 0, ErrOverflow
	}
	result.Terms = append(result.Terms, diceResult)
	return diceResult.Subtotal, nil
}

func evaluateDice(spec notation.DiceSpec, src Source) (DiceResult, error) {
	if spec.Count > MaxDice {
		return DiceResult{}, ErrTooManyDice
	}

	draw := func() int {
		if spec.Fudge() {
			return src.Roll(3)
		}
		return src.Roll(spec.Sides)
	}

	dice := make([]Die, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		dice = append(dice, Die{Value: draw(), Kept: true})
	}

	if spec.Explode != nil {
		var err error
		dice, err = explodeDice(dice, spec, draw)
		if err != nil {
			return DiceResult{}, err
		}
	}
	if spec.Reroll != nil {
		rerollDice(dice, *spec.Reroll, draw)
	}
	if spec.KeepDrop != nil {
		applyKeepDrop(dice, *spec.KeepDrop)
	}

	subtotal := 0
	for _, die := range dice {
		if die.Kept {
			subtotal += die.Value
		}
	}
	return DiceResult{Dice: dice, Subtotal: subtotal}, nil
}

// explodeDice runs the explode loop. One-sided and Fudge dice never
// explode: the default condition would always (d1) or never meaningfully
// (dF) hold.
func explodeDice(dice []Die, spec notation.DiceSpec, draw func() int) ([]Die, error) {
	if spec.Sides == 1 || spec.Fudge() {
		return dice, nil
	}
	cfg := *spec.Explode
	matches := func(value int) bool {
		if cfg.Compare != nil {
			return cfg.Compare.Op.Matches(value, cfg.Compare.Value)
		}
		return value == spec.Sides
	}

	explosions := 0
	for i := 0; i < len(dice); i++ {
		if dice[i].Exploded || !matches(dice[i].Value) {
			continue
		}
		if explosions >= maxExplosions {
			break
		}
		if cfg.Kind != notation.ExplodeCompound && len(dice) >= MaxDice {
			return nil, ErrTooManyDice
		}
		dice[i].Exploded = true
		explosions++
		switch cfg.Kind {
		case notation.ExplodeCompound:
			// Keep accumulating into the same die while the drawn value
			// itself meets the condition.
			for {
				value := draw()
				dice[i].Value += value
				if !matches(value) || explosions >= maxExplosions {
					break
				}
				explosions++
			}
		case notation.ExplodePenetrating:
			value := draw() - 1
			if value < 1 {
				value = 1
			}
			dice = append(dice, Die{Value: value, Kept: true})
		default:
			dice = append(dice, Die{Value: draw(), Kept: true})
		}
	}
	return dice, nil
}

func rerollDice(dice []Die, cfg notation.Reroll, draw func() int) {
	matches := func(value int) bool {
		if cfg.Compare != nil {
			return cfg.Compare.Op.Matches(value, cfg.Compare.Value)
		}
		return value == 1
	}
	for i := range dice {
		for rerolls := 0; matches(dice[i].Value) && rerolls < maxRerolls; rerolls++ {
			dice[i].Value = draw()
			if cfg.Once {
				break
			}
		}
	}
}

// applyKeepDrop ranks dice by value descending and flips Kept flags by
// rank. The sort is stable so ties keep draw order, which keeps seeded
// evaluations reproducible.
func applyKeepDrop(dice []Die, cfg notation.KeepDrop) {
	ranked := make([]int, len(dice))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return dice[ranked[a]].Value > dice[ranked[b]].Value
	})

	for rank, idx := range ranked {
		switch cfg.Kind {
		case notation.KeepHighest:
			dice[idx].Kept = rank < cfg.Count
		case notation.KeepLowest:
			dice[idx].Kept = rank >= len(dice)-cfg.Count
		case notation.DropHighest:
			dice[idx].Kept = rank >= cfg.Count
		case notation.DropLowest:
			dice[idx].Kept = rank < len(dice)-cfg.Count
		}
	}
}

// apply computes one arithmetic step with signed 32-bit overflow checks.
func apply(op notation.Operator, acc, value int) (int, error) {
	var out int64
	switch op {
	case notation.Add:
		out = int64(acc) + int64(value)
	case notation.Subtract:
		out = int64(acc) - int64(value)
	case notation.Multiply:
		out = int64(acc) * int64(value)
	case notation.Divide:
		if value == 0 {
			return 0, ErrDivisionByZero
		}
		out = int64(acc) / int64(value)
	}
	if out < math.MinInt32 || out > math.MaxInt32 {
		return 0, ErrOverflow
	}
	return int(out), nil
}
