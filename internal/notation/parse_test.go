package notation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/droll/internal/notation"
)

func dice(spec notation.DiceSpec) notation.Term {
	return notation.Term{Dice: &spec}
}

func number(n int) notation.Term {
	return notation.Term{Number: n}
}

func compare(op notation.CompareOp, value int) *notation.ComparePoint {
	return &notation.ComparePoint{Op: op, Value: value}
}

func TestParseDiceTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  notation.Expression
	}{
		{
			name:  "plain dice",
			input: "2d6",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 2, Sides: 6})},
		},
		{
			name:  "count defaults to 1",
			input: "d6",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 1, Sides: 6})},
		},
		{
			name:  "uppercase D",
			input: "3D8",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 3, Sides: 8})},
		},
		{
			name:  "percentile sides",
			input: "d%",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 1, Sides: 100})},
		},
		{
			name:  "fudge sides",
			input: "4dF",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 4, Sides: notation.FudgeSides})},
		},
		{
			name:  "lowercase fudge",
			input: "4df",
			want:  notation.Expression{Base: dice(notation.DiceSpec{Count: 4, Sides: notation.FudgeSides})},
		},
		{
			name:  "keep highest",
			input: "4d6k3",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 4, Sides: 6,
				KeepDrop: &notation.KeepDrop{Kind: notation.KeepHighest, Count: 3},
			})},
		},
		{
			name:  "keep lowest",
			input: "4d6kl2",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 4, Sides: 6,
				KeepDrop: &notation.KeepDrop{Kind: notation.KeepLowest, Count: 2},
			})},
		},
		{
			name:  "drop lowest via bare d",
			input: "4d6d1",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 4, Sides: 6,
				KeepDrop: &notation.KeepDrop{Kind: notation.DropLowest, Count: 1},
			})},
		},
		{
			name:  "drop highest",
			input: "4d6dh1",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 4, Sides: 6,
				KeepDrop: &notation.KeepDrop{Kind: notation.DropHighest, Count: 1},
			})},
		},
		{
			name:  "standard explode",
			input: "1d6!",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Explode: &notation.Explode{Kind: notation.ExplodeStandard},
			})},
		},
		{
			name:  "explode with condition",
			input: "1d6!>4",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Explode: &notation.Explode{Kind: notation.ExplodeStandard, Compare: compare(notation.CompareGreater, 4)},
			})},
		},
		{
			name:  "compound explode",
			input: "1d6!!",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Explode: &notation.Explode{Kind: notation.ExplodeCompound},
			})},
		},
		{
			name:  "penetrating explode",
			input: "1d6!p",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Explode: &notation.Explode{Kind: notation.ExplodePenetrating},
			})},
		},
		{
			name:  "explode with >= condition",
			input: "1d6!>=5",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Explode: &notation.Explode{Kind: notation.ExplodeStandard, Compare: compare(notation.CompareGreaterEqual, 5)},
			})},
		},
		{
			name:  "reroll default condition",
			input: "1d6r",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Reroll: &notation.Reroll{},
			})},
		},
		{
			name:  "reroll bare digit shorthand",
			input: "1d6r1",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Reroll: &notation.Reroll{Compare: compare(notation.CompareEqual, 1)},
			})},
		},
		{
			name:  "reroll once with condition",
			input: "1d6ro<3",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 1, Sides: 6,
				Reroll: &notation.Reroll{Once: true, Compare: compare(notation.CompareLess, 3)},
			})},
		},
		{
			name:  "all modifiers in order",
			input: "4d6!r1k3",
			want: notation.Expression{Base: dice(notation.DiceSpec{
				Count: 4, Sides: 6,
				Explode:  &notation.Explode{Kind: notation.ExplodeStandard},
				Reroll:   &notation.Reroll{Compare: compare(notation.CompareEqual, 1)},
				KeepDrop: &notation.KeepDrop{Kind: notation.KeepHighest, Count: 3},
			})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := notation.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  notation.Expression
	}{
		{
			name:  "number only",
			input: "5",
			want:  notation.Expression{Base: number(5)},
		},
		{
			name:  "signed positive number",
			input: "+5",
			want:  notation.Expression{Base: number(5)},
		},
		{
			name:  "signed negative number",
			input: "-3",
			want:  notation.Expression{Base: number(-3)},
		},
		{
			name:  "dice plus bonus",
			input: "2d6+3",
			want: notation.Expression{
				Base: dice(notation.DiceSpec{Count: 2, Sides: 6}),
				Operations: []notation.Operation{
					{Operator: notation.Add, Term: number(3)},
				},
			},
		},
		{
			name:  "chained operations keep order",
			input: "2d6*2+1d4",
			want: notation.Expression{
				Base: dice(notation.DiceSpec{Count: 2, Sides: 6}),
				Operations: []notation.Operation{
					{Operator: notation.Multiply, Term: number(2)},
					{Operator: notation.Add, Term: dice(notation.DiceSpec{Count: 1, Sides: 4})},
				},
			},
		},
		{
			name:  "dice term after operator",
			input: "1+d6",
			want: notation.Expression{
				Base: number(1),
				Operations: []notation.Operation{
					{Operator: notation.Add, Term: dice(notation.DiceSpec{Count: 1, Sides: 6})},
				},
			},
		},
		{
			name:  "subtraction and division",
			input: "10-1d4/2",
			want: notation.Expression{
				Base: number(10),
				Operations: []notation.Operation{
					{Operator: notation.Subtract, Term: dice(notation.DiceSpec{Count: 1, Sides: 4})},
					{Operator: notation.Divide, Term: number(2)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := notation.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty input", input: "", wantErr: notation.ErrInvalidFormat},
		{name: "bare letter", input: "x", wantErr: notation.ErrInvalidFormat},
		{name: "zero count", input: "0d6", wantErr: notation.ErrInvalidCount},
		{name: "zero sides", input: "2d0", wantErr: notation.ErrInvalidSides},
		{name: "missing sides", input: "2d", wantErr: notation.ErrInvalidSides},
		{name: "keep more than count", input: "4d6k5", wantErr: notation.ErrInvalidModifier},
		{name: "keep zero", input: "4d6k0", wantErr: notation.ErrInvalidModifier},
		{name: "keep without count", input: "4d6k", wantErr: notation.ErrInvalidModifier},
		{name: "drop more than count", input: "4d6d5", wantErr: notation.ErrInvalidModifier},
		{name: "dangling comparison", input: "1d6!>", wantErr: notation.ErrInvalidModifier},
		{name: "count overflow", input: "4294967296d6", wantErr: notation.ErrOverflow},
		{name: "sides overflow", input: "1d4294967296", wantErr: notation.ErrOverflow},
		{name: "number overflow", input: "4294967296", wantErr: notation.ErrOverflow},
		{name: "trailing garbage", input: "2d6q", wantErr: notation.ErrUnexpectedCharacter},
		{name: "bare trailing d", input: "2d6d", wantErr: notation.ErrUnexpectedCharacter},
		{name: "modifier order not rewritten", input: "1d6r1!", wantErr: notation.ErrUnexpectedCharacter},
		{name: "operator without term", input: "2d6+", wantErr: notation.ErrUnexpectedCharacter},
		{name: "operator followed by operator", input: "2d6+*3", wantErr: notation.ErrUnexpectedCharacter},
		{name: "whitespace rejected", input: "2d6 +3", wantErr: notation.ErrUnexpectedCharacter},
		{
			name:    "too many operations",
			input:   "1" + strings.Repeat("+1", notation.MaxOperations+1),
			wantErr: notation.ErrTooManyOperations,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := notation.Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var parseErr *notation.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseMaxOperationsBoundary(t *testing.T) {
	input := "1" + strings.Repeat("+1", notation.MaxOperations)
	got, err := notation.Parse(input)
	require.NoError(t, err)
	assert.Len(t, got.Operations, notation.MaxOperations)
}

func TestExpressionString(t *testing.T) {
	inputs := []string{
		"2d6",
		"4d6!r1k3",
		"1d6!!>5",
		"1d6!p",
		"4d6kl2",
		"4d6dh1",
		"4d6d1",
		"2d6+3-1d4",
		"1dF",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			expr, err := notation.Parse(input)
			require.NoError(t, err)

			// The canonical form must parse back to the same expression.
			reparsed, err := notation.Parse(expr.String())
			require.NoError(t, err)
			assert.Equal(t, expr, reparsed)
		})
	}
}
