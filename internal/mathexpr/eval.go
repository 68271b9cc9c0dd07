package mathexpr

import (
	"math"
	"slices"
)

const (
	piValue = math.Pi
	eValue  = math.E
)

// maxAnswers bounds the distinct values any subterm may produce.
const maxAnswers = 256

// maxCombinations bounds the operand combinations tried for one operator
// or function call before duplicates are removed.
const maxCombinations = maxAnswers * maxAnswers

// Answer holds the outcome of evaluating a term: one value in the common
// case, several when the expression has more than one real solution.
type Answer struct {
	values []float64
}

// Values returns the answers in evaluation order.
func (a Answer) Values() []float64 {
	return slices.Clone(a.values)
}

// IsMultiple reports whether evaluation produced more than one answer.
func (a Answer) IsMultiple() bool {
	return len(a.values) > 1
}

func (n numberNode) eval() ([]float64, error) {
	return []float64{float64(n)}, nil
}

func (n constNode) eval() ([]float64, error) {
	return []float64{constants[string(n)]}, nil
}

func (n *unaryNode) eval() ([]float64, error) {
	values, err := n.operand.eval()
	if err != nil {
		return nil, err
	}
	if n.op == "+" {
		return values, nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = -v
	}
	return out, nil
}

func (n *binaryNode) eval() ([]float64, error) {
	left, err := n.left.eval()
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval()
	if err != nil {
		return nil, err
	}

	if len(left)*len(right) > maxCombinations {
		return nil, &EvalError{Op: n.op, Err: ErrTooManyAnswers}
	}

	out := make([]float64, 0, len(left)*len(right))
	for _, a := range left {
		for _, b := range right {
			v, err := applyBinary(n.op, a, b)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return limit(n.op, distinct(out))
}

// distinct drops repeated values, keeping the first occurrence of each.
// Zeroes of either sign count as one value.
func distinct(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func limit(op string, values []float64) ([]float64, error) {
	if len(values) > maxAnswers {
		return nil, &EvalError{Op: op, Err: ErrTooManyAnswers}
	}
	return values, nil
}

func applyBinary(op string, a, b float64) (float64, error) {
	var v float64
	switch op {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/":
		if b == 0 {
			return 0, &EvalError{Op: op, Err: ErrDivisionByZero}
		}
		v = a / b
	case "%":
		if b == 0 {
			return 0, &EvalError{Op: op, Err: ErrDivisionByZero}
		}
		v = math.Mod(a, b)
	case "^":
		v = math.Pow(a, b)
	}
	if !isFinite(v) {
		return 0, &EvalError{Op: op, Err: ErrNonFinite}
	}
	return v, nil
}

func (n *callNode) eval() ([]float64, error) {
	argValues := make([][]float64, len(n.args))
	for i, a := range n.args {
		values, err := a.eval()
		if err != nil {
			return nil, err
		}
		argValues[i] = values
	}

	combos, ok := product(argValues)
	if !ok {
		return nil, &EvalError{Op: n.name, Err: ErrTooManyAnswers}
	}

	var out []float64
	for _, args := range combos {
		values, err := n.fn.apply(args)
		if err != nil {
			return nil, &EvalError{Op: n.name, Err: err}
		}
		for _, v := range values {
			if !isFinite(v) {
				return nil, &EvalError{Op: n.name, Err: ErrNonFinite}
			}
		}
		out = append(out, values...)
	}
	return limit(n.name, distinct(out))
}

// product returns every combination of one value per argument, with the
// first argument varying slowest. It reports false instead of building
// more than maxCombinations combinations.
func product(sets [][]float64) ([][]float64, bool) {
	total := 1
	for _, set := range sets {
		total *= len(set)
		if total > maxCombinations {
			return nil, false
		}
	}

	combos := [][]float64{{}}
	for _, set := range sets {
		next := make([][]float64, 0, len(combos)*len(set))
		for _, c := range combos {
			for _, v := range set {
				combo := make([]float64, len(c), len(c)+1)
				copy(combo, c)
				next = append(next, append(combo, v))
			}
		}
		combos = next
	}
	return combos, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type function struct {
	minArgs int
	maxArgs int // -1 for variadic
	apply   func(args []float64) ([]float64, error)
}

func unary(f func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, apply: func(args []float64) ([]float64, error) {
		return []float64{f(args[0])}, nil
	}}
}

var functions = map[string]function{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"atan":  unary(math.Atan),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"asin": {minArgs: 1, maxArgs: 1, apply: func(args []float64) ([]float64, error) {
		if args[0] < -1 || args[0] > 1 {
			return nil, ErrDomain
		}
		return []float64{math.Asin(args[0])}, nil
	}},
	"acos": {minArgs: 1, maxArgs: 1, apply: func(args []float64) ([]float64, error) {
		if args[0] < -1 || args[0] > 1 {
			return nil, ErrDomain
		}
		return []float64{math.Acos(args[0])}, nil
	}},
	"atan2": {minArgs: 2, maxArgs: 2, apply: func(args []float64) ([]float64, error) {
		return []float64{math.Atan2(args[0], args[1])}, nil
	}},
	"sqrt": {minArgs: 1, maxArgs: 1, apply: func(args []float64) ([]float64, error) {
		return root(args[0], 2)
	}},
	"nrt": {minArgs: 2, maxArgs: 2, apply: func(args []float64) ([]float64, error) {
		return root(args[0], args[1])
	}},
	"ln": {minArgs: 1, maxArgs: 1, apply: func(args []float64) ([]float64, error) {
		if args[0] <= 0 {
			return nil, ErrDomain
		}
		return []float64{math.Log(args[0])}, nil
	}},
	"log": {minArgs: 1, maxArgs: 2, apply: func(args []float64) ([]float64, error) {
		if args[0] <= 0 {
			return nil, ErrDomain
		}
		if len(args) == 1 {
			return []float64{math.Log10(args[0])}, nil
		}
		base := args[1]
		if base <= 0 || base == 1 {
			return nil, ErrDomain
		}
		return []float64{math.Log(args[0]) / math.Log(base)}, nil
	}},
	"max": {minArgs: 1, maxArgs: -1, apply: func(args []float64) ([]float64, error) {
		return []float64{slices.Max(args)}, nil
	}},
	"min": {minArgs: 1, maxArgs: -1, apply: func(args []float64) ([]float64, error) {
		return []float64{slices.Min(args)}, nil
	}},
}

// root returns the real n-th roots of x. Even integer degrees yield both
// signs; odd integer degrees preserve the sign of x.
func root(x, n float64) ([]float64, error) {
	if n == 0 {
		return nil, ErrDomain
	}
	integral := n == math.Trunc(n)
	odd := integral && math.Mod(math.Abs(n), 2) == 1

	if x < 0 {
		if !odd {
			return nil, ErrDomain
		}
		return []float64{-math.Pow(-x, 1/n)}, nil
	}

	r := math.Pow(x, 1/n)
	if n == 2 {
		r = math.Sqrt(x)
	}
	if r == 0 || odd || !integral {
		return []float64{r}, nil
	}
	return []float64{r, -r}, nil
}
