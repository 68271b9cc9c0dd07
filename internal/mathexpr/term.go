// Package mathexpr parses and evaluates arithmetic expressions over float64.
//
// Parsing is delegated to the expr-lang parser; the resulting AST is then
// restricted to numeric literals, the constants pi and e, arithmetic
// operators and a fixed set of math functions. Evaluation is set-valued:
// functions such as sqrt yield every real answer, and operators combine the
// answers of their operands.
package mathexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"
)

const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precAtom
)

var constants = map[string]float64{
	"pi": piValue,
	"e":  eValue,
}

var binaryOps = map[string]string{
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"/":  "/",
	"%":  "%",
	"^":  "^",
	"**": "^",
}

// Term is a parsed expression. It is immutable and safe to evaluate
// any number of times.
type Term struct {
	root node
}

// Parse parses input into a Term. Any input that is not a plain arithmetic
// expression yields a *ParseError.
func Parse(input string) (term *Term, err error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Input: input, Err: fmt.Errorf("empty expression")}
	}

	// the expr parser is fed arbitrary user text
	defer func() {
		if r := recover(); r != nil {
			term = nil
			err = &ParseError{Input: input, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	tree, err := parser.ParseWithConfig(input, conf.CreateNew())
	if err != nil {
		return nil, &ParseError{Input: input, Err: err}
	}

	root, err := convert(tree.Node)
	if err != nil {
		return nil, &ParseError{Input: input, Err: err}
	}

	return &Term{root: root}, nil
}

// String returns the canonical textual form of the term, with single spaces
// around binary operators and only the parentheses precedence requires.
func (t *Term) String() string {
	return t.root.String()
}

// Eval evaluates the term. Either every answer is returned or an error is;
// there is no partial result.
func (t *Term) Eval() (Answer, error) {
	values, err := t.root.eval()
	if err != nil {
		return Answer{}, err
	}
	return Answer{values: values}, nil
}

type node interface {
	fmt.Stringer
	eval() ([]float64, error)
	precedence() int
}

func convert(n ast.Node) (node, error) {
	switch n := n.(type) {
	case *ast.IntegerNode:
		return numberNode(float64(n.Value)), nil
	case *ast.FloatNode:
		return numberNode(n.Value), nil
	case *ast.IdentifierNode:
		if _, ok := constants[n.Value]; ok {
			return constNode(n.Value), nil
		}
		return nil, fmt.Errorf("unknown name %q", n.Value)
	case *ast.UnaryNode:
		if n.Operator != "-" && n.Operator != "+" {
			return nil, fmt.Errorf("unsupported operator %q", n.Operator)
		}
		operand, err := convert(n.Node)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: n.Operator, operand: operand}, nil
	case *ast.BinaryNode:
		op, ok := binaryOps[n.Operator]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", n.Operator)
		}
		left, err := convert(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := convert(n.Right)
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: op, left: left, right: right}, nil
	case *ast.CallNode:
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("unsupported call target")
		}
		return convertCall(ident.Value, n.Arguments)
	case *ast.BuiltinNode:
		return convertCall(n.Name, n.Arguments)
	default:
		return nil, fmt.Errorf("unsupported expression %T", n)
	}
}

func convertCall(name string, arguments []ast.Node) (node, error) {
	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	if len(arguments) < fn.minArgs || (fn.maxArgs >= 0 && len(arguments) > fn.maxArgs) {
		return nil, fmt.Errorf("wrong number of arguments to %s: %d", name, len(arguments))
	}

	args := make([]node, 0, len(arguments))
	for _, a := range arguments {
		arg, err := convert(a)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &callNode{name: name, fn: fn, args: args}, nil
}

type numberNode float64

func (n numberNode) String() string  { return FormatNumber(float64(n)) }
func (n numberNode) precedence() int { return precAtom }

type constNode string

func (n constNode) String() string  { return string(n) }
func (n constNode) precedence() int { return precAtom }

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) String() string {
	if n.operand.precedence() <= precUnary {
		return n.op + "(" + n.operand.String() + ")"
	}
	return n.op + n.operand.String()
}

func (n *unaryNode) precedence() int { return precUnary }

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) String() string {
	p := n.precedence()
	lwrap := n.left.precedence() < p
	rwrap := n.right.precedence() <= p
	if n.op == "^" {
		// right-associative
		lwrap = n.left.precedence() <= p
		rwrap = n.right.precedence() < p
	}
	return wrap(n.left.String(), lwrap) + " " + n.op + " " + wrap(n.right.String(), rwrap)
}

func (n *binaryNode) precedence() int {
	switch n.op {
	case "+", "-":
		return precAdd
	case "^":
		return precPow
	default:
		return precMul
	}
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n *callNode) String() string {
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = a.String()
	}
	return n.name + "(" + strings.Join(args, ", ") + ")"
}

func (n *callNode) precedence() int { return precAtom }

func wrap(s string, parens bool) string {
	if parens {
		return "(" + s + ")"
	}
	return s
}

// FormatNumber formats x as a plain decimal with the fewest digits that
// round-trip, never using exponent notation. Negative zero prints as 0.
func FormatNumber(x float64) string {
	if x == 0 {
		x = 0
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
