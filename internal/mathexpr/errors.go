package mathexpr

import (
	"errors"
	"fmt"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("argument out of domain")
	ErrNonFinite      = errors.New("result is not a finite number")
	ErrTooManyAnswers = errors.New("too many answers")
)

// ParseError reports input that is not a well-formed expression.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EvalError reports a well-formed expression that has no real value.
// Op names the operator or function that failed.
type EvalError struct {
	Op  string
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.Op, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
