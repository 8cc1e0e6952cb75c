package symbolic

import "errors"

var (
	ErrSyntax            = errors.New("syntax error")
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrDomain            = errors.New("math domain error")
	ErrUnsupported       = errors.New("unsupported")
	ErrNoSolution        = errors.New("no solution")
)
