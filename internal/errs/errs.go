// Package errs defines the error taxonomy shared by every numerical and
// control-flow package in the engine. Every kernel either returns a
// well-defined value or surfaces one of these kinds with enough context to
// diagnose without re-running. The engine's metric assembly is the one
// place that drops such an error: it leaves the affected metric at zero.
package errs

import "fmt"

// Kind classifies an engine error without tying callers to a specific type
// per operation — errors.As(&Error{}) recovers Kind/Op/context uniformly.
type Kind string

const (
	KindInput                 Kind = "input"
	KindNumerical             Kind = "numerical"
	KindDegenerateMetric      Kind = "degenerate_metric"
	KindDegenerateFrontier    Kind = "degenerate_frontier"
	KindShape                 Kind = "shape"
	KindInvalidInput          Kind = "invalid_input"
	KindConstraintsUnsatisfiable Kind = "constraints_unsatisfiable"
	KindIO                    Kind = "io"
)

// Error is the concrete error type surfaced by the engine. Op names the
// failing operation (e.g. "solver.Solve", "riskmetrics.Sharpe") and Context
// carries the parameter values relevant to the failure.
type Error struct {
	Kind    Kind
	Op      string
	Context map[string]any
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %v: %v", e.Op, e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s %v", e.Op, e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Context: ctx}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, op string, ctx map[string]any, err error) *Error {
	return &Error{Kind: kind, Op: op, Context: ctx, Err: err}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
