package pkg

// loaderfunc.go defines the signature of the evaluation callback that
// loader.go's loaderGroup runs to turn a pending thunk into a Forced result.
// Force does not use it; Force reduces through the Evaluator interface.
//
// The callback MUST NOT touch the Cache itself.
//
// © 2025 evalhash authors. MIT License.

import (
	"context"

	"github.com/Voskan/evalhash/langvalue"
)

// EvalFunc reduces a pending thunk to a Forced result. It is supplied by the
// evaluator, not by evalhash: this package only memoizes, it never reduces
// expressions itself (spec.md §1).
type EvalFunc func(ctx context.Context) (langvalue.Forced, error)
