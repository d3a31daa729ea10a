// Package interpreter is the public entry point to the chord interpreter.
package interpreter

import (
	"github.com/leandrodaf/chordsense/internal/engine"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// NewInterpreter creates a chord interpreter with the specified options.
// Unset options keep their defaults (see contracts.DefaultInterpreterOptions).
//
// opts ...contracts.InterpreterOption: option functions customizing the interpreter.
//
// Returns:
//   - contracts.Interpreter: a running interpreter; call Dispose when done.
//   - error: wraps contracts.ErrInvalidOptions when the configuration is inconsistent.
func NewInterpreter(opts ...contracts.InterpreterOption) (contracts.Interpreter, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(options)
	if err != nil {
		return nil, err
	}
	return e, nil
}
