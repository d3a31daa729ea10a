package interpreter

import (
	"github.com/benbjohnson/clock"
	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/internal/theory"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// applyDefaultOptions starts from the stock tuning, applies opts and fills in collaborators.
//
// Returns:
//   - contracts.InterpreterOptions: the finalized options.
//   - error: a combined error describing every invalid setting.
func applyDefaultOptions(opts ...contracts.InterpreterOption) (contracts.InterpreterOptions, error) {
	options := contracts.DefaultInterpreterOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.ChordNamer == nil {
		options.ChordNamer = theory.NewDictionary()
	}
	if options.Clock == nil {
		options.Clock = clock.New()
	}

	if err := options.Validate(); err != nil {
		return options, err
	}
	options.Logger.SetLevel(options.LogLevel)
	return options, nil
}
