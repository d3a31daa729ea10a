package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/leandrodaf/chordsense/sdk/interpreter"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	leftWindow  time.Duration
	rightWindow time.Duration
	splitPitch  int
)

var rootCmd = &cobra.Command{
	Use:   "chordsense",
	Short: "Real-time chord interpretation for MIDI keyboards",
	Long: `chordsense groups incoming notes into chords per hand, names them and
tracks where the player's hands divide the keyboard.`,
	SilenceUsage: true,
}

func init() {
	defaults := contracts.DefaultInterpreterOptions()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.DurationVar(&leftWindow, "left-window", defaults.ChordWindowLeft, "left-hand chord window")
	flags.DurationVar(&rightWindow, "right-window", defaults.ChordWindowRight, "right-hand chord window")
	flags.IntVar(&splitPitch, "split", defaults.SplitInitial, "initial split point (MIDI pitch)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLogger builds the process logger at the level chosen on the command line.
func newLogger() contracts.Logger {
	log := logger.NewZapLogger()
	log.SetLevel(contracts.ParseLogLevel(logLevel))
	return log
}

// interpreterOptions maps the shared flags onto interpreter options. Roll
// extensions and split bounds widen when a flag would otherwise violate them.
func interpreterOptions(log contracts.Logger, extra ...contracts.InterpreterOption) []contracts.InterpreterOption {
	defaults := contracts.DefaultInterpreterOptions()
	opts := []contracts.InterpreterOption{
		contracts.WithInterpreterLogger(log),
		contracts.WithInterpreterLogLevel(contracts.ParseLogLevel(logLevel)),
		contracts.WithChordWindows(leftWindow, rightWindow),
		contracts.WithRollExtensions(
			max(defaults.RollExtensionLeft, leftWindow),
			max(defaults.RollExtensionRight, rightWindow),
		),
		contracts.WithSplit(splitPitch, min(defaults.SplitMin, splitPitch), max(defaults.SplitMax, splitPitch)),
	}
	return append(opts, extra...)
}

func newInterpreter(log contracts.Logger, extra ...contracts.InterpreterOption) (contracts.Interpreter, error) {
	return interpreter.NewInterpreter(interpreterOptions(log, extra...)...)
}

// printChord writes one line per chord event.
func printChord(w io.Writer, ev contracts.ChordEvent) {
	name := "-"
	if ev.Name != nil {
		name = *ev.Name
	}
	notes := make([]string, len(ev.Notes))
	for i, n := range ev.Notes {
		notes[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(w, "%-5s %-8s %-10s [%s] %.0fms\n",
		ev.Hand, ev.Role, name, strings.Join(notes, " "),
		float64(ev.WindowDuration)/float64(time.Millisecond))
}
