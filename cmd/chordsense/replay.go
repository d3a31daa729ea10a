package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/leandrodaf/chordsense/internal/replay"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/spf13/cobra"
)

// drainMargin is added to the longest window before the replay exits.
const drainMargin = 20 * time.Millisecond

func init() {
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <file.mid>",
	Short: "Interprets a Standard MIDI File in real time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		log := newLogger()
		timeline, err := replay.Load(args[0])
		if err != nil {
			return err
		}
		log.Info("replaying",
			log.Field().String("file", args[0]),
			log.Field().Int("events", len(timeline)),
			log.Field().Duration("duration", timeline.Duration()))

		clk := clock.New()
		in, err := newInterpreter(log, contracts.WithClock(clk))
		if err != nil {
			return err
		}
		defer in.Dispose()

		in.SubscribeToChordEvents(func(ev contracts.ChordEvent) {
			printChord(cmd.OutOrStdout(), ev)
		})

		if err := replay.Play(ctx, clk, timeline, in); err != nil {
			return err
		}

		// Let windows still open at the end of the file close.
		defaults := contracts.DefaultInterpreterOptions()
		drain := max(defaults.RollExtensionLeft, defaults.RollExtensionRight, leftWindow, rightWindow)
		select {
		case <-ctx.Done():
		case <-clk.After(drain + drainMargin):
		}
		return nil
	},
}

var _ replay.Target = contracts.Interpreter(nil)
