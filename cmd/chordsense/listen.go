package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/leandrodaf/chordsense/internal/httpapi"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/leandrodaf/chordsense/sdk/interpreter"
	"github.com/leandrodaf/chordsense/sdk/midi"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// splitLogDelay coalesces bursts of split changes into one log line.
const splitLogDelay = 500 * time.Millisecond

const eventBuffer = 256

var (
	deviceID int
	httpAddr string
)

func init() {
	listenCmd.Flags().IntVar(&deviceID, "device", 0, "MIDI input device number (see devices)")
	listenCmd.Flags().StringVar(&httpAddr, "http", "", "serve the read API on this address, e.g. :8080")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Interprets live input from a MIDI device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return listen(ctx, cmd)
	},
}

func listen(ctx context.Context, cmd *cobra.Command) error {
	log := newLogger()

	in, err := newInterpreter(log)
	if err != nil {
		return err
	}
	defer in.Dispose()

	in.SubscribeToChordEvents(func(ev contracts.ChordEvent) {
		printChord(cmd.OutOrStdout(), ev)
	})

	var lastSplit atomic.Int64
	debounced := debounce.New(splitLogDelay)
	in.SubscribeToSplitChanges(func(ev contracts.SplitChangeEvent) {
		lastSplit.Store(int64(ev.SplitPitch))
		debounced(func() {
			log.Info("split point", log.Field().Int64("splitPitch", lastSplit.Load()))
		})
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpDone := make(chan error, 1)
	if httpAddr != "" {
		srv := httpapi.New(in, httpapi.WithLogger(log))
		defer srv.Close()
		go func() {
			err := srv.ListenAndServe(ctx, httpAddr)
			if err != nil {
				cancel()
			}
			httpDone <- err
		}()
	} else {
		close(httpDone)
	}

	client, events, err := midi.OpenDevice(deviceID, eventBuffer,
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.ParseLogLevel(logLevel)),
	)
	if err != nil {
		return err
	}
	log.Info("listening", log.Field().Int("device", deviceID))

	pumpErr := interpreter.Pump(ctx, events, in)
	if errors.Is(pumpErr, context.Canceled) {
		pumpErr = nil
	}
	cancel()

	httpErr := <-httpDone
	if errors.Is(httpErr, context.Canceled) {
		httpErr = nil
	}
	return multierr.Combine(pumpErr, client.Stop(), httpErr)
}
