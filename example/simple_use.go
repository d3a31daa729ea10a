package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/leandrodaf/chordsense/sdk/interpreter"
	"github.com/leandrodaf/chordsense/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	if err = client.SelectDevice(devices[0].ID); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	in, err := interpreter.NewInterpreter(contracts.WithInterpreterLogger(log))
	if err != nil {
		log.Error("Failed to create interpreter", log.Field().Error("error", err))
		return
	}
	defer in.Dispose()

	in.SubscribeToChordEvents(func(ev contracts.ChordEvent) {
		name := "?"
		if ev.Name != nil {
			name = *ev.Name
		}
		log.Info("Chord",
			log.Field().String("hand", ev.Hand.String()),
			log.Field().String("role", ev.Role.String()),
			log.Field().String("name", name),
			log.Field().Ints("notes", ev.Notes),
		)
	})
	in.SubscribeToSplitChanges(func(ev contracts.SplitChangeEvent) {
		log.Info("Split moved", log.Field().Int("splitPitch", ev.SplitPitch))
	})

	eventChannel := make(chan contracts.MIDI, 100)
	client.StartCapture(eventChannel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Interpreting chords... Press Ctrl+C to exit.")
	_ = interpreter.Pump(ctx, eventChannel, in)
}
