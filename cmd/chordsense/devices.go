package main

import (
	"fmt"

	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/leandrodaf/chordsense/sdk/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Lists MIDI input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		client, err := midi.NewMIDIClient(contracts.WithLogger(log), contracts.WithLogLevel(contracts.ParseLogLevel(logLevel)))
		if err != nil {
			return err
		}
		defer client.Stop()

		devices, err := client.ListDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Fprintln(cmd.OutOrStdout(), d.String())
		}
		return nil
	},
}
