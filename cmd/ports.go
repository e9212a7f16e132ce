package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-pianoroll/midi"
	"go-pianoroll/playback"
	"go-pianoroll/synth"
)

var testNote bool

func init() {
	portsCmd.Flags().BoolVar(&testNote, "test-note", false, "play middle C on the configured port")
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI output ports",
	Long: `Lists the MIDI output ports the editor can play through. With --test-note
it also sends a short middle C to the configured port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		names, err := midi.OutPortNames(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, name := range names {
			fmt.Fprintf(out, "%d: %s\n", i, name)
		}
		if !testNote {
			return nil
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		synthOut := synth.New(cfg.Synth.Port, uint8(cfg.Synth.Channel), uint8(cfg.Synth.Velocity))
		defer synthOut.Close()
		if err := synthOut.Activate(ctx); err != nil {
			return err
		}

		c4 := playback.Trigger{Pitch: "C4", MIDINote: 60, Duration: 500 * time.Millisecond}
		fmt.Fprintf(out, "test note: %s on %q\n", c4.Pitch, cfg.Synth.Port)
		if err := synthOut.NoteOn(c4); err != nil {
			return err
		}
		time.Sleep(c4.Duration)
		return synthOut.NoteOff(c4)
	},
}
