package main

import (
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-pianoroll/cmd"
)

func main() {
	defer gomidi.CloseDriver()
	cmd.Execute()
}
