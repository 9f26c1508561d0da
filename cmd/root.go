package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stretchplayer",
	Short: "Variable-speed, variable-pitch audio player",
	Long: `stretchplayer - An audio player with independently adjustable playback
speed and pitch, loop regions, scrub seeking and a peak waveform summary.

The whole file is decoded in the background into one float PCM buffer; a
real-time PortAudio callback time-stretches and pitch-shifts it per channel
with persistent phase-vocoder state, so parameter changes never click or chirp.

Features:
  - Speed and pitch adjusted independently, live, per output buffer
  - Loop region playback with durable wrap-around
  - Background decode with peak waveform summary for display
  - Lock-free control/render state sharing (no locks on the audio path)
  - Support for WAV, MP3, FLAC and Ogg/Vorbis audio formats

Commands:
  - play: Play an audio file with live playback status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
