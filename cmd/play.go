package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/stretchplayer/internal/player"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var (
	playDeviceIdx  int
	playFrames     int
	playSampleRate int
	playChannels   int
	playSpeed      float32
	playPitch      float32
	playVolume     float32
	playLoopStart  float64
	playLoopEnd    float64
	playPaused     bool
	playVerbose    bool
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [audio_file]",
	Short: "Play an audio file with adjustable speed and pitch",
	Long: `Play an audio file using a real-time PortAudio callback stream.

The file is decoded in the background into a single float PCM buffer and
resampled to the device rate; playback then time-stretches and pitch-shifts
it live without one affecting the other.

Examples:
  # Play a file at normal speed
  stretchplayer play music.mp3

  # Half speed, same pitch
  stretchplayer play --speed 0.5 music.flac

  # Same speed, up a fifth
  stretchplayer play --pitch 1.5 music.wav

  # Loop the region between 10s and 20s at 80% speed
  stretchplayer play --loop-start 10 --loop-end 20 --speed 0.8 music.ogg

Supported Formats:
  WAV:  .wav (8/16/24/32-bit PCM)
  MP3:  .mp3
  FLAC: .flac, .fla
  OGG:  .ogg, .oga (Vorbis)

Parameter Ranges:
  --speed  0.25 .. 4.0  (playback rate factor)
  --pitch  0.5  .. 2.0  (transpose ratio, 2.0 = up one octave)
  --volume 0.0  .. 2.0  (linear gain)`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playDeviceIdx, "device", "d", 1, "Audio output device index")
	playCmd.Flags().IntVarP(&playFrames, "frames", "f", 512, "Audio frames per buffer")
	playCmd.Flags().IntVar(&playSampleRate, "samplerate", 48000, "Output stream sample rate in Hz")
	playCmd.Flags().IntVar(&playChannels, "channels", 2, "Output stream channel count")
	playCmd.Flags().Float32Var(&playSpeed, "speed", 1.0, "Playback speed factor (0.25-4.0)")
	playCmd.Flags().Float32Var(&playPitch, "pitch", 1.0, "Pitch transpose ratio (0.5-2.0)")
	playCmd.Flags().Float32Var(&playVolume, "volume", 1.0, "Linear gain (0.0-2.0)")
	playCmd.Flags().Float64Var(&playLoopStart, "loop-start", 0, "Loop region start in seconds")
	playCmd.Flags().Float64Var(&playLoopEnd, "loop-end", 0, "Loop region end in seconds (0 = no loop)")
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "Start with the transport paused")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlay(cmd *cobra.Command, args []string) {
	logLevel := slog.LevelInfo
	if playVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())

	pl := player.New(playDeviceIdx, playFrames, playSampleRate, playChannels)

	if err := pl.Start(); err != nil {
		slog.Error("Failed to open audio output", "error", err)
		os.Exit(1)
	}
	defer pl.Stop()

	st := pl.State()
	st.SetSpeed(playSpeed)
	st.SetPitch(playPitch)
	st.SetVolume(playVolume)
	st.SetPlaying(!playPaused)

	if len(args) == 1 {
		if err := pl.LoadFile(args[0]); err != nil {
			slog.Error("Failed to start load", "file", args[0], "error", err)
			os.Exit(1)
		}
		waitForLoad(pl)
		applyLoopFlags(pl)
	} else {
		slog.Info("No file given; waiting for a load command")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			slog.Info("Interrupted, shutting down")
			return
		case <-ticker.C:
			status := st.Status()
			if status.TotalSamples == 0 {
				continue
			}
			slog.Info("Playback status",
				"file", status.FilePath,
				"playing", status.IsPlaying,
				"position", status.Elapsed.Round(10*time.Millisecond),
				"duration", status.Total.Round(10*time.Millisecond),
				"speed", status.Speed,
				"pitch", status.Pitch)
		}
	}
}

// waitForLoad blocks until the background load settles, so loop flags can be
// applied against the loaded buffer length.
func waitForLoad(pl *player.Player) {
	for pl.State().IsLoading() {
		time.Sleep(20 * time.Millisecond)
	}
}

// applyLoopFlags converts the loop flags from seconds to sample indices.
func applyLoopFlags(pl *player.Player) {
	if playLoopEnd <= playLoopStart || playLoopEnd <= 0 {
		return
	}
	status := pl.State().Status()
	if status.TotalSamples == 0 || status.SampleRate == 0 {
		return
	}

	perSecond := float64(status.SampleRate * status.Channels)
	pl.State().SetLoopStart(int(playLoopStart * perSecond))
	pl.State().SetLoopEnd(int(playLoopEnd * perSecond))

	start, end := pl.State().LoopBounds()
	slog.Info("Loop region set", "loop_start", start, "loop_end", end)
}
