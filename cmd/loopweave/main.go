// Command loopweave runs the live-coding music DSL from the terminal:
// live playback of a source file, recording a timed live playback to WAV,
// and quick synth/sample previews.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	loopweave "github.com/cbegin/loopweave-go"
	"github.com/cbegin/loopweave-go/internal/bridge"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		sampleRate int
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "loopweave",
		Short: "A live-coding music engine: parse, lower, and play a loop-based DSL",
	}
	root.PersistentFlags().IntVar(&sampleRate, "sample-rate", 48000, "output sample rate in Hz")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newLogger := func() zerolog.Logger {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
	}

	root.AddCommand(
		newRunCmd(&sampleRate, newLogger),
		newRenderCmd(&sampleRate, newLogger),
		newPreviewCmd(&sampleRate, newLogger),
	)
	return root
}

func newRunCmd(sampleRate *int, newLogger func() zerolog.Logger) *cobra.Command {
	var (
		external bool
		externalPort int
		samplesDir string
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Parse and play a source file in real time until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			log := newLogger()

			var opts []loopweave.PlayerOption
			opts = append(opts, loopweave.WithLogger(log))
			if samplesDir != "" {
				opts = append(opts, loopweave.WithSamplesRoot(samplesDir))
			}
			player, err := loopweave.NewPlayer(*sampleRate, opts...)
			if err != nil {
				return fmt.Errorf("starting player: %w", err)
			}

			if external {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				cfg := bridge.DefaultServerConfig(externalPort)
				if err := player.EnableExternalEngine(ctx, cfg); err != nil {
					log.Warn().Err(err).Msg("external engine unavailable, continuing on the in-process engine")
				}
			}

			result, err := player.RunCode(string(source))
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			fmt.Printf("running at %.1f bpm (setup %.2fms)\n", result.EffectiveBPM, result.SetupTimeMs)
			for _, line := range result.Logs {
				fmt.Println(line)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return player.Stop()
		},
	}
	cmd.Flags().BoolVar(&external, "external-engine", false, "boot and use the external synthesis server instead of the built-in mixer")
	cmd.Flags().IntVar(&externalPort, "external-port", bridge.DefaultPort, "UDP port for the external synthesis server")
	cmd.Flags().StringVar(&samplesDir, "samples", "", "directory to search for sample files, in place of the default samples root")
	return cmd
}

func newRenderCmd(sampleRate *int, newLogger func() zerolog.Logger) *cobra.Command {
	var (
		duration   float64
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Play a source file in real time and record --duration seconds to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--out is required")
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			log := newLogger()
			player, err := loopweave.NewPlayer(*sampleRate, loopweave.WithLogger(log))
			if err != nil {
				return fmt.Errorf("starting player: %w", err)
			}

			if err := player.StartRecording(outputPath); err != nil {
				return fmt.Errorf("starting recording: %w", err)
			}
			if _, err := player.RunCode(string(source)); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			time.Sleep(time.Duration(duration * float64(time.Second)))
			if err := player.Stop(); err != nil {
				log.Warn().Err(err).Msg("stop returned an error")
			}
			path, err := player.StopRecording()
			if err != nil {
				return fmt.Errorf("stopping recording: %w", err)
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 10, "seconds to render")
	cmd.Flags().StringVar(&outputPath, "out", "", "output WAV path (required)")
	return cmd
}

func newPreviewCmd(sampleRate *int, newLogger func() zerolog.Logger) *cobra.Command {
	var (
		synth string
		amp   float64
	)
	cmd := &cobra.Command{
		Use:   "preview <note>",
		Short: "Play a single note on one synth, or list known samples with --list-samples",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			player, err := loopweave.NewPlayer(*sampleRate, loopweave.WithLogger(log))
			if err != nil {
				return fmt.Errorf("starting player: %w", err)
			}

			listSamples, _ := cmd.Flags().GetBool("list-samples")
			if listSamples {
				for _, name := range player.ListSamples() {
					fmt.Println(name)
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("preview requires a note argument, e.g. \"c4\"")
			}
			if err := player.PreviewSynth(synth, args[0], amp); err != nil {
				return fmt.Errorf("preview: %w", err)
			}
			time.Sleep(1500 * time.Millisecond)
			return nil
		},
	}
	cmd.Flags().StringVar(&synth, "synth", "sine", "oscillator kind to preview")
	cmd.Flags().Float64Var(&amp, "amp", 0.8, "note amplitude")
	cmd.Flags().Bool("list-samples", false, "list every known sample name instead of playing a note")
	return cmd
}
