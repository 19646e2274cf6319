package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/internal/logging"
	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/ZacxDev/video-watermarker/internal/tui"
	"github.com/ZacxDev/video-watermarker/internal/watch"
	"github.com/ZacxDev/video-watermarker/internal/watermark"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/ZacxDev/video-watermarker/pkg/watermarker"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// exitCode lets a command choose the process exit status.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

var (
	rootCmd = &cobra.Command{
		Use:   "video-watermarker",
		Short: "Burn a text watermark into a batch of videos",
		Long: `video-watermarker renders a text watermark once and composites it onto every
input video with ffmpeg, writing <name>_watermarked.mp4 into the output directory.

Examples:
  # Watermark three videos, bottom right
  video-watermarker apply -o ./out --text "© BProgy" --x 0.9 --y 0.9 a.mp4 b.mov c.mkv

  # Position the watermark interactively, then run
  video-watermarker tui -o ./out *.mp4`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	applyCmd = &cobra.Command{
		Use:   "apply [videos...]",
		Short: "Watermark a batch of videos",
		Long: `Watermark every given video. The first Ctrl+C stops the batch after the
current video; a second one exits immediately.

Exit status is 0 when every video succeeded, 130 when the batch was
cancelled without errors and 1 otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := loadOptions(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			token := processor.NewCancelToken()
			stop := cancelOnInterrupt(token, cmd.ErrOrStderr())
			defer stop()

			pipeline := watermarker.NewPipeline(opts, logger)
			result, err := pipeline.Run(cmd.Context(), watermarker.NewBatch(opts), token, printEvents(cmd.OutOrStdout()))
			if err != nil {
				return &exitCode{code: 1, err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())

			switch result.Status() {
			case processor.StatusCompleted:
				return nil
			case processor.StatusCancelled:
				return &exitCode{code: 130}
			default:
				return &exitCode{code: 1}
			}
		},
	}

	previewCmd = &cobra.Command{
		Use:   "preview",
		Short: "Render the watermark to a PNG without touching any video",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := loadOptions(cmd, nil)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("png")

			buf, handle, err := watermarker.Preview(cmd.Context(), opts, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			if buf == nil {
				return errors.New("nothing to render: watermark text is empty")
			}
			if err := watermark.WritePNG(buf, out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d) using %s font %q\n",
				out, buf.Width(), buf.Height(), handle.Source, handle.Name)
			if !handle.Scalable {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: %q was not found; the built-in font ignores the requested size\n",
					opts.Watermark.FontFamily)
			}
			return nil
		},
	}

	fontsCmd = &cobra.Command{
		Use:   "fonts <family>",
		Short: "Show how a font family is resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := loadOptions(cmd, nil)
			if err != nil {
				return err
			}
			handle, err := watermarker.NewFontResolver(opts, newLogger(cmd, cfg)).Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := handle.Path
			if path == "" {
				path = "(built in)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s via %s\n", args[0], path, handle.Source)
			return nil
		},
	}

	tuiCmd = &cobra.Command{
		Use:   "tui [videos...]",
		Short: "Position the watermark interactively and run the batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := loadOptions(cmd, args)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI, so logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if path, _ := cmd.Flags().GetString("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errors.Wrap(err, "failed to open log file")
				}
				defer f.Close()
				logOut = f
			}
			logger := logging.NewWithOutput("video-watermarker", cfg.Log.Level, opts.Verbose, logOut)

			runner := processor.NewRunner(watermarker.NewPipeline(opts, logger), logger.Named("runner"))
			final, err := tui.Run(runner, watermarker.NewBatch(opts))
			if err != nil {
				return err
			}
			runner.Wait()

			if final.Result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), final.Result.Summary())
			}
			return final.Err
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watermark videos as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := loadOptions(cmd, nil)
			if err != nil {
				return err
			}
			if err := processor.CheckOutputDir(opts.OutputDir); err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
			if cmd.Flags().Changed("settle") {
				settle, _ = cmd.Flags().GetDuration("settle")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline := watermarker.NewPipeline(opts, logger)
			w := watch.New(args[0], settle, func(ctx context.Context, paths []string) error {
				batchOpts := *opts
				batchOpts.InputPaths = paths
				result, err := pipeline.Run(ctx, watermarker.NewBatch(&batchOpts), processor.NewCancelToken(), printEvents(cmd.OutOrStdout()))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				return nil
			}, logger.Named("watch"))

			return w.Run(ctx)
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg, ffprobe and the required encoders",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks, err := ffmpeg.CheckDependencies(cmd.Context(), ffmpeg.SystemToolchain())
			for _, c := range checks {
				mark := "ok"
				if !c.OK {
					mark = "MISSING"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-8s %s\n", c.Name, mark, c.Detail)
			}
			return err
		},
	}
)

// loadOptions reads .env, the config file and the environment, then applies
// any flags the user set explicitly.
func loadOptions(cmd *cobra.Command, args []string) (*config.ApplyOptions, *config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, &processor.ConfigurationError{Reason: "invalid configuration", Err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("text") {
		cfg.Watermark.Text, _ = flags.GetString("text")
	}
	if flags.Changed("font") {
		cfg.Watermark.Font, _ = flags.GetString("font")
	}
	if flags.Changed("size") {
		cfg.Watermark.FontSize, _ = flags.GetInt("size")
	}
	if flags.Changed("color") {
		cfg.Watermark.Color, _ = flags.GetString("color")
	}
	if flags.Changed("x") {
		cfg.Position.X, _ = flags.GetFloat64("x")
	}
	if flags.Changed("y") {
		cfg.Position.Y, _ = flags.GetFloat64("y")
	}
	if flags.Changed("font-dir") {
		cfg.Fonts.Dirs, _ = flags.GetStringSlice("font-dir")
	}
	if flags.Changed("no-fc-match") {
		noFc, _ := flags.GetBool("no-fc-match")
		cfg.Fonts.FcMatch = !noFc
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, &processor.ConfigurationError{Reason: "invalid option", Err: err}
	}

	opts := cfg.ApplyOptions(args)
	opts.Verbose, _ = flags.GetBool("verbose")
	return opts, cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) hclog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.NewWithOutput("video-watermarker", cfg.Log.Level, verbose, cmd.ErrOrStderr())
}

// printEvents writes status lines prefixed with the current progress.
func printEvents(out io.Writer) func(processor.Event) {
	var fraction float64
	return func(e processor.Event) {
		switch e := e.(type) {
		case processor.ProgressEvent:
			fraction = e.Fraction
		case processor.StatusEvent:
			fmt.Fprintf(out, "[%3.0f%%] %s\n", fraction*100, e.Text)
		}
	}
}

// cancelOnInterrupt cancels token on the first interrupt and exits on the
// second. The returned func stops listening.
func cancelOnInterrupt(token *processor.CancelToken, out io.Writer) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigs:
			fmt.Fprintln(out, "Cancelling after the current video, press Ctrl+C again to abort")
			token.Cancel()
		case <-done:
			return
		}
		select {
		case <-sigs:
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func addWatermarkFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().String("text", config.DefaultText, "Watermark text")
	cmd.Flags().String("font", config.DefaultFont, "Font family name or font file path")
	cmd.Flags().Int("size", config.DefaultFontSize,
		fmt.Sprintf("Font size in points (%d-%d)", config.MinFontSize, config.MaxFontSize))
	cmd.Flags().String("color", config.DefaultColor, "Colour as #RRGGBB, #RRGGBBAA or r,g,b[,a]")
	cmd.Flags().Float64("x", types.Center.X, "Horizontal centre of the watermark (0-1)")
	cmd.Flags().Float64("y", types.Center.Y, "Vertical centre of the watermark (0-1)")
	cmd.Flags().StringSlice("font-dir", nil, "Font directories to search instead of the platform defaults")
	cmd.Flags().Bool("no-fc-match", false, "Do not ask fontconfig for fonts")
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, off)")

	for _, cmd := range []*cobra.Command{applyCmd, previewCmd, fontsCmd, tuiCmd, watchCmd} {
		addWatermarkFlags(cmd)
	}

	previewCmd.Flags().String("png", "watermark_preview.png", "Where to write the preview image")
	tuiCmd.Flags().String("log-file", "", "Write logs to this file")
	watchCmd.Flags().Duration("settle", 3*time.Second, "Quiet period before a batch starts")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(fontsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var ec *exitCode
		if errors.As(err, &ec) {
			if ec.err != nil {
				fmt.Fprintln(os.Stderr, ec.err)
			}
			os.Exit(ec.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
