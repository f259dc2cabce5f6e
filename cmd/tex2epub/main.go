package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/tex2epub/internal/config"
	"github.com/yuanying/tex2epub/internal/converter"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tex2epub <input>",
		Short: "Convert LaTeX papers to EPUB",
		Long: `tex2epub converts an arXiv paper or a local LaTeX source tree to EPUB3.

The input may be an arXiv URL (https://arxiv.org/abs/2602.03545), a bare
arXiv id (2602.03545), a source bundle (.tar.gz, .tar, .gz), a source
directory or a .tex file. The LaTeX is normalized, converted with pandoc,
and the resulting EPUB is patched with embedded fonts, typography and
citation links.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}

			res, err := converter.NewPipeline(opts).Convert(cmd.Context())
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done! Output: %s\n", res.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output EPUB path (default: ./<paper-title>.epub)")
	flags.String("fonts-dir", "", "Directory holding the Latin Modern .otf fonts to embed")
	flags.String("css", "", "Stylesheet passed to pandoc (default: built-in typography)")
	flags.String("config", "", "YAML configuration file")
	flags.String("pandoc", "", "pandoc binary (default: pandoc from PATH)")
	flags.Int("max-image-width", 0, "Downscale raster images wider than this many pixels (0 disables)")
	flags.Int("quality", 0, "JPEG quality for downscaled images (1-100)")
	flags.Bool("no-postprocess", false, "Skip font, style and citation patching")
	flags.Bool("keep-workdir", false, "Keep the temporary work directory")
	flags.String("log-level", defaultLogLevel, "Log level (debug|info|warn|error)")
	flags.String("log-format", defaultLogFormat, "Log format (text|json)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newInspectCmd())
	return cmd
}

// readCLIOptions validates the flags and merges them over the
// configuration file.
func readCLIOptions(cmd *cobra.Command, args []string) (converter.ConvertOptions, error) {
	flags := cmd.Flags()

	logLevel, _ := flags.GetString("log-level")
	logFormat, _ := flags.GetString("log-format")
	verbose, _ := flags.GetBool("verbose")
	if _, ok := parseLogLevel(logLevel); !ok {
		return converter.ConvertOptions{}, fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", logLevel)
	}
	if f := strings.ToLower(logFormat); f != "text" && f != "json" {
		return converter.ConvertOptions{}, fmt.Errorf("invalid --log-format %q: must be text or json", logFormat)
	}
	if verbose {
		logLevel = "debug"
	}

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return converter.ConvertOptions{}, err
	}

	if flags.Changed("pandoc") {
		cfg.Pandoc.Binary, _ = flags.GetString("pandoc")
	}
	if flags.Changed("max-image-width") {
		width, _ := flags.GetInt("max-image-width")
		if width < 0 {
			return converter.ConvertOptions{}, fmt.Errorf("invalid --max-image-width %d: must be >= 0", width)
		}
		cfg.Images.MaxWidth = width
	}
	if flags.Changed("quality") {
		quality, _ := flags.GetInt("quality")
		if quality < 1 || quality > 100 {
			return converter.ConvertOptions{}, fmt.Errorf("invalid --quality %d: must be between 1 and 100", quality)
		}
		cfg.Images.JPEGQuality = quality
	}

	output, _ := flags.GetString("output")
	fontsDir, _ := flags.GetString("fonts-dir")
	cssPath, _ := flags.GetString("css")
	noPost, _ := flags.GetBool("no-postprocess")
	keep, _ := flags.GetBool("keep-workdir")

	return converter.ConvertOptions{
		InputPath:     args[0],
		OutputPath:    output,
		OutputDir:     ".",
		CSSPath:       cssPath,
		FontsDir:      fontsDir,
		NoPostprocess: noPost,
		KeepWorkDir:   keep,
		Config:        cfg,
		Logger:        buildLogger(cmd.ErrOrStderr(), logLevel, logFormat),
	}, nil
}

func parseLogLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, _ := parseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
