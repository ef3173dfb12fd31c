package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwygoda/audiograb/internal/config"
	"github.com/cwygoda/audiograb/internal/console"
)

// cli holds state shared by all commands.
type cli struct {
	configPath string
	outputDir  string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "audiograb [url]",
		Short: "Download YouTube audio as MP3",
		Long: `audiograb downloads the best audio stream of a YouTube video and
converts it to a 192 kbps MP3. The result can be uploaded to object storage
and recorded in a download history.

Without a URL it prompts for URLs until you enter q.

Example:
  audiograb https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		RunE:              c.runConvert,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/audiograb/config.toml)")
	flags.StringVar(&c.outputDir, "output-dir", "", "directory for converted files")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(c), newHistoryCmd(c))
	return root
}

func (c *cli) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.outputDir != "" {
		cfg.OutputDir = c.outputDir
	}
	if c.verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.cfg = cfg
	c.logger = newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	con := console.New(a.svc, console.NewPrompter(os.Stdin, out), out,
		console.WithProgress(console.IsTerminal(out)))

	con.Banner()
	if len(args) == 1 {
		if err := con.Once(ctx, args[0]); err != nil {
			return errQuiet
		}
		return nil
	}
	return con.Loop(ctx)
}

// newLogger builds the process logger. Debug level only with verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
