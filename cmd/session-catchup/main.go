package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/norm/session-catchup/internal/config"
	"github.com/norm/session-catchup/internal/haiku"
	logpkg "github.com/norm/session-catchup/internal/log"
	"github.com/norm/session-catchup/internal/report"
	"github.com/norm/session-catchup/internal/sessionlog"
)

var Version = "dev"

type flags struct {
	configPath   string
	sessionsRoot string
	maxMessages  int
	summarize    bool
	logLevel     string
}

func main() {
	home, _ := os.UserHomeDir()
	cmd := newRootCmd(os.Stdout, os.Stderr, home)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "session-catchup:", err)
	}
	// Exit status is always 0.
	os.Exit(0)
}

func newRootCmd(stdout, stderr io.Writer, home string) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "session-catchup [project-path]",
		Short:         "Recover agent context recorded since the planning files were last updated",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			project := "."
			if len(args) == 1 {
				project = args[0]
			}
			return run(cmd.Context(), cmd, f, project, home, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (.toml, .yaml or .yml)")
	cmd.Flags().StringVar(&f.sessionsRoot, "sessions-root", "", "Session storage root (default ~/.pi/agent/sessions)")
	cmd.Flags().IntVar(&f.maxMessages, "max-messages", 0, "Most recent messages to show (default 100)")
	cmd.Flags().BoolVar(&f.summarize, "summarize", false, "Append an LLM digest of the unsynced context")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Diagnostics level: debug, info, warn or error")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, f flags, project, home string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, cfgErr := config.Load(f.configPath, home)
	applyFlags(cmd, cfg, f)

	logger := logpkg.New(stderr, cfg.LogLevel)
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", "error", cfgErr)
	}

	store := sessionlog.NewStore(cfg.SessionsRoot)
	key := sessionlog.ProjectKeyFor(project, home)
	logger.Debug("catchup", "project", project, "bucket", store.BucketDir(key))

	rep, err := sessionlog.Catchup(store, key, sessionlog.Options{
		PlanningFiles:      cfg.PlanningFiles,
		AssistantTextLimit: cfg.AssistantTextLimit,
		CommandPreview:     cfg.CommandPreview,
		Logger:             logger,
	})
	if err != nil {
		logger.Warn("catchup failed", "error", err)
		return nil
	}
	if rep == nil {
		return nil
	}

	opts := report.Options{
		MaxMessages:        cfg.MaxMessages,
		UserTextLimit:      cfg.UserTextLimit,
		AssistantTextLimit: cfg.DisplayTextLimit,
		MaxTools:           cfg.MaxTools,
		PlanningFiles:      cfg.PlanningFiles,
	}
	if cfg.Digest.Enabled {
		opts.Digest = digest(ctx, cfg, rep, opts, logger)
	}

	_, err = io.WriteString(stdout, report.Render(rep, opts))
	return err
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags) {
	if cmd == nil {
		return
	}
	changed := cmd.Flags().Changed
	if changed("sessions-root") && f.sessionsRoot != "" {
		cfg.SessionsRoot = f.sessionsRoot
	}
	if changed("max-messages") && f.maxMessages > 0 {
		cfg.MaxMessages = f.maxMessages
	}
	if changed("summarize") {
		cfg.Digest.Enabled = f.summarize
	}
	if changed("log-level") && f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
}

// digest returns "" on any failure so the plain report is still printed.
func digest(ctx context.Context, cfg *config.Config, rep *sessionlog.Report, opts report.Options, logger *slog.Logger) string {
	hcfg := haiku.DefaultConfig()
	hcfg.Model = cfg.Digest.Model
	hcfg.MaxTokens = cfg.Digest.MaxTokens
	hcfg.MaxRetries = cfg.Digest.MaxRetries
	hcfg.APIKey = cfg.Digest.APIKey

	client, err := haiku.New(hcfg)
	if err != nil {
		logger.Warn("digest unavailable", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Digest.TimeoutDuration())
	defer cancel()

	out, err := client.Digest(ctx, report.Transcript(rep, opts))
	if err != nil {
		logger.Warn("digest failed", "error", err)
		return ""
	}
	return out
}
