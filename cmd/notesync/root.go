package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/feishu"
	"github.com/notesync/notesync/internal/journal"
	"github.com/notesync/notesync/internal/notion"
	"github.com/notesync/notesync/internal/syncer"
	"github.com/notesync/notesync/internal/utils"
	"github.com/notesync/notesync/internal/vault"
	"github.com/notesync/notesync/internal/version"
)

var (
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
)

var (
	flagVault  string
	flagFile   string
	flagAll    bool
	flagStatus bool
	flagCheck  bool
)

var rootCmd = &cobra.Command{
	Use:     "notesync",
	Short:   "Sync a local Markdown vault to Feishu and Notion",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagVault)
		if err != nil {
			return err
		}
		setupFileLogging(cfg)
		cmd.SilenceUsage = true

		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		switch {
		case flagCheck:
			renderCheck(app.engine.Check())
			return nil
		case flagStatus:
			report, err := app.engine.Status()
			if err != nil {
				return err
			}
			renderStatus(report)
			return nil
		}

		opts := syncer.Options{File: resolveVaultPath(flagFile)}
		if flagAll {
			opts.Mode = syncer.ModeAll
		}

		summary, err := app.engine.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		renderSummary(summary)

		// per-pair failures are logged, not fatal; a single-file run that
		// failed everywhere is the exception
		if flagFile != "" && summary.Succeeded() == 0 && summary.Failed() {
			return fmt.Errorf("sync failed for %s on every target", flagFile)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "resync every file regardless of recorded state")
	rootCmd.Flags().StringVar(&flagFile, "file", "", "sync a single file")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "show sync state and exit")
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "show target configuration and exit")
	rootCmd.PersistentFlags().StringVar(&flagVault, "vault", "", "vault directory (default $NOTESYNC_VAULT_DIR or .)")
	rootCmd.MarkFlagsMutuallyExclusive("all", "file")
	rootCmd.MarkFlagsMutuallyExclusive("status", "check")
}

// app wires the pieces one command invocation needs.
type app struct {
	store  *journal.Store
	engine *syncer.Engine
}

func buildApp(cfg *config.Config) (*app, error) {
	v, err := vault.New(cfg.VaultDir)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(cfg.StateDir()); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, err
	}

	feishuAdapter := feishu.NewAdapter(&cfg.Feishu)
	notionAdapter := notion.NewAdapter(&cfg.Notion)

	return &app{
		store:  store,
		engine: syncer.New(v, store, feishuAdapter, notionAdapter),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// setupFileLogging adds a rotating file handler next to the journal.
func setupFileLogging(cfg *config.Config) {
	writer := &lumberjack.Logger{
		Filename:   cfg.LogFilePath(),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
	}

	stdoutHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stdoutHandler, fileHandler)))
}

func renderCheck(checks []syncer.TargetCheck) {
	for _, check := range checks {
		if check.Configured {
			fmt.Printf("%s %s configured\n", green("✓"), check.Name)
			continue
		}
		fmt.Printf("%s %s not configured, missing %s\n",
			yellow("–"), check.Name, strings.Join(check.MissingVars, ", "))
	}
}

func renderStatus(report *syncer.StatusReport) {
	fmt.Printf("%s %d files, %d tracked, %d pending\n",
		cyan("vault:"), report.VaultFiles, report.TrackedFiles, report.DirtyFiles)

	for _, tgt := range report.Targets {
		switch tgt.State {
		case syncer.StateDisabled:
			fmt.Printf("  %s %s disabled (missing %s)\n",
				yellow("–"), tgt.Name, strings.Join(tgt.MissingVars, ", "))
		case syncer.StateFailing:
			fmt.Printf("  %s %s failing (%d failed last run)\n",
				red("✗"), tgt.Name, tgt.LastRun.Failed)
		default:
			last := "never"
			if !tgt.LastSync.IsZero() {
				last = humanize.Time(tgt.LastSync)
			}
			fmt.Printf("  %s %s ready, last sync %s\n", green("✓"), tgt.Name, last)
		}
	}
}

func renderSummary(summary *syncer.Summary) {
	names := make([]string, 0, len(summary.PerTarget))
	for name := range summary.PerTarget {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := summary.PerTarget[name]
		line := fmt.Sprintf("%s: %d synced, %d skipped", name, stats.Succeeded, stats.Skipped)
		if stats.Failed > 0 {
			line += fmt.Sprintf(", %s", red(fmt.Sprintf("%d failed", stats.Failed)))
		}
		fmt.Println(line)
	}
}

// resolveVaultPath makes --file values relative to the cwd work no matter
// where the vault lives.
func resolveVaultPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
