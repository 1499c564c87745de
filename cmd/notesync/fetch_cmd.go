package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/feishu"
)

func init() {
	rootCmd.AddCommand(newFetchCmd())
}

func newFetchCmd() *cobra.Command {
	var (
		flagContext bool
		flagJSON    bool
		flagQuiet   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Read the synced workspace state back from Feishu",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flagContext {
				return fmt.Errorf("nothing to fetch, pass --context")
			}

			cfg, err := config.Load(flagVault)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			if flagQuiet {
				// only the snapshot on stdout, e.g. for shell prompts
				slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
			}

			adapter := feishu.NewAdapter(&cfg.Feishu)
			snapshot, err := adapter.FetchContext(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			}

			renderSnapshot(snapshot)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagContext, "context", false, "fetch pending threads and recent archives")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress log output, print only the snapshot")
	return cmd
}

func renderSnapshot(snapshot *feishu.ContextSnapshot) {
	fmt.Printf("%s %d pending\n", cyan("threads:"), len(snapshot.PendingThreads))
	for _, thread := range snapshot.PendingThreads {
		line := "  - " + thread.Title
		if thread.Priority != "" {
			line += fmt.Sprintf(" [%s]", thread.Priority)
		}
		if thread.Source != "" {
			line += fmt.Sprintf(" (from %s)", thread.Source)
		}
		fmt.Println(line)
	}

	fmt.Printf("%s %d recent\n", cyan("archives:"), len(snapshot.RecentArchives))
	for _, archive := range snapshot.RecentArchives {
		fmt.Printf("  - %s %s", archive.Date, archive.Topic)
		if archive.Summary != "" {
			fmt.Printf(": %s", archive.Summary)
		}
		fmt.Println()
	}
}
