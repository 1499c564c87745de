package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/feishu"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var flagCreate bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Provision the Feishu bitable tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagVault)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			if cfg.Feishu.AppID == "" || cfg.Feishu.AppSecret == "" {
				return fmt.Errorf("feishu credentials not configured, set %s and %s",
					config.EnvFeishuAppID, config.EnvFeishuAppSecret)
			}

			client := feishu.NewClient(&cfg.Feishu)
			ctx := cmd.Context()

			token := cfg.Feishu.BitableToken
			if token == "" {
				if !flagCreate {
					return fmt.Errorf("no bitable configured, set %s or pass --create",
						config.EnvFeishuBitableToken)
				}
				token, err = client.CreateBitable(ctx, "notesync")
				if err != nil {
					return err
				}
				fmt.Printf("%s created bitable, add to your environment:\n", green("✓"))
				fmt.Printf("  export %s=%s\n", config.EnvFeishuBitableToken, token)
			}

			tables, err := client.EnsureTables(ctx, token)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s table %s (%s)\n", green("✓"), name, tables[name])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagCreate, "create", false, "create a new bitable app when none is configured")
	return cmd
}
