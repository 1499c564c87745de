package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/notesync/notesync/internal/utils"
)

// Environment variables per target. A target is enabled only when its
// whole credential set is present; partial config means disabled, never
// an error.
const (
	EnvFeishuAppID        = "FEISHU_APP_ID"
	EnvFeishuAppSecret    = "FEISHU_APP_SECRET"
	EnvFeishuFolderToken  = "FEISHU_FOLDER_TOKEN"
	EnvFeishuBitableToken = "FEISHU_BITABLE_TOKEN"

	EnvNotionAPIKey     = "NOTION_API_KEY"
	EnvNotionDatabaseID = "NOTION_DATABASE_ID"

	EnvVaultDir = "NOTESYNC_VAULT_DIR"
)

// FeishuConfig holds the Feishu open-platform credentials. The folder
// token addresses the cloud-docs deployment; the bitable token is the
// alternate structured-index deployment and is optional on top.
type FeishuConfig struct {
	AppID        string
	AppSecret    string
	FolderToken  string
	BitableToken string
}

// Configured reports whether the doc-platform credential set is complete.
func (c *FeishuConfig) Configured() bool {
	return c.AppID != "" && c.AppSecret != "" && c.FolderToken != ""
}

// BitableEnabled reports whether the alternate bitable deployment is fully
// configured as well.
func (c *FeishuConfig) BitableEnabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.BitableToken != ""
}

func (c *FeishuConfig) MissingVars() []string {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, EnvFeishuAppID)
	}
	if c.AppSecret == "" {
		missing = append(missing, EnvFeishuAppSecret)
	}
	if c.FolderToken == "" {
		missing = append(missing, EnvFeishuFolderToken)
	}
	return missing
}

// NotionConfig holds the Notion integration credentials.
type NotionConfig struct {
	APIKey     string
	DatabaseID string
}

func (c *NotionConfig) Configured() bool {
	return c.APIKey != "" && c.DatabaseID != ""
}

func (c *NotionConfig) MissingVars() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, EnvNotionAPIKey)
	}
	if c.DatabaseID == "" {
		missing = append(missing, EnvNotionDatabaseID)
	}
	return missing
}

// Config is the process configuration, read once at startup and immutable
// for the run's duration.
type Config struct {
	VaultDir string
	Feishu   FeishuConfig
	Notion   NotionConfig
}

// Load builds the configuration from an optional .env file and the process
// environment. vaultFlag (from --vault) wins over NOTESYNC_VAULT_DIR; the
// final fallback is the current directory.
func Load(vaultFlag string) (*Config, error) {
	// .env is a convenience for cron wrappers; absence is fine
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	vaultDir := vaultFlag
	if vaultDir == "" {
		vaultDir = v.GetString(EnvVaultDir)
	}
	if vaultDir == "" {
		vaultDir = "."
	}

	resolved, err := utils.ResolvePath(vaultDir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}

	return &Config{
		VaultDir: resolved,
		Feishu: FeishuConfig{
			AppID:        v.GetString(EnvFeishuAppID),
			AppSecret:    v.GetString(EnvFeishuAppSecret),
			FolderToken:  v.GetString(EnvFeishuFolderToken),
			BitableToken: v.GetString(EnvFeishuBitableToken),
		},
		Notion: NotionConfig{
			APIKey:     v.GetString(EnvNotionAPIKey),
			DatabaseID: v.GetString(EnvNotionDatabaseID),
		},
	}, nil
}

// StateDir is where the journal and logs live.
func (c *Config) StateDir() string {
	return filepath.Join(c.VaultDir, ".notesync")
}

// JournalPath is the sync record store location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.StateDir(), "sync.db")
}

// LogFilePath is the rotating log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.StateDir(), "logs", "notesync.log")
}
