package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitebot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitebot",
	Short: "Website-grounded company chatbot",
	Long: `Scrapes company websites, condenses each into a context blob, and answers visitor questions with Claude or a rule-based fallback.

Commands: serve runs the HTTP API, ask answers one question from the terminal, build scrapes a YAML manifest of companies, history prints stored chats, migrate creates the schema.

Settings come from config.yaml in the working directory. Any key can be overridden with a SITEBOT_ env var, e.g. SITEBOT_ANTHROPIC_KEY or SITEBOT_STORE_DATABASE_URL.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
