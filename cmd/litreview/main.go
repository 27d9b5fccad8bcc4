// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI and HTTP service.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/kataras/golog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/config"
	"github.com/pdiddy/litreview/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	v      = viper.New()
	appCfg types.AppConfig
	logger *golog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "LLM-driven literature reviews over Semantic Scholar and arXiv",
	Long: `litreview runs an LLM agent that searches Semantic Scholar and arXiv for
papers on a topic, collects them, and writes a structured literature review
with numbered citations.

Run "litreview serve" for the HTTP API, which streams each review as
Server-Sent Events, or "litreview review <topic>" to run one in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		secretsDir, _ := cmd.Flags().GetString("secrets")
		cfgFile, _ := cmd.Flags().GetString("config")

		if err := config.Setup(v, cfgFile); err != nil {
			return err
		}

		bootLog := config.NewLogger(types.LogConfig{Level: "info"})
		secrets, err := config.LoadSecrets(secretsDir, bootLog)
		if err != nil {
			return err
		}

		appCfg, err = config.Load(v, secrets)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger = config.NewLogger(appCfg.Log)

		if used := v.ConfigFileUsed(); used != "" {
			logger.Debugf("using config file %s", used)
		}
		if len(secrets) > 0 {
			keys := make([]string, 0, len(secrets))
			for k := range secrets {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debugf("loaded secrets: %v", keys)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/litreview.yaml)")
	pf.String("secrets", config.SecretsDir, "directory of secret files (anthropic-api-key, semantic-scholar-api-key)")
	pf.String("log-level", "", "log level: debug, info, warn, error, disable")
	pf.String("store-dir", "", "directory holding reviews.db")

	v.BindPFlag("log.level", pf.Lookup("log-level"))
	v.BindPFlag("store.dir", pf.Lookup("store-dir"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
