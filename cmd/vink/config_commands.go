package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vink/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults are in effect")
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Setting", "Value"},
				[][]string{
					{"paths.data_dir", cfg.Paths.DataDir},
					{"paths.log_dir", cfg.Paths.LogDir},
					{"paths.audit_dir", cfg.Paths.AuditDir},
					{"paths.mirror_dir", cfg.Paths.MirrorDir},
					{"matcher.auto_accept_score", fmt.Sprintf("%.2f", cfg.Matcher.AutoAcceptScore)},
					{"matcher.auto_accept_margin", fmt.Sprintf("%.2f", cfg.Matcher.AutoAcceptMargin)},
					{"matcher.suggest_score", fmt.Sprintf("%.2f", cfg.Matcher.SuggestScore)},
					{"pipeline.inline_timeout_ms", fmt.Sprintf("%d", cfg.Pipeline.InlineTimeoutMS)},
					{"pipeline.pending_capacity", fmt.Sprintf("%d", cfg.Pipeline.PendingCapacity)},
					{"audit.retention_days", fmt.Sprintf("%d", cfg.Audit.RetentionDays)},
					{"logging.format", cfg.Logging.Format},
					{"logging.level", cfg.Logging.Level},
				},
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
