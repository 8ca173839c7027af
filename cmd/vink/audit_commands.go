package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"vink/internal/audit"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the resolution audit trail",
	}
	auditCmd.AddCommand(newAuditTailCommand(ctx))
	auditCmd.AddCommand(newAuditFilesCommand(ctx))
	return auditCmd
}

func newAuditTailCommand(ctx *commandContext) *cobra.Command {
	var count int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := recentAuditEntries(cfg.Paths.AuditDir, count)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No audit entries")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				winner := ""
				if entry.Winner != nil {
					winner = entry.Winner.DisplayName
				}
				deferred := ""
				if entry.Deferred {
					deferred = "yes"
				}
				rows = append(rows, []string{
					entry.Timestamp.Local().Format("15:04:05"),
					entry.Input,
					entry.Outcome,
					entry.Reason,
					winner,
					deferred,
					strconv.FormatInt(entry.ElapsedMS, 10),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Input", "Outcome", "Reason", "Winner", "Deferred", "ms"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "lines", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON")
	return cmd
}

// recentAuditEntries reads the newest audit files until count entries are
// collected, oldest of the window first.
func recentAuditEntries(dir string, count int) ([]audit.Entry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.log"))
	if err != nil {
		return nil, err
	}
	// Dated file names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	var entries []audit.Entry
	for _, path := range matches {
		fileEntries, err := readAuditFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(fileEntries, entries...)
		if len(entries) >= count {
			break
		}
	}
	if len(entries) > count {
		entries = entries[len(entries)-count:]
	}
	return entries, nil
}

func readAuditFile(path string) ([]audit.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []audit.Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry audit.Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// Torn trailing line after a crash; skip it.
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}

func newAuditFilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List local audit trail files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			matches, err := filepath.Glob(filepath.Join(cfg.Paths.AuditDir, "audit-*.log"))
			if err != nil {
				return err
			}
			sort.Strings(matches)

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No audit files")
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for _, path := range matches {
				size := ""
				if info, err := os.Stat(path); err == nil {
					size = strconv.FormatInt(info.Size(), 10)
				}
				rows = append(rows, []string{filepath.Base(path), size})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Bytes"},
				rows,
				[]columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
