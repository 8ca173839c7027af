package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vink/internal/catalog"
	"vink/internal/resolver"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the catalog snapshot",
	}
	snapshotCmd.AddCommand(newSnapshotBuildCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotInfoCommand(ctx))
	return snapshotCmd
}

func newSnapshotBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build <aliases.csv>",
		Short: "Build and install a catalog snapshot from a CSV export",
		Long: `Build and install a catalog snapshot from a CSV export.

Each row is species_id,alias,canonical_name[,display_name]. Rows whose
alias normalizes to nothing are skipped with a warning. The new snapshot
replaces the live one; learned aliases are preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, skipped, err := readAliasCSV(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no usable alias rows in %s", args[0])
			}

			return ctx.withService(func(runCtx context.Context, svc *resolver.Service) error {
				if err := svc.OnCatalogChanged(runCtx, records); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Installed snapshot with %d aliases\n", len(records))
				if skipped > 0 {
					fmt.Fprintf(out, "Skipped %d rows that normalized to nothing\n", skipped)
				}
				return nil
			})
		},
	}
}

func readAliasCSV(path string) ([]catalog.AliasRecord, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parse csv: %w", err)
	}

	var records []catalog.AliasRecord
	skipped := 0
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "species_id") {
			continue
		}
		if len(row) < 3 {
			return nil, 0, fmt.Errorf("row %d: want at least species_id,alias,canonical_name", i+1)
		}
		display := ""
		if len(row) > 3 {
			display = row[3]
		}
		record, ok := catalog.NewAliasRecord(
			catalog.SpeciesID(strings.TrimSpace(row[0])), row[1], row[2], display, "catalog")
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

func newSnapshotInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show snapshot statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfg.SnapshotPath())
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no snapshot at %s (run 'vink snapshot build')", cfg.SnapshotPath())
				}
				return err
			}
			records, err := catalog.DecodeSnapshot(data)
			if err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			species := make(map[catalog.SpeciesID]int)
			for _, record := range records {
				species[record.SpeciesID]++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Snapshot", "Value"},
				[][]string{
					{"Path", cfg.SnapshotPath()},
					{"Size", strconv.Itoa(len(data)) + " bytes"},
					{"Aliases", strconv.Itoa(len(records))},
					{"Species", strconv.Itoa(len(species))},
				},
				[]columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
