package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vink/internal/catalog"
	"vink/internal/resolver"
)

func newAliasCommand(ctx *commandContext) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage learned aliases",
	}
	aliasCmd.AddCommand(newAliasAddCommand(ctx))
	aliasCmd.AddCommand(newAliasListCommand(ctx))
	return aliasCmd
}

func newAliasAddCommand(ctx *commandContext) *cobra.Command {
	var canonical string
	var display string

	cmd := &cobra.Command{
		Use:   "add <species-id> <alias>",
		Short: "Teach a new alias for a species",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.SpeciesID(strings.TrimSpace(args[0]))
			aliasText := strings.Join(args[1:], " ")

			return ctx.withService(func(runCtx context.Context, svc *resolver.Service) error {
				added, err := svc.AddAlias(runCtx, id, aliasText, canonical, display)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !added {
					fmt.Fprintf(out, "Alias %q already known for %s\n", aliasText, id)
					return nil
				}
				fmt.Fprintf(out, "Learned alias %q for %s\n", aliasText, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&canonical, "canonical", "", "Canonical name for the species (defaults to the catalog's)")
	cmd.Flags().StringVar(&display, "display", "", "Display name for the species (defaults to the canonical name)")
	return cmd
}

func newAliasListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(runCtx context.Context, svc *resolver.Service) error {
				records, err := svc.LearnedAliases(runCtx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No learned aliases")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.AliasText,
						record.NormalizedText,
						string(record.SpeciesID),
						record.DisplayName,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Alias", "Normalized", "Species", "Name"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit aliases as JSON")
	return cmd
}
