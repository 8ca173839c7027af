package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vink/internal/catalog"
	"vink/internal/matcher"
	"vink/internal/pipeline"
	"vink/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		confidence float64
		alternates []string
		workingIDs []string
		allowedIDs []string
		recentIDs  []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <utterance>",
		Short: "Resolve a spoken species name against the catalog",
		Long: `Resolve a spoken species name against the catalog.

The utterance may carry a trailing amount ("merel twee"). Alternate
transcriptions can be supplied with --alt in best-first order; each takes
the form "text" or "text=confidence".

Species sets are given as repeatable flags, each "id" or "id=Canonical
Name". Working-set species are also allowed; recent species boost the
candidate prior.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hypotheses := []pipeline.Hypothesis{{
				Text:       strings.Join(args, " "),
				Confidence: confidence,
			}}
			for _, alt := range alternates {
				hyp, err := parseHypothesis(alt)
				if err != nil {
					return err
				}
				hypotheses = append(hypotheses, hyp)
			}

			mctx, err := buildMatchContext(workingIDs, allowedIDs, recentIDs)
			if err != nil {
				return err
			}

			return ctx.withService(func(runCtx context.Context, svc *resolver.Service) error {
				svc.SetContextProvider(func() catalog.MatchContext { return mctx })
				result, err := svc.Resolve(runCtx, hypotheses)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resolveView(result))
				}
				printResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", 1.0, "Recognizer confidence of the utterance")
	cmd.Flags().StringArrayVar(&alternates, "alt", nil, "Alternate transcription, \"text\" or \"text=confidence\" (repeatable, best first)")
	cmd.Flags().StringArrayVarP(&workingIDs, "working", "w", nil, "Working-set species, \"id\" or \"id=Canonical Name\" (repeatable)")
	cmd.Flags().StringArrayVarP(&allowedIDs, "allowed", "a", nil, "Allowed species outside the working set (repeatable)")
	cmd.Flags().StringArrayVarP(&recentIDs, "recent", "r", nil, "Recently confirmed species (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	return cmd
}

func parseHypothesis(value string) (pipeline.Hypothesis, error) {
	text, confPart, found := strings.Cut(value, "=")
	text = strings.TrimSpace(text)
	if text == "" {
		return pipeline.Hypothesis{}, errors.New("alternate transcription text is empty")
	}
	conf := 1.0
	if found {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(confPart), 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return pipeline.Hypothesis{}, fmt.Errorf("invalid confidence in %q (want 0..1)", value)
		}
		conf = parsed
	}
	return pipeline.Hypothesis{Text: text, Confidence: conf}, nil
}

func buildMatchContext(working, allowed, recent []string) (catalog.MatchContext, error) {
	builder := catalog.NewContextBuilder()
	add := func(values []string, register func(catalog.SpeciesID)) error {
		for _, value := range values {
			idPart, canonical, _ := strings.Cut(value, "=")
			id := catalog.SpeciesID(strings.TrimSpace(idPart))
			if id == "" {
				return fmt.Errorf("empty species id in %q", value)
			}
			canonical = strings.TrimSpace(canonical)
			if canonical == "" {
				canonical = string(id)
			}
			builder.WithSpecies(id, canonical, canonical)
			register(id)
		}
		return nil
	}

	if err := add(working, func(id catalog.SpeciesID) { builder.Working(id) }); err != nil {
		return catalog.MatchContext{}, err
	}
	if err := add(allowed, func(id catalog.SpeciesID) { builder.Allowed(id) }); err != nil {
		return catalog.MatchContext{}, err
	}
	if err := add(recent, func(id catalog.SpeciesID) { builder.Recent(id) }); err != nil {
		return catalog.MatchContext{}, err
	}
	return builder.Build(), nil
}

type candidateView struct {
	SpeciesID   string  `json:"species_id"`
	DisplayName string  `json:"display_name"`
	AliasText   string  `json:"alias_text,omitempty"`
	Score       float64 `json:"score"`
}

type resultView struct {
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Amount      int             `json:"amount,omitempty"`
	Winner      *candidateView  `json:"winner,omitempty"`
	Suggestions []candidateView `json:"suggestions,omitempty"`
}

func resolveView(result matcher.Result) resultView {
	view := resultView{
		Outcome: string(result.Outcome),
		Reason:  result.Reason,
		Amount:  result.Amount,
	}
	if result.Candidate != nil {
		view.Winner = toCandidateView(result.Candidate)
	}
	for _, candidate := range result.Suggestions {
		view.Suggestions = append(view.Suggestions, *toCandidateView(&candidate))
	}
	return view
}

func toCandidateView(candidate *matcher.Candidate) *candidateView {
	return &candidateView{
		SpeciesID:   string(candidate.SpeciesID),
		DisplayName: candidate.DisplayName,
		AliasText:   candidate.AliasText,
		Score:       candidate.Score,
	}
}

func printResult(cmd *cobra.Command, result matcher.Result) {
	out := cmd.OutOrStdout()
	color := shouldColorize(out)

	switch result.Outcome {
	case matcher.OutcomeAutoAccept, matcher.OutcomeAutoAcceptAdd:
		label := "accepted"
		if result.Outcome == matcher.OutcomeAutoAcceptAdd {
			label = "accepted (added to working set)"
		}
		fmt.Fprintf(out, "%s: %s (%s) score %.2f",
			colorize(label, ansiGreen, color),
			result.Candidate.DisplayName,
			result.Candidate.SpeciesID,
			result.Candidate.Score)
		if result.Amount > 1 {
			fmt.Fprintf(out, " x%d", result.Amount)
		}
		fmt.Fprintln(out)
	case matcher.OutcomeSuggestions:
		fmt.Fprintln(out, colorize("ambiguous, pick one:", ansiYellow, color))
		rows := make([][]string, 0, len(result.Suggestions))
		for i, candidate := range result.Suggestions {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				candidate.DisplayName,
				string(candidate.SpeciesID),
				fmt.Sprintf("%.2f", candidate.Score),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Name", "Species", "Score"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
	default:
		fmt.Fprintf(out, "%s (%s)\n", colorize("no match", ansiRed, color), result.Reason)
	}
}
