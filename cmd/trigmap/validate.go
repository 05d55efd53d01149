package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trigmap/internal/diff"
	"trigmap/internal/output"
)

func validateCmd(opts *globalOptions) *cobra.Command {
	var entity, format string
	cmd := &cobra.Command{
		Use:     "schema:validate",
		Aliases: []string{"s:v"},
		Short:   "Compare mapped triggers with the triggers of the database",
		Long: `Validate lists every trigger of the database and every trigger declared on the
mapped entities, then reports triggers missing on either side and triggers whose table,
events, timing, scope or function differ. The command exits with status 1 on any drift.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.connect(cmd.Context()); err != nil {
					return err
				}
				return a.validate(cmd.Context(), entity, format)
			})
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Validate only the given entity class")
	cmd.Flags().StringVarP(&format, "format", "f", "human", "Output format: human, json, summary or sql")
	return cmd
}

// validate prints the reconciliation report and returns errDrift when it is not empty.
func (a *app) validate(ctx context.Context, entity, format string) error {
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	mapped, err := a.extractor.Extract(entity)
	if err != nil {
		return err
	}
	observed, err := a.observed(ctx, entity)
	if err != nil {
		return err
	}

	d := diff.Diff(mapped, observed)
	report, err := formatter.FormatDiff(d)
	if err != nil {
		return fmt.Errorf("format report: %w", err)
	}
	fmt.Fprint(a.out, report)

	if !d.IsEmpty() {
		return errDrift
	}
	return nil
}
