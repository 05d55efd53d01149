package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trigmap/internal/apply"
	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/migration"
	"trigmap/internal/output"
)

type updateOptions struct {
	entity string
	force  bool
	format string
}

func updateCmd(opts *globalOptions) *cobra.Command {
	var o updateOptions
	cmd := &cobra.Command{
		Use:     "schema:update",
		Aliases: []string{"s:u"},
		Short:   "Apply trigger changes from local artifacts to the database",
		Long: `Update reads the SQL of every mapped trigger from its storage and prints the
statements that recreate it. With --force the statements are executed one by one; the
run stops at the first failure and statements already executed are not rolled back.
--format renders the dry-run plan as human, json, summary or sql output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.connect(cmd.Context()); err != nil {
					return err
				}
				return a.update(cmd.Context(), o)
			})
		},
	}
	cmd.Flags().StringVar(&o.entity, "entity", "", "Update only the triggers of the given entity class")
	cmd.Flags().BoolVarP(&o.force, "force", "f", false, "Execute the statements against the database")
	cmd.Flags().StringVar(&o.format, "format", "", "Dry-run output format: human, json, summary or sql")
	return cmd
}

func (a *app) update(ctx context.Context, o updateOptions) error {
	var formatter output.Formatter
	if o.format != "" {
		if o.force {
			return fmt.Errorf("%w: --format only applies to the dry run", errInvalid)
		}
		f, err := output.NewFormatter(o.format)
		if err != nil {
			return err
		}
		formatter = f
	}

	if o.force {
		a.warnf("Running in FORCE mode. The database schema will be modified.")
		ok, err := a.prompt.Confirm("Are you sure you want to continue?", false)
		if err != nil {
			return err
		}
		if !ok {
			a.infof("Operation cancelled.")
			return nil
		}
	} else {
		a.notef("Running in DRY-RUN mode. No changes will be made to the database.")
	}

	triggers, err := a.extractor.Extract(o.entity)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		a.successf("No triggers are currently mapped. Nothing to do.")
		return nil
	}

	m, err := a.updatePlan(triggers)
	if err != nil {
		return err
	}

	if formatter != nil {
		plan, err := formatter.FormatMigration(m)
		if err != nil {
			return fmt.Errorf("format plan: %w", err)
		}
		fmt.Fprint(a.out, plan)
		return nil
	}

	if o.force {
		for _, w := range m.Warnings() {
			a.warnf("%s", w)
		}
	}
	applier := apply.NewApplier(a.db, apply.Options{DryRun: !o.force, Out: a.out})
	if _, err := applier.Apply(ctx, m); err != nil {
		return err
	}
	if o.force {
		a.successf("Database schema updated successfully.")
	} else {
		a.infof("Dry-run finished. No changes were made.")
	}
	return nil
}

// updatePlan reads the stored artifact of every trigger and turns it into the statements
// that recreate it. Recoverable problems become warnings on the plan.
func (a *app) updatePlan(triggers map[string]core.ResolvedTrigger) (*migration.Migration, error) {
	g, err := dialect.Get(a.dialect)
	if err != nil {
		return nil, err
	}
	store := a.store()

	m := &migration.Migration{}
	for _, name := range sortedNames(triggers) {
		t := triggers[name]
		loaded, err := store.Read(&t)
		if err != nil {
			if core.IsRecoverable(err) {
				m.AddWarning(t.Name, skipMessage(t, err))
				continue
			}
			return nil, err
		}
		for _, w := range loaded.Warnings {
			m.AddWarning(t.Name, w.Error())
		}
		dialect.AppendTrigger(m, g, &t, loaded.Artifact)
	}
	return m, nil
}

func skipMessage(t core.ResolvedTrigger, err error) string {
	if errors.Is(err, core.ErrInvalidTriggerClass) && core.Deref(t.ClassName) == "" {
		return fmt.Sprintf("The trigger %s class_name property is empty, could not retrieve its SQL", t.Name)
	}
	return err.Error()
}
