package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/diff"
	"trigmap/internal/generate"
	"trigmap/internal/mapping"
	"trigmap/internal/storage"
)

type mappingOptions struct {
	apply       bool
	createFiles bool
	storage     string
}

func mappingUpdateCmd(opts *globalOptions) *cobra.Command {
	var o mappingOptions
	cmd := &cobra.Command{
		Use:     "mapping:update",
		Aliases: []string{"m:u"},
		Short:   "Declare database triggers missing from the mapping on their owning entity",
		Long: `Mapping update looks for triggers present in the database but not declared on
any entity. Each one is attached to the entity owning its table, or to the entity
declaring it as a join table. With --apply the declarations are written to the entity
registry; --create-files also stores the trigger SQL taken from the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.createFiles && !o.apply {
				return fmt.Errorf("%w: --create-files requires --apply", errInvalid)
			}
			return withApp(cmd, opts, func(a *app) error {
				if err := a.connect(cmd.Context()); err != nil {
					return err
				}
				return a.mappingUpdate(cmd.Context(), o)
			})
		},
	}
	cmd.Flags().BoolVarP(&o.apply, "apply", "a", false, "Write the missing declarations to the entity registry")
	cmd.Flags().BoolVar(&o.createFiles, "create-files", false, "Also create the trigger artifacts from the database content")
	cmd.Flags().StringVar(&o.storage, "storage", "", "Storage of the new declarations")
	return cmd
}

func (a *app) mappingUpdate(ctx context.Context, o mappingOptions) error {
	if o.createFiles && !o.apply {
		return fmt.Errorf("%w: --create-files requires --apply", errInvalid)
	}
	if o.apply {
		a.notef("Running in APPLY mode: changes will be written to files.")
	} else {
		a.notef("Running in DRY-RUN mode. No files will be changed. Use the --apply option to execute changes.")
	}
	if !o.createFiles {
		a.notef("Running without --create-files only adds the trigger declarations.")
	}

	target, err := a.chooseStorage(o.storage)
	if err != nil {
		return err
	}

	mapped, err := a.extractor.Extract("")
	if err != nil {
		return err
	}
	observed, err := a.observed(ctx, "")
	if err != nil {
		return err
	}

	missing := diff.Diff(mapped, observed).MissingInMapping
	if len(missing) == 0 {
		a.successf("All triggers found in the database are already mapped. Nothing to do.")
		return nil
	}

	a.infof("The following trigger mappings can be created:")
	added := 0
	for _, name := range missing {
		rec := observed[name]
		meta, joinTable, ok := a.extractor.FindOwner(rec.Table)
		if !ok {
			a.warnf("Could not find an entity for table %q. Skipping trigger %q.", rec.Table, rec.Name)
			continue
		}
		a.infof("-> Adding mapping for trigger %q to entity %q.", rec.Name, meta.ClassName)
		if !o.apply {
			continue
		}

		decl := declarationFromRecord(rec, target, joinTable)
		if o.createFiles {
			className, err := a.createFromRecord(rec, target, decl)
			if err != nil {
				return err
			}
			decl.ClassName = className
		}
		if err := a.registry.AddTrigger(meta.ClassName, decl); err != nil {
			return err
		}
		added++
	}

	if added > 0 {
		a.infof("updated: %s", a.registry.Path())
	}
	if o.apply {
		a.successf("Mapping update process finished successfully.")
	} else {
		a.infof("To apply these changes, re-run the command with the --apply option.")
	}
	return nil
}

// declarationFromRecord maps an observed trigger onto a declaration. Triggers found on a
// join table keep it as on_table.
func declarationFromRecord(rec core.TriggerRecord, target storage.Target, joinTable bool) mapping.TriggerDeclaration {
	events := make([]string, 0, len(rec.Events))
	for _, e := range rec.Events {
		events = append(events, strings.ToLower(string(e)))
	}
	decl := mapping.TriggerDeclaration{
		Name:     rec.Name,
		Function: core.Deref(rec.Function),
		On:       events,
		When:     string(rec.Timing),
		Scope:    string(rec.Scope),
		Storage:  target.Name,
	}
	if joinTable {
		decl.OnTable = rec.Table
	}
	return decl
}

// createFromRecord stores the artifact of an observed trigger using the definition and
// body read from the database. It returns the generated class name, if any.
func (a *app) createFromRecord(rec core.TriggerRecord, target storage.Target, decl mapping.TriggerDeclaration) (string, error) {
	t := core.FromRecord(rec, target.Name, string(target.Kind))
	t.OnTable = core.Ptr(decl.OnTable)

	artifact, err := dialect.Build(a.dialect, &t)
	if err != nil {
		return "", fmt.Errorf("trigger %q: %w", rec.Name, err)
	}
	paths, err := a.store().Write(&t, artifact)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		a.infof("created: %s", p)
	}
	if target.Kind == storage.KindGeneratedClasses {
		return generate.ClassName(&t), nil
	}
	return "", nil
}
