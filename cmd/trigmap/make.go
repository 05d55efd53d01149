package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/generate"
	"trigmap/internal/mapping"
	"trigmap/internal/storage"
)

func makeTriggerCmd(opts *globalOptions) *cobra.Command {
	var decl mapping.TriggerDeclaration
	var withMigration bool
	cmd := &cobra.Command{
		Use:   "make:trigger <entity> <name>",
		Short: "Declare a new trigger on an entity and create its artifacts",
		Long: `Make declares a trigger on the given entity, writes its SQL file or generated Go
source with a placeholder body, and records the declaration in the entity registry.
A migration is written as well with --migration or when migrations are enabled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decl.Name = args[1]
			return withApp(cmd, opts, func(a *app) error {
				return a.makeTrigger(args[0], decl, withMigration || a.cfg.Migrations.Enabled)
			})
		},
	}
	cmd.Flags().StringSliceVar(&decl.On, "on", nil, "Events firing the trigger (insert, update, delete)")
	cmd.Flags().StringVar(&decl.When, "when", "", "Timing: BEFORE or AFTER")
	cmd.Flags().StringVar(&decl.Scope, "scope", "", "Scope: ROW or STATEMENT")
	cmd.Flags().StringVar(&decl.Function, "function", "", "Function executed by the trigger (PostgreSQL)")
	cmd.Flags().StringVar(&decl.Storage, "storage", "", "Storage of the trigger; inferred from the entity namespace when empty")
	cmd.Flags().StringVar(&decl.OnTable, "on-table", "", "Attach the trigger to a join table of the entity")
	cmd.Flags().BoolVar(&withMigration, "migration", false, "Write a migration even when disabled in the configuration")
	return cmd
}

func (a *app) makeTrigger(entity string, decl mapping.TriggerDeclaration, withMigration bool) error {
	meta, err := a.extractor.Entity(entity)
	if err != nil {
		return err
	}

	existing, err := a.extractor.Extract("")
	if err != nil {
		return err
	}
	if _, ok := existing[decl.Name]; ok {
		return &core.ValidationError{
			Entity:  "trigger",
			Name:    decl.Name,
			Field:   "name",
			Message: fmt.Sprintf("a trigger named %q is already mapped", decl.Name),
			Err:     core.ErrDuplicateTrigger,
		}
	}

	decl = decl.WithDefaults()
	t, err := a.extractor.Resolve(decl, meta)
	if err != nil {
		return err
	}
	artifact, err := dialect.Build(a.dialect, &t)
	if err != nil {
		return err
	}
	paths, err := a.store().Write(&t, artifact)
	if err != nil {
		return err
	}
	for _, p := range paths {
		a.infof("created: %s", p)
	}

	if t.StorageKind == string(storage.KindGeneratedClasses) {
		decl.ClassName = generate.ClassName(&t)
	}
	if withMigration {
		if err := a.writeMigration([]core.ResolvedTrigger{t}); err != nil {
			return err
		}
	}
	if err := a.registry.AddTrigger(meta.ClassName, decl); err != nil {
		return err
	}
	a.infof("updated: %s", a.registry.Path())
	a.successf("Trigger %q declared on %s.", decl.Name, meta.ClassName)
	return nil
}
