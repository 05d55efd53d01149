package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/diff"
	"trigmap/internal/migration"
	"trigmap/internal/output"
	"trigmap/internal/storage"
)

type diffOptions struct {
	apply     bool
	storage   string
	migration bool
	format    string
}

func diffCmd(opts *globalOptions) *cobra.Command {
	var o diffOptions
	cmd := &cobra.Command{
		Use:     "schema:diff",
		Aliases: []string{"s:d"},
		Short:   "Create the artifacts of mapped triggers missing from the database",
		Long: `Diff lists the triggers that are declared on entities but missing from the
database. With --apply their SQL files or generated Go sources are created in their
storage, and a migration (up/down SQL) is written when migrations are enabled. Without
--apply, --format previews the migration of the missing triggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.connect(cmd.Context()); err != nil {
					return err
				}
				return a.schemaDiff(cmd.Context(), o)
			})
		},
	}
	cmd.Flags().BoolVarP(&o.apply, "apply", "a", false, "Create the trigger artifacts")
	cmd.Flags().StringVar(&o.storage, "storage", "", "Storage receiving the artifacts, instead of each trigger's own")
	cmd.Flags().BoolVar(&o.migration, "migration", false, "Write a migration even when disabled in the configuration")
	cmd.Flags().StringVar(&o.format, "format", "", "Preview the migration in a format: human, json, summary or sql")
	return cmd
}

func (a *app) schemaDiff(ctx context.Context, o diffOptions) error {
	var formatter output.Formatter
	if o.format != "" {
		if o.apply {
			return fmt.Errorf("%w: --format only applies to the dry run", errInvalid)
		}
		f, err := output.NewFormatter(o.format)
		if err != nil {
			return err
		}
		formatter = f
	}

	if o.apply {
		a.notef("Running in APPLY mode: changes will be written to files.")
	} else {
		a.notef("Running in DRY-RUN mode. No files will be changed. Use the --apply option to execute changes.")
	}

	var override *storage.Target
	if o.storage != "" {
		t, err := a.chooseStorage(o.storage)
		if err != nil {
			return err
		}
		override = &t
	}

	mapped, err := a.extractor.Extract("")
	if err != nil {
		return err
	}
	observed, err := a.observed(ctx, "")
	if err != nil {
		return err
	}

	missing := diff.Diff(mapped, observed).MissingInDB
	if len(missing) == 0 {
		a.successf("All mapped triggers already exist in the database. Nothing to do.")
		return nil
	}

	a.infof("The following triggers are mapped but missing from the database:")
	toCreate := make([]core.ResolvedTrigger, 0, len(missing))
	for _, name := range missing {
		t := mapped[name]
		if override != nil {
			t.Storage = override.Name
			t.StorageKind = string(override.Kind)
		}
		a.infof(" * Trigger %q will be created (storage: %s, %s)", t.Name, t.Storage, t.StorageKind)
		toCreate = append(toCreate, t)
	}

	if !o.apply {
		if formatter != nil {
			if err := a.previewMigration(formatter, toCreate); err != nil {
				return err
			}
		}
		a.infof("To create these files, re-run the command with the --apply option.")
		return nil
	}

	if err := a.createArtifacts(toCreate); err != nil {
		return err
	}
	if a.cfg.Migrations.Enabled || o.migration {
		if err := a.writeMigration(toCreate); err != nil {
			return err
		}
	}
	a.successf("Trigger files created successfully.")
	return nil
}

// createArtifacts builds and stores the artifact of every trigger.
func (a *app) createArtifacts(triggers []core.ResolvedTrigger) error {
	store := a.store()
	for i := range triggers {
		t := &triggers[i]
		artifact, err := dialect.Build(a.dialect, t)
		if err != nil {
			return err
		}
		paths, err := store.Write(t, artifact)
		if err != nil {
			return err
		}
		for _, p := range paths {
			a.infof("created: %s", p)
		}
	}
	return nil
}

func (a *app) previewMigration(formatter output.Formatter, triggers []core.ResolvedTrigger) error {
	m, err := dialect.GenerateMigration(a.dialect, triggers)
	if err != nil {
		return err
	}
	preview, err := formatter.FormatMigration(m)
	if err != nil {
		return fmt.Errorf("format migration: %w", err)
	}
	fmt.Fprint(a.out, preview)
	return nil
}

func (a *app) writeMigration(triggers []core.ResolvedTrigger) error {
	m, err := dialect.GenerateMigration(a.dialect, triggers)
	if err != nil {
		return err
	}
	files, err := migration.NewWriter(a.fs, a.cfg.Migrations.Directory).Write(m)
	if err != nil {
		return err
	}
	a.infof("created migration: %s", files.Up)
	a.infof("created migration: %s", files.Down)
	return nil
}
