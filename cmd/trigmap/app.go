package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"trigmap/internal/apply"
	"trigmap/internal/config"
	"trigmap/internal/core"
	"trigmap/internal/database"
	"trigmap/internal/generate"
	"trigmap/internal/introspect"
	"trigmap/internal/mapping"
	"trigmap/internal/parser/toml"
	"trigmap/internal/storage"
)

// conn is what the commands need from a database handle.
type conn interface {
	introspect.Queryer
	apply.Execer
}

// app carries everything a command works with. It is assembled once per invocation.
type app struct {
	fs        afero.Fs
	cfg       *config.Config
	dialect   core.Dialect
	resolver  *storage.Resolver
	registry  *toml.Registry
	extractor *mapping.Extractor
	db        conn
	closeDB   func() error

	out    io.Writer
	errOut io.Writer
	prompt prompter
}

// loadApp reads the configuration and the entity registry. It does not connect.
func loadApp(opts *globalOptions, out, errOut io.Writer) (*app, error) {
	fs := afero.NewOsFs()
	cfg, err := config.NewLoader(fs).Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}
	registry, err := toml.NewParser(fs).ParseFile(cfg.Entities)
	if err != nil {
		return nil, err
	}

	var p prompter = surveyPrompter{}
	if opts.yes {
		p = assumeYes{}
	}
	return &app{
		fs:        fs,
		cfg:       cfg,
		dialect:   cfg.Database.Dialect,
		resolver:  resolver,
		registry:  registry,
		extractor: mapping.NewExtractor(registry, resolver),
		out:       out,
		errOut:    errOut,
		prompt:    p,
	}, nil
}

// connect opens the configured database unless a handle is already set.
func (a *app) connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := database.Open(ctx, a.cfg.ConnectionOptions())
	if err != nil {
		return err
	}
	if info, err := database.Detect(ctx, a.dialect, db); err == nil {
		a.infof("Connected to %s", info)
	}
	a.db = db
	a.closeDB = db.Close
	return nil
}

func (a *app) close() {
	if a.closeDB != nil {
		_ = a.closeDB()
	}
}

func (a *app) store() *generate.Store {
	return generate.NewStore(a.fs, a.resolver, a.dialect)
}

// observed lists the database triggers, minus the excluded ones. With an entity filter
// only triggers on the entity's table and join tables are kept.
func (a *app) observed(ctx context.Context, entity string) (map[string]core.TriggerRecord, error) {
	triggers, err := introspect.ListTriggers(ctx, a.dialect, a.db, a.excluded())
	if err != nil {
		return nil, err
	}
	if entity == "" {
		return triggers, nil
	}
	meta, err := a.extractor.Entity(entity)
	if err != nil {
		return nil, err
	}
	return introspect.FilterByTables(triggers, meta.Tables()...), nil
}

func (a *app) excluded() []string {
	if a.cfg == nil {
		return nil
	}
	return a.cfg.Database.ExcludedTriggers
}

// chooseStorage returns the named target, the only target, or asks for one.
func (a *app) chooseStorage(name string) (storage.Target, error) {
	if name != "" {
		t, err := a.resolver.Resolve(name)
		if err != nil {
			return storage.Target{}, fmt.Errorf("the storage %q is invalid; configured: %v: %w", name, a.resolver.Names(), err)
		}
		return t, nil
	}
	names := a.resolver.Names()
	switch len(names) {
	case 0:
		return storage.Target{}, &core.ConfigError{Key: "storage", Err: fmt.Errorf("%w: no storage configured", core.ErrInvalidStorage)}
	case 1:
		return a.resolver.Resolve(names[0])
	}
	choice, err := a.prompt.Select("Please choose a storage (defaults to the first one)", names)
	if err != nil {
		return storage.Target{}, err
	}
	a.infof("You have selected the %q storage", choice)
	return a.resolver.Resolve(choice)
}

func (a *app) infof(format string, args ...any) {
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

func (a *app) notef(format string, args ...any) {
	fmt.Fprintf(a.errOut, color.CyanString("[NOTE] ")+format+"\n", args...)
}

func (a *app) warnf(format string, args ...any) {
	fmt.Fprintf(a.errOut, color.YellowString("[WARNING] ")+format+"\n", args...)
}

func (a *app) successf(format string, args ...any) {
	fmt.Fprintf(a.out, color.GreenString("[OK] ")+format+"\n", args...)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
