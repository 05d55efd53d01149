// Package storage resolves which configured storage target governs a trigger and where
// its artifacts live on disk. The configured targets are loaded once into an immutable
// Resolver which is then handed to the components that need it.
package storage

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"trigmap/internal/core"
)

// Kind is the backend representation of a storage target.
type Kind string

const (
	// KindSQLFiles keeps trigger and function bodies in plain .sql files.
	KindSQLFiles Kind = "sql"
	// KindGeneratedClasses keeps trigger SQL in generated Go source files.
	KindGeneratedClasses Kind = "generated"
)

// ParseKind validates a backend kind name.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindSQLFiles, KindGeneratedClasses:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown backend kind %q; expected %q or %q", core.ErrInvalidStorage, raw, KindSQLFiles, KindGeneratedClasses)
	}
}

// Target is one named, configured destination for trigger artifacts.
type Target struct {
	Name      string
	Kind      Kind
	Directory string
	Namespace string
}

// Locator resolves aliased directories such as "@project/triggers".
type Locator interface {
	ResolveAliasedPath(alias string) (string, error)
}

// Resolver is the immutable set of configured storage targets.
type Resolver struct {
	targets []Target
	byName  map[string]int
	locator Locator
}

// NewResolver validates targets and builds a Resolver. Target names must be unique and
// generated-classes targets must declare a namespace.
func NewResolver(targets []Target, locator Locator) (*Resolver, error) {
	r := &Resolver{
		targets: make([]Target, 0, len(targets)),
		byName:  make(map[string]int, len(targets)),
		locator: locator,
	}
	for _, t := range targets {
		key := fmt.Sprintf("storage.%s", t.Name)
		if strings.TrimSpace(t.Name) == "" {
			return nil, &core.ConfigError{Key: "storage", Err: fmt.Errorf("%w: storage name is empty", core.ErrInvalidStorage)}
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, &core.ConfigError{Key: key, Err: fmt.Errorf("%w: duplicate storage name %q", core.ErrInvalidStorage, t.Name)}
		}
		kind, err := ParseKind(string(t.Kind))
		if err != nil {
			return nil, &core.ConfigError{Key: key, Err: err}
		}
		t.Kind = kind
		if kind == KindGeneratedClasses && strings.TrimSpace(t.Namespace) == "" {
			return nil, &core.ConfigError{Key: key, Err: core.ErrMissingNamespace}
		}
		if strings.TrimSpace(t.Directory) == "" {
			return nil, &core.ConfigError{Key: key, Err: fmt.Errorf("%w: directory is empty", core.ErrInvalidStorage)}
		}
		r.byName[t.Name] = len(r.targets)
		r.targets = append(r.targets, t)
	}
	return r, nil
}

// Resolve returns the target called name.
func (r *Resolver) Resolve(name string) (Target, error) {
	idx, ok := r.byName[name]
	if !ok {
		return Target{}, fmt.Errorf("%w %q; configured: %s", core.ErrUnknownStorage, name, strings.Join(r.Names(), ", "))
	}
	return r.targets[idx], nil
}

// Names returns the configured storage names in configuration order.
func (r *Resolver) Names() []string {
	out := make([]string, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t.Name)
	}
	return out
}

// Targets returns a copy of the configured targets.
func (r *Resolver) Targets() []Target {
	return slices.Clone(r.targets)
}

// Namespaces returns the non-empty namespaces of all targets, in configuration order.
func (r *Resolver) Namespaces() []string {
	var out []string
	for _, t := range r.targets {
		if t.Namespace != "" {
			out = append(out, t.Namespace)
		}
	}
	return out
}

// Namespace returns the namespace of a generated-classes target.
func (r *Resolver) Namespace(name string) (string, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	if t.Namespace == "" {
		return "", &core.ConfigError{Key: "storage." + name, Err: core.ErrMissingNamespace}
	}
	return t.Namespace, nil
}

// ByNamespace returns the target whose namespace equals ns.
func (r *Resolver) ByNamespace(ns string) (Target, error) {
	for _, t := range r.targets {
		if t.Namespace != "" && strings.EqualFold(trimNamespace(t.Namespace), trimNamespace(ns)) {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: no storage with namespace %q", core.ErrUnknownStorage, ns)
}

// Infer picks the target whose namespace is the closest relative of ns.
// It fails when no configured namespace shares at least one leading segment with ns.
func (r *Resolver) Infer(ns string) (Target, error) {
	best, ok := ClosestNamespace(ns, r.Namespaces())
	if !ok || CommonPrefixLen(ns, best) == 0 {
		return Target{}, &core.ConfigError{Key: "storage", Err: fmt.Errorf("%w for %q among %v", core.ErrNoCommonNamespace, ns, r.Namespaces())}
	}
	return r.ByNamespace(best)
}

// ResolveDirectory returns the directory of the named target, resolving "@alias" paths
// through the locator.
func (r *Resolver) ResolveDirectory(name string) (string, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(t.Directory, "@") {
		return t.Directory, nil
	}
	if r.locator == nil {
		return "", &core.ConfigError{Key: "storage." + name, Err: fmt.Errorf("no locator configured to resolve %q", t.Directory)}
	}
	dir, err := r.locator.ResolveAliasedPath(t.Directory)
	if err != nil {
		return "", fmt.Errorf("resolve directory of storage %q: %w", name, err)
	}
	return dir, nil
}

// TriggerPath is where the SQL file of trigger lives under the named target.
// PostgreSQL keeps triggers and functions in separate sub-directories.
func (r *Resolver) TriggerPath(name string, dialect core.Dialect, trigger string) (string, error) {
	dir, err := r.ResolveDirectory(name)
	if err != nil {
		return "", err
	}
	switch dialect {
	case core.DialectPostgreSQL:
		return filepath.Join(dir, "triggers", trigger+".sql"), nil
	case core.DialectMySQL, core.DialectSQLServer:
		return filepath.Join(dir, trigger+".sql"), nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, dialect)
	}
}

// FunctionPath is where the SQL file of function lives under the named target.
// Only PostgreSQL triggers are backed by a separate function object.
func (r *Resolver) FunctionPath(name string, dialect core.Dialect, function string) (string, error) {
	switch dialect {
	case core.DialectPostgreSQL:
	case core.DialectMySQL, core.DialectSQLServer:
		return "", fmt.Errorf("%w: %s", core.ErrFunctionNotSupported, dialect)
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, dialect)
	}
	dir, err := r.ResolveDirectory(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "functions", function+".sql"), nil
}

// ClassPath is where the generated source of a trigger class lives under the named target.
func (r *Resolver) ClassPath(name, fileName string) (string, error) {
	dir, err := r.ResolveDirectory(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+".go"), nil
}
