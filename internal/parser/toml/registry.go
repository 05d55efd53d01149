package toml

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"trigmap/internal/core"
	"trigmap/internal/mapping"
)

// Registry is a parsed entity registry. It satisfies mapping.Source and mapping.Writer;
// AddTrigger rewrites the backing file when the registry was loaded with ParseFile.
type Registry struct {
	fs       afero.Fs
	path     string
	entities []mapping.EntityMetadata
}

var (
	_ mapping.Source = (*Registry)(nil)
	_ mapping.Writer = (*Registry)(nil)
)

// AllMetadata returns every entity in declaration order.
func (r *Registry) AllMetadata() []mapping.EntityMetadata {
	return r.entities
}

// Path returns the file the registry was loaded from, if any.
func (r *Registry) Path() string {
	return r.path
}

// AddTrigger appends decl to the entity named entityClass and persists the registry.
func (r *Registry) AddTrigger(entityClass string, decl mapping.TriggerDeclaration) error {
	idx := -1
	for i := range r.entities {
		if r.entities[i].Matches(entityClass) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", core.ErrNotAnEntity, entityClass)
	}
	for _, existing := range r.entities[idx].Triggers {
		if existing.Name == decl.Name {
			return fmt.Errorf("%w: trigger %q on %s", core.ErrDuplicateTrigger, decl.Name, r.entities[idx].ClassName)
		}
	}

	r.entities[idx].Triggers = append(r.entities[idx].Triggers, decl)
	if r.path == "" {
		return nil
	}
	return r.Save()
}

// Encode writes the registry as TOML to w.
func (r *Registry) Encode(w io.Writer) error {
	rf := registryFile{Entities: make([]tomlEntity, 0, len(r.entities))}
	for _, e := range r.entities {
		te := tomlEntity{
			Class:      e.ClassName,
			Namespace:  e.Namespace,
			Table:      e.TableName,
			JoinTables: e.JoinTables,
		}
		for _, d := range e.Triggers {
			te.Triggers = append(te.Triggers, tomlTrigger(d))
		}
		rf.Entities = append(rf.Entities, te)
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "  "
	if err := enc.Encode(rf); err != nil {
		return fmt.Errorf("toml: encode registry: %w", err)
	}
	return nil
}

// Save rewrites the file the registry was loaded from.
func (r *Registry) Save() error {
	if r.path == "" {
		return fmt.Errorf("toml: registry has no backing file")
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return err
	}
	if err := afero.WriteFile(r.fs, r.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("toml: write %q: %w", r.path, err)
	}
	return nil
}
