package mapping

import (
	"errors"
	"fmt"

	"trigmap/internal/core"
	"trigmap/internal/storage"
)

// Extractor walks the entity metadata and resolves each trigger declaration.
type Extractor struct {
	source   Source
	resolver *storage.Resolver
}

// NewExtractor creates an Extractor reading entities from source and resolving storages
// with resolver.
func NewExtractor(source Source, resolver *storage.Resolver) *Extractor {
	return &Extractor{source: source, resolver: resolver}
}

// Entity returns the metadata of the entity designated by name.
func (x *Extractor) Entity(name string) (EntityMetadata, error) {
	for _, m := range x.source.AllMetadata() {
		if m.Matches(name) {
			return m, nil
		}
	}
	return EntityMetadata{}, fmt.Errorf("%w: %q", core.ErrNotAnEntity, name)
}

// Extract resolves the declarations of every entity, or of a single entity when
// entity is not empty. The result is keyed by trigger name; a name declared twice is
// a validation error since reconciliation relies on names being unique.
func (x *Extractor) Extract(entity string) (map[string]core.ResolvedTrigger, error) {
	if entity != "" {
		if _, err := x.Entity(entity); err != nil {
			return nil, err
		}
	}

	triggers := make(map[string]core.ResolvedTrigger)
	owners := make(map[string]string)
	for _, meta := range x.source.AllMetadata() {
		if entity != "" && !meta.Matches(entity) {
			continue
		}
		for _, decl := range meta.Triggers {
			resolved, err := x.Resolve(decl, meta)
			if err != nil {
				return nil, err
			}
			if owner, dup := owners[resolved.Name]; dup {
				return nil, &core.ValidationError{
					Entity:  "entity",
					Name:    meta.ClassName,
					Field:   "triggers",
					Message: fmt.Sprintf("trigger %q is already declared on %s", resolved.Name, owner),
					Err:     core.ErrDuplicateTrigger,
				}
			}
			owners[resolved.Name] = meta.ClassName
			triggers[resolved.Name] = resolved
		}
	}
	return triggers, nil
}

// Resolve turns one declaration of meta into a ResolvedTrigger. An explicit storage must
// name a configured target; otherwise the storage is inferred from the entity namespace.
func (x *Extractor) Resolve(decl TriggerDeclaration, meta EntityMetadata) (core.ResolvedTrigger, error) {
	decl = decl.WithDefaults()

	target, err := x.storageFor(decl, meta)
	if err != nil {
		return core.ResolvedTrigger{}, err
	}

	t := core.ResolvedTrigger{
		Name:        decl.Name,
		Table:       meta.TableName,
		Events:      decl.On,
		Timing:      decl.When,
		Scope:       decl.Scope,
		Storage:     target.Name,
		StorageKind: string(target.Kind),
		Function:    core.Ptr(decl.Function),
		OnTable:     core.Ptr(decl.OnTable),
		ClassName:   core.Ptr(decl.ClassName),
	}
	if err := t.Validate(); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			ve.Message = fmt.Sprintf("%s (declared on %s)", ve.Message, meta.ClassName)
		}
		return core.ResolvedTrigger{}, err
	}
	return t, nil
}

func (x *Extractor) storageFor(decl TriggerDeclaration, meta EntityMetadata) (storage.Target, error) {
	if decl.Storage != "" {
		target, err := x.resolver.Resolve(decl.Storage)
		if err != nil {
			return storage.Target{}, &core.ValidationError{
				Entity:  "trigger",
				Name:    decl.Name,
				Field:   "storage",
				Message: fmt.Sprintf("invalid storage %q on %s; configured: %v", decl.Storage, meta.ClassName, x.resolver.Names()),
				Err:     core.ErrInvalidStorage,
			}
		}
		return target, nil
	}
	target, err := x.resolver.Infer(meta.Namespace)
	if err != nil {
		return storage.Target{}, fmt.Errorf("trigger %q on %s: %w", decl.Name, meta.ClassName, err)
	}
	return target, nil
}

// FindOwner returns the entity owning table. When the table is only known as a join
// table of some entity, joinTable is true and the trigger must be mapped with on_table.
func (x *Extractor) FindOwner(table string) (meta EntityMetadata, joinTable bool, ok bool) {
	all := x.source.AllMetadata()
	for _, m := range all {
		if m.TableName == table {
			return m, false, true
		}
	}
	for _, m := range all {
		for _, jt := range m.JoinTables {
			if jt == table {
				return m, true, true
			}
		}
	}
	return EntityMetadata{}, false, false
}
