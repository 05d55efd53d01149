// Package toml reads and writes the entity registry, a TOML document listing every
// entity with its table, join tables and trigger declarations. It converts the raw
// document into mapping.EntityMetadata values the mapping extractor operates on.
package toml

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"trigmap/internal/core"
	"trigmap/internal/mapping"
)

// registryFile is the top-level TOML document.
type registryFile struct {
	Entities []tomlEntity `toml:"entities"`
}

// tomlEntity maps [[entities]].
type tomlEntity struct {
	Class      string        `toml:"class"`
	Namespace  string        `toml:"namespace"`
	Table      string        `toml:"table"`
	JoinTables []string      `toml:"join_tables,omitempty"`
	Triggers   []tomlTrigger `toml:"triggers,omitempty"`
}

// tomlTrigger maps [[entities.triggers]].
type tomlTrigger struct {
	Name      string   `toml:"name"`
	Function  string   `toml:"function,omitempty"`
	On        []string `toml:"on,omitempty"`
	When      string   `toml:"when,omitempty"`
	Scope     string   `toml:"scope,omitempty"`
	Storage   string   `toml:"storage,omitempty"`
	ClassName string   `toml:"class_name,omitempty"`
	OnTable   string   `toml:"on_table,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Parser reads entity registry files.
type Parser struct {
	fs afero.Fs
}

// NewParser creates a registry parser reading from fs.
func NewParser(fs afero.Fs) *Parser {
	return &Parser{fs: fs}
}

// ParseFile opens the file at the given path and parses it as an entity registry.
func (p *Parser) ParseFile(path string) (*Registry, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	reg, err := p.Parse(f)
	if err != nil {
		return nil, err
	}
	reg.fs = p.fs
	reg.path = path
	return reg, nil
}

// Parse reads TOML content from r and returns the registry it describes.
func (p *Parser) Parse(r io.Reader) (*Registry, error) {
	var rf registryFile
	if _, err := toml.NewDecoder(r).Decode(&rf); err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}

	entities, err := newConverter(&rf).convert()
	if err != nil {
		return nil, err
	}
	return &Registry{fs: p.fs, entities: entities}, nil
}

type converter struct {
	rf          *registryFile
	seenClasses map[string]bool
}

func newConverter(rf *registryFile) *converter {
	return &converter{rf: rf, seenClasses: make(map[string]bool, len(rf.Entities))}
}

func (c *converter) convert() ([]mapping.EntityMetadata, error) {
	out := make([]mapping.EntityMetadata, 0, len(c.rf.Entities))
	for i := range c.rf.Entities {
		e, err := c.convertEntity(&c.rf.Entities[i])
		if err != nil {
			return nil, fmt.Errorf("toml: entity %q: %w", c.rf.Entities[i].Class, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *converter) convertEntity(te *tomlEntity) (mapping.EntityMetadata, error) {
	class := strings.TrimSpace(te.Class)
	if class == "" {
		return mapping.EntityMetadata{}, &core.ValidationError{Entity: "entity", Field: "class", Message: "class is required"}
	}
	if c.seenClasses[class] {
		return mapping.EntityMetadata{}, &core.ValidationError{Entity: "entity", Name: class, Field: "class", Message: "duplicate entity class"}
	}
	c.seenClasses[class] = true

	table := strings.TrimSpace(te.Table)
	if table == "" {
		return mapping.EntityMetadata{}, &core.ValidationError{Entity: "entity", Name: class, Field: "table", Message: "table is required"}
	}

	meta := mapping.EntityMetadata{
		ClassName:  class,
		Namespace:  strings.TrimSpace(te.Namespace),
		TableName:  table,
		JoinTables: trimAll(te.JoinTables),
		Triggers:   make([]mapping.TriggerDeclaration, 0, len(te.Triggers)),
	}
	for i := range te.Triggers {
		decl, err := convertTrigger(class, &te.Triggers[i])
		if err != nil {
			return mapping.EntityMetadata{}, err
		}
		meta.Triggers = append(meta.Triggers, decl)
	}
	return meta, nil
}

func convertTrigger(class string, tt *tomlTrigger) (mapping.TriggerDeclaration, error) {
	name := strings.TrimSpace(tt.Name)
	if !identRe.MatchString(name) {
		return mapping.TriggerDeclaration{}, &core.ValidationError{
			Entity:  "trigger",
			Name:    name,
			Field:   "name",
			Message: fmt.Sprintf("invalid trigger name on %s", class),
		}
	}
	if fn := strings.TrimSpace(tt.Function); fn != "" && !identRe.MatchString(fn) {
		return mapping.TriggerDeclaration{}, &core.ValidationError{
			Entity:  "trigger",
			Name:    name,
			Field:   "function",
			Message: fmt.Sprintf("invalid function name %q", fn),
		}
	}
	return mapping.TriggerDeclaration{
		Name:      name,
		Function:  strings.TrimSpace(tt.Function),
		On:        trimAll(tt.On),
		When:      strings.TrimSpace(tt.When),
		Scope:     strings.TrimSpace(tt.Scope),
		Storage:   strings.TrimSpace(tt.Storage),
		ClassName: strings.TrimSpace(tt.ClassName),
		OnTable:   strings.TrimSpace(tt.OnTable),
	}, nil
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
