// Package config loads trigmap.toml: the database connection, the storage targets, path
// aliases and migration settings. It is read once at startup and turned into the
// immutable values the rest of the tool works with.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"trigmap/internal/core"
	"trigmap/internal/database"
	"trigmap/internal/storage"
)

const (
	// DefaultFile is looked up in the working directory when --config is not given.
	DefaultFile = "trigmap.toml"
	// DefaultEntities is the registry file used when "entities" is not set.
	DefaultEntities = "entities.toml"
	// DefaultMigrations is the migrations directory used when none is set.
	DefaultMigrations = "migrations"
	// FallbackDSNEnv is read when [database].dsn is empty.
	FallbackDSNEnv = "DATABASE_URL"
)

// configFile is the top-level TOML document.
type configFile struct {
	Entities   string            `toml:"entities"`
	Database   tomlDatabase      `toml:"database"`
	Storage    []tomlStorage     `toml:"storage"`
	Aliases    map[string]string `toml:"aliases"`
	Migrations tomlMigrations    `toml:"migrations"`
}

// tomlDatabase maps [database].
type tomlDatabase struct {
	Dialect          string   `toml:"dialect"`
	Driver           string   `toml:"driver"`
	DSN              string   `toml:"dsn"`
	ExcludedTriggers []string `toml:"excluded_triggers"`
}

// tomlStorage maps one [[storage]] entry.
type tomlStorage struct {
	Name      string `toml:"name"`
	Type      string `toml:"type"`
	Directory string `toml:"directory"`
	Namespace string `toml:"namespace"`
}

// tomlMigrations maps [migrations].
type tomlMigrations struct {
	Enabled   bool   `toml:"enabled"`
	Directory string `toml:"directory"`
}

// Config is the validated configuration.
type Config struct {
	// Dir is the directory holding the config file; relative paths are resolved against it.
	Dir      string
	Entities string
	Database Database
	Storages []storage.Target
	Aliases  map[string]string

	Migrations Migrations
}

// Database holds the connection settings.
type Database struct {
	Dialect          core.Dialect
	Driver           string
	DSN              string
	ExcludedTriggers []string
}

// Migrations controls whether schema:diff writes migration files and where.
type Migrations struct {
	Enabled   bool
	Directory string
}

// Loader reads configuration through an afero filesystem.
type Loader struct {
	fs     afero.Fs
	lookup func(string) (string, bool)
}

// NewLoader creates a loader reading from fs and the process environment.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs, lookup: os.LookupEnv}
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookup = lookup
	return l
}

// Load reads the config file at path. A ".env" file next to it is loaded first; its
// values never override variables already present in the environment.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %q: %w", path, err)
	}

	f, err := l.fs.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	dotenv, err := l.readDotenv(filepath.Join(filepath.Dir(abs), ".env"))
	if err != nil {
		return nil, err
	}

	cfg, err := l.parse(f, dotenv)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(abs)
	cfg.resolvePaths()
	return cfg, nil
}

// Parse decodes a config document without touching the filesystem. Paths stay as written.
func (l *Loader) Parse(r io.Reader) (*Config, error) {
	return l.parse(r, nil)
}

func (l *Loader) readDotenv(path string) (map[string]string, error) {
	f, err := l.fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return values, nil
}

func (l *Loader) parse(r io.Reader, dotenv map[string]string) (*Config, error) {
	var cf configFile
	if _, err := toml.NewDecoder(r).Decode(&cf); err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	env := func(key string) (string, bool) {
		if v, ok := l.lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	return newConverter(&cf, env).convert()
}

type converter struct {
	cf  *configFile
	env func(string) (string, bool)
}

func newConverter(cf *configFile, env func(string) (string, bool)) *converter {
	return &converter{cf: cf, env: env}
}

func (c *converter) convert() (*Config, error) {
	cfg := &Config{
		Entities: strings.TrimSpace(c.cf.Entities),
		Aliases:  make(map[string]string, len(c.cf.Aliases)),
		Migrations: Migrations{
			Enabled:   c.cf.Migrations.Enabled,
			Directory: strings.TrimSpace(c.cf.Migrations.Directory),
		},
	}
	if cfg.Entities == "" {
		cfg.Entities = DefaultEntities
	}
	if cfg.Migrations.Directory == "" {
		cfg.Migrations.Directory = DefaultMigrations
	}

	db, err := c.convertDatabase()
	if err != nil {
		return nil, err
	}
	cfg.Database = db

	for alias, dir := range c.cf.Aliases {
		cfg.Aliases[strings.TrimPrefix(alias, "@")] = c.expand(dir)
	}

	seen := make(map[string]bool, len(c.cf.Storage))
	for i, ts := range c.cf.Storage {
		t, err := c.convertStorage(i, ts)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, &core.ConfigError{Key: "storage." + t.Name, Err: fmt.Errorf("%w: duplicate storage name %q", core.ErrInvalidStorage, t.Name)}
		}
		seen[t.Name] = true
		cfg.Storages = append(cfg.Storages, t)
	}
	return cfg, nil
}

func (c *converter) convertDatabase() (Database, error) {
	td := c.cf.Database
	raw := strings.TrimSpace(td.Dialect)
	if raw == "" {
		return Database{}, &core.ConfigError{Key: "database.dialect", Err: errors.New("dialect is required")}
	}
	d, err := core.ParseDialect(raw)
	if err != nil {
		return Database{}, &core.ConfigError{Key: "database.dialect", Err: err}
	}

	dsn := c.expand(strings.TrimSpace(td.DSN))
	if dsn == "" {
		dsn, _ = c.env(FallbackDSNEnv)
	}

	excluded := make([]string, 0, len(td.ExcludedTriggers))
	for _, name := range td.ExcludedTriggers {
		if name = strings.TrimSpace(name); name != "" {
			excluded = append(excluded, name)
		}
	}

	return Database{
		Dialect:          d,
		Driver:           strings.TrimSpace(td.Driver),
		DSN:              dsn,
		ExcludedTriggers: excluded,
	}, nil
}

func (c *converter) convertStorage(i int, ts tomlStorage) (storage.Target, error) {
	name := strings.TrimSpace(ts.Name)
	if name == "" {
		return storage.Target{}, &core.ConfigError{Key: fmt.Sprintf("storage[%d].name", i), Err: errors.New("name is required")}
	}
	typ := ts.Type
	if strings.TrimSpace(typ) == "" {
		typ = string(storage.KindSQLFiles)
	}
	kind, err := storage.ParseKind(typ)
	if err != nil {
		return storage.Target{}, &core.ConfigError{Key: "storage." + name + ".type", Err: err}
	}
	return storage.Target{
		Name:      name,
		Kind:      kind,
		Directory: c.expand(strings.TrimSpace(ts.Directory)),
		Namespace: strings.TrimSpace(ts.Namespace),
	}, nil
}

// expand substitutes ${VAR} and $VAR references. Unset variables expand to "".
func (c *converter) expand(s string) string {
	return os.Expand(s, func(key string) string {
		v, _ := c.env(key)
		return v
	})
}

// resolvePaths makes relative paths absolute against the config directory. Aliased
// storage directories are left for the alias locator.
func (c *Config) resolvePaths() {
	c.Entities = c.abs(c.Entities)
	c.Migrations.Directory = c.abs(c.Migrations.Directory)
	for i := range c.Storages {
		if !strings.HasPrefix(c.Storages[i].Directory, "@") {
			c.Storages[i].Directory = c.abs(c.Storages[i].Directory)
		}
	}
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Resolver builds the storage resolver, wiring the [aliases] table as its locator.
func (c *Config) Resolver() (*storage.Resolver, error) {
	return storage.NewResolver(c.Storages, storage.NewAliasLocator(c.Dir, c.Aliases))
}

// ConnectionOptions returns the options used to open the database.
func (c *Config) ConnectionOptions() database.Options {
	return database.Options{
		Dialect: c.Database.Dialect,
		Driver:  c.Database.Driver,
		DSN:     c.Database.DSN,
	}
}
