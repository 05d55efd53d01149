package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AliasLocator resolves "@name/rest" against a table of alias roots, the way bundle or
// module relative paths are resolved by a framework.
type AliasLocator struct {
	roots map[string]string
}

// NewAliasLocator builds a locator from alias → root directory pairs.
// Relative roots are made absolute against base.
func NewAliasLocator(base string, aliases map[string]string) *AliasLocator {
	roots := make(map[string]string, len(aliases))
	for name, root := range aliases {
		if !filepath.IsAbs(root) {
			root = filepath.Join(base, root)
		}
		roots[strings.TrimPrefix(name, "@")] = filepath.Clean(root)
	}
	return &AliasLocator{roots: roots}
}

func (l *AliasLocator) ResolveAliasedPath(alias string) (string, error) {
	if !strings.HasPrefix(alias, "@") {
		return alias, nil
	}
	name, rest, _ := strings.Cut(strings.TrimPrefix(alias, "@"), "/")
	root, ok := l.roots[name]
	if !ok {
		return "", fmt.Errorf("unknown path alias %q", "@"+name)
	}
	return filepath.Join(root, filepath.FromSlash(rest)), nil
}
