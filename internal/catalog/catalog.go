// Package catalog resolves where setting tables come from: a built-in table,
// a YAML file or an Excel/CSV sheet.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"jugglerbayes/adapters/excel"
	"jugglerbayes/domain/core"
	"jugglerbayes/domain/setting"
	"jugglerbayes/ports"
)

var builtins = map[string]func() *setting.Catalog{
	"myjuggler5": setting.MyJugglerV,
}

// Builtins lists the names of the compiled-in catalogs
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open picks a source for file, or for the named built-in when file is empty
func Open(file, builtin string) (ports.CatalogSource, error) {
	if file == "" {
		if _, ok := builtins[builtin]; !ok {
			return nil, fmt.Errorf("%w: no built-in catalog named %q (have %s)",
				core.ErrCatalogNotFound, builtin, strings.Join(Builtins(), ", "))
		}
		return BuiltinSource{Name: builtin}, nil
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return YAMLSource{Path: file}, nil
	case ".xlsx", ".csv":
		return excel.NewCatalogReader(file), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, file)
	}
}

// BuiltinSource serves one of the compiled-in catalogs
type BuiltinSource struct {
	Name string
}

func (s BuiltinSource) Load(ctx context.Context) (*setting.Catalog, error) {
	build, ok := builtins[s.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCatalogNotFound, s.Name)
	}
	c := build()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// yamlCatalog is the on-disk YAML shape. Probabilities are strings so that
// odds like "1/5.90" can be written as published.
type yamlCatalog struct {
	Name     string `yaml:"name"`
	Settings []struct {
		Label       string  `yaml:"label"`
		Probability string  `yaml:"probability"`
		Prior       *string `yaml:"prior"`
	} `yaml:"settings"`
}

// YAMLSource reads a catalog file such as:
//
//	name: myjuggler5
//	settings:
//	  - label: 設定1
//	    probability: 1/5.90
//	    prior: 0.5
type YAMLSource struct {
	Path string
}

func (s YAMLSource) Load(ctx context.Context) (*setting.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrCatalogNotFound, s.Path)
		}
		return nil, fmt.Errorf("failed to read catalog %s: %w", s.Path, err)
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrUnsupportedFormat, s.Path, err)
	}

	entries := make([]setting.Entry, 0, len(doc.Settings))
	for i, row := range doc.Settings {
		p, err := setting.ParseProbability(row.Probability)
		if err != nil {
			return nil, fmt.Errorf("settings[%d]: %w", i, err)
		}
		entry := setting.Entry{Label: setting.Label(row.Label), Probability: p}
		if row.Prior != nil {
			w, err := setting.ParseProbability(*row.Prior)
			if err != nil {
				return nil, fmt.Errorf("settings[%d] prior: %w", i, err)
			}
			entry.Prior = &w
		}
		entries = append(entries, entry)
	}

	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	}
	return setting.NewCatalog(name, entries)
}
