package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/altafino/folder-import/internal/types"
	yaml "gopkg.in/yaml.v3"
)

// Templates hold settings shared by several profiles, one file per template in
// <config-dir>/templates. A profile names its template in meta.template and a
// template may name a parent the same way.

var (
	templates   map[string]*types.Config
	templatesMu sync.RWMutex
)

// LoadTemplates replaces the known templates with the .yaml and .yml files of dir.
// A missing directory yields an empty template set.
func LoadTemplates(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	loaded := make(map[string]*types.Config, len(entries))
	for _, entry := range entries {
		name, ok := templateName(entry)
		if !ok {
			continue
		}
		if _, dup := loaded[name]; dup {
			return fmt.Errorf("template %s is defined twice", name)
		}

		tpl, err := readTemplate(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to load template %s: %w", entry.Name(), err)
		}
		loaded[name] = tpl
	}

	templatesMu.Lock()
	templates = loaded
	templatesMu.Unlock()
	return nil
}

func templateName(entry os.DirEntry) (string, bool) {
	if entry.IsDir() {
		return "", false
	}
	ext := filepath.Ext(entry.Name())
	if ext != ".yaml" && ext != ".yml" {
		return "", false
	}
	return strings.TrimSuffix(entry.Name(), ext), true
}

func readTemplate(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tpl := &types.Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ApplyTemplate merges the template chain starting at name under cfg. Values set in
// cfg win; the meta section always stays the profile's own.
func ApplyTemplate(cfg *types.Config, name string) error {
	templatesMu.RLock()
	defer templatesMu.RUnlock()

	if templates == nil {
		return errors.New("templates not initialized")
	}

	base, err := resolveTemplate(name, nil)
	if err != nil {
		return err
	}

	meta := cfg.Meta
	if err := mergo.Merge(base, cfg, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config with template %s: %w", name, err)
	}
	base.Meta = meta

	*cfg = *base
	return nil
}

// resolveTemplate returns a fresh config holding name merged over its parents
func resolveTemplate(name string, chain []string) (*types.Config, error) {
	if slices.Contains(chain, name) {
		return nil, fmt.Errorf("template cycle: %s", strings.Join(append(chain, name), " -> "))
	}

	tpl, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}

	base := &types.Config{}
	if parent := tpl.Meta.Template; parent != "" {
		p, err := resolveTemplate(parent, append(chain, name))
		if err != nil {
			return nil, err
		}
		base = p
	}

	if err := mergo.Merge(base, tpl, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge template %s: %w", name, err)
	}
	return base, nil
}
