package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ParseDefinition decodes a layout definition. The format is chosen by the
// file extension of name: .json, .yaml/.yml or .toml.
func ParseDefinition(name string, data []byte) (Definition, error) {
	var def Definition
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(data, &def)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &def)
	case ".toml":
		err = toml.Unmarshal(data, &def)
	default:
		return def, fmt.Errorf("%w: unsupported layout file %q", ErrInvalidLayout, name)
	}
	if err != nil {
		return def, fmt.Errorf("%w: decode %s: %v", ErrInvalidLayout, name, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return def, nil
}

// LoadFile reads, validates and registers a layout file.
func (r *Registry) LoadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := ParseDefinition(path, data)
	if err != nil {
		return nil, err
	}
	if err := r.Register(def); err != nil {
		return nil, err
	}
	l, err := r.Get(def.Name)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// LoadDir registers every layout file in dir. Files with other extensions
// are ignored. Loading stops at the first invalid file.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml", ".toml":
		default:
			continue
		}
		l, err := r.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return names, fmt.Errorf("load layout %s: %w", e.Name(), err)
		}
		names = append(names, l.Name())
	}
	sort.Strings(names)
	return names, nil
}
