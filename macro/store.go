package macro

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// file is the on-disk document.
type file struct {
	Macros []Macro `json:"macros" yaml:"macros" toml:"macros"`
}

// Store keeps macros in a JSON, YAML or TOML file, chosen by extension.
// Every change is validated against the limits before it is written.
type Store struct {
	path   string
	limits Limits
	logger *slog.Logger

	mu        sync.RWMutex
	macros    []Macro
	lastWrite []byte
	callbacks []func([]Macro)
}

// Open loads the store at path. A missing file is an empty store; it is
// created on the first save.
func Open(path string, limits Limits, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := formatOf(path); err != nil {
		return nil, err
	}
	s := &Store{path: path, limits: limits, logger: logger}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read macros: %w", err)
	}
	ms, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	s.macros = ms
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Limits() Limits { return s.limits }

// List returns copies of all macros ordered by SortOrder.
func (s *Store) List() []Macro {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.macros)
}

func (s *Store) Get(id string) (Macro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.macros {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return Macro{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save adds m, or replaces the macro with the same id. A macro without an
// id gets a generated one; a new macro without a sort order goes last.
// Rejections are *ValidationError.
func (s *Store) Save(m Macro) (Macro, error) {
	m = m.Clone()
	m.Name = strings.TrimSpace(m.Name)
	if err := Validate(m, s.limits); err != nil {
		return Macro{}, err
	}

	s.mu.Lock()
	next := cloneAll(s.macros)
	replaced := false
	if m.ID == "" {
		m.ID = newID()
	}
	for i := range next {
		if next[i].ID == m.ID {
			next[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		if m.SortOrder == 0 {
			m.SortOrder = maxSortOrder(next) + 1
		}
		next = append(next, m)
	}
	if err := s.commitLocked(next); err != nil {
		s.mu.Unlock()
		return Macro{}, err
	}
	s.notifyLocked()
	return m.Clone(), nil
}

// Remove deletes the macro with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	next := make([]Macro, 0, len(s.macros))
	for _, m := range s.macros {
		if m.ID != id {
			next = append(next, m)
		}
	}
	if len(next) == len(s.macros) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.commitLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.notifyLocked()
	return nil
}

// OnChange registers a callback run after every save and every reload
// triggered by an external edit.
func (s *Store) OnChange(fn func([]Macro)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Watch reloads the store when the file is changed by someone else, until
// ctx is done. The directory is watched so editors that replace the file
// are seen. An invalid edit is logged and the previous set is kept.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		name := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				s.logger.Debug("macro file change detected", "op", ev.Op.String(), "file", ev.Name)
				if err := s.reload(); err != nil {
					s.logger.Warn("failed to reload macros", "error", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("macro watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if bytes.Equal(data, s.lastWrite) {
		// Our own save.
		s.mu.Unlock()
		return nil
	}
	ms, err := s.decode(data)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.macros = ms
	s.lastWrite = data
	s.logger.Info("macros reloaded", "count", len(ms))
	s.notifyLocked()
	return nil
}

func (s *Store) decode(data []byte) ([]Macro, error) {
	var doc file
	format, err := formatOf(s.path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		err = json.Unmarshal(data, &doc)
	case "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "toml":
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	for i := range doc.Macros {
		for j := range doc.Macros[i].Steps {
			st := &doc.Macros[i].Steps[j]
			if st.Keys == nil {
				st.Keys = []string{}
			}
			if st.Modifiers == nil {
				st.Modifiers = []string{}
			}
		}
	}
	if err := ValidateAll(doc.Macros, s.limits); err != nil {
		return nil, err
	}
	Sort(doc.Macros)
	return doc.Macros, nil
}

func (s *Store) encode(ms []Macro) ([]byte, error) {
	doc := file{Macros: ms}
	format, err := formatOf(s.path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "yaml":
		return yaml.Marshal(doc)
	case "toml":
		return toml.Marshal(doc)
	default:
		return json.MarshalIndent(doc, "", "  ")
	}
}

// commitLocked validates, writes and installs next. s.mu must be held.
func (s *Store) commitLocked(next []Macro) error {
	if err := ValidateAll(next, s.limits); err != nil {
		return err
	}
	Sort(next)
	data, err := s.encode(next)
	if err != nil {
		return fmt.Errorf("encode macros: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create macro dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write macros: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write macros: %w", err)
	}
	s.macros = next
	s.lastWrite = data
	return nil
}

// notifyLocked copies state, releases s.mu and runs the callbacks.
func (s *Store) notifyLocked() {
	ms := cloneAll(s.macros)
	callbacks := slices.Clone(s.callbacks)
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb(ms)
	}
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	}
	return "", fmt.Errorf("unsupported macro file %q: use .json, .yaml or .toml", path)
}

func cloneAll(ms []Macro) []Macro {
	out := make([]Macro, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}

func maxSortOrder(ms []Macro) int {
	n := 0
	for _, m := range ms {
		if m.SortOrder > n {
			n = m.SortOrder
		}
	}
	return n
}

func newID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
