// Package settings persists the workbench's user settings in a JSON file
// shared with the web frontend.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Settings is the typed view of settings.json. Unknown keys written by the
// frontend are kept in the file but not surfaced here.
type Settings struct {
	ProjectsPath    string `json:"projectsPath"`
	AnthropicAPIKey string `json:"anthropicApiKey"`
	GeminiAPIKey    string `json:"geminiApiKey"`
	OpenAIAPIKey    string `json:"openaiApiKey"`
	OS              string `json:"os"`
}

// Store reads and writes one settings file. The parsed document is cached
// until Invalidate is called or the watcher sees the file change.
type Store struct {
	path            string
	projectsDefault string
	projectsForced  string
	logger          *slog.Logger

	mu     sync.Mutex
	cached map[string]any
}

type Option func(*Store)

// WithProjectsPath makes path win over the file's projectsPath.
func WithProjectsPath(path string) Option {
	return func(s *Store) { s.projectsForced = path }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: slog.Default()}
	if cwd, err := os.Getwd(); err == nil {
		s.projectsDefault = filepath.Join(cwd, "projects")
	} else {
		s.projectsDefault = "projects"
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) defaults() map[string]any {
	return map[string]any{
		"projectsPath":    s.projectsDefault,
		"anthropicApiKey": "",
		"geminiApiKey":    "",
		"openaiApiKey":    "",
		"os":              runtime.GOOS,
	}
}

// Load returns the whole document with os set to the running platform. A
// missing or unparseable file is replaced by the defaults.
func (s *Store) Load() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	out := maps.Clone(doc)
	out["os"] = runtime.GOOS
	return out, nil
}

func (s *Store) loadLocked() (map[string]any, error) {
	if s.cached != nil {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if err == nil {
		var doc map[string]any
		if err = json.Unmarshal(data, &doc); err == nil && doc != nil {
			s.cached = doc
			return doc, nil
		}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("settings unreadable, writing defaults", "path", s.path, "error", err)
	}

	doc := s.defaults()
	if err := s.writeLocked(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Settings decodes the typed view. Relative project paths resolve against
// the working directory.
func (s *Store) Settings() (Settings, error) {
	doc, err := s.Load()
	if err != nil {
		return Settings{}, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, err
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.projectsForced != "" {
		out.ProjectsPath = s.projectsForced
	}
	if out.ProjectsPath == "" {
		out.ProjectsPath = s.projectsDefault
	}
	if abs, err := filepath.Abs(out.ProjectsPath); err == nil {
		out.ProjectsPath = abs
	}
	return out, nil
}

// Update shallow-merges patch into the stored document and writes it back.
func (s *Store) Update(patch map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	next := maps.Clone(current)
	maps.Copy(next, patch)
	next["os"] = runtime.GOOS

	if err := s.writeLocked(next); err != nil {
		return nil, err
	}
	return maps.Clone(next), nil
}

func (s *Store) writeLocked(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.cached = doc
	return nil
}

// Invalidate drops the cached document so the next read goes to disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Watch invalidates the cache whenever the settings file changes on disk.
// The watcher runs until ctx is done. changed, if non-nil, receives a
// non-blocking notification per invalidation.
func (s *Store) Watch(ctx context.Context, changed chan<- struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		w.Close()
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				s.Invalidate()
				s.logger.Debug("settings changed on disk", "path", abs, "op", ev.Op.String())
				if changed != nil {
					select {
					case changed <- struct{}{}:
					default:
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("settings watcher error", "error", err)
			}
		}
	}()
	return nil
}
