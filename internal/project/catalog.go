// Package project lists the projects under the configured projects path and
// resolves their directories and pages.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/justinpbarnett/devdeck/internal/detect"
)

const (
	SettingsFile = "gs3-settings.json"

	DefaultTTL             = 5 * time.Second
	defaultCleanupInterval = time.Minute
	listKey                = "projects"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidPath     = errors.New("invalid path")
	ErrPageNotFound    = errors.New("page not found")
)

// Project is one directory under the projects path.
type Project struct {
	Name           string   `json:"name"`
	Path           string   `json:"path"`
	HasSettings    bool     `json:"hasSettings"`
	Language       string   `json:"language,omitempty"`
	PackageManager string   `json:"packageManager,omitempty"`
	Commands       []string `json:"commands,omitempty"`
}

// Page is a Next.js style page.tsx inside a project.
type Page struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// RootFunc returns the current projects path. It is consulted on every call
// so changes to the settings file take effect without a restart.
type RootFunc func() (string, error)

// Catalog implements devserver.ProjectResolver.
type Catalog struct {
	root   RootFunc
	cache  *gocache.Cache
	logger *slog.Logger
}

type Option func(*Catalog)

func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) { c.cache = gocache.New(ttl, defaultCleanupInterval) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

func NewCatalog(root RootFunc, opts ...Option) *Catalog {
	c := &Catalog{
		root:   root,
		cache:  gocache.New(DefaultTTL, defaultCleanupInterval),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StaticRoot serves a fixed projects path.
func StaticRoot(dir string) RootFunc {
	return func() (string, error) { return dir, nil }
}

// List returns the projects sorted by name, creating the projects path when
// it does not exist yet.
func (c *Catalog) List() ([]Project, error) {
	root, err := c.root()
	if err != nil {
		return nil, err
	}
	key := listKey + ":" + root
	if v, ok := c.cache.Get(key); ok {
		if projects, ok := v.([]Project); ok {
			return projects, nil
		}
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create projects dir: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	projects := make([]Project, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		p := Project{Name: e.Name(), Path: dir, HasSettings: fileExists(filepath.Join(dir, SettingsFile))}
		if r, err := detect.Detect(dir); err == nil {
			p.Language = r.Language
			p.PackageManager = r.PackageManager
			p.Commands = r.Commands()
		} else {
			c.logger.Debug("project detection failed", "project", e.Name(), "error", err)
		}
		projects = append(projects, p)
	}

	c.cache.SetDefault(key, projects)
	return projects, nil
}

// Invalidate forgets the cached project list.
func (c *Catalog) Invalidate() {
	c.cache.Flush()
}

// Dir resolves a project ID to its directory. IDs are single path elements.
func (c *Catalog) Dir(projectID string) (string, error) {
	if projectID == "" || projectID == "." || projectID == ".." ||
		strings.ContainsAny(projectID, `/\`) || strings.ContainsRune(projectID, 0) {
		return "", fmt.Errorf("%w: project id %q", ErrInvalidPath, projectID)
	}
	root, err := c.root()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, projectID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return dir, nil
}

// Pages finds every page.tsx in a project outside node_modules.
func (c *Catalog) Pages(projectID string) ([]Page, error) {
	dir, err := c.Dir(projectID)
	if err != nil {
		return nil, err
	}

	var pages []Page
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "page.tsx" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		pages = append(pages, newPage("/"+filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", projectID, err)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, nil
}

func newPage(rel string) Page {
	name := path.Dir(rel)
	if name == "/app" {
		name = ""
	} else {
		name = strings.TrimPrefix(name, "/app/")
	}
	if name == "" || name == "/" {
		name = "root"
	}
	return Page{Path: rel, Name: name}
}

// PageContent reads a file inside a project. pagePath is relative to the
// project directory and may not leave it.
func (c *Catalog) PageContent(projectID, pagePath string) (string, error) {
	if pagePath == "" {
		return "", fmt.Errorf("%w: page path is required", ErrInvalidPath)
	}
	dir, err := c.Dir(projectID)
	if err != nil {
		return "", err
	}

	full := filepath.Join(dir, filepath.FromSlash(pagePath))
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes the project", ErrInvalidPath, pagePath)
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, pagePath)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
