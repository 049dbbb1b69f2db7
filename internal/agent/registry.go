package agent

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
)

type Registry struct {
	agents map[string]*Agent
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{agents: make(map[string]*Agent), logger: logger}
}

// Load reads built-in agents from builtIn, then user and project overrides.
// Sources are read lowest precedence first so later ones replace earlier
// ones of the same name.
func (r *Registry) Load(projectRoot string, builtIn fs.FS) {
	if builtIn != nil {
		r.loadFromFS(builtIn, PriorityBuiltIn)
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.loadFromDir(filepath.Join(home, ".config", "devdeck", "agents"), PriorityUser)
	}
	if projectRoot != "" {
		r.loadFromDir(filepath.Join(projectRoot, ".devdeck", "agents"), PriorityProject)
	}
}

func (r *Registry) loadFromDir(dir string, priority int) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return
	}
	for _, p := range matches {
		a, err := ParseFile(p, priority)
		if err != nil {
			r.logger.Warn("skipping agent", "path", p, "error", err)
			continue
		}
		r.agents[a.Name] = a
	}
}

func (r *Registry) loadFromFS(fsys fs.FS, priority int) {
	matches, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return
	}
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			continue
		}
		a, err := Parse(data, "builtin://"+path.Base(name), priority)
		if err != nil {
			r.logger.Warn("skipping embedded agent", "name", name, "error", err)
			continue
		}
		r.agents[a.Name] = a
	}
}

func (r *Registry) Get(name string) (*Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// List returns the loaded agents sorted by name.
func (r *Registry) List() []*Agent {
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
