package detect

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Result describes how a project is built and served.
type Result struct {
	Name           string `json:"name"`
	Language       string `json:"language,omitempty"`       // "node", "go", "rust", "python", ""
	PackageManager string `json:"packageManager,omitempty"` // "bun", "pnpm", "yarn", "npm", ""
	DevCommand     string `json:"devCommand,omitempty"`
	PreviewCommand string `json:"previewCommand,omitempty"`
	TestCommand    string `json:"testCommand,omitempty"`
}

func Detect(root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	r := &Result{
		Name:     filepath.Base(absRoot),
		Language: detectLanguage(absRoot),
	}
	if r.Language == "node" {
		r.PackageManager = detectPackageManager(absRoot)
	}
	r.DevCommand = detectDevCommand(absRoot, r.PackageManager)
	r.PreviewCommand = detectScriptCommand(absRoot, r.PackageManager, "preview")
	r.TestCommand = detectTestCommand(absRoot, r.PackageManager)
	return r, nil
}

// Commands lists the detected commands a dev server can be started with.
func (r *Result) Commands() []string {
	var out []string
	for _, c := range []string{r.DevCommand, r.PreviewCommand} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func detectLanguage(root string) string {
	switch {
	case fileExists(filepath.Join(root, "package.json")):
		return "node"
	case fileExists(filepath.Join(root, "go.mod")):
		return "go"
	case fileExists(filepath.Join(root, "Cargo.toml")):
		return "rust"
	case fileExists(filepath.Join(root, "pyproject.toml")), fileExists(filepath.Join(root, "requirements.txt")):
		return "python"
	}
	return ""
}

func detectPackageManager(root string) string {
	if fileExists(filepath.Join(root, "bun.lockb")) || fileExists(filepath.Join(root, "bun.lock")) {
		return "bun"
	}
	if fileExists(filepath.Join(root, "pnpm-lock.yaml")) {
		return "pnpm"
	}
	if fileExists(filepath.Join(root, "yarn.lock")) {
		return "yarn"
	}
	return "npm"
}

// runScript renders the invocation of a package.json script. yarn runs
// scripts without the run verb.
func runScript(pm, script string) string {
	if pm == "yarn" {
		return "yarn " + script
	}
	return pm + " run " + script
}

func detectScriptCommand(root, pm, script string) string {
	if pm == "" {
		return ""
	}
	if _, ok := readPackageJSONScripts(filepath.Join(root, "package.json"))[script]; ok {
		return runScript(pm, script)
	}
	return ""
}

func detectDevCommand(root, pm string) string {
	if cmd := detectScriptCommand(root, pm, "dev"); cmd != "" {
		return cmd
	}
	if pm != "" {
		if _, ok := readPackageJSONScripts(filepath.Join(root, "package.json"))["start"]; ok {
			if pm == "npm" {
				return "npm start"
			}
			return runScript(pm, "start")
		}
	}
	if hasMakefileTarget(root, "dev") {
		return "make dev"
	}
	switch {
	case fileExists(filepath.Join(root, "go.mod")):
		return "go run ."
	case fileExists(filepath.Join(root, "Cargo.toml")):
		return "cargo run"
	case fileExists(filepath.Join(root, "manage.py")):
		return "python manage.py runserver"
	}
	return ""
}

func detectTestCommand(root, pm string) string {
	if pm != "" {
		script, ok := readPackageJSONScripts(filepath.Join(root, "package.json"))["test"]
		if ok && !strings.Contains(script, "echo \"Error") {
			return pm + " test"
		}
	}
	switch {
	case fileExists(filepath.Join(root, "go.mod")):
		return "go test ./..."
	case fileExists(filepath.Join(root, "Cargo.toml")):
		return "cargo test"
	case hasMakefileTarget(root, "test"):
		return "make test"
	case fileExists(filepath.Join(root, "pyproject.toml")):
		content, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
		if err == nil && strings.Contains(string(content), "pytest") {
			return "pytest"
		}
		return "python -m unittest"
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readPackageJSONScripts(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	return pkg.Scripts
}

var makeTargetRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)\s*:`)

func hasMakefileTarget(root, target string) bool {
	f, err := os.Open(filepath.Join(root, "Makefile"))
	if err != nil {
		return false
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := makeTargetRe.FindStringSubmatch(scanner.Text())
		if len(m) > 1 && m[1] == target {
			return true
		}
	}
	return false
}
