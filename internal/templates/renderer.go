// Package templates renders the confirmation and newsletter emails using
// the Liquid template language.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Service renders named Liquid templates loaded from a directory. Rendering
// is strict: a missing template or an unresolved variable is an error, never
// a silently empty substitution.
type Service struct {
	engine *liquid.Engine

	mu      sync.RWMutex
	sources map[string]string
	cache   sync.Map // map[string]*liquid.Template
}

// NewService creates an empty template service.
func NewService() *Service {
	return &Service{
		engine:  liquid.NewEngine(),
		sources: make(map[string]string),
	}
}

// LoadDir registers every .html and .txt file in dir under its file name.
func (s *Service) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading template dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".html" && ext != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading template %s: %w", e.Name(), err)
		}
		s.Register(e.Name(), string(data))
	}
	return nil
}

// Register adds (or replaces) a template source under the given name.
func (s *Service) Register(name, source string) {
	s.mu.Lock()
	s.sources[name] = source
	s.mu.Unlock()
	s.cache.Delete(name)
}

// Render renders the named template with the given variables. It fails when
// the template is unknown or references a variable that is not bound.
func (s *Service) Render(name string, vars map[string]string) (string, error) {
	s.mu.RLock()
	src, ok := s.sources[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	if missing := unboundVariables(src, vars); len(missing) > 0 {
		return "", fmt.Errorf("template %q references unbound variables: %s", name, strings.Join(missing, ", "))
	}

	tpl, err := s.compiled(name, src)
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", name, err)
	}

	bindings := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		bindings[k] = v
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return out, nil
}

func (s *Service) compiled(name, src string) (*liquid.Template, error) {
	if cached, ok := s.cache.Load(name); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := s.engine.ParseString(src)
	if err != nil {
		return nil, err
	}
	s.cache.Store(name, tpl)
	return tpl, nil
}

// varPattern matches {{ variable }} and {{ variable | filter }} references.
var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:\||\}\})`)

func unboundVariables(src string, vars map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, match := range varPattern.FindAllStringSubmatch(src, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
