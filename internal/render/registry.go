package render

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MrSnakeDoc/menav/internal/domain"
)

//go:embed templates
var embedded embed.FS

// Well-known template names, relative to the templates directory.
const (
	LayoutTemplate        = "layouts/default.html"
	GenericPageTemplate   = "pages/generic.html"
	NotConfiguredTemplate = "partials/not-configured.html"

	templatePattern = "**/*.html"
)

var requiredTemplates = []string{
	LayoutTemplate,
	GenericPageTemplate,
	NotConfiguredTemplate,
}

// Registry is the set of named templates used by the renderer.
// Each template is registered under its path relative to the templates
// directory, e.g. "partials/category.html".
type Registry struct {
	root    *template.Template
	origins map[string]string
}

// EmbeddedTemplates returns the templates compiled into the binary.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadRegistry returns the embedded templates overridden by the files
// found under <projectRoot>/templates, if that directory exists.
func LoadRegistry(projectRoot string) (*Registry, error) {
	layers := []fs.FS{EmbeddedTemplates()}

	dir := filepath.Join(projectRoot, "templates")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		layers = append(layers, os.DirFS(dir))
	}
	return NewRegistry(layers...)
}

// NewRegistry collects every *.html file of the given filesystems.
// A file in a later filesystem replaces the one with the same name in an
// earlier filesystem.
func NewRegistry(layers ...fs.FS) (*Registry, error) {
	sources := make(map[string][]byte)
	origins := make(map[string]string)

	for i, fsys := range layers {
		matches, err := doublestar.Glob(fsys, templatePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to discover templates: %w", err)
		}
		for _, name := range matches {
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read template %s: %w", name, err)
			}
			sources[name] = data
			origins[name] = fmt.Sprintf("layer-%d", i)
		}
	}

	for _, name := range requiredTemplates {
		if _, ok := sources[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrTemplateMissing, name)
		}
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	root := template.New("menav").Funcs(Funcs(time.Now))
	for _, name := range names {
		if _, err := root.New(name).Parse(string(sources[name])); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	return &Registry{root: root, origins: origins}, nil
}

// Has reports whether a template with that name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.origins[name]
	return ok
}

// Lookup returns the template name used to render pageID:
// pages/<id>.html when registered, else the generic page template.
func (r *Registry) Lookup(pageID string) string {
	name := "pages/" + pageID + ".html"
	if r.Has(name) {
		return name
	}
	return GenericPageTemplate
}

// Names lists the registered templates in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.origins))
	for name := range r.origins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Origin reports which layer supplied a template, e.g. "layer-1" for the
// first override directory.
func (r *Registry) Origin(name string) string {
	return r.origins[name]
}

// instance returns an executable copy of the templates bound to now.
func (r *Registry) instance(now func() time.Time) (*template.Template, error) {
	t, err := r.root.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone templates: %w", err)
	}
	return t.Funcs(Funcs(now)), nil
}
