package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/tyler-sommer/stick"
)

//go:embed templates/*.twig
var templateFS embed.FS

// Provider renders stage prompts from twig templates. Templates are opaque
// configuration: beyond "non-empty after render" nothing validates their
// content.
type Provider struct {
	env       *stick.Env
	templates map[string]string
	vars      map[string]stick.Value
}

type Option func(*Provider) error

// WithFS loads every *.twig file found under dir in the supplied FS.
func WithFS(fsys fs.FS, dir string) Option {
	return func(p *Provider) error {
		return fs.WalkDir(fsys, dir, func(fp string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(fp, ".twig") {
				return nil
			}
			content, readErr := fs.ReadFile(fsys, fp)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", fp, readErr)
			}
			tag := strings.TrimSuffix(path.Base(fp), ".twig")
			p.templates[tag] = string(content)
			return nil
		})
	}
}

// WithTemplates injects an in-memory template map.
func WithTemplates(m map[string]string) Option {
	return func(p *Provider) error {
		for k, v := range m {
			p.templates[k] = v
		}
		return nil
	}
}

// WithVar adds a variable available in every template.
func WithVar(key string, value any) Option {
	return func(p *Provider) error {
		p.vars[key] = value
		return nil
	}
}

func NewProvider(opts ...Option) (*Provider, error) {
	p := &Provider{
		env:       stick.New(nil),
		templates: make(map[string]string),
		vars:      make(map[string]stick.Value),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewDefault loads the embedded stage templates.
func NewDefault() (*Provider, error) {
	return NewProvider(WithFS(templateFS, "templates"))
}

// Render fills the template for tag with vars and returns the prompt text.
func (p *Provider) Render(tag string, vars map[string]any) (string, error) {
	tpl, ok := p.templates[tag]
	if !ok {
		return "", fmt.Errorf("prompt: template %q not found", tag)
	}
	ctx := make(map[string]stick.Value, len(p.vars)+len(vars))
	for k, v := range p.vars {
		ctx[k] = v
	}
	for k, v := range vars {
		ctx[k] = v
	}
	var out strings.Builder
	if err := p.env.Execute(tpl, &out, ctx); err != nil {
		return "", fmt.Errorf("prompt: execute %q: %w", tag, err)
	}
	rendered := strings.TrimSpace(out.String())
	if rendered == "" {
		return "", fmt.Errorf("prompt: template %q rendered empty", tag)
	}
	return rendered + "\n", nil
}
