// Package views renders the embedded HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	layoutFile   = "layout.html"
	layoutName   = "layout"
	templatesDir = "templates"
)

// Engine implements fiber.Views over html/template. Every page is parsed
// together with the shared layout so each can define its own "content" block.
type Engine struct {
	fs    fs.FS
	funcs template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New returns an Engine over the embedded templates.
func New() *Engine {
	return NewFromFS(templatesFS)
}

// NewFromFS returns an Engine reading templates/*.html from fsys.
func NewFromFS(fsys fs.FS) *Engine {
	return &Engine{
		fs: fsys,
		funcs: template.FuncMap{
			"year": func(t time.Time) int { return t.Year() },
			"date": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
		},
	}
}

// Load parses the layout once and every page on top of a clone of it.
func (e *Engine) Load() error {
	base, err := template.New("base").Funcs(e.funcs).ParseFS(e.fs, path.Join(templatesDir, layoutFile))
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	entries, err := fs.ReadDir(e.fs, templatesDir)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == layoutFile || !strings.HasSuffix(name, ".html") {
			continue
		}

		clone, err := base.Clone()
		if err != nil {
			return err
		}
		page, err := clone.ParseFS(e.fs, path.Join(templatesDir, name))
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = page
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes page name inside the layout. The optional layout argument is
// accepted for fiber.Views compatibility; only the shared layout exists.
func (e *Engine) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	e.mu.RLock()
	page, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	// Buffer so a failed execution never leaves a half-written page.
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
