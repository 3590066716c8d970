// Package report renders a domain.Report into a document.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/weather-report/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Format selects an output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown" (or "md") and "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q (allowed: markdown, json)", s)
	}
}

// Renderer writes a report document. Implementations render fully before
// writing, so a failed render never leaves a partial document in w.
type Renderer interface {
	Render(w io.Writer, r *domain.Report) error
	Format() Format
	ContentType() string
}

// New returns the renderer for format.
func New(format Format) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdown(), nil
	case FormatJSON:
		return JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

var funcs = template.FuncMap{
	"f2":        func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"abs":       math.Abs,
	"date":      func(t time.Time) string { return t.Format(domain.DateLayout) },
	"timestamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// MarkdownRenderer renders the report as a Markdown document with tables.
type MarkdownRenderer struct {
	tmpl *template.Template
}

// NewMarkdown parses the embedded report template.
func NewMarkdown() *MarkdownRenderer {
	tmpl := template.Must(template.New("report.md.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/report.md.tmpl"))
	return &MarkdownRenderer{tmpl: tmpl}
}

func (m *MarkdownRenderer) Format() Format { return FormatMarkdown }

func (m *MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

func (m *MarkdownRenderer) Render(w io.Writer, r *domain.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, r); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// JSONRenderer renders the report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Format() Format { return FormatJSON }

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(w io.Writer, r *domain.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
