// Package reports renders the mission security dashboard as HTML, serves it
// over HTTP and prints console summaries.
package reports

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

//go:embed templates/index.html
var templatesFS embed.FS

// dashboardTemplate parses the embedded page once per process.
var dashboardTemplate = sync.OnceValues(parseTemplate)

func parseTemplate() (*template.Template, error) {
	tplBytes, err := templatesFS.ReadFile("templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	tpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"pct":   pct,
		"lower": strings.ToLower,
		"day": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"label": columnLabel,
		"has":   slices.Contains[[]string, string],
	}).Parse(string(tplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tpl, nil
}

// columnLabel turns a column name such as root_cause into "Root Cause".
func columnLabel(col string) string {
	words := strings.Fields(strings.ReplaceAll(col, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RenderHTML writes the dashboard page for view to w.
func RenderHTML(w io.Writer, view DashboardView) error {
	tpl, err := dashboardTemplate()
	if err != nil {
		return err
	}
	if err := tpl.Execute(w, view); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return nil
}

// GenerateHTMLReport writes the dashboard page for view to outputPath.
func GenerateHTMLReport(view DashboardView, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	return RenderHTML(f, view)
}

// FileHandler serves the report file at path on "/" and 404s every other path.
// The file is read on each request so a regenerated report is picked up.
func FileHandler(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeFile(w, r, path)
	})
}
