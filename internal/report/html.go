package report

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"severity": Severity,
	"ms":       formatMillis,
	"indent": func(level int) string {
		return strings.Repeat("  ", max(level-1, 0))
	},
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// HTMLWriter renders the report as a standalone HTML page.
type HTMLWriter struct{}

// Write executes the embedded template for r.
func (HTMLWriter) Write(w io.Writer, r *Report) error {
	return htmlTemplate.Execute(w, r)
}
