package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/siteaudit/internal/storage/local"
)

// Format names a report output.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
)

// Writer renders a report to w.
type Writer interface {
	Write(w io.Writer, r *Report) error
}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for markdown.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatHTML, FormatMarkdown, FormatXLSX:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (use json, html, markdown or xlsx)", raw)
	}
}

// ParseFormats parses and de-duplicates a list of format names, keeping first-seen order.
func ParseFormats(raw []string) ([]Format, error) {
	out := make([]Format, 0, len(raw))
	seen := make(map[Format]struct{}, len(raw))
	for _, name := range raw {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// Extension is the file extension used for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// WriterFor returns the renderer for f.
func WriterFor(f Format) (Writer, error) {
	switch f {
	case FormatJSON:
		return JSONWriter{Indent: "  "}, nil
	case FormatHTML:
		return HTMLWriter{}, nil
	case FormatMarkdown:
		return MarkdownWriter{}, nil
	case FormatXLSX:
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", f)
	}
}

// WriteFiles renders r once per format into dir/basename.<ext> and returns the paths
// written.
func WriteFiles(dir, basename string, formats []Format, r *Report) ([]string, error) {
	if len(formats) == 0 {
		return nil, nil
	}
	store, err := local.New(local.Config{BaseDir: dir})
	if err != nil {
		return nil, fmt.Errorf("open report dir: %w", err)
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		w, err := WriterFor(f)
		if err != nil {
			return paths, err
		}
		path, err := store.Put(basename+"."+f.Extension(), func(out io.Writer) error {
			return w.Write(out, r)
		})
		if err != nil {
			return paths, fmt.Errorf("write %s report: %w", f, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
