package report

import (
	"encoding/json"
	"io"
)

// JSONWriter renders the report as JSON. An empty Indent produces compact output.
type JSONWriter struct {
	Indent string
}

// Write encodes r to w.
func (j JSONWriter) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if j.Indent != "" {
		enc.SetIndent("", j.Indent)
	}
	return enc.Encode(r)
}
