package cmd

import (
	"encoding/json"
	"io"
)

// writeJSONReport marshals any run result as indented JSON for machine
// consumption (CI pipelines, editor integrations).
func writeJSONReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
