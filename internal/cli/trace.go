package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TraceDocument is the exported form of a trace.
type TraceDocument struct {
	Algorithm string             `json:"algorithm" yaml:"algorithm"`
	Seed      int64              `json:"seed" yaml:"seed"`
	Steps     []domain.Step[any] `json:"steps" yaml:"steps"`
}

// WriteTrace encodes doc as JSON or YAML.
func WriteTrace(w io.Writer, doc TraceDocument, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q, want %s or %s", format, FormatJSON, FormatYAML)
}

// PrintAlgorithms writes a table of algorithms and their parameters.
func PrintAlgorithms(w io.Writer, algorithms []ports.Algorithm) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tSCENE\tPARAMS")
	for _, alg := range algorithms {
		meta := alg.Meta()
		var defaults []string
		for _, p := range alg.Params() {
			defaults = append(defaults, fmt.Sprintf("%s=%v", p.Name, p.Default))
		}
		fmt.Fprintf(tw, "%s\t%s\t%dD\t%s\n", meta.Slug, meta.Title, meta.Dimensions, strings.Join(defaults, ","))
	}
	return tw.Flush()
}
