package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/verith/attest/internal/classify"
)

// statusGlyphs mark each outcome in text output.
var statusGlyphs = map[classify.Status]string{
	classify.StatusPassed:        "+",
	classify.StatusFailed:        "x",
	classify.StatusNotReviewed:   "-",
	classify.StatusNotApplicable: ".",
	classify.StatusProfileError:  "!",
}

var textTemplate = template.Must(template.New("run").Funcs(template.FuncMap{
	"glyph": func(status classify.Status) string {
		if g, ok := statusGlyphs[status]; ok {
			return g
		}
		return "?"
	},
}).Parse(`Profile:  {{ .ProfileName }} v{{ .ProfileVersion }}
Target:   {{ .TargetName }} ({{ .Platform.OS }}{{ with .Platform.Family }}/{{ . }}{{ end }}{{ with .Platform.Release }} {{ . }}{{ end }})
Run:      {{ .Token }}
Started:  {{ .StartedAt.Format "2006-01-02T15:04:05Z07:00" }}

{{ range .Results -}}
  [{{ glyph .Status }}] {{ .ControlID }}  {{ .Title }} ({{ .Severity }}{{ if .Waived }}, waived{{ end }})
{{- if .Message }}
      {{ .Message }}
{{- end }}
{{- range .Assertions }}{{ if not .Passed }}
      expected: {{ .Expected }}
      actual:   {{ .Actual }}
{{- end }}{{ end }}
{{ end }}
Passed: {{ .Stats.Passed }}  Failed: {{ .Stats.Failed }}  Not Reviewed: {{ .Stats.NotReviewed }}  Not Applicable: {{ .Stats.NotApplicable }}  Errors: {{ .Stats.Errored }}
Score:  {{ printf "%.1f" .Stats.Score }}%
`))

// RenderText writes the human-readable report.
func RenderText(w io.Writer, run *Run) error {
	if err := textTemplate.Execute(w, run); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
