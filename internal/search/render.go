package search

import (
	"fmt"
	"html/template"
	"strings"
)

// panelTmpl renders the result panel fragment. Going through html/template
// means titles and dates from the index are escaped rather than spliced
// into markup as raw strings.
var panelTmpl = template.Must(template.New("panel").Parse(strings.TrimSpace(`
{{- if .Hidden -}}
{{- else if .Entries -}}
{{- range .Entries -}}
<a href="{{.URL}}"><div class="result-block"><h3>{{.Title}}</h3><span class="result-date">{{.Date}}</span></div></a>
{{- end -}}
{{- else -}}
<div class="result-block no-results">No results found</div>
{{- end -}}
`)))

// RenderPanel renders a query result as the inner HTML of the result panel:
// up to the capped number of anchor-wrapped result blocks, a single
// no-results block, or nothing at all when the result is hidden.
func RenderPanel(res Result) (string, error) {
	var b strings.Builder
	if err := panelTmpl.Execute(&b, res); err != nil {
		return "", fmt.Errorf("failed to render result panel: %w", err)
	}
	return b.String(), nil
}
