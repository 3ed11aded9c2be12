package analysis

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Export writes the report to w in the given format.
func (r *Report) Export(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMarkdown:
		_, err := io.WriteString(w, r.Markdown())
		return err
	case FormatHTML:
		return htmlTemplate.Execute(w, r)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Collection Quality Report\n\n")
	fmt.Fprintf(&b, "- Documents: %d\n", r.TotalDocuments)
	fmt.Fprintf(&b, "- Average text length: %.0f chars\n", r.AvgTextLength)
	fmt.Fprintf(&b, "- Unique sources: %d\n\n", r.UniqueSources)

	b.WriteString("## Documents per category\n\n")
	for _, category := range sortedKeys(r.CategoryCounts) {
		fmt.Fprintf(&b, "- %s: %d\n", category, r.CategoryCounts[category])
	}

	b.WriteString("\n## Metadata field presence\n\n")
	b.WriteString("| Field | Presence |\n|---|---|\n")
	for _, field := range requiredFields {
		fmt.Fprintf(&b, "| %s | %.1f%% |\n", field, r.FieldPresence[field]*100)
	}

	b.WriteString("\n## Top sources\n\n")
	for _, src := range r.TopSources(10) {
		fmt.Fprintf(&b, "- %s (%d chunks)\n", src, r.SourceCounts[src])
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(rate float64) string { return fmt.Sprintf("%.1f%%", rate*100) },
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Collection Quality Report</title></head>
<body>
<h1>Collection Quality Report</h1>
<ul>
<li>Documents: {{.TotalDocuments}}</li>
<li>Average text length: {{printf "%.0f" .AvgTextLength}} chars</li>
<li>Unique sources: {{.UniqueSources}}</li>
</ul>
<h2>Documents per category</h2>
<ul>
{{range $category, $count := .CategoryCounts}}<li>{{$category}}: {{$count}}</li>
{{end}}</ul>
<h2>Metadata field presence</h2>
<table border="1">
<tr><th>Field</th><th>Presence</th></tr>
{{range $field, $rate := .FieldPresence}}<tr><td>{{$field}}</td><td>{{percent $rate}}</td></tr>
{{end}}</table>
</body>
</html>
`))
