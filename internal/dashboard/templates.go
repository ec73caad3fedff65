package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Templates struct {
	root *template.Template
}

func (t *Templates) Execute(w io.Writer, data any) error {
	return t.root.ExecuteTemplate(w, "layout", data)
}

// LoadTemplates parses the embedded layout and page.
func LoadTemplates() (*Templates, error) {
	funcMap := template.FuncMap{
		"kg": func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"deref": func(p *float64) float64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}

	root, err := template.New("dashboard").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}

	return &Templates{root: root}, nil
}
