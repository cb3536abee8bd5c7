package email

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html.tmpl"))

// Render executes one of the embedded mail templates.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
