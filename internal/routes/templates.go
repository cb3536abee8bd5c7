package routes

import (
	"embed"
	"io/fs"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// NewRenderer loads the embedded pages into a multitemplate renderer.
func NewRenderer() (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()
	names, err := fs.Glob(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		data, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		r.AddFromString(name[len("templates/"):], string(data))
	}
	return r, nil
}
