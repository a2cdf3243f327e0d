// Package web holds the page template and static assets compiled into the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates static
var content embed.FS

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.ParseFS(content, "templates/*.html")
}

// Static returns the static asset tree rooted at static/.
func Static() (fs.FS, error) {
	return fs.Sub(content, "static")
}
