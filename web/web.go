// Package web embeds the HTML templates and static assets so the server binary
// is self-contained.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var staticFiles embed.FS

// Static returns the static assets rooted at the static directory, ready for
// http.FileServer under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// fs.Sub only fails on an invalid path literal
		panic(err)
	}
	return sub
}
