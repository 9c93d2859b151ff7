// Package web embeds the browser client so the server ships as one binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var rawStatic embed.FS

// Static is the embedded site filesystem with the "static/" prefix stripped.
var Static = mustSub(rawStatic, "static")

// Handler serves the embedded site. Unknown paths fall through to the file
// server's own 404 handling.
func Handler() http.Handler {
	return http.FileServer(http.FS(Static))
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
