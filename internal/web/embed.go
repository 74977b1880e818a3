package web

import (
	"embed"
	"io/fs"
	"net/http"
)

var (
	//go:embed static
	embeddedStatic embed.FS

	//go:embed templates
	embeddedTemplates embed.FS
)

// subFS serves dir of an embedded tree as the root of an http.FileSystem.
func subFS(tree embed.FS, dir string) http.FileSystem {
	sub, err := fs.Sub(tree, dir)
	if err != nil {
		// dir is a compile time constant embedded above
		panic(err)
	}

	return http.FS(sub)
}
