// Package web serves the server-rendered login, registration and role
// dashboard pages.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// CSRFKey is the fiber Locals key the csrf middleware stores its token under.
const CSRFKey = "csrf"

// Engine returns the template engine for fiber.Config.Views.
func Engine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
