package gallery

import (
	"embed"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"

	"catsgallery/structs"
)

const (
	Title        = "Cats list"
	RefreshLabel = "I want new cats!"
	ImageWidth   = 300
	ImageHeight  = 200
)

//go:embed templates/gallery.html
var templateFS embed.FS

var page = template.Must(template.New("gallery.html").
	Funcs(sprig.FuncMap()).
	ParseFS(templateFS, "templates/gallery.html"))

type pageData struct {
	Title         string
	RefreshAction string
	RefreshLabel  string
	Width         int
	Height        int
	Cats          []structs.Cat
}

// Render writes the gallery page for the current state. refreshAction is the
// URL the refresh button posts to.
func (v *View) Render(w io.Writer, refreshAction string) error {
	return RenderCats(w, v.Cats(), refreshAction)
}

func RenderCats(w io.Writer, cats []structs.Cat, refreshAction string) error {
	return page.Execute(w, pageData{
		Title:         Title,
		RefreshAction: refreshAction,
		RefreshLabel:  RefreshLabel,
		Width:         ImageWidth,
		Height:        ImageHeight,
		Cats:          cats,
	})
}
