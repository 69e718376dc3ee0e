package dashboard

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/rotisserie/eris"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Page is the data bound to the dashboard template.
type Page struct {
	Title   string
	Phase   string
	Error   string
	Rows    []Row
	Overlay Overlay
}

// Renderer writes the dashboard page.
type Renderer struct {
	Title    string
	Location *time.Location
}

// NewPage builds the page for state as of now with the given overlay.
func (r Renderer) NewPage(state State, now time.Time, overlay Overlay) Page {
	p := Page{
		Title:   r.Title,
		Phase:   state.Phase.String(),
		Overlay: overlay,
	}
	switch state.Phase {
	case PhaseFailed:
		if state.Err != nil {
			p.Error = state.Err.Error()
		} else {
			p.Error = "unknown error"
		}
	case PhaseReady:
		p.Rows = NewRows(state.Records, now, r.Location)
	}
	return p
}

// Render writes the page for state to w.
func (r Renderer) Render(w io.Writer, state State, now time.Time, overlay Overlay) error {
	if err := pageTemplate.Execute(w, r.NewPage(state, now, overlay)); err != nil {
		return eris.Wrap(err, "dashboard: render page")
	}
	return nil
}
