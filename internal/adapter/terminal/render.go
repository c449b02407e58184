// Package terminal prints a transcript for the command line, coloring each
// speaker after its hat when the writer is a color terminal.
package terminal

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"sixhats/internal/domain"
)

var hatColors = map[string]lipgloss.Color{
	"White":  lipgloss.Color("#FFFFFF"),
	"Red":    lipgloss.Color("#FF5F5F"),
	"Black":  lipgloss.Color("#9E9E9E"),
	"Yellow": lipgloss.Color("#FFD75F"),
	"Green":  lipgloss.Color("#5FD75F"),
	"Blue":   lipgloss.Color("#5F87FF"),
}

type Renderer struct {
	w       io.Writer
	speaker lipgloss.Style
	heading lipgloss.Style
}

func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:       w,
		speaker: r.NewStyle().Bold(true),
		heading: r.NewStyle().Bold(true).Underline(true).Foreground(hatColors["Blue"]),
	}
}

func (r *Renderer) Transcript(transcript []domain.Message) error {
	for _, m := range transcript {
		style := r.speaker
		if c, ok := hatColors[m.Persona]; ok {
			style = style.Foreground(c)
		}
		if _, err := fmt.Fprintf(r.w, "%s: %s\n\n", style.Render(m.Speaker()), m.Content); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) Synthesis(text string) error {
	_, err := fmt.Fprintf(r.w, "%s\n%s\n", r.heading.Render("Blue Hat's Synthesis"), text)
	return err
}
