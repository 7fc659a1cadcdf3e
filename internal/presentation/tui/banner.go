package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185", "#f87171", "#fb923c"}

// PrintBanner writes the flowplan banner to w, one gradient color per letter.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	fmt.Fprint(w, "  ")
	for i, r := range "flowplan" {
		fmt.Fprint(w, termenv.String(string(r)).Bold().Foreground(p.Color(bannerColors[i%len(bannerColors)])))
	}
	fmt.Fprintln(w, termenv.String(" "+version).Faint())
	fmt.Fprintln(w, "  flows of capabilities, composed by classical planning")
	fmt.Fprintln(w)
}
