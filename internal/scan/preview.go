package scan

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// maxPreviewRows caps the preview height so it fits beside the form.
const maxPreviewRows = 16

// Preview is the terminal rendering of a scan: half-block cells where each
// character carries two vertical pixels. It is a scoped resource; once
// revoked it renders nothing and stays revoked.
type Preview struct {
	width   int
	view    string
	revoked bool
}

// newPreview downscales the scan to the requested cell width and renders it.
func newPreview(img image.Image, cellWidth int) *Preview {
	if cellWidth < 2 {
		cellWidth = 2
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return &Preview{width: cellWidth}
	}

	// One cell is one pixel wide and two pixels tall.
	rows := (h*cellWidth + w) / (2 * w)
	if rows < 1 {
		rows = 1
	}
	if rows > maxPreviewRows {
		rows = maxPreviewRows
	}

	scaled := image.NewRGBA(image.Rect(0, 0, cellWidth, rows*2))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		for x := 0; x < cellWidth; x++ {
			upper := hexColor(scaled.At(x, row*2))
			lower := hexColor(scaled.At(x, row*2+1))
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(upper)).
				Background(lipgloss.Color(lower)).
				Render("▀")
			sb.WriteString(cell)
		}
		if row < rows-1 {
			sb.WriteString("\n")
		}
	}

	return &Preview{width: cellWidth, view: sb.String()}
}

// hexColor converts a pixel to a #rrggbb string for lipgloss.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// View returns the rendering, or "" once revoked.
func (p *Preview) View() string {
	if p.revoked {
		return ""
	}
	return p.view
}

// Revoke releases the rendering. Safe to call more than once.
func (p *Preview) Revoke() {
	p.revoked = true
	p.view = ""
}

// Revoked reports whether the preview has been released.
func (p *Preview) Revoked() bool {
	return p.revoked
}
