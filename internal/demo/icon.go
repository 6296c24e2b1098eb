package demo

import (
	"bytes"
	"fmt"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"flipdot/internal/convert"
	"flipdot/internal/flipdot"
)

var defaultIcon = []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<path fill="#ffffff" d="M12 21.35l-1.45-1.32C5.4 15.36 2 12.28 2 8.5 2 5.42 4.42 3 7.5 3c1.74 0 3.41.81 4.5 2.09C13.09 3.81 14.76 3 16.5 3 19.58 3 22 5.42 22 8.5c0 3.78-3.4 6.86-8.55 11.54L12 21.35z"/>
</svg>`)

// Icon rasterizes an SVG document into a square in the middle of the panel.
// Bright opaque areas become "on" dots.
func Icon(svg []byte, height, width int) (*flipdot.Grid, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("demo: parse svg: %w", err)
	}

	size := height
	if width < size {
		size = width
	}
	icon.SetTarget(float64(width-size)/2, float64(height-size)/2, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return convert.FromImage(img, height, width), nil
}
