package convert

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"flipdot/internal/flipdot"
)

// FromImage thresholds img onto a height x width grid.
//
// Behavior:
//
//   - An image larger than the grid is center-cropped; a smaller one is
//     centered with "off" dots around it.
//   - A pixel turns its dot on when it is opaque (alpha >= 128) and bright
//     (luma >= 128). Transparent pixels are off.
func FromImage(img image.Image, height, width int) *flipdot.Grid {
	g := flipdot.NewGrid(height, width)
	b := img.Bounds()

	offX := b.Min.X + (b.Dx()-width)/2
	offY := b.Min.Y + (b.Dy()-height)/2

	for r := 0; r < height; r++ {
		y := offY + r
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for c := 0; c < width; c++ {
			x := offX + c
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			if dotOn(color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)) {
				g.Set(r, c, true)
			}
		}
	}
	return g
}

// dotOn decides whether a pixel shows the dot's bright face.
//
//   - luma Y = 0.299R + 0.587G + 0.114B
//   - alpha < 128 counts as background
func dotOn(c color.NRGBA) bool {
	if c.A < 128 {
		return false
	}
	y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return y >= 128
}

// ToImage renders g as a grayscale preview, scale x scale pixels per dot
// with a one pixel dark gap between dots.
func ToImage(g *flipdot.Grid, scale int) *image.Gray {
	if scale < 2 {
		scale = 2
	}
	img := image.NewGray(image.Rect(0, 0, g.Width()*scale, g.Height()*scale))
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			shade := color.Gray{Y: 0x30}
			if g.At(r, c) {
				shade = color.Gray{Y: 0xF0}
			}
			for dy := 0; dy < scale-1; dy++ {
				for dx := 0; dx < scale-1; dx++ {
					img.SetGray(c*scale+dx, r*scale+dy, shade)
				}
			}
		}
	}
	return img
}

// WritePNG encodes a preview of g to w.
func WritePNG(w io.Writer, g *flipdot.Grid, scale int) error {
	return png.Encode(w, ToImage(g, scale))
}
