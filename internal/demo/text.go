package demo

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"flipdot/internal/convert"
	"flipdot/internal/flipdot"
)

// ScrollText scrolls s from right to left across the panel, one column per
// frame, using the 7x13 fixed font. It starts and ends on a blank frame.
func ScrollText(s string, height, width int) []*flipdot.Grid {
	face := basicfont.Face7x13
	advance := font.MeasureString(face, s).Ceil()
	glyphH := face.Metrics().Height.Ceil()

	strip := image.NewGray(image.Rect(0, 0, advance+2*width, height))
	baseline := face.Metrics().Ascent.Ceil() + (height-glyphH)/2
	d := &font.Drawer{
		Dst:  strip,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(width, baseline),
	}
	d.DrawString(s)

	frames := make([]*flipdot.Grid, 0, advance+width+1)
	for x := 0; x <= advance+width; x++ {
		window := strip.SubImage(image.Rect(x, 0, x+width, height))
		frames = append(frames, convert.FromImage(window, height, width))
	}
	return frames
}
