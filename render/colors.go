package render

import (
	"image/color"

	"github.com/swdee/go-poseoverlay/pose"
)

var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// JointColor is the default color of the joint circles
	JointColor = color.RGBA{R: 0, G: 91, B: 201, A: 255}

	// EdgeColor is the default color of bone lines
	EdgeColor = pose.DefaultEdgeColor

	// posePalette are alternative colors that can be given to bones of a
	// custom topology
	posePalette = []color.RGBA{
		{R: 255, G: 128, B: 0, A: 255},
		{R: 255, G: 153, B: 51, A: 255},
		{R: 255, G: 178, B: 102, A: 255},
		{R: 230, G: 230, B: 0, A: 255},
		{R: 255, G: 153, B: 255, A: 255},
		{R: 153, G: 204, B: 255, A: 255},
		{R: 255, G: 102, B: 255, A: 255},
		{R: 255, G: 51, B: 255, A: 255},
		{R: 102, G: 178, B: 255, A: 255},
		{R: 51, G: 153, B: 255, A: 255},
		{R: 255, G: 153, B: 153, A: 255},
		{R: 255, G: 102, B: 102, A: 255},
		{R: 255, G: 51, B: 51, A: 255},
		{R: 153, G: 255, B: 153, A: 255},
		{R: 102, G: 255, B: 102, A: 255},
		{R: 51, G: 255, B: 51, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	}
)

// PaletteColor returns the i'th pose palette color, wrapping around
func PaletteColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return posePalette[i%len(posePalette)]
}
