package render

import (
	"image/color"
	"os"

	"github.com/swdee/go-poseoverlay/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// LabelFont defines the parameters for rendering joint names on an image
type LabelFont struct {
	Face  font.Face
	Color color.RGBA
	// Offset of the text from the joint center
	OffsetX int
	OffsetY int
}

// DefaultLabelFont returns default label settings using the built in 7x13
// bitmap face
func DefaultLabelFont() LabelFont {
	return LabelFont{
		Face:    basicfont.Face7x13,
		Color:   White,
		OffsetX: 8,
		OffsetY: -8,
	}
}

// LoadLabelFont loads a TTF/OTF font file at the given point size and returns
// label settings using it
func LoadLabelFont(fontPath string, size float64) (LabelFont, error) {

	lf := DefaultLabelFont()

	// load font data
	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return lf, errors.Wrap(err, "failed to load font")
	}

	// parse the font
	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return lf, errors.Wrap(err, "failed to parse font")
	}

	// create a type face
	lf.Face, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return lf, errors.Wrap(err, "failed to create type face")
	}

	return lf, nil
}
