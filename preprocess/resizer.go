package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Resizer scales frames of one size into a fixed size box, keeping the
// frame aspect and padding the remainder
type Resizer struct {
	// srcWidth is the width of the source frame
	srcWidth int
	// srcHeight is the height of the source frame
	srcHeight int
	// destWidth is the width of the box to scale to
	destWidth int
	// destHeight is the height of the box to scale to
	destHeight int
	// tempMat holds the scaled frame before padding
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer for scaling srcWidth x srcHeight frames into
// a destWidth x destHeight box.  A zero destination dimension is derived
// from the other one so the output has the source aspect with no padding.
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {

	switch {
	case destWidth <= 0 && destHeight <= 0:
		destWidth = srcWidth
		destHeight = srcHeight
	case destWidth <= 0:
		destWidth = max(1, srcWidth*destHeight/srcHeight)
	case destHeight <= 0:
		destHeight = max(1, srcHeight*destWidth/srcWidth)
	}

	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the scaling factors for source and destination Mats
func (r *Resizer) preCalc() {

	r.resizeW = r.destWidth
	r.resizeH = r.destHeight

	scaleW := float32(r.destWidth) / float32(r.srcWidth)
	scaleH := float32(r.destHeight) / float32(r.srcHeight)
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = max(1, int(float32(r.srcHeight)*r.scale))
	} else {
		r.resizeW = max(1, int(float32(r.srcWidth)*r.scale))
	}

	r.yPad = (r.destHeight - r.resizeH) / 2 // padding height / 2
	r.xPad = (r.destWidth - r.resizeW) / 2  // padding width / 2
}

// LetterBoxResize scales the frame into the destination box whilst
// maintaining its aspect.  Color is that used for letter box padding.
// Shrinking uses area interpolation, enlarging uses linear.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	interp := gocv.InterpolationArea

	if r.scale > 1 {
		interp = gocv.InterpolationLinear
	}

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH), 0, 0, interp)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, color)
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// DestSize returns the size of the box frames are scaled into
func (r *Resizer) DestSize() image.Point {
	return image.Pt(r.destWidth, r.destHeight)
}

// SrcWidth returns the width of the frames the resizer scales
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the frames the resizer scales
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}
