package render

import (
	"image"

	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/pose"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// JointLabels writes the name of each visible joint next to it.  Text is
// drawn with an x/image font face onto a transparent layer which is then
// copied onto the image through its alpha mask.  Call it before Joints so
// joint circles stay on top.
func JointLabels(img *gocv.Mat, joints []pose.VisibleJoint, topo *pose.Topology,
	lf LabelFont) error {

	if len(joints) == 0 {
		return nil
	}

	if img.Empty() {
		return errors.New("cannot label an empty image")
	}

	width := img.Cols()
	height := img.Rows()

	// transparent layer the text is written on
	layer := image.NewRGBA(image.Rect(0, 0, width, height))

	dr := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(lf.Color),
		Face: lf.Face,
	}

	for _, j := range joints {
		dr.Dot = fixed.P(j.Point.X+lf.OffsetX, j.Point.Y+lf.OffsetY)
		dr.DrawString(topo.Name(j.Joint))
	}

	// Convert image.RGBA to gocv.Mat
	layerMat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, layer.Pix)

	if err != nil {
		return errors.Wrap(err, "error creating Mat from label layer")
	}

	defer layerMat.Close()

	if layerMat.Empty() {
		return errors.New("label layer Mat is empty")
	}

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(layerMat, &bgr, gocv.ColorRGBAToBGR)

	channels := gocv.Split(layerMat)

	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	// alpha channel marks the pixels text was drawn on
	bgr.CopyToWithMask(img, channels[3])

	return nil
}
