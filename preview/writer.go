// Package preview exports a single rendered frame as a still image so an
// overlay can be checked without playing back the whole output video.
package preview

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/logger"
	"github.com/swdee/go-poseoverlay/preprocess"
	"github.com/swdee/go-poseoverlay/render"
	"gocv.io/x/gocv"
)

// Format is the image encoding of a still
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// FormatForPath returns the still format from the file extension
func FormatForPath(path string) (Format, error) {

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	}

	return "", errors.WithHint(
		errors.Wrapf(errors.ErrInvalidConfig, "unsupported preview file %q", path),
		"use a .jpg, .png or .webp file name")
}

// Params defines the size and quality of a still
type Params struct {
	// Width and Height of the box the frame is letterboxed into, zero keeps
	// the frame size
	Width  int
	Height int
	// Quality is the jpeg and lossy webp quality, 1-100
	Quality int
	// Lossless selects lossless webp encoding
	Lossless bool
}

// DefaultParams returns Params featuring:
// - Width/Height: 0 (frame size)
// - Quality: 90
// - Lossless: false
func DefaultParams() Params {
	return Params{
		Quality: 90,
	}
}

// Writer saves one frame of a run to disk
type Writer struct {
	path    string
	format  Format
	frame   int
	params  Params
	written bool
}

// NewWriter returns a Writer that saves the frame with the given index to
// path, the format is chosen by the file extension
func NewWriter(path string, frame int, p Params) (*Writer, error) {

	format, err := FormatForPath(path)

	if err != nil {
		return nil, err
	}

	if frame < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "preview frame %d is negative", frame)
	}

	if p.Quality < 1 || p.Quality > 100 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "preview quality %d not in range 1-100", p.Quality)
	}

	return &Writer{
		path:   path,
		format: format,
		frame:  frame,
		params: p,
	}, nil
}

// Wants reports if the frame index is the one to save and it has not been
// saved yet
func (w *Writer) Wants(index int) bool {
	return !w.written && index == w.frame
}

// Written reports if the still was saved
func (w *Writer) Written() bool {
	return w.written
}

// Path returns the file the still is written to
func (w *Writer) Path() string {
	return w.path
}

// Write letterboxes the frame to the configured size and saves it
func (w *Writer) Write(frame gocv.Mat) error {

	if frame.Empty() {
		return errors.Wrap(errors.ErrFrameWrite, "preview of empty frame")
	}

	resizer := preprocess.NewResizer(frame.Cols(), frame.Rows(), w.params.Width, w.params.Height)
	defer resizer.Close()

	boxed := gocv.NewMat()
	defer boxed.Close()

	resizer.LetterBoxResize(frame, &boxed, render.Black)

	img, err := boxed.ToImage()

	if err != nil {
		return errors.Mark(errors.Wrap(err, "error converting preview frame"), errors.ErrFrameWrite)
	}

	switch w.format {
	case FormatWebP:
		err = w.saveWebP(img)
	case FormatPNG:
		err = imaging.Save(img, w.path)
	default:
		err = imaging.Save(img, w.path, imaging.JPEGQuality(w.params.Quality))
	}

	if err != nil {
		return errors.Mark(errors.Wrapf(err, "error saving preview %s", w.path), errors.ErrFrameWrite)
	}

	w.written = true

	logger.Logger.Debugw("preview saved",
		logger.FieldFile, w.path,
		logger.FieldFrame, w.frame,
		logger.FieldWidth, boxed.Cols(),
		logger.FieldHeight, boxed.Rows(),
	)

	return nil
}

// saveWebP encodes the image with the webp encoder
func (w *Writer) saveWebP(img image.Image) error {

	f, err := os.Create(w.path)

	if err != nil {
		return err
	}

	opts := &webp.Options{Lossless: w.params.Lossless, Quality: float32(w.params.Quality)}

	if err := webp.Encode(f, img, opts); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
