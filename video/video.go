// Package video reads frames from and writes frames to video files with
// gocv.
package video

import (
	"path/filepath"
	"strings"

	"github.com/swdee/go-poseoverlay/errors"
	"gocv.io/x/gocv"
)

// StreamInfo is the metadata of a video stream, read once when the source
// is opened
type StreamInfo struct {
	Width  int
	Height int
	FPS    float64
	// FrameCount is the number of frames the container reports, zero when
	// unknown
	FrameCount int
}

// Source yields decoded frames in order
type Source interface {
	// Read decodes the next frame into img, false at end of stream
	Read(img *gocv.Mat) bool
	Info() StreamInfo
	Close() error
}

// Sink accepts rendered frames in order
type Sink interface {
	Write(img gocv.Mat) error
	Close() error
}

const (
	// CodecVP8 is used for webm containers
	CodecVP8 = "VP80"
	// CodecMP4V is used for every other container
	CodecMP4V = "mp4v"
)

// CodecForPath returns the fourcc of the codec output is encoded with,
// chosen by the file extension
func CodecForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		return CodecVP8
	}
	return CodecMP4V
}

// FileSource is a Source reading a video file
type FileSource struct {
	capture *gocv.VideoCapture
	info    StreamInfo
}

// OpenSource opens the video file for reading.  Failure is marked
// ErrIOOpen.
func OpenSource(path string) (*FileSource, error) {

	capture, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "error opening video %s", path), errors.ErrIOOpen),
			"check the input video exists and is in a format OpenCV can decode")
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Wrapf(errors.ErrIOOpen, "video %s could not be opened", path)
	}

	frameCount := int(capture.Get(gocv.VideoCaptureFrameCount))

	if frameCount < 0 {
		frameCount = 0
	}

	return &FileSource{
		capture: capture,
		info: StreamInfo{
			Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
			FPS:        capture.Get(gocv.VideoCaptureFPS),
			FrameCount: frameCount,
		},
	}, nil
}

// Read decodes the next frame.  An empty frame is treated as end of stream.
func (s *FileSource) Read(img *gocv.Mat) bool {

	if ok := s.capture.Read(img); !ok {
		return false
	}

	return !img.Empty()
}

// Info returns the stream metadata
func (s *FileSource) Info() StreamInfo {
	return s.info
}

// Close releases the capture
func (s *FileSource) Close() error {
	return s.capture.Close()
}

// FileSink is a Sink encoding to a video file
type FileSink struct {
	writer *gocv.VideoWriter
	path   string
}

// OpenSink creates the output video with the same size and frame rate as
// the source stream.  Failure is marked ErrIOOpen.
func OpenSink(path string, info StreamInfo) (*FileSink, error) {

	codec := CodecForPath(path)

	if info.Width <= 0 || info.Height <= 0 {
		return nil, errors.Wrapf(errors.ErrIOOpen,
			"invalid output size %dx%d for %s", info.Width, info.Height, path)
	}

	fps := info.FPS

	// some containers report no rate, fall back to a common one
	if fps <= 0 {
		fps = 30
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, info.Width, info.Height, true)

	if err != nil {
		return nil, errors.WithHintf(
			errors.Mark(errors.Wrapf(err, "error creating video %s", path), errors.ErrIOOpen),
			"check the output directory is writable and OpenCV supports the %s codec", codec)
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, errors.Wrapf(errors.ErrIOOpen, "video %s could not be created with codec %s", path, codec)
	}

	return &FileSink{
		writer: writer,
		path:   path,
	}, nil
}

// Write encodes the frame.  Failure is marked ErrFrameWrite.
func (s *FileSink) Write(img gocv.Mat) error {

	if err := s.writer.Write(img); err != nil {
		return errors.Mark(errors.Wrapf(err, "error writing frame to %s", s.path), errors.ErrFrameWrite)
	}

	return nil
}

// Close finalizes the output file
func (s *FileSink) Close() error {
	return s.writer.Close()
}
