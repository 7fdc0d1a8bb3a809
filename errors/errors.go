// Package errors provides error handling for go-poseoverlay.
//
// It re-exports github.com/cockroachdb/errors so call sites get stack traces,
// wrapping and user hints from a single import, and declares the sentinel
// errors that classify every failure of an overlay run.
//
// Usage:
//
//	if err := json.Unmarshal(data, &v); err != nil {
//	    return errors.Mark(errors.Wrap(err, "decoding feed"), errors.ErrFeedLoad)
//	}
//
//	if errors.Is(err, errors.ErrMissingFrameData) {
//	    // feed shorter than the video
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors classifying a failed run.  Wrap or Mark these to add
// context while keeping errors.Is working.
var (
	// ErrIOOpen indicates the video source or sink could not be opened
	ErrIOOpen = New("failed to open video")

	// ErrFeedLoad indicates the pose feed is missing or could not be parsed
	ErrFeedLoad = New("failed to load pose feed")

	// ErrMissingFrameData indicates the pose feed has no record for a frame
	// index, ie: the feed is shorter than the video
	ErrMissingFrameData = New("missing frame data")

	// ErrMalformedRecord indicates a joint in a feed record is absent or
	// non-numeric
	ErrMalformedRecord = New("malformed pose record")

	// ErrFrameDecode indicates a frame could not be processed, eg: face
	// detection failed on it
	ErrFrameDecode = New("frame decode error")

	// ErrFrameWrite indicates the sink rejected a rendered frame
	ErrFrameWrite = New("failed to write frame")

	// ErrInvalidTopology indicates a joint/edge table failed validation
	ErrInvalidTopology = New("invalid topology")

	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = New("invalid configuration")
)

// Class returns the name of the sentinel err is marked with, or "unknown"
// when it carries none.  Used as a structured log field.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrIOOpen):
		return "IOOpenError"
	case Is(err, ErrFeedLoad):
		return "FeedLoadError"
	case Is(err, ErrMissingFrameData):
		return "MissingFrameData"
	case Is(err, ErrMalformedRecord):
		return "MalformedRecord"
	case Is(err, ErrFrameDecode):
		return "FrameDecodeError"
	case Is(err, ErrFrameWrite):
		return "FrameWriteError"
	case Is(err, ErrInvalidTopology):
		return "InvalidTopology"
	case Is(err, ErrInvalidConfig):
		return "InvalidConfig"
	}

	return "unknown"
}
