package video

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swdee/go-poseoverlay/errors"
)

func TestCodecForPath(t *testing.T) {

	tests := []struct {
		path string
		want string
	}{
		{"out.webm", CodecVP8},
		{"OUT.WEBM", CodecVP8},
		{"out.mp4", CodecMP4V},
		{"dir/out.avi", CodecMP4V},
		{"out", CodecMP4V},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CodecForPath(tc.path), tc.path)
	}
}

func TestOpenSourceMissing(t *testing.T) {

	_, err := OpenSource(filepath.Join(t.TempDir(), "missing.mp4"))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrIOOpen))
}

func TestOpenSinkInvalidSize(t *testing.T) {

	_, err := OpenSink(filepath.Join(t.TempDir(), "out.mp4"), StreamInfo{})

	assert.True(t, errors.Is(err, errors.ErrIOOpen))
}

func TestOpenSinkMissingDir(t *testing.T) {

	path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.mp4")
	_, err := OpenSink(path, StreamInfo{Width: 64, Height: 48, FPS: 25})

	assert.True(t, errors.Is(err, errors.ErrIOOpen))
}
