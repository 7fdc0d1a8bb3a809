package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkKeepsClass(t *testing.T) {
	cause := New("unexpected end of JSON input")
	err := Mark(Wrap(cause, "decoding feed"), ErrFeedLoad)

	require.Error(t, err)
	assert.True(t, Is(err, ErrFeedLoad))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "decoding feed")
	assert.False(t, Is(err, ErrIOOpen))
}

func TestWrapfSentinel(t *testing.T) {
	err := Wrapf(ErrMissingFrameData, "frame %d", 5)

	assert.True(t, Is(err, ErrMissingFrameData))
	assert.Contains(t, err.Error(), "frame 5")
}

func TestClass(t *testing.T) {

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrIOOpen, "input"), "IOOpenError"},
		{Wrap(ErrFeedLoad, "poses.json"), "FeedLoadError"},
		{Wrapf(ErrMissingFrameData, "frame %d", 5), "MissingFrameData"},
		{Wrap(ErrMalformedRecord, "head"), "MalformedRecord"},
		{Wrap(ErrFrameDecode, "face"), "FrameDecodeError"},
		{Wrap(ErrFrameWrite, "sink"), "FrameWriteError"},
		{Wrap(ErrInvalidTopology, "edge"), "InvalidTopology"},
		{Wrap(ErrInvalidConfig, "threshold"), "InvalidConfig"},
		{New("other"), "unknown"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Class(tc.err))
	}
}

func TestWithHint(t *testing.T) {
	err := WithHint(Wrap(ErrFeedLoad, "poses.json"), "check the file is a JSON array")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "check the file is a JSON array", hints[0])
	assert.True(t, Is(err, ErrFeedLoad))
}
