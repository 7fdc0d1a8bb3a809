package preview

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-poseoverlay/errors"
	"gocv.io/x/gocv"
)

func testFrame() gocv.Mat {
	return gocv.NewMatWithSizeWithScalar(120, 160, gocv.MatTypeCV8UC3,
		gocv.NewScalar(40, 80, 120, 0))
}

func TestFormatForPath(t *testing.T) {

	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.jpg", FormatJPEG, true},
		{"a.JPEG", FormatJPEG, true},
		{"dir/b.png", FormatPNG, true},
		{"c.webp", FormatWebP, true},
		{"d.gif", "", false},
		{"noext", "", false},
	}

	for _, tc := range tests {
		got, err := FormatForPath(tc.path)

		if !tc.ok {
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig), tc.path)
			continue
		}

		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}
}

func TestNewWriterValidation(t *testing.T) {

	_, err := NewWriter("a.png", -1, DefaultParams())
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	p := DefaultParams()
	p.Quality = 0
	_, err = NewWriter("a.png", 0, p)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	w, err := NewWriter("a.png", 3, DefaultParams())
	require.NoError(t, err)
	assert.False(t, w.Wants(2))
	assert.True(t, w.Wants(3))
}

func TestWriteFormats(t *testing.T) {

	frame := testFrame()
	defer frame.Close()

	dir := t.TempDir()

	for _, name := range []string{"still.png", "still.jpg", "still.webp"} {
		t.Run(name, func(t *testing.T) {

			path := filepath.Join(dir, name)

			w, err := NewWriter(path, 0, DefaultParams())
			require.NoError(t, err)

			require.True(t, w.Wants(0))
			require.NoError(t, w.Write(frame))
			assert.True(t, w.Written())
			assert.False(t, w.Wants(0))

			var img image.Image

			if filepath.Ext(name) == ".webp" {
				f, err := os.Open(path)
				require.NoError(t, err)
				defer f.Close()
				img, err = webp.Decode(f)
				require.NoError(t, err)
			} else {
				img, err = imaging.Open(path)
				require.NoError(t, err)
			}

			assert.Equal(t, 160, img.Bounds().Dx())
			assert.Equal(t, 120, img.Bounds().Dy())
		})
	}
}

func TestWriteLetterbox(t *testing.T) {

	frame := testFrame()
	defer frame.Close()

	path := filepath.Join(t.TempDir(), "box.png")

	p := DefaultParams()
	p.Width = 100
	p.Height = 100

	w, err := NewWriter(path, 0, p)
	require.NoError(t, err)
	require.NoError(t, w.Write(frame))

	img, err := imaging.Open(path)
	require.NoError(t, err)

	assert.Equal(t, image.Pt(100, 100), img.Bounds().Size())

	// top padding row is black, center has the frame color
	r, g, b, _ := img.At(50, 2).RGBA()
	assert.Equal(t, []uint32{0, 0, 0}, []uint32{r >> 8, g >> 8, b >> 8})

	r, g, b, _ = img.At(50, 50).RGBA()
	assert.Equal(t, []uint32{120, 80, 40}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestWriteEmptyFrame(t *testing.T) {

	w, err := NewWriter(filepath.Join(t.TempDir(), "x.png"), 0, DefaultParams())
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()

	err = w.Write(empty)
	assert.True(t, errors.Is(err, errors.ErrFrameWrite))
	assert.False(t, w.Written())
}
