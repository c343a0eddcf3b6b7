package scan

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func jpegPage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.White)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func pngPage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestComposerMultiPage(t *testing.T) {
	composer := NewComposer(10)
	out, err := composer.Compose([][]byte{
		jpegPage(t, 40, 60),
		pngPage(t, 60, 40),
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestComposerRejectsEmptyInput(t *testing.T) {
	composer := NewComposer(10)
	_, err := composer.Compose(nil)
	require.Error(t, err)
}

func TestComposerRejectsTooManyPages(t *testing.T) {
	composer := NewComposer(1)
	_, err := composer.Compose([][]byte{jpegPage(t, 10, 10), jpegPage(t, 10, 10)})
	require.Error(t, err)
}

func TestComposerRejectsUnknownFormat(t *testing.T) {
	composer := NewComposer(10)
	_, err := composer.Compose([][]byte{[]byte("not an image")})
	require.Error(t, err)
}
