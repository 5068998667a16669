package libio_test

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/libio"
)

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 200, 255})
		}
	}
	return img
}

func TestFrameRoundTrip(t *testing.T) {
	for _, compression := range []libio.FrameCompression{libio.FrameCompressionNone, libio.FrameCompressionPlanarLz4} {
		var buf bytes.Buffer
		in := libio.Frame{Image: pattern(7, 5), Passes: 3}
		require.NoError(t, libio.EncodeFrame(&buf, in, compression))

		out, err := libio.DecodeFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, 3, out.Passes)
		assert.Equal(t, in.Image.Rect, out.Image.Rect)
		assert.Equal(t, in.Image.Pix, out.Image.Pix, "compression %d", compression)
	}
}

func TestFrameSubImage(t *testing.T) {
	sub := pattern(8, 8).SubImage(image.Rect(2, 3, 6, 5)).(*image.RGBA)

	var buf bytes.Buffer
	require.NoError(t, libio.EncodeFrame(&buf, libio.Frame{Image: sub}, libio.FrameCompressionPlanarLz4))
	out, err := libio.DecodeFrame(&buf)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Image.Rect)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, sub.RGBAAt(x+2, y+3), out.Image.RGBAAt(x, y))
		}
	}
}

func TestFrameCorrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libio.EncodeFrame(&buf, libio.Frame{Image: pattern(2, 2)}, libio.FrameCompressionNone))
	data := buf.Bytes()
	data[0] ^= 0xff

	_, err := libio.DecodeFrame(bytes.NewReader(data))
	assert.ErrorContains(t, err, "corrupt")

	_, err = libio.DecodeFrame(bytes.NewReader(nil))
	assert.Error(t, err)

	err = libio.EncodeFrame(&bytes.Buffer{}, libio.Frame{Image: pattern(2, 2)}, libio.FrameCompression(9))
	assert.Error(t, err)
}

func TestSaveFrame(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	frame := libio.Frame{Image: pattern(6, 4), Passes: 2}

	pngPath := filepath.Join(dir, "a.png")
	require.NoError(t, libio.SaveFrame(pngPath, frame))
	img, err := libio.LoadImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, frame.Image.Pix, img.Pix)

	framePath := filepath.Join(dir, "a"+libio.FrameExt)
	require.NoError(t, libio.SaveFrame(framePath, frame))
	file, err := os.Open(framePath)
	require.NoError(t, err)
	defer file.Close()
	got, err := libio.DecodeFrame(file)
	require.NoError(t, err)
	assert.Equal(t, frame.Image.Pix, got.Image.Pix)
	assert.Equal(t, 2, got.Passes)
}

func TestFitSize(t *testing.T) {
	cases := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1024, 256, 512, 512, 128},
		{256, 1024, 512, 128, 512},
		{300, 200, 512, 300, 200},
		{300, 200, 0, 300, 200},
		{1000, 1, 10, 10, 1},
	}
	for _, c := range cases {
		w, h := libio.FitSize(c.w, c.h, c.max)
		assert.Equal(t, [2]int{c.wantW, c.wantH}, [2]int{w, h}, "%dx%d max %d", c.w, c.h, c.max)
	}
}

func TestDownscale(t *testing.T) {
	img := pattern(40, 20)
	assert.Same(t, img, libio.Downscale(img, 64))

	small := libio.Downscale(img, 10)
	assert.Equal(t, image.Rect(0, 0, 10, 5), small.Rect)
}

func TestLoadImageErrors(t *testing.T) {
	_, err := libio.LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
	_, err = libio.LoadImage(path)
	assert.ErrorContains(t, err, "junk.png")
}
