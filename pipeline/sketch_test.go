package pipeline_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/filters"
	"sketch-filters/gpu"
	"sketch-filters/libio"
	"sketch-filters/pipeline"
	"sketch-filters/softgl"
)

func testImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), uint8(x ^ y), 255})
		}
	}
	return img
}

func newSketch(t *testing.T, opts pipeline.Options, img *image.RGBA) (*pipeline.Sketch, *softgl.Device) {
	t.Helper()
	dev := softgl.NewDevice(1, 1)
	sk := pipeline.New(dev, opts)
	sk.Start(img)
	require.True(t, sk.Started())
	return sk, dev
}

func TestSketchWithoutFiltersCopiesSource(t *testing.T) {
	img := testImage(40, 30)
	sk, _ := newSketch(t, pipeline.Options{}, img)
	sk.SetMain("")

	frame := sk.Snapshot()
	assert.Equal(t, 0, frame.Passes)
	assert.Equal(t, img.Pix, frame.Image.Pix)
}

func TestSketchUnknownMainRendersNothingExtra(t *testing.T) {
	img := testImage(16, 16)
	sk, _ := newSketch(t, pipeline.Options{}, img)
	sk.SetMain("missing")
	assert.Equal(t, 0, sk.Snapshot().Passes)
}

func TestSketchPassOrder(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(32, 32))
	assert.Equal(t, pipeline.DefaultMain, sk.Main())

	stack := sk.Stack()
	stack.Activate("blur", filters.Before)
	stack.Activate("contrast", filters.Before)
	stack.Activate("mosaic", filters.After)

	// blur, contrast, pencil, mosaic
	assert.Equal(t, 4, sk.Snapshot().Passes)

	sk.SetMain("pale-pencil")
	stack.Activate("local-mosaic", filters.After)
	// blur, contrast, pale pencil, mosaic, local mosaic (effect and mask)
	assert.Equal(t, 6, sk.Snapshot().Passes)
}

func TestSketchContrastIdentity(t *testing.T) {
	img := testImage(24, 12)
	sk, _ := newSketch(t, pipeline.Options{}, img)
	sk.SetMain("contrast")

	frame := sk.Snapshot()
	assert.Equal(t, 1, frame.Passes)
	assert.Equal(t, img.Pix, frame.Image.Pix)
}

func TestSketchMaxSize(t *testing.T) {
	sk, dev := newSketch(t, pipeline.Options{MaxSize: 512}, testImage(1024, 256))
	w, h := dev.DisplaySize()
	assert.Equal(t, 512, w)
	assert.Equal(t, 128, h)
	assert.Equal(t, 512, sk.Chain().Surface(0).Width())

	w, h = sk.Chain().SourceSize()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 256, h)
}

func TestSketchChangeImageResizesEverything(t *testing.T) {
	sk, dev := newSketch(t, pipeline.Options{}, testImage(32, 32))
	mosaic, ok := sk.Stack().Get("mosaic")
	require.True(t, ok)

	sk.ChangeImage(testImage(60, 20))
	w, h := dev.DisplaySize()
	assert.Equal(t, 60, w)
	assert.Equal(t, 20, h)
	for _, s := range sk.Chain().Surfaces() {
		assert.Equal(t, 60, s.Width())
		assert.Equal(t, 20, s.Height())
	}
	assert.Equal(t, 60, sk.Mask().Before().Width())
	reducedW, reducedH := filters.ReducedSize(60, 20, 12)
	assert.Equal(t, reducedW, mosaic.(*filters.Mosaic).Reduced().Width())
	assert.Equal(t, reducedH, mosaic.(*filters.Mosaic).Reduced().Height())

	frame := sk.Snapshot()
	assert.Equal(t, image.Rect(0, 0, 60, 20), frame.Image.Rect)
}

func TestSketchExportPNG(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(512, 512))
	path := filepath.Join(t.TempDir(), "out", "sketch.png")
	require.NoError(t, sk.Export(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	cfg, format, err := image.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestSketchExportFrame(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(48, 32))
	path := filepath.Join(t.TempDir(), "sketch"+libio.FrameExt)
	require.NoError(t, sk.Export(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	frame, err := libio.DecodeFrame(file)
	require.NoError(t, err)

	want := sk.Snapshot()
	assert.Equal(t, want.Passes, frame.Passes)
	assert.Equal(t, want.Image.Pix, frame.Image.Pix)
}

func TestSketchDumpPasses(t *testing.T) {
	dir := t.TempDir()
	sk, _ := newSketch(t, pipeline.Options{DumpPasses: dir}, testImage(16, 16))
	sk.Stack().Activate("blur", filters.Before)
	sk.Render()

	for _, name := range []string{"frame001-pass01.png", "frame001-pass02.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSketchExportBeforeStart(t *testing.T) {
	sk := pipeline.New(softgl.NewDevice(1, 1), pipeline.Options{})
	assert.Error(t, sk.Export(filepath.Join(t.TempDir(), "x.png")))
}

func TestSketchFitsMinimumTextureUnits(t *testing.T) {
	img := testImage(24, 16)
	ref, _ := newSketch(t, pipeline.Options{}, img)

	// GL 4.5 guarantees 16 units; the GL device keeps one for staging
	for _, units := range []int{15, 5} {
		sk := pipeline.New(softgl.NewDevice(1, 1).WithMaxTextureUnits(units), pipeline.Options{})
		require.NotPanics(t, func() { sk.Start(img) }, "%d units", units)

		for _, id := range []string{"pencil", "pale-pencil", "color-pencil", "voronoi-glass", "mosaic", "watercolor", "glow"} {
			ref.SetMain(id)
			sk.SetMain(id)
			assert.Equal(t, ref.Snapshot().Image.Pix, sk.Snapshot().Image.Pix, "%s with %d units", id, units)
		}

		ref.SetMain("pale-pencil")
		sk.SetMain("pale-pencil")
		for _, s := range []*pipeline.Sketch{ref, sk} {
			s.Stack().Activate("glow", filters.After)
			s.Stack().Activate("local-mosaic", filters.After)
			s.Stack().Activate("local-watercolor", filters.After)
		}
		assert.Equal(t, ref.Snapshot().Image.Pix, sk.Snapshot().Image.Pix, "chained with %d units", units)
		for _, s := range []*pipeline.Sketch{ref, sk} {
			s.Stack().Clear()
		}
	}
}

func TestSketchTooFewTextureUnits(t *testing.T) {
	sk := pipeline.New(softgl.NewDevice(1, 1).WithMaxTextureUnits(4), pipeline.Options{})
	err, _ := recoverPanic(func() { sk.Start(testImage(8, 8)) }).(error)
	assert.ErrorIs(t, err, gpu.ErrUnitsExceed)
}

func recoverPanic(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}
