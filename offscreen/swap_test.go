package offscreen_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/gpu"
	"sketch-filters/offscreen"
	"sketch-filters/softgl"
)

func newChain(t *testing.T, width, height int) (*softgl.Device, *offscreen.SwapChain, gpu.Program) {
	t.Helper()
	dev := softgl.NewDevice(width, height)
	src := dev.CreateTexture()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 128, 255})
		}
	}
	dev.UploadTexture(src, img)

	chain := offscreen.NewSwapChain(dev)
	chain.Allocate(width, height)
	chain.SetSource(src, width, height)
	prog, err := dev.NewProgram(gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "output"})
	require.NoError(t, err)
	return dev, chain, prog
}

func TestSwapChainParity(t *testing.T) {
	dev, chain, prog := newChain(t, 8, 4)
	quad := dev.NewQuad()

	chain.BindOriginal(prog, "uMainTex")
	assert.Equal(t, chain.Source(), dev.Bound(gpu.InputUnit))
	assert.Equal(t, -1, chain.PreviousIndex())
	assert.Nil(t, chain.Previous())

	for k := 1; k <= 5; k++ {
		target, previous := chain.BeginPass()
		assert.Same(t, chain.Surface(k%2), target, "pass %d target", k)
		assert.Equal(t, target.Framebuffer(), dev.DrawTarget())
		if k == 1 {
			assert.Nil(t, previous)
		} else {
			assert.Same(t, chain.Surface((k-1)%2), previous, "pass %d previous", k)
		}
		chain.BindPrevious(prog, "uMainTex", gpu.InputUnit)
		quad.Draw(gpu.TriangleStrip)
		chain.EndPass()

		assert.Equal(t, k, chain.Passes())
		assert.Equal(t, k%2, chain.CurrentIndex())
		assert.Equal(t, k%2, chain.PreviousIndex())
		assert.Equal(t, chain.Surface(k%2).Texture(), dev.Bound(gpu.InputUnit))
	}

	// a new frame starts from the source again
	chain.BindOriginal(prog, "uMainTex")
	assert.Equal(t, 0, chain.Passes())
	assert.Equal(t, chain.Source(), chain.PreviousTexture())
}

func TestSwapChainNestedPassClosesOpenPass(t *testing.T) {
	dev, chain, prog := newChain(t, 4, 4)
	var ended []int
	chain.OnEndPass = func(pass int, written *offscreen.Surface) {
		ended = append(ended, pass)
	}

	chain.BindOriginal(prog, "uMainTex")
	chain.BeginPass()
	target, previous := chain.BeginPass()
	assert.Equal(t, []int{1}, ended, "the open pass is ended first")
	assert.Same(t, chain.Surface(1), previous)
	assert.Same(t, chain.Surface(0), target)
	chain.EndPass()

	assert.Equal(t, 2, chain.Passes())
	assert.Equal(t, 0, chain.CurrentIndex())
	assert.Equal(t, 0, chain.PreviousIndex())
	assert.Equal(t, []int{1, 2}, ended)

	// ending again is ignored
	chain.EndPass()
	assert.Equal(t, 2, chain.Passes())
	assert.Equal(t, []int{1, 2}, ended)

	chain.BeginPass()
	chain.SwitchToDisplay()
	assert.Equal(t, []int{1, 2, 3}, ended)
	assert.Equal(t, 1, chain.PreviousIndex())
	assert.Equal(t, gpu.None, dev.DrawTarget())
}

func TestSwapChainCopiesExactly(t *testing.T) {
	dev, chain, prog := newChain(t, 8, 4)
	quad := dev.NewQuad()
	want := dev.ReadPixels(chain.Surface(0).Framebuffer(), 8, 4)

	chain.BindOriginal(prog, "uMainTex")
	for k := 0; k < 3; k++ {
		chain.BeginPass()
		chain.BindPrevious(prog, "uMainTex", gpu.InputUnit)
		quad.Draw(gpu.TriangleStrip)
		chain.EndPass()
	}
	chain.SwitchToDisplay()
	assert.Equal(t, gpu.None, dev.DrawTarget())
	chain.BindPrevious(prog, "uMainTex", gpu.InputUnit)
	quad.Draw(gpu.TriangleStrip)

	got := dev.ReadPixels(gpu.None, 8, 4)
	assert.NotEqual(t, want.Pix, got.Pix, "the unwritten surface starts cleared")
	assert.Equal(t, uint8(7*16), got.RGBAAt(7, 0).R)
	assert.Equal(t, uint8(3*16), got.RGBAAt(0, 3).G)
}

func TestSwapChainEndPassHook(t *testing.T) {
	dev, chain, prog := newChain(t, 4, 4)
	quad := dev.NewQuad()
	var seen []int
	chain.OnEndPass = func(pass int, written *offscreen.Surface) {
		seen = append(seen, pass)
		assert.Same(t, chain.Surface(pass%2), written)
	}

	chain.BindOriginal(prog, "uMainTex")
	for k := 0; k < 3; k++ {
		chain.BeginPass()
		quad.Draw(gpu.TriangleStrip)
		chain.EndPass()
	}
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestSwapChainResize(t *testing.T) {
	dev, chain, _ := newChain(t, 8, 4)
	before := [2]gpu.Handle{chain.Surface(0).Texture(), chain.Surface(1).Texture()}

	chain.Resize(16, 12)
	for i, s := range chain.Surfaces() {
		assert.Equal(t, before[i], s.Texture(), "resize keeps the texture handle")
		w, h := dev.TextureSize(s.Texture())
		assert.Equal(t, 16, w)
		assert.Equal(t, 12, h)
	}
}
