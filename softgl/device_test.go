package softgl_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/gpu"
	"sketch-filters/softgl"
)

func init() {
	softgl.RegisterFragment("test_uv", func(f *softgl.Fragment) {
		uv := f.UV()
		f.Out[0] = mgl32.Vec4{uv[0], uv[1], 0, 1}
	})
}

func TestUploadReadBack(t *testing.T) {
	dev := softgl.NewDevice(1, 1)
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(2, 1, color.RGBA{0, 0, 255, 255})

	tex := dev.CreateTexture()
	dev.UploadTexture(tex, img)
	fb := dev.CreateFramebuffer()
	dev.AttachColor(fb, 0, tex)
	require.NoError(t, dev.CheckFramebuffer(fb))

	w, h := dev.TextureSize(tex)
	assert.Equal(t, [2]int{3, 2}, [2]int{w, h})
	assert.Equal(t, img.Pix, dev.ReadPixels(fb, 3, 2).Pix)
}

func TestDrawOrientation(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	prog, err := dev.NewProgram(gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "test_uv"})
	require.NoError(t, err)

	dev.BindFramebuffer(gpu.None)
	dev.Viewport(4, 4)
	prog.Activate()
	dev.NewQuad().Draw(gpu.TriangleStrip)
	assert.Equal(t, 1, dev.Draws())

	out := dev.ReadPixels(gpu.None, 4, 4)
	// texture space starts bottom left, images top left
	assert.Equal(t, uint8(32), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(223), out.RGBAAt(0, 0).G)
	assert.Equal(t, uint8(32), out.RGBAAt(0, 3).G)
	assert.Equal(t, uint8(223), out.RGBAAt(3, 3).R)
}

func TestUnknownStage(t *testing.T) {
	dev := softgl.NewDevice(1, 1)
	_, err := dev.NewProgram(gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "missing"})
	assert.ErrorContains(t, err, "missing")
	_, err = dev.NewProgram(gpu.ProgramSource{Vertex: "missing", Fragment: "output"})
	assert.Error(t, err)
}

func TestFramebufferCompleteness(t *testing.T) {
	dev := softgl.NewDevice(1, 1)
	fb := dev.CreateFramebuffer()
	assert.ErrorIs(t, dev.CheckFramebuffer(fb), softgl.ErrIncomplete)

	a, b := dev.CreateTexture(), dev.CreateTexture()
	dev.AllocateTexture(a, 4, 4)
	dev.AllocateTexture(b, 4, 2)
	dev.AttachColor(fb, 0, a)
	dev.AttachColor(fb, 1, b)
	dev.DrawBuffers(fb, 2)
	assert.ErrorIs(t, dev.CheckFramebuffer(fb), softgl.ErrIncomplete)

	dev.AllocateTexture(b, 4, 4)
	rb := dev.CreateRenderbuffer()
	dev.AllocateDepth(rb, 4, 4)
	dev.AttachDepth(fb, rb)
	assert.NoError(t, dev.CheckFramebuffer(fb))
}

func TestDeleteUnbinds(t *testing.T) {
	dev := softgl.NewDevice(1, 1).WithMaxTextureUnits(4)
	tex := dev.CreateTexture()
	fb := dev.CreateFramebuffer()
	dev.BindTexture(2, tex)
	dev.BindFramebuffer(fb)
	assert.Equal(t, 2, dev.Live())

	dev.DeleteTexture(tex)
	dev.DeleteFramebuffer(fb)
	assert.Equal(t, gpu.None, dev.Bound(2))
	assert.Equal(t, gpu.None, dev.DrawTarget())
	assert.Zero(t, dev.Live())

	assert.Panics(t, func() { dev.BindTexture(4, gpu.None) })
}
