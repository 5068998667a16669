package offscreen_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/gpu"
	"sketch-filters/offscreen"
	"sketch-filters/softgl"
)

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}

func TestSurfaceUnallocated(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	s := offscreen.NewSurface(dev, 3, offscreen.Options{Label: "scratch"})
	assert.False(t, s.Allocated())
	assert.Equal(t, gpu.None, s.Texture())

	for name, fn := range map[string]func(){
		"target":  s.BindAsTarget,
		"texture": s.BindAsTexture,
		"resize":  func() { s.Resize(8, 8) },
	} {
		err := recoverError(fn)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, offscreen.ErrUnallocated), name)
		assert.Contains(t, err.Error(), "scratch", name)
	}
}

func TestSurfaceBind(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	s := offscreen.NewSurface(dev, 3, offscreen.Options{Depth: true})
	s.Allocate(10, 6)

	s.BindAsTarget()
	assert.Equal(t, s.Framebuffer(), dev.DrawTarget())
	w, h := dev.ViewportSize()
	assert.Equal(t, 10, w)
	assert.Equal(t, 6, h)

	s.BindAsTexture()
	assert.Equal(t, s.Texture(), dev.Bound(3))
	s.BindAsTextureTo(5)
	assert.Equal(t, s.Texture(), dev.Bound(5))
	assert.True(t, s.HasDepth())
}

func TestSurfaceResizeKeepsHandles(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	s := offscreen.NewSurface(dev, 1, offscreen.Options{Depth: true})
	s.Allocate(4, 4)
	fb, tex := s.Framebuffer(), s.Texture()
	live := dev.Live()

	s.Resize(32, 16)
	assert.Equal(t, fb, s.Framebuffer())
	assert.Equal(t, tex, s.Texture())
	assert.Equal(t, live, dev.Live())
	assert.Equal(t, 32, s.Width())
	assert.Equal(t, 16, s.Height())

	// a second Allocate is a resize
	s.Allocate(8, 8)
	assert.Equal(t, tex, s.Texture())
	assert.Equal(t, live, dev.Live())
}

func TestSurfaceClampsZeroSize(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	s := offscreen.NewSurface(dev, 1, offscreen.Options{})
	s.Allocate(0, 0)
	w, h := s.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestSurfaceDelete(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	live := dev.Live()
	s := offscreen.NewSurface(dev, 1, offscreen.Options{Depth: true})
	s.Allocate(4, 4)
	assert.Equal(t, live+3, dev.Live())

	s.Delete()
	assert.Equal(t, live, dev.Live())
	assert.False(t, s.Allocated())
}

func TestMultiAttachmentSurface(t *testing.T) {
	dev := softgl.NewDevice(4, 4)
	m := offscreen.NewMultiAttachmentSurface(dev, []int{2, 3, 4}, offscreen.Options{})
	m.Allocate(6, 6)
	assert.Equal(t, 3, m.Count())

	prog, err := dev.NewProgram(gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "output"})
	require.NoError(t, err)
	for i := 0; i < m.Count(); i++ {
		m.SampleAttachment(i, prog, "uMainTex")
		assert.Equal(t, m.Attachment(i), dev.Bound(m.Unit(i)))
	}

	assert.Panics(t, func() {
		offscreen.NewMultiAttachmentSurface(dev, make([]int, gpu.MaxAttachments+1), offscreen.Options{})
	})
	assert.Panics(t, func() {
		offscreen.NewMultiAttachmentSurface(dev, nil, offscreen.Options{})
	})
}
