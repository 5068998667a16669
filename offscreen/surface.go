package offscreen

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
)

var ErrUnallocated = errors.New("surface used before allocation")

type Options struct {
	// Depth adds a 16 bit depth renderbuffer.
	Depth bool
	Label string
}

// target is the framebuffer, colour textures and optional depth storage shared by
// Surface and MultiAttachmentSurface.
type target struct {
	dev         gpu.Device
	opts        Options
	count       int
	framebuffer gpu.Handle
	textures    []gpu.Handle
	depth       gpu.Handle
	width       int
	height      int
}

func (t *target) allocate(width, height int) {
	if t.framebuffer != gpu.None {
		t.resize(width, height)
		return
	}
	width, height = libutil.MaxI(1, width), libutil.MaxI(1, height)

	t.framebuffer = gpu.MustHandle(t.dev.CreateFramebuffer(), "framebuffer")
	gpu.Label(t.dev, t.framebuffer, t.opts.Label)
	t.textures = make([]gpu.Handle, t.count)
	for i := range t.textures {
		tex := gpu.MustHandle(t.dev.CreateTexture(), "texture")
		t.dev.AllocateTexture(tex, width, height)
		t.dev.AttachColor(t.framebuffer, i, tex)
		if t.opts.Label != "" {
			gpu.Label(t.dev, tex, fmt.Sprintf("%s color %d", t.opts.Label, i))
		}
		t.textures[i] = tex
	}
	if t.opts.Depth {
		t.depth = gpu.MustHandle(t.dev.CreateRenderbuffer(), "renderbuffer")
		t.dev.AllocateDepth(t.depth, width, height)
		t.dev.AttachDepth(t.framebuffer, t.depth)
	}
	t.dev.DrawBuffers(t.framebuffer, t.count)
	t.width, t.height = width, height
	t.check()
}

func (t *target) resize(width, height int) {
	t.mustAllocated()
	width, height = libutil.MaxI(1, width), libutil.MaxI(1, height)
	if width == t.width && height == t.height {
		return
	}
	for _, tex := range t.textures {
		t.dev.AllocateTexture(tex, width, height)
	}
	if t.depth != gpu.None {
		t.dev.AllocateDepth(t.depth, width, height)
	}
	t.width, t.height = width, height
	t.check()
	glog.V(2).Infof("resized %q to %dx%d", t.opts.Label, width, height)
}

func (t *target) check() {
	if err := t.dev.CheckFramebuffer(t.framebuffer); err != nil {
		panic(fmt.Errorf("framebuffer %q: %w", t.opts.Label, err))
	}
}

func (t *target) mustAllocated() {
	if t.framebuffer == gpu.None {
		if t.opts.Label != "" {
			panic(fmt.Errorf("%q: %w", t.opts.Label, ErrUnallocated))
		}
		panic(ErrUnallocated)
	}
}

func (t *target) bindAsTarget() {
	t.mustAllocated()
	t.dev.BindFramebuffer(t.framebuffer)
	t.dev.Viewport(t.width, t.height)
}

func (t *target) release() {
	for _, tex := range t.textures {
		t.dev.DeleteTexture(tex)
	}
	if t.depth != gpu.None {
		t.dev.DeleteRenderbuffer(t.depth)
	}
	if t.framebuffer != gpu.None {
		t.dev.DeleteFramebuffer(t.framebuffer)
	}
	t.textures = nil
	t.framebuffer, t.depth = gpu.None, gpu.None
	t.width, t.height = 0, 0
}

func (t *target) Framebuffer() gpu.Handle {
	return t.framebuffer
}

func (t *target) Size() (width, height int) {
	return t.width, t.height
}

func (t *target) Width() int {
	return t.width
}

func (t *target) Height() int {
	return t.height
}

func (t *target) HasDepth() bool {
	return t.opts.Depth
}

func (t *target) Allocated() bool {
	return t.framebuffer != gpu.None
}

// Surface is an offscreen colour target that doubles as a texture on a fixed unit.
type Surface struct {
	target
	unit int
}

func NewSurface(dev gpu.Device, unit int, opts Options) *Surface {
	return &Surface{target: target{dev: dev, opts: opts, count: 1}, unit: unit}
}

// Allocate creates the framebuffer and its storage. Calling it again behaves like Resize.
func (s *Surface) Allocate(width, height int) {
	s.allocate(width, height)
}

// Resize respecifies the storage in place; the texture and framebuffer keep their handles.
func (s *Surface) Resize(width, height int) {
	s.resize(width, height)
}

// BindAsTarget makes the surface the draw target and sets the viewport to its size.
func (s *Surface) BindAsTarget() {
	s.bindAsTarget()
}

// BindAsTexture binds the colour texture to the surface's own unit.
func (s *Surface) BindAsTexture() {
	s.BindAsTextureTo(s.unit)
}

func (s *Surface) BindAsTextureTo(unit int) {
	s.mustAllocated()
	s.dev.BindTexture(unit, s.textures[0])
}

// SampleInto binds the texture and points the sampler uniform name of prog at it.
func (s *Surface) SampleInto(prog gpu.Program, name string) {
	s.BindAsTexture()
	gpu.SetSampler(prog, name, s.unit)
}

func (s *Surface) Texture() gpu.Handle {
	if len(s.textures) == 0 {
		return gpu.None
	}
	return s.textures[0]
}

func (s *Surface) Unit() int {
	return s.unit
}

func (s *Surface) Label() string {
	return s.opts.Label
}

func (s *Surface) Delete() {
	s.release()
}
