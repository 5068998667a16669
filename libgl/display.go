package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/golang/glog"
)

// Display is the final render target. A window returns framebuffer 0.
type Display interface {
	Size() (width, height int)
	SetSize(width, height int)
	Framebuffer() uint32
}

// HeadlessDisplay renders into an offscreen framebuffer so that exports work without a
// visible window. Storage is created on first use, after the GL state is set up.
type HeadlessDisplay struct {
	width, height int
	fb            UnboundFramebuffer
	color         UnboundTexture
	depth         UnboundRenderbuffer
}

func NewHeadlessDisplay(width, height int) *HeadlessDisplay {
	return &HeadlessDisplay{width: width, height: height}
}

func (d *HeadlessDisplay) Size() (width, height int) {
	return d.width, d.height
}

func (d *HeadlessDisplay) SetSize(width, height int) {
	d.width, d.height = width, height
	if d.fb != nil {
		d.allocate()
	}
}

func (d *HeadlessDisplay) Framebuffer() uint32 {
	if d.fb == nil {
		d.fb = NewFramebuffer()
		d.fb.SetDebugLabel("headless display")
		d.color = NewTexture()
		d.color.FilterMode(gl.NEAREST, gl.NEAREST)
		d.color.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
		d.depth = NewRenderbuffer()
		d.allocate()
		d.fb.AttachTexture(0, d.color)
		d.fb.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, d.depth)
		d.fb.BindTargets(0)
		if err := d.fb.Check(gl.DRAW_FRAMEBUFFER); err != nil {
			glog.Fatalf("headless display: %v", err)
		}
	}
	return d.fb.Id()
}

func (d *HeadlessDisplay) allocate() {
	d.color.AllocateMutable(d.width, d.height, nil)
	d.depth.Allocate(gl.DEPTH_COMPONENT16, d.width, d.height)
}

func (d *HeadlessDisplay) Delete() {
	if d.fb == nil {
		return
	}
	d.fb.Delete()
	d.color.Delete()
	d.depth.Delete()
	d.fb = nil
}
