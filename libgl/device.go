package libgl

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/golang/glog"

	"sketch-filters/gpu"
)

// Device drives an OpenGL 4.5 context. The context must be current on the calling
// goroutine for the whole lifetime of the device.
type Device struct {
	display  Display
	sources  Sources
	next     gpu.Handle
	objects  map[gpu.Handle]any
	programs []ShaderProgram
	maxUnits int
	// ClearColor is the colour Clear fills colour attachments with.
	ClearColor [4]float32
}

func NewDevice(display Display, sources Sources) *Device {
	if GlEnv == nil {
		GlEnv = GetGlEnv()
	}
	units := GlEnv.Features.MaxTextureImageUnits
	if State == nil {
		State = NewGlStateManager(units)
	}
	StagingUnit = units - 1

	return &Device{
		display:  display,
		sources:  sources,
		objects:  map[gpu.Handle]any{},
		maxUnits: units - 1,
	}
}

func (d *Device) add(obj any) gpu.Handle {
	d.next++
	d.objects[d.next] = obj
	return d.next
}

func (d *Device) texture(h gpu.Handle) UnboundTexture {
	if tex, ok := d.objects[h].(UnboundTexture); ok {
		return tex
	}
	panic(fmt.Errorf("handle %d is not a texture: %w", h, gpu.ErrNilHandle))
}

func (d *Device) renderbuffer(h gpu.Handle) UnboundRenderbuffer {
	if rb, ok := d.objects[h].(UnboundRenderbuffer); ok {
		return rb
	}
	panic(fmt.Errorf("handle %d is not a renderbuffer: %w", h, gpu.ErrNilHandle))
}

func (d *Device) framebuffer(h gpu.Handle) UnboundFramebuffer {
	if fb, ok := d.objects[h].(UnboundFramebuffer); ok {
		return fb
	}
	panic(fmt.Errorf("handle %d is not a framebuffer: %w", h, gpu.ErrNilHandle))
}

func (d *Device) CreateTexture() gpu.Handle {
	tex := NewTexture()
	if tex.Id() == 0 {
		return gpu.None
	}
	tex.FilterMode(gl.NEAREST, gl.NEAREST)
	tex.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	return d.add(tex)
}

func (d *Device) CreateRenderbuffer() gpu.Handle {
	rb := NewRenderbuffer()
	if rb.Id() == 0 {
		return gpu.None
	}
	return d.add(rb)
}

func (d *Device) CreateFramebuffer() gpu.Handle {
	fb := NewFramebuffer()
	if fb.Id() == 0 {
		return gpu.None
	}
	return d.add(fb)
}

func (d *Device) DeleteTexture(tex gpu.Handle) {
	if t, ok := d.objects[tex].(UnboundTexture); ok {
		t.Delete()
		delete(d.objects, tex)
	}
}

func (d *Device) DeleteRenderbuffer(rb gpu.Handle) {
	if r, ok := d.objects[rb].(UnboundRenderbuffer); ok {
		r.Delete()
		delete(d.objects, rb)
	}
}

func (d *Device) DeleteFramebuffer(fb gpu.Handle) {
	if f, ok := d.objects[fb].(UnboundFramebuffer); ok {
		f.Delete()
		delete(d.objects, fb)
	}
}

func (d *Device) AllocateTexture(tex gpu.Handle, width, height int) {
	d.texture(tex).AllocateMutable(width, height, nil)
}

func (d *Device) AllocateDepth(rb gpu.Handle, width, height int) {
	d.renderbuffer(rb).Allocate(gl.DEPTH_COMPONENT16, width, height)
}

func (d *Device) UploadTexture(tex gpu.Handle, img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rows := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(rows[(h-1-y)*w*4:], src)
	}
	d.texture(tex).AllocateMutable(w, h, rows)
}

func (d *Device) AttachColor(fb gpu.Handle, index int, tex gpu.Handle) {
	d.framebuffer(fb).AttachTexture(index, d.texture(tex))
}

func (d *Device) AttachDepth(fb gpu.Handle, rb gpu.Handle) {
	d.framebuffer(fb).AttachRenderbuffer(gl.DEPTH_ATTACHMENT, d.renderbuffer(rb))
}

func (d *Device) DrawBuffers(fb gpu.Handle, count int) {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}
	d.framebuffer(fb).BindTargets(indices...)
}

func (d *Device) CheckFramebuffer(fb gpu.Handle) error {
	return d.framebuffer(fb).Check(gl.DRAW_FRAMEBUFFER)
}

func (d *Device) BindFramebuffer(fb gpu.Handle) {
	if fb == gpu.None {
		State.BindDrawFramebuffer(d.display.Framebuffer())
		return
	}
	d.framebuffer(fb).Bind(gl.DRAW_FRAMEBUFFER)
}

func (d *Device) Viewport(width, height int) {
	State.Viewport(0, 0, width, height)
}

func (d *Device) Clear() {
	State.DepthMask(true)
	State.Disable(ScissorTest)
	State.ClearColor(d.ClearColor[0], d.ClearColor[1], d.ClearColor[2], d.ClearColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) BindTexture(unit int, tex gpu.Handle) {
	if unit < 0 || unit >= d.maxUnits {
		panic(fmt.Errorf("unit %d of %d: %w", unit, d.maxUnits, gpu.ErrUnitsExceed))
	}
	if tex == gpu.None {
		State.BindTextureUnit(unit, 0)
		return
	}
	d.texture(tex).Bind(unit)
}

func (d *Device) DepthTest(enabled bool) {
	if enabled {
		State.Enable(DepthTest)
		State.DepthFunc(DepthFuncLess)
	} else {
		State.Disable(DepthTest)
	}
}

func (d *Device) DisplaySize() (width, height int) {
	return d.display.Size()
}

func (d *Device) SetDisplaySize(width, height int) {
	d.display.SetSize(width, height)
}

func (d *Device) ReadPixels(fb gpu.Handle, width, height int) *image.RGBA {
	id := d.display.Framebuffer()
	if fb != gpu.None {
		id = d.framebuffer(fb).Id()
	}
	State.BindReadFramebuffer(id)
	if id != 0 {
		gl.NamedFramebufferReadBuffer(id, gl.COLOR_ATTACHMENT0)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	rows := make([]byte, width*height*4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, Pointer(rows))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], rows[(height-1-y)*width*4:])
	}
	return img
}

func (d *Device) MaxTextureUnits() int {
	return d.maxUnits
}

func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	prog := NewProgram(src)
	if err := d.compile(prog); err != nil {
		return nil, err
	}
	d.programs = append(d.programs, prog)
	return prog, nil
}

func (d *Device) compile(prog ShaderProgram) error {
	src := prog.Source()
	vs, err := d.sources.Vertex(src.Vertex)
	if err != nil {
		return err
	}
	fs, err := d.sources.Fragment(src.Fragment)
	if err != nil {
		return err
	}
	return prog.Compile(vs, fs)
}

// ReloadPrograms recompiles every program from its current source. Programs that fail
// keep their previous binary.
func (d *Device) ReloadPrograms() error {
	var errs []error
	for _, prog := range d.programs {
		if err := d.compile(prog); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	glog.Infof("reloaded %d programs", len(d.programs))
	return nil
}

func (d *Device) NewQuad() gpu.Geometry {
	return newQuad()
}

func (d *Device) NewInstancedGeometry(vertices []float32, vertexComponents int, instances []float32, instanceComponents int) gpu.Geometry {
	return newInstancedGeometry(vertices, vertexComponents, instances, instanceComponents)
}

func (d *Device) Label(h gpu.Handle, name string) {
	if obj, ok := d.objects[h].(LabeledGlObject); ok {
		obj.SetDebugLabel(name)
	}
}

func (d *Device) PushGroup(name string) {
	PushDebugGroup(name)
}

func (d *Device) PopGroup() {
	PopDebugGroup()
}

// Release deletes every program and object still owned by the device.
func (d *Device) Release() {
	for _, prog := range d.programs {
		prog.Delete()
	}
	d.programs = nil
	for h, obj := range d.objects {
		if del, ok := obj.(interface{ Delete() }); ok {
			del.Delete()
		}
		delete(d.objects, h)
	}
}
