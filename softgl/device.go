// Package softgl is a CPU implementation of gpu.Device. Shader stages are Go functions
// registered by name; it renders headless and backs the engine's tests.
package softgl

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/glog"
	"github.com/go-gl/mathgl/mgl32"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
)

var ErrIncomplete = errors.New("framebuffer incomplete")

const DefaultMaxTextureUnits = 32

type texture struct {
	width, height int
	// RGBA8, rows bottom-up
	pix []uint8
}

func (t *texture) allocate(width, height int) {
	t.width, t.height = width, height
	t.pix = make([]uint8, width*height*4)
}

func (t *texture) texel(x, y int) mgl32.Vec4 {
	if t.width == 0 || t.height == 0 {
		return mgl32.Vec4{}
	}
	x = libutil.ClampI(x, 0, t.width-1)
	y = libutil.ClampI(y, 0, t.height-1)
	i := (y*t.width + x) * 4
	p := t.pix[i : i+4 : i+4]
	return mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func (t *texture) store(x, y int, c mgl32.Vec4) {
	i := (y*t.width + x) * 4
	for k := 0; k < 4; k++ {
		t.pix[i+k] = quantize(c[k])
	}
}

func (t *texture) clear() {
	for i := range t.pix {
		t.pix[i] = 0
	}
}

type renderbuffer struct {
	width, height int
	depth         []float32
}

func (rb *renderbuffer) allocate(width, height int) {
	rb.width, rb.height = width, height
	rb.depth = make([]float32, width*height)
	rb.clear()
}

func (rb *renderbuffer) clear() {
	for i := range rb.depth {
		rb.depth[i] = 1
	}
}

type framebuffer struct {
	color     [gpu.MaxAttachments]gpu.Handle
	depth     gpu.Handle
	drawCount int
}

// Device is a software gpu.Device. It is not safe for concurrent use, like a GL context.
type Device struct {
	next          gpu.Handle
	textures      map[gpu.Handle]*texture
	renderbuffers map[gpu.Handle]*renderbuffer
	framebuffers  map[gpu.Handle]*framebuffer
	programs      map[gpu.Handle]*Program
	labels        map[gpu.Handle]string

	display      *texture
	displayDepth *renderbuffer
	drawTarget   gpu.Handle
	viewport     [2]int
	units        []gpu.Handle
	depthTest    bool
	current      *Program
	maxUnits     int
	draws        int
	ClearColor   mgl32.Vec4
}

func NewDevice(width, height int) *Device {
	dev := &Device{
		textures:      map[gpu.Handle]*texture{},
		renderbuffers: map[gpu.Handle]*renderbuffer{},
		framebuffers:  map[gpu.Handle]*framebuffer{},
		programs:      map[gpu.Handle]*Program{},
		labels:        map[gpu.Handle]string{},
		display:       &texture{},
		displayDepth:  &renderbuffer{},
		maxUnits:      DefaultMaxTextureUnits,
	}
	dev.units = make([]gpu.Handle, dev.maxUnits)
	dev.SetDisplaySize(width, height)
	dev.viewport = [2]int{width, height}
	return dev
}

// WithMaxTextureUnits limits the units the device reports. Used to provoke exhaustion.
func (dev *Device) WithMaxTextureUnits(n int) *Device {
	dev.maxUnits = n
	dev.units = make([]gpu.Handle, n)
	return dev
}

func (dev *Device) handle() gpu.Handle {
	dev.next++
	return dev.next
}

func (dev *Device) CreateTexture() gpu.Handle {
	h := dev.handle()
	dev.textures[h] = &texture{}
	return h
}

func (dev *Device) CreateRenderbuffer() gpu.Handle {
	h := dev.handle()
	dev.renderbuffers[h] = &renderbuffer{}
	return h
}

func (dev *Device) CreateFramebuffer() gpu.Handle {
	h := dev.handle()
	dev.framebuffers[h] = &framebuffer{drawCount: 1}
	return h
}

func (dev *Device) DeleteTexture(tex gpu.Handle) {
	delete(dev.textures, tex)
	delete(dev.labels, tex)
	for i, u := range dev.units {
		if u == tex {
			dev.units[i] = gpu.None
		}
	}
}

func (dev *Device) DeleteRenderbuffer(rb gpu.Handle) {
	delete(dev.renderbuffers, rb)
	delete(dev.labels, rb)
}

func (dev *Device) DeleteFramebuffer(fb gpu.Handle) {
	delete(dev.framebuffers, fb)
	delete(dev.labels, fb)
	if dev.drawTarget == fb {
		dev.drawTarget = gpu.None
	}
}

func (dev *Device) Label(h gpu.Handle, name string) {
	dev.labels[h] = name
}

func (dev *Device) mustTexture(tex gpu.Handle) *texture {
	t, ok := dev.textures[tex]
	if !ok {
		panic(fmt.Errorf("softgl: texture %d: %w", tex, gpu.ErrNilHandle))
	}
	return t
}

func (dev *Device) mustFramebuffer(fb gpu.Handle) *framebuffer {
	f, ok := dev.framebuffers[fb]
	if !ok {
		panic(fmt.Errorf("softgl: framebuffer %d: %w", fb, gpu.ErrNilHandle))
	}
	return f
}

func (dev *Device) AllocateTexture(tex gpu.Handle, width, height int) {
	dev.mustTexture(tex).allocate(width, height)
}

func (dev *Device) AllocateDepth(rb gpu.Handle, width, height int) {
	r, ok := dev.renderbuffers[rb]
	if !ok {
		panic(fmt.Errorf("softgl: renderbuffer %d: %w", rb, gpu.ErrNilHandle))
	}
	r.allocate(width, height)
}

func (dev *Device) UploadTexture(tex gpu.Handle, img *image.RGBA) {
	t := dev.mustTexture(tex)
	b := img.Bounds()
	t.allocate(b.Dx(), b.Dy())
	for y := 0; y < t.height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Max.Y-1-y):]
		copy(t.pix[y*t.width*4:(y+1)*t.width*4], src[:t.width*4])
	}
}

func (dev *Device) AttachColor(fb gpu.Handle, index int, tex gpu.Handle) {
	if index < 0 || index >= gpu.MaxAttachments {
		panic(fmt.Errorf("softgl: color attachment %d out of range", index))
	}
	dev.mustFramebuffer(fb).color[index] = tex
}

func (dev *Device) AttachDepth(fb gpu.Handle, rb gpu.Handle) {
	dev.mustFramebuffer(fb).depth = rb
}

func (dev *Device) DrawBuffers(fb gpu.Handle, count int) {
	dev.mustFramebuffer(fb).drawCount = count
}

func (dev *Device) CheckFramebuffer(fb gpu.Handle) error {
	f, ok := dev.framebuffers[fb]
	if !ok {
		return fmt.Errorf("framebuffer %d does not exist: %w", fb, ErrIncomplete)
	}
	width, height := -1, -1
	for i := 0; i < f.drawCount; i++ {
		t, ok := dev.textures[f.color[i]]
		if !ok {
			return fmt.Errorf("incomplete draw buffer %d: %w", i, ErrIncomplete)
		}
		if width < 0 {
			width, height = t.width, t.height
		} else if t.width != width || t.height != height {
			return fmt.Errorf("incomplete dimensions: %w", ErrIncomplete)
		}
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("incomplete missing attachment: %w", ErrIncomplete)
	}
	if f.depth != gpu.None {
		rb, ok := dev.renderbuffers[f.depth]
		if !ok {
			return fmt.Errorf("incomplete depth attachment: %w", ErrIncomplete)
		}
		if rb.width != width || rb.height != height {
			return fmt.Errorf("incomplete dimensions: %w", ErrIncomplete)
		}
	}
	return nil
}

func (dev *Device) BindFramebuffer(fb gpu.Handle) {
	if fb != gpu.None {
		dev.mustFramebuffer(fb)
	}
	dev.drawTarget = fb
}

func (dev *Device) Viewport(width, height int) {
	dev.viewport = [2]int{width, height}
}

func (dev *Device) Clear() {
	if dev.drawTarget == gpu.None {
		dev.fill(dev.display)
		dev.displayDepth.clear()
		return
	}
	f := dev.mustFramebuffer(dev.drawTarget)
	for i := 0; i < f.drawCount; i++ {
		if t, ok := dev.textures[f.color[i]]; ok {
			dev.fill(t)
		}
	}
	if rb, ok := dev.renderbuffers[f.depth]; ok {
		rb.clear()
	}
}

func (dev *Device) fill(t *texture) {
	if dev.ClearColor == (mgl32.Vec4{}) {
		t.clear()
		return
	}
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			t.store(x, y, dev.ClearColor)
		}
	}
}

func (dev *Device) BindTexture(unit int, tex gpu.Handle) {
	if unit < 0 || unit >= len(dev.units) {
		panic(fmt.Errorf("softgl: unit %d: %w", unit, gpu.ErrUnitsExceed))
	}
	if tex != gpu.None {
		dev.mustTexture(tex)
	}
	dev.units[unit] = tex
}

func (dev *Device) DepthTest(enabled bool) {
	dev.depthTest = enabled
}

func (dev *Device) DisplaySize() (width, height int) {
	return dev.display.width, dev.display.height
}

func (dev *Device) SetDisplaySize(width, height int) {
	if width == dev.display.width && height == dev.display.height {
		return
	}
	dev.display.allocate(width, height)
	dev.displayDepth.allocate(width, height)
	glog.V(2).Infof("softgl display %dx%d", width, height)
}

func (dev *Device) ReadPixels(fb gpu.Handle, width, height int) *image.RGBA {
	src := dev.display
	if fb != gpu.None {
		src = dev.mustTexture(dev.mustFramebuffer(fb).color[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height && y < src.height; y++ {
		row := src.pix[y*src.width*4:]
		n := libutil.ClampI(width, 0, src.width) * 4
		copy(img.Pix[img.PixOffset(0, height-1-y):], row[:n])
	}
	return img
}

func (dev *Device) MaxTextureUnits() int {
	return dev.maxUnits
}

// Bound is the texture currently on unit.
func (dev *Device) Bound(unit int) gpu.Handle {
	return dev.units[unit]
}

// DrawTarget is the bound draw framebuffer, None for the display.
func (dev *Device) DrawTarget() gpu.Handle {
	return dev.drawTarget
}

func (dev *Device) ViewportSize() (width, height int) {
	return dev.viewport[0], dev.viewport[1]
}

// Draws counts draw calls since creation.
func (dev *Device) Draws() int {
	return dev.draws
}

// TextureSize reports the storage size of tex.
func (dev *Device) TextureSize(tex gpu.Handle) (width, height int) {
	t := dev.mustTexture(tex)
	return t.width, t.height
}

// Live counts textures, renderbuffers and framebuffers not yet deleted.
func (dev *Device) Live() int {
	return len(dev.textures) + len(dev.renderbuffers) + len(dev.framebuffers)
}

func (dev *Device) LabelOf(h gpu.Handle) string {
	return dev.labels[h]
}

func quantize(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
