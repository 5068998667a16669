package gpu

import (
	"errors"
	"image"
)

// Handle names a device object. The zero value is never a valid object.
type Handle uint32

const None Handle = 0

// InputUnit is the texture unit the swap chain leaves the running result on.
const InputUnit = 0

const MaxAttachments = 8

var (
	ErrNilHandle   = errors.New("gpu object handle is nil")
	ErrNilProgram  = errors.New("shader program is nil")
	ErrUnitsExceed = errors.New("texture units exhausted")
)

type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
	TriangleFan
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case TriangleFan:
		return "TRIANGLE_FAN"
	}
	return "UNKNOWN"
}

// Device is the rendering context the offscreen engine drives.
//
// Colour textures are always RGBA8 with nearest filtering, clamp-to-edge wrapping and
// no mipmaps. Depth storage is a 16 bit renderbuffer. Texture rows are stored bottom-up,
// so (0,0) in texture space is the bottom left corner of an uploaded image.
type Device interface {
	CreateTexture() Handle
	CreateRenderbuffer() Handle
	CreateFramebuffer() Handle
	DeleteTexture(tex Handle)
	DeleteRenderbuffer(rb Handle)
	DeleteFramebuffer(fb Handle)

	// AllocateTexture (re)specifies the storage of tex. The handle stays valid and keeps
	// its framebuffer attachments.
	AllocateTexture(tex Handle, width, height int)
	AllocateDepth(rb Handle, width, height int)
	// UploadTexture allocates tex to the image bounds and copies the pixels, flipping rows.
	UploadTexture(tex Handle, img *image.RGBA)

	AttachColor(fb Handle, index int, tex Handle)
	AttachDepth(fb Handle, rb Handle)
	DrawBuffers(fb Handle, count int)
	CheckFramebuffer(fb Handle) error

	// BindFramebuffer selects the draw target; None selects the display.
	BindFramebuffer(fb Handle)
	Viewport(width, height int)
	// Clear clears colour and depth of the bound draw target.
	Clear()
	BindTexture(unit int, tex Handle)
	DepthTest(enabled bool)

	DisplaySize() (width, height int)
	SetDisplaySize(width, height int)
	// ReadPixels reads the first colour attachment of fb (None for the display) into a
	// top-down image.
	ReadPixels(fb Handle, width, height int) *image.RGBA
	MaxTextureUnits() int

	NewProgram(src ProgramSource) (Program, error)
	NewQuad() Geometry
	// NewInstancedGeometry creates geometry with per-vertex attribute 0 of vertexComponents
	// floats and per-instance attribute 1 of instanceComponents floats.
	NewInstancedGeometry(vertices []float32, vertexComponents int, instances []float32, instanceComponents int) Geometry
}

// Labeler is implemented by devices that can attach debug names to objects.
type Labeler interface {
	Label(h Handle, name string)
}

// Label names h on devices that support it.
func Label(dev Device, h Handle, name string) {
	if l, ok := dev.(Labeler); ok && name != "" {
		l.Label(h, name)
	}
}

// MustHandle panics when h is None.
func MustHandle(h Handle, what string) Handle {
	if h == None {
		panic(&HandleError{What: what})
	}
	return h
}

type HandleError struct {
	What string
}

func (e *HandleError) Error() string {
	return "failed to create " + e.What + ": " + ErrNilHandle.Error()
}

func (e *HandleError) Unwrap() error {
	return ErrNilHandle
}

// Grouper is implemented by devices that can scope commands in named debug groups.
type Grouper interface {
	PushGroup(name string)
	PopGroup()
}

// Group opens a debug group on dev and returns the function closing it.
func Group(dev Device, name string) (pop func()) {
	g, ok := dev.(Grouper)
	if !ok {
		return func() {}
	}
	g.PushGroup(name)
	return g.PopGroup
}
