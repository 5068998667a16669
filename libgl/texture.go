package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

// StagingUnit is the texture unit used to respecify mutable storage. It is never
// handed out to the engine.
var StagingUnit int

type texture struct {
	glId   uint32
	width  int32
	height int32
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundTexture
	// AllocateMutable (re)specifies RGBA8 storage of a single level; the name stays valid.
	AllocateMutable(width, height int, data []byte)
	FilterMode(min, mag int32)
	WrapMode(s, t int32)
	Size() (width, height int)
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture() UnboundTexture {
	var id uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &id)
	gl.TextureParameteri(id, gl.TEXTURE_MAX_LEVEL, 0)
	return &texture{
		glId: id,
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	State.Forget(tex.glId)
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

func (tex *texture) AllocateMutable(width, height int, data []byte) {
	tex.width = int32(width)
	tex.height = int32(height)
	var ptr any
	if len(data) > 0 {
		ptr = data
	}
	State.ActiveTexture(StagingUnit)
	State.BindTexture(gl.TEXTURE_2D, tex.glId)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, tex.width, tex.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, Pointer(ptr))
}

func (tex *texture) FilterMode(min, mag int32) {
	if min != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (tex *texture) WrapMode(s, t int32) {
	if s != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_T, t)
	}
}

func (tex *texture) Size() (width, height int) {
	return int(tex.width), int(tex.height)
}
