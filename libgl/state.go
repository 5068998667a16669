package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest   GlCapability = gl.DEPTH_TEST
	Blend       GlCapability = gl.BLEND
	ScissorTest GlCapability = gl.SCISSOR_TEST
	CullFace    GlCapability = gl.CULL_FACE
)

type GlBlendFactor uint32

const (
	BlendZero             GlBlendFactor = gl.ZERO
	BlendOne              GlBlendFactor = gl.ONE
	BlendSrcAlpha         GlBlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha GlBlendFactor = gl.ONE_MINUS_SRC_ALPHA
)

type GlBlendEquation uint32

const (
	BlendFuncAdd GlBlendEquation = gl.FUNC_ADD
)

type GlDepthFunc uint32

const (
	DepthFuncLess   GlDepthFunc = gl.LESS
	DepthFuncLEqual GlDepthFunc = gl.LEQUAL
	DepthFuncAlways GlDepthFunc = gl.ALWAYS
)

// GlStateManager caches the bound GL state so redundant calls never reach the driver.
type GlStateManager struct {
	Caps                                   map[GlCapability]bool
	TextureUnits                           []uint32
	DrawFramebuffer, ReadFramebuffer       uint32
	ArrayBuffer, ElementArrayBuffer        uint32
	Program, VertexArray                   uint32
	ActiveTextureUnit                      int
	ViewportRect, ScissorRect              [4]int
	BlendRGBFactorSrc, BlendAlphaFactorSrc GlBlendFactor
	BlendRGBFactorDst, BlendAlphaFactorDst GlBlendFactor
	BlendEquationRGB, BlendEquationAlpha   GlBlendEquation
	DepthFuncFn                            GlDepthFunc
	DepthWriteMask                         bool
	ClearColorRGBA                         [4]float32
}

var State *GlStateManager

func NewGlStateManager(units int) *GlStateManager {
	return &GlStateManager{
		Caps:           map[GlCapability]bool{},
		TextureUnits:   make([]uint32, units),
		DepthFuncFn:    DepthFuncLess,
		DepthWriteMask: true,
	}
}

func (s *GlStateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *GlStateManager) Disable(cap GlCapability) {
	if !s.Caps[cap] {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

func (s *GlStateManager) SetEnabled(caps ...GlCapability) {
	diff := map[GlCapability]bool{}
	for c, v := range s.Caps {
		if v {
			diff[c] = false
		}
	}
	for _, c := range caps {
		diff[c] = true
	}
	for c, v := range diff {
		if v {
			s.Enable(c)
		} else {
			s.Disable(c)
		}
	}
}

func (s *GlStateManager) BlendFunc(sfactor, dfactor GlBlendFactor) {
	if s.BlendAlphaFactorSrc == sfactor && s.BlendRGBFactorSrc == sfactor && s.BlendAlphaFactorDst == dfactor && s.BlendRGBFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendAlphaFactorSrc = sfactor
	s.BlendRGBFactorSrc = sfactor
	s.BlendAlphaFactorDst = dfactor
	s.BlendRGBFactorDst = dfactor
}

func (s *GlStateManager) BlendEquation(mode GlBlendEquation) {
	if s.BlendEquationAlpha == mode && s.BlendEquationRGB == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationAlpha = mode
	s.BlendEquationRGB = mode
}

func (s *GlStateManager) DepthFunc(fn GlDepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *GlStateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *GlStateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	if GlEnv.UseIntelTextureBindingFix {
		s.ActiveTexture(unit)
		if texture == 0 {
			s.TextureUnits[unit] = texture
			return
		}
		gl.BindTexture(gl.TEXTURE_2D, texture)
		s.TextureUnits[unit] = texture
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

// BindTexture binds to the active unit; used for the non-DSA mutable storage calls.
func (s *GlStateManager) BindTexture(target uint32, texture uint32) {
	if s.TextureUnits[s.ActiveTextureUnit] == texture {
		return
	}
	gl.BindTexture(target, texture)
	s.TextureUnits[s.ActiveTextureUnit] = texture
}

func (s *GlStateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	s.ActiveTextureUnit = unit
}

// Forget drops cached bindings of a deleted texture; GL unbinds it on deletion.
func (s *GlStateManager) Forget(texture uint32) {
	for i, t := range s.TextureUnits {
		if t == texture {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *GlStateManager) BindArrayBuffer(buffer uint32) {
	if s.ArrayBuffer == buffer {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	s.ArrayBuffer = buffer
}

func (s *GlStateManager) BindElementArrayBuffer(buffer uint32) {
	if s.ElementArrayBuffer == buffer {
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buffer)
	s.ElementArrayBuffer = buffer
}

func (s *GlStateManager) BindBuffer(target uint32, buffer uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		s.BindArrayBuffer(buffer)
	case gl.ELEMENT_ARRAY_BUFFER:
		s.BindElementArrayBuffer(buffer)
	default:
		gl.BindBuffer(target, buffer)
	}
}

func (s *GlStateManager) BindFramebuffer(target, framebuffer uint32) {
	if target == gl.DRAW_FRAMEBUFFER {
		s.BindDrawFramebuffer(framebuffer)
	} else if target == gl.READ_FRAMEBUFFER {
		s.BindReadFramebuffer(framebuffer)
	} else {
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *GlStateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *GlStateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *GlStateManager) UseProgram(program uint32) {
	if s.Program == program {
		return
	}
	gl.UseProgram(program)
	s.Program = program
}

func (s *GlStateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *GlStateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect[0] == x && s.ViewportRect[1] == y && s.ViewportRect[2] == w && s.ViewportRect[3] == h {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) Scissor(x, y, w, h int) {
	if s.ScissorRect[0] == x && s.ScissorRect[1] == y && s.ScissorRect[2] == w && s.ScissorRect[3] == h {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA[0] == r && s.ClearColorRGBA[1] == g && s.ClearColorRGBA[2] == b && s.ClearColorRGBA[3] == a {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}
