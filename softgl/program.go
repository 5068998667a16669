package softgl

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"sketch-filters/gpu"
)

// Vertex is the input of a vertex stage: attribute 0 of the vertex and, for instanced
// geometry, attribute 1 of the instance.
type Vertex struct {
	Position []float32
	Instance []float32
}

// VertexFunc returns the clip position and one varying passed on to the fragment stage.
type VertexFunc func(v Vertex) (position, varying mgl32.Vec4)

type FragmentFunc func(f *Fragment)

var (
	stagesMu  sync.RWMutex
	vertices  = map[string]VertexFunc{}
	fragments = map[string]FragmentFunc{}
)

func RegisterVertex(name string, fn VertexFunc) {
	stagesMu.Lock()
	defer stagesMu.Unlock()
	vertices[name] = fn
}

func RegisterFragment(name string, fn FragmentFunc) {
	stagesMu.Lock()
	defer stagesMu.Unlock()
	fragments[name] = fn
}

func lookupStages(src gpu.ProgramSource) (VertexFunc, FragmentFunc, error) {
	stagesMu.RLock()
	defer stagesMu.RUnlock()
	vs, ok := vertices[src.Vertex]
	if !ok {
		return nil, nil, fmt.Errorf("softgl: unknown vertex stage %q", src.Vertex)
	}
	fs, ok := fragments[src.Fragment]
	if !ok {
		return nil, nil, fmt.Errorf("softgl: unknown fragment stage %q", src.Fragment)
	}
	return vs, fs, nil
}

// Program pairs registered stages with their uniform values.
type Program struct {
	dev      *Device
	id       gpu.Handle
	src      gpu.ProgramSource
	vertex   VertexFunc
	fragment FragmentFunc
	values   map[string]any
}

func (dev *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	vs, fs, err := lookupStages(src)
	if err != nil {
		return nil, err
	}
	prog := &Program{
		dev:      dev,
		id:       dev.handle(),
		src:      src,
		vertex:   vs,
		fragment: fs,
		values:   map[string]any{},
	}
	dev.programs[prog.id] = prog
	return prog, nil
}

func (prog *Program) ID() gpu.Handle {
	return prog.id
}

func (prog *Program) Name() string {
	return prog.src.String()
}

func (prog *Program) Activate() {
	prog.dev.current = prog
}

func (prog *Program) Uniforms(names ...string) gpu.Uniforms {
	return uniforms{prog}
}

// Value is the last value set for uniform name.
func (prog *Program) Value(name string) any {
	return prog.values[name]
}

type uniforms struct {
	prog *Program
}

func (u uniforms) Int(name string, v int32)       { u.prog.values[name] = v }
func (u uniforms) Float(name string, v float32)   { u.prog.values[name] = v }
func (u uniforms) Bool(name string, v bool)       { u.prog.values[name] = v }
func (u uniforms) Vec2(name string, v mgl32.Vec2) { u.prog.values[name] = v }

// Fragment is the state of one fragment stage invocation.
type Fragment struct {
	// Coord is the window position of the pixel centre.
	Coord   mgl32.Vec2
	Varying mgl32.Vec4
	Out     [gpu.MaxAttachments]mgl32.Vec4
	Discard bool

	prog       *Program
	resolution mgl32.Vec2
}

func (f *Fragment) UV() mgl32.Vec2 {
	return f.Varying.Vec2()
}

// Resolution is the viewport size.
func (f *Fragment) Resolution() mgl32.Vec2 {
	return f.resolution
}

func (f *Fragment) sampler(name string) *texture {
	unit := int(f.Int(name))
	if unit < 0 || unit >= len(f.prog.dev.units) {
		return nil
	}
	return f.prog.dev.textures[f.prog.dev.units[unit]]
}

// Texture samples sampler name at uv with nearest filtering and clamp-to-edge.
func (f *Fragment) Texture(name string, uv mgl32.Vec2) mgl32.Vec4 {
	t := f.sampler(name)
	if t == nil || t.width == 0 {
		return mgl32.Vec4{}
	}
	x := int(floor(uv[0] * float32(t.width)))
	y := int(floor(uv[1] * float32(t.height)))
	return t.texel(x, y)
}

func (f *Fragment) TextureSize(name string) mgl32.Vec2 {
	t := f.sampler(name)
	if t == nil {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{float32(t.width), float32(t.height)}
}

func (f *Fragment) Float(name string) float32 {
	switch v := f.prog.values[name].(type) {
	case float32:
		return v
	case int32:
		return float32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (f *Fragment) Int(name string) int32 {
	switch v := f.prog.values[name].(type) {
	case int32:
		return v
	case float32:
		return int32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (f *Fragment) Bool(name string) bool {
	return f.Int(name) != 0
}

func (f *Fragment) Vec2(name string) mgl32.Vec2 {
	v, _ := f.prog.values[name].(mgl32.Vec2)
	return v
}
