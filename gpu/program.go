package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ProgramSource names the vertex and fragment stages of a program. Back-ends resolve the
// names to their own stage implementations.
type ProgramSource struct {
	Vertex   string
	Fragment string
}

func (src ProgramSource) String() string {
	return src.Vertex + "+" + src.Fragment
}

// Common vertex stages.
const (
	// VertexImage maps the full canvas quad to uv coordinates in [0,1].
	VertexImage = "image"
	// VertexCone places one cone instance at its per-instance site.
	VertexCone = "cone"
)

type Program interface {
	ID() Handle
	Name() string
	Activate()
	// Uniforms resolves the locations of names once and returns setters for them.
	Uniforms(names ...string) Uniforms
}

type Uniforms interface {
	Int(name string, v int32)
	Float(name string, v float32)
	Bool(name string, v bool)
	Vec2(name string, v mgl32.Vec2)
}

type Geometry interface {
	Draw(primitive Primitive)
	DrawInstanced(primitive Primitive, count int)
	Delete()
}

// MustProgram creates a program and panics when the device cannot provide it.
func MustProgram(dev Device, src ProgramSource) Program {
	prog, err := dev.NewProgram(src)
	if err != nil {
		panic(fmt.Errorf("program %v: %w", src, err))
	}
	if prog == nil || prog.ID() == None {
		panic(fmt.Errorf("program %v: %w", src, ErrNilProgram))
	}
	return prog
}

// SetSampler points the sampler uniform name of prog at unit.
func SetSampler(prog Program, name string, unit int) {
	if prog == nil {
		panic(ErrNilProgram)
	}
	prog.Uniforms(name).Int(name, int32(unit))
}
