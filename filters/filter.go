// Package filters holds the image effects and the stack that orders them.
//
// Simple filters only contribute uniforms to the shared "filter" program and are drawn
// by the caller in one pass each. Compound filters own their surfaces and programs and
// issue their own draws against the swap chain.
package filters

import (
	"fmt"
	"strings"

	"sketch-filters/gpu"
	"sketch-filters/offscreen"
)

// Phase orders a filter relative to the main filter.
type Phase int

const (
	Before Phase = iota
	After
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Modes of the shared filter program, selected with uFilterMode.
const (
	ModeBlur int32 = iota
	ModeContrast
	ModeSpray
	ModeVoronoi
)

// Program sources shared by the pipeline and the compound filters.
var (
	FilterProgram = gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "filter"}
	OutputProgram = gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: "output"}
)

const (
	// MainTex is the sampler every pass reads the running image through.
	MainTex    = "uMainTex"
	FilterMode = "uFilterMode"
)

type Command interface {
	ID() string
}

type Simple interface {
	Command
	Mode() int32
	UniformNames() []string
	ApplyUniforms(u gpu.Uniforms)
}

type Compound interface {
	Command
	// Apply draws the effect, reading the latest result of chain and leaving its own
	// result as the latest one. out copies a texture bound as uMainTex.
	Apply(out gpu.Program, chain *offscreen.SwapChain)
	Resizers() []Resizer
}

// Resizer adapts GPU storage to a new canvas size.
type Resizer func(width, height int)

// Tuner accepts partial parameter documents. decode fills a parameter struct in place.
type Tuner interface {
	Tune(decode func(v any) error) error
	CheckTune(decode func(v any) error) error
}

// Env is what compound filters are built from.
type Env struct {
	Device gpu.Device
	Quad   gpu.Geometry
	Units  *gpu.UnitAllocator
}

func (env Env) program(fragment string) gpu.Program {
	return gpu.MustProgram(env.Device, gpu.ProgramSource{Vertex: gpu.VertexImage, Fragment: fragment})
}

func (env Env) draw() {
	env.Quad.Draw(gpu.TriangleStrip)
}

// copyInto draws src into a new chain pass.
func copyInto(env Env, out gpu.Program, chain *offscreen.SwapChain, src *offscreen.Surface) {
	chain.BeginPass()
	out.Activate()
	src.SampleInto(out, MainTex)
	env.draw()
	chain.EndPass()
}

// drawPrevious draws the latest chain result into the bound target with out.
func drawPrevious(env Env, out gpu.Program, chain *offscreen.SwapChain) {
	out.Activate()
	chain.BindPrevious(out, MainTex, gpu.InputUnit)
	env.draw()
}
