package filters

import (
	"github.com/go-gl/mathgl/mgl32"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
	"sketch-filters/offscreen"
)

type LocalMaskParams struct {
	// Center is in texture space, origin bottom left.
	Center [2]float32 `toml:"center"`
	Radius float32    `toml:"radius" range:"0,1.5"`
}

// LocalMask limits an effect to a soft disc. SaveBase snapshots the image before the
// effect runs; ApplyMask blends the snapshot with the effect outside the disc and saves
// the blend as the next snapshot.
type LocalMask struct {
	Tunable[LocalMaskParams]
	env           Env
	before        *offscreen.Surface
	prog          gpu.Program
	width, height int
}

func NewLocalMask(env Env) *LocalMask {
	m := &LocalMask{
		Tunable: newTunable(LocalMaskParams{Center: [2]float32{0.5, 0.5}, Radius: 0.1}),
		env:     env,
		before:  offscreen.NewSurface(env.Device, env.Units.One(), offscreen.Options{Depth: true, Label: "local mask before"}),
		prog:    env.program("mask"),
	}
	m.width, m.height = env.Device.DisplaySize()
	m.before.Allocate(m.width, m.height)
	return m
}

// SetCenter places the disc at canvas pixel (x, y), origin top left.
func (m *LocalMask) SetCenter(x, y float32) {
	w, h := float32(libutil.MaxI(m.width, 1)), float32(libutil.MaxI(m.height, 1))
	m.SetParameters(func(p *LocalMaskParams) {
		p.Center = [2]float32{x / w, 1 - y/h}
	})
}

// SaveBase copies the latest chain result into the snapshot.
func (m *LocalMask) SaveBase(out gpu.Program, chain *offscreen.SwapChain) {
	m.before.BindAsTarget()
	m.env.Device.Clear()
	drawPrevious(m.env, out, chain)
}

// ApplyMask blends the snapshot and the latest chain result in a new pass.
func (m *LocalMask) ApplyMask(out gpu.Program, chain *offscreen.SwapChain) {
	chain.BeginPass()
	m.prog.Activate()
	m.before.SampleInto(m.prog, "uOriginalTex")
	chain.BindPrevious(m.prog, "uEffectedTex", gpu.InputUnit)
	u := m.prog.Uniforms("uCenter", "uRadius", "uAspect")
	u.Vec2("uCenter", mgl32.Vec2(m.params.Center))
	u.Float("uRadius", m.params.Radius)
	u.Float("uAspect", float32(m.width)/float32(libutil.MaxI(m.height, 1)))
	m.env.draw()
	chain.EndPass()

	m.SaveBase(out, chain)
}

func (m *LocalMask) Before() *offscreen.Surface {
	return m.before
}

func (m *LocalMask) Resizers() []Resizer {
	return []Resizer{func(width, height int) {
		m.width, m.height = width, height
		m.before.Resize(width, height)
	}}
}

// Local runs a compound effect inside the local mask.
type Local struct {
	effect Compound
	mask   *LocalMask
}

func NewLocal(effect Compound, mask *LocalMask) *Local {
	return &Local{effect: effect, mask: mask}
}

func (l *Local) ID() string {
	return "local-" + l.effect.ID()
}

func (l *Local) Effect() Compound {
	return l.effect
}

func (l *Local) Mask() *LocalMask {
	return l.mask
}

func (l *Local) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(l.mask.env.Device, l.ID())()

	l.mask.SaveBase(out, chain)
	l.effect.Apply(out, chain)
	l.mask.ApplyMask(out, chain)
}

// Resizers covers the effect only; the mask is shared and resized by its owner.
func (l *Local) Resizers() []Resizer {
	return l.effect.Resizers()
}

// Tune decodes the same document into the mask and the effect. Unknown keys are ignored
// by either side.
func (l *Local) Tune(decode func(v any) error) error {
	if err := l.mask.Tune(decode); err != nil {
		return err
	}
	if t, ok := l.effect.(Tuner); ok {
		return t.Tune(decode)
	}
	return nil
}

func (l *Local) CheckTune(decode func(v any) error) error {
	if err := l.mask.CheckTune(decode); err != nil {
		return err
	}
	if t, ok := l.effect.(Tuner); ok {
		return t.CheckTune(decode)
	}
	return nil
}

// EditParameters edits the effect's parameters. The mask is edited on its own.
func (l *Local) EditParameters(edit func(params any)) {
	if e, ok := l.effect.(Editor); ok {
		e.EditParameters(edit)
	}
}

func (l *Local) ParameterValues() any {
	if e, ok := l.effect.(Editor); ok {
		return e.ParameterValues()
	}
	return struct{}{}
}
