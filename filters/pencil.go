package filters

import (
	"sketch-filters/gpu"
	"sketch-filters/offscreen"
)

type PencilParams struct {
	Gamma float32 `toml:"gamma" range:"0.05,2"`
}

// Pencil is the main filter: a posterized tone and an edge map written in one pass,
// then shaded into pencil strokes.
type Pencil struct {
	Tunable[PencilParams]
	env  Env
	mrt  *offscreen.MultiAttachmentSurface
	mrtP gpu.Program
	prog gpu.Program
}

func NewPencil(env Env) *Pencil {
	p := &Pencil{
		Tunable: newTunable(PencilParams{Gamma: 0.5}),
		env:     env,
		mrt:     offscreen.NewMultiAttachmentSurface(env.Device, env.Units.Shared(2), offscreen.Options{Label: "pencil"}),
		mrtP:    env.program("pencil_mrt"),
		prog:    env.program("pencil"),
	}
	p.mrt.Allocate(env.Device.DisplaySize())
	return p
}

func (*Pencil) ID() string { return "pencil" }

func (p *Pencil) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(p.env.Device, "pencil")()

	p.mrt.BindAsTarget()
	p.env.Device.Clear()
	p.mrtP.Activate()
	chain.BindPrevious(p.mrtP, MainTex, gpu.InputUnit)
	p.env.draw()

	chain.BeginPass()
	p.prog.Activate()
	p.mrt.SampleAttachment(0, p.prog, "uPosterizeTex")
	p.mrt.SampleAttachment(1, p.prog, "uEdgeTex")
	p.prog.Uniforms("uPencilGamma").Float("uPencilGamma", p.params.Gamma)
	p.env.draw()
	chain.EndPass()
}

func (p *Pencil) Resizers() []Resizer {
	return []Resizer{p.mrt.Resize}
}

type PalePencilParams struct {
	EdgeContrast float32 `toml:"edge_contrast" range:"0,1"`
	AreaContrast float32 `toml:"area_contrast" range:"0,1"`
}

// PalePencil washes posterized colour towards white and darkens it along edges.
type PalePencil struct {
	Tunable[PalePencilParams]
	env    Env
	mrt    *offscreen.MultiAttachmentSurface
	result *offscreen.Surface
	mrtP   gpu.Program
	prog   gpu.Program
}

func NewPalePencil(env Env) *PalePencil {
	units := env.Units.Shared(3)
	p := &PalePencil{
		Tunable: newTunable(PalePencilParams{EdgeContrast: 0.8, AreaContrast: 0.8}),
		env:     env,
		mrt:     offscreen.NewMultiAttachmentSurface(env.Device, units[:2], offscreen.Options{Label: "pale pencil"}),
		result:  offscreen.NewSurface(env.Device, units[2], offscreen.Options{Label: "pale pencil result"}),
		mrtP:    env.program("color_mrt"),
		prog:    env.program("pale_pencil"),
	}
	w, h := env.Device.DisplaySize()
	p.mrt.Allocate(w, h)
	p.result.Allocate(w, h)
	return p
}

func (*PalePencil) ID() string { return "pale-pencil" }

func (p *PalePencil) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(p.env.Device, "pale pencil")()

	p.mrt.BindAsTarget()
	p.env.Device.Clear()
	p.mrtP.Activate()
	chain.BindPrevious(p.mrtP, MainTex, gpu.InputUnit)
	p.env.draw()

	p.result.BindAsTarget()
	p.env.Device.Clear()
	p.prog.Activate()
	p.mrt.SampleAttachment(0, p.prog, "uPosterizeTex")
	p.mrt.SampleAttachment(1, p.prog, "uEdgeTex")
	u := p.prog.Uniforms("uEdgeContrast", "uAreaContrast")
	u.Float("uEdgeContrast", p.params.EdgeContrast)
	u.Float("uAreaContrast", p.params.AreaContrast)
	p.env.draw()

	copyInto(p.env, out, chain, p.result)
}

func (p *PalePencil) Resizers() []Resizer {
	return []Resizer{p.mrt.Resize, p.result.Resize}
}

type ColorPencilParams struct {
	EdgeContrast    float32 `toml:"edge_contrast" range:"0,1"`
	AreaContrast    float32 `toml:"area_contrast" range:"0,1"`
	PaperBrightness float32 `toml:"paper_brightness" range:"0,1"`
}

// ColorPencil keeps the hues, lays them on paper and traces edges.
type ColorPencil struct {
	Tunable[ColorPencilParams]
	env    Env
	edge   *offscreen.Surface
	result *offscreen.Surface
	edgeP  gpu.Program
	prog   gpu.Program
}

func NewColorPencil(env Env) *ColorPencil {
	units := env.Units.Shared(2)
	c := &ColorPencil{
		Tunable: newTunable(ColorPencilParams{EdgeContrast: 0.8, AreaContrast: 0.8, PaperBrightness: 0.9}),
		env:     env,
		edge:    offscreen.NewSurface(env.Device, units[0], offscreen.Options{Label: "color pencil edge"}),
		result:  offscreen.NewSurface(env.Device, units[1], offscreen.Options{Label: "color pencil result"}),
		edgeP:   env.program("color_pencil_edge"),
		prog:    env.program("color_pencil"),
	}
	w, h := env.Device.DisplaySize()
	c.edge.Allocate(w, h)
	c.result.Allocate(w, h)
	return c
}

func (*ColorPencil) ID() string { return "color-pencil" }

func (c *ColorPencil) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(c.env.Device, "color pencil")()

	c.edge.BindAsTarget()
	c.env.Device.Clear()
	c.edgeP.Activate()
	chain.BindPrevious(c.edgeP, MainTex, gpu.InputUnit)
	c.env.draw()

	c.result.BindAsTarget()
	c.env.Device.Clear()
	c.prog.Activate()
	chain.BindPrevious(c.prog, MainTex, gpu.InputUnit)
	c.edge.SampleInto(c.prog, "uEdgeTex")
	u := c.prog.Uniforms("uEdgeContrast", "uAreaContrast", "uPaperColorBright")
	u.Float("uEdgeContrast", c.params.EdgeContrast)
	u.Float("uAreaContrast", c.params.AreaContrast)
	u.Float("uPaperColorBright", c.params.PaperBrightness)
	c.env.draw()

	copyInto(c.env, out, chain, c.result)
}

func (c *ColorPencil) Resizers() []Resizer {
	return []Resizer{c.edge.Resize, c.result.Resize}
}
