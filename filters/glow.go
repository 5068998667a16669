package filters

import (
	"fmt"

	"sketch-filters/gpu"
	"sketch-filters/offscreen"
)

type GlowParams struct {
	Threshold float32 `toml:"threshold" range:"0,1"`
	Knee      float32 `toml:"knee" range:"0,1"`
	Intensity float32 `toml:"intensity" range:"0,3"`
	Levels    int32   `toml:"levels" range:"1,6"`
}

// Glow adds a soft halo around bright areas. Bright parts are extracted into a chain of
// half size surfaces and summed back up before being added to the image.
type Glow struct {
	Tunable[GlowParams]
	env           Env
	units         []int
	down, up      []*offscreen.Surface
	downP, upP    gpu.Program
	mixP          gpu.Program
	width, height int
}

func NewGlow(env Env) *Glow {
	g := &Glow{
		Tunable: newTunable(GlowParams{Threshold: 0.8, Knee: 0.5, Intensity: 0.8, Levels: 4}),
		env:     env,
		units:   env.Units.Shared(2),
		downP:   env.program("glow_down"),
		upP:     env.program("glow_up"),
		mixP:    env.program("glow_mix"),
	}
	g.width, g.height = env.Device.DisplaySize()
	g.allocate()
	g.changed = func(next, prev GlowParams) {
		if next.Levels != prev.Levels {
			g.release()
			g.allocate()
		}
	}
	return g
}

func (g *Glow) levels() int {
	if g.params.Levels < 1 {
		return 1
	}
	return int(g.params.Levels)
}

func (g *Glow) allocate() {
	n := g.levels()
	g.down = make([]*offscreen.Surface, n)
	g.up = make([]*offscreen.Surface, n-1)
	for i := range g.down {
		g.down[i] = offscreen.NewSurface(g.env.Device, g.units[0], offscreen.Options{Label: fmt.Sprintf("glow down %d", i)})
	}
	for i := range g.up {
		g.up[i] = offscreen.NewSurface(g.env.Device, g.units[0], offscreen.Options{Label: fmt.Sprintf("glow up %d", i)})
	}
	g.resize(g.width, g.height, true)
}

func (g *Glow) resize(width, height int, allocate bool) {
	for i, s := range g.down {
		w, h := width>>(i+1), height>>(i+1)
		if allocate {
			s.Allocate(w, h)
		} else {
			s.Resize(w, h)
		}
		if i < len(g.up) {
			if allocate {
				g.up[i].Allocate(w, h)
			} else {
				g.up[i].Resize(w, h)
			}
		}
	}
}

func (g *Glow) release() {
	for _, s := range g.down {
		s.Delete()
	}
	for _, s := range g.up {
		s.Delete()
	}
}

func (*Glow) ID() string { return "glow" }

func (g *Glow) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(g.env.Device, "glow")()
	low, high := g.units[0], g.units[1]

	g.downP.Activate()
	u := g.downP.Uniforms("uPrefilter", "uThreshold", "uKnee")
	u.Float("uThreshold", g.params.Threshold)
	u.Float("uKnee", g.params.Knee)
	for i, s := range g.down {
		s.BindAsTarget()
		g.env.Device.Clear()
		if i == 0 {
			chain.BindPrevious(g.downP, MainTex, low)
		} else {
			g.down[i-1].BindAsTextureTo(low)
			gpu.SetSampler(g.downP, MainTex, low)
		}
		u.Bool("uPrefilter", i == 0)
		g.env.draw()
	}

	// start with the smallest level
	glow := g.down[len(g.down)-1]
	g.upP.Activate()
	gpu.SetSampler(g.upP, "uLowTex", low)
	gpu.SetSampler(g.upP, "uHighTex", high)
	for i := len(g.up) - 1; i >= 0; i-- {
		g.up[i].BindAsTarget()
		g.env.Device.Clear()
		glow.BindAsTextureTo(low)
		g.down[i].BindAsTextureTo(high)
		g.env.draw()
		glow = g.up[i]
	}

	chain.BeginPass()
	g.mixP.Activate()
	chain.BindPrevious(g.mixP, MainTex, gpu.InputUnit)
	glow.BindAsTextureTo(low)
	gpu.SetSampler(g.mixP, "uGlowTex", low)
	g.mixP.Uniforms("uGlowIntensity").Float("uGlowIntensity", g.params.Intensity)
	g.env.draw()
	chain.EndPass()
}

func (g *Glow) Resizers() []Resizer {
	return []Resizer{func(width, height int) {
		g.width, g.height = width, height
		g.resize(width, height, false)
	}}
}
