package filters

import (
	"sketch-filters/gpu"
	"sketch-filters/offscreen"
)

type VoronoiGlassParams struct {
	SiteCount      int32   `toml:"site_count" range:"1,400"`
	MixRatio       float32 `toml:"mix_ratio" range:"0,1"`
	RandomMixRatio float32 `toml:"random_mix_ratio" range:"0,1"`
	GlowScale      float32 `toml:"glow_scale" range:"0,1"`
	ShowStroke     bool    `toml:"show_stroke" range:"0,1"`
}

// VoronoiGlass renders cells as stained glass: a random tint and the site colour per
// cell, lit towards the site and leaded along cell borders.
type VoronoiGlass struct {
	Tunable[VoronoiGlassParams]
	env  Env
	mrt  *offscreen.MultiAttachmentSurface
	mrtP gpu.Program
	prog gpu.Program
}

func NewVoronoiGlass(env Env) *VoronoiGlass {
	v := &VoronoiGlass{
		Tunable: newTunable(VoronoiGlassParams{
			SiteCount:      40,
			MixRatio:       0.8,
			RandomMixRatio: 0.5,
			GlowScale:      0.3,
			ShowStroke:     true,
		}),
		env:  env,
		mrt:  offscreen.NewMultiAttachmentSurface(env.Device, env.Units.Shared(2), offscreen.Options{Label: "voronoi glass"}),
		mrtP: env.program("voronoi_glass_mrt"),
		prog: env.program("voronoi_glass"),
	}
	v.mrt.Allocate(env.Device.DisplaySize())
	return v
}

func (*VoronoiGlass) ID() string { return "voronoi-glass" }

func (v *VoronoiGlass) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(v.env.Device, "voronoi glass")()

	v.mrt.BindAsTarget()
	v.env.Device.Clear()
	v.mrtP.Activate()
	chain.BindPrevious(v.mrtP, MainTex, gpu.InputUnit)
	v.mrtP.Uniforms("uVoronoiSiteCount").Float("uVoronoiSiteCount", float32(v.params.SiteCount))
	v.env.draw()

	chain.BeginPass()
	v.prog.Activate()
	chain.BindPrevious(v.prog, MainTex, gpu.InputUnit)
	v.mrt.SampleAttachment(0, v.prog, "uRandomTex")
	v.mrt.SampleAttachment(1, v.prog, "uSiteTex")
	u := v.prog.Uniforms("uVoronoiMixRatio", "uRandomMixRatio", "uGlowScale", "uShowVoronoiStroke")
	u.Float("uVoronoiMixRatio", v.params.MixRatio)
	u.Float("uRandomMixRatio", v.params.RandomMixRatio)
	u.Float("uGlowScale", v.params.GlowScale)
	u.Bool("uShowVoronoiStroke", v.params.ShowStroke)
	v.env.draw()
	chain.EndPass()
}

func (v *VoronoiGlass) Resizers() []Resizer {
	return []Resizer{v.mrt.Resize}
}
