package filters

import "sketch-filters/gpu"

type BlurParams struct {
	Sigma float32 `toml:"sigma" range:"0,2"`
}

type Blur struct {
	Tunable[BlurParams]
}

func NewBlur() *Blur {
	return &Blur{newTunable(BlurParams{Sigma: 0.25})}
}

func (*Blur) ID() string             { return "blur" }
func (*Blur) Mode() int32            { return ModeBlur }
func (*Blur) UniformNames() []string { return []string{"uBlurSigma"} }

func (b *Blur) ApplyUniforms(u gpu.Uniforms) {
	u.Float("uBlurSigma", b.params.Sigma)
}

type ContrastParams struct {
	Gamma float32 `toml:"gamma" range:"0,4"`
}

type Contrast struct {
	Tunable[ContrastParams]
}

func NewContrast() *Contrast {
	return &Contrast{newTunable(ContrastParams{Gamma: 1})}
}

func (*Contrast) ID() string             { return "contrast" }
func (*Contrast) Mode() int32            { return ModeContrast }
func (*Contrast) UniformNames() []string { return []string{"uContrastGamma"} }

func (c *Contrast) ApplyUniforms(u gpu.Uniforms) {
	u.Float("uContrastGamma", c.params.Gamma)
}

type SprayParams struct {
	// Spread is the maximum scatter distance in pixels.
	Spread   float32 `toml:"spread" range:"0,128"`
	MixRatio float32 `toml:"mix_ratio" range:"0,1"`
}

// Spray scatters every pixel towards a hashed neighbour.
type Spray struct {
	Tunable[SprayParams]
}

func NewSpray() *Spray {
	return &Spray{newTunable(SprayParams{Spread: 36, MixRatio: 0.5})}
}

func (*Spray) ID() string             { return "spray" }
func (*Spray) Mode() int32            { return ModeSpray }
func (*Spray) UniformNames() []string { return []string{"uSpraySpread", "uSprayMixRatio"} }

func (s *Spray) ApplyUniforms(u gpu.Uniforms) {
	u.Float("uSpraySpread", s.params.Spread)
	u.Float("uSprayMixRatio", s.params.MixRatio)
}

type VoronoiParams struct {
	SiteCount int32   `toml:"site_count" range:"1,400"`
	MixRatio  float32 `toml:"mix_ratio" range:"0,1"`
}

// Voronoi flattens every cell to the colour at its site in a single pass.
type Voronoi struct {
	Tunable[VoronoiParams]
}

func NewVoronoi() *Voronoi {
	return &Voronoi{newTunable(VoronoiParams{SiteCount: 50, MixRatio: 0.8})}
}

func (*Voronoi) ID() string             { return "voronoi" }
func (*Voronoi) Mode() int32            { return ModeVoronoi }
func (*Voronoi) UniformNames() []string { return []string{"uVoronoiSiteCount", "uVoronoiMixRatio"} }

func (v *Voronoi) ApplyUniforms(u gpu.Uniforms) {
	u.Float("uVoronoiSiteCount", float32(v.params.SiteCount))
	u.Float("uVoronoiMixRatio", v.params.MixRatio)
}
