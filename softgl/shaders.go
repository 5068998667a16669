package softgl

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
)

// Go renditions of the GLSL stages in libgl/shaders. Both sets must agree.
func init() {
	RegisterVertex(gpu.VertexImage, imageVertex)
	RegisterVertex(gpu.VertexCone, coneVertex)

	RegisterFragment("output", outputFragment)
	RegisterFragment("filter", filterFragment)
	RegisterFragment("pencil_mrt", pencilMRTFragment)
	RegisterFragment("pencil", pencilFragment)
	RegisterFragment("color_mrt", colorMRTFragment)
	RegisterFragment("pale_pencil", palePencilFragment)
	RegisterFragment("color_pencil_edge", colorPencilEdgeFragment)
	RegisterFragment("color_pencil", colorPencilFragment)
	RegisterFragment("voronoi_glass_mrt", voronoiGlassMRTFragment)
	RegisterFragment("voronoi_glass", voronoiGlassFragment)
	RegisterFragment("mask", maskFragment)
	RegisterFragment("watercolor_cells", watercolorCellsFragment)
	RegisterFragment("watercolor_mix", watercolorMixFragment)
	RegisterFragment("glow_down", glowDownFragment)
	RegisterFragment("glow_up", glowUpFragment)
	RegisterFragment("glow_mix", glowMixFragment)
}

// Filter modes of the shared "filter" stage.
const (
	modeBlur     = 0
	modeContrast = 1
	modeSpray    = 2
	modeVoronoi  = 3
)

const posterizeLevels = 4

func imageVertex(v Vertex) (position, varying mgl32.Vec4) {
	x, y := v.Position[0], v.Position[1]
	return mgl32.Vec4{x, y, 0, 1}, mgl32.Vec4{x*0.5 + 0.5, y*0.5 + 0.5, 0, 0}
}

func coneVertex(v Vertex) (position, varying mgl32.Vec4) {
	site := mgl32.Vec2{v.Instance[0], v.Instance[1]}
	p := v.Position
	return mgl32.Vec4{site[0]*2 - 1 + p[0], site[1]*2 - 1 + p[1], p[2], 1}, mgl32.Vec4{site[0], site[1], 0, 0}
}

func rgb(c mgl32.Vec4, a float32) mgl32.Vec4 {
	return mgl32.Vec4{c[0], c[1], c[2], a}
}

func gray(v float32) mgl32.Vec4 {
	return mgl32.Vec4{v, v, v, 1}
}

func clamp01(c mgl32.Vec4) mgl32.Vec4 {
	for i := range c {
		c[i] = libutil.Clamp(c[i], 0, 1)
	}
	return c
}

func texel(f *Fragment, name string) mgl32.Vec2 {
	size := f.TextureSize(name)
	if size[0] == 0 || size[1] == 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{1 / size[0], 1 / size[1]}
}

func outputFragment(f *Fragment) {
	f.Out[0] = f.Texture("uMainTex", f.UV())
}

func filterFragment(f *Fragment) {
	uv := f.UV()
	c := f.Texture("uMainTex", uv)
	switch f.Int("uFilterMode") {
	case modeBlur:
		f.Out[0] = blur(f, uv, f.Float("uBlurSigma"))
	case modeContrast:
		g := f.Float("uContrastGamma")
		out := c
		for i := 0; i < 3; i++ {
			out[i] = libutil.Clamp((c[i]-0.5)*g+0.5, 0, 1)
		}
		f.Out[0] = out
	case modeSpray:
		size := f.TextureSize("uMainTex")
		h := libutil.Hash2(mgl32.Vec2{floor(f.Coord[0]), floor(f.Coord[1])})
		spread := f.Float("uSpraySpread")
		off := mgl32.Vec2{(h[0] - 0.5) * spread / size[0], (h[1] - 0.5) * spread / size[1]}
		s := f.Texture("uMainTex", uv.Add(off))
		f.Out[0] = libutil.MixVec4(c, s, f.Float("uSprayMixRatio"))
	case modeVoronoi:
		cell := voronoi(uv, f.TextureSize("uMainTex"), f.Float("uVoronoiSiteCount"))
		s := f.Texture("uMainTex", cell.siteUV)
		f.Out[0] = libutil.MixVec4(c, s, f.Float("uVoronoiMixRatio"))
	default:
		f.Out[0] = c
	}
}

func blur(f *Fragment, uv mgl32.Vec2, sigma float32) mgl32.Vec4 {
	s := math32.Max(sigma*4, 1e-3)
	t := texel(f, "uMainTex")
	var sum mgl32.Vec4
	var total float32
	for y := -2; y <= 2; y++ {
		for x := -2; x <= 2; x++ {
			w := math32.Exp(-float32(x*x+y*y) / (2 * s * s))
			off := mgl32.Vec2{float32(x) * t[0], float32(y) * t[1]}
			sum = sum.Add(f.Texture("uMainTex", uv.Add(off)).Mul(w))
			total += w
		}
	}
	return sum.Mul(1 / total)
}

// edgeStrength is one minus the sobel magnitude of the luminance around uv.
func edgeStrength(f *Fragment, name string, uv mgl32.Vec2) float32 {
	t := texel(f, name)
	l := func(x, y float32) float32 {
		return libutil.Luminance(f.Texture(name, uv.Add(mgl32.Vec2{x * t[0], y * t[1]})))
	}
	gx := -l(-1, -1) - 2*l(-1, 0) - l(-1, 1) + l(1, -1) + 2*l(1, 0) + l(1, 1)
	gy := -l(-1, -1) - 2*l(0, -1) - l(1, -1) + l(-1, 1) + 2*l(0, 1) + l(1, 1)
	return 1 - libutil.Clamp(math32.Sqrt(gx*gx+gy*gy), 0, 1)
}

func posterize(v float32) float32 {
	return libutil.Clamp(floor(v*posterizeLevels)/(posterizeLevels-1), 0, 1)
}

func pencilMRTFragment(f *Fragment) {
	uv := f.UV()
	c := f.Texture("uMainTex", uv)
	f.Out[0] = gray(posterize(libutil.Luminance(c)))
	f.Out[1] = gray(edgeStrength(f, "uMainTex", uv))
}

func pencilFragment(f *Fragment) {
	uv := f.UV()
	tone := f.Texture("uPosterizeTex", uv)[0] * f.Texture("uEdgeTex", uv)[0]
	shade := math32.Pow(tone, f.Float("uPencilGamma"))
	if tone < 0.5 && libutil.Fract((f.Coord[0]+f.Coord[1])*0.25) < 0.5 {
		shade *= 0.85
	}
	f.Out[0] = gray(shade)
}

func colorMRTFragment(f *Fragment) {
	uv := f.UV()
	c := f.Texture("uMainTex", uv)
	f.Out[0] = mgl32.Vec4{posterize(c[0]), posterize(c[1]), posterize(c[2]), 1}
	f.Out[1] = gray(edgeStrength(f, "uMainTex", uv))
}

func palePencilFragment(f *Fragment) {
	uv := f.UV()
	poster := f.Texture("uPosterizeTex", uv)
	e := libutil.Mix(1, f.Texture("uEdgeTex", uv)[0], f.Float("uEdgeContrast"))
	area := f.Float("uAreaContrast")
	var out mgl32.Vec4
	for i := 0; i < 3; i++ {
		out[i] = libutil.Mix(1, poster[i], area) * e
	}
	out[3] = 1
	f.Out[0] = out
}

func colorPencilEdgeFragment(f *Fragment) {
	f.Out[0] = gray(edgeStrength(f, "uMainTex", f.UV()))
}

func colorPencilFragment(f *Fragment) {
	uv := f.UV()
	c := f.Texture("uMainTex", uv)
	e := libutil.Mix(1, f.Texture("uEdgeTex", uv)[0], f.Float("uEdgeContrast"))
	paper := f.Float("uPaperColorBright")
	area := f.Float("uAreaContrast")
	var out mgl32.Vec4
	for i := 0; i < 3; i++ {
		out[i] = libutil.Mix(paper, c[i], area) * e
	}
	out[3] = 1
	f.Out[0] = out
}

type voronoiCell struct {
	id     mgl32.Vec2
	siteUV mgl32.Vec2
	// distances to the nearest and second nearest site
	d1, d2 float32
}

// voronoi finds the jittered grid cell around uv. count is the approximate number of
// sites along the short side squared.
func voronoi(uv, size mgl32.Vec2, count float32) voronoiCell {
	aspect := float32(1)
	if size[1] > 0 {
		aspect = size[0] / size[1]
	}
	scale := math32.Sqrt(math32.Max(count, 1))
	p := mgl32.Vec2{uv[0] * aspect * scale, uv[1] * scale}
	base := mgl32.Vec2{floor(p[0]), floor(p[1])}

	best := voronoiCell{d1: 8, d2: 8}
	var site mgl32.Vec2
	for y := float32(-1); y <= 1; y++ {
		for x := float32(-1); x <= 1; x++ {
			id := base.Add(mgl32.Vec2{x, y})
			s := id.Add(libutil.Hash2(id))
			d := p.Sub(s).Len()
			if d < best.d1 {
				best.d2 = best.d1
				best.d1 = d
				best.id = id
				site = s
			} else if d < best.d2 {
				best.d2 = d
			}
		}
	}
	best.siteUV = mgl32.Vec2{site[0] / (aspect * scale), site[1] / scale}
	return best
}

func voronoiGlassMRTFragment(f *Fragment) {
	cell := voronoi(f.UV(), f.TextureSize("uMainTex"), f.Float("uVoronoiSiteCount"))
	hue := libutil.Hash2(cell.id.Add(mgl32.Vec2{17, 31}))[0]
	random := libutil.Hsl2rgb(mgl32.Vec3{hue, 0.6, 0.6})
	stroke := 1 - libutil.Smoothstep(0, 0.08, cell.d2-cell.d1)
	f.Out[0] = mgl32.Vec4{random[0], random[1], random[2], stroke}
	f.Out[1] = rgb(f.Texture("uMainTex", cell.siteUV), 1-libutil.Clamp(cell.d1, 0, 1))
}

func voronoiGlassFragment(f *Fragment) {
	uv := f.UV()
	base := f.Texture("uMainTex", uv)
	random := f.Texture("uRandomTex", uv)
	site := f.Texture("uSiteTex", uv)
	c := libutil.MixVec4(base, rgb(site, 1), f.Float("uVoronoiMixRatio"))
	c = libutil.MixVec4(c, rgb(random, 1), f.Float("uRandomMixRatio"))
	glow := f.Float("uGlowScale") * site[3] * 0.5
	c = c.Add(mgl32.Vec4{glow, glow, glow, 0})
	if f.Bool("uShowVoronoiStroke") {
		c = libutil.MixVec4(c, mgl32.Vec4{0.15, 0.15, 0.15, 1}, random[3])
	}
	f.Out[0] = rgb(clamp01(c), 1)
}

func maskFragment(f *Fragment) {
	uv := f.UV()
	w := libutil.MaskWeight(uv, f.Vec2("uCenter"), f.Float("uRadius"), f.Float("uAspect"))
	f.Out[0] = libutil.MixVec4(f.Texture("uOriginalTex", uv), f.Texture("uEffectedTex", uv), w)
}

func watercolorCellsFragment(f *Fragment) {
	f.Out[0] = rgb(f.Texture("uMainTex", f.UV()), 1)
}

func watercolorMixFragment(f *Fragment) {
	uv := f.UV()
	f.Out[0] = libutil.MixVec4(f.Texture("uOriginalTex", uv), f.Texture("uVoronoiTex", uv), f.Float("uMixRatio"))
}

func glowDownFragment(f *Fragment) {
	uv := f.UV()
	t := texel(f, "uMainTex").Mul(0.5)
	c := f.Texture("uMainTex", uv.Add(mgl32.Vec2{-t[0], -t[1]})).
		Add(f.Texture("uMainTex", uv.Add(mgl32.Vec2{t[0], -t[1]}))).
		Add(f.Texture("uMainTex", uv.Add(mgl32.Vec2{-t[0], t[1]}))).
		Add(f.Texture("uMainTex", uv.Add(mgl32.Vec2{t[0], t[1]}))).
		Mul(0.25)
	if f.Bool("uPrefilter") {
		c = c.Mul(thresholdContribution(c, f.Float("uThreshold"), f.Float("uKnee")))
	}
	f.Out[0] = rgb(c, 1)
}

// thresholdContribution is the quadratic knee curve applied before the first downsample.
func thresholdContribution(c mgl32.Vec4, threshold, kneeRatio float32) float32 {
	br := math32.Max(c[0], math32.Max(c[1], c[2]))
	knee := threshold*kneeRatio + 1e-5
	soft := libutil.Clamp(br-threshold+knee, 0, 2*knee)
	soft = soft * soft / (4*knee + 1e-5)
	return math32.Max(soft, br-threshold) / math32.Max(br, 1e-5)
}

func glowUpFragment(f *Fragment) {
	uv := f.UV()
	t := texel(f, "uLowTex").Mul(0.5)
	low := f.Texture("uLowTex", uv.Add(mgl32.Vec2{-t[0], -t[1]})).
		Add(f.Texture("uLowTex", uv.Add(mgl32.Vec2{t[0], -t[1]}))).
		Add(f.Texture("uLowTex", uv.Add(mgl32.Vec2{-t[0], t[1]}))).
		Add(f.Texture("uLowTex", uv.Add(mgl32.Vec2{t[0], t[1]}))).
		Mul(0.25)
	f.Out[0] = rgb(clamp01(low.Add(f.Texture("uHighTex", uv))), 1)
}

func glowMixFragment(f *Fragment) {
	uv := f.UV()
	c := f.Texture("uMainTex", uv)
	g := f.Texture("uGlowTex", uv).Mul(f.Float("uGlowIntensity"))
	f.Out[0] = rgb(clamp01(c.Add(g)), c[3])
}
