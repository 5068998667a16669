package filters

import (
	"math/rand"

	"github.com/chewxy/math32"

	"sketch-filters/gpu"
	"sketch-filters/offscreen"
)

type WatercolorParams struct {
	MixRatio   float32 `toml:"mix_ratio" range:"0,1"`
	Sites      int32   `toml:"sites" range:"16,4000"`
	Resolution int32   `toml:"resolution" range:"8,128"`
	Seed       int64   `toml:"seed"`
}

// cone apex and rim depth in clip space
const (
	coneApex = -0.95
	coneRim  = 1.0
)

// ConeVertices is a triangle fan of a cone wide enough to cover the canvas from any site.
// The rim is stretched so that the cone is circular in canvas pixels.
func ConeVertices(width, height int, resolution int) []float32 {
	if resolution < 3 {
		resolution = 3
	}
	l := math32.Hypot(float32(width), float32(height))
	ax, ay := float32(width)/l, float32(height)/l

	vertices := make([]float32, 0, (resolution+2)*3)
	vertices = append(vertices, 0, 0, coneApex)
	for i := 0; i <= resolution; i++ {
		t := 2 * math32.Pi * float32(i) / float32(resolution)
		vertices = append(vertices, math32.Cos(t)*ay*2, math32.Sin(t)*ax*2, coneRim)
	}
	return vertices
}

// SitePoints returns n random sites in [0,1)².
func SitePoints(n int, rng *rand.Rand) []float32 {
	sites := make([]float32, n*2)
	for i := range sites {
		sites[i] = rng.Float32()
	}
	return sites
}

// Watercolor flattens the image into cells by drawing one depth-tested cone per site,
// then mixes the cells into the running image.
type Watercolor struct {
	Tunable[WatercolorParams]
	env           Env
	cells         *offscreen.Surface
	cone          gpu.Geometry
	cellsP        gpu.Program
	prog          gpu.Program
	width, height int
}

func NewWatercolor(env Env) *Watercolor {
	w := &Watercolor{
		Tunable: newTunable(WatercolorParams{MixRatio: 0.3, Sites: 2000, Resolution: 64, Seed: 1}),
		env:     env,
		cells:   offscreen.NewSurface(env.Device, env.Units.Shared(1)[0], offscreen.Options{Depth: true, Label: "watercolor"}),
		cellsP:  gpu.MustProgram(env.Device, gpu.ProgramSource{Vertex: gpu.VertexCone, Fragment: "watercolor_cells"}),
		prog:    env.program("watercolor_mix"),
	}
	w.width, w.height = env.Device.DisplaySize()
	w.cells.Allocate(w.width, w.height)
	w.rebuild()
	w.changed = func(next, prev WatercolorParams) {
		if next.Sites != prev.Sites || next.Resolution != prev.Resolution || next.Seed != prev.Seed {
			w.rebuild()
		}
	}
	return w
}

func (w *Watercolor) rebuild() {
	if w.cone != nil {
		w.cone.Delete()
	}
	rng := rand.New(rand.NewSource(w.params.Seed))
	w.cone = w.env.Device.NewInstancedGeometry(
		ConeVertices(w.width, w.height, int(w.params.Resolution)), 3,
		SitePoints(int(w.params.Sites), rng), 2,
	)
}

func (*Watercolor) ID() string { return "watercolor" }

func (w *Watercolor) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(w.env.Device, "watercolor")()

	w.cells.BindAsTarget()
	w.env.Device.Clear()
	w.cellsP.Activate()
	chain.BindPrevious(w.cellsP, MainTex, gpu.InputUnit)
	w.env.Device.DepthTest(true)
	w.cone.DrawInstanced(gpu.TriangleFan, int(w.params.Sites))
	w.env.Device.DepthTest(false)

	chain.BeginPass()
	w.prog.Activate()
	chain.BindPrevious(w.prog, "uOriginalTex", gpu.InputUnit)
	w.cells.SampleInto(w.prog, "uVoronoiTex")
	w.prog.Uniforms("uMixRatio").Float("uMixRatio", w.params.MixRatio)
	w.env.draw()
	chain.EndPass()
}

func (w *Watercolor) Resizers() []Resizer {
	return []Resizer{func(width, height int) {
		if width == w.width && height == w.height {
			return
		}
		w.width, w.height = width, height
		w.cells.Resize(width, height)
		w.rebuild()
	}}
}
