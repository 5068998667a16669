package filters

import (
	"github.com/chewxy/math32"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
	"sketch-filters/offscreen"
)

type MosaicParams struct {
	// ReduceRate is how many canvas pixels share one tile along the short side.
	ReduceRate int32 `toml:"reduce_rate" range:"2,64"`
}

// ReducedSize is the tile grid for a canvas. The height snaps to a multiple of five and
// the width follows the canvas aspect.
func ReducedSize(width, height int, rate int32) (w, h int) {
	if rate < 1 {
		rate = 1
	}
	short := float32(libutil.MinI(width, height))
	h = int(math32.Round(math32.Ceil(short/float32(rate))/5) * 5)
	h = libutil.MaxI(5, h)
	aspect := float32(width) / float32(libutil.MaxI(1, height))
	w = libutil.MaxI(1, int(math32.Round(float32(h)*aspect)))
	return w, h
}

// Mosaic draws the image into a small depth-backed surface and magnifies it back with
// nearest filtering.
type Mosaic struct {
	Tunable[MosaicParams]
	env           Env
	reduced       *offscreen.Surface
	width, height int
}

func NewMosaic(env Env) *Mosaic {
	m := &Mosaic{
		Tunable: newTunable(MosaicParams{ReduceRate: 12}),
		env:     env,
		reduced: offscreen.NewSurface(env.Device, env.Units.Shared(1)[0], offscreen.Options{Depth: true, Label: "mosaic"}),
	}
	m.width, m.height = env.Device.DisplaySize()
	m.reduced.Allocate(ReducedSize(m.width, m.height, m.params.ReduceRate))
	m.changed = func(next, prev MosaicParams) {
		if next.ReduceRate != prev.ReduceRate {
			m.reduced.Resize(ReducedSize(m.width, m.height, next.ReduceRate))
		}
	}
	return m
}

func (*Mosaic) ID() string { return "mosaic" }

func (m *Mosaic) Apply(out gpu.Program, chain *offscreen.SwapChain) {
	defer gpu.Group(m.env.Device, "mosaic")()

	m.reduced.BindAsTarget()
	m.env.Device.Clear()
	drawPrevious(m.env, out, chain)

	copyInto(m.env, out, chain, m.reduced)
}

func (m *Mosaic) Reduced() *offscreen.Surface {
	return m.reduced
}

func (m *Mosaic) Resizers() []Resizer {
	return []Resizer{func(width, height int) {
		m.width, m.height = width, height
		m.reduced.Resize(ReducedSize(width, height, m.params.ReduceRate))
	}}
}
