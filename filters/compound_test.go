package filters_test

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/filters"
	"sketch-filters/gpu"
	"sketch-filters/offscreen"
	"sketch-filters/softgl"
)

type rig struct {
	dev   *softgl.Device
	env   filters.Env
	chain *offscreen.SwapChain
	out   gpu.Program
	src   *image.RGBA
}

func newRig(t *testing.T, width, height int) *rig {
	t.Helper()
	dev := softgl.NewDevice(width, height)
	r := &rig{
		dev: dev,
		env: filters.Env{Device: dev, Quad: dev.NewQuad(), Units: gpu.NewUnitAllocator(dev.MaxTextureUnits())},
		src: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.src.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), uint8((x + y) % 7 * 30), 255})
		}
	}
	tex := dev.CreateTexture()
	dev.UploadTexture(tex, r.src)
	r.chain = offscreen.NewSwapChain(dev)
	r.chain.Allocate(width, height)
	r.chain.SetSource(tex, width, height)
	var err error
	r.out, err = dev.NewProgram(filters.OutputProgram)
	require.NoError(t, err)
	return r
}

// run applies cmd to the source and returns the latest chain result.
func (r *rig) run(cmd filters.Compound) *image.RGBA {
	r.chain.BindOriginal(r.out, filters.MainTex)
	cmd.Apply(r.out, r.chain)
	w, h := r.dev.DisplaySize()
	return r.dev.ReadPixels(r.chain.Previous().Framebuffer(), w, h)
}

func TestReducedSize(t *testing.T) {
	w, h := filters.ReducedSize(1200, 800, 12)
	assert.Equal(t, 98, w)
	assert.Equal(t, 65, h)

	// never below five rows
	w, h = filters.ReducedSize(40, 20, 64)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)

	// the short side sets the row count in portrait too
	w, h = filters.ReducedSize(800, 1200, 12)
	assert.Equal(t, 43, w)
	assert.Equal(t, 65, h)
}

func TestMosaicFollowsRate(t *testing.T) {
	r := newRig(t, 120, 80)
	m := filters.NewMosaic(r.env)
	assert.Equal(t, 5, m.Reduced().Height())

	m.SetParameters(func(p *filters.MosaicParams) { p.ReduceRate = 4 })
	assert.Equal(t, 20, m.Reduced().Height())
	assert.Equal(t, 30, m.Reduced().Width())

	for _, resize := range m.Resizers() {
		resize(240, 160)
	}
	assert.Equal(t, 40, m.Reduced().Height())
}

func TestMosaicAddsOnePass(t *testing.T) {
	r := newRig(t, 40, 20)
	m := filters.NewMosaic(r.env)
	out := r.run(m)
	assert.Equal(t, 1, r.chain.Passes())

	// 40x20 reduces to 10x5, so 4x4 blocks share one colour
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, out.RGBAAt(0, 0), out.RGBAAt(x, y))
		}
	}
}

func TestLocalMaskRadiusZeroKeepsImage(t *testing.T) {
	r := newRig(t, 32, 16)
	mask := filters.NewLocalMask(r.env)
	mask.SetParameters(func(p *filters.LocalMaskParams) { p.Radius = 0 })
	local := filters.NewLocal(filters.NewMosaic(r.env), mask)
	assert.Equal(t, "local-mosaic", local.ID())

	out := r.run(local)
	assert.Equal(t, 2, r.chain.Passes())
	assert.Equal(t, r.src.Pix, out.Pix)
}

func TestLocalMaskLargeRadiusMatchesEffect(t *testing.T) {
	r := newRig(t, 32, 16)
	want := r.run(filters.NewMosaic(r.env))

	mask := filters.NewLocalMask(r.env)
	mask.SetParameters(func(p *filters.LocalMaskParams) { p.Radius = 10 })
	got := r.run(filters.NewLocal(filters.NewMosaic(r.env), mask))
	assert.Equal(t, want.Pix, got.Pix)
}

func TestLocalMaskSetCenter(t *testing.T) {
	r := newRig(t, 200, 100)
	mask := filters.NewLocalMask(r.env)
	mask.SetCenter(50, 25)
	assert.Equal(t, [2]float32{0.25, 0.75}, mask.Parameters().Center)

	for _, resize := range mask.Resizers() {
		resize(400, 100)
	}
	mask.SetCenter(100, 0)
	assert.Equal(t, [2]float32{0.25, 1}, mask.Parameters().Center)
	assert.Equal(t, 400, mask.Before().Width())
}

func TestLocalTuneReachesMaskAndEffect(t *testing.T) {
	r := newRig(t, 32, 16)
	mask := filters.NewLocalMask(r.env)
	mosaic := filters.NewMosaic(r.env)
	local := filters.NewLocal(mosaic, mask)

	err := local.Tune(func(v any) error {
		switch p := v.(type) {
		case *filters.LocalMaskParams:
			p.Radius = 0.4
		case *filters.MosaicParams:
			p.ReduceRate = 8
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, float32(0.4), mask.Parameters().Radius)
	assert.Equal(t, int32(8), mosaic.Parameters().ReduceRate)
	assert.Equal(t, mosaic.ParameterValues(), local.ParameterValues())
}

func TestPencilFamilyPasses(t *testing.T) {
	for _, tc := range []struct {
		name   string
		create func(filters.Env) filters.Compound
		passes int
	}{
		{"pencil", func(env filters.Env) filters.Compound { return filters.NewPencil(env) }, 1},
		{"pale-pencil", func(env filters.Env) filters.Compound { return filters.NewPalePencil(env) }, 1},
		{"color-pencil", func(env filters.Env) filters.Compound { return filters.NewColorPencil(env) }, 1},
		{"voronoi-glass", func(env filters.Env) filters.Compound { return filters.NewVoronoiGlass(env) }, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, 24, 16)
			cmd := tc.create(r.env)
			assert.Equal(t, tc.name, cmd.ID())
			out := r.run(cmd)
			assert.Equal(t, tc.passes, r.chain.Passes())
			assert.Equal(t, 24, out.Rect.Dx())
			assert.NotEqual(t, r.src.Pix, out.Pix)
		})
	}
}

func TestConeVertices(t *testing.T) {
	v := filters.ConeVertices(300, 400, 16)
	require.Len(t, v, (16+2)*3)
	assert.Equal(t, []float32{0, 0, -0.95}, v[:3])
	// the rim closes on its first vertex
	assert.InDelta(t, v[3], v[len(v)-3], 1e-5)
	assert.InDelta(t, v[4], v[len(v)-2], 1e-5)
	for i := 5; i < len(v); i += 3 {
		assert.Equal(t, float32(1), v[i])
	}
	// rim radius in pixels is the same along both axes
	assert.InDelta(t, v[3]*300/2, 240, 1e-3)

	assert.Len(t, filters.ConeVertices(10, 10, 1), (3+2)*3)
}

func TestSitePointsSeeded(t *testing.T) {
	a := filters.SitePoints(10, rand.New(rand.NewSource(7)))
	b := filters.SitePoints(10, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
	require.Len(t, a, 20)
	for _, s := range a {
		assert.GreaterOrEqual(t, s, float32(0))
		assert.Less(t, s, float32(1))
	}
}

func TestWatercolorReplacesGeometryOnParams(t *testing.T) {
	r := newRig(t, 16, 16)
	w := filters.NewWatercolor(r.env)
	w.SetParameters(func(p *filters.WatercolorParams) {
		p.Sites = 16
		p.Resolution = 8
	})
	out := r.run(w)
	assert.Equal(t, 1, r.chain.Passes())
	assert.Equal(t, 16, out.Rect.Dy())
}

func TestGlowLevels(t *testing.T) {
	r := newRig(t, 64, 32)
	g := filters.NewGlow(r.env)
	r.run(g)
	assert.Equal(t, 1, r.chain.Passes())

	g.SetParameters(func(p *filters.GlowParams) { p.Levels = 2 })
	r.run(g)
	assert.Equal(t, 1, r.chain.Passes())
}
