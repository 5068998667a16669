// Package pipeline drives a full frame: the original image through the before filters,
// the main filter and the after filters onto the display.
package pipeline

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/golang/glog"

	"sketch-filters/filters"
	"sketch-filters/gpu"
	"sketch-filters/libio"
	"sketch-filters/offscreen"
)

const DefaultMain = "pencil"

type Options struct {
	// MaxSize limits the long side of the canvas; 0 keeps the image size.
	MaxSize int
	// DumpPasses, when set, is a directory every swap chain pass is written to.
	DumpPasses string
}

// Sketch owns the swap chain, the shared programs and every filter for one session.
type Sketch struct {
	dev   gpu.Device
	opts  Options
	quad  gpu.Geometry
	stack *filters.Stack
	chain *offscreen.SwapChain
	mask  *filters.LocalMask

	filterP  gpu.Program
	outP     gpu.Program
	uniforms gpu.Uniforms

	main     string
	source   gpu.Handle
	started  bool
	frame    int
	resizers []filters.Resizer
}

func New(dev gpu.Device, opts Options) *Sketch {
	return &Sketch{dev: dev, opts: opts, main: DefaultMain}
}

// FitImage is the canvas size for an image of the given size.
func FitImage(width, height, maxSize int) (int, int) {
	return libio.FitSize(width, height, maxSize)
}

// Start sizes the canvas to img and builds the chain and every filter.
func (s *Sketch) Start(img *image.RGBA) {
	if s.started {
		s.ChangeImage(img)
		return
	}
	w, h := FitImage(img.Rect.Dx(), img.Rect.Dy(), s.opts.MaxSize)
	s.dev.SetDisplaySize(w, h)

	s.source = gpu.MustHandle(s.dev.CreateTexture(), "source texture")
	gpu.Label(s.dev, s.source, "source")
	s.dev.UploadTexture(s.source, img)

	s.quad = s.dev.NewQuad()
	s.filterP = gpu.MustProgram(s.dev, filters.FilterProgram)
	s.outP = gpu.MustProgram(s.dev, filters.OutputProgram)

	s.chain = offscreen.NewSwapChain(s.dev)
	s.chain.Allocate(w, h)
	s.chain.SetSource(s.source, img.Rect.Dx(), img.Rect.Dy())
	if s.opts.DumpPasses != "" {
		s.chain.OnEndPass = s.dumpPass
	}

	units := gpu.NewUnitAllocator(s.dev.MaxTextureUnits())
	s.stack = filters.NewStack(units)
	env := filters.Env{Device: s.dev, Quad: s.quad, Units: units}
	s.mask = filters.NewLocalMask(env)
	s.stack.MustRegister(
		filters.NewBlur(),
		filters.NewContrast(),
		filters.NewSpray(),
		filters.NewVoronoi(),
		filters.NewPencil(env),
		filters.NewPalePencil(env),
		filters.NewColorPencil(env),
		filters.NewVoronoiGlass(env),
		filters.NewMosaic(env),
		filters.NewWatercolor(env),
		filters.NewGlow(env),
		filters.NewLocal(filters.NewMosaic(env), s.mask),
		filters.NewLocal(filters.NewWatercolor(env), s.mask),
	)
	s.uniforms = s.stack.InitUniforms(s.filterP)

	s.resizers = []filters.Resizer{s.chain.Resize}
	s.resizers = append(s.resizers, s.mask.Resizers()...)
	s.resizers = append(s.resizers, s.stack.Resizers()...)
	s.started = true
	glog.Infof("sketch started at %dx%d with %d filters, %d reserved and %d shared of %d texture units", w, h,
		len(s.stack.Commands()), units.Used()-1, units.SharedCount(), units.Max())
}

// ChangeImage replaces the source. The canvas follows the new image size.
func (s *Sketch) ChangeImage(img *image.RGBA) {
	if !s.started {
		s.Start(img)
		return
	}
	s.dev.UploadTexture(s.source, img)
	s.chain.SetSource(s.source, img.Rect.Dx(), img.Rect.Dy())
	s.Resize(FitImage(img.Rect.Dx(), img.Rect.Dy(), s.opts.MaxSize))
}

// Resize changes the canvas size and runs every resizer.
func (s *Sketch) Resize(width, height int) {
	s.dev.SetDisplaySize(width, height)
	for _, resize := range s.resizers {
		resize(width, height)
	}
	glog.Infof("canvas resized to %dx%d", width, height)
}

// Render draws one frame onto the display.
func (s *Sketch) Render() {
	defer gpu.Group(s.dev, "sketch")()
	s.frame++

	s.chain.BindOriginal(s.filterP, filters.MainTex)
	for _, cmd := range s.stack.ActiveBefore() {
		s.run(cmd)
	}
	if cmd, ok := s.stack.Get(s.main); ok {
		s.run(cmd)
	}
	for _, cmd := range s.stack.ActiveAfter() {
		s.run(cmd)
	}

	s.chain.SwitchToDisplay()
	s.outP.Activate()
	s.chain.BindPrevious(s.outP, filters.MainTex, gpu.InputUnit)
	s.quad.Draw(gpu.TriangleStrip)
	glog.V(2).Infof("frame %d: %d passes", s.frame, s.chain.Passes())
}

func (s *Sketch) run(cmd filters.Command) {
	switch c := cmd.(type) {
	case filters.Simple:
		defer gpu.Group(s.dev, c.ID())()
		s.chain.BeginPass()
		s.filterP.Activate()
		gpu.SetSampler(s.filterP, filters.MainTex, gpu.InputUnit)
		s.uniforms.Int(filters.FilterMode, c.Mode())
		c.ApplyUniforms(s.uniforms)
		s.quad.Draw(gpu.TriangleStrip)
		s.chain.EndPass()
	case filters.Compound:
		c.Apply(s.outP, s.chain)
	default:
		glog.Warningf("filter %s can not be drawn", cmd.ID())
	}
}

// Snapshot renders a frame and reads the display back.
func (s *Sketch) Snapshot() libio.Frame {
	s.Render()
	w, h := s.dev.DisplaySize()
	return libio.Frame{Image: s.dev.ReadPixels(gpu.None, w, h), Passes: s.chain.Passes()}
}

// Export renders a frame into path, as png or as a frame capture.
func (s *Sketch) Export(path string) error {
	if !s.started {
		return fmt.Errorf("export %s: no image loaded", path)
	}
	return libio.SaveFrame(path, s.Snapshot())
}

func (s *Sketch) dumpPass(pass int, written *offscreen.Surface) {
	w, h := written.Size()
	img := s.dev.ReadPixels(written.Framebuffer(), w, h)
	path := filepath.Join(s.opts.DumpPasses, fmt.Sprintf("frame%03d-pass%02d.png", s.frame, pass))
	if err := libio.SaveFrame(path, libio.Frame{Image: img, Passes: pass}); err != nil {
		glog.Errorf("dump pass %d: %v", pass, err)
	}
}

// SetMain selects the main filter; an unknown id renders without one.
func (s *Sketch) SetMain(id string) {
	s.main = id
}

func (s *Sketch) Main() string {
	return s.main
}

func (s *Sketch) Stack() *filters.Stack {
	return s.stack
}

func (s *Sketch) Chain() *offscreen.SwapChain {
	return s.chain
}

func (s *Sketch) Mask() *filters.LocalMask {
	return s.mask
}

func (s *Sketch) Started() bool {
	return s.started
}

// ReloadUniforms resolves the shared uniforms again after the filter program changed.
func (s *Sketch) ReloadUniforms() {
	if s.started {
		s.uniforms = s.stack.InitUniforms(s.filterP)
	}
}
