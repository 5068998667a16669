package offscreen

import (
	"github.com/golang/glog"

	"sketch-filters/gpu"
)

// PassFunc observes a finished pass and the surface it wrote.
type PassFunc func(pass int, written *Surface)

// SwapChain ping-pongs between two surfaces so that every pass reads the result of the
// one before it. The source texture is never written.
//
// Pass k writes Surfaces()[k%2] and reads Surfaces()[(k-1)%2], or the source for k == 1.
// After EndPass the written surface is left bound on gpu.InputUnit.
type SwapChain struct {
	dev      gpu.Device
	surfaces [2]*Surface
	source   gpu.Handle
	srcW     int
	srcH     int
	count    int
	previous int
	open     bool

	// OnEndPass, when set, runs after every EndPass.
	OnEndPass PassFunc
}

func NewSwapChain(dev gpu.Device) *SwapChain {
	return &SwapChain{
		dev: dev,
		surfaces: [2]*Surface{
			NewSurface(dev, gpu.InputUnit, Options{Label: "swap 0"}),
			NewSurface(dev, gpu.InputUnit, Options{Label: "swap 1"}),
		},
		previous: -1,
	}
}

func (sc *SwapChain) Allocate(width, height int) {
	for _, s := range sc.surfaces {
		s.Allocate(width, height)
	}
}

func (sc *SwapChain) Resize(width, height int) {
	for _, s := range sc.surfaces {
		s.Resize(width, height)
	}
}

// SetSource replaces the texture the chain starts from.
func (sc *SwapChain) SetSource(tex gpu.Handle, width, height int) {
	sc.source = gpu.MustHandle(tex, "source texture")
	sc.srcW, sc.srcH = width, height
}

func (sc *SwapChain) Source() gpu.Handle {
	return sc.source
}

func (sc *SwapChain) SourceSize() (width, height int) {
	return sc.srcW, sc.srcH
}

// BindOriginal activates prog, binds the source to gpu.InputUnit as sampler name and
// resets the pass counter. It starts every frame.
func (sc *SwapChain) BindOriginal(prog gpu.Program, name string) {
	if prog == nil {
		panic(gpu.ErrNilProgram)
	}
	gpu.MustHandle(sc.source, "source texture")
	if sc.open {
		glog.Warningf("swap chain reset with pass %d still open", sc.count)
	}
	prog.Activate()
	sc.dev.BindTexture(gpu.InputUnit, sc.source)
	gpu.SetSampler(prog, name, gpu.InputUnit)
	sc.count = 0
	sc.previous = -1
	sc.open = false
}

// SampleOriginal binds the untouched source to unit without touching the pass counter.
func (sc *SwapChain) SampleOriginal(prog gpu.Program, name string, unit int) {
	sc.dev.BindTexture(unit, gpu.MustHandle(sc.source, "source texture"))
	gpu.SetSampler(prog, name, unit)
}

// BeginPass advances the counter, binds the next surface as draw target at display size
// and clears it. previous is nil on the first pass of a frame.
func (sc *SwapChain) BeginPass() (target, previous *Surface) {
	if sc.open {
		glog.Warningf("swap chain pass %d begun while pass %d is open", sc.count+1, sc.count)
		sc.EndPass()
	}
	sc.count++
	target = sc.surfaces[sc.count%2]
	target.mustAllocated()
	sc.dev.BindFramebuffer(target.framebuffer)
	sc.dev.Viewport(sc.dev.DisplaySize())
	sc.dev.Clear()
	sc.open = true
	return target, sc.Previous()
}

// EndPass binds the surface just written to gpu.InputUnit.
func (sc *SwapChain) EndPass() {
	if !sc.open {
		glog.Warning("swap chain pass ended without begin")
		return
	}
	sc.open = false
	sc.previous = sc.count % 2
	written := sc.surfaces[sc.previous]
	sc.dev.BindTexture(gpu.InputUnit, written.Texture())
	if sc.OnEndPass != nil {
		sc.OnEndPass(sc.count, written)
	}
}

// BindPrevious binds the latest result, or the source before any pass, to unit and
// points the sampler uniform name of prog at it.
func (sc *SwapChain) BindPrevious(prog gpu.Program, name string, unit int) {
	sc.dev.BindTexture(unit, sc.PreviousTexture())
	gpu.SetSampler(prog, name, unit)
}

// Previous is the surface holding the latest finished pass, nil before the first one.
func (sc *SwapChain) Previous() *Surface {
	if sc.previous < 0 {
		return nil
	}
	return sc.surfaces[sc.previous]
}

func (sc *SwapChain) PreviousTexture() gpu.Handle {
	if s := sc.Previous(); s != nil {
		return s.Texture()
	}
	return gpu.MustHandle(sc.source, "source texture")
}

// SwitchToDisplay selects the display as draw target at its full size and clears it.
func (sc *SwapChain) SwitchToDisplay() {
	if sc.open {
		glog.Warningf("swap chain switched to display with pass %d open", sc.count)
		sc.EndPass()
	}
	sc.dev.BindFramebuffer(gpu.None)
	sc.dev.Viewport(sc.dev.DisplaySize())
	sc.dev.Clear()
}

func (sc *SwapChain) CurrentIndex() int {
	return sc.count % 2
}

// PreviousIndex is the index of the surface holding the latest result, -1 before the
// first pass of a frame.
func (sc *SwapChain) PreviousIndex() int {
	return sc.previous
}

func (sc *SwapChain) Passes() int {
	return sc.count
}

func (sc *SwapChain) Surfaces() [2]*Surface {
	return sc.surfaces
}

func (sc *SwapChain) Surface(i int) *Surface {
	return sc.surfaces[i]
}

func (sc *SwapChain) Delete() {
	for _, s := range sc.surfaces {
		s.Delete()
	}
}
