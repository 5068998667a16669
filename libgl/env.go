package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/golang/glog"
)

var GlEnv *GlEnvironment

type GlEnvironment struct {
	Vendor                    string
	Renderer                  string
	Version                   string
	UseIntelTextureBindingFix bool
	Features                  GlFeatures
}

type GlFeatures struct {
	MaxTextureImageUnits int
	MaxDrawBuffers       int
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

func GetGlEnv() *GlEnvironment {
	vendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	if strings.Contains(vendor, "intel") {
		vendor = VendorIntel
	} else if strings.Contains(vendor, "nvidia") {
		vendor = VendorNvidia
	} else if strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd") {
		vendor = VendorAmd
	} else {
		vendor = VendorUnknown
	}

	var units, drawBuffers int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	gl.GetIntegerv(gl.MAX_DRAW_BUFFERS, &drawBuffers)

	env := &GlEnvironment{
		Vendor:                    vendor,
		Renderer:                  gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:                   gl.GoStr(gl.GetString(gl.VERSION)),
		UseIntelTextureBindingFix: vendor == VendorIntel,
		Features: GlFeatures{
			MaxTextureImageUnits: int(units),
			MaxDrawBuffers:       int(drawBuffers),
		},
	}
	glog.Infof("GL %s on %s (%s), %d texture units", env.Version, env.Renderer, env.Vendor, units)
	return env
}
