package main

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"

	"sketch-filters/gpu"
	"sketch-filters/libgl"
	"sketch-filters/pipeline"
	"sketch-filters/softgl"
)

// createWindow opens a GL 4.5 core window and makes its context current. A hidden
// window only provides the context for headless rendering.
func createWindow(width, height int, title string, visible bool) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	if !visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	win.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}
	libgl.EnableDebugOutput(false)
	glog.Infof("opengl %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return win, nil
}

// newHeadlessDevice creates the device for batch rendering. The returned function
// releases it.
func newHeadlessDevice(args *commonArgs) (gpu.Device, func(), error) {
	switch args.backend {
	case backendSoft:
		return softgl.NewDevice(1, 1), func() {}, nil
	case backendGL:
		win, err := createWindow(64, 64, "sketchfilter", false)
		if err != nil {
			return nil, nil, fmt.Errorf("create gl context: %w", err)
		}
		libgl.ShaderCache.Dir = args.cache
		display := libgl.NewHeadlessDisplay(1, 1)
		dev := libgl.NewDevice(display, libgl.Sources{Override: args.shaders})
		return dev, func() {
			dev.Release()
			display.Delete()
			win.Destroy()
			glfw.Terminate()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", args.backend)
}

// startSketch builds the pipeline for img and applies the preset and filter flags.
// Flags override the preset: -main replaces its main filter, -before and -after
// replace its phase lists.
func startSketch(dev gpu.Device, img *image.RGBA, args *commonArgs, opts pipeline.Options) (*pipeline.Sketch, error) {
	sk := pipeline.New(dev, opts)
	sk.Start(img)

	var preset pipeline.Preset
	if args.preset != "" {
		var err error
		if preset, err = pipeline.LoadPreset(args.preset); err != nil {
			return nil, err
		}
	} else {
		preset.Main = sk.Main()
	}
	if args.main != "" {
		preset.Main = args.main
	}
	if len(args.before) > 0 {
		preset.Before = args.before
	}
	if len(args.after) > 0 {
		preset.After = args.after
	}
	if err := sk.ApplyPreset(preset); err != nil {
		return nil, err
	}
	return sk, nil
}
