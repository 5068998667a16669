package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"
	"github.com/inkyblackness/imgui-go/v4"

	"sketch-filters/filters"
	"sketch-filters/libgl"
	"sketch-filters/libio"
	"sketch-filters/pipeline"
)

type viewArgs struct {
	commonArgs
	out string
}

func createViewCommand() *command {
	args := viewArgs{
		commonArgs: commonArgs{
			backend: backendGL,
			maxSize: 1280,
		},
		out: "sketch.png",
	}

	flags := flag.NewFlagSet("view", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.StringVar(&args.out, "out", args.out, "the file the export button writes")

	return &command{
		Name: "view",
		Help: "open an image in an interactive window",
		Run: func(self *command) {
			if self.Flags.NArg() != 1 {
				printCommandUsage(self, " image")
			}
			setCommonArgs(&args.commonArgs)
			if args.backend != backendGL {
				harderr(errors.New("view needs the gl backend"))
			}

			runView(args, self.Flags.Arg(0))
		},
		Flags: flags,
	}
}

// windowDisplay draws into the default framebuffer of the window. Setting a size
// asks the window to follow; the framebuffer size callback reports what it got.
type windowDisplay struct {
	win           *glfw.Window
	width, height int
}

func (d *windowDisplay) Size() (width, height int) {
	return d.width, d.height
}

func (d *windowDisplay) SetSize(width, height int) {
	d.width, d.height = width, height
	if fbWidth, fbHeight := d.win.GetFramebufferSize(); fbWidth != width || fbHeight != height {
		d.win.SetSize(width, height)
	}
}

func (d *windowDisplay) Framebuffer() uint32 {
	return 0
}

func runView(args viewArgs, path string) {
	img, err := libio.LoadImage(path)
	harderr(err)

	width, height := pipeline.FitImage(img.Rect.Dx(), img.Rect.Dy(), args.maxSize)
	win, err := createWindow(width, height, "sketchfilter - "+filepath.Base(path), true)
	harderr(err)
	defer glfw.Terminate()
	defer win.Destroy()
	glfw.SwapInterval(1)

	libgl.ShaderCache.Dir = args.cache
	display := &windowDisplay{win: win}
	dev := libgl.NewDevice(display, libgl.Sources{Override: args.shaders})
	defer dev.Release()

	sk, err := startSketch(dev, img, &args.commonArgs, pipeline.Options{MaxSize: args.maxSize})
	harderr(err)

	gui, err := NewImGui(win, dev)
	harderr(err)
	defer gui.Delete()

	in := newInput(win)
	panel := &panel{sk: sk, exportPath: args.out, presetPath: args.preset}
	if panel.presetPath == "" {
		panel.presetPath = "preset.toml"
	}

	var resize *[2]int
	win.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width > 0 && height > 0 {
			resize = &[2]int{width, height}
		}
	})
	var dropped string
	win.SetDropCallback(func(w *glfw.Window, names []string) {
		if len(names) > 0 {
			dropped = names[0]
		}
	})

	reload := make(chan struct{}, 1)
	if args.shaders != "" {
		watcher, err := watchShaders(args.shaders, reload)
		if softerr(err) {
			glog.Warningf("shader hot reload disabled")
		} else {
			defer watcher.Close()
		}
	}

	for !win.ShouldClose() {
		glfw.PollEvents()
		in.Update(win)

		select {
		case <-reload:
			if err := dev.ReloadPrograms(); err != nil {
				glog.Errorf("shader reload: %v", err)
			}
			sk.ReloadUniforms()
		default:
		}

		if dropped != "" {
			if img, err := libio.LoadImage(dropped); !softerr(err) {
				sk.ChangeImage(img)
				win.SetTitle("sketchfilter - " + filepath.Base(dropped))
			}
			dropped = ""
		}
		if resize != nil {
			if w, h := dev.DisplaySize(); w != resize[0] || h != resize[1] {
				sk.Resize(resize[0], resize[1])
			}
			resize = nil
		}

		if in.IsKeyTap(glfw.KeyEscape) {
			win.SetShouldClose(true)
		}
		if in.IsMouseDown(glfw.MouseButtonLeft) && !gui.WantsMouse() &&
			(in.IsMouseTap(glfw.MouseButtonLeft) || in.CursorMoved()) {
			c := in.CanvasCursor()
			sk.Mask().SetCenter(c.X(), c.Y())
		}
		if panel.export || in.IsKeyTap(glfw.KeyF12) {
			softerr(sk.Export(panel.exportPath))
			panel.export = false
		}

		sk.Render()

		gui.NewFrame()
		panel.Draw()
		gui.Draw()

		win.SwapBuffers()
	}
}

// watchShaders signals reload whenever a shader file in dir is written.
func watchShaders(dir string, reload chan<- struct{}) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				ext := filepath.Ext(ev.Name)
				if ext != ".frag" && ext != ".vert" {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					glog.V(1).Infof("shader changed: %s", ev.Name)
					select {
					case reload <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				glog.Warningf("shader watcher: %v", err)
			}
		}
	}()
	glog.Infof("watching %s for shader changes", dir)
	return watcher, nil
}

type panel struct {
	sk         *pipeline.Sketch
	exportPath string
	presetPath string
	export     bool
	status     string
}

func (p *panel) Draw() {
	imgui.Begin("filters")
	defer imgui.End()

	stack := p.sk.Stack()
	if imgui.BeginCombo("main", p.sk.Main()) {
		for _, cmd := range stack.Commands() {
			if imgui.SelectableV(cmd.ID(), cmd.ID() == p.sk.Main(), 0, imgui.Vec2{}) {
				p.sk.SetMain(cmd.ID())
			}
		}
		if imgui.SelectableV("(none)", p.sk.Main() == "", 0, imgui.Vec2{}) {
			p.sk.SetMain("")
		}
		imgui.EndCombo()
	}
	imgui.Separator()

	for _, cmd := range stack.Commands() {
		id := cmd.ID()
		imgui.PushID(id)
		if imgui.CollapsingHeader(id) {
			for i, phase := range []filters.Phase{filters.Before, filters.After} {
				if i > 0 {
					imgui.SameLine()
				}
				active := stack.IsActive(id, phase)
				if imgui.Checkbox(phase.String(), &active) {
					if active {
						stack.Activate(id, phase)
					} else {
						stack.Deactivate(id, phase)
					}
				}
			}
			if editor, ok := cmd.(filters.Editor); ok {
				editParameters(editor)
			}
		}
		imgui.PopID()
	}

	imgui.PushID("mask")
	if imgui.CollapsingHeader("local mask") {
		imgui.Text("drag on the image to move the mask")
		editParameters(p.sk.Mask())
	}
	imgui.PopID()
	imgui.Separator()

	imgui.InputText("image", &p.exportPath)
	if imgui.Button("export") {
		p.export = true
	}
	imgui.InputText("preset", &p.presetPath)
	if imgui.Button("save preset") {
		p.report(p.savePreset())
	}
	imgui.SameLine()
	if imgui.Button("load preset") {
		p.report(p.loadPreset())
	}
	if p.status != "" {
		imgui.Text(p.status)
	}
}

func (p *panel) report(err error) {
	if err != nil {
		p.status = err.Error()
		glog.Errorln(err)
		return
	}
	p.status = ""
}

func (p *panel) savePreset() error {
	preset, err := p.sk.CurrentPreset()
	if err != nil {
		return err
	}
	var b strings.Builder
	if err := preset.Write(&b); err != nil {
		return err
	}
	if err := os.WriteFile(p.presetPath, []byte(b.String()), 0644); err != nil {
		return err
	}
	glog.Infof("wrote %s", p.presetPath)
	return nil
}

func (p *panel) loadPreset() error {
	preset, err := pipeline.LoadPreset(p.presetPath)
	if err != nil {
		return err
	}
	return p.sk.ApplyPreset(preset)
}

// editParameters draws a widget per tunable field and writes the values back only
// when one of them changed.
func editParameters(editor filters.Editor) {
	values := filters.CopyParameters(editor.ParameterValues())
	changed := false
	for _, f := range filters.Fields(values) {
		switch v := f.Value.Addr().Interface().(type) {
		case *float32:
			changed = imgui.SliderFloat(f.Key, v, f.Min, f.Max) || changed
		case *int32:
			changed = imgui.SliderInt(f.Key, v, int32(f.Min), int32(f.Max)) || changed
		case *bool:
			changed = imgui.Checkbox(f.Key, v) || changed
		}
	}
	if changed {
		editor.EditParameters(func(params any) {
			reflect.ValueOf(params).Elem().Set(reflect.ValueOf(values).Elem())
		})
	}
}
