package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type input struct {
	curr inputState
	prev inputState
}

type inputState struct {
	time         float32
	cursorPos    mgl32.Vec2
	fbScale      mgl32.Vec2
	keys         []bool
	mousebuttons []bool
}

func newInput(win *glfw.Window) *input {
	i := &input{
		curr: inputState{
			keys:         make([]bool, glfw.KeyLast+1),
			mousebuttons: make([]bool, glfw.MouseButtonLast+1),
		},
		prev: inputState{
			keys:         make([]bool, glfw.KeyLast+1),
			mousebuttons: make([]bool, glfw.MouseButtonLast+1),
		},
	}

	i.Update(win)
	i.prev.cursorPos = i.curr.cursorPos
	i.prev.time = i.curr.time - 1./60.
	copy(i.prev.keys, i.curr.keys)
	copy(i.prev.mousebuttons, i.curr.mousebuttons)

	return i
}

// CanvasCursor is the cursor in framebuffer pixels, origin top left. On scaled
// displays window and framebuffer sizes differ.
func (i *input) CanvasCursor() mgl32.Vec2 {
	return mgl32.Vec2{
		i.curr.cursorPos.X() * i.curr.fbScale.X(),
		i.curr.cursorPos.Y() * i.curr.fbScale.Y(),
	}
}

func (i *input) CursorMoved() bool {
	return i.curr.cursorPos != i.prev.cursorPos
}

func (i *input) TimeDelta() float32 {
	return i.curr.time - i.prev.time
}

func (i *input) IsKeyDown(key glfw.Key) bool {
	return i.curr.keys[key]
}

func (i *input) IsKeyTap(key glfw.Key) bool {
	return i.curr.keys[key] && !i.prev.keys[key]
}

func (i *input) IsMouseDown(button glfw.MouseButton) bool {
	return i.curr.mousebuttons[button]
}

func (i *input) IsMouseTap(button glfw.MouseButton) bool {
	return i.curr.mousebuttons[button] && !i.prev.mousebuttons[button]
}

func (i *input) Update(win *glfw.Window) {
	keys := i.prev.keys
	mousebuttons := i.prev.mousebuttons
	i.prev = i.curr
	cursorX, cursorY := win.GetCursorPos()

	for key := 32; key <= int(glfw.KeyLast); key++ {
		keys[key] = win.GetKey(glfw.Key(key)) != glfw.Release
	}

	for button := 0; button <= int(glfw.MouseButtonLast); button++ {
		mousebuttons[button] = win.GetMouseButton(glfw.MouseButton(button)) != glfw.Release
	}

	scale := mgl32.Vec2{1, 1}
	winWidth, winHeight := win.GetSize()
	fbWidth, fbHeight := win.GetFramebufferSize()
	if winWidth > 0 && winHeight > 0 {
		scale = mgl32.Vec2{float32(fbWidth) / float32(winWidth), float32(fbHeight) / float32(winHeight)}
	}

	i.curr = inputState{
		time:         float32(glfw.GetTime()),
		cursorPos:    mgl32.Vec2{float32(cursorX), float32(cursorY)},
		fbScale:      scale,
		keys:         keys,
		mousebuttons: mousebuttons,
	}
}
