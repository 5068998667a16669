package softgl

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
)

type geometry struct {
	dev *Device
	// per primitive vertex data; quads carry one layout per primitive
	vertices           map[gpu.Primitive][]float32
	vertexComponents   int
	instances          []float32
	instanceComponents int
}

func (dev *Device) NewQuad() gpu.Geometry {
	return &geometry{
		dev: dev,
		vertices: map[gpu.Primitive][]float32{
			gpu.Triangles:     libutil.QuadTriangles,
			gpu.TriangleStrip: libutil.QuadStrip,
			gpu.TriangleFan:   libutil.QuadFan,
		},
		vertexComponents: 2,
	}
}

func (dev *Device) NewInstancedGeometry(vertices []float32, vertexComponents int, instances []float32, instanceComponents int) gpu.Geometry {
	g := &geometry{
		dev:                dev,
		vertexComponents:   vertexComponents,
		instances:          append([]float32(nil), instances...),
		instanceComponents: instanceComponents,
	}
	data := append([]float32(nil), vertices...)
	g.vertices = map[gpu.Primitive][]float32{
		gpu.Triangles:     data,
		gpu.TriangleStrip: data,
		gpu.TriangleFan:   data,
	}
	return g
}

func (g *geometry) Draw(primitive gpu.Primitive) {
	g.dev.draw(g, primitive, -1)
}

func (g *geometry) DrawInstanced(primitive gpu.Primitive, count int) {
	if g.instanceComponents > 0 {
		count = libutil.MinI(count, len(g.instances)/g.instanceComponents)
	}
	for i := 0; i < count; i++ {
		g.dev.draw(g, primitive, i)
	}
}

func (g *geometry) Delete() {
	g.vertices = nil
	g.instances = nil
}

type clipVertex struct {
	// window position, z in [0,1]
	pos     mgl32.Vec3
	varying mgl32.Vec4
}

// renderTarget is the resolved colour and depth storage of the bound framebuffer.
type renderTarget struct {
	color  []*texture
	depth  *renderbuffer
	width  int
	height int
}

func (dev *Device) resolveTarget() renderTarget {
	if dev.drawTarget == gpu.None {
		return renderTarget{
			color:  []*texture{dev.display},
			depth:  dev.displayDepth,
			width:  dev.display.width,
			height: dev.display.height,
		}
	}
	f := dev.mustFramebuffer(dev.drawTarget)
	rt := renderTarget{width: -1}
	for i := 0; i < f.drawCount; i++ {
		t := dev.mustTexture(f.color[i])
		rt.color = append(rt.color, t)
		if rt.width < 0 {
			rt.width, rt.height = t.width, t.height
		}
	}
	rt.depth = dev.renderbuffers[f.depth]
	return rt
}

func (dev *Device) draw(g *geometry, primitive gpu.Primitive, instance int) {
	prog := dev.current
	if prog == nil {
		panic(gpu.ErrNilProgram)
	}
	data := g.vertices[primitive]
	if data == nil {
		panic(fmt.Errorf("softgl: no vertex data for %v", primitive))
	}
	dev.draws++

	var inst []float32
	if instance >= 0 && g.instanceComponents > 0 {
		inst = g.instances[instance*g.instanceComponents : (instance+1)*g.instanceComponents]
	}

	vw, vh := float32(dev.viewport[0]), float32(dev.viewport[1])
	n := len(data) / g.vertexComponents
	verts := make([]clipVertex, n)
	for i := range verts {
		pos, varying := prog.vertex(Vertex{
			Position: data[i*g.vertexComponents : (i+1)*g.vertexComponents],
			Instance: inst,
		})
		if pos[3] != 0 && pos[3] != 1 {
			pos = pos.Mul(1 / pos[3])
		}
		verts[i] = clipVertex{
			pos: mgl32.Vec3{
				(pos[0] + 1) * 0.5 * vw,
				(pos[1] + 1) * 0.5 * vh,
				(pos[2] + 1) * 0.5,
			},
			varying: varying,
		}
	}

	rt := dev.resolveTarget()
	for _, tri := range assemble(primitive, n) {
		dev.rasterize(prog, rt, verts[tri[0]], verts[tri[1]], verts[tri[2]])
	}
}

func assemble(primitive gpu.Primitive, n int) [][3]int {
	var tris [][3]int
	switch primitive {
	case gpu.Triangles:
		for i := 0; i+2 < n; i += 3 {
			tris = append(tris, [3]int{i, i + 1, i + 2})
		}
	case gpu.TriangleStrip:
		for i := 0; i+2 < n; i++ {
			tris = append(tris, [3]int{i, i + 1, i + 2})
		}
	case gpu.TriangleFan:
		for i := 1; i+1 < n; i++ {
			tris = append(tris, [3]int{0, i, i + 1})
		}
	}
	return tris
}

func edge(a, b mgl32.Vec3, px, py float32) float32 {
	return (b[0]-a[0])*(py-a[1]) - (b[1]-a[1])*(px-a[0])
}

func (dev *Device) rasterize(prog *Program, rt renderTarget, a, b, c clipVertex) {
	area := edge(a.pos, b.pos, c.pos[0], c.pos[1])
	if area == 0 {
		return
	}

	maxX := libutil.MinI(dev.viewport[0], rt.width)
	maxY := libutil.MinI(dev.viewport[1], rt.height)
	x0 := libutil.MaxI(0, int(floor(min3(a.pos[0], b.pos[0], c.pos[0]))))
	y0 := libutil.MaxI(0, int(floor(min3(a.pos[1], b.pos[1], c.pos[1]))))
	x1 := libutil.MinI(maxX-1, int(math32.Ceil(max3(a.pos[0], b.pos[0], c.pos[0]))))
	y1 := libutil.MinI(maxY-1, int(math32.Ceil(max3(a.pos[1], b.pos[1], c.pos[1]))))

	frag := Fragment{prog: prog, resolution: mgl32.Vec2{float32(dev.viewport[0]), float32(dev.viewport[1])}}
	for y := y0; y <= y1; y++ {
		py := float32(y) + 0.5
		for x := x0; x <= x1; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.pos, c.pos, px, py) / area
			w1 := edge(c.pos, a.pos, px, py) / area
			w2 := edge(a.pos, b.pos, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*a.pos[2] + w1*b.pos[2] + w2*c.pos[2]
			var di int
			if dev.depthTest && rt.depth != nil {
				di = y*rt.depth.width + x
				if z >= rt.depth.depth[di] {
					continue
				}
			}

			frag.Coord = mgl32.Vec2{px, py}
			frag.Varying = a.varying.Mul(w0).Add(b.varying.Mul(w1)).Add(c.varying.Mul(w2))
			frag.Out = [gpu.MaxAttachments]mgl32.Vec4{}
			frag.Discard = false
			prog.fragment(&frag)
			if frag.Discard {
				continue
			}

			if dev.depthTest && rt.depth != nil {
				rt.depth.depth[di] = z
			}
			for i, t := range rt.color {
				t.store(x, y, frag.Out[i])
			}
		}
	}
}

func floor(v float32) float32 {
	return math32.Floor(v)
}

func min3(a, b, c float32) float32 {
	return math32.Min(a, math32.Min(b, c))
}

func max3(a, b, c float32) float32 {
	return math32.Max(a, math32.Max(b, c))
}
