package libgl

import (
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"

	"sketch-filters/gpu"
	"sketch-filters/libutil"
)

func glPrimitive(p gpu.Primitive) uint32 {
	switch p {
	case gpu.Triangles:
		return gl.TRIANGLES
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.TriangleFan:
		return gl.TRIANGLE_FAN
	}
	panic(fmt.Errorf("unknown primitive %d", p))
}

// quad holds the full canvas quad once per primitive layout in a single buffer.
type quad struct {
	vao    UnboundVertexArray
	vbo    UnboundBuffer
	ranges map[gpu.Primitive][2]int32
}

func newQuad() *quad {
	var data []float32
	ranges := map[gpu.Primitive][2]int32{}
	for _, layout := range []struct {
		primitive gpu.Primitive
		vertices  []float32
	}{
		{gpu.TriangleStrip, libutil.QuadStrip},
		{gpu.Triangles, libutil.QuadTriangles},
		{gpu.TriangleFan, libutil.QuadFan},
	} {
		ranges[layout.primitive] = [2]int32{int32(len(data) / 2), int32(len(layout.vertices) / 2)}
		data = append(data, layout.vertices...)
	}

	vbo := NewBuffer()
	vbo.SetDebugLabel("quad")
	vbo.Allocate(data, 0)
	vao := NewVertexArray()
	vao.Layout(0, 0, 2, gl.FLOAT, false, 0)
	vao.BindBuffer(0, vbo, 0, 2*4)
	return &quad{vao: vao, vbo: vbo, ranges: ranges}
}

func (q *quad) Draw(primitive gpu.Primitive) {
	q.vao.Bind()
	r := q.ranges[primitive]
	gl.DrawArrays(glPrimitive(primitive), r[0], r[1])
}

func (q *quad) DrawInstanced(primitive gpu.Primitive, count int) {
	q.vao.Bind()
	r := q.ranges[primitive]
	gl.DrawArraysInstanced(glPrimitive(primitive), r[0], r[1], int32(count))
}

func (q *quad) Delete() {
	q.vao.Delete()
	q.vbo.Delete()
}

type instancedGeometry struct {
	vao           UnboundVertexArray
	vertices      UnboundBuffer
	instances     UnboundBuffer
	vertexCount   int32
	instanceCount int
}

func newInstancedGeometry(vertices []float32, vertexComponents int, instances []float32, instanceComponents int) *instancedGeometry {
	vao := NewVertexArray()

	vbo := NewBuffer()
	vbo.Allocate(vertices, 0)
	vao.Layout(0, 0, vertexComponents, gl.FLOAT, false, 0)
	vao.BindBuffer(0, vbo, 0, vertexComponents*4)

	g := &instancedGeometry{
		vao:         vao,
		vertices:    vbo,
		vertexCount: int32(len(vertices) / vertexComponents),
	}
	if instanceComponents > 0 && len(instances) > 0 {
		ibo := NewBuffer()
		ibo.Allocate(instances, 0)
		vao.Layout(1, 1, instanceComponents, gl.FLOAT, false, 0)
		vao.BindBuffer(1, ibo, 0, instanceComponents*4)
		vao.AttribDivisor(1, 1)
		g.instances = ibo
		g.instanceCount = len(instances) / instanceComponents
	}
	return g
}

func (g *instancedGeometry) Draw(primitive gpu.Primitive) {
	g.vao.Bind()
	gl.DrawArrays(glPrimitive(primitive), 0, g.vertexCount)
}

func (g *instancedGeometry) DrawInstanced(primitive gpu.Primitive, count int) {
	if g.instances != nil {
		count = libutil.MinI(count, g.instanceCount)
	}
	g.vao.Bind()
	gl.DrawArraysInstanced(glPrimitive(primitive), 0, g.vertexCount, int32(count))
}

func (g *instancedGeometry) Delete() {
	g.vao.Delete()
	g.vertices.Delete()
	if g.instances != nil {
		g.instances.Delete()
	}
}
