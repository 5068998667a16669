package libutil_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"sketch-filters/libutil"
)

func TestMaskWeight(t *testing.T) {
	center := mgl32.Vec2{0.5, 0.5}
	assert.Zero(t, libutil.MaskWeight(center, center, 0, 1))
	assert.Zero(t, libutil.MaskWeight(center, center, -1, 1))
	assert.Equal(t, float32(1), libutil.MaskWeight(center, center, 0.1, 1))
	assert.Zero(t, libutil.MaskWeight(mgl32.Vec2{0.9, 0.5}, center, 0.1, 1))

	// the horizontal distance is scaled by the aspect
	uv := mgl32.Vec2{0.56, 0.5}
	assert.Equal(t, float32(1), libutil.MaskWeight(uv, center, 0.1, 1))
	assert.Zero(t, libutil.MaskWeight(uv, center, 0.1, 2))
}

func TestSmoothstep(t *testing.T) {
	assert.Zero(t, libutil.Smoothstep(0, 1, -1))
	assert.Equal(t, float32(1), libutil.Smoothstep(0, 1, 2))
	assert.InDelta(t, 0.5, libutil.Smoothstep(0, 1, 0.5), 1e-6)
	assert.Equal(t, float32(1), libutil.Smoothstep(0.5, 0.5, 0.5))
	assert.Zero(t, libutil.Smoothstep(0.5, 0.5, 0.4))
}

func TestHash2(t *testing.T) {
	for _, p := range []mgl32.Vec2{{0, 0}, {1, 2}, {-17, 300}, {1024.5, 3.25}} {
		h := libutil.Hash2(p)
		assert.Equal(t, h, libutil.Hash2(p))
		for _, v := range h {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.Less(t, v, float32(1))
		}
	}
}

func TestHsl2rgb(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, libutil.Hsl2rgb(mgl32.Vec3{0.3, 0, 0.5}))
	red := libutil.Hsl2rgb(mgl32.Vec3{0, 1, 0.5})
	assert.InDelta(t, 1, red[0], 1e-6)
	assert.InDelta(t, 0, red[1], 1e-6)
	assert.InDelta(t, 0, red[2], 1e-6)
}

func TestClampI(t *testing.T) {
	assert.Equal(t, 0, libutil.ClampI(-3, 0, 9))
	assert.Equal(t, 9, libutil.ClampI(12, 0, 9))
	assert.Equal(t, 4, libutil.ClampI(4, 0, 9))
}
