package libutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func MaxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func ClampI(v, lo, hi int) int {
	return MaxI(lo, MinI(v, hi))
}

func Clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}

func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

func MixVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

func Fract(v float32) float32 {
	return v - math32.Floor(v)
}

// Smoothstep follows GLSL but returns a hard step for edge0 >= edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 >= edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func Luminance(c mgl32.Vec4) float32 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

// Hash2 is the usual sin based hash for cell ids; the result is in [0,1)².
func Hash2(p mgl32.Vec2) mgl32.Vec2 {
	q := mgl32.Vec2{
		p.Dot(mgl32.Vec2{127.1, 311.7}),
		p.Dot(mgl32.Vec2{269.5, 183.3}),
	}
	return mgl32.Vec2{
		Fract(math32.Sin(q[0]) * 43758.5453),
		Fract(math32.Sin(q[1]) * 43758.5453),
	}
}

// MaskFeather is the fraction of the radius over which the local mask fades out.
const MaskFeather = 0.2

// MaskWeight is the soft circular mask used to restrict an effect. uv and center are in
// normalized canvas coordinates and aspect is width / height. Radius 0 yields 0
// everywhere.
func MaskWeight(uv, center mgl32.Vec2, radius, aspect float32) float32 {
	if radius <= 0 {
		return 0
	}
	d := uv.Sub(center)
	d[0] *= aspect
	return 1 - Smoothstep(radius*(1-MaskFeather), radius, d.Len())
}

func Hsl2rgb(hsl mgl32.Vec3) mgl32.Vec3 {
	var q, p, r, g, b float32

	h, s, l := hsl[0], hsl[1], hsl[2]

	if s == 0 {
		r, g, b = l, l, l // achromatic
	} else {
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p = 2*l - q
		r = hue2rgb(p, q, h+1./3.)
		g = hue2rgb(p, q, h)
		b = hue2rgb(p, q, h-1./3.)
	}
	return mgl32.Vec3{r, g, b}
}

func hue2rgb(p, q, h float32) float32 {
	if h < 0 {
		h += 1
	} else if h > 1 {
		h -= 1
	}

	if 6*h < 1 {
		return p + ((q - p) * 6 * h)
	}
	if 2*h < 1 {
		return q
	}
	if 3*h < 2 {
		return p + ((q - p) * 6 * ((2. / 3.) - h))
	}

	return p
}
