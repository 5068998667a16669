package gpu_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/gpu"
)

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}

func TestUnitAllocatorSkipsInputUnit(t *testing.T) {
	ua := gpu.NewUnitAllocator(8)
	assert.Equal(t, gpu.InputUnit+1, ua.One())
	assert.Equal(t, []int{2, 3, 4}, ua.Reserve(3))
	assert.Equal(t, 5, ua.Used())
	assert.Nil(t, ua.Reserve(0))
}

func TestUnitAllocatorExhaustion(t *testing.T) {
	ua := gpu.NewUnitAllocator(4)
	ua.Reserve(3)

	err := recoverError(func() { ua.One() })
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrUnitsExceed))
	assert.Equal(t, 4, ua.Used(), "a failed reservation must not consume units")
}

func TestMustHandle(t *testing.T) {
	assert.Equal(t, gpu.Handle(3), gpu.MustHandle(3, "texture"))

	err := recoverError(func() { gpu.MustHandle(gpu.None, "texture") })
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrNilHandle))
	assert.Contains(t, err.Error(), "texture")
}

func TestPrimitiveString(t *testing.T) {
	assert.Equal(t, "TRIANGLE_FAN", gpu.TriangleFan.String())
	assert.Equal(t, "UNKNOWN", gpu.Primitive(42).String())
}

func TestUnitAllocatorShared(t *testing.T) {
	ua := gpu.NewUnitAllocator(8)
	assert.Equal(t, 1, ua.One())
	assert.Equal(t, []int{6, 7}, ua.Shared(2))
	assert.Equal(t, []int{5, 6, 7}, ua.Shared(3))
	assert.Equal(t, []int{7}, ua.Shared(1))
	assert.Equal(t, 3, ua.SharedCount())
	assert.Nil(t, ua.Shared(0))

	// reservations stay below the shared range
	assert.Equal(t, []int{2, 3, 4}, ua.Reserve(3))
	err := recoverError(func() { ua.One() })
	assert.True(t, errors.Is(err, gpu.ErrUnitsExceed))

	err = recoverError(func() { ua.Shared(4) })
	assert.True(t, errors.Is(err, gpu.ErrUnitsExceed))
	assert.Equal(t, 3, ua.SharedCount(), "a failed share must not grow the range")
}
