package filters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/filters"
	"sketch-filters/gpu"
)

func ids(cmds []filters.Command) []string {
	out := make([]string, len(cmds))
	for i, cmd := range cmds {
		out[i] = cmd.ID()
	}
	return out
}

func newStack() *filters.Stack {
	s := filters.NewStack(gpu.NewUnitAllocator(16))
	s.MustRegister(filters.NewBlur(), filters.NewContrast(), filters.NewSpray(), filters.NewVoronoi())
	return s
}

func TestStackRegister(t *testing.T) {
	s := newStack()
	assert.Equal(t, []string{"blur", "contrast", "spray", "voronoi"}, ids(s.Commands()))

	err := s.Register(filters.NewBlur())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blur")
	assert.Len(t, s.Commands(), 4)

	cmd, ok := s.Get("spray")
	require.True(t, ok)
	assert.Equal(t, filters.ModeSpray, cmd.(filters.Simple).Mode())
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStackUniformNames(t *testing.T) {
	names := newStack().UniformNames()
	assert.Equal(t, []string{filters.FilterMode, filters.MainTex}, names[:2])
	assert.ElementsMatch(t, []string{
		filters.FilterMode, filters.MainTex,
		"uBlurSigma", "uContrastGamma", "uSpraySpread", "uSprayMixRatio",
		"uVoronoiSiteCount", "uVoronoiMixRatio",
	}, names)
}

func TestStackActivation(t *testing.T) {
	s := newStack()
	s.Activate("voronoi", filters.Before)
	s.Activate("blur", filters.Before)
	s.Activate("blur", filters.Before)
	s.Activate("contrast", filters.After)
	s.Activate("missing", filters.After)

	// registration order, not activation order
	assert.Equal(t, []string{"blur", "voronoi"}, ids(s.ActiveBefore()))
	assert.Equal(t, []string{"contrast"}, ids(s.ActiveAfter()))
	assert.True(t, s.IsActive("blur", filters.Before))
	assert.False(t, s.IsActive("blur", filters.After))
	assert.False(t, s.IsActive("missing", filters.After))

	s.Deactivate("blur", filters.Before)
	s.Deactivate("blur", filters.Before)
	assert.Equal(t, []string{"voronoi"}, ids(s.ActiveBefore()))

	s.Clear()
	assert.Empty(t, s.ActiveBefore())
	assert.Empty(t, s.ActiveAfter())
}

func TestStackActivateBothPhases(t *testing.T) {
	s := newStack()
	s.Activate("spray", filters.Before)
	s.Activate("spray", filters.After)
	assert.Equal(t, []string{"spray"}, ids(s.ActiveBefore()))
	assert.Equal(t, []string{"spray"}, ids(s.ActiveAfter()))

	s.Deactivate("spray", filters.After)
	assert.True(t, s.IsActive("spray", filters.Before))
}

func TestParsePhase(t *testing.T) {
	p, err := filters.ParsePhase("After")
	require.NoError(t, err)
	assert.Equal(t, filters.After, p)
	assert.Equal(t, "before", filters.Before.String())

	_, err = filters.ParsePhase("during")
	assert.Error(t, err)
}
