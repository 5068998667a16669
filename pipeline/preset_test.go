package pipeline_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/filters"
	"sketch-filters/pipeline"
)

const testPreset = `
main = "mosaic"
before = ["spray", "blur"]
after = ["contrast"]

[mask]
radius = 0.3

[params.spray]
spread = 12.0

[params.mosaic]
reduce_rate = 8
`

func activeIDs(cmds []filters.Command) []string {
	var out []string
	for _, cmd := range cmds {
		out = append(out, cmd.ID())
	}
	return out
}

func TestParsePreset(t *testing.T) {
	p, err := pipeline.ParsePreset(strings.NewReader(testPreset))
	require.NoError(t, err)
	assert.Equal(t, "mosaic", p.Main)
	assert.Equal(t, []string{"spray", "blur"}, p.Before)
	assert.Equal(t, []string{"contrast"}, p.After)
	assert.Contains(t, p.Params, "spray")
	assert.Contains(t, p.Mask, "radius")

	_, err = pipeline.ParsePreset(strings.NewReader("main = "))
	assert.Error(t, err)
}

func TestApplyPreset(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(60, 40))
	sk.Stack().Activate("voronoi", filters.After)

	p, err := pipeline.ParsePreset(strings.NewReader(testPreset))
	require.NoError(t, err)
	require.NoError(t, sk.ApplyPreset(p))

	assert.Equal(t, "mosaic", sk.Main())
	assert.Equal(t, []string{"blur", "spray"}, activeIDs(sk.Stack().ActiveBefore()))
	assert.Equal(t, []string{"contrast"}, activeIDs(sk.Stack().ActiveAfter()))

	spray, _ := sk.Stack().Get("spray")
	assert.Equal(t, filters.SprayParams{Spread: 12, MixRatio: 0.5}, spray.(*filters.Spray).Parameters())
	mosaic, _ := sk.Stack().Get("mosaic")
	assert.Equal(t, int32(8), mosaic.(*filters.Mosaic).Parameters().ReduceRate)
	assert.InDelta(t, 0.3, sk.Mask().Parameters().Radius, 1e-6)
	assert.Equal(t, [2]float32{0.5, 0.5}, sk.Mask().Parameters().Center)
}

func TestApplyPresetUnknownFilter(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(16, 16))
	sk.Stack().Activate("blur", filters.Before)

	err := sk.ApplyPreset(pipeline.Preset{
		Main:   "fog",
		After:  []string{"contrast", "haze"},
		Params: map[string]map[string]any{"smear": {"x": 1.0}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrUnknownFilter))
	for _, id := range []string{"fog", "haze", "smear"} {
		assert.Contains(t, err.Error(), id)
	}

	// nothing changed
	assert.Equal(t, pipeline.DefaultMain, sk.Main())
	assert.True(t, sk.Stack().IsActive("blur", filters.Before))
	assert.False(t, sk.Stack().IsActive("contrast", filters.After))
}

func TestCurrentPresetRoundTrip(t *testing.T) {
	a, _ := newSketch(t, pipeline.Options{}, testImage(20, 20))
	p, err := pipeline.ParsePreset(strings.NewReader(testPreset))
	require.NoError(t, err)
	require.NoError(t, a.ApplyPreset(p))

	saved, err := a.CurrentPreset()
	require.NoError(t, err)
	assert.Len(t, saved.Params, len(a.Stack().Commands()))

	path := filepath.Join(t.TempDir(), "preset.toml")
	var buf bytes.Buffer
	require.NoError(t, saved.Write(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	loaded, err := pipeline.LoadPreset(path)
	require.NoError(t, err)
	b, _ := newSketch(t, pipeline.Options{}, testImage(20, 20))
	require.NoError(t, b.ApplyPreset(loaded))

	restored, err := b.CurrentPreset()
	require.NoError(t, err)
	assert.Equal(t, saved, restored)
	assert.Equal(t, a.Snapshot().Image.Pix, b.Snapshot().Image.Pix)
}

func TestApplyPresetBeforeStart(t *testing.T) {
	sk := pipeline.New(nil, pipeline.Options{})
	assert.Error(t, sk.ApplyPreset(pipeline.Preset{}))
}

func TestLoadPresetMissing(t *testing.T) {
	_, err := pipeline.LoadPreset(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestApplyPresetBadTableChangesNothing(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(16, 16))
	sk.Stack().Activate("blur", filters.Before)
	sk.Mask().SetParameters(func(p *filters.LocalMaskParams) { p.Radius = 0.25 })

	p, err := pipeline.ParsePreset(strings.NewReader(`
main = "mosaic"
after = ["contrast"]

[mask]
radius = 0.7

[params.contrast]
gamma = 2.0

[params.mosaic]
reduce_rate = "x"
`))
	require.NoError(t, err)

	err = sk.ApplyPreset(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mosaic")

	assert.Equal(t, pipeline.DefaultMain, sk.Main())
	assert.True(t, sk.Stack().IsActive("blur", filters.Before))
	assert.False(t, sk.Stack().IsActive("contrast", filters.After))
	assert.InDelta(t, 0.25, sk.Mask().Parameters().Radius, 1e-6)
	contrast, _ := sk.Stack().Get("contrast")
	assert.Equal(t, filters.NewContrast().Parameters(), contrast.(*filters.Contrast).Parameters())
	mosaic, _ := sk.Stack().Get("mosaic")
	assert.Equal(t, int32(12), mosaic.(*filters.Mosaic).Parameters().ReduceRate)
}

func TestApplyPresetBadMaskTable(t *testing.T) {
	sk, _ := newSketch(t, pipeline.Options{}, testImage(16, 16))
	err := sk.ApplyPreset(pipeline.Preset{
		Main: "mosaic",
		Mask: map[string]any{"radius": "wide"},
	})
	assert.ErrorContains(t, err, "mask")
	assert.Equal(t, pipeline.DefaultMain, sk.Main())
}
