package filters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch-filters/filters"
)

func TestSetParametersReturnsPrevious(t *testing.T) {
	spray := filters.NewSpray()
	prev := spray.SetParameters(func(p *filters.SprayParams) {
		p.Spread = 12
	})
	assert.Equal(t, filters.SprayParams{Spread: 36, MixRatio: 0.5}, prev)
	assert.Equal(t, filters.SprayParams{Spread: 12, MixRatio: 0.5}, spray.Parameters())
}

func TestTuneKeepsUnsetFields(t *testing.T) {
	spray := filters.NewSpray()
	err := spray.Tune(func(v any) error {
		v.(*filters.SprayParams).MixRatio = 0.25
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, filters.SprayParams{Spread: 36, MixRatio: 0.25}, spray.Parameters())
}

func TestTuneErrorLeavesParameters(t *testing.T) {
	spray := filters.NewSpray()
	err := spray.Tune(func(v any) error {
		v.(*filters.SprayParams).Spread = 1
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, float32(36), spray.Parameters().Spread)
}

func TestEditParameters(t *testing.T) {
	blur := filters.NewBlur()
	blur.EditParameters(func(params any) {
		params.(*filters.BlurParams).Sigma = 1.5
	})
	assert.Equal(t, filters.BlurParams{Sigma: 1.5}, blur.ParameterValues())
}

func TestFields(t *testing.T) {
	values := filters.CopyParameters(filters.NewVoronoi().ParameterValues())
	fields := filters.Fields(values)
	require.Len(t, fields, 2)

	assert.Equal(t, "SiteCount", fields[0].Name)
	assert.Equal(t, "site_count", fields[0].Key)
	assert.Equal(t, float32(1), fields[0].Min)
	assert.Equal(t, float32(400), fields[0].Max)
	assert.Equal(t, int32(50), fields[0].Value.Interface())

	// fields alias the copy, not the filter
	fields[1].Value.SetFloat(0.1)
	assert.Equal(t, float32(0.1), values.(*filters.VoronoiParams).MixRatio)

	assert.Nil(t, filters.Fields(filters.VoronoiParams{}))
}

func TestFieldsSkipsUntagged(t *testing.T) {
	fields := filters.Fields(&filters.WatercolorParams{})
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"mix_ratio", "sites", "resolution"}, keys)
}
