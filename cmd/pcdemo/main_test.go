package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/parcoords"
	"github.com/gogpu/parcoords/dataset"
	"github.com/gogpu/parcoords/internal/gputest"
)

func TestGenerated(t *testing.T) {
	tbl, err := generated(50, dataset.Options{})
	require.NoError(t, err)
	ds := tbl.Dataset
	require.Len(t, ds.Variables, 5)
	assert.Equal(t, 2, ds.ColorBy)
	for _, v := range ds.Variables {
		assert.Len(t, v.Values, 50, v.Name)
	}

	_, err = generated(10, dataset.Options{Columns: []string{"weight", "colour"}})
	assert.Error(t, err)
	_, err = generated(0, dataset.Options{})
	assert.Error(t, err)
}

func TestLoadUnsupported(t *testing.T) {
	_, err := load([]string{"data.json"}, dataset.Options{})
	assert.Error(t, err)
}

func TestParseBrush(t *testing.T) {
	tbl, err := generated(20, dataset.Options{})
	require.NoError(t, err)
	c, err := parcoords.NewChart(context.Background(), gputest.New(), tbl.Dataset, parcoords.DefaultConfig())
	require.NoError(t, err)
	defer c.Destroy()

	axis, lo, hi, err := parseBrush(c, "power=100:150.5")
	require.NoError(t, err)
	assert.Equal(t, 1, axis)
	assert.Equal(t, 100.0, lo)
	assert.Equal(t, 150.5, hi)

	for _, bad := range []string{"power", "power=1", "mass=1:2", "power=a:2"} {
		_, _, _, err := parseBrush(c, bad)
		assert.Error(t, err, bad)
	}
}
