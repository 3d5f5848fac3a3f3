package column

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUnitEndpoints(t *testing.T) {
	vars := []Variable{
		{Name: "a", Values: []float64{2.5, -2, 7, 5}},
		{Name: "b", Values: []float64{100, 200, 150, 120}},
	}
	s, err := Build(context.Background(), vars, Config{})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 4, s.SampleCount())

	for i := range vars {
		sc := s.Scale(i)
		lo, hi := sc.Extent()
		assert.InDelta(t, 0, sc.Unit(lo), 1e-12, "variable %d min", i)
		assert.InDelta(t, 1, sc.Unit(hi), 1e-12, "variable %d max", i)
	}
	assert.InDeltaSlice(t, []float32{0.5, 0, 1, 7.0 / 9}, s.Unit(0), 1e-6)
}

func TestDegenerateDomainIsWidened(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		lo, hi float64
	}{
		{"positive", 10, 9, 11},
		{"negative", -10, -11, -9},
		{"zero", 0, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(context.Background(), []Variable{
				{Name: "c", Values: []float64{tt.value, tt.value, tt.value}},
			}, Config{})
			require.NoError(t, err)

			sc := s.Scale(0)
			lo, hi := sc.Extent()
			assert.InDelta(t, tt.lo, lo, 1e-12)
			assert.InDelta(t, tt.hi, hi, 1e-12)
			assert.InDelta(t, 0, sc.Unit(lo), 1e-12)
			assert.InDelta(t, 1, sc.Unit(hi), 1e-12)
			assert.InDelta(t, 0.5, s.Unit(0)[0], 1e-6)
		})
	}
}

func TestOrdinalTicks(t *testing.T) {
	s, err := Build(context.Background(), []Variable{
		{Name: "grade", Ordinal: true, Values: []float64{4, 1, 2, 2, 5, 3}},
	}, Config{})
	require.NoError(t, err)

	sc := s.Scale(0)
	require.True(t, sc.Ordinal())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, sc.Levels())
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, sc.Ticks())
	assert.Equal(t, []float32{0.75, 0, 0.25, 0.25, 1, 0.5}, s.Unit(0))
}

func TestOrdinalPadding(t *testing.T) {
	sc := NewOrdinal([]float64{0, 1, 2}, 1)
	ticks := sc.Ticks()
	require.Len(t, ticks, 3)
	assert.InDelta(t, 0.5/3, ticks[0], 1e-12)
	assert.InDelta(t, 0.5, ticks[1], 1e-12)
	assert.InDelta(t, 1-0.5/3, ticks[2], 1e-12)
}

func TestDomainInvertsUnit(t *testing.T) {
	lin := NewLinear(-4, 12)
	ord := NewOrdinal([]float64{10, 20, 40}, 0)
	for _, u := range []float64{0, 0.1, 0.5, 0.9, 1} {
		assert.InDelta(t, u, lin.Unit(lin.Domain(u)), 1e-12)
		assert.InDelta(t, u, ord.Unit(ord.Domain(u)), 1e-12)
	}
	assert.InDelta(t, 30, ord.Domain(0.75), 1e-12)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		vars []Variable
	}{
		{"no variables", nil},
		{"empty column", []Variable{{Name: "a"}}},
		{"length mismatch", []Variable{
			{Name: "a", Values: []float64{1, 2, 3}},
			{Name: "b", Values: []float64{1, 2}},
		}},
		{"nan sample", []Variable{{Name: "a", Values: []float64{1, math.NaN()}}}},
		{"fractional ordinal", []Variable{{Name: "a", Ordinal: true, Values: []float64{1, 1.5}}}},
		{"too many variables", make([]Variable, MaxVariables+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(context.Background(), tt.vars, Config{})
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrInvalidInput), "error %v does not wrap ErrInvalidInput", err)
		})
	}
}

func TestInputErrorNamesVariable(t *testing.T) {
	_, err := Build(context.Background(), []Variable{
		{Name: "a", Values: []float64{1, 2}},
		{Name: "b", Values: []float64{1}},
	}, Config{})
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "b", ie.Variable)
	assert.Equal(t, 1, ie.Index)
}

func TestRowReusesBuffer(t *testing.T) {
	s, err := Build(context.Background(), []Variable{
		{Name: "a", Values: []float64{0, 1}},
		{Name: "b", Values: []float64{1, 0}},
	}, Config{Workers: 1})
	require.NoError(t, err)

	buf := make([]float32, 0, 2)
	row := s.Row(1, buf)
	assert.Equal(t, []float32{1, 0}, row)
}
