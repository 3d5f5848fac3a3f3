// Package column owns the raw per-variable samples of a chart and their
// domain-to-unit normalization.
package column

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// MaxVariables mirrors the packed-slot ceiling of the renderer.
const MaxVariables = 64

// ErrInvalidInput marks a malformed or mismatched dataset.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which variable made the dataset invalid.
type InputError struct {
	Variable string
	Index    int
	Err      error
}

func (e *InputError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("variable %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("variable %d (%q): %v", e.Index, e.Variable, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Variable is one input column.
type Variable struct {
	Name    string
	Ordinal bool
	Values  []float64
}

// Config controls normalization.
type Config struct {
	// IntegerPadding insets the outermost ordinal ticks, as a fraction of
	// half the tick pitch.
	IntegerPadding float64

	// Workers bounds the number of columns normalized concurrently.
	// Zero means GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Store holds the raw samples, one Scale per variable and the unit-mapped
// float32 columns uploaded to the GPU.
type Store struct {
	vars    []Variable
	scales  []*Scale
	unit    [][]float32
	samples int
}

// Build validates vars and normalizes every column.
func Build(ctx context.Context, vars []Variable, cfg Config) (*Store, error) {
	if err := validate(vars); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		vars:    vars,
		scales:  make([]*Scale, len(vars)),
		unit:    make([][]float32, len(vars)),
		samples: len(vars[0].Values),
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range vars {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.scales[i], s.unit[i] = normalize(&vars[i], cfg.IntegerPadding)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalize columns: %w", err)
	}

	logger.Debug("column store built", "variables", len(vars), "samples", s.samples)
	return s, nil
}

func validate(vars []Variable) error {
	if len(vars) == 0 {
		return fmt.Errorf("%w: no variables", ErrInvalidInput)
	}
	if len(vars) > MaxVariables {
		return fmt.Errorf("%w: %d variables exceeds the maximum of %d",
			ErrInvalidInput, len(vars), MaxVariables)
	}

	var err error
	n := len(vars[0].Values)
	for i := range vars {
		v := &vars[i]
		switch {
		case len(v.Values) == 0:
			err = multierr.Append(err, inputErr(v, i, "no samples"))
			continue
		case len(v.Values) != n:
			err = multierr.Append(err, inputErr(v, i,
				fmt.Sprintf("has %d samples, want %d", len(v.Values), n)))
			continue
		}
		for j, x := range v.Values {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				err = multierr.Append(err, inputErr(v, i, fmt.Sprintf("sample %d is not finite", j)))
				break
			}
			if v.Ordinal && x != math.Trunc(x) {
				err = multierr.Append(err, inputErr(v, i, fmt.Sprintf("ordinal sample %d is not an integer", j)))
				break
			}
		}
	}
	return err
}

func inputErr(v *Variable, i int, msg string) error {
	return &InputError{Variable: v.Name, Index: i, Err: fmt.Errorf("%w: %s", ErrInvalidInput, msg)}
}

func normalize(v *Variable, padding float64) (*Scale, []float32) {
	var sc *Scale
	if v.Ordinal {
		sc = NewOrdinal(v.Values, padding)
	} else {
		lo, hi := v.Values[0], v.Values[0]
		for _, x := range v.Values[1:] {
			lo = min(lo, x)
			hi = max(hi, x)
		}
		sc = NewLinear(lo, hi)
	}
	out := make([]float32, len(v.Values))
	for j, x := range v.Values {
		out[j] = float32(sc.Unit(x))
	}
	return sc, out
}

// Len returns the number of variables.
func (s *Store) Len() int { return len(s.vars) }

// SampleCount returns the number of samples shared by every variable.
func (s *Store) SampleCount() int { return s.samples }

// Name returns the name of variable i.
func (s *Store) Name(i int) string { return s.vars[i].Name }

// Scale returns the scale of variable i.
func (s *Store) Scale(i int) *Scale { return s.scales[i] }

// Raw returns the raw samples of variable i.
func (s *Store) Raw(i int) []float64 { return s.vars[i].Values }

// Unit returns the unit-mapped samples of variable i.
func (s *Store) Unit(i int) []float32 { return s.unit[i] }

// Columns returns all unit-mapped columns in variable order.
func (s *Store) Columns() [][]float32 { return s.unit }

// Row writes the unit values of one sample into dst, reusing its storage.
func (s *Store) Row(sample int, dst []float32) []float32 {
	dst = dst[:0]
	for _, col := range s.unit {
		dst = append(dst, col[sample])
	}
	return dst
}
