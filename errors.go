package parcoords

import (
	"errors"
	"fmt"

	"github.com/gogpu/parcoords/internal/column"
	"github.com/gogpu/parcoords/internal/interact"
	"github.com/gogpu/parcoords/internal/lines"
)

var (
	// ErrInvalidInput is returned for a malformed dataset: no variables,
	// more than 64, empty or mismatched columns, non-finite values, or an
	// invalid colour variable, axis order or initial filter. Nothing is
	// rendered.
	ErrInvalidInput = errors.New("parcoords: invalid input")

	// ErrResourceExhaustion is returned when a GPU allocation fails. It is
	// surfaced as is and never retried.
	ErrResourceExhaustion = errors.New("parcoords: GPU resource exhaustion")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("parcoords: invalid config")

	// ErrDestroyed is returned by calls on a destroyed chart.
	ErrDestroyed = errors.New("parcoords: chart destroyed")
)

// InputError names the variable that made a dataset invalid.
type InputError = column.InputError

// wrapErr maps internal sentinel errors onto the public ones while keeping
// the original chain for errors.As.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, column.ErrInvalidInput), errors.Is(err, interact.ErrUnknownVariable),
		errors.Is(err, interact.ErrInvalidOrder):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, lines.ErrResourceExhaustion):
		return fmt.Errorf("%w: %w", ErrResourceExhaustion, err)
	case errors.Is(err, lines.ErrDestroyed):
		return fmt.Errorf("%w: %w", ErrDestroyed, err)
	}
	return err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
