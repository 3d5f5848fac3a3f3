package parcoords

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Duration is a TOML wrapper type for time.Duration.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a duration string such as "16ms".
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration for TOML encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the tunables of a chart. Lengths are in layout pixels
// unless noted.
type Config struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	// PixelRatio converts layout pixels to render-target pixels.
	PixelRatio float64 `toml:"pixel-ratio"`

	// RefreshInterval is the host's display refresh period.
	RefreshInterval Duration `toml:"refresh-interval"`

	// TimeBudgetMultiplier scales RefreshInterval into the draw budget of
	// one scheduler turn.
	TimeBudgetMultiplier float64 `toml:"time-budget-multiplier"`

	// BlockLines is the minimum number of lines drawn per scheduler
	// increment.
	BlockLines int `toml:"block-lines"`

	// Palette lists hex colour stops of the 256-entry line ramp. Empty
	// selects the default ramp.
	Palette []string `toml:"palette"`

	// ColorMin and ColorMax clamp the colour variable, in its domain
	// units, before it is spread over the ramp. Both zero means the
	// variable's extent.
	ColorMin float64 `toml:"color-min"`
	ColorMax float64 `toml:"color-max"`

	ContextColor   string  `toml:"context-color"`
	ContextOpacity float64 `toml:"context-opacity"`
	Background     string  `toml:"background"`

	HorizontalPadding float64 `toml:"horizontal-padding"`
	VerticalPadding   float64 `toml:"vertical-padding"`

	// IntegerPadding insets the outermost ordinal ticks, as a fraction of
	// half the tick pitch.
	IntegerPadding float64 `toml:"integer-padding"`

	Overdrag          float64 `toml:"overdrag"`
	BrushCaptureWidth float64 `toml:"brush-capture-width"`
	BrushVisibleWidth float64 `toml:"brush-visible-width"`
	HandleHeight      float64 `toml:"handle-height"`
	HandleOverlap     float64 `toml:"handle-overlap"`

	// Scatter is the vertical jitter spread of every line at every axis, in
	// layout pixels. Zero disables it.
	Scatter float64 `toml:"scatter"`

	// OrdinalSnapMargin widens a brush that snapped onto one ordinal tick.
	OrdinalSnapMargin float64 `toml:"ordinal-snap-margin"`
}

// DefaultConfig returns the default chart configuration.
func DefaultConfig() Config {
	return Config{
		Width:                800,
		Height:               400,
		PixelRatio:           1,
		RefreshInterval:      Duration(time.Second / 60),
		TimeBudgetMultiplier: 1,
		BlockLines:           5000,
		ContextColor:         "#777777",
		ContextOpacity:       0.1,
		Background:           "#ffffff",
		HorizontalPadding:    80,
		VerticalPadding:      2,
		IntegerPadding:       1,
		Overdrag:             45,
		BrushCaptureWidth:    10,
		BrushVisibleWidth:    4,
		HandleHeight:         16,
		HandleOverlap:        0,
		OrdinalSnapMargin:    0.05,
	}
}

// LoadConfig reads a TOML file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	bs, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if _, err := toml.Decode(string(bs), &c); err != nil {
		return c, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return c, c.Validate()
}

// Validate returns an error if the config is invalid. All problems are
// reported together.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}
	check(c.Width > 0 && c.Height > 0, "size must be positive, got %vx%v", c.Width, c.Height)
	check(c.PixelRatio > 0, "pixel-ratio must be positive")
	check(c.RefreshInterval > 0, "refresh-interval must be positive")
	check(c.TimeBudgetMultiplier > 0, "time-budget-multiplier must be positive")
	check(c.BlockLines > 0, "block-lines must be positive")
	check(c.ContextOpacity >= 0 && c.ContextOpacity <= 1, "context-opacity must be in [0, 1]")
	check(c.IntegerPadding >= 0 && c.IntegerPadding <= 1, "integer-padding must be in [0, 1]")
	check(c.ColorMin <= c.ColorMax, "color-min must not exceed color-max")
	check(c.Overdrag >= 0, "overdrag must not be negative")
	check(c.BrushCaptureWidth > 0, "brush-capture-width must be positive")
	check(c.BrushVisibleWidth >= 0, "brush-visible-width must not be negative")
	check(c.HandleHeight >= 0 && c.HandleOverlap >= 0, "handle sizes must not be negative")
	check(c.HorizontalPadding >= 0 && c.VerticalPadding >= 0, "padding must not be negative")
	check(c.Scatter >= 0, "scatter must not be negative")
	check(c.OrdinalSnapMargin > 0 && c.OrdinalSnapMargin < 0.5, "ordinal-snap-margin must be in (0, 0.5)")
	check(c.Height > 2*c.VerticalPadding+c.HandleHeight, "height leaves no room for the plot")
	for _, s := range append([]string{c.ContextColor, c.Background}, c.Palette...) {
		if _, perr := ParseHex(s); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
