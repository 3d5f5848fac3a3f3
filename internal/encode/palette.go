package encode

import "math"

// PaletteSize is the number of entries in a colour ramp.
const PaletteSize = 256

// Palette is a 256-entry RGBA8 ramp (straight alpha) with the clamp domain
// applied to colour keys before lookup.
type Palette struct {
	Colors [PaletteSize][4]uint8

	// Lo and Hi clamp the colour key before it is spread over the ramp.
	// Keys below Lo take entry 0, keys above Hi the last entry.
	Lo, Hi float32
}

// NewPalette builds a ramp by linear interpolation between evenly spaced
// stops.
func NewPalette(stops [][4]uint8, lo, hi float32) *Palette {
	p := &Palette{Lo: lo, Hi: hi}
	if len(stops) == 0 {
		stops = [][4]uint8{{0, 0, 0, 255}, {255, 255, 255, 255}}
	}
	if len(stops) == 1 {
		for i := range p.Colors {
			p.Colors[i] = stops[0]
		}
		return p
	}
	segs := float32(len(stops) - 1)
	for i := range p.Colors {
		t := float32(i) / (PaletteSize - 1) * segs
		k := int(t)
		if k >= len(stops)-1 {
			k = len(stops) - 2
		}
		f := t - float32(k)
		a, b := stops[k], stops[k+1]
		for c := 0; c < 4; c++ {
			p.Colors[i][c] = uint8(float32(a[c]) + (float32(b[c])-float32(a[c]))*f + 0.5)
		}
	}
	return p
}

// DefaultPalette returns a viridis-like ramp over [0, 1].
func DefaultPalette() *Palette {
	return NewPalette([][4]uint8{
		{68, 1, 84, 255},
		{59, 82, 139, 255},
		{33, 145, 140, 255},
		{94, 201, 98, 255},
		{253, 231, 37, 255},
	}, 0, 1)
}

// Index returns the ramp entry for a colour key.
func (p *Palette) Index(key float32) int {
	span := p.Hi - p.Lo
	var t float32
	if span > 0 {
		t = (key - p.Lo) / span
	}
	if t < 0 || math.IsNaN(float64(t)) {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return int(t*(PaletteSize-1) + 0.5)
}

// Lookup returns the premultiplied colour for a key, packed little-endian
// as R | G<<8 | B<<16 | A<<24 (WGSL unpack4x8unorm order).
func (p *Palette) Lookup(key float32) uint32 {
	return PackPremultiplied(p.Colors[p.Index(key)])
}

// PackPremultiplied premultiplies a straight-alpha colour and packs it.
func PackPremultiplied(c [4]uint8) uint32 {
	a := uint32(c[3])
	r := (uint32(c[0])*a + 127) / 255
	g := (uint32(c[1])*a + 127) / 255
	b := (uint32(c[2])*a + 127) / 255
	return r | g<<8 | b<<16 | a<<24
}
