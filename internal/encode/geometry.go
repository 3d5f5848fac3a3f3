// Package encode lays out unit-mapped samples into the fixed-width vertex
// and per-sample buffers consumed by the line shader.
//
// Geometry is encoded once per dataset. Filtering and axis reordering only
// change uniforms, so nothing in this package runs on interaction.
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/parcoords/internal/filter"
)

// VertexAttributes is the number of vec4<f32> attributes per vertex: four
// groups of four vec4s, 64 packed slots.
const VertexAttributes = filter.MaxGroups * filter.VecsPerGroup

// VertexStride is the byte stride per vertex.
// Layout per vertex:
//
//	slots  0..3  (vec4<f32>) = 16 bytes (location 0)
//	slots  4..7  (vec4<f32>) = 16 bytes (location 1)
//	...
//	slots 60..63 (vec4<f32>) = 16 bytes (location 15)
//
// Total = 256 bytes per vertex.
const VertexStride = VertexAttributes * 16

// VerticesPerSample is the number of vertices emitted per sample: a left
// and a right endpoint. Even vertex indices are left, odd are right.
const VerticesPerSample = 2

// SampleStride is the byte stride of one per-sample record in the sample
// storage buffer.
// Layout per sample:
//
//	color  (u32, RGBA8 premultiplied) = 4 bytes
//	jitter (f32, in [-0.5, 0.5])      = 4 bytes
//	depth  (f32, in (0, 1))           = 4 bytes
//	pad    (f32)                      = 4 bytes
//
// Total = 16 bytes per sample.
const SampleStride = 16

// Input is the unit-mapped sample matrix plus the per-sample colour key.
type Input struct {
	// Columns holds one unit column per variable, all of equal length.
	Columns [][]float32

	// ColorKey holds the palette position of every sample in [0, 1]. Nil
	// paints every sample with the palette midpoint.
	ColorKey []float32

	// Palette maps ColorKey to colours.
	Palette *Palette

	// Jitter enables per-sample jitter offsets. The pixel amplitude is a
	// render-time uniform; the encoder only stores a normalized offset.
	Jitter bool
}

// Geometry is the encoded dataset.
type Geometry struct {
	Samples   int
	Variables int

	// Vertices is Samples*VerticesPerSample*VertexStride bytes.
	Vertices []byte

	// SampleData is Samples*SampleStride bytes.
	SampleData []byte
}

// VertexCount returns the total number of vertices.
func (g *Geometry) VertexCount() int {
	return g.Samples * VerticesPerSample
}

// Side returns the endpoint flag of a vertex: 0 for left, 1 for right.
func Side(vertex int) int {
	return vertex & 1
}

// Encode packs the input. It fails when the matrix is empty, ragged or
// wider than the packed layout.
func Encode(in Input) (*Geometry, error) {
	nvars := len(in.Columns)
	if nvars == 0 || nvars > filter.MaxVariables {
		return nil, fmt.Errorf("encode: %d variables, want 1..%d", nvars, filter.MaxVariables)
	}
	n := len(in.Columns[0])
	if n == 0 {
		return nil, fmt.Errorf("encode: no samples")
	}
	for i, col := range in.Columns {
		if len(col) != n {
			return nil, fmt.Errorf("encode: column %d has %d samples, want %d", i, len(col), n)
		}
	}
	if in.ColorKey != nil && len(in.ColorKey) != n {
		return nil, fmt.Errorf("encode: color key has %d samples, want %d", len(in.ColorKey), n)
	}
	pal := in.Palette
	if pal == nil {
		pal = DefaultPalette()
	}

	g := &Geometry{
		Samples:    n,
		Variables:  nvars,
		Vertices:   make([]byte, n*VerticesPerSample*VertexStride),
		SampleData: make([]byte, n*SampleStride),
	}

	var block filter.Block
	for s := 0; s < n; s++ {
		fillBlock(&block, in.Columns, s)
		off := s * VerticesPerSample * VertexStride
		writeBlock(g.Vertices[off:off+VertexStride], &block)
		copy(g.Vertices[off+VertexStride:off+2*VertexStride], g.Vertices[off:off+VertexStride])

		key := float32(0.5)
		if in.ColorKey != nil {
			key = clampUnit(in.ColorKey[s])
		}
		var jitter float32
		if in.Jitter {
			jitter = hashJitter(uint32(s)) //nolint:gosec // sample count fits uint32
		}
		writeSample(g.SampleData[s*SampleStride:], pal.Lookup(key), jitter, depthFor(key))
	}
	return g, nil
}

// FillBlock writes the packed values of sample s into b, filling unused
// slots with the neutral value.
func FillBlock(b *filter.Block, columns [][]float32, s int) {
	fillBlock(b, columns, s)
}

func fillBlock(b *filter.Block, columns [][]float32, s int) {
	for i := 0; i < filter.MaxVariables; i++ {
		if i < len(columns) {
			b.Put(i, columns[i][s])
		} else {
			b.Put(i, filter.UnusedValue)
		}
	}
}

// writeBlock serializes a block in slot order, which is also the order of
// the vec4 attributes.
func writeBlock(buf []byte, b *filter.Block) {
	off := 0
	for g := range b {
		for v := range b[g] {
			for c := range b[g][v] {
				binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(b[g][v][c]))
				off += 4
			}
		}
	}
}

func writeSample(buf []byte, color uint32, jitter, depth float32) {
	binary.LittleEndian.PutUint32(buf[0:4], color)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(jitter))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(depth))
	binary.LittleEndian.PutUint32(buf[12:16], 0)
}

// ReadBlock decodes the packed values of vertex v.
func (g *Geometry) ReadBlock(v int, b *filter.Block) {
	buf := g.Vertices[v*VertexStride:]
	off := 0
	for gi := range b {
		for vi := range b[gi] {
			for c := range b[gi][vi] {
				b[gi][vi][c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
				off += 4
			}
		}
	}
}

// SampleColor returns the packed colour of sample s.
func (g *Geometry) SampleColor(s int) uint32 {
	return binary.LittleEndian.Uint32(g.SampleData[s*SampleStride:])
}

// SampleDepth returns the depth key of sample s.
func (g *Geometry) SampleDepth(s int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(g.SampleData[s*SampleStride+8:]))
}

// depthFor maps a palette position onto the visible depth range so that
// lines higher on the ramp draw in front.
func depthFor(key float32) float32 {
	return 0.1 + 0.8*(1-key)
}

// hashJitter returns a deterministic offset in [-0.5, 0.5] for sample s.
func hashJitter(s uint32) float32 {
	x := s*0x9E3779B1 + 0x7F4A7C15
	x ^= x >> 15
	x *= 0x2C1B3C6D
	x ^= x >> 12
	return float32(x)/float32(math.MaxUint32) - 0.5
}

func clampUnit(v float32) float32 {
	if v < 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
