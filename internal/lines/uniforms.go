package lines

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/parcoords/internal/filter"
)

// blockBytes is the size of one array<mat4x4<f32>, 4>.
const blockBytes = filter.MaxGroups * 16 * 4

// panelUniformSize is the byte size of the Panel uniform struct.
// Layout:
//
//	sel_left      array<mat4x4<f32>, 4> = 256 bytes (offset 0)
//	sel_right     array<mat4x4<f32>, 4> = 256 bytes (offset 256)
//	lo            array<mat4x4<f32>, 4> = 256 bytes (offset 512)
//	hi            array<mat4x4<f32>, 4> = 256 bytes (offset 768)
//	band          vec4<f32>             = 16 bytes  (offset 1024)
//	canvas        vec4<f32>             = 16 bytes  (offset 1040)
//	context_color vec4<f32>             = 16 bytes  (offset 1056)
//
// Total = 1072 bytes.
const panelUniformSize = 4*blockBytes + 3*16

// uniformAlignment is the minimum uniform buffer offset alignment
// guaranteed by WebGPU limits.
const uniformAlignment = 256

// panelStride is the distance between consecutive panel records in the
// shared uniform buffer.
const panelStride = (panelUniformSize + uniformAlignment - 1) / uniformAlignment * uniformAlignment

// maxPanels is the number of panels the uniform buffer holds.
const maxPanels = filter.MaxVariables - 1

// panelUniforms is the CPU-side copy of one Panel record.
type panelUniforms struct {
	left, right filter.Block
	filters     filter.Matrix
	band        [4]float32
	canvas      [4]float32
	context     [4]float32
}

// encode writes u into buf, which must hold panelUniformSize bytes.
func (u *panelUniforms) encode(buf []byte) {
	off := putBlock(buf, 0, &u.left)
	off = putBlock(buf, off, &u.right)
	off = putBlock(buf, off, &u.filters.Lo)
	off = putBlock(buf, off, &u.filters.Hi)
	off = putVec4(buf, off, u.band)
	off = putVec4(buf, off, u.canvas)
	putVec4(buf, off, u.context)
}

func putBlock(buf []byte, off int, b *filter.Block) int {
	for g := range b {
		for v := range b[g] {
			for c := range b[g][v] {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(b[g][v][c]))
				off += 4
			}
		}
	}
	return off
}

func putVec4(buf []byte, off int, v [4]float32) int {
	for _, f := range v {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	return off
}
