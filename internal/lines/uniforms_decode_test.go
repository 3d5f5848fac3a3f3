package lines

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/parcoords/internal/filter"
)

// decodePanel is the inverse of panelUniforms.encode.
func decodePanel(buf []byte) panelUniforms {
	var u panelUniforms
	off := getBlock(buf, 0, &u.left)
	off = getBlock(buf, off, &u.right)
	off = getBlock(buf, off, &u.filters.Lo)
	off = getBlock(buf, off, &u.filters.Hi)
	off = getVec4(buf, off, &u.band)
	off = getVec4(buf, off, &u.canvas)
	getVec4(buf, off, &u.context)
	return u
}

func getBlock(buf []byte, off int, b *filter.Block) int {
	for g := range b {
		for v := range b[g] {
			for c := range b[g][v] {
				b[g][v][c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
				off += 4
			}
		}
	}
	return off
}

func getVec4(buf []byte, off int, v *[4]float32) int {
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}
	return off
}
