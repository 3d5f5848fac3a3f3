package filter

// Packed layout shared by the geometry encoder, the uniform writer and the
// line shader. The shader declares `array<mat4x4<f32>, MaxGroups>` for
// every packed quantity, so changing these constants means recompiling the
// shader program; the layout is not data driven.
const (
	// MaxVariables is the number of packed slots, the hard ceiling on the
	// number of variables in one chart.
	MaxVariables = 64

	// GroupSize is the number of slots per group (one mat4x4).
	GroupSize = 16

	// VecSize is the number of slots per vec4.
	VecSize = 4

	// MaxGroups is the number of groups: ceil(MaxVariables / GroupSize).
	MaxGroups = (MaxVariables + GroupSize - 1) / GroupSize

	// VecsPerGroup is the number of vec4 columns per group.
	VecsPerGroup = GroupSize / VecSize

	// UnusedValue fills the value slots of variables that do not exist so
	// they always pass the permissive sentinel bounds.
	UnusedValue = 0.5
)

// Mat4 is one group of 16 slots laid out as four vec4 columns, the memory
// order of a WGSL mat4x4<f32>.
type Mat4 [VecsPerGroup][VecSize]float32

// Block is a full 64-slot packed vector.
type Block [MaxGroups]Mat4

// Slot returns the group, vec4 and component of slot i.
func Slot(i int) (group, vec, comp int) {
	return i / GroupSize, (i % GroupSize) / VecSize, i % VecSize
}

// Get returns slot i.
func (b *Block) Get(i int) float32 {
	g, v, c := Slot(i)
	return b[g][v][c]
}

// Put stores slot i.
func (b *Block) Put(i int, x float32) {
	g, v, c := Slot(i)
	b[g][v][c] = x
}

// OneHot returns a block with 1 in slot i and 0 elsewhere. The shader uses
// dot products with one-hot blocks to pick a panel's left and right
// variable out of the packed vertex.
func OneHot(i int) Block {
	var b Block
	b.Put(i, 1)
	return b
}

// Matrix is the packed filter: low and high bound per slot.
type Matrix struct {
	Lo, Hi Block
}

// Permissive returns a matrix in which every slot passes everything,
// including the Epsilon slack. It is used for unused slots and for the
// unfiltered context layer.
func Permissive() Matrix {
	var m Matrix
	for i := 0; i < MaxVariables; i++ {
		m.Set(i, -Epsilon, 1+Epsilon)
	}
	return m
}

// Set stores the bounds for slot i.
func (m *Matrix) Set(i int, lo, hi float32) {
	m.Lo.Put(i, lo)
	m.Hi.Put(i, hi)
}

// Bounds returns the bounds stored for slot i.
func (m *Matrix) Bounds(i int) (lo, hi float32) {
	return m.Lo.Get(i), m.Hi.Get(i)
}

// Visible is the CPU mirror of the shader's visibility rule: every slot's
// value must lie within [lo-Epsilon, hi+Epsilon].
func (m *Matrix) Visible(values *Block) bool {
	const eps = float32(Epsilon)
	for g := 0; g < MaxGroups; g++ {
		for v := 0; v < VecsPerGroup; v++ {
			for c := 0; c < VecSize; c++ {
				x := values[g][v][c]
				if x < m.Lo[g][v][c]-eps || x > m.Hi[g][v][c]+eps {
					return false
				}
			}
		}
	}
	return true
}
