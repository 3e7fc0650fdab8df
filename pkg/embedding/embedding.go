// Package embedding implements the fixed-dimension vector type used for
// similarity search, its little-endian byte codec and cosine similarity.
//
// A Vector is immutable after construction: the Euclidean norm is computed
// once and cached, so nothing may mutate the components afterwards.
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/senselabs/sense/pkg/types"
)

// Dim is the number of float32 components in every vector.
const Dim = 1024

// ByteLen is the encoded size of a vector: Dim little-endian float32s.
const ByteLen = Dim * 4

// Vector is a Dim-dimensional embedding with a cached Euclidean norm.
type Vector struct {
	values [Dim]float32
	norm   float32
}

// Zero returns the all-zero placeholder vector used for unlabeled records.
func Zero() *Vector {
	return &Vector{}
}

// FromFloats builds a vector from exactly Dim float32 values.
func FromFloats(values []float32) (*Vector, error) {
	if len(values) != Dim {
		return nil, fmt.Errorf("%w: got %d floats, want %d", types.ErrDimensionMismatch, len(values), Dim)
	}

	v := &Vector{}
	copy(v.values[:], values)
	v.norm = computeNorm(v.values[:])
	return v, nil
}

// FromBytes decodes a vector from exactly ByteLen bytes of little-endian
// IEEE-754 float32s, the exact inverse of Bytes.
func FromBytes(data []byte) (*Vector, error) {
	if len(data) != ByteLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", types.ErrDimensionMismatch, len(data), ByteLen)
	}

	v := &Vector{}
	for i := 0; i < Dim; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		v.values[i] = math.Float32frombits(bits)
	}
	v.norm = computeNorm(v.values[:])
	return v, nil
}

// Bytes encodes the vector as Dim little-endian float32s in component order.
func (v *Vector) Bytes() []byte {
	out := make([]byte, ByteLen)
	for i, f := range v.values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Values returns a copy of the components.
func (v *Vector) Values() []float32 {
	out := make([]float32, Dim)
	copy(out, v.values[:])
	return out
}

// At returns the i-th component.
func (v *Vector) At(i int) float32 {
	return v.values[i]
}

// Norm returns the cached Euclidean norm.
func (v *Vector) Norm() float32 {
	return v.norm
}

// IsZero reports whether the vector is the zero placeholder. Zero vectors
// carry no direction and must not participate in similarity ranking.
func (v *Vector) IsZero() bool {
	return v.norm == 0
}

// Cosine returns the cosine similarity between v and other:
// dot(v, other) / (norm(v) * norm(other)).
//
// No clamping is applied. If either norm is zero the result is NaN;
// callers must filter zero vectors out of ranking paths.
func (v *Vector) Cosine(other *Vector) float32 {
	var dot float32
	for i := range v.values {
		dot += v.values[i] * other.values[i]
	}
	return dot / (v.norm * other.norm)
}

// Equal reports component-wise float equality. The codec is deterministic,
// so exact equality is meaningful for round-trip checks.
func (v *Vector) Equal(other *Vector) bool {
	return v.values == other.values
}

func computeNorm(values []float32) float32 {
	var sum float32
	for _, f := range values {
		sum += f * f
	}
	return float32(math.Sqrt(float64(sum)))
}
