package vertex

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

// ErrOutOfBounds is returned when a read would run past the end of a buffer.
var ErrOutOfBounds = errors.New("read past end of buffer")

// DecodeAttribute reads vertexCount values of the given format starting at
// byteOffset. A stride of 0 means values are tightly packed. The result holds
// vertexCount * components floats.
//
// Unknown formats decode to four zero components per vertex without error.
func DecodeAttribute(buf []byte, format formats.VertexFormat, byteOffset, stride, vertexCount int) ([]float32, error) {
	enc, known := Lookup(format)
	out := make([]float32, vertexCount*enc.Components)
	if !known || vertexCount == 0 {
		return out, nil
	}

	size := enc.Size()
	if stride == 0 {
		stride = size
	}
	if byteOffset < 0 || stride < 0 {
		return nil, errors.Wrapf(ErrOutOfBounds, "%s: offset %d stride %d", format, byteOffset, stride)
	}

	elem := enc.Element.Size()
	for v := 0; v < vertexCount; v++ {
		start := byteOffset + v*stride
		if start+size > len(buf) {
			return nil, errors.Wrapf(ErrOutOfBounds, "%s vertex %d at byte %d (buffer is %d bytes)",
				format, v, start, len(buf))
		}
		dst := out[v*enc.Components : (v+1)*enc.Components]
		for c := range dst {
			dst[c] = decodeComponent(buf[start+c*elem:], enc)
		}
	}
	return out, nil
}

func decodeComponent(b []byte, enc Encoding) float32 {
	switch enc.Element {
	case ElemUint8:
		if enc.Normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case ElemUint16:
		u := binary.LittleEndian.Uint16(b)
		if enc.Normalized {
			return float32(u) / 65535
		}
		return float32(u)
	case ElemUint32:
		return float32(binary.LittleEndian.Uint32(b))
	case ElemInt32:
		return float32(int32(binary.LittleEndian.Uint32(b)))
	case ElemFloat16:
		return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
	case ElemFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

// VertexStride returns the byte distance between consecutive vertices of a
// vertex buffer: the declared stride, or the extent of its attributes when
// the stride is 0.
func VertexStride(acc formats.VertexAccessors) int {
	if acc.Stride != 0 {
		return int(acc.Stride)
	}
	extent := 0
	for _, a := range acc.Attributes {
		enc, _ := Lookup(a.Format)
		if end := int(a.Offset) + enc.Element.Size()*enc.Components; end > extent {
			extent = end
		}
	}
	return extent
}

// VertexCount returns how many whole vertices a buffer holds.
func VertexCount(bufLen int, acc formats.VertexAccessors) int {
	stride := VertexStride(acc)
	if stride == 0 {
		return 0
	}
	return bufLen / stride
}

// Components reshapes data holding have components per vertex to want
// components per vertex, dropping extra components or padding with zeros.
func Components(data []float32, have, want int) []float32 {
	if have == want || have <= 0 {
		return data
	}
	n := len(data) / have
	out := make([]float32, n*want)
	for i := 0; i < n; i++ {
		copy(out[i*want:(i+1)*want], data[i*have:i*have+min(have, want)])
	}
	return out
}

// Vec3Components returns the xyz part of normal or tangent data that may
// carry a fourth component per vertex. Data that is already 3-wide, or that
// matches neither layout, is returned unchanged.
func Vec3Components(data []float32, vertexCount int) []float32 {
	if vertexCount == 0 || len(data) != vertexCount*4 {
		return data
	}
	out := make([]float32, vertexCount*3)
	for i := 0; i < vertexCount; i++ {
		copy(out[i*3:i*3+3], data[i*4:i*4+3])
	}
	return out
}

// Renormalize scales every xyz triple of v to unit length in place.
// Zero-length triples stay zero.
func Renormalize(v []float32) {
	for i := 0; i+2 < len(v); i += 3 {
		x, y, z := v[i], v[i+1], v[i+2]
		l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
		if l == 0 {
			continue
		}
		v[i], v[i+1], v[i+2] = x/l, y/l, z/l
	}
}
