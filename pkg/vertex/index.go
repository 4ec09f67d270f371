package vertex

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

// Indices holds a decoded index buffer. 8- and 16-bit sources fill U16,
// 32- and 64-bit sources fill U32.
type Indices struct {
	U16 []uint16
	U32 []uint32
}

// Len returns the number of indices.
func (ix Indices) Len() int {
	if ix.U32 != nil {
		return len(ix.U32)
	}
	return len(ix.U16)
}

// At returns index i.
func (ix Indices) At(i int) uint32 {
	if ix.U32 != nil {
		return ix.U32[i]
	}
	return uint32(ix.U16[i])
}

// Uint32 returns all indices widened to uint32.
func (ix Indices) Uint32() []uint32 {
	if ix.U32 != nil {
		return ix.U32
	}
	out := make([]uint32, len(ix.U16))
	for i, v := range ix.U16 {
		out[i] = uint32(v)
	}
	return out
}

// IndexSize returns the byte width of one index for a width tag, or 0 for
// unknown tags.
func IndexSize(w formats.IndexWidth) int {
	switch w {
	case formats.IndexUint8:
		return 1
	case formats.IndexUint16:
		return 2
	case formats.IndexUint32:
		return 4
	case formats.IndexUint64:
		return 8
	default:
		return 0
	}
}

// DecodeIndices reads count little-endian indices starting at byteOffset.
// 64-bit indices keep only their low 32 bits. An unknown width yields an
// empty result without error.
func DecodeIndices(buf []byte, width formats.IndexWidth, byteOffset, count int) (Indices, error) {
	size := IndexSize(width)
	if size == 0 {
		return Indices{}, nil
	}
	if byteOffset < 0 || count < 0 || byteOffset+count*size > len(buf) {
		return Indices{}, errors.Wrapf(ErrOutOfBounds, "%d %s indices at byte %d (buffer is %d bytes)",
			count, width, byteOffset, len(buf))
	}

	b := buf[byteOffset:]
	switch width {
	case formats.IndexUint8:
		out := make([]uint16, count)
		for i := range out {
			out[i] = uint16(b[i])
		}
		return Indices{U16: out}, nil
	case formats.IndexUint16:
		out := make([]uint16, count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		return Indices{U16: out}, nil
	case formats.IndexUint32:
		out := make([]uint32, count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(b[i*4:])
		}
		return Indices{U32: out}, nil
	default:
		out := make([]uint32, count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(b[i*8:])
		}
		return Indices{U32: out}, nil
	}
}

// IndexCount returns how many whole indices a buffer holds.
func IndexCount(bufLen int, width formats.IndexWidth) int {
	size := IndexSize(width)
	if size == 0 {
		return 0
	}
	return bufLen / size
}
