// Package vertex decodes interleaved vertex attribute buffers and polygon
// index buffers into renderer-ready arrays.
package vertex

import "github.com/Faultbox/trinity-viewer/pkg/formats"

// ElementType is the scalar type of one encoded component.
type ElementType int

const (
	ElemNone ElementType = iota
	ElemUint8
	ElemUint16
	ElemUint32
	ElemInt32
	ElemFloat16
	ElemFloat32
)

// Size returns the element width in bytes.
func (e ElementType) Size() int {
	switch e {
	case ElemUint8:
		return 1
	case ElemUint16, ElemFloat16:
		return 2
	case ElemUint32, ElemInt32, ElemFloat32:
		return 4
	default:
		return 0
	}
}

// String returns the element type name.
func (e ElementType) String() string {
	switch e {
	case ElemUint8:
		return "uint8"
	case ElemUint16:
		return "uint16"
	case ElemUint32:
		return "uint32"
	case ElemInt32:
		return "int32"
	case ElemFloat16:
		return "float16"
	case ElemFloat32:
		return "float32"
	default:
		return "none"
	}
}

// Encoding describes how one attribute value is laid out in a buffer.
type Encoding struct {
	Components int
	Element    ElementType
	Normalized bool // Integer components are mapped to [0,1]
}

// Size returns the encoded byte size of one value.
func (e Encoding) Size() int {
	return e.Components * e.Element.Size()
}

// unknownEncoding decodes to four zero components.
var unknownEncoding = Encoding{Components: 4}

var catalog = map[formats.VertexFormat]Encoding{
	formats.FormatRGBA8Unorm:    {Components: 4, Element: ElemUint8, Normalized: true},
	formats.FormatRGBA8Unsigned: {Components: 4, Element: ElemUint8},
	formats.FormatR32Uint:       {Components: 1, Element: ElemUint32},
	formats.FormatR32Int:        {Components: 1, Element: ElemInt32},
	formats.FormatRGBA16Unorm:   {Components: 4, Element: ElemUint16, Normalized: true},
	formats.FormatRGBA16Float:   {Components: 4, Element: ElemFloat16},
	formats.FormatRG32Float:     {Components: 2, Element: ElemFloat32},
	formats.FormatRGB32Float:    {Components: 3, Element: ElemFloat32},
	formats.FormatRGBA32Float:   {Components: 4, Element: ElemFloat32},
}

// Lookup returns the encoding for a format tag. Unknown tags report false
// and return the zero-filling four-component encoding.
func Lookup(f formats.VertexFormat) (Encoding, bool) {
	e, ok := catalog[f]
	if !ok {
		return unknownEncoding, false
	}
	return e, true
}

// Formats returns every known format tag.
func Formats() []formats.VertexFormat {
	out := make([]formats.VertexFormat, 0, len(catalog))
	for f := range catalog {
		out = append(out, f)
	}
	return out
}
