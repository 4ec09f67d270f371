package formats

import (
	"fmt"

	"github.com/pkg/errors"
)

// AttributeKind identifies what a vertex attribute carries.
type AttributeKind uint32

const (
	AttributeNone         AttributeKind = 0
	AttributePosition     AttributeKind = 1
	AttributeNormal       AttributeKind = 2
	AttributeTangent      AttributeKind = 3
	AttributeBinormal     AttributeKind = 4
	AttributeColor        AttributeKind = 5
	AttributeTexCoord     AttributeKind = 6
	AttributeBlendIndices AttributeKind = 7
	AttributeBlendWeights AttributeKind = 8
)

// String returns a human-readable attribute name.
func (k AttributeKind) String() string {
	switch k {
	case AttributeNone:
		return "None"
	case AttributePosition:
		return "Position"
	case AttributeNormal:
		return "Normal"
	case AttributeTangent:
		return "Tangent"
	case AttributeBinormal:
		return "Binormal"
	case AttributeColor:
		return "Color"
	case AttributeTexCoord:
		return "TexCoord"
	case AttributeBlendIndices:
		return "BlendIndices"
	case AttributeBlendWeights:
		return "BlendWeights"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

// VertexFormat is the numeric encoding tag of a vertex attribute.
type VertexFormat uint32

const (
	FormatNone          VertexFormat = 0
	FormatRGBA8Unorm    VertexFormat = 20
	FormatRGBA8Unsigned VertexFormat = 22
	FormatR32Uint       VertexFormat = 36
	FormatR32Int        VertexFormat = 37
	FormatRGBA16Unorm   VertexFormat = 39
	FormatRGBA16Float   VertexFormat = 43
	FormatRG32Float     VertexFormat = 48
	FormatRGB32Float    VertexFormat = 51
	FormatRGBA32Float   VertexFormat = 54
)

// String returns the format tag name.
func (f VertexFormat) String() string {
	switch f {
	case FormatNone:
		return "NONE"
	case FormatRGBA8Unorm:
		return "RGBA_8_UNORM"
	case FormatRGBA8Unsigned:
		return "RGBA_8_UNSIGNED"
	case FormatR32Uint:
		return "R_32_UINT"
	case FormatR32Int:
		return "R_32_INT"
	case FormatRGBA16Unorm:
		return "RGBA_16_UNORM"
	case FormatRGBA16Float:
		return "RGBA_16_FLOAT"
	case FormatRG32Float:
		return "RG_32_FLOAT"
	case FormatRGB32Float:
		return "RGB_32_FLOAT"
	case FormatRGBA32Float:
		return "RGBA_32_FLOAT"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(f))
	}
}

// IndexWidth is the polygon index element width tag.
type IndexWidth uint32

const (
	IndexUint8  IndexWidth = 0
	IndexUint16 IndexWidth = 1
	IndexUint32 IndexWidth = 2
	IndexUint64 IndexWidth = 3
)

// String returns the width tag name.
func (w IndexWidth) String() string {
	switch w {
	case IndexUint8:
		return "UINT8"
	case IndexUint16:
		return "UINT16"
	case IndexUint32:
		return "UINT32"
	case IndexUint64:
		return "UINT64"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(w))
	}
}

// BoundingBox is an axis-aligned box stored with each shape.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

// VertexAttribute describes one attribute inside an interleaved vertex buffer.
type VertexAttribute struct {
	Kind   AttributeKind
	Layer  uint32 // UV/color set index
	Format VertexFormat
	Offset uint32 // Byte offset inside one vertex
}

// VertexAccessors describes one vertex buffer. Stride 0 means tightly packed.
type VertexAccessors struct {
	Attributes []VertexAttribute
	Stride     uint32
}

// MaterialInfo is a submesh: a range of the index buffer drawn with one material.
type MaterialInfo struct {
	PolygonCount  uint32 // Number of indices
	PolygonOffset uint32 // First index
	MaterialName  string
}

// MeshShape describes one drawable mesh of a shape file.
type MeshShape struct {
	Name       string
	MeshName   string // Path used by visibility tracks
	Bounds     BoundingBox
	IndexWidth IndexWidth
	Accessors  []VertexAccessors // One per vertex buffer
	Materials  []MaterialInfo
}

// MeshShapeFile is a parsed .trmsh file.
//
//	struct BoundingBox { min: Vec3; max: Vec3; }
//	table VertexAttribute { attribute: uint; layer: uint; format: uint; offset: uint; }
//	table VertexAccessors { attributes: [VertexAttribute]; stride: uint; }
//	table MaterialInfo { polygon_count: uint; polygon_offset: uint; material_name: string; }
//	table MeshShape {
//	  name: string; bounds: BoundingBox; polygon_type: uint;
//	  accessors: [VertexAccessors]; materials: [MaterialInfo]; mesh_name: string;
//	}
//	table MeshShapeFile { shapes: [MeshShape]; buffer_file: string; }
type MeshShapeFile struct {
	Shapes     []MeshShape
	BufferFile string
}

// ParseMeshShape parses .trmsh data.
func ParseMeshShape(data []byte) (*MeshShapeFile, error) {
	return parseRoot(data, "mesh shape", func(root table) (*MeshShapeFile, error) {
		f := &MeshShapeFile{BufferFile: root.str(1)}
		for _, st := range root.vecTables(0) {
			f.Shapes = append(f.Shapes, parseMeshShape(st))
		}
		return f, nil
	})
}

func parseMeshShape(t table) MeshShape {
	s := MeshShape{
		Name:       t.str(0),
		IndexWidth: IndexWidth(t.uint32(2, 0)),
		MeshName:   t.str(5),
	}
	if pos, ok := t.structPos(1); ok {
		s.Bounds.Min = t.vec3At(pos)
		s.Bounds.Max = t.vec3At(pos + 12)
	}

	for _, at := range t.vecTables(3) {
		acc := VertexAccessors{Stride: at.uint32(1, 0)}
		for _, attr := range at.vecTables(0) {
			acc.Attributes = append(acc.Attributes, VertexAttribute{
				Kind:   AttributeKind(attr.uint32(0, 0)),
				Layer:  attr.uint32(1, 0),
				Format: VertexFormat(attr.uint32(2, 0)),
				Offset: attr.uint32(3, 0),
			})
		}
		s.Accessors = append(s.Accessors, acc)
	}

	for _, mt := range t.vecTables(4) {
		s.Materials = append(s.Materials, MaterialInfo{
			PolygonCount:  mt.uint32(0, 0),
			PolygonOffset: mt.uint32(1, 0),
			MaterialName:  mt.str(2),
		})
	}
	return s
}

// ParseMeshShapeFile parses a .trmsh file from disk.
func ParseMeshShapeFile(path string) (*MeshShapeFile, error) {
	data, err := readFile(path, "mesh shape")
	if err != nil {
		return nil, err
	}
	return ParseMeshShape(data)
}

// MeshBuffer holds the raw buffers of one shape. Slices alias the file data.
type MeshBuffer struct {
	IndexBuffers  [][]byte // One per LOD; LOD 0 first
	VertexBuffers [][]byte // Parallel to MeshShape.Accessors
}

// BufferFile is a parsed .trmbf file; Buffers are parallel to MeshShapeFile.Shapes.
//
//	table ByteBuffer { data: [ubyte]; }
//	table MeshBuffer { index_buffers: [ByteBuffer]; vertex_buffers: [ByteBuffer]; }
//	table BufferFile { buffers: [MeshBuffer]; }
type BufferFile struct {
	Buffers []MeshBuffer
}

// ParseMeshBuffer parses .trmbf data.
func ParseMeshBuffer(data []byte) (*BufferFile, error) {
	return parseRoot(data, "mesh buffer", func(root table) (*BufferFile, error) {
		f := &BufferFile{}
		for _, bt := range root.vecTables(0) {
			var mb MeshBuffer
			for _, ib := range bt.vecTables(0) {
				mb.IndexBuffers = append(mb.IndexBuffers, ib.bytes(0))
			}
			for _, vb := range bt.vecTables(1) {
				mb.VertexBuffers = append(mb.VertexBuffers, vb.bytes(0))
			}
			f.Buffers = append(f.Buffers, mb)
		}
		return f, nil
	})
}

// ParseMeshBufferFile parses a .trmbf file from disk.
func ParseMeshBufferFile(path string) (*BufferFile, error) {
	data, err := readFile(path, "mesh buffer")
	if err != nil {
		return nil, err
	}
	return ParseMeshBuffer(data)
}

// Buffer returns the buffers for shape i.
func (f *BufferFile) Buffer(i int) (*MeshBuffer, error) {
	if i < 0 || i >= len(f.Buffers) {
		return nil, errors.Errorf("mesh buffer %d out of range (%d buffers)", i, len(f.Buffers))
	}
	return &f.Buffers[i], nil
}
