package model

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/vertex"
)

// DecodeShape decodes the vertex attributes and LOD 0 indices of a shape.
// Vertex buffer i is described by shape.Accessors[i]. The vertex count is
// taken from the first vertex buffer.
func DecodeShape(shape formats.MeshShape, buf *formats.MeshBuffer) (VertexData, vertex.Indices, error) {
	var data VertexData
	if len(shape.Accessors) == 0 || len(buf.VertexBuffers) == 0 {
		return data, vertex.Indices{}, errors.Errorf("shape %q has no vertex buffers", shape.Name)
	}
	if len(buf.VertexBuffers) < len(shape.Accessors) {
		return data, vertex.Indices{}, errors.Errorf("shape %q: %d accessors but %d vertex buffers",
			shape.Name, len(shape.Accessors), len(buf.VertexBuffers))
	}

	data.VertexCount = vertex.VertexCount(len(buf.VertexBuffers[0]), shape.Accessors[0])
	log := logger.Named("model")

	for bi, acc := range shape.Accessors {
		stride := vertex.VertexStride(acc)
		for _, attr := range acc.Attributes {
			values, err := vertex.DecodeAttribute(buf.VertexBuffers[bi], attr.Format, int(attr.Offset), stride, data.VertexCount)
			if err != nil {
				return data, vertex.Indices{}, errors.Wrapf(err, "shape %q buffer %d %s", shape.Name, bi, attr.Kind)
			}
			enc, _ := vertex.Lookup(attr.Format)
			have := enc.Components

			switch attr.Kind {
			case formats.AttributePosition:
				data.Positions = vertex.Components(values, have, 3)
			case formats.AttributeNormal:
				data.Normals = unitVectors(values, have, data.VertexCount)
			case formats.AttributeTangent:
				data.Tangents = unitVectors(values, have, data.VertexCount)
			case formats.AttributeBinormal:
				data.Binormals = unitVectors(values, have, data.VertexCount)
			case formats.AttributeTexCoord:
				switch attr.Layer {
				case 0:
					data.UV0 = vertex.Components(values, have, 2)
				case 1:
					data.UV1 = vertex.Components(values, have, 2)
				default:
					log.Debug("ignoring texcoord layer",
						zap.String("shape", shape.Name), zap.Uint32("layer", attr.Layer))
				}
			case formats.AttributeColor:
				if attr.Layer == 0 {
					data.Colors = vertex.Components(values, have, 4)
				}
			case formats.AttributeBlendIndices:
				data.BlendIndices = vertex.Components(values, have, 4)
			case formats.AttributeBlendWeights:
				data.BlendWeights = vertex.Components(values, have, 4)
			default:
				log.Debug("ignoring vertex attribute",
					zap.String("shape", shape.Name), zap.Stringer("kind", attr.Kind))
			}
		}
	}

	if len(buf.IndexBuffers) == 0 {
		return data, vertex.Indices{}, nil
	}
	ib := buf.IndexBuffers[0]
	indices, err := vertex.DecodeIndices(ib, shape.IndexWidth, 0, vertex.IndexCount(len(ib), shape.IndexWidth))
	if err != nil {
		return data, vertex.Indices{}, errors.Wrapf(err, "shape %q indices", shape.Name)
	}
	return data, indices, nil
}

// unitVectors reduces normal-like data to xyz and renormalizes it.
func unitVectors(values []float32, have, vertexCount int) []float32 {
	var v []float32
	if have == 4 {
		v = vertex.Vec3Components(values, vertexCount)
	} else {
		v = vertex.Components(values, have, 3)
	}
	vertex.Renormalize(v)
	return v
}

// Assemble builds renderer geometry from decoded shape data. Each declared
// material becomes one group; a shape without materials gets a single group
// covering every index. Missing normals are computed from the triangles.
//
// Group material indices are left at 0; the loader resolves them by name.
func Assemble(shape formats.MeshShape, data VertexData, indices vertex.Indices) *Geometry {
	g := &Geometry{
		Name:           shape.Name,
		MeshName:       shape.MeshName,
		VertexData:     data,
		Indices:        indices,
		declaredGroups: len(shape.Materials),
	}

	if len(shape.Materials) == 0 {
		g.Groups = []Group{{Start: 0, Count: indices.Len(), MaterialName: DefaultMaterial.Name}}
	} else {
		g.Groups = make([]Group, len(shape.Materials))
		for i, m := range shape.Materials {
			g.Groups[i] = Group{
				Start:        int(m.PolygonOffset),
				Count:        int(m.PolygonCount),
				MaterialName: m.MaterialName,
			}
		}
	}

	if g.Normals == nil && g.Positions != nil {
		logger.Named("model").Warn("shape has no normals, computing from triangles",
			zap.String("shape", shape.Name))
		g.Normals = computeNormals(g.Positions, indices.Uint32(), g.VertexCount)
		g.ComputedNormals = true
	}

	if b := shape.Bounds; b.Min != b.Max {
		g.Bounds = Bounds{Min: b.Min, Max: b.Max}
	} else {
		g.Bounds = computeBounds(g.Positions)
	}
	return g
}

// Validate reports every inconsistency between the index array, the vertex
// arrays and the groups. A nil result means the geometry is safe to draw.
func (g *Geometry) Validate() error {
	var err error

	for i := 0; i < g.Indices.Len(); i++ {
		if idx := g.Indices.At(i); int(idx) >= g.VertexCount {
			err = multierr.Append(err, errors.Errorf("index %d = %d, vertex count %d", i, idx, g.VertexCount))
			break
		}
	}

	declared := g.declaredGroups
	if declared == 0 {
		declared = 1
	}
	if len(g.Groups) != declared {
		err = multierr.Append(err, errors.Errorf("%d groups, %d declared", len(g.Groups), declared))
	}
	for i, grp := range g.Groups {
		if grp.Start < 0 || grp.Count < 0 || grp.Start+grp.Count > g.Indices.Len() {
			err = multierr.Append(err, errors.Errorf("group %d range [%d, %d) outside %d indices",
				i, grp.Start, grp.Start+grp.Count, g.Indices.Len()))
		}
	}

	check := func(name string, arr []float32, width int) {
		if arr != nil && len(arr) != g.VertexCount*width {
			err = multierr.Append(err, errors.Errorf("%s has %d floats, want %d", name, len(arr), g.VertexCount*width))
		}
	}
	check("positions", g.Positions, 3)
	check("normals", g.Normals, 3)
	check("tangents", g.Tangents, 3)
	check("binormals", g.Binormals, 3)
	check("uv0", g.UV0, 2)
	check("uv1", g.UV1, 2)
	check("colors", g.Colors, 4)
	check("blend indices", g.BlendIndices, 4)
	check("blend weights", g.BlendWeights, 4)

	if err != nil {
		return errors.Wrapf(err, "geometry %q", g.Name)
	}
	return nil
}
