// Package model assembles decoded mesh shapes into renderer geometry and
// loads whole models (meshes, skeleton, materials, clips) from an asset source.
package model

import (
	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/vertex"
)

// VertexData holds the decoded attribute arrays of one shape. Arrays are
// flat: Positions, Normals, Tangents and Binormals carry 3 floats per vertex,
// UV0 and UV1 carry 2, Colors, BlendIndices and BlendWeights carry 4.
// Absent attributes are nil.
type VertexData struct {
	VertexCount  int
	Positions    []float32
	Normals      []float32
	Tangents     []float32
	Binormals    []float32
	UV0          []float32
	UV1          []float32
	Colors       []float32
	BlendIndices []float32
	BlendWeights []float32
}

// Group is a range of the index array drawn with one material.
type Group struct {
	Start         int    `json:"start"` // First index
	Count         int    `json:"count"` // Number of indices
	MaterialIndex int    `json:"materialIndex"`
	MaterialName  string `json:"materialName"`
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

// Geometry is one renderer-ready mesh.
type Geometry struct {
	Name     string
	MeshName string // Path matched by visibility tracks
	VertexData
	Indices vertex.Indices
	Groups  []Group
	Bounds  Bounds

	// ComputedNormals is set when the source had no normals.
	ComputedNormals bool

	declaredGroups int
}

// Material is the renderer-facing description of a material.
type Material struct {
	Name     string            `json:"name"`
	Shader   string            `json:"shader"`
	Color    [4]float32        `json:"color"`
	Textures map[string]string `json:"textures,omitempty"` // Sampler name to texture file
}

// DefaultMaterial is used when a model's materials are missing or a group
// names an unknown material.
var DefaultMaterial = Material{
	Name:   "default",
	Shader: "Standard",
	Color:  [4]float32{0.6, 0.6, 0.6, 1},
}

func materialFrom(m formats.Material) Material {
	out := Material{
		Name:     m.Name,
		Shader:   m.Shader,
		Color:    m.Color,
		Textures: make(map[string]string, len(m.Textures)),
	}
	for _, t := range m.Textures {
		out.Textures[t.Name] = t.File
	}
	return out
}

// Model is a fully loaded model.
type Model struct {
	Path      string
	Meshes    []*Geometry
	Skeleton  *skeleton.Skeleton // Nil when the model has no usable skeleton
	Materials []Material
	Variants  *formats.MaterialMappingFile // Nil without a mapping file
	Variant   string                       // Active variant, "" for the default set
}

// Mesh returns the geometry with the given shape or mesh name.
func (m *Model) Mesh(name string) *Geometry {
	for _, g := range m.Meshes {
		if g.Name == name || g.MeshName == name {
			return g
		}
	}
	return nil
}

// VertexCount returns the number of vertices over all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, g := range m.Meshes {
		n += g.VertexCount
	}
	return n
}
