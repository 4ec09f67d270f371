package formats

import "fmt"

// NodeType distinguishes how a transform node composes with its parent.
type NodeType uint32

const (
	NodeDefault  NodeType = 0
	NodeChained  NodeType = 1
	NodeFloating NodeType = 2 // Inherits parent position and rotation, not scale
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case NodeDefault:
		return "Default"
	case NodeChained:
		return "Chained"
	case NodeFloating:
		return "Floating"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// Transform is a node's local scale, Euler rotation (radians, XYZ stored,
// applied Z*Y*X) and translation.
type Transform struct {
	Scale     [3]float32
	Rotate    [3]float32
	Translate [3]float32
}

// TransformNode is one entry of the flat skeleton node list.
type TransformNode struct {
	Index     int // Position in the file's node list
	Name      string
	Transform Transform
	Parent    int32 // -1 for roots
	Rig       int32 // Skinning slot, -1 when the node is not a bone
	Type      NodeType
}

// SkeletonFile is a parsed .trskl file.
//
//	struct Transform { scale: Vec3; rotate: Vec3; translate: Vec3; }
//	table TransformNode { name: string; transform: Transform; parent: int = -1; rig: int = -1; type: uint; }
//	table SkeletonFile { nodes: [TransformNode]; }
type SkeletonFile struct {
	Nodes []TransformNode
}

// ParseSkeleton parses .trskl data.
func ParseSkeleton(data []byte) (*SkeletonFile, error) {
	return parseRoot(data, "skeleton", func(root table) (*SkeletonFile, error) {
		f := &SkeletonFile{}
		for i, nt := range root.vecTables(0) {
			n := TransformNode{
				Index:  i,
				Name:   nt.str(0),
				Parent: nt.int32(2, -1),
				Rig:    nt.int32(3, -1),
				Type:   NodeType(nt.uint32(4, 0)),
			}
			if pos, ok := nt.structPos(1); ok {
				n.Transform.Scale = nt.vec3At(pos)
				n.Transform.Rotate = nt.vec3At(pos + 12)
				n.Transform.Translate = nt.vec3At(pos + 24)
			} else {
				n.Transform.Scale = [3]float32{1, 1, 1}
			}
			f.Nodes = append(f.Nodes, n)
		}
		return f, nil
	})
}

// ParseSkeletonFile parses a .trskl file from disk.
func ParseSkeletonFile(path string) (*SkeletonFile, error) {
	data, err := readFile(path, "skeleton")
	if err != nil {
		return nil, err
	}
	return ParseSkeleton(data)
}

// BoneCount returns the number of nodes carrying a rig index.
func (f *SkeletonFile) BoneCount() int {
	n := 0
	for _, node := range f.Nodes {
		if node.Rig >= 0 {
			n++
		}
	}
	return n
}
