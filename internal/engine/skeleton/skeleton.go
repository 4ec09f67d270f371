// Package skeleton builds a bone hierarchy from a flat transform node list
// and maintains local, world and inverse bind matrices for skinning.
package skeleton

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/math"
)

// Skeleton errors.
var (
	ErrCyclicHierarchy = errors.New("cyclic bone hierarchy")
	ErrDuplicateRig    = errors.New("duplicate rig index")
)

// Bone is one skinning joint.
type Bone struct {
	Name     string
	Index    int   // Position in Skeleton.Bones
	Rig      int32 // Rig index from the source node
	Node     int   // Index of the source transform node
	Type     formats.NodeType
	Parent   int // Bone index, -1 for roots
	Children []int

	// Rest pose from the source node.
	RestTranslation math.Vec3
	RestRotation    math.Quat
	RestScale       math.Vec3

	// Current pose.
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3

	Local       math.Mat4
	World       math.Mat4
	InverseBind math.Mat4
}

// Skeleton is a bone hierarchy ordered by rig index.
type Skeleton struct {
	Bones []Bone
	Roots []int

	order  []int // Parents before children
	byName map[string]int
	byRig  map[int32]int
}

// Build creates a skeleton from transform nodes. Only nodes with a
// non-negative rig index become bones. Parent indices refer to positions in
// nodes; a parent that is missing or is not a bone makes the bone a root.
func Build(nodes []formats.TransformNode) (*Skeleton, error) {
	log := logger.Named("skeleton")

	// Pass 1: one bone per rigged node, ordered by rig index.
	var rigged []int
	for i := range nodes {
		if nodes[i].Rig >= 0 {
			rigged = append(rigged, i)
		}
	}
	sort.SliceStable(rigged, func(a, b int) bool {
		return nodes[rigged[a]].Rig < nodes[rigged[b]].Rig
	})

	s := &Skeleton{
		Bones:  make([]Bone, len(rigged)),
		byName: make(map[string]int, len(rigged)),
		byRig:  make(map[int32]int, len(rigged)),
	}
	nodeToBone := make(map[int]int, len(rigged))

	for bi, ni := range rigged {
		n := &nodes[ni]
		if prev, ok := s.byRig[n.Rig]; ok {
			return nil, errors.Wrapf(ErrDuplicateRig, "rig %d used by %q and %q", n.Rig, s.Bones[prev].Name, n.Name)
		}

		t := math.Vec3From(n.Transform.Translate)
		r := math.QuatFromEulerZYX(n.Transform.Rotate[0], n.Transform.Rotate[1], n.Transform.Rotate[2])
		sc := math.Vec3From(n.Transform.Scale)

		s.Bones[bi] = Bone{
			Name:            n.Name,
			Index:           bi,
			Rig:             n.Rig,
			Node:            ni,
			Type:            n.Type,
			Parent:          -1,
			RestTranslation: t,
			RestRotation:    r,
			RestScale:       sc,
		}
		s.byRig[n.Rig] = bi
		if _, dup := s.byName[n.Name]; !dup {
			s.byName[n.Name] = bi
		}
		nodeToBone[ni] = bi
	}

	// Pass 2: parent wiring.
	for bi := range s.Bones {
		b := &s.Bones[bi]
		p := nodes[b.Node].Parent
		if p < 0 {
			continue
		}
		pb, ok := nodeToBone[int(p)]
		if !ok {
			log.Debug("bone parent is not a bone, treating as root",
				zap.String("bone", b.Name), zap.Int32("parent", p))
			continue
		}
		b.Parent = pb
		s.Bones[pb].Children = append(s.Bones[pb].Children, bi)
	}

	for bi := range s.Bones {
		if s.Bones[bi].Parent < 0 {
			s.Roots = append(s.Roots, bi)
		}
	}

	if err := s.buildOrder(); err != nil {
		return nil, err
	}

	s.ResetToBindPose()
	log.Debug("built skeleton", zap.Int("nodes", len(nodes)), zap.Int("bones", len(s.Bones)), zap.Int("roots", len(s.Roots)))
	return s, nil
}

// buildOrder lists bones parents-first starting at the roots. Bones not
// reachable from any root sit on a parent cycle.
func (s *Skeleton) buildOrder() error {
	s.order = make([]int, 0, len(s.Bones))
	visited := make([]bool, len(s.Bones))

	stack := make([]int, 0, len(s.Roots))
	for i := len(s.Roots) - 1; i >= 0; i-- {
		stack = append(stack, s.Roots[i])
	}
	for len(stack) > 0 {
		bi := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[bi] = true
		s.order = append(s.order, bi)
		children := s.Bones[bi].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	for bi, ok := range visited {
		if !ok {
			return errors.Wrapf(ErrCyclicHierarchy, "bone %q (node %d)", s.Bones[bi].Name, s.Bones[bi].Node)
		}
	}
	return nil
}

// SetPose sets a bone's current local transform. Call UpdateWorld afterwards.
func (s *Skeleton) SetPose(bone int, t math.Vec3, r math.Quat, sc math.Vec3) {
	b := &s.Bones[bone]
	b.Translation = t
	b.Rotation = r
	b.Scale = sc
	b.Local = math.Compose(t, r, sc)
}

// UpdateWorld recomputes every world matrix from the current local matrices.
func (s *Skeleton) UpdateWorld() {
	for _, bi := range s.order {
		b := &s.Bones[bi]
		if b.Parent < 0 {
			b.World = b.Local
			continue
		}

		parent := s.Bones[b.Parent].World
		if b.Type == formats.NodeFloating {
			pt, pr, _ := parent.Decompose()
			parent = math.Translate(pt.X, pt.Y, pt.Z).Mul(pr.ToMat4())
		}
		b.World = parent.Mul(b.Local)
	}
}

// ResetToBindPose restores the rest pose and recomputes world and inverse
// bind matrices.
func (s *Skeleton) ResetToBindPose() {
	for i := range s.Bones {
		b := &s.Bones[i]
		s.SetPose(i, b.RestTranslation, b.RestRotation, b.RestScale)
	}
	s.UpdateWorld()
	for i := range s.Bones {
		s.Bones[i].InverseBind = s.Bones[i].World.Inverse()
	}
}

// SkinMatrices returns World * InverseBind for every bone, in bone order.
func (s *Skeleton) SkinMatrices() []math.Mat4 {
	out := make([]math.Mat4, len(s.Bones))
	for i := range s.Bones {
		out[i] = s.Bones[i].World.Mul(s.Bones[i].InverseBind)
	}
	return out
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.Bones)
}

// Bone returns bone i, or nil when out of range.
func (s *Skeleton) Bone(i int) *Bone {
	if i < 0 || i >= len(s.Bones) {
		return nil
	}
	return &s.Bones[i]
}

// BoneByName returns the first bone with the given name.
func (s *Skeleton) BoneByName(name string) (*Bone, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Bones[i], true
}

// BoneByRig returns the bone with the given rig index.
func (s *Skeleton) BoneByRig(rig int32) (*Bone, bool) {
	i, ok := s.byRig[rig]
	if !ok {
		return nil, false
	}
	return &s.Bones[i], true
}

// Clone returns a deep copy that can be posed independently.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		Bones:  make([]Bone, len(s.Bones)),
		Roots:  append([]int(nil), s.Roots...),
		order:  append([]int(nil), s.order...),
		byName: s.byName,
		byRig:  s.byRig,
	}
	copy(c.Bones, s.Bones)
	for i := range c.Bones {
		c.Bones[i].Children = append([]int(nil), s.Bones[i].Children...)
	}
	return c
}
