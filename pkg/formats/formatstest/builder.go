// Package formatstest builds FlatBuffers-encoded asset files for tests.
//
// Each builder takes the parsed representation from package formats and
// produces bytes that the matching formats.Parse* function reads back.
package formatstest

import (
	"encoding/binary"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

type builder struct {
	*flatbuffers.Builder
}

func newBuilder() builder {
	return builder{flatbuffers.NewBuilder(256)}
}

func (b builder) finish(root flatbuffers.UOffsetT) []byte {
	b.Finish(root)
	return b.FinishedBytes()
}

// str creates a string, or returns 0 for empty strings so the field is omitted.
func (b builder) str(s string) flatbuffers.UOffsetT {
	if s == "" {
		return 0
	}
	return b.CreateString(s)
}

func (b builder) offsets(offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	if len(offs) == 0 {
		return 0
	}
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func (b builder) strings(ss []string) flatbuffers.UOffsetT {
	offs := make([]flatbuffers.UOffsetT, len(ss))
	for i, s := range ss {
		offs[i] = b.CreateString(s)
	}
	return b.offsets(offs)
}

func (b builder) vec3s(vs [][3]float32) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	b.StartVector(12, len(vs), 4)
	for i := len(vs) - 1; i >= 0; i-- {
		b.prependVec3(vs[i])
	}
	return b.EndVector(len(vs))
}

func (b builder) packed(vs [][3]uint16) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	b.StartVector(6, len(vs), 2)
	for i := len(vs) - 1; i >= 0; i-- {
		b.prependPacked(vs[i])
	}
	return b.EndVector(len(vs))
}

func (b builder) uint16s(vs []uint16) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	b.StartVector(2, len(vs), 2)
	for i := len(vs) - 1; i >= 0; i-- {
		b.PrependUint16(vs[i])
	}
	return b.EndVector(len(vs))
}

func (b builder) uint8s(vs []uint16) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	raw := make([]byte, len(vs))
	for i, v := range vs {
		raw[i] = byte(v)
	}
	return b.CreateByteVector(raw)
}

func (b builder) bools(vs []bool) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	b.StartVector(1, len(vs), 1)
	for i := len(vs) - 1; i >= 0; i-- {
		b.PrependBool(vs[i])
	}
	return b.EndVector(len(vs))
}

func (b builder) frames(tag formats.TrackType, frames []uint16) flatbuffers.UOffsetT {
	if tag == formats.TrackFramed8 {
		return b.uint8s(frames)
	}
	return b.uint16s(frames)
}

func (b builder) prependVec3(v [3]float32) {
	b.Prep(4, 12)
	b.PrependFloat32(v[2])
	b.PrependFloat32(v[1])
	b.PrependFloat32(v[0])
}

func (b builder) prependPacked(v [3]uint16) {
	b.Prep(2, 6)
	b.PrependUint16(v[2])
	b.PrependUint16(v[1])
	b.PrependUint16(v[0])
}

// slot adds an offset field when it is set.
func (b builder) slot(slot int, off flatbuffers.UOffsetT) {
	if off != 0 {
		b.PrependUOffsetTSlot(slot, off, 0)
	}
}

// Model encodes a .trmdl file.
func Model(m formats.ModelFile) []byte {
	b := newBuilder()
	meshes := b.strings(m.Meshes)
	skel := b.str(m.Skeleton)
	mats := b.strings(m.Materials)
	variants := b.str(m.Variants)

	b.StartObject(4)
	b.slot(0, meshes)
	b.slot(1, skel)
	b.slot(2, mats)
	b.slot(3, variants)
	return b.finish(b.EndObject())
}

// MaterialMapping encodes a .trmmt file.
func MaterialMapping(f formats.MaterialMappingFile) []byte {
	b := newBuilder()
	variants := make([]flatbuffers.UOffsetT, len(f.Variants))
	for i, v := range f.Variants {
		name := b.str(v.Name)
		mats := b.strings(v.Materials)
		b.StartObject(2)
		b.slot(0, name)
		b.slot(1, mats)
		variants[i] = b.EndObject()
	}
	list := b.offsets(variants)

	b.StartObject(1)
	b.slot(0, list)
	return b.finish(b.EndObject())
}

// MeshShape encodes a .trmsh file.
func MeshShape(f formats.MeshShapeFile) []byte {
	b := newBuilder()
	shapes := make([]flatbuffers.UOffsetT, len(f.Shapes))
	for i, s := range f.Shapes {
		shapes[i] = b.meshShape(s)
	}
	list := b.offsets(shapes)
	bufFile := b.str(f.BufferFile)

	b.StartObject(2)
	b.slot(0, list)
	b.slot(1, bufFile)
	return b.finish(b.EndObject())
}

func (b builder) meshShape(s formats.MeshShape) flatbuffers.UOffsetT {
	accessors := make([]flatbuffers.UOffsetT, len(s.Accessors))
	for i, acc := range s.Accessors {
		attrs := make([]flatbuffers.UOffsetT, len(acc.Attributes))
		for j, a := range acc.Attributes {
			b.StartObject(4)
			b.PrependUint32Slot(0, uint32(a.Kind), 0)
			b.PrependUint32Slot(1, a.Layer, 0)
			b.PrependUint32Slot(2, uint32(a.Format), 0)
			b.PrependUint32Slot(3, a.Offset, 0)
			attrs[j] = b.EndObject()
		}
		attrList := b.offsets(attrs)
		b.StartObject(2)
		b.slot(0, attrList)
		b.PrependUint32Slot(1, acc.Stride, 0)
		accessors[i] = b.EndObject()
	}
	accList := b.offsets(accessors)

	mats := make([]flatbuffers.UOffsetT, len(s.Materials))
	for i, m := range s.Materials {
		name := b.str(m.MaterialName)
		b.StartObject(3)
		b.PrependUint32Slot(0, m.PolygonCount, 0)
		b.PrependUint32Slot(1, m.PolygonOffset, 0)
		b.slot(2, name)
		mats[i] = b.EndObject()
	}
	matList := b.offsets(mats)

	name := b.str(s.Name)
	meshName := b.str(s.MeshName)

	b.StartObject(6)
	b.Prep(4, 24)
	b.prependVec3(s.Bounds.Max)
	b.prependVec3(s.Bounds.Min)
	b.PrependStructSlot(1, b.Offset(), 0)
	b.slot(0, name)
	b.PrependUint32Slot(2, uint32(s.IndexWidth), 0)
	b.slot(3, accList)
	b.slot(4, matList)
	b.slot(5, meshName)
	return b.EndObject()
}

// MeshBuffer encodes a .trmbf file.
func MeshBuffer(f formats.BufferFile) []byte {
	b := newBuilder()
	byteBuffers := func(bufs [][]byte) flatbuffers.UOffsetT {
		offs := make([]flatbuffers.UOffsetT, len(bufs))
		for i, data := range bufs {
			v := b.CreateByteVector(data)
			b.StartObject(1)
			b.slot(0, v)
			offs[i] = b.EndObject()
		}
		return b.offsets(offs)
	}

	buffers := make([]flatbuffers.UOffsetT, len(f.Buffers))
	for i, mb := range f.Buffers {
		idx := byteBuffers(mb.IndexBuffers)
		vtx := byteBuffers(mb.VertexBuffers)
		b.StartObject(2)
		b.slot(0, idx)
		b.slot(1, vtx)
		buffers[i] = b.EndObject()
	}
	list := b.offsets(buffers)

	b.StartObject(1)
	b.slot(0, list)
	return b.finish(b.EndObject())
}

// Skeleton encodes a .trskl file.
func Skeleton(f formats.SkeletonFile) []byte {
	b := newBuilder()
	nodes := make([]flatbuffers.UOffsetT, len(f.Nodes))
	for i, n := range f.Nodes {
		name := b.str(n.Name)
		b.StartObject(5)
		b.Prep(4, 36)
		b.prependVec3(n.Transform.Translate)
		b.prependVec3(n.Transform.Rotate)
		b.prependVec3(n.Transform.Scale)
		b.PrependStructSlot(1, b.Offset(), 0)
		b.slot(0, name)
		b.PrependInt32Slot(2, n.Parent, -1)
		b.PrependInt32Slot(3, n.Rig, -1)
		b.PrependUint32Slot(4, uint32(n.Type), 0)
		nodes[i] = b.EndObject()
	}
	list := b.offsets(nodes)

	b.StartObject(1)
	b.slot(0, list)
	return b.finish(b.EndObject())
}

func (b builder) playbackInfo(info formats.PlaybackInfo) flatbuffers.UOffsetT {
	var loop uint32
	if info.Loop {
		loop = 1
	}
	b.StartObject(3)
	b.PrependUint32Slot(0, loop, 0)
	b.PrependUint32Slot(1, info.FrameCount, 0)
	b.PrependUint32Slot(2, info.FrameRate, 0)
	return b.EndObject()
}

// Animation encodes a .tranm file.
func Animation(f formats.AnimationFile) []byte {
	b := newBuilder()
	info := b.playbackInfo(f.Info)

	tracks := make([]flatbuffers.UOffsetT, len(f.Tracks))
	for i, t := range f.Tracks {
		scale := b.vectorTrack(t.Scale)
		rot := b.rotationTrack(t.Rotate)
		trans := b.vectorTrack(t.Translate)
		name := b.str(t.Name)

		b.StartObject(7)
		b.slot(0, name)
		b.union(1, t.Scale.Type, scale)
		b.union(3, t.Rotate.Type, rot)
		b.union(5, t.Translate.Type, trans)
		tracks[i] = b.EndObject()
	}
	list := b.offsets(tracks)

	b.StartObject(1)
	b.slot(0, list)
	bones := b.EndObject()

	b.StartObject(2)
	b.slot(0, info)
	b.slot(1, bones)
	return b.finish(b.EndObject())
}

func (b builder) union(typeSlot int, tag formats.TrackType, off flatbuffers.UOffsetT) {
	if tag == formats.TrackNone || off == 0 {
		return
	}
	b.PrependUint8Slot(typeSlot, uint8(tag), 0)
	b.PrependUOffsetTSlot(typeSlot+1, off, 0)
}

func (b builder) vectorTrack(t formats.VectorTrack) flatbuffers.UOffsetT {
	switch t.Type {
	case formats.TrackFixed:
		b.StartObject(1)
		if len(t.Values) > 0 {
			b.prependVec3(t.Values[0])
			b.PrependStructSlot(0, b.Offset(), 0)
		}
		return b.EndObject()
	case formats.TrackDynamic:
		values := b.vec3s(t.Values)
		b.StartObject(1)
		b.slot(0, values)
		return b.EndObject()
	case formats.TrackFramed16, formats.TrackFramed8:
		frames := b.frames(t.Type, t.Frames)
		values := b.vec3s(t.Values)
		b.StartObject(2)
		b.slot(0, frames)
		b.slot(1, values)
		return b.EndObject()
	}
	return 0
}

func (b builder) rotationTrack(t formats.RotationTrack) flatbuffers.UOffsetT {
	switch t.Type {
	case formats.TrackFixed:
		b.StartObject(1)
		if len(t.Values) > 0 {
			b.prependPacked(t.Values[0])
			b.PrependStructSlot(0, b.Offset(), 0)
		}
		return b.EndObject()
	case formats.TrackDynamic:
		values := b.packed(t.Values)
		b.StartObject(1)
		b.slot(0, values)
		return b.EndObject()
	case formats.TrackFramed16, formats.TrackFramed8:
		frames := b.frames(t.Type, t.Frames)
		values := b.packed(t.Values)
		b.StartObject(2)
		b.slot(0, frames)
		b.slot(1, values)
		return b.EndObject()
	}
	return 0
}

// Visibility encodes a .tracm file.
func Visibility(f formats.VisibilityFile) []byte {
	b := newBuilder()
	info := b.playbackInfo(f.Info)

	entries := make([]flatbuffers.UOffsetT, len(f.Tracks))
	for i, e := range f.Tracks {
		track := b.visibilityTrack(e.Track)
		mesh := b.str(e.Mesh)
		b.StartObject(3)
		b.slot(0, mesh)
		b.union(1, e.Track.Type, track)
		entries[i] = b.EndObject()
	}
	list := b.offsets(entries)

	b.StartObject(2)
	b.slot(0, info)
	b.slot(1, list)
	return b.finish(b.EndObject())
}

func (b builder) visibilityTrack(t formats.VisibilityTrack) flatbuffers.UOffsetT {
	switch t.Type {
	case formats.TrackFixed:
		b.StartObject(1)
		if len(t.Values) > 0 {
			b.PrependBoolSlot(0, t.Values[0], false)
		}
		return b.EndObject()
	case formats.TrackDynamic:
		values := b.bools(t.Values)
		b.StartObject(1)
		b.slot(0, values)
		return b.EndObject()
	case formats.TrackFramed16, formats.TrackFramed8:
		frames := b.frames(t.Type, t.Frames)
		values := b.bools(t.Values)
		b.StartObject(2)
		b.slot(0, frames)
		b.slot(1, values)
		return b.EndObject()
	}
	return 0
}

// Material encodes a .trmtr file.
func Material(f formats.MaterialFile) []byte {
	b := newBuilder()
	mats := make([]flatbuffers.UOffsetT, len(f.Materials))
	for i, m := range f.Materials {
		texs := make([]flatbuffers.UOffsetT, len(m.Textures))
		for j, t := range m.Textures {
			name := b.str(t.Name)
			file := b.str(t.File)
			b.StartObject(3)
			b.slot(0, name)
			b.slot(1, file)
			b.PrependUint32Slot(2, t.Slot, 0)
			texs[j] = b.EndObject()
		}
		texList := b.offsets(texs)
		name := b.str(m.Name)
		shader := b.str(m.Shader)

		b.StartObject(4)
		b.Prep(4, 16)
		b.PrependFloat32(m.Color[3])
		b.PrependFloat32(m.Color[2])
		b.PrependFloat32(m.Color[1])
		b.PrependFloat32(m.Color[0])
		b.PrependStructSlot(3, b.Offset(), 0)
		b.slot(0, name)
		b.slot(1, shader)
		b.slot(2, texList)
		mats[i] = b.EndObject()
	}
	list := b.offsets(mats)

	b.StartObject(1)
	b.slot(0, list)
	return b.finish(b.EndObject())
}

// Float32s packs values as little-endian float32, the layout of *_32_FLOAT attributes.
func Float32s(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Uint16s packs values as little-endian uint16.
func Uint16s(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// Uint32s packs values as little-endian uint32.
func Uint32s(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
