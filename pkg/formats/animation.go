package formats

import "fmt"

// TrackType is the union tag of an animation or visibility track.
type TrackType uint8

const (
	TrackNone     TrackType = 0
	TrackFixed    TrackType = 1
	TrackDynamic  TrackType = 2
	TrackFramed16 TrackType = 3
	TrackFramed8  TrackType = 4
)

// String returns the track type name.
func (t TrackType) String() string {
	switch t {
	case TrackNone:
		return "None"
	case TrackFixed:
		return "Fixed"
	case TrackDynamic:
		return "Dynamic"
	case TrackFramed16:
		return "Framed16"
	case TrackFramed8:
		return "Framed8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// PlaybackInfo is the header shared by bone and visibility animations.
//
//	table PlaybackInfo { loop: uint; frame_count: uint; frame_rate: uint; }
type PlaybackInfo struct {
	Loop       bool
	FrameCount uint32
	FrameRate  uint32
}

// VectorTrack is a raw scale or translation channel.
// Fixed tracks carry one value; Framed tracks carry one frame per value.
// Frames of Framed8 tracks are widened to uint16.
type VectorTrack struct {
	Type   TrackType
	Frames []uint16
	Values [][3]float32
}

// RotationTrack is a raw rotation channel of packed 48-bit quaternions.
type RotationTrack struct {
	Type   TrackType
	Frames []uint16
	Values [][3]uint16
}

// BoneTrack holds the three channels animating one bone.
type BoneTrack struct {
	Name      string
	Scale     VectorTrack
	Rotate    RotationTrack
	Translate VectorTrack
}

// AnimationFile is a parsed .tranm file.
//
//	union VectorTrack { FixedVector, DynamicVector, Framed16Vector, Framed8Vector }
//	union RotationTrack { FixedRotation, DynamicRotation, Framed16Rotation, Framed8Rotation }
//	table FixedVector { value: Vec3; }
//	table DynamicVector { values: [Vec3]; }
//	table Framed16Vector { frames: [ushort]; values: [Vec3]; }
//	table Framed8Vector { frames: [ubyte]; values: [Vec3]; }
//	(rotation tables store PackedQuaternion { x, y, z: ushort } instead of Vec3)
//	table BoneTrack { name: string; scale: VectorTrack; rotate: RotationTrack; translate: VectorTrack; }
//	table BoneAnimation { tracks: [BoneTrack]; }
//	table AnimationFile { info: PlaybackInfo; bones: BoneAnimation; }
type AnimationFile struct {
	Info   PlaybackInfo
	Tracks []BoneTrack
}

// ParseAnimation parses .tranm data.
func ParseAnimation(data []byte) (*AnimationFile, error) {
	return parseRoot(data, "animation", func(root table) (*AnimationFile, error) {
		f := &AnimationFile{Info: parsePlaybackInfo(root)}
		bones, ok := root.sub(1)
		if !ok {
			return f, nil
		}
		for _, bt := range bones.vecTables(0) {
			f.Tracks = append(f.Tracks, BoneTrack{
				Name:      bt.str(0),
				Scale:     parseVectorTrack(bt, 1),
				Rotate:    parseRotationTrack(bt, 3),
				Translate: parseVectorTrack(bt, 5),
			})
		}
		return f, nil
	})
}

// ParseAnimationFile parses a .tranm file from disk.
func ParseAnimationFile(path string) (*AnimationFile, error) {
	data, err := readFile(path, "animation")
	if err != nil {
		return nil, err
	}
	return ParseAnimation(data)
}

func parsePlaybackInfo(root table) PlaybackInfo {
	info, ok := root.sub(0)
	if !ok {
		return PlaybackInfo{}
	}
	return PlaybackInfo{
		Loop:       info.uint32(0, 0) != 0,
		FrameCount: info.uint32(1, 0),
		FrameRate:  info.uint32(2, 0),
	}
}

// framesAt reads slot 0 of a framed track, widening 8-bit frames.
func framesAt(tag TrackType, v table) []uint16 {
	if tag == TrackFramed16 {
		return v.vecUint16(0)
	}
	raw := v.bytes(0)
	if raw == nil {
		return nil
	}
	out := make([]uint16, len(raw))
	for i, b := range raw {
		out[i] = uint16(b)
	}
	return out
}

func parseVectorTrack(t table, typeSlot int) VectorTrack {
	tag, v, ok := t.union(typeSlot)
	tr := VectorTrack{Type: TrackType(tag)}
	if !ok {
		return tr
	}
	switch tr.Type {
	case TrackFixed:
		if pos, ok := v.structPos(0); ok {
			tr.Values = [][3]float32{v.vec3At(pos)}
		}
	case TrackDynamic:
		tr.Values = v.vecVec3(0)
	case TrackFramed16, TrackFramed8:
		tr.Frames = framesAt(tr.Type, v)
		tr.Values = v.vecVec3(1)
	}
	return tr
}

func parseRotationTrack(t table, typeSlot int) RotationTrack {
	tag, v, ok := t.union(typeSlot)
	tr := RotationTrack{Type: TrackType(tag)}
	if !ok {
		return tr
	}
	switch tr.Type {
	case TrackFixed:
		if pos, ok := v.structPos(0); ok {
			tr.Values = [][3]uint16{v.packedAt(pos)}
		}
	case TrackDynamic:
		tr.Values = v.vecPacked(0)
	case TrackFramed16, TrackFramed8:
		tr.Frames = framesAt(tr.Type, v)
		tr.Values = v.vecPacked(1)
	}
	return tr
}

// VisibilityTrack is a raw boolean channel.
type VisibilityTrack struct {
	Type   TrackType
	Frames []uint16
	Values []bool
}

// VisibilityEntry binds a visibility channel to a mesh path.
type VisibilityEntry struct {
	Mesh  string
	Track VisibilityTrack
}

// VisibilityFile is a parsed .tracm file.
//
//	union VisibilityTrack { FixedBool, DynamicBool, Framed16Bool, Framed8Bool }
//	table FixedBool { value: bool; }
//	table DynamicBool { values: [bool]; }
//	table Framed16Bool { frames: [ushort]; values: [bool]; }
//	table Framed8Bool { frames: [ubyte]; values: [bool]; }
//	table VisibilityEntry { mesh: string; value: VisibilityTrack; }
//	table VisibilityAnimationFile { info: PlaybackInfo; tracks: [VisibilityEntry]; }
type VisibilityFile struct {
	Info   PlaybackInfo
	Tracks []VisibilityEntry
}

// ParseVisibility parses .tracm data.
func ParseVisibility(data []byte) (*VisibilityFile, error) {
	return parseRoot(data, "visibility animation", func(root table) (*VisibilityFile, error) {
		f := &VisibilityFile{Info: parsePlaybackInfo(root)}
		for _, et := range root.vecTables(1) {
			f.Tracks = append(f.Tracks, VisibilityEntry{
				Mesh:  et.str(0),
				Track: parseVisibilityTrack(et, 1),
			})
		}
		return f, nil
	})
}

// ParseVisibilityFile parses a .tracm file from disk.
func ParseVisibilityFile(path string) (*VisibilityFile, error) {
	data, err := readFile(path, "visibility animation")
	if err != nil {
		return nil, err
	}
	return ParseVisibility(data)
}

func parseVisibilityTrack(t table, typeSlot int) VisibilityTrack {
	tag, v, ok := t.union(typeSlot)
	tr := VisibilityTrack{Type: TrackType(tag)}
	if !ok {
		return tr
	}
	switch tr.Type {
	case TrackFixed:
		tr.Values = []bool{v.bool(0, false)}
	case TrackDynamic:
		tr.Values = v.vecBool(0)
	case TrackFramed16, TrackFramed8:
		tr.Frames = framesAt(tr.Type, v)
		tr.Values = v.vecBool(1)
	}
	return tr
}
