// Package animation evaluates keyframed bone and visibility tracks and plays
// clips back onto a skeleton.
package animation

import (
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/math"
)

// VectorTrack is a scale or translation channel. Implementations are
// FixedVector, DynamicVector, Framed16Vector and Framed8Vector.
type VectorTrack interface {
	vectorTrack()
}

// RotationTrack is a rotation channel of packed quaternions.
// Implementations are FixedRotation, DynamicRotation, Framed16Rotation and
// Framed8Rotation.
type RotationTrack interface {
	rotationTrack()
}

// VisibilityTrack is a boolean mesh visibility channel.
// Implementations are FixedVisibility, DynamicVisibility, Framed16Visibility
// and Framed8Visibility.
type VisibilityTrack interface {
	visibilityTrack()
}

// Vector variants.
type (
	FixedVector struct {
		Value math.Vec3
	}
	DynamicVector struct {
		Values []math.Vec3 // One per frame
	}
	Framed16Vector struct {
		Frames []uint16
		Values []math.Vec3
	}
	Framed8Vector struct {
		Frames []uint8
		Values []math.Vec3
	}
)

func (FixedVector) vectorTrack()    {}
func (DynamicVector) vectorTrack()  {}
func (Framed16Vector) vectorTrack() {}
func (Framed8Vector) vectorTrack()  {}

// Rotation variants.
type (
	FixedRotation struct {
		Value PackedQuat
	}
	DynamicRotation struct {
		Values []PackedQuat
	}
	Framed16Rotation struct {
		Frames []uint16
		Values []PackedQuat
	}
	Framed8Rotation struct {
		Frames []uint8
		Values []PackedQuat
	}
)

func (FixedRotation) rotationTrack()    {}
func (DynamicRotation) rotationTrack()  {}
func (Framed16Rotation) rotationTrack() {}
func (Framed8Rotation) rotationTrack()  {}

// Visibility variants.
type (
	FixedVisibility struct {
		Value bool
	}
	DynamicVisibility struct {
		Values []bool
	}
	Framed16Visibility struct {
		Frames []uint16
		Values []bool
	}
	Framed8Visibility struct {
		Frames []uint8
		Values []bool
	}
)

func (FixedVisibility) visibilityTrack()    {}
func (DynamicVisibility) visibilityTrack()  {}
func (Framed16Visibility) visibilityTrack() {}
func (Framed8Visibility) visibilityTrack()  {}

func narrowFrames(frames []uint16) []uint8 {
	out := make([]uint8, len(frames))
	for i, f := range frames {
		out[i] = uint8(f)
	}
	return out
}

func vec3s(vs [][3]float32) []math.Vec3 {
	out := make([]math.Vec3, len(vs))
	for i, v := range vs {
		out[i] = math.Vec3From(v)
	}
	return out
}

func packedQuats(vs [][3]uint16) []PackedQuat {
	out := make([]PackedQuat, len(vs))
	for i, v := range vs {
		out[i] = PackedQuat(v)
	}
	return out
}

// VectorTrackFrom converts a parsed channel. Empty or unknown channels
// return nil, which evaluates to "no data".
func VectorTrackFrom(t formats.VectorTrack) VectorTrack {
	switch t.Type {
	case formats.TrackFixed:
		if len(t.Values) == 0 {
			return nil
		}
		return FixedVector{Value: math.Vec3From(t.Values[0])}
	case formats.TrackDynamic:
		return DynamicVector{Values: vec3s(t.Values)}
	case formats.TrackFramed16:
		return Framed16Vector{Frames: t.Frames, Values: vec3s(t.Values)}
	case formats.TrackFramed8:
		return Framed8Vector{Frames: narrowFrames(t.Frames), Values: vec3s(t.Values)}
	default:
		return nil
	}
}

// RotationTrackFrom converts a parsed rotation channel.
func RotationTrackFrom(t formats.RotationTrack) RotationTrack {
	switch t.Type {
	case formats.TrackFixed:
		if len(t.Values) == 0 {
			return nil
		}
		return FixedRotation{Value: PackedQuat(t.Values[0])}
	case formats.TrackDynamic:
		return DynamicRotation{Values: packedQuats(t.Values)}
	case formats.TrackFramed16:
		return Framed16Rotation{Frames: t.Frames, Values: packedQuats(t.Values)}
	case formats.TrackFramed8:
		return Framed8Rotation{Frames: narrowFrames(t.Frames), Values: packedQuats(t.Values)}
	default:
		return nil
	}
}

// VisibilityTrackFrom converts a parsed visibility channel.
func VisibilityTrackFrom(t formats.VisibilityTrack) VisibilityTrack {
	switch t.Type {
	case formats.TrackFixed:
		if len(t.Values) == 0 {
			return nil
		}
		return FixedVisibility{Value: t.Values[0]}
	case formats.TrackDynamic:
		return DynamicVisibility{Values: t.Values}
	case formats.TrackFramed16:
		return Framed16Visibility{Frames: t.Frames, Values: t.Values}
	case formats.TrackFramed8:
		return Framed8Visibility{Frames: narrowFrames(t.Frames), Values: t.Values}
	default:
		return nil
	}
}
