package animation

import (
	gomath "math"

	"github.com/Faultbox/trinity-viewer/pkg/math"
)

// wrapIndex maps a frame onto a per-frame array of length n, wrapping in
// both directions.
func wrapIndex(frame float32, n int) int {
	i := int(gomath.Floor(float64(frame))) % n
	if i < 0 {
		i += n
	}
	return i
}

// bracket finds the keyframes around frame among the first n entries of
// frames. It returns prev == next when frame is before the first key, on a
// key, or at/after the last key; t is the blend factor from prev to next.
// ok is false when there are no keys.
func bracket[F uint8 | uint16](frames []F, n int, frame float32) (prev, next int, t float32, ok bool) {
	if len(frames) < n {
		n = len(frames)
	}
	if n == 0 {
		return 0, 0, 0, false
	}
	if n == 1 || frame <= float32(frames[0]) {
		return 0, 0, 0, true
	}
	if frame >= float32(frames[n-1]) {
		return n - 1, n - 1, 0, true
	}

	next = 1
	for next < n-1 && float32(frames[next]) < frame {
		next++
	}
	if float32(frames[next]) == frame {
		return next, next, 0, true
	}

	prev = next - 1
	f0, f1 := float32(frames[prev]), float32(frames[next])
	if f1 > f0 {
		t = (frame - f0) / (f1 - f0)
	}
	return prev, next, t, true
}

func sampleVector[F uint8 | uint16](frames []F, values []math.Vec3, frame float32) (math.Vec3, bool) {
	prev, next, t, ok := bracket(frames, len(values), frame)
	if !ok {
		return math.Vec3{}, false
	}
	if prev == next {
		return values[prev], true
	}
	return values[prev].Lerp(values[next], t), true
}

func sampleRotation[F uint8 | uint16](frames []F, values []PackedQuat, frame float32) (math.Quat, bool) {
	prev, next, t, ok := bracket(frames, len(values), frame)
	if !ok {
		return math.QuatIdentity(), false
	}
	if prev == next {
		return values[prev].Unpack(), true
	}
	return values[prev].Unpack().Slerp(values[next].Unpack(), t), true
}

func sampleVisibility[F uint8 | uint16](frames []F, values []bool, frame float32) bool {
	prev, _, _, ok := bracket(frames, len(values), frame)
	if !ok {
		return true
	}
	return values[prev]
}

// EvaluateVector samples a vector track at frame. The bool is false when the
// track holds no data, in which case the zero vector is returned.
func EvaluateVector(track VectorTrack, frame float32) (math.Vec3, bool) {
	switch t := track.(type) {
	case FixedVector:
		return t.Value, true
	case DynamicVector:
		if len(t.Values) == 0 {
			return math.Vec3{}, false
		}
		return t.Values[wrapIndex(frame, len(t.Values))], true
	case Framed16Vector:
		return sampleVector(t.Frames, t.Values, frame)
	case Framed8Vector:
		return sampleVector(t.Frames, t.Values, frame)
	default:
		return math.Vec3{}, false
	}
}

// EvaluateRotation samples a rotation track at frame. The bool is false when
// the track holds no data, in which case the identity is returned.
func EvaluateRotation(track RotationTrack, frame float32) (math.Quat, bool) {
	switch t := track.(type) {
	case FixedRotation:
		return t.Value.Unpack(), true
	case DynamicRotation:
		if len(t.Values) == 0 {
			return math.QuatIdentity(), false
		}
		return t.Values[wrapIndex(frame, len(t.Values))].Unpack(), true
	case Framed16Rotation:
		return sampleRotation(t.Frames, t.Values, frame)
	case Framed8Rotation:
		return sampleRotation(t.Frames, t.Values, frame)
	default:
		return math.QuatIdentity(), false
	}
}

// EvaluateVisibility samples a visibility track at frame. Values step at the
// previous keyframe and never blend. Missing data means visible.
func EvaluateVisibility(track VisibilityTrack, frame float32) bool {
	switch t := track.(type) {
	case FixedVisibility:
		return t.Value
	case DynamicVisibility:
		if len(t.Values) == 0 {
			return true
		}
		return t.Values[wrapIndex(frame, len(t.Values))]
	case Framed16Visibility:
		return sampleVisibility(t.Frames, t.Values, frame)
	case Framed8Visibility:
		return sampleVisibility(t.Frames, t.Values, frame)
	default:
		return true
	}
}
