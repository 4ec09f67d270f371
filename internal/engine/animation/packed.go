package animation

import (
	gomath "math"

	"github.com/Faultbox/trinity-viewer/pkg/math"
)

// Packed rotation layout (48 bits, little-endian x|y|z words):
//
//	bits 0-1   index of the omitted component in (x, y, z, w)
//	bit  2     negate all components
//	bits 3-17, 18-32, 33-47   the three stored components, 15 bits each
const (
	packedScale   = 0x7FFF
	packedMask    = 0x7FFF
	packedHalfPi  = gomath.Pi / 2
	packedQuarter = gomath.Pi / 4
)

// PackedQuat is a rotation stored as three 16-bit words.
type PackedQuat [3]uint16

// Unpack decodes the rotation.
func (p PackedQuat) Unpack() math.Quat {
	return UnpackQuaternion(p[0], p[1], p[2])
}

func expand(field uint64) float64 {
	return float64(field)*(packedHalfPi/packedScale) - packedQuarter
}

func quantize(v float64) uint64 {
	f := gomath.Round((v + packedQuarter) * packedScale / packedHalfPi)
	if f < 0 {
		return 0
	}
	if f > packedScale {
		return packedScale
	}
	return uint64(f)
}

// UnpackQuaternion decodes a 48-bit packed rotation. The omitted component
// is rebuilt from the unit-norm constraint, so the result is unit length for
// any input whose stored components have a squared sum of at most 1.
func UnpackQuaternion(x, y, z uint16) math.Quat {
	packed := uint64(z)<<32 | uint64(y)<<16 | uint64(x)

	stored := [3]float64{
		expand((packed >> 3) & packedMask),
		expand((packed >> 18) & packedMask),
		expand((packed >> 33) & packedMask),
	}
	missing := gomath.Sqrt(gomath.Max(1-(stored[0]*stored[0]+stored[1]*stored[1]+stored[2]*stored[2]), 0))

	idx := int(packed & 0x3)
	var c [4]float64
	for i, j := 0, 0; i < 4; i++ {
		if i == idx {
			c[i] = missing
			continue
		}
		c[i] = stored[j]
		j++
	}

	if packed&0x4 != 0 {
		for i := range c {
			c[i] = -c[i]
		}
	}
	return math.Quat{X: float32(c[0]), Y: float32(c[1]), Z: float32(c[2]), W: float32(c[3])}
}

// PackQuaternion encodes a rotation, omitting its largest component.
// UnpackQuaternion(PackQuaternion(q)) equals q.Normalize() up to the 15-bit
// quantization step.
func PackQuaternion(q math.Quat) PackedQuat {
	q = q.Normalize()
	c := [4]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)}

	idx := 0
	for i := 1; i < 4; i++ {
		if gomath.Abs(c[i]) > gomath.Abs(c[idx]) {
			idx = i
		}
	}

	var packed uint64
	if c[idx] < 0 {
		// Store -q so the rebuilt component is positive, and flag the flip.
		for i := range c {
			c[i] = -c[i]
		}
		packed |= 0x4
	}
	packed |= uint64(idx)

	shift := uint(3)
	for i := 0; i < 4; i++ {
		if i == idx {
			continue
		}
		packed |= quantize(c[i]) << shift
		shift += 15
	}

	return PackedQuat{uint16(packed), uint16(packed >> 16), uint16(packed >> 32)}
}
