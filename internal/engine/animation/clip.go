package animation

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/math"
)

// ErrNoAnimationData is returned when a clip has neither bone nor visibility data.
var ErrNoAnimationData = errors.New("clip has no bone or visibility data")

// BoneChannels holds the tracks animating one bone. Nil channels keep the
// rest value.
type BoneChannels struct {
	Translate VectorTrack
	Rotate    RotationTrack
	Scale     VectorTrack
}

// VisibilityChannel binds a visibility track to a mesh path.
type VisibilityChannel struct {
	Mesh  string
	Track VisibilityTrack
}

// Clip is one named animation: bone channels and mesh visibility channels
// sharing a timeline.
type Clip struct {
	Name       string
	FrameCount uint32
	FrameRate  float32 // Frames per second
	Loop       bool
	Bones      map[string]BoneChannels
	Visibility []VisibilityChannel
}

// NewClip builds a clip from a bone animation file, a visibility file, or
// both. The bone file's playback info wins when both are present.
func NewClip(name string, anim *formats.AnimationFile, vis *formats.VisibilityFile) (*Clip, error) {
	if anim == nil && vis == nil {
		return nil, errors.Wrapf(ErrNoAnimationData, "clip %q", name)
	}

	c := &Clip{Name: name, Bones: make(map[string]BoneChannels)}
	if anim != nil {
		c.setInfo(anim.Info)
		for _, t := range anim.Tracks {
			c.Bones[t.Name] = BoneChannels{
				Translate: VectorTrackFrom(t.Translate),
				Rotate:    RotationTrackFrom(t.Rotate),
				Scale:     VectorTrackFrom(t.Scale),
			}
		}
	}
	if vis != nil {
		if anim == nil {
			c.setInfo(vis.Info)
		}
		for _, e := range vis.Tracks {
			c.Visibility = append(c.Visibility, VisibilityChannel{
				Mesh:  e.Mesh,
				Track: VisibilityTrackFrom(e.Track),
			})
		}
	}
	return c, nil
}

func (c *Clip) setInfo(info formats.PlaybackInfo) {
	c.FrameCount = info.FrameCount
	c.FrameRate = float32(info.FrameRate)
	c.Loop = info.Loop
}

// Merge folds other's channels into c. Channels already in c are kept; the
// timeline grows to the longer of the two.
func (c *Clip) Merge(other *Clip) {
	if other == nil {
		return
	}
	for name, ch := range other.Bones {
		if _, ok := c.Bones[name]; !ok {
			c.Bones[name] = ch
		}
	}
	c.Visibility = append(c.Visibility, other.Visibility...)
	if other.FrameCount > c.FrameCount {
		c.FrameCount = other.FrameCount
	}
	if c.FrameRate == 0 {
		c.FrameRate = other.FrameRate
	}
	c.Loop = c.Loop || other.Loop
}

// Duration returns the clip length in seconds, or 0 without a frame rate.
func (c *Clip) Duration() float32 {
	if c.FrameRate <= 0 {
		return 0
	}
	return float32(c.FrameCount) / c.FrameRate
}

// BonePose samples one bone's channels at frame, falling back to the given
// rest values for channels without data.
func (ch BoneChannels) BonePose(frame float32, t math.Vec3, r math.Quat, s math.Vec3) (math.Vec3, math.Quat, math.Vec3) {
	if v, ok := EvaluateVector(ch.Translate, frame); ok {
		t = v
	}
	if q, ok := EvaluateRotation(ch.Rotate, frame); ok {
		r = q
	}
	if v, ok := EvaluateVector(ch.Scale, frame); ok {
		s = v
	}
	return t, r, s
}

// ApplyPose poses skel at frame and updates its world matrices. Bones
// without channels take their rest pose.
func (c *Clip) ApplyPose(skel *skeleton.Skeleton, frame float32) {
	if skel == nil {
		return
	}
	for i := range skel.Bones {
		b := &skel.Bones[i]
		t, r, s := b.RestTranslation, b.RestRotation, b.RestScale
		if ch, ok := c.Bones[b.Name]; ok {
			t, r, s = ch.BonePose(frame, t, r, s)
		}
		skel.SetPose(i, t, r, s)
	}
	skel.UpdateWorld()
}

// VisibilityAt evaluates every visibility channel at frame.
func (c *Clip) VisibilityAt(frame float32) map[string]bool {
	out := make(map[string]bool, len(c.Visibility))
	for _, v := range c.Visibility {
		out[v.Mesh] = EvaluateVisibility(v.Track, frame)
	}
	return out
}

// UnmatchedBones returns channel names that have no bone in skel.
func (c *Clip) UnmatchedBones(skel *skeleton.Skeleton) []string {
	var out []string
	for name := range c.Bones {
		if skel == nil {
			out = append(out, name)
			continue
		}
		if _, ok := skel.BoneByName(name); !ok {
			out = append(out, name)
		}
	}
	if len(out) > 0 {
		logger.Named("animation").Debug("clip channels without bones",
			zap.String("clip", c.Name), zap.Strings("bones", out))
	}
	return out
}
