package animation

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/internal/logger"
)

// DefaultFrameRate is used for clips that declare no frame rate.
const DefaultFrameRate = 30

// State is the playback state of a Player.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Player plays a clip onto a skeleton.
//
// Looping clips wrap modulo the frame count, so the frame after the last is
// frame 0, the same frame Stop returns to. Non-looping clips hold the last
// frame and pause; Play then restarts from frame 0.
type Player struct {
	clip  *Clip
	skel  *skeleton.Skeleton // May be nil for visibility-only playback
	state State
	frame float32
	ended bool

	visibility map[string]bool
	log        *zap.Logger
}

// NewPlayer creates a stopped player at frame 0. The skeleton is left in its
// bind pose until playback starts.
func NewPlayer(clip *Clip, skel *skeleton.Skeleton) *Player {
	return &Player{
		clip: clip,
		skel: skel,
		log:  logger.Named("player").With(zap.String("clip", clip.Name)),
	}
}

// Clip returns the clip being played.
func (p *Player) Clip() *Clip { return p.clip }

// Skeleton returns the posed skeleton, or nil.
func (p *Player) Skeleton() *skeleton.Skeleton { return p.skel }

// State returns the playback state.
func (p *Player) State() State { return p.state }

// Frame returns the current frame.
func (p *Player) Frame() float32 { return p.frame }

// Visibility returns mesh visibility at the current frame. Meshes missing
// from the map are visible.
func (p *Player) Visibility() map[string]bool { return p.visibility }

func (p *Player) frameRate() float32 {
	if p.clip.FrameRate > 0 {
		return p.clip.FrameRate
	}
	return DefaultFrameRate
}

func (p *Player) setState(s State) {
	if p.state == s {
		return
	}
	p.log.Debug("playback state", zap.Stringer("from", p.state), zap.Stringer("to", s), zap.Float32("frame", p.frame))
	p.state = s
}

// Play starts or resumes playback.
func (p *Player) Play() {
	if p.state == Playing {
		return
	}
	if p.ended {
		p.ended = false
		p.frame = 0
	}
	p.setState(Playing)
	p.apply()
}

// Pause halts playback, keeping the frame and pose.
func (p *Player) Pause() {
	if p.state != Playing {
		return
	}
	p.setState(Paused)
}

// Stop returns to frame 0 and the bind pose.
func (p *Player) Stop() {
	p.setState(Stopped)
	p.frame = 0
	p.ended = false
	p.visibility = nil
	if p.skel != nil {
		p.skel.ResetToBindPose()
	}
}

// Seek jumps to frame, clamped to the clip, and applies the pose without
// changing the state.
func (p *Player) Seek(frame float32) {
	last := p.lastFrame()
	switch {
	case frame < 0:
		frame = 0
	case frame > last:
		frame = last
	}
	p.frame = frame
	p.ended = false
	p.apply()
}

func (p *Player) lastFrame() float32 {
	if p.clip.FrameCount == 0 {
		return 0
	}
	return float32(p.clip.FrameCount - 1)
}

// Update advances playback by deltaMs milliseconds of wall time.
func (p *Player) Update(deltaMs float32) {
	if p.state != Playing || deltaMs <= 0 {
		return
	}

	count := float32(p.clip.FrameCount)
	p.frame += deltaMs / 1000 * p.frameRate()

	if count > 0 && p.frame >= count {
		if p.clip.Loop {
			p.frame = float32(gomath.Mod(float64(p.frame), float64(count)))
		} else {
			p.frame = count - 1
			p.ended = true
			p.setState(Paused)
		}
	}
	p.apply()
}

func (p *Player) apply() {
	p.clip.ApplyPose(p.skel, p.frame)
	p.visibility = p.clip.VisibilityAt(p.frame)
}
