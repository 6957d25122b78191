package playback

import "fmt"

// Clip is an in-process Handle that records what was asked of it. The
// headless binary attaches one to every piece in place of the video plugin.
type Clip struct {
	name       string
	frames     int
	frameRate  float64
	firstFrame int

	playing bool
	frame   int
	calls   []string
}

// NewClip creates a stopped clip positioned on its first active frame.
func NewClip(name string, frames int, frameRate float64, firstFrame int) *Clip {
	return &Clip{
		name:       name,
		frames:     frames,
		frameRate:  frameRate,
		firstFrame: firstFrame,
		frame:      firstFrame,
	}
}

func (c *Clip) Play(playing bool) {
	c.playing = playing
	c.calls = append(c.calls, fmt.Sprintf("play(%t)", playing))
}

func (c *Clip) SeekToFrame(frame int) {
	c.frame = frame
	c.calls = append(c.calls, fmt.Sprintf("seek(%d)", frame))
}

func (c *Clip) FirstActiveFrame() int   { return c.firstFrame }
func (c *Clip) SequenceFrameCount() int { return c.frames }
func (c *Clip) FrameRate() float64      { return c.frameRate }

// Name returns the clip's label.
func (c *Clip) Name() string { return c.name }

// Playing reports whether the clip is currently playing.
func (c *Clip) Playing() bool { return c.playing }

// Frame returns the last frame sought to.
func (c *Clip) Frame() int { return c.frame }

// Calls returns the recorded call log.
func (c *Clip) Calls() []string {
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}
