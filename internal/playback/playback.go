// Package playback drives the volumetric-video handle attached to each piece.
// The handle itself belongs to the rendering plugin; this package only
// sequences play, stop and rest-frame seeks around it.
package playback

import (
	"time"
)

// Handle is the animation surface exposed by a piece's video plugin.
type Handle interface {
	Play(playing bool)
	SeekToFrame(frame int)
	FirstActiveFrame() int
	SequenceFrameCount() int
	FrameRate() float64
}

// Delayer schedules a callback after a delay.
type Delayer interface {
	After(d time.Duration, name string, fn func())
}

// Duration is the natural length of the handle's sequence (frames / frame
// rate). Returns fallback when the handle has no usable frame rate.
func Duration(h Handle, fallback time.Duration) time.Duration {
	if h == nil || h.FrameRate() <= 0 || h.SequenceFrameCount() <= 0 {
		return fallback
	}
	secs := float64(h.SequenceFrameCount()) / h.FrameRate()
	return time.Duration(secs * float64(time.Second))
}

// Rest stops the handle and rewinds it to its first active frame.
func Rest(h Handle) {
	if h == nil {
		return
	}
	h.Play(false)
	h.SeekToFrame(h.FirstActiveFrame())
}

// PlayFor starts h and, after d, stops it and rewinds to the rest frame.
// onDone runs after the rewind and may be nil.
func PlayFor(s Delayer, h Handle, d time.Duration, onDone func()) {
	if h == nil {
		if onDone != nil {
			s.After(d, "playback:done", onDone)
		}
		return
	}
	h.Play(true)
	s.After(d, "playback:rest", func() {
		Rest(h)
		if onDone != nil {
			onDone()
		}
	})
}

// StopAll pauses every non-nil handle without seeking.
func StopAll(handles ...Handle) {
	for _, h := range handles {
		if h != nil {
			h.Play(false)
		}
	}
}
