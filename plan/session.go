package plan

import (
	"fmt"
	"math"
	"time"

	"cogentcore.org/core/math32"
)

// fpsWindow is the minimum time between FPS readout flushes
const fpsWindow = time.Second

// Session is the mutable per-viewer loop state
type Session struct {
	ID          string
	FrameCount  int
	LastUpdate  time.Time
	FPS         int
	TotalFrames uint64
}

// countFrame records one rendered frame
func (s *Session) countFrame() {
	s.FrameCount++
	s.TotalFrames++
}

// flushFPS moves the frame counter into FPS when at least one second has
// passed since the last flush. It reports whether a flush happened.
func (s *Session) flushFPS(now time.Time) bool {
	if now.Before(s.LastUpdate.Add(fpsWindow)) {
		return false
	}
	s.FPS = s.FrameCount
	s.FrameCount = 0
	s.LastUpdate = now
	return true
}

// Stats is the published snapshot of a viewer
type Stats struct {
	SessionID   string  `json:"sessionId"`
	Layout      string  `json:"layout"`
	FPS         int     `json:"fps"`
	CameraPos   string  `json:"cameraPos"`
	Camera      Vec3    `json:"camera"`
	Target      Vec3    `json:"target"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Aspect      float64 `json:"aspect"`
	TotalFrames uint64  `json:"totalFrames"`
	Timestamp   int64   `json:"timestamp"`
}

// FormatCameraPos renders a position rounded to whole units as "x, y, z"
func FormatCameraPos(p math32.Vector3) string {
	return fmt.Sprintf("%d, %d, %d", roundUnit(p.X), roundUnit(p.Y), roundUnit(p.Z))
}

func roundUnit(v float32) int {
	return int(math.Round(float64(v)))
}
