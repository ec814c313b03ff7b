package plan

import (
	"errors"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPerspectiveCamera(t *testing.T) {
	pose := SingleFloor().Camera
	c := NewPerspectiveCamera(pose, 16.0/9.0)

	assert.Equal(t, math32.Vec3(60, 50, 80), c.Position)
	assert.Equal(t, math32.Vec3(15, 5, 30), c.Target(), "starts at the initial target")
	assert.Equal(t, float32(45), c.FOV)
	assert.Equal(t, float32(16.0/9.0), c.ProjectionAspect())
	assert.Equal(t, 1, c.ProjectionVersion())
}

func TestPerspectiveCamera_SetViewport(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{1920, 1080},
		{800, 600},
		{375, 812},
		{1, 1},
	}
	for _, tt := range tests {
		c := NewPerspectiveCamera(SingleFloor().Camera, 1)
		require.NoError(t, c.SetViewport(tt.w, tt.h))
		want := float32(tt.w) / float32(tt.h)
		assert.Equal(t, want, c.Aspect)
		assert.Equal(t, want, c.ProjectionAspect(), "projection rebuilt with the new aspect")
		assert.Equal(t, 2, c.ProjectionVersion())
	}
}

func TestPerspectiveCamera_SetViewportRejectsNonPositive(t *testing.T) {
	c := NewPerspectiveCamera(SingleFloor().Camera, 2)
	for _, size := range [][2]int{{0, 100}, {100, 0}, {-5, 10}} {
		err := c.SetViewport(size[0], size[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidViewport))
	}
	assert.Equal(t, float32(2), c.Aspect)
	assert.Equal(t, 1, c.ProjectionVersion())
}

func TestPerspectiveCamera_AspectNeedsUpdate(t *testing.T) {
	c := NewPerspectiveCamera(SingleFloor().Camera, 1)
	c.Aspect = 3
	assert.Equal(t, float32(1), c.ProjectionAspect())
	c.UpdateProjectionMatrix()
	assert.Equal(t, float32(3), c.ProjectionAspect())
}

func TestPerspectiveCamera_Project(t *testing.T) {
	c := NewPerspectiveCamera(SingleFloor().Camera, 2)

	x, y, depth, ok := c.Project(c.Target(), 200, 100)
	require.True(t, ok)
	assert.InDelta(t, 100, x, 1e-3)
	assert.InDelta(t, 50, y, 1e-3)
	assert.InDelta(t, c.Target().Sub(c.Position).Length(), depth, 1e-3)

	// a point above the target appears higher on screen
	_, yAbove, _, ok := c.Project(c.Target().Add(math32.Vec3(0, 5, 0)), 200, 100)
	require.True(t, ok)
	assert.Less(t, yAbove, y)

	// behind the camera
	behind := c.Position.Add(c.Position.Sub(c.Target()))
	_, _, _, ok = c.Project(behind, 200, 100)
	assert.False(t, ok)
}
