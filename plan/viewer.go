package plan

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEventQueueFull is returned by Post when the loop is not keeping up
var ErrEventQueueFull = errors.New("event queue full")

const eventQueueSize = 64

// StatsHandler is called on the loop goroutine after each FPS flush.
// Handlers must not block.
type StatsHandler func(Stats)

// ViewerOptions configures NewViewer. Zero values select defaults.
type ViewerOptions struct {
	Width    int
	Height   int
	Clock    Clock
	Renderer Renderer
	Document *Document
}

// Viewer owns one viewing session: scene, camera, controls, renderer and
// page document. All mutation happens in Tick, on the loop goroutine; other
// goroutines post events and read snapshots.
type Viewer struct {
	layout   *Layout
	scene    *Scene
	camera   *PerspectiveCamera
	controls *OrbitControls
	renderer Renderer
	doc      *Document
	clock    Clock
	session  Session
	width    int
	height   int
	events   chan Event
	started  bool

	mu       sync.RWMutex
	stats    Stats
	handlers []StatsHandler
}

// NewViewer builds the scene for a layout, mounts the renderer output and
// the room list into the document, and places the camera at the layout's
// initial pose. It fails if any required mount point is missing.
func NewViewer(layout *Layout, opts ViewerOptions) (*Viewer, error) {
	if opts.Width == 0 {
		opts.Width = DefaultRenderWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultRenderHeight
	}
	if !validViewport(opts.Width, opts.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, opts.Width, opts.Height)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Document == nil {
		opts.Document = NewViewerDocument()
	}
	if opts.Renderer == nil {
		opts.Renderer = NewSceneRenderer(opts.Width, opts.Height)
	}

	doc := opts.Document
	if err := doc.Require(IDCanvasContainer, IDRoomList, IDFPS, IDCameraPos); err != nil {
		return nil, fmt.Errorf("initializing viewer: %w", err)
	}

	v := &Viewer{
		layout:   layout,
		scene:    Materialize(layout),
		renderer: opts.Renderer,
		doc:      doc,
		clock:    opts.Clock,
		width:    opts.Width,
		height:   opts.Height,
		events:   make(chan Event, eventQueueSize),
	}

	v.camera = NewPerspectiveCamera(layout.Camera, float32(opts.Width)/float32(opts.Height))
	v.renderer.SetSize(opts.Width, opts.Height)
	if err := doc.AppendChild(IDCanvasContainer, v.renderer.Element()); err != nil {
		return nil, fmt.Errorf("mounting renderer: %w", err)
	}
	v.controls = NewOrbitControls(v.camera, vec3(layout.Camera.InitialTarget()))

	if err := PopulateRoomList(doc, BuildRoomList(layout)); err != nil {
		return nil, err
	}

	v.session = Session{ID: uuid.NewString(), LastUpdate: v.clock.Now()}
	v.publishStats()
	return v, nil
}

// Start registers the loop with a scheduler. Only the first call has effect.
func (v *Viewer) Start(s FrameScheduler) {
	if v.started {
		return
	}
	v.started = true
	s.RequestFrame(v.Tick)
}

// OnStats registers a handler for FPS flushes
func (v *Viewer) OnStats(h StatsHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers = append(v.handlers, h)
}

// Post queues an event for the next tick. Safe for concurrent use.
func (v *Viewer) Post(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	select {
	case v.events <- ev:
		return nil
	default:
		return ErrEventQueueFull
	}
}

// Tick runs one loop iteration: apply queued events, count the frame,
// advance the controls, render, then update the readouts.
func (v *Viewer) Tick(now time.Time) {
	v.drainEvents()

	v.session.countFrame()
	v.controls.Update()
	v.renderer.Render(v.scene, v.camera)

	flushed := v.session.flushFPS(now)
	if flushed {
		v.setText(IDFPS, strconv.Itoa(v.session.FPS))
	}
	v.setText(IDCameraPos, FormatCameraPos(v.camera.Position))

	stats := v.publishStats()
	if flushed {
		v.mu.RLock()
		handlers := append([]StatsHandler(nil), v.handlers...)
		v.mu.RUnlock()
		for _, h := range handlers {
			h(stats)
		}
	}
}

func (v *Viewer) setText(id, text string) {
	if err := v.doc.SetText(id, text); err != nil {
		log.Printf("[LOOP] %v", err)
	}
}

func (v *Viewer) drainEvents() {
	for {
		select {
		case ev := <-v.events:
			v.apply(ev)
		default:
			return
		}
	}
}

func (v *Viewer) apply(ev Event) {
	switch ev.Type {
	case EventResize:
		if err := v.OnResize(ev.Width, ev.Height); err != nil {
			log.Printf("[LOOP] Ignoring resize: %v", err)
		}
	case EventDoubleClick:
		v.OnDoubleClick()
	case EventRotate:
		v.controls.Rotate(float32(ev.DX), float32(ev.DY))
	case EventPan:
		v.controls.Pan(float32(ev.DX), float32(ev.DY))
	case EventZoom:
		v.controls.Zoom(float32(ev.Scale))
	}
}

// OnResize sets the camera aspect to width/height, rebuilds the projection
// and resizes the renderer. Must run on the loop goroutine.
func (v *Viewer) OnResize(width, height int) error {
	if err := v.camera.SetViewport(width, height); err != nil {
		return err
	}
	v.renderer.SetSize(width, height)
	v.width, v.height = width, height
	return nil
}

// OnDoubleClick snaps the camera back to the layout's initial pose and
// re-synchronizes the controls. Must run on the loop goroutine.
func (v *Viewer) OnDoubleClick() {
	pose := v.layout.Camera
	v.controls.Reset(vec3(pose.Target), vec3(pose.Position))
	v.controls.Update()
}

func (v *Viewer) publishStats() Stats {
	stats := Stats{
		SessionID:   v.session.ID,
		Layout:      v.layout.Name,
		FPS:         v.session.FPS,
		CameraPos:   FormatCameraPos(v.camera.Position),
		Camera:      fromVec3(v.camera.Position),
		Target:      fromVec3(v.controls.Target),
		Width:       v.width,
		Height:      v.height,
		Aspect:      float64(v.camera.Aspect),
		TotalFrames: v.session.TotalFrames,
		Timestamp:   v.clock.Now().Unix(),
	}
	v.mu.Lock()
	v.stats = stats
	v.mu.Unlock()
	return stats
}

// Stats returns the snapshot published by the last tick
func (v *Viewer) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

// Session returns a copy of the loop state. Must run on the loop goroutine.
func (v *Viewer) Session() Session {
	return v.session
}

// Layout returns the layout the viewer was built from
func (v *Viewer) Layout() *Layout {
	return v.layout
}

// Scene returns the materialized scene
func (v *Viewer) Scene() *Scene {
	return v.scene
}

// Camera returns the session camera
func (v *Viewer) Camera() *PerspectiveCamera {
	return v.camera
}

// Controls returns the orbit controls
func (v *Viewer) Controls() *OrbitControls {
	return v.controls
}

// Document returns the page document
func (v *Viewer) Document() *Document {
	return v.doc
}

// Renderer returns the drawing collaborator
func (v *Viewer) Renderer() Renderer {
	return v.renderer
}
