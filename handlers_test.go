package main

import (
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kwv/floorview/plan"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type testServer struct {
	viewer   *plan.Viewer
	renderer *plan.SceneRenderer
	clock    *plan.MockClock
	hub      *statsHub
	handler  http.Handler
}

// newTestServer builds a viewer on a mock clock with a small renderer
func newTestServer(t *testing.T, layout *plan.Layout) *testServer {
	t.Helper()
	clock := plan.NewMockClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	renderer := plan.NewSceneRenderer(160, 90)
	viewer, err := plan.NewViewer(layout, plan.ViewerOptions{Width: 160, Height: 90, Clock: clock, Renderer: renderer})
	require.NoError(t, err)
	hub := newStatsHub(viewer.Post, viewer.Stats())
	return &testServer{
		viewer:   viewer,
		renderer: renderer,
		clock:    clock,
		hub:      hub,
		handler:  newHTTPServer(viewer, renderer, hub),
	}
}

func (s *testServer) tick() {
	s.clock.Advance(100 * time.Millisecond)
	s.viewer.Tick(s.clock.Now())
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

// ---------------------------------------------------------------------------
// read endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())

	rr := s.get(t, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "single-floor", status["layout"])
	assert.Equal(t, false, status["hasFrame"])

	s.tick()
	require.NoError(t, json.Unmarshal(s.get(t, "/health").Body.Bytes(), &status))
	assert.Equal(t, true, status["hasFrame"])
}

func TestFrameEndpoints_BeforeFirstTick(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	for _, path := range []string{"/frame.png", "/frame.svg"} {
		rr := s.get(t, path)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rr.Code)
		}
	}
}

func TestFramePNG(t *testing.T) {
	s := newTestServer(t, plan.TwoFloor())
	s.tick()

	rr := s.get(t, "/frame.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))

	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestFrameSVG(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	s.tick()

	rr := s.get(t, "/frame.svg")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<svg")
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	for i := 0; i < 10; i++ {
		s.tick()
	}

	rr := s.get(t, "/stats.json")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats plan.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.FPS)
	assert.Equal(t, "60, 50, 80", stats.CameraPos)
	assert.Equal(t, uint64(10), stats.TotalFrames)
}

func TestRoomsEndpoint(t *testing.T) {
	s := newTestServer(t, plan.TwoFloor())

	rr := s.get(t, "/rooms.json")
	require.Equal(t, http.StatusOK, rr.Code)
	var rooms []plan.RoomListEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
	require.Len(t, rooms, 12)
	assert.Equal(t, "[GF]", rooms[0].FloorLabel)
	assert.Equal(t, 1800, rooms[0].Area)
}

func TestLayoutGeoJSONEndpoint(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())

	rr := s.get(t, "/layout.geojson")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 14)
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	s.tick()

	rr := s.get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, want := range []string{
		`id="canvas-container"`,
		`id="room-list-content"`,
		`id="fps"`,
		`id="camera-pos">60, 50, 80<`,
		`src="/frame.png"`,
		`class="room-item"`,
		"Parking/Terrace",
		"10&#39; × 13&#39; = 130 sq ft",
		"<title>floorview: single-floor</title>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}

	if rr := s.get(t, "/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestRenderElement_Escapes(t *testing.T) {
	var sb strings.Builder
	renderElement(&sb, &plan.Element{Tag: "div", Class: "room-name", Text: "<b>Hall & Co</b>"})
	assert.Equal(t, `<div class="room-name">&lt;b&gt;Hall &amp; Co&lt;/b&gt;</div>`, sb.String())
}

// ---------------------------------------------------------------------------
// events
// ---------------------------------------------------------------------------

func TestEventsEndpoint(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"get not allowed", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"bad resize", http.MethodPost, `{"type":"resize","width":0,"height":10}`, http.StatusBadRequest},
		{"unknown type", http.MethodPost, `{"type":"keydown"}`, http.StatusBadRequest},
		{"oversized resize", http.MethodPost, `{"type":"resize","width":100000,"height":100000}`, http.StatusBadRequest},
		{"overflowing rotate", http.MethodPost, `{"type":"rotate","dx":1e39}`, http.StatusBadRequest},
		{"overflowing pan", http.MethodPost, `{"type":"pan","dy":-1e39}`, http.StatusBadRequest},
		{"resize", http.MethodPost, `{"type":"resize","width":400,"height":200}`, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/events", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			s.handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, rr.Code, rr.Body.String())
			}
		})
	}

	s.tick()
	assert.Equal(t, float32(2), s.viewer.Camera().Aspect)
	assert.Equal(t, 400, s.viewer.Stats().Width)
}

func TestEventsEndpoint_QueueFull(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())

	var last *httptest.ResponseRecorder
	for i := 0; i < 100; i++ {
		last = s.post(t, "/events", `{"type":"rotate","dx":0.01}`)
		if last.Code != http.StatusAccepted {
			break
		}
	}
	assert.Equal(t, http.StatusServiceUnavailable, last.Code)
}

func TestEventsEndpoint_DoubleClickRestoresPose(t *testing.T) {
	s := newTestServer(t, plan.TwoFloor())

	s.post(t, "/events", `{"type":"rotate","dx":1.2,"dy":0.2}`)
	s.post(t, "/events", `{"type":"zoom","scale":0.6}`)
	for i := 0; i < 5; i++ {
		s.tick()
	}
	require.NotEqual(t, "80, 60, 100", s.viewer.Stats().CameraPos)

	rr := s.post(t, "/events", `{"type":"dblclick"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)
	s.tick()
	assert.Equal(t, "80, 60, 100", s.viewer.Stats().CameraPos)
}

// ---------------------------------------------------------------------------
// websocket
// ---------------------------------------------------------------------------

func TestWebSocket_ReadoutAndEvents(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	// initial readout carries the camera position before any FPS flush
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first readoutMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, readoutMessage{FPS: 0, CameraPos: "60, 50, 80"}, first)
	assert.Equal(t, 1, s.hub.Clients())

	s.hub.Broadcast(plan.Stats{FPS: 42, CameraPos: "1, 2, 3"})
	var msg readoutMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, readoutMessage{FPS: 42, CameraPos: "1, 2, 3"}, msg)

	// events sent over the socket reach the loop
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize","width":300,"height":100}`)))
	require.Eventually(t, func() bool {
		s.tick()
		return s.viewer.Stats().Width == 300
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, float32(3), s.viewer.Camera().Aspect)
}

func TestWebSocket_ClientRemovedOnClose(t *testing.T) {
	s := newTestServer(t, plan.SingleFloor())
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var first readoutMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, 1, s.hub.Clients())

	conn.Close()
	require.Eventually(t, func() bool { return s.hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
