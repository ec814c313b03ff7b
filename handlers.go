package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kwv/floorview/plan"
)

// maxEventBody caps POST /events payloads
const maxEventBody = 4096

// viewerState is what the HTTP surface reads from and posts to
type viewerState interface {
	Stats() plan.Stats
	Layout() *plan.Layout
	Document() *plan.Document
	Post(ev plan.Event) error
}

// frameSource yields the latest rendered frame
type frameSource interface {
	Frame() *plan.Frame
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(viewer viewerState, frames frameSource, hub http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := viewer.Stats()
		status := struct {
			Status      string    `json:"status"`
			Timestamp   time.Time `json:"timestamp"`
			Layout      string    `json:"layout"`
			HasFrame    bool      `json:"hasFrame"`
			TotalFrames uint64    `json:"totalFrames"`
		}{
			Status:      "ok",
			Timestamp:   time.Now(),
			Layout:      stats.Layout,
			HasFrame:    frames.Frame() != nil,
			TotalFrames: stats.TotalFrames,
		}
		writeJSON(w, "application/json", status)
	})

	// Latest frame, raster with HUD
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) {
		serveFrame(w, viewer, frames, plan.FormatPNG)
	})

	// Latest frame, vector
	mux.HandleFunc("/frame.svg", func(w http.ResponseWriter, r *http.Request) {
		serveFrame(w, viewer, frames, plan.FormatSVG)
	})

	mux.HandleFunc("/stats.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "application/json", viewer.Stats())
	})

	mux.HandleFunc("/rooms.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "application/json", plan.BuildRoomList(viewer.Layout()))
	})

	mux.HandleFunc("/layout.geojson", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "application/geo+json", plan.LayoutGeoJSON(viewer.Layout()))
	})

	// Input events from the page or any HTTP client
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}
		ev, err := plan.ParseEvent(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := viewer.Post(ev); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, plan.ErrEventQueueFull) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	if hub != nil {
		mux.Handle("/ws", hub)
	}

	// Default route serves the viewer page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		writePage(w, viewer.Layout().Name, viewer.Document().Snapshot())
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}

func serveFrame(w http.ResponseWriter, viewer viewerState, frames frameSource, format string) {
	frame := frames.Frame()
	if frame == nil {
		http.Error(w, "No frame rendered yet", http.StatusServiceUnavailable)
		return
	}

	var hud *plan.HUD
	contentType := "image/svg+xml"
	if format == plan.FormatPNG {
		stats := viewer.Stats()
		hud = &plan.HUD{Layout: stats.Layout, FPS: stats.FPS, CameraPos: stats.CameraPos}
		contentType = "image/png"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if err := plan.EncodeFrame(w, frame, format, hud); err != nil {
		log.Printf("[HTTP] Error encoding %s frame: %v", format, err)
	}
}

func writeJSON(w http.ResponseWriter, contentType string, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Error encoding response: %v", err)
	}
}

// writePage renders the document body inside the viewer page shell
func writePage(w io.Writer, title string, body *plan.Element) {
	var sb strings.Builder
	for _, el := range body.Children {
		renderElement(&sb, el)
	}
	_, _ = fmt.Fprintf(w, pageTemplate, html.EscapeString(title), sb.String())
}

// renderElement writes el as HTML. The renderer output image points at the
// live frame endpoint.
func renderElement(sb *strings.Builder, el *plan.Element) {
	sb.WriteString("<" + el.Tag)
	if el.ID != "" {
		sb.WriteString(` id="` + html.EscapeString(el.ID) + `"`)
	}
	if el.Class != "" {
		sb.WriteString(` class="` + html.EscapeString(el.Class) + `"`)
	}
	if el.Tag == "img" {
		sb.WriteString(` src="/frame.png" alt="floor plan"`)
		sb.WriteString(">")
		return
	}
	sb.WriteString(">")
	sb.WriteString(html.EscapeString(el.Text))
	for _, c := range el.Children {
		renderElement(sb, c)
	}
	sb.WriteString("</" + el.Tag + ">")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>floorview: %s</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
html,body{width:100%%;height:100%%;overflow:hidden;background:#333;font-family:sans-serif;color:#eee}
#canvas-container{position:absolute;inset:0}
#canvas-container img{display:block;width:100vw;height:100vh;object-fit:contain;user-select:none}
#room-list{position:absolute;top:10px;right:10px;max-height:80vh;overflow-y:auto;background:rgba(0,0,0,.6);padding:10px;border-radius:4px;min-width:220px}
.room-item{padding:4px 0;border-bottom:1px solid #555}
.room-name{font-weight:bold}
.room-size{font-size:12px;color:#bbb}
#info{position:absolute;bottom:10px;left:10px;background:rgba(0,0,0,.6);padding:8px;border-radius:4px;font-size:12px}
</style>
</head>
<body>
%s
<script>
(function(){
  var img=document.querySelector('#canvas-container img');
  function post(ev){fetch('/events',{method:'POST',body:JSON.stringify(ev)});}
  function refresh(){if(img){img.src='/frame.png?t='+Date.now();}}
  setInterval(refresh,100);
  function resize(){post({type:'resize',width:window.innerWidth,height:window.innerHeight});}
  window.addEventListener('resize',resize);resize();
  window.addEventListener('dblclick',function(){post({type:'dblclick'});});
  var drag=null;
  window.addEventListener('mousedown',function(e){drag={x:e.clientX,y:e.clientY,pan:e.button===2||e.shiftKey};});
  window.addEventListener('mouseup',function(){drag=null;});
  window.addEventListener('contextmenu',function(e){e.preventDefault();});
  window.addEventListener('mousemove',function(e){
    if(!drag){return;}
    var dx=e.clientX-drag.x,dy=e.clientY-drag.y;drag.x=e.clientX;drag.y=e.clientY;
    if(drag.pan){post({type:'pan',dx:dx*0.1,dy:dy*0.1});}
    else{post({type:'rotate',dx:dx*0.01,dy:dy*0.01});}
  });
  window.addEventListener('wheel',function(e){post({type:'zoom',scale:e.deltaY>0?1.1:0.9});});
  var proto=location.protocol==='https:'?'wss://':'ws://';
  var ws=new WebSocket(proto+location.host+'/ws');
  ws.onmessage=function(m){
    var d=JSON.parse(m.data);
    document.getElementById('fps').textContent=d.fps;
    if(d.cameraPos){document.getElementById('camera-pos').textContent=d.cameraPos;}
  };
})();
</script>
</body>
</html>`
