package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kwv/floorview/plan"
)

const defaultConfigFile = "config.yaml"

// App encapsulates the application state and dependencies
type App struct {
	Config     *plan.Config
	Layout     *plan.Layout
	Viewer     *plan.Viewer
	Renderer   *plan.SceneRenderer
	MQTTClient *plan.MQTTClient
	Publisher  *plan.Publisher
	Hub        *statsHub
	Out        io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	LayoutName   string
	LayoutFile   string
	OutputFile   string
	RenderFormat string
	ExportPath   string
	Width        int
	Height       int
	HttpPort     int
	FrameRate    int
	MqttMode     bool

	roomsPublished atomic.Bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		Out:        os.Stdout,
		ConfigFile: defaultConfigFile,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.LayoutName = opts.LayoutName
	a.LayoutFile = opts.LayoutFile
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.ExportPath = opts.ExportLayout
	a.Width = opts.Width
	a.Height = opts.Height
	a.HttpPort = opts.HttpPort
	a.FrameRate = opts.FrameRate
	a.MqttMode = opts.MqttMode
}

// loadConfig reads the config file (falling back to defaults when the
// default file is absent), applies flag overrides and resolves the layout
func (a *App) loadConfig() error {
	var config *plan.Config
	if _, err := os.Stat(a.ConfigFile); errors.Is(err, os.ErrNotExist) && a.ConfigFile == defaultConfigFile {
		log.Printf("No %s found, using defaults", defaultConfigFile)
		config = plan.DefaultConfig()
	} else {
		config, err = plan.LoadConfig(a.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading config %s: %w", a.ConfigFile, err)
		}
		log.Printf("Loaded config from %s", a.ConfigFile)
	}

	if a.LayoutName != "" {
		config.Layout = a.LayoutName
		config.LayoutFile = ""
	}
	if a.LayoutFile != "" {
		config.LayoutFile = a.LayoutFile
	}
	if a.Width < 0 || a.Height < 0 || a.FrameRate < 0 || a.HttpPort < 0 {
		return fmt.Errorf("width, height, fps and http-port must not be negative")
	}
	if a.Width > 0 {
		config.Render.Width = a.Width
	}
	if a.Height > 0 {
		config.Render.Height = a.Height
	}
	if a.FrameRate > 0 {
		config.Render.FrameRate = a.FrameRate
	}
	if a.HttpPort > 0 {
		config.HTTP.Port = a.HttpPort
	}
	if config.Render.Width > plan.MaxViewport || config.Render.Height > plan.MaxViewport {
		return fmt.Errorf("%w: %dx%d (max %d per side)", plan.ErrInvalidViewport,
			config.Render.Width, config.Render.Height, plan.MaxViewport)
	}

	layout, err := plan.ResolveLayout(config)
	if err != nil {
		return fmt.Errorf("resolving layout: %w", err)
	}
	a.Config = config
	a.Layout = layout
	log.Printf("Layout: %s (%d rooms)", layout.Name, len(layout.Rooms))
	return nil
}

// newViewer builds the viewer with a scene renderer sized from the config
func (a *App) newViewer() error {
	w, h := a.Config.Render.Width, a.Config.Render.Height
	a.Renderer = plan.NewSceneRenderer(w, h)
	viewer, err := plan.NewViewer(a.Layout, plan.ViewerOptions{
		Width:    w,
		Height:   h,
		Renderer: a.Renderer,
	})
	if err != nil {
		return err
	}
	a.Viewer = viewer
	return nil
}

// RunRender renders one frame at the layout's initial pose and writes it to a file
func (a *App) RunRender() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.newViewer(); err != nil {
		return err
	}

	format := a.RenderFormat
	if format == "" {
		format = plan.FormatPNG
	}
	if format != plan.FormatPNG && format != plan.FormatSVG {
		return fmt.Errorf("unsupported format %q (want png or svg)", format)
	}
	output := a.OutputFile
	if output == "" {
		output = "frame." + format
	}

	a.Viewer.Tick(time.Now())
	frame := a.Renderer.Frame()
	stats := a.Viewer.Stats()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	hud := &plan.HUD{Layout: stats.Layout, FPS: stats.FPS, CameraPos: stats.CameraPos}
	if err := plan.EncodeFrame(f, frame, format, hud); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	_, _ = fmt.Fprintf(a.Out, "Rendered %s: %dx%d, %d primitives, camera %s\n",
		output, frame.Width, frame.Height, len(frame.Primitives), stats.CameraPos)
	return nil
}

// RunList prints the room list the sidebar would show
func (a *App) RunList() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	entries := plan.BuildRoomList(a.Layout)
	_, _ = fmt.Fprintf(a.Out, "Layout %s: %d rooms\n\n", a.Layout.Name, len(entries))
	for _, e := range entries {
		_, _ = fmt.Fprintf(a.Out, "  %-28s %s\n", e.Title(), e.SizeText())
	}
	_, _ = fmt.Fprintf(a.Out, "\nTotal floor area: %.0f sq ft\n", plan.FloorArea(a.Layout))
	rooms := a.Layout.RoomsBound()
	_, _ = fmt.Fprintf(a.Out, "Rooms span: %g' × %g'\n", rooms.Right()-rooms.Left(), rooms.Top()-rooms.Bottom())
	if walls := a.Layout.FootprintBound(); !walls.Contains(rooms.Min) || !walls.Contains(rooms.Max) {
		_, _ = fmt.Fprintln(a.Out, "Warning: rooms extend past the boundary walls")
	}
	if !plan.ShadowCovers(a.Layout) {
		_, _ = fmt.Fprintln(a.Out, "Warning: directional shadow extent does not cover the footprint")
	}
	return nil
}

// RunExportLayout writes the resolved layout as YAML
func (a *App) RunExportLayout() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := plan.SaveLayout(a.ExportPath, a.Layout); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.Out, "Wrote layout %s to %s\n", a.Layout.Name, a.ExportPath)
	return nil
}

// RunServe runs the render loop and the HTTP surface until SIGINT/SIGTERM
func (a *App) RunServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return a.serve(ctx)
}

// serve starts every service and blocks until ctx is done
func (a *App) serve(ctx context.Context) error {
	fmt.Println("Starting floorview service...")

	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.newViewer(); err != nil {
		return err
	}

	a.Hub = newStatsHub(a.Viewer.Post, a.Viewer.Stats())

	if a.MqttMode {
		if err := a.startMQTT(); err != nil {
			return err
		}
		defer a.MQTTClient.Disconnect()
	}

	// Stats handlers run on the loop goroutine and must not block
	a.Viewer.OnStats(func(s plan.Stats) {
		go a.Hub.Broadcast(s)
		if a.Publisher != nil {
			go a.publishStats(s)
		}
	})

	scheduler := plan.NewTickerScheduler(a.Config.Render.FrameRate, nil)
	a.Viewer.Start(scheduler)
	go scheduler.Run(ctx)
	log.Printf("[LOOP] Rendering %s at %d fps (%v per frame)", a.Layout.Name, a.Config.Render.FrameRate, scheduler.Interval())

	addr := fmt.Sprintf("0.0.0.0:%d", a.Config.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           newHTTPServer(a.Viewer, a.Renderer, a.Hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.printServiceInfo()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[HTTP] Shutdown error: %v", err)
	}
	fmt.Println("Stopped")
	return nil
}

// startMQTT connects to the broker and routes remote events into the loop
func (a *App) startMQTT() error {
	client, err := plan.InitMQTT(a.Config, a.Layout.Name, func(ev plan.Event) {
		if err := a.Viewer.Post(ev); err != nil {
			log.Printf("[MQTT] Event %s not queued: %v", ev.Type, err)
		}
	})
	if err != nil {
		return fmt.Errorf("initializing MQTT: %w", err)
	}
	if client == nil {
		return fmt.Errorf("MQTT broker not configured (set mqtt.broker or MQTT_BROKER)")
	}
	a.MQTTClient = client
	a.Publisher = plan.NewPublisher(client.GetClient(), plan.PublishPrefix(a.Config), a.Layout.Name)
	fmt.Println("MQTT stats publisher initialized")
	return nil
}

// publishStats publishes a flush and, once per lifetime of the app, the
// room list. Calls may overlap; only one of them claims the room list.
func (a *App) publishStats(s plan.Stats) {
	if err := a.Publisher.PublishStats(s); err != nil {
		log.Printf("[MQTT] Error publishing stats: %v", err)
		return
	}
	if !a.roomsPublished.CompareAndSwap(false, true) {
		return
	}
	if err := a.Publisher.PublishRooms(plan.BuildRoomList(a.Layout)); err != nil {
		log.Printf("[MQTT] Error publishing rooms: %v", err)
		a.roomsPublished.Store(false)
	}
}

func (a *App) printServiceInfo() {
	fmt.Println("\nService Running")
	fmt.Println("===============")
	fmt.Printf("Layout: %s, viewport %dx%d\n", a.Layout.Name, a.Config.Render.Width, a.Config.Render.Height)

	if a.MqttMode {
		prefix := plan.PublishPrefix(a.Config)
		fmt.Println("\nMQTT:")
		fmt.Printf("  Subscribed: %s\n", plan.EventsTopic(prefix, a.Layout.Name))
		fmt.Printf("  Publishing: %s, %s\n", plan.StatsTopic(prefix, a.Layout.Name), plan.RoomsTopic(prefix, a.Layout.Name))
	}

	fmt.Printf("\nHTTP endpoints (port %d):\n", a.Config.HTTP.Port)
	fmt.Println("  GET  /               - Viewer page")
	fmt.Println("  GET  /frame.png      - Latest frame with HUD")
	fmt.Println("  GET  /frame.svg      - Latest frame as SVG")
	fmt.Println("  GET  /stats.json     - FPS and camera readout")
	fmt.Println("  GET  /rooms.json     - Room list")
	fmt.Println("  GET  /layout.geojson - Room footprints")
	fmt.Println("  GET  /health         - Health check")
	fmt.Println("  POST /events         - resize, dblclick, rotate, pan, zoom")
	fmt.Println("  GET  /ws             - Live readout and event socket")

	fmt.Println("\nPress Ctrl+C to stop")
}
