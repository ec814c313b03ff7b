package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds all CLI flags
type AppOptions struct {
	ConfigFile   string
	LayoutName   string
	LayoutFile   string
	OutputFile   string
	RenderFormat string
	ExportLayout string
	Width        int
	Height       int
	HttpPort     int
	FrameRate    int
	RenderOnly   bool
	ListRooms    bool
	ServeMode    bool
	MqttMode     bool
}

// Runner is the application surface driven by the CLI
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunRender() error
	RunList() error
	RunExportLayout() error
	RunServe() error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("floorview: %v", err)
	}
}

// run parses args, applies them to app and dispatches to the selected mode
func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("floorview", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", defaultConfigFile, "Path to configuration file")
	fs.StringVar(&opts.LayoutName, "layout", "", "Built-in layout: single-floor or two-floor (default from config)")
	fs.StringVar(&opts.LayoutFile, "layout-file", "", "Load the layout from a YAML file instead of a built-in")
	fs.StringVar(&opts.OutputFile, "output", "", "Output file for --render (default frame.<format>)")
	fs.StringVar(&opts.RenderFormat, "format", "png", "Render format: png or svg")
	fs.StringVar(&opts.ExportLayout, "export-layout", "", "Write the resolved layout as YAML to this path and exit")
	fs.IntVar(&opts.Width, "width", 0, "Viewport width in pixels (default from config)")
	fs.IntVar(&opts.Height, "height", 0, "Viewport height in pixels (default from config)")
	fs.IntVar(&opts.HttpPort, "http-port", 0, "HTTP server port (default from config, 8080)")
	fs.IntVar(&opts.FrameRate, "fps", 0, "Target frame rate of the render loop (default from config)")
	fs.BoolVar(&opts.RenderOnly, "render", false, "Render a single frame to --output and exit")
	fs.BoolVar(&opts.ListRooms, "list", false, "Print the room list and exit")
	fs.BoolVar(&opts.ServeMode, "serve", false, "Run the interactive viewer over HTTP")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Also publish stats and accept events over MQTT (with --serve)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "floorview version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.ExportLayout != "":
		return app.RunExportLayout()
	case opts.ListRooms:
		return app.RunList()
	case opts.RenderOnly:
		return app.RunRender()
	case opts.ServeMode || opts.MqttMode:
		return app.RunServe()
	}

	_, _ = fmt.Fprintln(out, "Use --serve to run the interactive viewer (add --mqtt for MQTT)")
	_, _ = fmt.Fprintln(out, "Use --render to write a single frame (--format png|svg)")
	_, _ = fmt.Fprintln(out, "Use --list to print the room list")
	_, _ = fmt.Fprintln(out, "Use --export-layout=FILE to write the layout YAML")
	_, _ = fmt.Fprintln(out, "\nConfiguration:")
	_, _ = fmt.Fprintln(out, "  config.yaml - layout, HTTP, MQTT and render settings")
	return nil
}
