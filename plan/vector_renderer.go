package plan

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Output formats for encoded frames
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// HUD is the overlay text drawn on raster frames
type HUD struct {
	Layout    string
	FPS       int
	CameraPos string
}

// Lines returns the overlay lines top to bottom
func (h HUD) Lines() []string {
	return []string{
		h.Layout,
		fmt.Sprintf("FPS: %d", h.FPS),
		"Camera: " + h.CameraPos,
	}
}

// nrgbaToRGBA premultiplies alpha for the canvas library
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// EncodeFrame writes the frame in the given format. hud is drawn on PNG
// output only and may be nil.
func EncodeFrame(w io.Writer, frame *Frame, format string, hud *HUD) error {
	switch format {
	case FormatPNG, "":
		return EncodePNG(w, frame, hud)
	case FormatSVG:
		return EncodeSVG(w, frame)
	}
	return fmt.Errorf("unsupported frame format %q", format)
}

// EncodeSVG writes the frame as an SVG document, one unit per pixel
func EncodeSVG(w io.Writer, frame *Frame) error {
	width, height := float64(frame.Width), float64(frame.Height)
	svgRenderer := svg.New(w, width, height, nil)
	drawFrame(svgRenderer, frame)
	if err := svgRenderer.Close(); err != nil {
		return fmt.Errorf("closing svg: %w", err)
	}
	return nil
}

// EncodePNG rasterizes the frame at one pixel per unit and writes it as PNG
func EncodePNG(w io.Writer, frame *Frame, hud *HUD) error {
	width, height := float64(frame.Width), float64(frame.Height)
	rast := rasterizer.New(width, height, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	drawFrame(rast, frame)

	if hud != nil {
		drawHUD(rast, *hud)
	}

	if err := png.Encode(w, rast); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// drawFrame replays the primitives in order. Canvas coordinates have y up,
// frame coordinates have y down.
func drawFrame(renderer canvasRenderer, frame *Frame) {
	height := float64(frame.Height)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(frame.Background)}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	renderer.RenderPath(canvas.Rectangle(float64(frame.Width), height), bgStyle, canvas.Identity)

	faceStyle := canvas.DefaultStyle
	faceStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

	lineStyle := canvas.DefaultStyle
	lineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	lineStyle.StrokeWidth = 1.0

	for _, p := range frame.Primitives {
		if len(p.Points) < 2 {
			continue
		}
		cp := &canvas.Path{}
		for i, pt := range p.Points {
			x, y := float64(pt.X), height-float64(pt.Y)
			if i == 0 {
				cp.MoveTo(x, y)
			} else {
				cp.LineTo(x, y)
			}
		}

		switch p.Kind {
		case PrimFace:
			cp.Close()
			faceStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(p.Color)}
			renderer.RenderPath(cp, faceStyle, canvas.Identity)
		case PrimLine:
			lineStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(p.Color)}
			renderer.RenderPath(cp, lineStyle, canvas.Identity)
		}
	}
}

func drawHUD(img draw.Image, hud HUD) {
	lines := hud.Lines()
	panel := image.Rect(8, 8, 8+8+7*maxLen(lines), 8+8+15*len(lines))
	draw.Draw(img, panel, image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	y := 8 + 15
	for _, line := range lines {
		drawText(img, 12, y, line, color.RGBA{255, 255, 255, 255})
		y += 15
	}
}

func maxLen(lines []string) int {
	n := 0
	for _, l := range lines {
		n = max(n, len(l))
	}
	return n
}

// drawText renders text onto an image at the specified baseline position
func drawText(img draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
