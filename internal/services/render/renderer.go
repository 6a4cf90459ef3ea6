package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"weather-bot/internal/models"
	"weather-bot/internal/services/narrator"
	"weather-bot/pkg/observe"
)

const (
	Width  = 800
	Height = 400

	margin      = 50
	messageTop  = 250
	lineSpacing = 10
)

var (
	fallbackBackground = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	textColor          = color.Black
	imageExtensions    = []string{".png", ".jpg"}
)

// Renderer draws the weather card. It never fails because of a missing background or font.
type Renderer struct {
	assets   ResourceProvider
	typeface typeface
	l        *observe.Logger
}

func NewRenderer(ctx context.Context, assets ResourceProvider, fontName string, l *observe.Logger) *Renderer {
	tf, err := loadTypeface(ctx, assets, fontName)
	if err != nil {
		l.Warning("using built-in font", map[string]any{"font": fontName, "err": err.Error()})
	}

	return &Renderer{
		assets:   assets,
		typeface: tf,
		l:        l,
	}
}

// BackgroundFor returns the asset name used for a condition.
func BackgroundFor(c models.Condition) string {
	switch c {
	case models.ConditionClear:
		return "sunny"
	case models.ConditionRain:
		return "rain"
	case models.ConditionSnow:
		return "snow"
	case models.ConditionClouds:
		return "cloudy"
	case models.ConditionFog:
		return "fog"
	default:
		return "default"
	}
}

// Render produces the PNG card and the caption carrying the same text.
func (r *Renderer) Render(ctx context.Context, snapshot models.WeatherSnapshot, forecast models.Forecast, label string) (models.Artifact, error) {
	header := HeaderLines(snapshot, label)
	message, hasMessage := narrator.Narrate(snapshot, forecast)

	canvas := r.background(ctx, snapshot.Condition)

	face, err := r.typeface.face()
	if err != nil {
		r.l.Warning("using built-in font", map[string]any{"err": err.Error()})
		face, _ = typeface{}.face()
	}
	defer face.Close()

	maxWidth := Width - 2*margin
	drawLines(canvas, face, wrapLines(face, header, maxWidth), margin, margin)
	if hasMessage {
		drawLines(canvas, face, wrapLines(face, []string{message}, maxWidth), margin, messageTop)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return models.Artifact{}, errors.Wrap(err, "encode weather image")
	}

	captionLines := header
	if hasMessage {
		captionLines = append(captionLines, message)
	}

	return models.Artifact{
		Location: label,
		Caption:  strings.Join(captionLines, "\n"),
		Image:    buf.Bytes(),
	}, nil
}

// HeaderLines is the text block shown at the top of the card and at the start of the caption.
func HeaderLines(s models.WeatherSnapshot, label string) []string {
	return []string{
		label,
		"Weather: " + narrator.Capitalize(s.Description),
		fmt.Sprintf("Temperature: %.1f°C", s.TemperatureC),
		fmt.Sprintf("Wind: %.1f m/s", s.WindSpeedMS),
	}
}

func (r *Renderer) background(ctx context.Context, c models.Condition) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	name := BackgroundFor(c)

	img, err := r.loadImage(ctx, name)
	if err != nil {
		r.l.Warning("using fallback background", map[string]any{"asset": name, "err": err.Error()})
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(fallbackBackground), image.Point{}, draw.Src)
		return canvas
	}

	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return canvas
}

func (r *Renderer) loadImage(ctx context.Context, name string) (image.Image, error) {
	if r.assets == nil {
		return nil, ErrResourceNotFound
	}

	var lastErr error = ErrResourceNotFound
	for _, ext := range imageExtensions {
		data, err := r.assets.TryLoad(ctx, name+ext)
		if err != nil {
			lastErr = err
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s%s", name, ext)
		}
		if img.Bounds().Empty() {
			return nil, errors.Errorf("empty image %s%s", name, ext)
		}
		return img, nil
	}

	return nil, lastErr
}

func drawLines(dst draw.Image, face font.Face, lines []string, x, top int) {
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + lineSpacing

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
	}

	baseline := top + metrics.Ascent.Ceil()
	for _, line := range lines {
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
		baseline += lineHeight
	}
}

// wrapLines breaks every line on word boundaries so that it fits into maxWidth pixels.
// A single word wider than maxWidth is kept on its own line.
func wrapLines(face font.Face, lines []string, maxWidth int) []string {
	var out []string
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, line)
			continue
		}

		current := words[0]
		for _, w := range words[1:] {
			candidate := current + " " + w
			if font.MeasureString(face, candidate).Ceil() > maxWidth {
				out = append(out, current)
				current = w
				continue
			}
			current = candidate
		}
		out = append(out, current)
	}
	return out
}
