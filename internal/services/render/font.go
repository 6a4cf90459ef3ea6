package render

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const (
	fontSize = 32
	fontDPI  = 72
)

// typeface is the parsed bundled font, or nil when the built-in glyph set is used.
type typeface struct {
	font *opentype.Font
}

func loadTypeface(ctx context.Context, provider ResourceProvider, name string) (typeface, error) {
	if provider == nil || name == "" {
		return typeface{}, ErrResourceNotFound
	}

	data, err := provider.TryLoad(ctx, name)
	if err != nil {
		return typeface{}, errors.Wrapf(err, "load font %s", name)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return typeface{}, errors.Wrapf(err, "parse font %s", name)
	}

	return typeface{font: f}, nil
}

// face returns a new face for one render. Opentype faces keep per-face buffers and
// must not be shared between goroutines.
func (t typeface) face() (font.Face, error) {
	if t.font == nil {
		return basicfont.Face7x13, nil
	}

	return opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
}
