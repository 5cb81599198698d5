// Package resize turns a cheaply generated preview into an exact-pixel asset.
// It is stateless and deterministic: the same input bytes and target size
// always produce identical output bytes.
package resize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"promoforge/internal/domain"
)

// Letterbox scales the source image to fit inside a targetW x targetH canvas,
// preserving its aspect ratio, centering it, and filling the surrounding
// space with the color sampled at the source's top-left pixel. The fill color
// approximates a seamless background for sources with a uniform border; it is
// a deliberate simplification, not background inpainting. The returned PNG is
// always exactly targetW x targetH.
func Letterbox(data []byte, targetW, targetH int) ([]byte, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrInvalidDimensions, targetW, targetH)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("%w: empty source image", domain.ErrDecode)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	fill := image.NewUniform(src.At(bounds.Min.X, bounds.Min.Y))
	xdraw.Draw(canvas, canvas.Bounds(), fill, image.Point{}, xdraw.Src)

	// Integer math keeps the drawn rectangle exact for the common cases
	// (e.g. 800x400 into 300x300 yields a 300x150 draw at y=75).
	var drawW, drawH, x, y int
	if srcW*targetH > targetW*srcH {
		drawW = targetW
		drawH = drawW * srcH / srcW
		y = (targetH - drawH) / 2
	} else {
		drawH = targetH
		drawW = drawH * srcW / srcH
		x = (targetW - drawW) / 2
	}
	if drawW < 1 {
		drawW = 1
	}
	if drawH < 1 {
		drawH = 1
	}

	dst := image.Rect(x, y, x+drawW, y+drawH)
	xdraw.CatmullRom.Scale(canvas, dst, src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
