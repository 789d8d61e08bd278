package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/vector"
)

var (
	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	fillRGBA   = color.RGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0xff}
	strokeRGBA = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
)

const (
	lineWidth  = 1.5
	pointHalf  = 3
	webpFormat = "webp"
)

// Image rasterizes g onto a size x size RGBA canvas with a white background.
// Polygons are filled, lines stroked and points drawn as small squares.
func Image(g *geo.Geometry, size int) (*image.RGBA, error) {
	shapes, err := layout(g, size)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	r := vector.NewRasterizer(size, size)
	paint := func(c color.RGBA) {
		r.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
		r.Reset(size, size)
	}

	for _, sh := range shapes {
		switch sh.kind {
		case shapePolygon:
			for _, ring := range sh.rings {
				tracePolygon(r, ring)
			}
			paint(fillRGBA)
			for _, ring := range sh.rings {
				strokeLine(r, ring)
				if len(ring) > 1 {
					strokeSegment(r, ring[len(ring)-1], ring[0])
				}
			}
			paint(strokeRGBA)
		case shapeLine:
			strokeLine(r, sh.rings[0])
			paint(strokeRGBA)
		case shapePoint:
			p := sh.rings[0][0]
			tracePolygon(r, []point{
				{p.X - pointHalf, p.Y - pointHalf},
				{p.X + pointHalf, p.Y - pointHalf},
				{p.X + pointHalf, p.Y + pointHalf},
				{p.X - pointHalf, p.Y + pointHalf},
			})
			paint(strokeRGBA)
		}
	}
	return img, nil
}

// WebP writes a lossless WebP preview of g to w.
func WebP(w io.Writer, g *geo.Geometry, size int) error {
	img, err := Image(g, size)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return errors.Wrap(err, "encode "+webpFormat)
	}
	_, err = buf.WriteTo(w)
	return err
}

func tracePolygon(r *vector.Rasterizer, ring []point) {
	if len(ring) < 3 {
		return
	}
	r.MoveTo(float32(ring[0].X), float32(ring[0].Y))
	for _, p := range ring[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
}

func strokeLine(r *vector.Rasterizer, ring []point) {
	for i := 1; i < len(ring); i++ {
		strokeSegment(r, ring[i-1], ring[i])
	}
}

// strokeSegment adds the quad covering a segment of lineWidth pixels.
func strokeSegment(r *vector.Rasterizer, a, b point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*lineWidth/2, dx/length*lineWidth/2
	tracePolygon(r, []point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	})
}
