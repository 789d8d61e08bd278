// Package render draws small previews of geometries as SVG or WebP images.
package render

import (
	"math"

	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/geomconv"

	"github.com/pkg/errors"
)

// DefaultSize is the preview edge length in pixels.
const DefaultSize = 256

const (
	minSize = 16
	maxSize = 4096

	// fraction of the canvas left empty on each side
	marginRatio = 0.08
)

var (
	// ErrInvalidSize is returned for a preview size outside 16..4096.
	ErrInvalidSize = errors.New("render: invalid preview size")
	// ErrNothingToDraw is returned for geometries without any vertex.
	ErrNothingToDraw = errors.New("render: nothing to draw")
)

type point struct{ X, Y float64 }

type shapeKind int

const (
	shapePoint shapeKind = iota
	shapeLine
	shapePolygon
)

// shape is one drawable primitive in canvas pixels. A point has a single
// ring of one vertex, a line one ring and a polygon one ring per boundary.
type shape struct {
	kind  shapeKind
	rings [][]point
}

// viewport maps geometry coordinates onto a square canvas with the Y axis
// pointing down.
type viewport struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	size       float64
}

func newViewport(g *geo.Geometry, size int) (*viewport, error) {
	if size < minSize || size > maxSize {
		return nil, errors.Wrapf(ErrInvalidSize, "%d", size)
	}

	b, ok, err := geomconv.Bounds(g)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNothingToDraw, "empty %s", g.Type)
	}

	minX, maxX, minY, maxY := b.Min(0), b.Max(0), b.Min(1), b.Max(1)
	dx, dy := maxX-minX, maxY-minY
	span := math.Max(dx, dy)
	if span == 0 {
		span = 1
	}

	s := float64(size)
	margin := s * marginRatio
	inner := s - 2*margin
	scale := inner / span
	return &viewport{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  margin + (inner-dx*scale)/2,
		offY:  margin + (inner-dy*scale)/2,
		size:  s,
	}, nil
}

func (v *viewport) project(vx geo.Vertex) point {
	return point{
		X: v.offX + (vx[0]-v.minX)*v.scale,
		Y: v.size - (v.offY + (vx[1]-v.minY)*v.scale),
	}
}

func (v *viewport) ring(s geo.Sequence) []point {
	out := make([]point, 0, len(s))
	for _, vx := range s {
		if len(vx) >= 2 {
			out = append(out, v.project(vx))
		}
	}
	return out
}

func (v *viewport) polygon(n geo.NestedSequence) shape {
	sh := shape{kind: shapePolygon}
	for _, r := range n {
		if pts := v.ring(r); len(pts) > 0 {
			sh.rings = append(sh.rings, pts)
		}
	}
	return sh
}

// shapes flattens g into drawable primitives, skipping empty members.
func (v *viewport) shapes(g *geo.Geometry) []shape {
	var out []shape
	add := func(sh shape) {
		if len(sh.rings) > 0 {
			out = append(out, sh)
		}
	}

	switch g.Type {
	case geo.KindGeometryCollection:
		for _, child := range g.Geometries {
			out = append(out, v.shapes(child)...)
		}
	case geo.KindPoint:
		if vx := g.Coordinates.(geo.Vertex); len(vx) >= 2 {
			add(shape{kind: shapePoint, rings: [][]point{{v.project(vx)}}})
		}
	case geo.KindMultiPoint:
		for _, vx := range g.Coordinates.(geo.Sequence) {
			if len(vx) >= 2 {
				add(shape{kind: shapePoint, rings: [][]point{{v.project(vx)}}})
			}
		}
	case geo.KindLineString:
		if pts := v.ring(g.Coordinates.(geo.Sequence)); len(pts) > 0 {
			add(shape{kind: shapeLine, rings: [][]point{pts}})
		}
	case geo.KindMultiLineString:
		for _, l := range g.Coordinates.(geo.NestedSequence) {
			if pts := v.ring(l); len(pts) > 0 {
				add(shape{kind: shapeLine, rings: [][]point{pts}})
			}
		}
	case geo.KindPolygon:
		add(v.polygon(g.Coordinates.(geo.NestedSequence)))
	case geo.KindMultiPolygon:
		for _, p := range g.Coordinates.(geo.DoublyNestedSequence) {
			add(v.polygon(p))
		}
	}
	return out
}

// layout validates g and returns its primitives on a size x size canvas.
func layout(g *geo.Geometry, size int) ([]shape, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.CheckFinite(); err != nil {
		return nil, err
	}
	v, err := newViewport(g, size)
	if err != nil {
		return nil, err
	}
	return v.shapes(g), nil
}
