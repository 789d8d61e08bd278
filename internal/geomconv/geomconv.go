// Package geomconv converts geometries to and from github.com/twpayne/go-geom
// values and computes their bounds.
package geomconv

import (
	"fmt"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
)

// layoutFor picks the go-geom layout for a vertex arity. Three values are Z.
func layoutFor(arity int) (geom.Layout, error) {
	switch arity {
	case 0, 2:
		return geom.XY, nil
	case 3:
		return geom.XYZ, nil
	case 4:
		return geom.XYZM, nil
	default:
		return geom.NoLayout, geo.Invalidf("vertex has %d values, expected 2 to 4", arity)
	}
}

// ToGeom converts g to a go-geom value. The layout comes from the first
// vertex; a vertex of a different length is an error.
func ToGeom(g *geo.Geometry) (geom.T, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	t, err := toGeom(g)
	if err != nil {
		return nil, err
	}

	srid, ok, err := g.Reference()
	if err != nil {
		return nil, err
	}
	if ok {
		setSRID(t, srid)
	}
	return t, nil
}

func toGeom(g *geo.Geometry) (geom.T, error) {
	if g.Type == geo.KindGeometryCollection {
		gc := geom.NewGeometryCollection()
		for _, child := range g.Geometries {
			t, err := toGeom(child)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(t); err != nil {
				return nil, errors.Wrap(err, "push collection member")
			}
		}
		return gc, nil
	}

	first, _ := g.FirstVertex()
	layout, err := layoutFor(len(first))
	if err != nil {
		return nil, err
	}

	var t geom.T
	switch g.Type {
	case geo.KindPoint:
		v := g.Coordinates.(geo.Vertex)
		if len(v) == 0 {
			return geom.NewPointEmpty(layout), nil
		}
		t, err = geom.NewPoint(layout).SetCoords(geom.Coord(v))
	case geo.KindLineString:
		t, err = geom.NewLineString(layout).SetCoords(coords1(g.Coordinates.(geo.Sequence)))
	case geo.KindPolygon:
		t, err = geom.NewPolygon(layout).SetCoords(coords2(g.Coordinates.(geo.NestedSequence)))
	case geo.KindMultiPoint:
		t, err = geom.NewMultiPoint(layout).SetCoords(coords1(g.Coordinates.(geo.Sequence)))
	case geo.KindMultiLineString:
		t, err = geom.NewMultiLineString(layout).SetCoords(coords2(g.Coordinates.(geo.NestedSequence)))
	case geo.KindMultiPolygon:
		t, err = geom.NewMultiPolygon(layout).SetCoords(coords3(g.Coordinates.(geo.DoublyNestedSequence)))
	}
	if err != nil {
		return nil, geo.Invalidf("%s: %v", g.Type, err)
	}
	return t, nil
}

func coords1(s geo.Sequence) []geom.Coord {
	out := make([]geom.Coord, len(s))
	for i, v := range s {
		out[i] = geom.Coord(v)
	}
	return out
}

func coords2(n geo.NestedSequence) [][]geom.Coord {
	out := make([][]geom.Coord, len(n))
	for i, s := range n {
		out[i] = coords1(s)
	}
	return out
}

func coords3(d geo.DoublyNestedSequence) [][][]geom.Coord {
	out := make([][][]geom.Coord, len(d))
	for i, n := range d {
		out[i] = coords2(n)
	}
	return out
}

func setSRID(t geom.T, srid int) {
	switch t := t.(type) {
	case *geom.Point:
		t.SetSRID(srid)
	case *geom.LineString:
		t.SetSRID(srid)
	case *geom.Polygon:
		t.SetSRID(srid)
	case *geom.MultiPoint:
		t.SetSRID(srid)
	case *geom.MultiLineString:
		t.SetSRID(srid)
	case *geom.MultiPolygon:
		t.SetSRID(srid)
	case *geom.GeometryCollection:
		t.SetSRID(srid)
	}
}

// FromGeom converts a go-geom value. XYM vertices get a zero Z inserted so
// the measure stays the fourth value. A non-zero SRID is attached as meta only.
func FromGeom(t geom.T) (*geo.Geometry, error) {
	g, err := fromGeom(t)
	if err != nil {
		return nil, err
	}
	if srid := t.SRID(); srid != 0 {
		g.SRID = &srid
	}
	return g, nil
}

func fromGeom(t geom.T) (*geo.Geometry, error) {
	layout := t.Layout()
	switch t := t.(type) {
	case *geom.Point:
		if t.Empty() {
			return geo.Empty(geo.KindPoint), nil
		}
		return geo.New(geo.KindPoint, vertex(t.Coords(), layout)), nil
	case *geom.LineString:
		return geo.New(geo.KindLineString, sequence(t.Coords(), layout)), nil
	case *geom.Polygon:
		return geo.New(geo.KindPolygon, nested(t.Coords(), layout)), nil
	case *geom.MultiPoint:
		return geo.New(geo.KindMultiPoint, sequence(t.Coords(), layout)), nil
	case *geom.MultiLineString:
		return geo.New(geo.KindMultiLineString, nested(t.Coords(), layout)), nil
	case *geom.MultiPolygon:
		polys := t.Coords()
		d := make(geo.DoublyNestedSequence, len(polys))
		for i, p := range polys {
			d[i] = nested(p, layout)
		}
		return geo.New(geo.KindMultiPolygon, d), nil
	case *geom.GeometryCollection:
		children := make([]*geo.Geometry, 0, t.NumGeoms())
		for _, member := range t.Geoms() {
			child, err := fromGeom(member)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return geo.NewCollection(children...), nil
	default:
		return nil, &geo.UnsupportedTypeError{Type: fmt.Sprintf("%T", t)}
	}
}

func vertex(c geom.Coord, layout geom.Layout) geo.Vertex {
	if layout == geom.XYM && len(c) == 3 {
		return geo.Vertex{c[0], c[1], 0, c[2]}
	}
	v := make(geo.Vertex, len(c))
	copy(v, c)
	return v
}

func sequence(cs []geom.Coord, layout geom.Layout) geo.Sequence {
	s := make(geo.Sequence, len(cs))
	for i, c := range cs {
		s[i] = vertex(c, layout)
	}
	return s
}

func nested(css [][]geom.Coord, layout geom.Layout) geo.NestedSequence {
	n := make(geo.NestedSequence, len(css))
	for i, cs := range css {
		n[i] = sequence(cs, layout)
	}
	return n
}
