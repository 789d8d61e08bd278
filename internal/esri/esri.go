// Package esri converts between geometries and the Esri JSON geometry
// dialect (x/y, points, paths and rings objects).
package esri

import (
	"encoding/json"
	"io"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// DefaultWKID is written when neither the caller nor the geometry names a reference.
const DefaultWKID = 4326

type spatialReference struct {
	WKID int `json:"wkid"`
}

type point struct {
	X                *float64         `json:"x"`
	Y                *float64         `json:"y"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type multiPoint struct {
	Points           geo.Sequence     `json:"points"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type polyline struct {
	Paths            geo.NestedSequence `json:"paths"`
	SpatialReference spatialReference   `json:"spatialReference"`
}

type polygon struct {
	Rings            geo.NestedSequence `json:"rings"`
	SpatialReference spatialReference   `json:"spatialReference"`
}

// InvalidError reports a JSON document that is not an Esri geometry.
type InvalidError struct {
	Input string
}

func (e *InvalidError) Error() string {
	return "Invalid EsriJSON: " + e.Input
}

// Is matches geo.ErrInvalidGeometryValue.
func (e *InvalidError) Is(target error) bool { return target == geo.ErrInvalidGeometryValue }

// IsEsri reports whether data is a JSON object with one of the Esri geometry members.
func IsEsri(data []byte) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return false
	}
	for _, key := range []string{"rings", "paths", "x", "y", "points"} {
		if doc.Get(key).Exists() {
			return true
		}
	}
	return false
}

// Unmarshal converts an Esri JSON geometry. rings become a MultiPolygon with
// one polygon per ring, where null entries split a ring; paths become a
// MultiLineString; x/y a Point; points a MultiPoint. spatialReference.wkid
// becomes the SRID.
func Unmarshal(data []byte) (*geo.Geometry, error) {
	if !gjson.ValidBytes(data) {
		return nil, &InvalidError{Input: string(data)}
	}
	doc := gjson.ParseBytes(data)

	var (
		g   *geo.Geometry
		err error
	)
	switch {
	case doc.Get("rings").Exists():
		g, err = readRings(doc.Get("rings"))
	case doc.Get("paths").Exists():
		g, err = readPaths(doc.Get("paths"))
	case doc.Get("x").Exists() || doc.Get("y").Exists():
		g = readPoint(doc)
	case doc.Get("points").Exists():
		g, err = readPoints(doc.Get("points"))
	default:
		return nil, &InvalidError{Input: string(data)}
	}
	if err != nil {
		return nil, err
	}

	if wkid := doc.Get("spatialReference.wkid"); wkid.Type == gjson.Number {
		srid := int(wkid.Int())
		g.SRID = &srid
	}
	return g, nil
}

// Read converts the whole of r.
func Read(r io.Reader) (*geo.Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read EsriJSON")
	}
	return Unmarshal(data)
}

func readPoint(doc gjson.Result) *geo.Geometry {
	x, y := doc.Get("x"), doc.Get("y")
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return geo.Empty(geo.KindPoint)
	}
	return geo.New(geo.KindPoint, geo.Vertex{x.Float(), y.Float()})
}

// readVertex reads an array of numbers, keeping at most keep values.
func readVertex(val gjson.Result, keep int) (geo.Vertex, error) {
	if !val.IsArray() {
		return nil, geo.Invalidf("EsriJSON vertex %s is not an array", val.Raw)
	}

	var (
		v   geo.Vertex
		err error
	)
	val.ForEach(func(_, n gjson.Result) bool {
		if n.Type != gjson.Number {
			err = geo.Invalidf("EsriJSON ordinate %s is not a number", n.Raw)
			return false
		}
		v = append(v, n.Float())
		return len(v) < keep
	})
	if err != nil {
		return nil, err
	}
	if len(v) < 2 {
		return nil, geo.Invalidf("EsriJSON vertex %s has fewer than 2 values", val.Raw)
	}
	return v, nil
}

func readPoints(points gjson.Result) (*geo.Geometry, error) {
	s := geo.Sequence{}
	var err error
	points.ForEach(func(_, val gjson.Result) bool {
		var v geo.Vertex
		if v, err = readVertex(val, 4); err != nil {
			return false
		}
		s = append(s, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return geo.New(geo.KindMultiPoint, s), nil
}

func readPaths(paths gjson.Result) (*geo.Geometry, error) {
	lines := geo.NestedSequence{}
	var err error
	paths.ForEach(func(_, path gjson.Result) bool {
		line := geo.Sequence{}
		path.ForEach(func(_, val gjson.Result) bool {
			if val.Type == gjson.Null {
				return true
			}
			var v geo.Vertex
			if v, err = readVertex(val, 2); err != nil {
				return false
			}
			line = append(line, v)
			return true
		})
		lines = append(lines, line)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return geo.New(geo.KindMultiLineString, lines), nil
}

func readRings(rings gjson.Result) (*geo.Geometry, error) {
	polygons := geo.DoublyNestedSequence{}
	var err error
	rings.ForEach(func(_, ring gjson.Result) bool {
		poly := geo.NestedSequence{}
		var current geo.Sequence
		ring.ForEach(func(_, val gjson.Result) bool {
			if val.Type == gjson.Null {
				if len(current) > 0 {
					poly = append(poly, current)
				}
				current = nil
				return true
			}
			var v geo.Vertex
			if v, err = readVertex(val, 2); err != nil {
				return false
			}
			current = append(current, v)
			return true
		})
		if len(current) > 0 {
			poly = append(poly, current)
		}
		polygons = append(polygons, poly)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return geo.New(geo.KindMultiPolygon, polygons), nil
}

// Option configures Marshal.
type Option func(*encoder)

// WithSRID sets the wkid written to spatialReference.
func WithSRID(srid int) Option {
	return func(e *encoder) { e.srid = &srid }
}

type encoder struct {
	srid *int
}

// Marshal converts g to Esri JSON. The wkid is the WithSRID value, else the
// geometry reference, else DefaultWKID. GeometryCollection has no Esri form.
func Marshal(g *geo.Geometry, opts ...Option) ([]byte, error) {
	e := &encoder{}
	for _, opt := range opts {
		opt(e)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.CheckFinite(); err != nil {
		return nil, err
	}

	wkid := DefaultWKID
	if e.srid != nil {
		wkid = *e.srid
	} else {
		ref, ok, err := g.Reference()
		if err != nil {
			return nil, err
		}
		if ok {
			wkid = ref
		}
	}
	sr := spatialReference{WKID: wkid}

	var out any
	switch g.Type {
	case geo.KindPoint:
		p := point{SpatialReference: sr}
		if v := g.Coordinates.(geo.Vertex); len(v) >= 2 {
			p.X, p.Y = &v[0], &v[1]
		}
		out = p
	case geo.KindMultiPoint:
		out = multiPoint{Points: g.Coordinates.(geo.Sequence), SpatialReference: sr}
	case geo.KindLineString:
		out = polyline{Paths: geo.NestedSequence{g.Coordinates.(geo.Sequence)}, SpatialReference: sr}
	case geo.KindMultiLineString:
		out = polyline{Paths: g.Coordinates.(geo.NestedSequence), SpatialReference: sr}
	case geo.KindPolygon:
		out = polygon{Rings: g.Coordinates.(geo.NestedSequence), SpatialReference: sr}
	case geo.KindMultiPolygon:
		rings := geo.NestedSequence{}
		for _, p := range g.Coordinates.(geo.DoublyNestedSequence) {
			rings = append(rings, p...)
		}
		out = polygon{Rings: rings, SpatialReference: sr}
	default:
		return nil, &geo.UnsupportedTypeError{Type: g.Type.String()}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "encode EsriJSON")
	}
	return data, nil
}

// Write converts g and writes it to w.
func Write(w io.Writer, g *geo.Geometry, opts ...Option) error {
	data, err := Marshal(g, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
