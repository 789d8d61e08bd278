// Package wkb encodes and decodes geometries in Well-Known Binary and its
// extended form carrying an SRID.
package wkb

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
)

// Byte order markers.
const (
	XDR byte = 0x00 // big endian
	NDR byte = 0x01 // little endian
)

var (
	ErrTruncated      = errors.New("wkb: unexpected end of data")
	ErrHeaderMismatch = errors.New("wkb: nested header does not match its container")
	ErrTrailingData   = errors.New("wkb: trailing bytes after geometry")
)

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Option configures Marshal.
type Option func(*encoder)

// WithLittleEndian selects little-endian (NDR) output. Big-endian is the default.
func WithLittleEndian(little bool) Option {
	return func(e *encoder) {
		if little {
			e.order, e.marker = binary.LittleEndian, NDR
		} else {
			e.order, e.marker = binary.BigEndian, XDR
		}
	}
}

// WithSRID writes the given SRID instead of the one carried by the geometry.
func WithSRID(srid int) Option {
	return func(e *encoder) { e.srid = &srid }
}

// WithoutSRID writes plain WKB even when the geometry carries a reference.
func WithoutSRID() Option {
	return func(e *encoder) { e.plain = true }
}

// WithISODimensions writes ISO type codes (1000/2000/3000) instead of the
// canonical dimension markers.
func WithISODimensions() Option {
	return func(e *encoder) { e.iso = true }
}

type encoder struct {
	order  byteOrder
	marker byte
	srid   *int
	plain  bool
	iso    bool
	buf    []byte
}

// Marshal encodes g. Dimensionality is inferred from the first vertex:
// two values are 2D, three are Z and four are ZM.
func Marshal(g *geo.Geometry, opts ...Option) ([]byte, error) {
	e := &encoder{order: binary.BigEndian, marker: XDR}
	for _, opt := range opts {
		opt(e)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.CheckFinite(); err != nil {
		return nil, err
	}

	srid := e.srid
	if e.plain {
		srid = nil
	} else if srid == nil {
		ref, ok, err := g.Reference()
		if err != nil {
			return nil, err
		}
		if ok {
			srid = &ref
		}
	}

	if err := e.writeGeometry(g, srid); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Write encodes g to w.
func Write(w io.Writer, g *geo.Geometry, opts ...Option) error {
	data, err := Marshal(g, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (e *encoder) writeGeometry(g *geo.Geometry, srid *int) error {
	if g.IsEmpty() {
		return errors.Wrapf(geo.ErrEmptyGeometryUnsupported, "%s", g.Type)
	}

	first, _ := g.FirstVertex()
	dim, ok := geo.DimForArity(len(first))
	if !ok {
		return geo.Invalidf("vertex %v has %d values, expected 2 to 4", first, len(first))
	}

	e.writeHeader(g.Type, dim, srid)

	switch g.Type {
	case geo.KindPoint:
		return e.writeVertex(g.Coordinates.(geo.Vertex), dim)
	case geo.KindLineString:
		return e.writeSequence(g.Coordinates.(geo.Sequence), dim)
	case geo.KindPolygon:
		return e.writeNested(g.Coordinates.(geo.NestedSequence), dim)
	case geo.KindMultiPoint:
		points := g.Coordinates.(geo.Sequence)
		e.writeCount(len(points))
		for _, p := range points {
			e.writeHeader(geo.KindPoint, dim, nil)
			if err := e.writeVertex(p, dim); err != nil {
				return err
			}
		}
	case geo.KindMultiLineString:
		lines := g.Coordinates.(geo.NestedSequence)
		e.writeCount(len(lines))
		for _, l := range lines {
			e.writeHeader(geo.KindLineString, dim, nil)
			if err := e.writeSequence(l, dim); err != nil {
				return err
			}
		}
	case geo.KindMultiPolygon:
		polygons := g.Coordinates.(geo.DoublyNestedSequence)
		e.writeCount(len(polygons))
		for _, p := range polygons {
			e.writeHeader(geo.KindPolygon, dim, nil)
			if err := e.writeNested(p, dim); err != nil {
				return err
			}
		}
	case geo.KindGeometryCollection:
		e.writeCount(len(g.Geometries))
		for _, child := range g.Geometries {
			if err := e.writeGeometry(child, nil); err != nil {
				return err
			}
		}
	default:
		return &geo.UnsupportedTypeError{Type: g.Type.String()}
	}
	return nil
}

func (e *encoder) writeHeader(k geo.Kind, dim geo.Dim, srid *int) {
	var h uint32
	if e.iso {
		h = geo.ISOHeader(k, dim, srid != nil)
	} else {
		h = geo.Header(k, dim, srid != nil)
	}

	e.buf = append(e.buf, e.marker)
	e.buf = e.order.AppendUint32(e.buf, h)
	if srid != nil {
		e.buf = e.order.AppendUint32(e.buf, uint32(int32(*srid)))
	}
}

func (e *encoder) writeCount(n int) {
	e.buf = e.order.AppendUint32(e.buf, uint32(int32(n)))
}

func (e *encoder) writeVertex(v geo.Vertex, dim geo.Dim) error {
	if len(v) != dim.Arity() {
		return geo.Invalidf("vertex %v has %d values, expected %d", v, len(v), dim.Arity())
	}
	for _, x := range v {
		e.buf = e.order.AppendUint64(e.buf, math.Float64bits(x))
	}
	return nil
}

func (e *encoder) writeSequence(s geo.Sequence, dim geo.Dim) error {
	e.writeCount(len(s))
	for _, v := range s {
		if err := e.writeVertex(v, dim); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeNested(n geo.NestedSequence, dim geo.Dim) error {
	e.writeCount(len(n))
	for _, s := range n {
		if err := e.writeSequence(s, dim); err != nil {
			return err
		}
	}
	return nil
}
