package wkb

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
)

type decoder struct {
	data []byte
	pos  int
}

// Unmarshal decodes a complete WKB or EWKB buffer. An SRID on the outer
// header is attached both as SRID and as an EPSG CRS name. Vertices of
// M geometries gain a zero Z ordinate.
func Unmarshal(data []byte) (*geo.Geometry, error) {
	d := &decoder{data: data}
	g, err := d.readGeometry(true)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, errors.Wrapf(ErrTrailingData, "%d bytes", len(d.data)-d.pos)
	}
	return g, nil
}

// Read decodes the whole of r.
func Read(r io.Reader) (*geo.Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read WKB")
	}
	return Unmarshal(data)
}

func (d *decoder) readGeometry(outer bool) (*geo.Geometry, error) {
	order, err := d.readOrder()
	if err != nil {
		return nil, err
	}
	h, err := d.readUint32(order)
	if err != nil {
		return nil, err
	}
	kind, dim, hasSRID, err := geo.ParseHeader(h)
	if err != nil {
		return nil, err
	}
	if hasSRID && !outer {
		return nil, errors.Wrapf(ErrHeaderMismatch, "nested %s carries an SRID", kind)
	}

	var srid int
	if hasSRID {
		v, err := d.readUint32(order)
		if err != nil {
			return nil, err
		}
		srid = int(int32(v))
	}

	g := &geo.Geometry{Type: kind}
	switch kind {
	case geo.KindPoint:
		g.Coordinates, err = d.readVertex(order, dim)
	case geo.KindLineString:
		g.Coordinates, err = d.readSequence(order, dim)
	case geo.KindPolygon:
		g.Coordinates, err = d.readNested(order, dim)
	case geo.KindMultiPoint:
		g.Coordinates, err = d.readMultiPoint(order, dim)
	case geo.KindMultiLineString:
		g.Coordinates, err = d.readMultiLineString(order, dim)
	case geo.KindMultiPolygon:
		g.Coordinates, err = d.readMultiPolygon(order, dim)
	case geo.KindGeometryCollection:
		g.Geometries, err = d.readCollection(order)
	}
	if err != nil {
		return nil, err
	}

	if hasSRID {
		g.SRID = &srid
		g.CRS = geo.EPSG(srid)
	}
	return g, nil
}

func (d *decoder) readOrder() (byteOrder, error) {
	if d.pos >= len(d.data) {
		return nil, errors.Wrap(ErrTruncated, "byte order")
	}
	b := d.data[d.pos]
	d.pos++

	switch b {
	case XDR:
		return binary.BigEndian, nil
	case NDR:
		return binary.LittleEndian, nil
	default:
		return nil, &geo.InvalidEndianError{Byte: b}
	}
}

func (d *decoder) need(n int, what string) error {
	if len(d.data)-d.pos < n {
		return errors.Wrapf(ErrTruncated, "%s at offset %d", what, d.pos)
	}
	return nil
}

func (d *decoder) readUint32(order byteOrder) (uint32, error) {
	if err := d.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := order.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

// readCount reads an element count and rejects counts the remaining bytes
// cannot hold, given the minimal encoded size of one element.
func (d *decoder) readCount(order byteOrder, minSize int) (int, error) {
	v, err := d.readUint32(order)
	if err != nil {
		return 0, err
	}
	n := int(int32(v))
	if n < 0 {
		return 0, geo.Invalidf("negative element count %d", n)
	}
	if n*minSize > len(d.data)-d.pos {
		return 0, errors.Wrapf(ErrTruncated, "%d elements at offset %d", n, d.pos)
	}
	return n, nil
}

func (d *decoder) readVertex(order byteOrder, dim geo.Dim) (geo.Vertex, error) {
	n := dim.Arity()
	if err := d.need(8*n, "vertex"); err != nil {
		return nil, err
	}

	v := make(geo.Vertex, 0, 4)
	for i := 0; i < n; i++ {
		v = append(v, math.Float64frombits(order.Uint64(d.data[d.pos:])))
		d.pos += 8
	}
	if dim == geo.DimM {
		v = append(v[:2], 0, v[2])
	}
	return v, nil
}

func (d *decoder) readSequence(order byteOrder, dim geo.Dim) (geo.Sequence, error) {
	n, err := d.readCount(order, 8*dim.Arity())
	if err != nil {
		return nil, err
	}
	s := make(geo.Sequence, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.readVertex(order, dim)
		if err != nil {
			return nil, err
		}
		s = append(s, v)
	}
	return s, nil
}

func (d *decoder) readNested(order byteOrder, dim geo.Dim) (geo.NestedSequence, error) {
	n, err := d.readCount(order, 4)
	if err != nil {
		return nil, err
	}
	out := make(geo.NestedSequence, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.readSequence(order, dim)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// readMember reads the endian byte and header of a multi-geometry element
// and checks it against the container.
func (d *decoder) readMember(want geo.Kind, dim geo.Dim) (byteOrder, error) {
	order, err := d.readOrder()
	if err != nil {
		return nil, err
	}
	h, err := d.readUint32(order)
	if err != nil {
		return nil, err
	}
	kind, memberDim, hasSRID, err := geo.ParseHeader(h)
	if err != nil {
		return nil, err
	}
	if kind != want || memberDim != dim || hasSRID {
		return nil, errors.Wrapf(ErrHeaderMismatch, "got %s %s, want %s %s", kind, memberDim, want, dim)
	}
	return order, nil
}

func (d *decoder) readMultiPoint(order byteOrder, dim geo.Dim) (geo.Sequence, error) {
	n, err := d.readCount(order, 5+8*dim.Arity())
	if err != nil {
		return nil, err
	}
	out := make(geo.Sequence, 0, n)
	for i := 0; i < n; i++ {
		memberOrder, err := d.readMember(geo.KindPoint, dim)
		if err != nil {
			return nil, err
		}
		v, err := d.readVertex(memberOrder, dim)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) readMultiLineString(order byteOrder, dim geo.Dim) (geo.NestedSequence, error) {
	n, err := d.readCount(order, 9)
	if err != nil {
		return nil, err
	}
	out := make(geo.NestedSequence, 0, n)
	for i := 0; i < n; i++ {
		memberOrder, err := d.readMember(geo.KindLineString, dim)
		if err != nil {
			return nil, err
		}
		s, err := d.readSequence(memberOrder, dim)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) readMultiPolygon(order byteOrder, dim geo.Dim) (geo.DoublyNestedSequence, error) {
	n, err := d.readCount(order, 9)
	if err != nil {
		return nil, err
	}
	out := make(geo.DoublyNestedSequence, 0, n)
	for i := 0; i < n; i++ {
		memberOrder, err := d.readMember(geo.KindPolygon, dim)
		if err != nil {
			return nil, err
		}
		p, err := d.readNested(memberOrder, dim)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) readCollection(order byteOrder) ([]*geo.Geometry, error) {
	n, err := d.readCount(order, 9)
	if err != nil {
		return nil, err
	}
	out := make([]*geo.Geometry, 0, n)
	for i := 0; i < n; i++ {
		child, err := d.readGeometry(false)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}
