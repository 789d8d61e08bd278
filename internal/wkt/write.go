package wkt

import (
	"io"
	"strconv"
	"strings"

	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/numfmt"
)

// DefaultDecimals is the number of fractional digits written per coordinate.
const DefaultDecimals = 16

// Option configures Marshal.
type Option func(*writer)

// WithDecimals sets the number of fractional digits per coordinate.
func WithDecimals(n int) Option {
	return func(w *writer) { w.decimals = n }
}

// WithSRID writes the given SRID prefix instead of the geometry's own reference.
func WithSRID(srid int) Option {
	return func(w *writer) { w.srid = &srid }
}

type writer struct {
	decimals int
	srid     *int
	sb       strings.Builder
}

// Marshal writes g as WKT, prefixed with SRID=<n>; when g carries a reference.
func Marshal(g *geo.Geometry, opts ...Option) (string, error) {
	w := &writer{decimals: DefaultDecimals}
	for _, opt := range opts {
		opt(w)
	}
	if w.decimals < 0 {
		return "", geo.Invalidf("decimals must not be negative, got %d", w.decimals)
	}

	if err := g.Validate(); err != nil {
		return "", err
	}

	srid := w.srid
	if srid == nil {
		ref, ok, err := g.Reference()
		if err != nil {
			return "", err
		}
		if ok {
			srid = &ref
		}
	}
	if srid != nil {
		w.sb.WriteString("SRID=")
		w.sb.WriteString(strconv.Itoa(*srid))
		w.sb.WriteByte(';')
	}

	if err := w.writeGeometry(g); err != nil {
		return "", err
	}
	return w.sb.String(), nil
}

// Write writes g to out.
func Write(out io.Writer, g *geo.Geometry, opts ...Option) error {
	s, err := Marshal(g, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

func (w *writer) writeGeometry(g *geo.Geometry) error {
	w.sb.WriteString(g.Type.Keyword())
	if g.IsEmpty() {
		w.sb.WriteString(" EMPTY")
		return nil
	}
	w.sb.WriteByte(' ')

	switch g.Type {
	case geo.KindPoint:
		w.sb.WriteByte('(')
		if err := w.writeVertex(g.Coordinates.(geo.Vertex)); err != nil {
			return err
		}
		w.sb.WriteByte(')')
	case geo.KindLineString:
		return w.writeSequence(g.Coordinates.(geo.Sequence))
	case geo.KindPolygon, geo.KindMultiLineString:
		return w.writeNested(g.Coordinates.(geo.NestedSequence))
	case geo.KindMultiPoint:
		points := g.Coordinates.(geo.Sequence)
		w.sb.WriteByte('(')
		for i, p := range points {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.sb.WriteByte('(')
			if err := w.writeVertex(p); err != nil {
				return err
			}
			w.sb.WriteByte(')')
		}
		w.sb.WriteByte(')')
	case geo.KindMultiPolygon:
		polygons := g.Coordinates.(geo.DoublyNestedSequence)
		w.sb.WriteByte('(')
		for i, p := range polygons {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			if err := w.writeNested(p); err != nil {
				return err
			}
		}
		w.sb.WriteByte(')')
	case geo.KindGeometryCollection:
		w.sb.WriteByte('(')
		for i, child := range g.Geometries {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			if err := w.writeGeometry(child); err != nil {
				return err
			}
		}
		w.sb.WriteByte(')')
	}
	return nil
}

func (w *writer) writeVertex(v geo.Vertex) error {
	for i, x := range v {
		if i > 0 {
			w.sb.WriteByte(' ')
		}
		s, err := numfmt.Format(x, w.decimals)
		if err != nil {
			return geo.Invalidf("%v", err)
		}
		w.sb.WriteString(s)
	}
	return nil
}

func (w *writer) writeSequence(s geo.Sequence) error {
	w.sb.WriteByte('(')
	for i, v := range s {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		if err := w.writeVertex(v); err != nil {
			return err
		}
	}
	w.sb.WriteByte(')')
	return nil
}

func (w *writer) writeNested(n geo.NestedSequence) error {
	w.sb.WriteByte('(')
	for i, s := range n {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		if err := w.writeSequence(s); err != nil {
			return err
		}
	}
	w.sb.WriteByte(')')
	return nil
}
