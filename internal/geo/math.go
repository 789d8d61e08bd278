package geo

import (
	"math"

	"github.com/woozymasta/geomet/internal/numfmt"
)

// Clone returns a deep copy of g.
func (g *Geometry) Clone() *Geometry {
	return g.mapVertices(func(v Vertex) Vertex {
		if v == nil {
			return nil
		}
		out := make(Vertex, len(v))
		copy(out, v)
		return out
	})
}

// Round returns a copy of g with every ordinate rounded half to even at
// decimals fractional digits. A negative count only copies.
func (g *Geometry) Round(decimals int) *Geometry {
	return g.mapVertices(func(v Vertex) Vertex {
		if v == nil {
			return nil
		}
		out := make(Vertex, len(v))
		for i, x := range v {
			out[i] = numfmt.Round(x, decimals)
		}
		return out
	})
}

// CheckFinite reports the first NaN or infinite ordinate in g.
func (g *Geometry) CheckFinite() error {
	var bad error
	g.VisitVertices(func(v Vertex) {
		for _, x := range v {
			if bad == nil && (math.IsNaN(x) || math.IsInf(x, 0)) {
				bad = Invalidf("non-finite coordinate %v", x)
			}
		}
	})
	return bad
}

// VisitVertices calls fn for every vertex of g, descending into collections.
func (g *Geometry) VisitVertices(fn func(Vertex)) {
	if g == nil {
		return
	}
	if g.Type == KindGeometryCollection {
		for _, child := range g.Geometries {
			child.VisitVertices(fn)
		}
		return
	}
	if g.Coordinates != nil {
		g.Coordinates.Visit(fn)
	}
}

func (g *Geometry) mapVertices(fn func(Vertex) Vertex) *Geometry {
	if g == nil {
		return nil
	}

	out := &Geometry{Type: g.Type}
	if g.SRID != nil {
		srid := *g.SRID
		out.SRID = &srid
	}
	if g.Envelope != nil {
		out.Envelope = append([]float64(nil), g.Envelope...)
	}
	if g.CRS != nil {
		c := *g.CRS
		out.CRS = &c
	}

	if g.Geometries != nil {
		out.Geometries = make([]*Geometry, len(g.Geometries))
		for i, child := range g.Geometries {
			out.Geometries[i] = child.mapVertices(fn)
		}
	}

	switch c := g.Coordinates.(type) {
	case Vertex:
		out.Coordinates = fn(c)
	case Sequence:
		out.Coordinates = mapSequence(c, fn)
	case NestedSequence:
		out.Coordinates = mapNested(c, fn)
	case DoublyNestedSequence:
		d := make(DoublyNestedSequence, len(c))
		for i, n := range c {
			d[i] = mapNested(n, fn)
		}
		out.Coordinates = d
	}
	return out
}

func mapSequence(s Sequence, fn func(Vertex) Vertex) Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

func mapNested(n NestedSequence, fn func(Vertex) Vertex) NestedSequence {
	if n == nil {
		return nil
	}
	out := make(NestedSequence, len(n))
	for i, s := range n {
		out[i] = mapSequence(s, fn)
	}
	return out
}
