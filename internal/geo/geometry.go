// Package geo holds the geometry model shared by every codec: kinds,
// dimensionality, coordinate trees and spatial reference metadata.
package geo

// Coords is the coordinate tree of a non-collection geometry.
// It is one of Vertex, Sequence, NestedSequence or DoublyNestedSequence.
type Coords interface {
	// Depth is 0 for a vertex and grows by one per level of nesting.
	Depth() int
	// IsEmpty reports whether the tree holds no coordinate values at any level.
	IsEmpty() bool
	// Visit calls fn for every vertex in order.
	Visit(fn func(Vertex))
}

// Vertex is a tuple of 2, 3 or 4 ordinates.
type Vertex []float64

// Sequence is an ordered list of vertices (a line string or a ring).
type Sequence []Vertex

// NestedSequence is an ordered list of sequences (polygon rings or lines).
type NestedSequence []Sequence

// DoublyNestedSequence is an ordered list of polygons.
type DoublyNestedSequence []NestedSequence

func (Vertex) Depth() int               { return 0 }
func (Sequence) Depth() int             { return 1 }
func (NestedSequence) Depth() int       { return 2 }
func (DoublyNestedSequence) Depth() int { return 3 }

func (v Vertex) IsEmpty() bool { return len(v) == 0 }

func (s Sequence) IsEmpty() bool {
	for _, v := range s {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

func (n NestedSequence) IsEmpty() bool {
	for _, s := range n {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

func (d DoublyNestedSequence) IsEmpty() bool {
	for _, n := range d {
		if !n.IsEmpty() {
			return false
		}
	}
	return true
}

func (v Vertex) Visit(fn func(Vertex)) { fn(v) }

func (s Sequence) Visit(fn func(Vertex)) {
	for _, v := range s {
		fn(v)
	}
}

func (n NestedSequence) Visit(fn func(Vertex)) {
	for _, s := range n {
		s.Visit(fn)
	}
}

func (d DoublyNestedSequence) Visit(fn func(Vertex)) {
	for _, n := range d {
		n.Visit(fn)
	}
}

// Geometry is a single geometry value. Every kind except GeometryCollection
// carries Coordinates of the depth its kind requires; collections carry
// Geometries instead.
type Geometry struct {
	Type        Kind
	Coordinates Coords
	Geometries  []*Geometry

	// SRID and CRS are the two spellings of the spatial reference.
	SRID *int
	CRS  *CRS

	// Envelope is a bounding box read from a container header, in wire order.
	Envelope []float64
}

// New returns a geometry of kind k with the given coordinate tree.
func New(k Kind, coords Coords) *Geometry {
	return &Geometry{Type: k, Coordinates: coords}
}

// NewCollection returns a GeometryCollection of the given children.
func NewCollection(children ...*Geometry) *Geometry {
	if children == nil {
		children = []*Geometry{}
	}
	return &Geometry{Type: KindGeometryCollection, Geometries: children}
}

// Empty returns an empty geometry of kind k.
func Empty(k Kind) *Geometry {
	switch k.Depth() {
	case 0:
		return New(k, Vertex{})
	case 1:
		return New(k, Sequence{})
	case 2:
		return New(k, NestedSequence{})
	case 3:
		return New(k, DoublyNestedSequence{})
	default:
		return &Geometry{Type: k, Geometries: []*Geometry{}}
	}
}

// WithSRID sets the SRID and returns g.
func (g *Geometry) WithSRID(srid int) *Geometry {
	g.SRID = &srid
	return g
}

// IsEmpty reports whether g holds no coordinates. A collection is empty
// when it has no children.
func (g *Geometry) IsEmpty() bool {
	if g.Type == KindGeometryCollection {
		return len(g.Geometries) == 0
	}
	return g.Coordinates == nil || g.Coordinates.IsEmpty()
}

// FirstVertex returns the first non-empty vertex, descending into
// collection children in order.
func (g *Geometry) FirstVertex() (Vertex, bool) {
	if g.Type == KindGeometryCollection {
		for _, child := range g.Geometries {
			if child == nil {
				continue
			}
			if v, ok := child.FirstVertex(); ok {
				return v, true
			}
		}
		return nil, false
	}
	if g.Coordinates == nil {
		return nil, false
	}

	var first Vertex
	g.Coordinates.Visit(func(v Vertex) {
		if first == nil && len(v) > 0 {
			first = v
		}
	})
	return first, first != nil
}

// Validate checks that g is structurally usable for its kind: a known kind,
// a coordinate tree of the right depth, or a child list for collections.
func (g *Geometry) Validate() error {
	if g == nil {
		return Invalidf("nil geometry")
	}
	if !g.Type.Valid() {
		return &UnsupportedTypeError{Type: g.Type.String()}
	}

	if g.Type == KindGeometryCollection {
		if g.Coordinates != nil {
			return Invalidf("GeometryCollection must carry geometries, not coordinates")
		}
		for i, child := range g.Geometries {
			if child == nil {
				return Invalidf("GeometryCollection member %d is nil", i)
			}
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	if g.Geometries != nil {
		return Invalidf("%s must carry coordinates, not geometries", g.Type)
	}
	if g.Coordinates == nil {
		return Invalidf("%s is missing coordinates", g.Type)
	}
	if g.Coordinates.Depth() != g.Type.Depth() {
		return Invalidf("%s coordinates have depth %d, expected %d",
			g.Type, g.Coordinates.Depth(), g.Type.Depth())
	}
	return nil
}
