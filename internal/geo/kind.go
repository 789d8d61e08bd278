package geo

import (
	"fmt"
	"strings"
)

// Kind identifies one of the seven supported geometry types.
// Its value is the WKB ordinal of the type.
type Kind uint8

// Supported geometry kinds.
const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindGeometryCollection
)

var kindNames = [...]string{
	KindPoint:              "Point",
	KindLineString:         "LineString",
	KindPolygon:            "Polygon",
	KindMultiPoint:         "MultiPoint",
	KindMultiLineString:    "MultiLineString",
	KindMultiPolygon:       "MultiPolygon",
	KindGeometryCollection: "GeometryCollection",
}

var kindKeywords = [...]string{
	KindPoint:              "POINT",
	KindLineString:         "LINESTRING",
	KindPolygon:            "POLYGON",
	KindMultiPoint:         "MULTIPOINT",
	KindMultiLineString:    "MULTILINESTRING",
	KindMultiPolygon:       "MULTIPOLYGON",
	KindGeometryCollection: "GEOMETRYCOLLECTION",
}

// coordinate tree depth per kind, -1 for kinds without coordinates
var kindDepths = [...]int{
	0,
	KindPoint:              0,
	KindLineString:         1,
	KindPolygon:            2,
	KindMultiPoint:         1,
	KindMultiLineString:    2,
	KindMultiPolygon:       3,
	KindGeometryCollection: -1,
}

// element kind of the multi kinds
var kindMembers = [...]Kind{
	KindMultiPoint:         KindPoint,
	KindMultiLineString:    KindLineString,
	KindMultiPolygon:       KindPolygon,
	KindGeometryCollection: 0,
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= KindPoint && k <= KindGeometryCollection
}

// String returns the GeoJSON type name.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Keyword returns the upper-case WKT keyword.
func (k Kind) Keyword() string {
	if !k.Valid() {
		return ""
	}
	return kindKeywords[k]
}

// Depth returns the nesting depth of the coordinate tree the kind carries:
// 0 for a single vertex up to 3 for a multipolygon, -1 for collections.
func (k Kind) Depth() int {
	if !k.Valid() {
		return -1
	}
	return kindDepths[k]
}

// Member returns the element kind of MultiPoint, MultiLineString and MultiPolygon.
// Other kinds return zero.
func (k Kind) Member() Kind {
	if int(k) >= len(kindMembers) {
		return 0
	}
	return kindMembers[k]
}

// ParseKind resolves a GeoJSON type name, ignoring case.
func ParseKind(name string) (Kind, error) {
	for k := KindPoint; k <= KindGeometryCollection; k++ {
		if strings.EqualFold(kindNames[k], name) {
			return k, nil
		}
	}
	return 0, &UnsupportedTypeError{Type: name}
}

// ParseKeyword resolves an upper-case WKT keyword. Matching is case-sensitive.
func ParseKeyword(keyword string) (Kind, bool) {
	for k := KindPoint; k <= KindGeometryCollection; k++ {
		if kindKeywords[k] == keyword {
			return k, true
		}
	}
	return 0, false
}

// Dim is the dimensionality tag of a vertex.
type Dim uint8

// Dimensionality tags.
const (
	Dim2D Dim = iota
	DimZ
	DimM
	DimZM
)

var dimNames = [...]string{Dim2D: "2D", DimZ: "Z", DimM: "M", DimZM: "ZM"}

var dimArity = [...]int{Dim2D: 2, DimZ: 3, DimM: 3, DimZM: 4}

// String returns "2D", "Z", "M" or "ZM".
func (d Dim) String() string {
	if d > DimZM {
		return fmt.Sprintf("Dim(%d)", uint8(d))
	}
	return dimNames[d]
}

// Arity returns the number of values in a vertex of this dimensionality.
func (d Dim) Arity() int {
	if d > DimZM {
		return 0
	}
	return dimArity[d]
}

// HasZ reports whether vertices carry a Z ordinate.
func (d Dim) HasZ() bool { return d == DimZ || d == DimZM }

// HasM reports whether vertices carry a measure.
func (d Dim) HasM() bool { return d == DimM || d == DimZM }

// DimForArity infers the dimensionality of output from a vertex length.
// Three values are always Z; M is never produced.
func DimForArity(n int) (Dim, bool) {
	switch n {
	case 2:
		return Dim2D, true
	case 3:
		return DimZ, true
	case 4:
		return DimZM, true
	default:
		return 0, false
	}
}
