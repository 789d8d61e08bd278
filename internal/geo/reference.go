package geo

import (
	"strconv"
	"strings"
)

// CRS is a named coordinate reference system in GeoJSON form.
type CRS struct {
	Type       string        `json:"type" yaml:"type"`
	Properties CRSProperties `json:"properties" yaml:"properties"`
}

// CRSProperties holds the CRS name.
type CRSProperties struct {
	Name string `json:"name" yaml:"name"`
}

// NamedCRS returns a "name" CRS.
func NamedCRS(name string) *CRS {
	return &CRS{Type: "name", Properties: CRSProperties{Name: name}}
}

// EPSG returns the CRS the binary decoders attach next to an SRID.
func EPSG(srid int) *CRS {
	return NamedCRS("EPSG" + strconv.Itoa(srid))
}

var crs84Names = map[string]struct{}{
	"CRS84":                         {},
	"OGC:CRS84":                     {},
	"URN:OGC:DEF:CRS:OGC:1.3:CRS84": {},
	"URN:OGC:DEF:CRS:OGC::CRS84":    {},
}

// ParseCRSName extracts the numeric code from EPSG4326, EPSG:4326 or
// urn:ogc:def:crs:EPSG::4326. The OGC CRS84 names map to 4326.
func ParseCRSName(name string) (int, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if _, ok := crs84Names[upper]; ok {
		return 4326, true
	}

	code := upper
	if i := strings.LastIndexByte(upper, ':'); i >= 0 {
		if !strings.Contains(upper[:i], "EPSG") {
			return 0, false
		}
		code = upper[i+1:]
	} else {
		code = strings.TrimPrefix(code, "EPSG")
	}

	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Reference resolves the SRID of g from its SRID and CRS fields. When both
// are present they must agree. ok is false when g carries no reference.
func (g *Geometry) Reference() (srid int, ok bool, err error) {
	var name string
	if g.CRS != nil {
		name = g.CRS.Properties.Name
	}

	if name == "" {
		if g.SRID == nil {
			return 0, false, nil
		}
		return *g.SRID, true, nil
	}

	crsSRID, parsed := ParseCRSName(name)
	switch {
	case g.SRID != nil && !parsed:
		return 0, false, &AmbiguousReferenceError{SRID: *g.SRID, CRS: name}
	case g.SRID != nil && *g.SRID != crsSRID:
		return 0, false, &AmbiguousReferenceError{SRID: *g.SRID, CRS: strconv.Itoa(crsSRID)}
	case !parsed:
		return 0, false, Invalidf("unrecognized CRS name %q", name)
	}

	return crsSRID, true, nil
}
