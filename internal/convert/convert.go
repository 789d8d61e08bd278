package convert

import (
	"encoding/hex"
	"encoding/json"

	"github.com/woozymasta/geomet/internal/esri"
	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/geopackage"
	"github.com/woozymasta/geomet/internal/wkb"
	"github.com/woozymasta/geomet/internal/wkt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Options control Encode.
type Options struct {
	// Decimals is the number of fractional digits written by WKT.
	Decimals int
	// Precision rounds coordinates before JSON, YAML and Esri output and
	// replaces Decimals for WKT. Negative leaves values untouched.
	Precision int
	// LittleEndian selects NDR byte order for WKB and GeoPackage.
	LittleEndian bool
	// SRID overrides the reference of the geometry.
	SRID *int
	// DefaultSRID is used when the geometry carries no reference.
	DefaultSRID *int
	// Indent pretty prints JSON with the given indent.
	Indent string
	// Hex writes binary formats as hexadecimal text.
	Hex bool
	// Envelope adds a bounding envelope to GeoPackage blobs.
	Envelope bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Decimals: wkt.DefaultDecimals, Precision: -1}
}

// Decode parses data in the given format; Auto runs Detect first.
func Decode(data []byte, f Format) (*geo.Geometry, error) {
	if f == Auto || f == "" {
		f = Detect(data)
	}

	switch f {
	case JSON:
		g := new(geo.Geometry)
		if err := json.Unmarshal(data, g); err != nil {
			return nil, err
		}
		return g, nil
	case YAML:
		g := new(geo.Geometry)
		if err := yaml.Unmarshal(data, g); err != nil {
			return nil, err
		}
		return g, nil
	case WKT:
		return wkt.Unmarshal(string(data))
	case WKB:
		return wkb.Unmarshal(binaryPayload(data))
	case Esri:
		return esri.Unmarshal(data)
	case GPKG:
		return geopackage.Unmarshal(binaryPayload(data))
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%q", f)
}

// Encode writes g in the given format.
func Encode(g *geo.Geometry, f Format, opts Options) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	srid, err := resolveSRID(g, opts)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch f {
	case JSON, YAML:
		view := g
		if opts.Precision >= 0 {
			view = view.Round(opts.Precision)
		}
		if srid != nil {
			view = withSRID(view, *srid)
		}
		if f == YAML {
			return yaml.Marshal(view)
		}
		if opts.Indent != "" {
			return json.MarshalIndent(view, "", opts.Indent)
		}
		return json.Marshal(view)
	case WKT:
		wopts := []wkt.Option{wkt.WithDecimals(opts.Decimals)}
		if opts.Precision >= 0 {
			wopts[0] = wkt.WithDecimals(opts.Precision)
		}
		if srid != nil {
			wopts = append(wopts, wkt.WithSRID(*srid))
		}
		s, err := wkt.Marshal(g, wopts...)
		return []byte(s), err
	case Esri:
		view := g
		if opts.Precision >= 0 {
			view = view.Round(opts.Precision)
		}
		var eopts []esri.Option
		if srid != nil {
			eopts = append(eopts, esri.WithSRID(*srid))
		}
		return esri.Marshal(view, eopts...)
	case WKB:
		wopts := []wkb.Option{wkb.WithLittleEndian(opts.LittleEndian)}
		if srid != nil {
			wopts = append(wopts, wkb.WithSRID(*srid))
		}
		out, err = wkb.Marshal(g, wopts...)
	case GPKG:
		gopts := []geopackage.Option{
			geopackage.WithLittleEndian(opts.LittleEndian),
			geopackage.WithEnvelope(opts.Envelope),
		}
		if srid != nil {
			gopts = append(gopts, geopackage.WithSRID(*srid))
		}
		out, err = geopackage.Marshal(g, gopts...)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", f)
	}
	if err != nil {
		return nil, err
	}

	if opts.Hex {
		return []byte(hex.EncodeToString(out)), nil
	}
	return out, nil
}

// Convert decodes data from one format and encodes it to another.
func Convert(data []byte, from, to Format, opts Options) ([]byte, error) {
	g, err := Decode(data, from)
	if err != nil {
		return nil, err
	}
	return Encode(g, to, opts)
}

// resolveSRID returns the SRID to force on output, or nil to let each codec
// use the geometry reference.
func resolveSRID(g *geo.Geometry, opts Options) (*int, error) {
	if opts.SRID != nil {
		return opts.SRID, nil
	}
	if opts.DefaultSRID == nil {
		return nil, nil
	}
	_, ok, err := g.Reference()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	return opts.DefaultSRID, nil
}

// withSRID returns a shallow copy of g carrying srid. An existing CRS is
// rewritten so both spellings agree.
func withSRID(g *geo.Geometry, srid int) *geo.Geometry {
	out := *g
	out.SRID = &srid
	if out.CRS != nil {
		out.CRS = geo.EPSG(srid)
	}
	return &out
}
