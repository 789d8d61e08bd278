package geo

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Meta carries the optional reference and envelope of a geometry.
type Meta struct {
	SRID     *int      `json:"srid,omitempty" yaml:"srid,omitempty"`
	Envelope []float64 `json:"envelope,omitempty" yaml:"envelope,omitempty"`
}

// geoJSONGeometry is the serialized shape of a Geometry (Point, Polygon, etc.).
type geoJSONGeometry struct {
	Type        string      `json:"type" yaml:"type"`
	Coordinates any         `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Geometries  []*Geometry `json:"geometries,omitempty" yaml:"geometries,omitempty"`
	Meta        *Meta       `json:"meta,omitempty" yaml:"meta,omitempty"`
	CRS         *CRS        `json:"crs,omitempty" yaml:"crs,omitempty"`
}

type rawGeoJSONGeometry struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometries  []json.RawMessage `json:"geometries"`
	Meta        *Meta             `json:"meta"`
	CRS         *CRS              `json:"crs"`
}

func (g *Geometry) view() (*geoJSONGeometry, error) {
	if !g.Type.Valid() {
		return nil, &UnsupportedTypeError{Type: g.Type.String()}
	}

	out := &geoJSONGeometry{Type: g.Type.String(), CRS: g.CRS}
	if g.Type == KindGeometryCollection {
		out.Geometries = g.Geometries
		if out.Geometries == nil {
			out.Geometries = []*Geometry{}
		}
	} else {
		if g.Coordinates == nil {
			return nil, Invalidf("%s is missing coordinates", g.Type)
		}
		out.Coordinates = g.Coordinates
	}

	if g.SRID != nil || len(g.Envelope) > 0 {
		out.Meta = &Meta{SRID: g.SRID, Envelope: g.Envelope}
	}
	return out, nil
}

// MarshalJSON writes g as a GeoJSON geometry object with the optional
// "meta" and "crs" members.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	v, err := g.view()
	if err != nil {
		return nil, err
	}
	if v.Type == KindGeometryCollection.String() {
		// geometries must be present even when empty
		return json.Marshal(struct {
			Type       string      `json:"type"`
			Geometries []*Geometry `json:"geometries"`
			Meta       *Meta       `json:"meta,omitempty"`
			CRS        *CRS        `json:"crs,omitempty"`
		}{v.Type, v.Geometries, v.Meta, v.CRS})
	}
	return json.Marshal(v)
}

// UnmarshalJSON reads a GeoJSON geometry object.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw rawGeoJSONGeometry
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode GeoJSON geometry")
	}
	if raw.Type == "" {
		return Invalidf("missing geometry type")
	}

	k, err := ParseKind(raw.Type)
	if err != nil {
		return err
	}

	out := Geometry{Type: k, CRS: raw.CRS}
	if raw.Meta != nil {
		out.SRID = raw.Meta.SRID
		out.Envelope = raw.Meta.Envelope
	}

	if k == KindGeometryCollection {
		if !isNull(raw.Coordinates) {
			return Invalidf("GeometryCollection must carry geometries, not coordinates")
		}
		out.Geometries = make([]*Geometry, 0, len(raw.Geometries))
		for _, member := range raw.Geometries {
			child := new(Geometry)
			if err := child.UnmarshalJSON(member); err != nil {
				return err
			}
			out.Geometries = append(out.Geometries, child)
		}
	} else {
		if isNull(raw.Coordinates) {
			return Invalidf("%s is missing coordinates", k)
		}
		out.Coordinates, err = decodeCoords(k.Depth(), raw.Coordinates)
		if err != nil {
			return Invalidf("%s coordinates: %v", k, err)
		}
	}

	*g = out
	return nil
}

// MarshalYAML maps g onto the same structure as its JSON form.
func (g *Geometry) MarshalYAML() (any, error) {
	return g.view()
}

// UnmarshalYAML accepts the same structure as UnmarshalJSON.
func (g *Geometry) UnmarshalYAML(node *yaml.Node) error {
	var generic map[string]any
	if err := node.Decode(&generic); err != nil {
		return err
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return errors.Wrap(err, "convert YAML geometry")
	}
	return g.UnmarshalJSON(data)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeCoords(depth int, raw json.RawMessage) (Coords, error) {
	var (
		c   Coords
		err error
	)
	switch depth {
	case 0:
		var v Vertex
		err = json.Unmarshal(raw, &v)
		c = v
	case 1:
		var s Sequence
		err = json.Unmarshal(raw, &s)
		c = s
	case 2:
		var n NestedSequence
		err = json.Unmarshal(raw, &n)
		c = n
	default:
		var d DoublyNestedSequence
		err = json.Unmarshal(raw, &d)
		c = d
	}
	return c, err
}

// MarshalJSON writes a nil vertex as an empty array.
func (v Vertex) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]float64(v))
}

// MarshalJSON writes a nil sequence as an empty array.
func (s Sequence) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Vertex(s))
}

// MarshalJSON writes a nil sequence as an empty array.
func (n NestedSequence) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Sequence(n))
}

// MarshalJSON writes a nil sequence as an empty array.
func (d DoublyNestedSequence) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]NestedSequence(d))
}
