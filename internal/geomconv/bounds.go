package geomconv

import (
	"github.com/woozymasta/geomet/internal/geo"

	"github.com/twpayne/go-geom"
)

// Bounds returns the bounding box of every non-empty member of g. The
// second result is false when g holds no coordinates at all.
func Bounds(g *geo.Geometry) (*geom.Bounds, bool, error) {
	if err := g.Validate(); err != nil {
		return nil, false, err
	}

	b := geom.NewBounds(geom.XY)
	found := false
	err := extend(b, g, &found)
	if err != nil {
		return nil, false, err
	}
	return b, found, nil
}

func extend(b *geom.Bounds, g *geo.Geometry, found *bool) error {
	if g.Type == geo.KindGeometryCollection {
		for _, child := range g.Geometries {
			if err := extend(b, child, found); err != nil {
				return err
			}
		}
		return nil
	}
	if g.IsEmpty() {
		return nil
	}

	t, err := toGeom(g)
	if err != nil {
		return err
	}
	b.Extend(t)
	*found = true
	return nil
}

// Envelope returns the GeoPackage envelope of g: minx, maxx, miny, maxy,
// followed by minz, maxz when the bounds carry Z and minm, maxm when they
// carry M.
func Envelope(g *geo.Geometry) ([]float64, bool, error) {
	b, ok, err := Bounds(g)
	if err != nil || !ok {
		return nil, ok, err
	}

	env := []float64{b.Min(0), b.Max(0), b.Min(1), b.Max(1)}
	layout := b.Layout()
	if z := layout.ZIndex(); z != -1 {
		env = append(env, b.Min(z), b.Max(z))
	}
	if m := layout.MIndex(); m != -1 {
		env = append(env, b.Min(m), b.Max(m))
	}
	return env, true, nil
}
