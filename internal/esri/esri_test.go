package esri

import (
	"bytes"
	"strings"
	"testing"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *geo.Geometry
	}{
		{
			"point",
			`{"x": 25282, "y": 43770, "spatialReference": {"wkid": 3857}}`,
			geo.New(geo.KindPoint, geo.Vertex{25282, 43770}).WithSRID(3857),
		},
		{
			"point without y",
			`{"x": 25282}`,
			geo.Empty(geo.KindPoint),
		},
		{
			"point with null x",
			`{"x": null, "y": 1}`,
			geo.Empty(geo.KindPoint),
		},
		{
			"multipoint",
			`{"points": [[-97.06138, 32.837], [-97.06133, 32.836, 7]], "spatialReference": {"wkid": 26955}}`,
			geo.New(geo.KindMultiPoint, geo.Sequence{{-97.06138, 32.837}, {-97.06133, 32.836, 7}}).WithSRID(26955),
		},
		{
			"paths",
			`{"paths": [[[-97.06138, 32.837], [-97.06133, 32.836]], [[-97.06326, 32.759], null, [-97.06298, 32.755, 3]]]}`,
			geo.New(geo.KindMultiLineString, geo.NestedSequence{
				{{-97.06138, 32.837}, {-97.06133, 32.836}},
				{{-97.06326, 32.759}, {-97.06298, 32.755}},
			}),
		},
		{
			"rings",
			`{"rings": [[[-97.06138, 32.837], [-97.06133, 32.836], [-97.06124, 32.834], [-97.06138, 32.837]],
				[[-97.06326, 32.759], [-97.06298, 32.755], [-97.06153, 32.749], [-97.06326, 32.759]]],
				"spatialReference": {"wkid": 4326}}`,
			geo.New(geo.KindMultiPolygon, geo.DoublyNestedSequence{
				{{{-97.06138, 32.837}, {-97.06133, 32.836}, {-97.06124, 32.834}, {-97.06138, 32.837}}},
				{{{-97.06326, 32.759}, {-97.06298, 32.755}, {-97.06153, 32.749}, {-97.06326, 32.759}}},
			}).WithSRID(4326),
		},
		{
			"rings split by null",
			`{"rings": [[[0, 0], [1, 0], [1, 1], [0, 0], null, [0.2, 0.2], [0.4, 0.2], [0.4, 0.4], [0.2, 0.2]]]}`,
			geo.New(geo.KindMultiPolygon, geo.DoublyNestedSequence{
				{
					{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
					{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}},
				},
			}),
		},
		{
			"rings win over paths",
			`{"paths": [], "rings": []}`,
			geo.New(geo.KindMultiPolygon, geo.DoublyNestedSequence{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Unmarshal([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	input := `{"Tetrahedron": [[1, 2, 34], [2, 3, 4], [4, 5, 6]], "spatialReference": {"wkid": 4326}}`
	_, err := Unmarshal([]byte(input))
	require.ErrorIs(t, err, geo.ErrInvalidGeometryValue)
	assert.EqualError(t, err, "Invalid EsriJSON: "+input)

	for _, input := range []string{
		`{"x": 1`,
		`{"points": [[1]]}`,
		`{"points": [1, 2]}`,
		`{"paths": [[["a", 1]]]}`,
		`{"rings": [[[1, 2], "x"]]}`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Unmarshal([]byte(input))
			assert.ErrorIs(t, err, geo.ErrInvalidGeometryValue)
		})
	}
}

func TestIsEsri(t *testing.T) {
	assert.True(t, IsEsri([]byte(`{"x": 1, "y": 2}`)))
	assert.True(t, IsEsri([]byte(`{"rings": []}`)))
	assert.False(t, IsEsri([]byte(`{"type": "Point", "coordinates": [1, 2]}`)))
	assert.False(t, IsEsri([]byte(`[1, 2]`)))
	assert.False(t, IsEsri([]byte(`POINT (1 2)`)))
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		g    *geo.Geometry
		opts []Option
		want string
	}{
		{
			"point default wkid",
			geo.New(geo.KindPoint, geo.Vertex{25282, 43770}),
			nil,
			`{"x":25282,"y":43770,"spatialReference":{"wkid":4326}}`,
		},
		{
			"point explicit wkid",
			geo.New(geo.KindPoint, geo.Vertex{25282, 43770}).WithSRID(4326),
			[]Option{WithSRID(3857)},
			`{"x":25282,"y":43770,"spatialReference":{"wkid":3857}}`,
		},
		{
			"empty point",
			geo.Empty(geo.KindPoint),
			nil,
			`{"x":null,"y":null,"spatialReference":{"wkid":4326}}`,
		},
		{
			"multipoint with srid",
			geo.New(geo.KindMultiPoint, geo.Sequence{{-97.06138, 32.837}, {-97.06133, 32.836}}).WithSRID(26955),
			nil,
			`{"points":[[-97.06138,32.837],[-97.06133,32.836]],"spatialReference":{"wkid":26955}}`,
		},
		{
			"linestring",
			geo.New(geo.KindLineString, geo.Sequence{{100, 100}, {5, 5}}),
			nil,
			`{"paths":[[[100,100],[5,5]]],"spatialReference":{"wkid":4326}}`,
		},
		{
			"multilinestring with crs",
			&geo.Geometry{
				Type:        geo.KindMultiLineString,
				Coordinates: geo.NestedSequence{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}},
				CRS:         geo.NamedCRS("EPSG:2000"),
			},
			nil,
			`{"paths":[[[0,0],[1,1]],[[2,2],[3,3]]],"spatialReference":{"wkid":2000}}`,
		},
		{
			"polygon",
			geo.New(geo.KindPolygon, geo.NestedSequence{{{100, 0}, {101, 0}, {101, 1}, {100, 0}}}),
			nil,
			`{"rings":[[[100,0],[101,0],[101,1],[100,0]]],"spatialReference":{"wkid":4326}}`,
		},
		{
			"multipolygon",
			geo.New(geo.KindMultiPolygon, geo.DoublyNestedSequence{
				{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
				{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}, {{5.1, 5.1}, {5.2, 5.1}, {5.2, 5.2}, {5.1, 5.1}}},
			}),
			nil,
			`{"rings":[[[0,0],[1,0],[1,1],[0,0]],[[5,5],[6,5],[6,6],[5,5]],[[5.1,5.1],[5.2,5.1],[5.2,5.2],[5.1,5.1]]],"spatialReference":{"wkid":4326}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.g, tt.opts...)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMarshalErrors(t *testing.T) {
	_, err := Marshal(geo.NewCollection(geo.New(geo.KindPoint, geo.Vertex{1, 2})))
	assert.ErrorIs(t, err, geo.ErrUnsupportedGeometryType)

	ambiguous := geo.New(geo.KindPoint, geo.Vertex{1, 2}).WithSRID(4326)
	ambiguous.CRS = geo.NamedCRS("EPSG:4327")
	_, err = Marshal(ambiguous)
	require.ErrorIs(t, err, geo.ErrAmbiguousReference)
	assert.EqualError(t, err, "Ambiguous CRS/SRID values: 4326 and 4327")
}

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, geo.New(geo.KindPoint, geo.Vertex{1, 2})))

	g, err := Read(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, geo.New(geo.KindPoint, geo.Vertex{1, 2}).WithSRID(4326), g)
}
