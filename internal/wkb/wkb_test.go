package wkb

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

// vertex builds a vertex of n ordinates starting at base.
func vertex(n int, base float64) geo.Vertex {
	v := make(geo.Vertex, n)
	for i := range v {
		v[i] = base + float64(i)/4
	}
	return v
}

func samples(n int) map[string]*geo.Geometry {
	ring := geo.Sequence{vertex(n, 0), vertex(n, 10), vertex(n, 20), vertex(n, 0)}
	hole := geo.Sequence{vertex(n, 2), vertex(n, 3), vertex(n, 4), vertex(n, 2)}
	return map[string]*geo.Geometry{
		"point":           geo.New(geo.KindPoint, vertex(n, -1)),
		"linestring":      geo.New(geo.KindLineString, geo.Sequence{vertex(n, 1), vertex(n, 2)}),
		"polygon":         geo.New(geo.KindPolygon, geo.NestedSequence{ring, hole}),
		"multipoint":      geo.New(geo.KindMultiPoint, geo.Sequence{vertex(n, 1), vertex(n, -2), vertex(n, 3)}),
		"multilinestring": geo.New(geo.KindMultiLineString, geo.NestedSequence{{vertex(n, 1), vertex(n, 2)}, {vertex(n, 3), vertex(n, 4)}}),
		"multipolygon":    geo.New(geo.KindMultiPolygon, geo.DoublyNestedSequence{{ring, hole}, {ring}}),
		"collection": geo.NewCollection(
			geo.New(geo.KindPoint, vertex(n, 7)),
			geo.NewCollection(geo.New(geo.KindLineString, geo.Sequence{vertex(n, 1), vertex(n, 2)})),
			geo.New(geo.KindMultiPoint, geo.Sequence{vertex(n, 5)}),
		),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		for name, g := range samples(n) {
			for _, little := range []bool{false, true} {
				t.Run(name, func(t *testing.T) {
					data, err := Marshal(g, WithLittleEndian(little))
					require.NoError(t, err)

					if little {
						assert.Equal(t, NDR, data[0])
					} else {
						assert.Equal(t, XDR, data[0])
					}

					back, err := Unmarshal(data)
					require.NoError(t, err)
					assert.Equal(t, g, back)
				})
			}
		}
	}
}

func TestUnmarshalVectors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want *geo.Geometry
	}{
		{
			"little endian point",
			"01 01000000 000000000000f03f 000000000000f03f",
			geo.New(geo.KindPoint, geo.Vertex{1, 1}),
		},
		{
			"big endian point",
			"00 00000001 3ff0000000000000 4000000000000000",
			geo.New(geo.KindPoint, geo.Vertex{1, 2}),
		},
		{
			"big endian z point",
			"00 00001001 3ff0000000000000 4000000000000000 4008000000000000",
			geo.New(geo.KindPoint, geo.Vertex{1, 2, 3}),
		},
		{
			"iso z point",
			"01 e9030000 000000000000f03f 0000000000000040 0000000000000840",
			geo.New(geo.KindPoint, geo.Vertex{1, 2, 3}),
		},
		{
			"postgis z point",
			"01 01000080 000000000000f03f 0000000000000040 0000000000000840",
			geo.New(geo.KindPoint, geo.Vertex{1, 2, 3}),
		},
		{
			"linestring",
			"00 00000002 00000002 3ff0000000000000 4000000000000000 4008000000000000 4010000000000000",
			geo.New(geo.KindLineString, geo.Sequence{{1, 2}, {3, 4}}),
		},
		{
			"mixed endian members",
			"00 00000004 00000002 00 00000001 3ff0000000000000 4000000000000000 01 01000000 0000000000000840 0000000000001040",
			geo.New(geo.KindMultiPoint, geo.Sequence{{1, 2}, {3, 4}}),
		},
		{
			"empty collection",
			"00 00000007 00000000",
			geo.NewCollection(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Unmarshal(fromHex(t, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestUnmarshalSRID(t *testing.T) {
	g, err := Unmarshal(fromHex(t, "00 20000001 000010e6 0000000000000000 3ff0000000000000"))
	require.NoError(t, err)

	assert.Equal(t, geo.Vertex{0, 1}, g.Coordinates)
	require.NotNil(t, g.SRID)
	assert.Equal(t, 4326, *g.SRID)
	assert.Equal(t, "EPSG4326", g.CRS.Properties.Name)

	g, err = Unmarshal(fromHex(t, "01 01000020 e6100000 0000000000000000 000000000000f03f"))
	require.NoError(t, err)
	assert.Equal(t, 4326, *g.SRID)
}

func TestUnmarshalM(t *testing.T) {
	tests := []struct {
		name string
		data string
		want *geo.Geometry
	}{
		{
			"point",
			"00 00002001 3ff0000000000000 4000000000000000 4008000000000000",
			geo.New(geo.KindPoint, geo.Vertex{1, 2, 0, 3}),
		},
		{
			"iso linestring",
			"01 d2070000 01000000 000000000000f03f 0000000000000040 0000000000000840",
			geo.New(geo.KindLineString, geo.Sequence{{1, 2, 0, 3}}),
		},
		{
			"postgis multipoint",
			"00 40000004 00000001 00 40000001 3ff0000000000000 4000000000000000 4008000000000000",
			geo.New(geo.KindMultiPoint, geo.Sequence{{1, 2, 0, 3}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Unmarshal(fromHex(t, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)

			g.VisitVertices(func(v geo.Vertex) {
				require.Len(t, v, 4)
				assert.Zero(t, v[2])
			})
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"empty", "", ErrTruncated},
		{"bad endian", "02 00000001", geo.ErrInvalidEndianByte},
		{"short header", "00 0000", ErrTruncated},
		{"short vertex", "00 00000001 3ff0000000000000", ErrTruncated},
		{"unknown type", "00 00000009", geo.ErrUnsupportedGeometryType},
		{"short srid", "00 20000001 0000", ErrTruncated},
		{"huge count", "00 00000002 7fffffff", ErrTruncated},
		{"negative count", "00 00000002 ffffffff", geo.ErrInvalidGeometryValue},
		{"member kind mismatch", "00 00000004 00000001 00 00000002 00000001 3ff0000000000000 4000000000000000", ErrHeaderMismatch},
		{"member dim mismatch", "00 00000004 00000001 00 00001001 3ff0000000000000 4000000000000000 4008000000000000", ErrHeaderMismatch},
		{"nested srid", "00 00000007 00000001 00 20000001 000010e6 3ff0000000000000 4000000000000000", ErrHeaderMismatch},
		{"trailing", "00 00000001 3ff0000000000000 4000000000000000 00", ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Unmarshal(fromHex(t, tt.data))
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Unmarshal([]byte{0x02})
	assert.EqualError(t, err, "Invalid endian byte: '0x02'. Expected 0x00 or 0x01")
}

func TestMarshalVectors(t *testing.T) {
	g := geo.New(geo.KindPoint, geo.Vertex{1, 1})

	data, err := Marshal(g, WithLittleEndian(true))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "01 01000000 000000000000f03f 000000000000f03f"), data)

	data, err = Marshal(geo.New(geo.KindPoint, geo.Vertex{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "00 00001001 3ff0000000000000 4000000000000000 4008000000000000"), data)

	data, err = Marshal(geo.New(geo.KindPoint, geo.Vertex{1, 2, 3}), WithISODimensions(), WithLittleEndian(true))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "01 e9030000 000000000000f03f 0000000000000040 0000000000000840"), data)

	data, err = Marshal(geo.New(geo.KindPoint, geo.Vertex{0, 1}).WithSRID(4326))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "00 20000001 000010e6 0000000000000000 3ff0000000000000"), data)

	data, err = Marshal(geo.New(geo.KindPoint, geo.Vertex{0, 1}), WithSRID(4326), WithLittleEndian(true))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "01 01000020 e6100000 0000000000000000 000000000000f03f"), data)
}

func TestMarshalNestedHeaders(t *testing.T) {
	g := geo.New(geo.KindMultiPoint, geo.Sequence{{1, 2}}).WithSRID(4326)
	data, err := Marshal(g)
	require.NoError(t, err)
	// the SRID is written once, on the outer header only
	assert.Equal(t, fromHex(t, "00 20000004 000010e6 00000001 00 00000001 3ff0000000000000 4000000000000000"), data)
}

func TestMarshalCRSOnly(t *testing.T) {
	g := geo.New(geo.KindPoint, geo.Vertex{0, 1})
	g.CRS = geo.NamedCRS("EPSG:4326")

	data, err := Marshal(g)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 4326, *back.SRID)
}

func TestMarshalWithoutSRID(t *testing.T) {
	g := geo.New(geo.KindPoint, geo.Vertex{1, 2}).WithSRID(4326)

	data, err := Marshal(g, WithoutSRID(), WithLittleEndian(true))
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "01 01000000 000000000000f03f 0000000000000040"), data)
}

func TestMarshalErrors(t *testing.T) {
	ambiguous := geo.New(geo.KindPoint, geo.Vertex{0, 1}).WithSRID(4326)
	ambiguous.CRS = geo.NamedCRS("EPSG4327")

	tests := []struct {
		name string
		g    *geo.Geometry
		err  error
	}{
		{"empty point", geo.Empty(geo.KindPoint), geo.ErrEmptyGeometryUnsupported},
		{"linestring of empty vertex", geo.New(geo.KindLineString, geo.Sequence{{}}), geo.ErrEmptyGeometryUnsupported},
		{"empty collection", geo.NewCollection(), geo.ErrEmptyGeometryUnsupported},
		{"collection with empty member", geo.NewCollection(geo.New(geo.KindPoint, geo.Vertex{1, 2}), geo.Empty(geo.KindPolygon)), geo.ErrEmptyGeometryUnsupported},
		{"unknown kind", &geo.Geometry{Type: geo.Kind(9), Coordinates: geo.Vertex{1, 2}}, geo.ErrUnsupportedGeometryType},
		{"ambiguous reference", ambiguous, geo.ErrAmbiguousReference},
		{"collection with coordinates", &geo.Geometry{Type: geo.KindGeometryCollection, Coordinates: geo.Vertex{1, 2}}, geo.ErrInvalidGeometryValue},
		{"mixed arity", geo.New(geo.KindLineString, geo.Sequence{{1, 2}, {1, 2, 3}}), geo.ErrInvalidGeometryValue},
		{"one ordinate", geo.New(geo.KindPoint, geo.Vertex{1}), geo.ErrInvalidGeometryValue},
		{"five ordinates", geo.New(geo.KindPoint, geo.Vertex{1, 2, 3, 4, 5}), geo.ErrInvalidGeometryValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.g)
			assert.Nil(t, data)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Marshal(ambiguous)
	assert.EqualError(t, err, "Ambiguous CRS/SRID values: 4326 and 4327")
}

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	g := geo.New(geo.KindPolygon, geo.NestedSequence{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	require.NoError(t, Write(&buf, g, WithLittleEndian(true)))

	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, g, back)
}
