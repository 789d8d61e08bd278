package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/woozymasta/geomet/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	s, err := NewServerContext(cfg)
	require.NoError(t, err)
	return s.Handler()
}

func do(h http.Handler, method, target string, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHandleConvert(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name        string
		target      string
		body        string
		want        string
		contentType string
	}{
		{
			name:        "wkt to geojson",
			target:      "/api/convert?to=geojson",
			body:        "POINT (1 2)",
			want:        `{"type":"Point","coordinates":[1,2]}`,
			contentType: "application/geo+json",
		},
		{
			name:        "default output is json",
			target:      "/api/convert",
			body:        "SRID=4326;POINT (1 2)",
			want:        `{"type":"Point","coordinates":[1,2],"meta":{"srid":4326}}`,
			contentType: "application/geo+json",
		},
		{
			name:        "wkb hex little endian",
			target:      "/api/convert?to=wkb&hex=1&endian=little",
			body:        "POINT (1 2)",
			want:        "0101000000000000000000f03f0000000000000040",
			contentType: "text/plain; charset=utf-8",
		},
		{
			name:        "wkt decimals",
			target:      "/api/convert?to=wkt&decimals=2",
			body:        `{"type": "LineString", "coordinates": [[0, 0], [1.5, 2]]}`,
			want:        "LINESTRING (0.00 0.00, 1.50 2.00)",
			contentType: "text/plain; charset=utf-8",
		},
		{
			name:        "srid override",
			target:      "/api/convert?to=ewkt&decimals=0&srid=3857",
			body:        "SRID=4326;POINT (1 2)",
			want:        "SRID=3857;POINT (1 2)",
			contentType: "text/plain; charset=utf-8",
		},
		{
			name:        "explicit source format",
			target:      "/api/convert?from=esri&to=wkt&decimals=0",
			body:        `{"x": 1, "y": 2, "spatialReference": {"wkid": 2000}}`,
			want:        "SRID=2000;POINT (1 2)",
			contentType: "text/plain; charset=utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, tt.target, tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			if strings.HasPrefix(tt.want, "{") {
				assert.JSONEq(t, tt.want, rec.Body.String())
			} else {
				assert.Equal(t, tt.want, rec.Body.String())
			}
			assert.Empty(t, rec.Header().Get("ETag"))
		})
	}
}

func TestHandleConvertGetETag(t *testing.T) {
	h := newTestServer(t, nil)
	target := "/api/convert?to=wkt&decimals=0&g=" + url.QueryEscape("POINT (1 2)")

	rec := do(h, http.MethodGet, target, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POINT (1 2)", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, etagOf([]byte("POINT (1 2)")), etag)

	rec = do(h, http.MethodGet, target, "", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(h, http.MethodGet, target, "", http.Header{"If-None-Match": {`"stale"`}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleConvertErrors(t *testing.T) {
	h := newTestServer(t, &config.Config{Server: config.Server{MaxBodyBytes: 32}})

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		status  int
		message string
	}{
		{"invalid wkt", http.MethodPost, "/api/convert?from=wkt", "POINT (1", http.StatusBadRequest, "Invalid WKT: `POINT (1`"},
		{"unsupported", http.MethodPost, "/api/convert", "TETRAHEDRON (1 2)", http.StatusBadRequest, "Unsupported geometry type 'TETRAHEDRON'"},
		{"empty wkb", http.MethodPost, "/api/convert?to=wkb", "POINT EMPTY", http.StatusBadRequest, ""},
		{"unknown target", http.MethodPost, "/api/convert?to=kml", "POINT (1 2)", http.StatusBadRequest, ""},
		{"bad decimals", http.MethodPost, "/api/convert?decimals=x", "POINT (1 2)", http.StatusBadRequest, ""},
		{"bad endian", http.MethodPost, "/api/convert?endian=middle", "POINT (1 2)", http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/convert", "  ", http.StatusBadRequest, ""},
		{"missing g", http.MethodGet, "/api/convert", "", http.StatusBadRequest, "missing g parameter"},
		{"too large", http.MethodPost, "/api/convert", "LINESTRING (0 0, 1 1, 2 2, 3 3, 4 4, 5 5)", http.StatusRequestEntityTooLarge, ""},
		{"method", http.MethodPut, "/api/convert", "POINT (1 2)", http.StatusMethodNotAllowed, "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			msg := errorMessage(t, rec)
			if tt.message != "" {
				assert.Equal(t, tt.message, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestHandlePreview(t *testing.T) {
	h := newTestServer(t, nil)
	polygon := "POLYGON ((0 0, 10 0, 10 10, 0 0))"

	rec := do(h, http.MethodPost, "/api/preview", polygon, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec = do(h, http.MethodPost, "/api/preview?format=webp&size=64", polygon, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("RIFF")))

	errs := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"empty geometry", http.MethodPost, "/api/preview", "POINT EMPTY", http.StatusBadRequest},
		{"size", http.MethodPost, "/api/preview?size=2", polygon, http.StatusBadRequest},
		{"size not a number", http.MethodPost, "/api/preview?size=big", polygon, http.StatusBadRequest},
		{"format", http.MethodPost, "/api/preview?format=png", polygon, http.StatusBadRequest},
		{"method", http.MethodGet, "/api/preview", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestHandleFormats(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/api/formats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []formatInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 6)
	assert.Equal(t, formatInfo{Name: "wkb", ContentType: "application/octet-stream", Binary: true}, list[3])

	rec = do(h, http.MethodPost, "/api/formats", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestHandleHealth(t *testing.T) {
	rec := do(newTestServer(t, nil), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNewServerContextBadFormat(t *testing.T) {
	_, err := NewServerContext(&config.Config{Defaults: config.Defaults{Format: "kml"}})
	assert.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	rec := do(newTestServer(t, nil), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Status int    `json:"status"`
		Bytes  int    `json:"bytes"`
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "GET", entry.Method)
	assert.Equal(t, "/healthz", entry.Path)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, 2, entry.Bytes)
}
