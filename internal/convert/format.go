// Package convert detects geometry encodings and converts between them. It
// is the shared dispatch layer behind the command line tools and the HTTP
// service.
package convert

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/woozymasta/geomet/internal/geopackage"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Format names a geometry encoding.
type Format string

const (
	Auto Format = "auto"
	JSON Format = "json"
	YAML Format = "yaml"
	WKT  Format = "wkt"
	WKB  Format = "wkb"
	Esri Format = "esri"
	GPKG Format = "gpkg"
)

// ErrUnknownFormat is returned for a format name outside Formats.
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists every concrete format in display order.
var Formats = []Format{JSON, YAML, WKT, WKB, Esri, GPKG}

var contentTypes = map[Format]string{
	JSON: "application/geo+json",
	YAML: "application/yaml",
	WKT:  "text/plain; charset=utf-8",
	WKB:  "application/octet-stream",
	Esri: "application/json",
	GPKG: "application/octet-stream",
}

// ParseFormat maps a case-insensitive name to a Format. "geojson" is an
// alias of json and "ewkt"/"ewkb" of wkt/wkb.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", Auto:
		return Auto, nil
	case "geojson":
		return JSON, nil
	case "yml":
		return YAML, nil
	case "ewkt":
		return WKT, nil
	case "ewkb":
		return WKB, nil
	case "esrijson", "arcgis":
		return Esri, nil
	case "geopackage":
		return GPKG, nil
	case JSON, YAML, WKT, WKB, Esri, GPKG:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// Binary reports whether the format produces raw bytes.
func (f Format) Binary() bool {
	return f == WKB || f == GPKG
}

// ContentType returns the MIME type of the format. hex selects text for
// binary formats written as hexadecimal.
func (f Format) ContentType(hex bool) string {
	if hex && f.Binary() {
		return "text/plain; charset=utf-8"
	}
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Detect guesses the format of data. Hex encoded WKB and GeoPackage blobs
// are reported as their binary format.
func Detect(data []byte) Format {
	if geopackage.IsGeoPackage(data) {
		return GPKG
	}
	if len(data) > 0 && (data[0] == 0x00 || data[0] == 0x01) {
		return WKB
	}
	if !utf8.Valid(data) {
		return WKB
	}

	text := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(text, []byte("{")):
		if gjson.GetBytes(text, "type").Exists() {
			return JSON
		}
		return Esri
	case bytes.HasPrefix(text, []byte("---")), bytes.HasPrefix(text, []byte("type:")):
		return YAML
	}

	if raw, ok := decodeHex(text); ok {
		if geopackage.IsGeoPackage(raw) {
			return GPKG
		}
		return WKB
	}
	return WKT
}

// decodeHex decodes text made only of an even number of hex digits.
func decodeHex(text []byte) ([]byte, bool) {
	if len(text) == 0 || len(text)%2 != 0 {
		return nil, false
	}
	for _, c := range text {
		if !isHexDigit(c) {
			return nil, false
		}
	}
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return nil, false
	}
	return raw, true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// binaryPayload returns data itself, or its decoded form when data is hex text.
func binaryPayload(data []byte) []byte {
	if raw, ok := decodeHex(bytes.TrimSpace(data)); ok {
		return raw
	}
	return data
}
