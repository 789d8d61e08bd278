// Package geopackage reads and writes GeoPackage binary geometry blobs: a
// small "GP" header with an optional envelope wrapped around a WKB payload.
package geopackage

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/wkb"

	"github.com/pkg/errors"
)

const (
	magic0  byte = 'G'
	magic1  byte = 'P'
	version byte = 0x00

	headerLen = 8

	flagLittleEndian byte = 0x01
	flagEmpty        byte = 0x10
	flagExtended     byte = 0x20
)

// ErrInvalidHeader is returned for a blob whose header cannot be read.
var ErrInvalidHeader = errors.New("geopackage: invalid header")

// EnvelopeKind is the envelope indicator stored in bits 1-3 of the flags.
type EnvelopeKind uint8

const (
	EnvelopeNone EnvelopeKind = iota
	EnvelopeXY
	EnvelopeXYZ
	EnvelopeXYM
	EnvelopeXYZM
)

var envelopeSizes = [...]int{0, 4, 6, 6, 8}

// Len returns the number of doubles in the envelope, or -1 for an invalid indicator.
func (k EnvelopeKind) Len() int {
	if int(k) >= len(envelopeSizes) {
		return -1
	}
	return envelopeSizes[k]
}

func envelopeKindFor(n int) (EnvelopeKind, bool) {
	switch n {
	case 4:
		return EnvelopeXY, true
	case 6:
		return EnvelopeXYZ, true
	case 8:
		return EnvelopeXYZM, true
	}
	return EnvelopeNone, false
}

// Header is the decoded fixed part of a blob.
type Header struct {
	LittleEndian bool
	Envelope     EnvelopeKind
	Empty        bool
	SRID         int32
}

func (h Header) order() binary.ByteOrder {
	if h.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Size is the number of bytes before the WKB payload.
func (h Header) Size() int {
	return headerLen + 8*h.Envelope.Len()
}

// ParseHeader validates the magic, version and flags of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerLen {
		return Header{}, errors.Wrapf(ErrInvalidHeader, "need %d bytes, have %d", headerLen, len(data))
	}
	if data[0] != magic0 || data[1] != magic1 {
		return Header{}, errors.Wrapf(ErrInvalidHeader, "bad magic %q", data[:2])
	}
	if data[2] != version {
		return Header{}, errors.Wrapf(ErrInvalidHeader, "unsupported version %d", data[2])
	}

	flags := data[3]
	if flags&flagExtended != 0 {
		return Header{}, errors.Wrap(ErrInvalidHeader, "extended geometries are not supported")
	}
	h := Header{
		LittleEndian: flags&flagLittleEndian != 0,
		Envelope:     EnvelopeKind((flags >> 1) & 0x07),
		Empty:        flags&flagEmpty != 0,
	}
	if h.Envelope.Len() < 0 {
		return Header{}, errors.Wrapf(ErrInvalidHeader, "invalid envelope indicator %d", h.Envelope)
	}
	h.SRID = int32(h.order().Uint32(data[4:8]))
	return h, nil
}

// IsGeoPackage reports whether data starts with a valid header.
func IsGeoPackage(data []byte) bool {
	_, err := ParseHeader(data)
	return err == nil
}

// Unmarshal decodes a blob. A positive header SRID replaces any reference
// carried by the payload and is attached both as SRID and as an EPSG CRS name.
// The envelope, when present, is kept in wire order in Geometry.Envelope.
func Unmarshal(data []byte) (*geo.Geometry, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < h.Size() {
		return nil, errors.Wrapf(ErrInvalidHeader, "envelope needs %d bytes, have %d", h.Size(), len(data))
	}

	var envelope []float64
	if n := h.Envelope.Len(); n > 0 {
		order := h.order()
		envelope = make([]float64, n)
		for i := range envelope {
			off := headerLen + 8*i
			envelope[i] = math.Float64frombits(order.Uint64(data[off : off+8]))
		}
	}

	g, err := wkb.Unmarshal(data[h.Size():])
	if err != nil {
		return nil, errors.Wrap(err, "geopackage payload")
	}
	if h.Empty {
		g = geo.Empty(g.Type)
	}

	g.SRID, g.CRS = nil, nil
	if h.SRID > 0 {
		srid := int(h.SRID)
		g.SRID = &srid
		g.CRS = geo.EPSG(srid)
	}
	g.Envelope = envelope
	return g, nil
}

// Read decodes the whole of r.
func Read(r io.Reader) (*geo.Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read geopackage blob")
	}
	return Unmarshal(data)
}
