package geopackage

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/geomconv"
	"github.com/woozymasta/geomet/internal/wkb"
)

// Option configures Marshal.
type Option func(*encoder)

// WithLittleEndian selects little-endian header and payload. This is the default.
func WithLittleEndian(little bool) Option {
	return func(e *encoder) { e.little = little }
}

// WithEnvelope writes a bounding envelope after the header.
func WithEnvelope(on bool) Option {
	return func(e *encoder) { e.envelope = on }
}

// WithSRID writes srid instead of the geometry's own reference.
func WithSRID(srid int) Option {
	return func(e *encoder) { e.srid = &srid }
}

type encoder struct {
	little   bool
	envelope bool
	srid     *int
}

// Marshal encodes g as a GeoPackage blob. The SRID comes from the option or
// the geometry reference and is 0 when neither is set. An existing
// Geometry.Envelope of 4, 6 or 8 values is written as is; otherwise the
// envelope is computed from the coordinates.
func Marshal(g *geo.Geometry, opts ...Option) ([]byte, error) {
	e := &encoder{little: true}
	for _, opt := range opts {
		opt(e)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	srid := 0
	if e.srid != nil {
		srid = *e.srid
	} else {
		ref, ok, err := g.Reference()
		if err != nil {
			return nil, err
		}
		if ok {
			srid = ref
		}
	}

	payload, err := wkb.Marshal(g, wkb.WithLittleEndian(e.little), wkb.WithoutSRID(), wkb.WithISODimensions())
	if err != nil {
		return nil, err
	}

	var envelope []float64
	kind := EnvelopeNone
	if e.envelope {
		envelope = g.Envelope
		k, ok := envelopeKindFor(len(envelope))
		if !ok {
			envelope, _, err = geomconv.Envelope(g)
			if err != nil {
				return nil, err
			}
			k, _ = envelopeKindFor(len(envelope))
		}
		kind = k
	}

	var order binary.ByteOrder = binary.BigEndian
	flags := byte(kind) << 1
	if e.little {
		order = binary.LittleEndian
		flags |= flagLittleEndian
	}

	h := Header{LittleEndian: e.little, Envelope: kind}
	out := make([]byte, h.Size(), h.Size()+len(payload))
	out[0], out[1], out[2], out[3] = magic0, magic1, version, flags
	order.PutUint32(out[4:8], uint32(int32(srid)))
	for i, v := range envelope {
		off := headerLen + 8*i
		order.PutUint64(out[off:off+8], math.Float64bits(v))
	}
	return append(out, payload...), nil
}

// Write encodes g to w.
func Write(w io.Writer, g *geo.Geometry, opts ...Option) error {
	data, err := Marshal(g, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
