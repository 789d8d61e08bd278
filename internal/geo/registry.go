package geo

import "fmt"

// SRIDFlag marks a WKB type header that is followed by a 4-byte SRID.
const SRIDFlag uint32 = 0x20000000

// PostGIS EWKB dimension flags, accepted on decode only.
const (
	postgisZFlag uint32 = 0x80000000
	postgisMFlag uint32 = 0x40000000
)

// dimension markers shifted into the second byte of the header
var dimMarkers = [...]uint32{Dim2D: 0x00, DimZ: 0x10, DimM: 0x20, DimZM: 0x30}

// Header returns the canonical big-endian type header for kind k with
// dimensionality d. Reversing its bytes gives the little-endian wire form.
func Header(k Kind, d Dim, srid bool) uint32 {
	h := dimMarkers[d]<<8 | uint32(k)
	if srid {
		h |= SRIDFlag
	}
	return h
}

// ISOHeader returns the ISO SQL/MM type header (ordinal + 1000 per dimension step).
func ISOHeader(k Kind, d Dim, srid bool) uint32 {
	h := uint32(d)*1000 + uint32(k)
	if srid {
		h |= SRIDFlag
	}
	return h
}

// ParseHeader is the inverse of Header. It also understands the ISO
// convention and the PostGIS Z/M flag bits.
func ParseHeader(h uint32) (Kind, Dim, bool, error) {
	srid := h&SRIDFlag != 0
	base := h &^ (SRIDFlag | postgisZFlag | postgisMFlag)

	var dim Dim
	var ordinal uint32
	switch {
	case base&0xff <= uint32(KindGeometryCollection) && base>>8 <= 0x30 && (base>>8)&0x0f == 0:
		ordinal = base & 0xff
		dim = Dim(base >> 12)
	case base >= 1000 && base < 4000:
		ordinal = base % 1000
		dim = Dim(base / 1000)
	default:
		return 0, 0, false, unsupportedHeader(h)
	}

	flags := h & (postgisZFlag | postgisMFlag)
	if flags != 0 {
		if dim != Dim2D {
			return 0, 0, false, unsupportedHeader(h)
		}
		switch flags {
		case postgisZFlag:
			dim = DimZ
		case postgisMFlag:
			dim = DimM
		default:
			dim = DimZM
		}
	}

	k := Kind(ordinal)
	if !k.Valid() {
		return 0, 0, false, unsupportedHeader(h)
	}

	return k, dim, srid, nil
}

func unsupportedHeader(h uint32) error {
	return &UnsupportedTypeError{Type: fmt.Sprintf("0x%08x", h)}
}
