package geo

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds shared by every codec. Concrete errors match them with errors.Is.
var (
	ErrUnsupportedGeometryType  = errors.New("unsupported geometry type")
	ErrInvalidWKT               = errors.New("invalid WKT")
	ErrInvalidEndianByte        = errors.New("invalid endian byte")
	ErrAmbiguousReference       = errors.New("ambiguous CRS/SRID values")
	ErrEmptyGeometryUnsupported = errors.New("empty geometries cannot be encoded to WKB")
	ErrInvalidGeometryValue     = errors.New("invalid geometry value")
)

// UnsupportedTypeError names a geometry type no codec understands.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Unsupported geometry type '%s'", e.Type)
}

// Is matches ErrUnsupportedGeometryType.
func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedGeometryType }

// InvalidWKTError carries the complete input text that failed to parse.
type InvalidWKTError struct {
	Input string
}

func (e *InvalidWKTError) Error() string {
	return fmt.Sprintf("Invalid WKT: `%s`", e.Input)
}

// Is matches ErrInvalidWKT.
func (e *InvalidWKTError) Is(target error) bool { return target == ErrInvalidWKT }

// InvalidEndianError reports a WKB byte order marker other than 0x00 or 0x01.
type InvalidEndianError struct {
	Byte byte
}

func (e *InvalidEndianError) Error() string {
	return fmt.Sprintf("Invalid endian byte: '0x%02x'. Expected 0x00 or 0x01", e.Byte)
}

// Is matches ErrInvalidEndianByte.
func (e *InvalidEndianError) Is(target error) bool { return target == ErrInvalidEndianByte }

// AmbiguousReferenceError reports an SRID and a CRS name that disagree.
type AmbiguousReferenceError struct {
	SRID int
	CRS  string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("Ambiguous CRS/SRID values: %d and %s", e.SRID, e.CRS)
}

// Is matches ErrAmbiguousReference.
func (e *AmbiguousReferenceError) Is(target error) bool { return target == ErrAmbiguousReference }

// InvalidValueError describes a geometry value that is structurally unusable.
type InvalidValueError struct {
	Reason string
}

func (e *InvalidValueError) Error() string {
	return "Invalid geometry value: " + e.Reason
}

// Is matches ErrInvalidGeometryValue.
func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidGeometryValue }

// Invalidf builds an InvalidValueError.
func Invalidf(format string, args ...any) error {
	return &InvalidValueError{Reason: fmt.Sprintf(format, args...)}
}
