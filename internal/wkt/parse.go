// Package wkt reads and writes geometries as Well-Known Text and its
// extended form with an SRID=<n>; prefix.
package wkt

import (
	"io"
	"strconv"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
)

type parser struct {
	input string
	toks  *tokenStream

	// dimension tag of the geometry being parsed, if any
	tag    geo.Dim
	tagged bool
}

// Unmarshal parses text into a geometry. Keywords are upper case.
// Grammar errors are reported as *geo.InvalidWKTError carrying the whole input.
func Unmarshal(text string) (*geo.Geometry, error) {
	p := &parser{input: text, toks: newTokenStream(text)}

	srid, hasSRID, err := p.parseSRID()
	if err != nil {
		return nil, err
	}

	g, err := p.parseGeometry()
	if err != nil {
		return nil, err
	}
	if _, ok := p.toks.next(); ok {
		return nil, p.fail()
	}

	if hasSRID {
		g.SRID = &srid
	}
	return g, nil
}

// Read parses the whole of r.
func Read(r io.Reader) (*geo.Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read WKT")
	}
	return Unmarshal(string(data))
}

func (p *parser) fail() error {
	return &geo.InvalidWKTError{Input: p.input}
}

func (p *parser) expect(want string) error {
	tok, ok := p.toks.next()
	if !ok || tok != want {
		return p.fail()
	}
	return nil
}

func (p *parser) parseSRID() (int, bool, error) {
	tok, ok := p.toks.peek()
	if !ok {
		return 0, false, p.fail()
	}
	if tok != "SRID" {
		return 0, false, nil
	}
	p.toks.next()

	if err := p.expect("="); err != nil {
		return 0, false, err
	}
	tok, ok = p.toks.next()
	if !ok {
		return 0, false, p.fail()
	}
	srid, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false, p.fail()
	}
	if err := p.expect(";"); err != nil {
		return 0, false, err
	}
	return srid, true, nil
}

func (p *parser) parseGeometry() (*geo.Geometry, error) {
	keyword, ok := p.toks.next()
	if !ok {
		return nil, p.fail()
	}
	kind, ok := geo.ParseKeyword(keyword)
	if !ok {
		return nil, &geo.UnsupportedTypeError{Type: keyword}
	}

	savedTag, savedTagged := p.tag, p.tagged
	defer func() { p.tag, p.tagged = savedTag, savedTagged }()
	p.tagged = false

	tok, ok := p.toks.peek()
	if !ok {
		return nil, p.fail()
	}
	switch tok {
	case "Z":
		p.tag, p.tagged = geo.DimZ, true
	case "M":
		p.tag, p.tagged = geo.DimM, true
	case "ZM":
		p.tag, p.tagged = geo.DimZM, true
	}
	if p.tagged {
		p.toks.next()
		if tok, ok = p.toks.peek(); !ok {
			return nil, p.fail()
		}
	}

	if tok == "EMPTY" {
		p.toks.next()
		return geo.Empty(kind), nil
	}

	var (
		coords geo.Coords
		err    error
	)
	switch kind {
	case geo.KindPoint:
		coords, err = p.parsePoint()
	case geo.KindLineString:
		coords, err = p.parseSequence()
	case geo.KindPolygon, geo.KindMultiLineString:
		coords, err = p.parseNested()
	case geo.KindMultiPoint:
		coords, err = p.parseMultiPoint()
	case geo.KindMultiPolygon:
		coords, err = p.parseDoublyNested()
	case geo.KindGeometryCollection:
		return p.parseCollection()
	}
	if err != nil {
		return nil, err
	}
	return geo.New(kind, coords), nil
}

// parseNumber accepts plain decimals only: an optional sign, digits and
// at most one point. Exponents, NaN and Inf are rejected.
func parseNumber(tok string) (float64, bool) {
	i := 0
	if i < len(tok) && (tok[i] == '-' || tok[i] == '+') {
		i++
	}
	digits, dots := 0, 0
	for ; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, false
		}
	}
	if digits == 0 || dots > 1 {
		return 0, false
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseVertex reads numbers up to the next "," or ")".
func (p *parser) parseVertex() (geo.Vertex, error) {
	v := make(geo.Vertex, 0, 4)
	for {
		tok, ok := p.toks.peek()
		if !ok {
			return nil, p.fail()
		}
		if tok == "," || tok == ")" {
			break
		}
		p.toks.next()

		x, ok := parseNumber(tok)
		if !ok {
			return nil, p.fail()
		}
		v = append(v, x)
	}

	if p.tagged {
		if len(v) != p.tag.Arity() {
			return nil, p.fail()
		}
		if p.tag == geo.DimM {
			v = append(v[:2], 0, v[2])
		}
		return v, nil
	}
	if len(v) < 2 || len(v) > 4 {
		return nil, p.fail()
	}
	return v, nil
}

func (p *parser) parsePoint() (geo.Vertex, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	v, err := p.parseVertex()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return v, nil
}

// list parses "(" item {"," item} ")".
func (p *parser) list(item func() error) error {
	if err := p.expect("("); err != nil {
		return err
	}
	for {
		if err := item(); err != nil {
			return err
		}
		tok, ok := p.toks.next()
		if !ok {
			return p.fail()
		}
		switch tok {
		case ",":
			continue
		case ")":
			return nil
		default:
			return p.fail()
		}
	}
}

func (p *parser) parseSequence() (geo.Sequence, error) {
	var s geo.Sequence
	err := p.list(func() error {
		v, err := p.parseVertex()
		s = append(s, v)
		return err
	})
	return s, err
}

func (p *parser) parseNested() (geo.NestedSequence, error) {
	var n geo.NestedSequence
	err := p.list(func() error {
		s, err := p.parseSequence()
		n = append(n, s)
		return err
	})
	return n, err
}

func (p *parser) parseDoublyNested() (geo.DoublyNestedSequence, error) {
	var d geo.DoublyNestedSequence
	err := p.list(func() error {
		n, err := p.parseNested()
		d = append(d, n)
		return err
	})
	return d, err
}

// parseMultiPoint accepts both ((x y), (x y)) and (x y, x y).
func (p *parser) parseMultiPoint() (geo.Sequence, error) {
	var s geo.Sequence
	err := p.list(func() error {
		tok, ok := p.toks.peek()
		if !ok {
			return p.fail()
		}
		var (
			v   geo.Vertex
			err error
		)
		if tok == "(" {
			v, err = p.parsePoint()
		} else {
			v, err = p.parseVertex()
		}
		s = append(s, v)
		return err
	})
	return s, err
}

func (p *parser) parseCollection() (*geo.Geometry, error) {
	children := []*geo.Geometry{}
	err := p.list(func() error {
		child, err := p.parseGeometry()
		if err != nil {
			return err
		}
		children = append(children, child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return geo.NewCollection(children...), nil
}
