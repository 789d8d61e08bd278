package render

import (
	"strconv"
	"strings"

	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/numfmt"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

const (
	svgMediaType = "image/svg+xml"

	fillColor   = "#4a90d9"
	strokeColor = "#1f4e79"
	pointRadius = 3
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc(svgMediaType, svg.Minify)
	return m
}()

// SVG draws g on a size x size canvas: points as circles, lines as open
// paths and polygons as even-odd filled paths. The document is minified.
func SVG(g *geo.Geometry, size int) ([]byte, error) {
	shapes, err := layout(g, size)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	dim := strconv.Itoa(size)
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + dim + `" height="` + dim +
		`" viewBox="0 0 ` + dim + ` ` + dim + `">` + "\n")

	for _, sh := range shapes {
		switch sh.kind {
		case shapePoint:
			p := sh.rings[0][0]
			sb.WriteString(`  <circle cx="` + coord(p.X) + `" cy="` + coord(p.Y) +
				`" r="` + strconv.Itoa(pointRadius) + `" fill="` + strokeColor + `"/>` + "\n")
		case shapeLine:
			sb.WriteString(`  <path d="` + pathData(sh.rings, false) + `" fill="none" stroke="` +
				strokeColor + `" stroke-width="1.5"/>` + "\n")
		case shapePolygon:
			sb.WriteString(`  <path d="` + pathData(sh.rings, true) + `" fill="` + fillColor +
				`" fill-opacity="0.6" fill-rule="evenodd" stroke="` + strokeColor + `" stroke-width="1"/>` + "\n")
		}
	}
	sb.WriteString("</svg>\n")

	out, err := minifier.Bytes(svgMediaType, []byte(sb.String()))
	if err != nil {
		return nil, errors.Wrap(err, "minify svg")
	}
	return out, nil
}

func coord(v float64) string {
	s, err := numfmt.Format(v, 2)
	if err != nil {
		return "0"
	}
	return s
}

func pathData(rings [][]point, closed bool) string {
	var sb strings.Builder
	for _, ring := range rings {
		for i, p := range ring {
			if i == 0 {
				sb.WriteByte('M')
			} else {
				sb.WriteString(" L")
			}
			sb.WriteString(coord(p.X))
			sb.WriteByte(' ')
			sb.WriteString(coord(p.Y))
		}
		if closed {
			sb.WriteString(" Z ")
		}
	}
	return strings.TrimSpace(sb.String())
}
