package processor

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/geomet/internal/config"
	"github.com/woozymasta/geomet/internal/convert"
	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/render"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrDownload is returned when a remote source answers with a non 200 status.
var ErrDownload = errors.New("download failed")

func process(ctx context.Context, client *http.Client, j config.Job, force bool) Result {
	res := Result{Name: j.Name, Output: j.Output}

	if !force {
		if info, err := os.Stat(j.Output); err == nil && info.Size() > 0 {
			res.Skipped = true
			return res
		}
	}

	g, err := loadGeometry(ctx, client, j)
	if err != nil {
		res.Err = err
		return res
	}

	format, err := convert.ParseFormat(j.Format)
	if err != nil {
		res.Err = err
		return res
	}
	if format == convert.Auto {
		format = convert.JSON
	}

	out, err := convert.Encode(g, format, jobOptions(j))
	if err != nil {
		res.Err = errors.Wrapf(err, "encode %s", format)
		return res
	}
	if err := writeOutput(j.Output, out); err != nil {
		res.Err = err
		return res
	}
	res.Bytes = len(out)

	if j.Preview != "" {
		res.Preview, res.Err = writePreview(j.Output, j.Preview, g)
	}
	return res
}

func jobOptions(j config.Job) convert.Options {
	opts := convert.DefaultOptions()
	if j.Decimals != nil {
		opts.Decimals = *j.Decimals
	}
	if j.LittleEndian != nil {
		opts.LittleEndian = *j.LittleEndian
	}
	opts.DefaultSRID = j.SRID
	return opts
}

func loadGeometry(ctx context.Context, client *http.Client, j config.Job) (*geo.Geometry, error) {
	if j.Geometry != nil {
		return j.Geometry.Clone(), nil
	}

	data, err := loadSource(ctx, client, j.Source)
	if err != nil {
		return nil, err
	}

	g, err := convert.Decode(data, convert.Auto)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", j.Source)
	}
	return g, nil
}

// loadSource reads a file or downloads an http(s) URL.
func loadSource(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	log.Debug().Str("url", source).Msg("Downloading source geometry")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrDownload, "%s: %d", source, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writePreview renders g next to output and returns the preview path.
func writePreview(output, kind string, g *geo.Geometry) (string, error) {
	path := output + "." + kind

	var buf bytes.Buffer
	switch kind {
	case "svg":
		svg, err := render.SVG(g, render.DefaultSize)
		if err != nil {
			return "", err
		}
		buf.Write(svg)
	case "webp":
		if err := render.WebP(&buf, g, render.DefaultSize); err != nil {
			return "", err
		}
	default:
		return "", errors.Errorf("unknown preview %q", kind)
	}

	if err := writeOutput(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
