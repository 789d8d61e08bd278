// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"encoding/json"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/woozymasta/geomet/internal/convert"
	"github.com/woozymasta/geomet/internal/geo"
	"github.com/woozymasta/geomet/internal/render"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const etagCap = 20

type formatInfo struct {
	Name        convert.Format `json:"name"`
	ContentType string         `json:"content_type"`
	Binary      bool           `json:"binary"`
}

type errorBody struct {
	Error string `json:"error"`
}

// HandleConvert converts the request body (POST) or the g query parameter
// (GET) between formats. GET responses carry an ETag.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var input []byte
	switch r.Method {
	case http.MethodGet:
		input = []byte(r.URL.Query().Get("g"))
		if len(input) == 0 {
			writeError(w, http.StatusBadRequest, errors.New("missing g parameter"))
			return
		}
	case http.MethodPost:
		var err error
		if input, err = s.readBody(w, r); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	q := r.URL.Query()
	from, err := convert.ParseFormat(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := convert.ParseFormat(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if to == convert.Auto {
		to = s.Output
	}

	opts, err := s.options(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := convert.Convert(input, from, to, opts)
	if err != nil {
		log.Debug().Err(err).Str("from", string(from)).Str("to", string(to)).Msg("Conversion rejected")
		writeError(w, statusFor(err), err)
		return
	}

	if r.Method == http.MethodGet {
		etag := etagOf(out)
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(s.Config.Server.CacheMaxAge))
	}

	w.Header().Set("Content-Type", to.ContentType(opts.Hex))
	_, _ = w.Write(out)
}

// HandlePreview renders the body geometry as SVG or WebP.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	input, err := s.readBody(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	q := r.URL.Query()
	size := s.Config.Server.PreviewSize
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "size"))
			return
		}
	}
	from, err := convert.ParseFormat(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := convert.Decode(input, from)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	switch format := q.Get("format"); format {
	case "", "svg":
		out, err := render.SVG(g, size)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(out)
	case "webp":
		var buf bytes.Buffer
		if err := render.WebP(&buf, g, size); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
		_, _ = buf.WriteTo(w)
	default:
		writeError(w, http.StatusBadRequest, errors.Errorf("unknown preview format %q", format))
	}
}

// HandleFormats lists the supported formats.
func (s *ServerContext) HandleFormats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	list := make([]formatInfo, 0, len(convert.Formats))
	for _, f := range convert.Formats {
		list = append(list, formatInfo{Name: f, ContentType: f.ContentType(false), Binary: f.Binary()})
	}

	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(list)
}

// HandleHealth answers liveness probes.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *ServerContext) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.Config.Server.MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, geo.Invalidf("empty request body")
	}
	return body, nil
}

// options overlays query parameters on the configured defaults.
func (s *ServerContext) options(q url.Values) (convert.Options, error) {
	opts := s.Defaults
	get := q.Get

	ints := []struct {
		key string
		set func(int)
	}{
		{"decimals", func(v int) { opts.Decimals = v }},
		{"precision", func(v int) { opts.Precision = v }},
		{"srid", func(v int) { opts.SRID = &v }},
	}
	for _, p := range ints {
		v := get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.Wrap(err, p.key)
		}
		p.set(n)
	}

	switch strings.ToLower(get("endian")) {
	case "":
	case "little", "ndr":
		opts.LittleEndian = true
	case "big", "xdr":
		opts.LittleEndian = false
	default:
		return opts, errors.Errorf("unknown endian %q", get("endian"))
	}

	opts.Hex = isTrue(get("hex"))
	opts.Envelope = isTrue(get("envelope"))
	if v := get("indent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 8 {
			return opts, errors.Errorf("invalid indent %q", v)
		}
		opts.Indent = strings.Repeat(" ", n)
	}
	return opts, nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func etagOf(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendUint(buf, h.Sum64(), 16)
	buf = append(buf, '"')
	return string(buf)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}
