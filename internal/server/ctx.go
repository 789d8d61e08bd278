package server

import (
	"net/http"

	"github.com/woozymasta/geomet/internal/config"
	"github.com/woozymasta/geomet/internal/convert"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Defaults convert.Options
	Output   convert.Format
}

// NewServerContext derives the default conversion options from cfg.
func NewServerContext(cfg *config.Config) (*ServerContext, error) {
	cfg.ApplyDefaults()

	output, err := convert.ParseFormat(cfg.Defaults.Format)
	if err != nil {
		return nil, err
	}
	if output == convert.Auto {
		output = convert.JSON
	}

	defaults := convert.DefaultOptions()
	defaults.Decimals = *cfg.Defaults.Decimals
	defaults.LittleEndian = cfg.Defaults.LittleEndian
	defaults.DefaultSRID = cfg.Defaults.SRID
	defaults.Indent = cfg.Defaults.Indent

	log.Info().
		Str("output", string(output)).
		Int("decimals", defaults.Decimals).
		Bool("little_endian", defaults.LittleEndian).
		Int64("max_body_bytes", cfg.Server.MaxBodyBytes).
		Int("preview_size", cfg.Server.PreviewSize).
		Msg("Server context initialized")

	return &ServerContext{Config: cfg, Defaults: defaults, Output: output}, nil
}

// Handler returns the routed and logged HTTP handler.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", s.HandleConvert)
	mux.HandleFunc("/api/preview", s.HandlePreview)
	mux.HandleFunc("/api/formats", s.HandleFormats)
	mux.HandleFunc("/healthz", s.HandleHealth)
	return RequestLogger(mux)
}
