package main

import (
	"io"
	"os"
	"strings"

	"github.com/woozymasta/geomet/internal/config"
	"github.com/woozymasta/geomet/internal/convert"
	"github.com/woozymasta/geomet/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Args struct {
		Geometry string `positional-arg-name:"GEOMETRY" description:"Inline input geometry, overrides --in"`
	} `positional-args:"yes"`

	SRID         *int   `short:"s" long:"srid"          description:"SRID written to the output, overrides the input reference"`
	Decimals     *int   `short:"d" long:"decimals"      description:"Fractional digits for WKT output"`
	ConfigFile   string `short:"c" long:"config"        env:"CONFIG_FILE" description:"Path to configuration file" default:"geomet.yaml"`
	Input        string `short:"i" long:"in"            description:"Input file path. Reads from stdin if empty"`
	Output       string `short:"o" long:"out"           description:"Output file path. Writes to stdout if empty"`
	Format       string `short:"f" long:"format"        description:"Output format (json, yaml, wkt, wkb, esri, gpkg)"`
	From         string `long:"from"                    description:"Input format" default:"auto"`
	Precision    int    `short:"p" long:"precision"     description:"Round coordinates to n digits, -1 keeps them" default:"-1"`
	Indent       int    `long:"indent"                  description:"Indent JSON output by n spaces"`
	Hex          bool   `short:"x" long:"hex"           description:"Write binary formats as hexadecimal text"`
	LittleEndian bool   `long:"little-endian"           description:"Write WKB and GeoPackage in little-endian byte order"`
	Envelope     bool   `long:"envelope"                description:"Add an envelope to GeoPackage output"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	explicit := !parser.FindOptionByLongName("config").IsSetDefault()
	cfg, err := config.Load(opts.ConfigFile, explicit)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.ConfigFile).Msg("Failed to load configuration")
	}

	if err := run(opts, cfg, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Conversion failed")
		os.Exit(1)
	}
}

// run converts the input selected by opts and writes the result.
func run(opts Options, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	input, err := readInput(opts, stdin)
	if err != nil {
		return err
	}

	from, err := convert.ParseFormat(opts.From)
	if err != nil {
		return err
	}
	name := opts.Format
	if name == "" {
		name = cfg.Defaults.Format
	}
	to, err := convert.ParseFormat(name)
	if err != nil {
		return err
	}
	if to == convert.Auto {
		to = convert.JSON
	}

	copts, err := encodeOptions(opts, cfg)
	if err != nil {
		return err
	}

	out, err := convert.Convert(input, from, to, copts)
	if err != nil {
		return err
	}
	if !to.Binary() || copts.Hex {
		out = append(out, '\n')
	}

	log.Debug().
		Str("from", string(from)).
		Str("to", string(to)).
		Int("bytes", len(out)).
		Msg("Geometry converted")

	if opts.Output == "" {
		_, err = stdout.Write(out)
		return err
	}
	return os.WriteFile(opts.Output, out, 0644)
}

func readInput(opts Options, stdin io.Reader) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.Args.Geometry) != "":
		return []byte(opts.Args.Geometry), nil
	case opts.Input != "":
		data, err := os.ReadFile(opts.Input)
		return data, errors.Wrap(err, "read input file")
	default:
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "read stdin")
	}
}

// encodeOptions layers command line flags over configuration defaults.
func encodeOptions(opts Options, cfg *config.Config) (convert.Options, error) {
	c := convert.DefaultOptions()
	if cfg.Defaults.Decimals != nil {
		c.Decimals = *cfg.Defaults.Decimals
	}
	if opts.Decimals != nil {
		c.Decimals = *opts.Decimals
	}
	if c.Decimals < 0 {
		return c, errors.Errorf("--decimals must be >= 0, got %d", c.Decimals)
	}
	if opts.Indent < 0 {
		return c, errors.Errorf("--indent must be >= 0, got %d", opts.Indent)
	}

	c.Precision = opts.Precision
	c.LittleEndian = opts.LittleEndian || cfg.Defaults.LittleEndian
	c.SRID = opts.SRID
	c.DefaultSRID = cfg.Defaults.SRID
	c.Indent = cfg.Defaults.Indent
	if opts.Indent > 0 {
		c.Indent = strings.Repeat(" ", opts.Indent)
	}
	c.Hex = opts.Hex
	c.Envelope = opts.Envelope
	return c, nil
}
