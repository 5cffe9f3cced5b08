// Package config loads pcbnet settings from a YAML file, a .env file, and
// PCBNET_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pcb-netlist/internal/connectivity"
	"pcb-netlist/internal/segment"
	"pcb-netlist/pkg/colorutil"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PCBNET_"

// HSVTriple is an [h, s, v] triple in OpenCV ranges.
type HSVTriple [3]float64

func (t HSVTriple) hsv() colorutil.HSV { return colorutil.HSV{H: t[0], S: t[1], V: t[2]} }

// CustomBounds holds explicit threshold bounds for the custom color model.
type CustomBounds struct {
	Lower HSVTriple `yaml:"lower"`
	Upper HSVTriple `yaml:"upper"`
}

// OCRConfig controls designator recognition.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config holds all configuration values.
type Config struct {
	// Segmentation
	ColorModel       string        `yaml:"color_model"`
	CustomHSVBounds  *CustomBounds `yaml:"custom_hsv_bounds"`
	Invert           bool          `yaml:"invert"`
	MorphKernelSize  int           `yaml:"morph_kernel_size"`
	MorphKernelShape string        `yaml:"morph_kernel_shape"`
	MorphIterations  int           `yaml:"morph_iterations"`

	// Connectivity
	PerimeterSampleStep int  `yaml:"perimeter_sample_step"`
	TouchRadius         int  `yaml:"touch_radius"`
	ConnectivityMode    int  `yaml:"connectivity_mode"`
	MaxEvidenceCap      int  `yaml:"max_evidence_cap"`
	RectPadding         int  `yaml:"rect_padding"`
	RequireNodes        bool `yaml:"require_nodes"`
	Workers             int  `yaml:"workers"`

	// Run
	Timeout       time.Duration `yaml:"timeout"`
	MinConfidence float64       `yaml:"min_confidence"`
	DataRoot      string        `yaml:"data_root"`

	OCR    OCRConfig    `yaml:"ocr"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	seg := segment.DefaultOptions()
	conn := connectivity.DefaultOptions()
	return Config{
		ColorModel:       seg.ColorModel.Preset.String(),
		MorphKernelSize:  seg.KernelSize,
		MorphKernelShape: seg.KernelShape.String(),
		MorphIterations:  seg.Iterations,

		PerimeterSampleStep: conn.PerimeterStep,
		TouchRadius:         conn.TouchRadius,
		ConnectivityMode:    int(conn.Connectivity),
		MaxEvidenceCap:      conn.MaxEvidence,
		RectPadding:         conn.RectPadding,

		Timeout:  2 * time.Minute,
		DataRoot: "./runs",

		OCR:    OCRConfig{Language: "eng"},
		Log:    LogConfig{Level: "INFO", File: "/tmp/pcbnet.log"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory if present, and
// PCBNET_* environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ColorModel = getEnv("COLOR_MODEL", c.ColorModel)
	c.MorphKernelShape = getEnv("MORPH_KERNEL_SHAPE", c.MorphKernelShape)
	c.DataRoot = getEnv("DATA_ROOT", c.DataRoot)
	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)

	ints := []struct {
		key string
		dst *int
	}{
		{"MORPH_KERNEL_SIZE", &c.MorphKernelSize},
		{"MORPH_ITERATIONS", &c.MorphIterations},
		{"PERIMETER_SAMPLE_STEP", &c.PerimeterSampleStep},
		{"TOUCH_RADIUS", &c.TouchRadius},
		{"CONNECTIVITY_MODE", &c.ConnectivityMode},
		{"MAX_EVIDENCE_CAP", &c.MaxEvidenceCap},
		{"RECT_PADDING", &c.RectPadding},
		{"WORKERS", &c.Workers},
	}
	for _, e := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + e.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, e.key, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"INVERT", &c.Invert},
		{"REQUIRE_NODES", &c.RequireNodes},
		{"OCR_ENABLED", &c.OCR.Enabled},
	}
	for _, e := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + e.key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, e.key, err)
			}
			*e.dst = b
		}
	}

	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvPrefix + "MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMIN_CONFIDENCE: %w", EnvPrefix, err)
		}
		c.MinConfidence = f
	}
	return nil
}

// Validate checks that the configuration converts into valid component options.
func (c Config) Validate() error {
	if _, err := c.SegmentOptions(); err != nil {
		return err
	}
	if _, err := c.ConnectivityOptions(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within 0..1, got %g", c.MinConfidence)
	}
	return nil
}

// SegmentOptions converts the configuration into segmenter options.
func (c Config) SegmentOptions() (segment.Options, error) {
	preset, err := segment.ParsePreset(c.ColorModel)
	if err != nil {
		return segment.Options{}, err
	}
	shape, err := segment.ParseKernelShape(c.MorphKernelShape)
	if err != nil {
		return segment.Options{}, err
	}

	opts := segment.DefaultOptions().WithPreset(preset).WithKernel(c.MorphKernelSize)
	if preset == segment.PresetCustom {
		if c.CustomHSVBounds == nil {
			return segment.Options{}, fmt.Errorf("%w: custom color model needs custom_hsv_bounds", segment.ErrInvalidOptions)
		}
		opts = opts.WithCustomBounds(c.CustomHSVBounds.Lower.hsv(), c.CustomHSVBounds.Upper.hsv())
	}
	opts.Invert = c.Invert
	opts.KernelShape = shape
	opts.Iterations = c.MorphIterations

	if err := opts.Validate(); err != nil {
		return segment.Options{}, err
	}
	return opts, nil
}

// ConnectivityOptions converts the configuration into resolver options.
func (c Config) ConnectivityOptions() (connectivity.Options, error) {
	adj, err := connectivity.ParseAdjacency(c.ConnectivityMode)
	if err != nil {
		return connectivity.Options{}, err
	}
	opts := connectivity.Options{
		PerimeterStep: c.PerimeterSampleStep,
		TouchRadius:   c.TouchRadius,
		Connectivity:  adj,
		MaxEvidence:   c.MaxEvidenceCap,
		RectPadding:   c.RectPadding,
		RequireNodes:  c.RequireNodes,
		Workers:       c.Workers,
	}
	if err := opts.Validate(); err != nil {
		return connectivity.Options{}, err
	}
	return opts, nil
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() slog.Level {
	return parseLogLevel(c.Log.Level)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
