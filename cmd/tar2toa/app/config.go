package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
)

const (
	defaultOutputDir        = "."
	defaultQuicklookMaxSize = 1024
)

// Config represents the converter configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Output   OutputConfig  `yaml:"output"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Archives []string      `yaml:"archives"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
	FailFast bool   `yaml:"failFast"` // Abort the batch on the first failed archive
}

// OutputConfig represents product and preview settings
type OutputConfig struct {
	Directory       string          `yaml:"directory"`
	CreationOptions []string        `yaml:"creationOptions"` // GTiff creation options, e.g. COMPRESS=DEFLATE
	Footprint       bool            `yaml:"footprint"`
	Histograms      bool            `yaml:"histograms"`
	Quicklook       QuicklookConfig `yaml:"quicklook"`
}

// QuicklookConfig represents the preview image settings. An empty band
// disables the preview.
type QuicklookConfig struct {
	Band     string     `yaml:"band"`
	Theme    ColorTheme `yaml:"theme"`
	MaxSize  int        `yaml:"maxSize"`
	Annotate bool       `yaml:"annotate"`
}

// CatalogConfig represents the conversion catalog settings. An empty path
// disables the catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: "info",
		},
		Output: OutputConfig{
			Directory: defaultOutputDir,
			Footprint: true,
			Quicklook: QuicklookConfig{
				Theme:    GrayscaleTheme,
				MaxSize:  defaultQuicklookMaxSize,
				Annotate: true,
			},
		},
	}
}

// LoadConfig reads a YAML configuration on top of the defaults
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := NewConfig()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", path, err)
	}
	return c, nil
}

func NewConfigFromCLI() (*Config, error) {
	c, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

// parseFlags loads the optional configuration file and lets explicitly set
// flags override it. Positional arguments are appended to the archives.
func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	var (
		configPath string
		outputDir  string
		catalog    string
		quicklook  string
		theme      string
		logLevel   string
		histograms bool
		failFast   bool
	)
	fs.StringVar(&configPath, "c", "", "Path to the configuration file")
	fs.StringVar(&outputDir, "o", defaultOutputDir, "Output directory")
	fs.StringVar(&catalog, "catalog", "", "Path to the conversion catalog database")
	fs.StringVar(&quicklook, "quicklook", "", "Render a PNG preview of the named band, e.g. NIR")
	fs.StringVar(&theme, "theme", string(GrayscaleTheme), "Preview color theme. [classic, grayscale, jungle, thermal, marine]")
	fs.StringVar(&logLevel, "log-level", "info", "Log level. [debug, info, warn, error]")
	fs.BoolVar(&histograms, "histograms", false, "Plot a histogram of every product band")
	fs.BoolVar(&failFast, "fail-fast", false, "Stop at the first archive that fails")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c := NewConfig()
	if configPath != "" {
		var err error
		if c, err = LoadConfig(configPath); err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			c.Output.Directory = outputDir
		case "catalog":
			c.Catalog.Path = catalog
		case "quicklook":
			c.Output.Quicklook.Band = quicklook
		case "theme":
			c.Output.Quicklook.Theme = ColorTheme(strings.ToLower(theme))
		case "log-level":
			c.Settings.LogLevel = logLevel
		case "histograms":
			c.Output.Histograms = histograms
		case "fail-fast":
			c.Settings.FailFast = failFast
		}
	})
	c.Archives = append(c.Archives, fs.Args()...)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if len(c.Archives) == 0 {
		return errors.New("at least one archive is required")
	}
	if c.Output.Directory == "" {
		return errors.New("output directory is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	q := c.Output.Quicklook
	if q.Band != "" {
		d, ok := landsat.BandByName(q.Band)
		if !ok {
			return fmt.Errorf("unknown quicklook band: %s", q.Band)
		}
		if d.Type != landsat.Reflective && d.Type != landsat.Thermal {
			return fmt.Errorf("quicklook band %s is not part of the product", q.Band)
		}
		if _, ok = validColorThemes[q.Theme]; !ok {
			return fmt.Errorf("invalid color theme: %s", q.Theme)
		}
		if q.MaxSize <= 0 {
			return fmt.Errorf("invalid quicklook size: %d", q.MaxSize)
		}
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level: %s", c.Settings.LogLevel)
	}
	return level, nil
}
