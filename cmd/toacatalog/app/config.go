package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/roman-kulish/landsat-toa/internal/catalog"
)

type Config struct {
	DBPath       string
	ConversionID string
	SceneID      string
	Status       catalog.Status
	Limit        int
}

var validStatuses = map[catalog.Status]struct{}{
	"":                      {},
	catalog.StatusSucceeded: {},
	catalog.StatusFailed:    {},
}

func NewConfig() *Config {
	return &Config{
		Limit: 50,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var status string
	fs.StringVar(&c.DBPath, "db", "", "Path to the catalog database file")
	fs.StringVar(&c.ConversionID, "id", "", "Show the band statistics of one conversion")
	fs.StringVar(&c.SceneID, "scene", "", "List conversions of one scene only")
	fs.StringVar(&status, "status", "", "List conversions with the given outcome. [succeeded, failed]")
	fs.IntVar(&c.Limit, "limit", c.Limit, "Maximum number of conversions to list, 0 for all")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.Status = catalog.Status(status)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if _, ok := validStatuses[c.Status]; !ok {
		err = fmt.Errorf("invalid status: %s", status)
	} else if c.Limit < 0 {
		err = fmt.Errorf("invalid limit: %d", c.Limit)
	}

	if err != nil {
		return nil, err
	}
	return c, nil
}
