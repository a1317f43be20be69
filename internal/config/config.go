// Package config loads the gonetlist TOML configuration.
package config

import (
	"errors"
	"fmt"
	"gonetlist/internal/netlist"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKey is returned by Load when the file sets a key gonetlist does not know.
var ErrUnknownKey = errors.New("unknown config key")

var HomeDir string = os.Getenv("HOME")

// Duration is a time.Duration written as a string ("30s", "5m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type DisplayConfig struct {
	Columns     []string `toml:"columns"`
	Extras      []string `toml:"extras"`
	Sort        string   `toml:"sort"`
	ShowExtInfo bool     `toml:"showExtInfo"`
}

type CaptureConfig struct {
	Source      string   `toml:"source"`
	Interface   string   `toml:"interface"`
	File        string   `toml:"file"`
	Filter      string   `toml:"filter"`
	LumberAddr  string   `toml:"lumberAddr"`
	ExpireAfter Duration `toml:"expireAfter"`
	DecayAfter  Duration `toml:"decayAfter"`
}

type GroupsConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type Config struct {
	Display DisplayConfig `toml:"display"`
	Capture CaptureConfig `toml:"capture"`
	Groups  GroupsConfig  `toml:"groups"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Display is the display section resolved to netlist values.
type Display struct {
	Columns     []netlist.Column
	Extras      []netlist.Extra
	Sort        netlist.SortMode
	ShowExtInfo bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Columns: []string{"decay", "name", "nettype", "crypt", "channel", "packets", "datasize"},
			Extras:  []string{"lastseen", "crypt", "ip", "manuf", "model"},
			Sort:    "autofit",
		},
		Capture: CaptureConfig{
			Source:      "pcap",
			ExpireAfter: Duration{10 * time.Minute},
			DecayAfter:  Duration{3 * time.Second},
		},
		Groups: GroupsConfig{
			Backend: "toml",
			Path:    filepath.Join(HomeDir, ".gonetlist", "groups.toml"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default.
// The result is not validated; callers apply flag overrides first.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks every name and value the rest of the program will parse.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.ResolveDisplay(); err != nil {
		errs = append(errs, err)
	}

	switch c.Capture.Source {
	case "pcap", "tshark":
		if c.Capture.Interface == "" && c.Capture.File == "" {
			errs = append(errs, fmt.Errorf("capture: %s source needs an interface or a file", c.Capture.Source))
		}
	case "lumber":
		if c.Capture.LumberAddr == "" {
			errs = append(errs, errors.New("capture: lumber source needs lumberAddr"))
		}
	default:
		errs = append(errs, fmt.Errorf("capture: unknown source %q", c.Capture.Source))
	}
	if c.Capture.ExpireAfter.Duration < 0 {
		errs = append(errs, errors.New("capture: expireAfter must not be negative"))
	}
	if c.Capture.DecayAfter.Duration <= 0 {
		errs = append(errs, errors.New("capture: decayAfter must be positive"))
	}

	switch c.Groups.Backend {
	case "toml", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("groups: unknown backend %q", c.Groups.Backend))
	}
	if c.Groups.Path == "" {
		errs = append(errs, errors.New("groups: path is empty"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ResolveDisplay parses the display section.
func (c *Config) ResolveDisplay() (Display, error) {
	cols, err := netlist.ParseColumns(c.Display.Columns)
	if err != nil {
		return Display{}, fmt.Errorf("display: %w", err)
	}
	if len(cols) == 0 {
		return Display{}, errors.New("display: no columns")
	}
	extras, err := netlist.ParseExtras(c.Display.Extras)
	if err != nil {
		return Display{}, fmt.Errorf("display: %w", err)
	}
	mode, err := netlist.ParseSortMode(c.Display.Sort)
	if err != nil {
		return Display{}, fmt.Errorf("display: %w", err)
	}
	return Display{Columns: cols, Extras: extras, Sort: mode, ShowExtInfo: c.Display.ShowExtInfo}, nil
}

// LogLevel parses the log level name.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log: %w", err)
	}
	return lvl, nil
}
