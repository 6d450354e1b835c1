package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/rogpeppe/rjson"
)

type config struct {
	BindAddress  string `json:"bind_address"`
	Port         int    `json:"port"`
	Path         string `json:"path"`
	OutputFile   string `json:"output_file"`
	Strict       bool   `json:"strict"`
	Sync         bool   `json:"sync"`
	MaxBodyBytes int64  `json:"max_body_bytes"`
	CaptureDir   string `json:"capture_dir"`

	MetricsAddress string `json:"metrics_address"`

	Debug   bool   `json:"debug"`
	LogPath string `json:"log_path"`

	Mirror struct {
		Type string `json:"type"`

		// Attempts per second against the mirror; zero means unlimited.
		Rate float64 `json:"rate"`

		// Properties for "bolt" type.
		Path string `json:"path"`

		// Properties for "remote" type.
		Address string `json:"address"`

		// Properties for "s3" type.
		Profile string `json:"profile"`
		Region  string `json:"region"`
		Bucket  string `json:"bucket"`
		Prefix  string `json:"prefix"`
	} `json:"mirror"`
}

// loadConfig reads the configuration at pathname. A missing file is not an
// error, it yields the zero configuration.
func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if errors.Is(err, os.ErrNotExist) {
		return &config{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var c *config
	if err := rjson.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", pathname, err)
	}
	if c == nil {
		c = &config{}
	}
	return c, nil
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.BindAddress == "" {
		c.BindAddress = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Path == "" {
		c.Path = "/adc_samples"
	}
	if c.OutputFile == "" {
		c.OutputFile = "adc.raw"
	}
}

func (c *config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d: out of range", c.Port)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes %d: must not be negative", c.MaxBodyBytes)
	}
	if c.Mirror.Rate < 0 {
		return fmt.Errorf("mirror rate %v: must not be negative", c.Mirror.Rate)
	}
	switch c.Mirror.Type {
	case "":
	case "bolt":
		if c.Mirror.Path == "" {
			return errors.New("bolt mirror: missing path")
		}
	case "remote":
		if c.Mirror.Address == "" {
			return errors.New("remote mirror: missing address")
		}
	case "s3":
		if c.Mirror.Bucket == "" {
			return errors.New("s3 mirror: missing bucket")
		}
	default:
		return fmt.Errorf("%q: unknown mirror type, expecting bolt, remote or s3", c.Mirror.Type)
	}
	return nil
}

func (c *config) listenAddress() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}
