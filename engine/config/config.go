// Package config loads the application settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type WindowConfig struct {
	Name   string `toml:"name"`
	X      int32  `toml:"x"`
	Y      int32  `toml:"y"`
	Width  int32  `toml:"width"`
	Height int32  `toml:"height"`
}

type HMDConfig struct {
	// Render target pixels per display pixel.
	PixelDensity float32 `toml:"pixel_density"`
	NearClip     float32 `toml:"near_clip"`
	FarClip      float32 `toml:"far_clip"`
	// "eye" or "floor".
	TrackingOrigin string `toml:"tracking_origin"`
	DepthBuffers   bool   `toml:"depth_buffers"`
	SharedTexture  bool   `toml:"shared_texture"`
}

type MirrorConfig struct {
	Enabled bool  `toml:"enabled"`
	Width   int32 `toml:"width"`
	Height  int32 `toml:"height"`
}

type SimulatorConfig struct {
	RefreshRate float32 `toml:"refresh_rate"`
	// Radians per second.
	YawSpeed float32 `toml:"yaw_speed"`
	IPD      float32 `toml:"ipd"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Window    WindowConfig    `toml:"window"`
	HMD       HMDConfig       `toml:"hmd"`
	Mirror    MirrorConfig    `toml:"mirror"`
	Simulator SimulatorConfig `toml:"simulator"`
	Log       LogConfig       `toml:"log"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Name:   "Hello Rift",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		HMD: HMDConfig{
			PixelDensity:   1.0,
			NearClip:       0.2,
			FarClip:        1000.0,
			TrackingOrigin: "eye",
			DepthBuffers:   true,
		},
		Mirror: MirrorConfig{
			Enabled: true,
			Width:   1280,
			Height:  720,
		},
		Simulator: SimulatorConfig{
			RefreshRate: 90,
			YawSpeed:    0.25,
			IPD:         0.064,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Parse decodes TOML on top of the defaults, so a file only needs the keys it changes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.HMD.PixelDensity <= 0 {
		return fmt.Errorf("config: hmd.pixel_density must be positive, got %g", c.HMD.PixelDensity)
	}
	if c.HMD.NearClip <= 0 || c.HMD.FarClip <= c.HMD.NearClip {
		return fmt.Errorf("config: hmd clip planes near=%g far=%g must satisfy 0 < near < far", c.HMD.NearClip, c.HMD.FarClip)
	}
	switch strings.ToLower(c.HMD.TrackingOrigin) {
	case "eye", "floor":
	default:
		return fmt.Errorf("config: hmd.tracking_origin must be \"eye\" or \"floor\", got %q", c.HMD.TrackingOrigin)
	}
	if c.Mirror.Enabled && (c.Mirror.Width <= 0 || c.Mirror.Height <= 0) {
		return fmt.Errorf("config: mirror size %dx%d must be positive", c.Mirror.Width, c.Mirror.Height)
	}
	if c.Simulator.RefreshRate <= 0 {
		return fmt.Errorf("config: simulator.refresh_rate must be positive, got %g", c.Simulator.RefreshRate)
	}
	return nil
}

func (c *Config) TrackingOrigin() xr.TrackingOrigin {
	if strings.EqualFold(c.HMD.TrackingOrigin, "floor") {
		return xr.TrackingOriginFloorLevel
	}
	return xr.TrackingOriginEyeLevel
}
