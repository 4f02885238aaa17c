package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	ScriptDir string `json:"script_dir"` // directory holding lenses/ and globes/
	SkyboxDir string `json:"skybox_dir"`
	Output    string `json:"output"`

	// Scene and view
	Scene string `json:"scene"` // "gradient" or "skybox"
	Lens  string `json:"lens"`
	Globe string `json:"globe"`
	FOV   string `json:"fov"` // a zoom command, e.g. "hfov 180"

	// Render settings
	Width   int `json:"width"`
	Height  int `json:"height"`
	Frames  int `json:"frames"`
	Workers int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ScriptDir string
	SkyboxDir string
	Output    string
	Scene     string
	Lens      string
	Globe     string
	FOV       string
	Width     int
	Height    int
	Frames    int
	Workers   int
}

// Resolve fills in any empty fields with defaults. CLI flags take
// priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.ScriptDir != "" {
		c.ScriptDir = flags.ScriptDir
	}
	if flags.SkyboxDir != "" {
		c.SkyboxDir = flags.SkyboxDir
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.Lens != "" {
		c.Lens = flags.Lens
	}
	if flags.Globe != "" {
		c.Globe = flags.Globe
	}
	if flags.FOV != "" {
		c.FOV = flags.FOV
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.ScriptDir == "" {
		c.ScriptDir = detectScriptDir()
	}

	if c.Scene == "" {
		c.Scene = "gradient"
	}
	if c.Lens == "" {
		c.Lens = "panini"
	}
	if c.Globe == "" {
		c.Globe = "cube"
	}
	if c.FOV == "" {
		c.FOV = "hfov 180"
	}
	if c.Output == "" {
		c.Output = "fisheye.webp"
	}
	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 480
	}
	if c.Frames <= 0 {
		c.Frames = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// LensDir and GlobeDir locate the script subdirectories.
func (c *Config) LensDir() string  { return filepath.Join(c.ScriptDir, "lenses") }
func (c *Config) GlobeDir() string { return filepath.Join(c.ScriptDir, "globes") }

func detectScriptDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if _, err := os.Stat(filepath.Join(base, "lenses")); err == nil {
				return base
			}
		}
	}

	// Try current working directory
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, "lenses")); err == nil {
		return cwd
	}

	// Try parent of cwd
	parent := filepath.Dir(cwd)
	if _, err := os.Stat(filepath.Join(parent, "lenses")); err == nil {
		return parent
	}

	return "."
}
