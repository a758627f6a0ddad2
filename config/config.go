// Package config loads viewer and renderer settings from a TOML file.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full settings tree. Zero values are filled in by Default.
type Config struct {
	Window   Window  `toml:"window"`
	Vulkan   Vulkan  `toml:"vulkan"`
	Trace    Trace   `toml:"trace"`
	Scene    Scene   `toml:"scene"`
	Shaders  Shaders `toml:"shaders"`
	LogLevel string  `toml:"log_level"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Vulkan struct {
	// Validation enables the Khronos validation layer and the debug
	// messenger callback.
	Validation bool `toml:"validation"`
}

type Trace struct {
	// SamplesPerBatch is the number of samples accumulated per dispatch.
	SamplesPerBatch uint32 `toml:"samples_per_batch"`
	// HitGroupPolicy selects how instances pick a shader-table record:
	// "random" or "first".
	HitGroupPolicy string `toml:"hit_group_policy"`
	// HitGroupSeed seeds the random policy. 0 means unseeded.
	HitGroupSeed int64 `toml:"hit_group_seed"`
}

type Scene struct {
	// Path is the OBJ file to load.
	Path string `toml:"path"`
	// MaterialPath is the matching .mtl file; empty skips materials.
	MaterialPath string `toml:"material_path"`
}

// Shaders holds the compiled SPIR-V paths for the trace pipeline. Hit holds
// one path per hit-group variant.
type Shaders struct {
	Raygen string   `toml:"raygen"`
	Miss   string   `toml:"miss"`
	Hit    []string `toml:"hit"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "prism",
			Width:  1280,
			Height: 720,
		},
		Vulkan: Vulkan{
			Validation: true,
		},
		Trace: Trace{
			SamplesPerBatch: 4,
			HitGroupPolicy:  "random",
		},
		Scene: Scene{
			Path:         "meshes/viking_room.obj",
			MaterialPath: "meshes/viking_room.mtl",
		},
		Shaders: Shaders{
			Raygen: "shaders/trace.rgen.spv",
			Miss:   "shaders/trace.rmiss.spv",
			Hit:    []string{"shaders/trace.rchit.spv"},
		},
		LogLevel: "info",
	}
}

// Load reads path into a Config on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, nil
}
