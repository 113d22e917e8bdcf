// Package config holds the runtime settings for the streaming pipeline.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Settings are the knobs the pipeline consumes: streaming radius, per-frame
// work quotas, generation parameters and queue policy. The chunk side
// length is a compile-time constant and is not configurable here.
type Settings struct {
	// RenderDistance is the streaming radius R in chunk units (Chebyshev).
	RenderDistance int `yaml:"render_distance"`

	// DataBatch and MeshBatch are the per-frame work quotas: how many chunk
	// generations and mesh builds each frame may dispatch.
	DataBatch int `yaml:"data_batch"`
	MeshBatch int `yaml:"mesh_batch"`

	// Seed drives terrain noise; equal seeds reproduce identical worlds.
	Seed int64 `yaml:"seed"`

	// CaveScale and HillScale divide world coordinates before noise
	// sampling; larger values give broader features.
	CaveScale float64 `yaml:"cave_scale"`
	HillScale float64 `yaml:"hill_scale"`

	// MeshPriority is "reload-first" or "load-first"; see the scheduler's
	// queue policy.
	MeshPriority string `yaml:"mesh_priority"`

	// Workers bounds batch parallelism; 0 uses one worker per CPU.
	Workers int `yaml:"workers"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		RenderDistance: 10,
		DataBatch:      15,
		MeshBatch:      8,
		Seed:           0,
		CaveScale:      30.0,
		HillScale:      50.0,
		MeshPriority:   "reload-first",
	}
}

// Load reads settings from a YAML file, filling unset fields from Default.
func Load(path string) (Settings, error) {
	s := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	s.clamp()
	return s, nil
}

// clamp keeps the settings inside sane bounds.
func (s *Settings) clamp() {
	if s.RenderDistance < 1 {
		s.RenderDistance = 1
	}
	if s.RenderDistance > 32 {
		s.RenderDistance = 32
	}
	if s.DataBatch < 1 {
		s.DataBatch = 1
	}
	if s.MeshBatch < 1 {
		s.MeshBatch = 1
	}
	if s.CaveScale <= 0 {
		s.CaveScale = 30.0
	}
	if s.HillScale <= 0 {
		s.HillScale = 50.0
	}
	if s.MeshPriority != "load-first" {
		s.MeshPriority = "reload-first"
	}
	if s.Workers < 0 {
		s.Workers = 0
	}
}
