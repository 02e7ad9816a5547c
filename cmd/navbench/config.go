package main

import (
	"fmt"
	"os"

	"github.com/hjson/hjson-go/v4"

	"github.com/gorustyt/navquery/bench"
	"github.com/gorustyt/navquery/common"
	"github.com/gorustyt/navquery/detour"
	"github.com/gorustyt/navquery/recast"
)

// AppConfig is the navbench config file.
type AppConfig struct {
	Build   *recast.Config  `json:"build"`
	Bench   bench.Config    `json:"bench"`
	Filter  FilterConfig    `json:"filter"`
	OffMesh []OffMeshConfig `json:"offMeshConnections"`
	Logger  LoggerConfig    `json:"logger"`
}

type FilterConfig struct {
	IncludeFlags  uint16            `json:"includeFlags"`
	ExcludeFlags  uint16            `json:"excludeFlags"`
	AreaCosts     map[uint8]float32 `json:"areaCosts"`
	AreaFlatCosts map[uint8]float32 `json:"areaFlatCosts"`
	NoOffMesh     bool              `json:"noOffMesh"`
}

type OffMeshConfig struct {
	Start         [3]float32 `json:"start"`
	End           [3]float32 `json:"end"`
	Radius        float32    `json:"radius"`
	Bidirectional bool       `json:"bidirectional"`
	Area          uint8      `json:"area"`
	Flags         uint16     `json:"flags"`
	UserId        uint32     `json:"userId"`
}

type LoggerConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	JSON       bool   `json:"json"`
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Build: recast.DefaultConfig(),
		Bench: bench.DefaultConfig(),
		Filter: FilterConfig{
			IncludeFlags: recast.SAMPLE_POLYFLAGS_ALL,
			ExcludeFlags: recast.SAMPLE_POLYFLAGS_DISABLED,
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadAppConfig reads an hjson config file on top of the defaults. An empty
// path returns the defaults.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if err := hjson.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Build.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// NewFilter builds the query filter described by the config.
func (fc *FilterConfig) NewFilter() (*detour.DtQueryFilter, error) {
	filter := detour.NewDtQueryFilter()
	filter.SetIncludeFlags(fc.IncludeFlags)
	filter.SetExcludeFlags(fc.ExcludeFlags)
	filter.SetOffMeshAllowed(!fc.NoOffMesh)
	for area, cost := range fc.AreaCosts {
		if area >= detour.DT_MAX_AREAS || cost < 0 {
			return nil, fmt.Errorf("area cost %d: %v: %w", area, cost, detour.ErrInvalidParam)
		}
		filter.SetAreaCost(int(area), cost)
	}
	for area, cost := range fc.AreaFlatCosts {
		if area >= detour.DT_MAX_AREAS || cost < 0 {
			return nil, fmt.Errorf("area flat cost %d: %v: %w", area, cost, detour.ErrInvalidParam)
		}
		filter.SetAreaFlatCost(int(area), cost)
	}
	return filter, nil
}

func (oc *OffMeshConfig) Params() *detour.DtOffMeshConnectionParams {
	flags := oc.Flags
	if flags == 0 {
		flags = recast.SAMPLE_POLYFLAGS_JUMP
	}
	return &detour.DtOffMeshConnectionParams{
		StartPos:      common.Vec3(oc.Start),
		EndPos:        common.Vec3(oc.End),
		Rad:           oc.Radius,
		Bidirectional: oc.Bidirectional,
		Area:          oc.Area,
		Flags:         flags,
		UserId:        oc.UserId,
	}
}

// addOffMeshConnections inserts the configured connections and returns their refs.
func addOffMeshConnections(mesh *detour.DtNavMesh, cons []OffMeshConfig) ([]detour.DtNodeRef, error) {
	refs := make([]detour.DtNodeRef, 0, len(cons))
	for i := range cons {
		ref, status := mesh.AddOffMeshConnection(cons[i].Params())
		if status.DtStatusFailed() {
			return refs, fmt.Errorf("off-mesh connection %d (%v -> %v): %w", i, cons[i].Start, cons[i].End, status.Err())
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
