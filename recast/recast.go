package recast

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/hjson/hjson-go/v4"

	"github.com/gorustyt/navquery/detour"
)

// / The default area id used to indicate a walkable polygon.
// / This is also the maximum allowed area id.
const RC_WALKABLE_AREA = 63

// / Area id of unwalkable input faces.
const RC_NULL_AREA = 0

// Polygon area ids written into the tiles.
const (
	SAMPLE_POLYAREA_GROUND = iota
	SAMPLE_POLYAREA_WATER
	SAMPLE_POLYAREA_ROAD
	SAMPLE_POLYAREA_DOOR
	SAMPLE_POLYAREA_GRASS
	SAMPLE_POLYAREA_JUMP
)

// Polygon flags written into the tiles.
const (
	SAMPLE_POLYFLAGS_WALK     = 0x01   // Ability to walk (ground, grass, road)
	SAMPLE_POLYFLAGS_SWIM     = 0x02   // Ability to swim (water).
	SAMPLE_POLYFLAGS_DOOR     = 0x04   // Ability to move through doors.
	SAMPLE_POLYFLAGS_JUMP     = 0x08   // Ability to jump.
	SAMPLE_POLYFLAGS_DISABLED = 0x10   // Disabled polygon
	SAMPLE_POLYFLAGS_ALL      = 0xffff // All abilities.
)

// polyAreaAndFlags maps an input face area to the tile polygon area and flags.
func polyAreaAndFlags(area uint8) (uint8, uint16) {
	if area == RC_WALKABLE_AREA {
		area = SAMPLE_POLYAREA_GROUND
	}
	switch area {
	case SAMPLE_POLYAREA_GROUND, SAMPLE_POLYAREA_GRASS, SAMPLE_POLYAREA_ROAD:
		return area, SAMPLE_POLYFLAGS_WALK
	case SAMPLE_POLYAREA_WATER:
		return area, SAMPLE_POLYFLAGS_SWIM
	case SAMPLE_POLYAREA_DOOR:
		return area, SAMPLE_POLYFLAGS_WALK | SAMPLE_POLYFLAGS_DOOR
	case SAMPLE_POLYAREA_JUMP:
		return area, SAMPLE_POLYFLAGS_JUMP
	}
	return area, SAMPLE_POLYFLAGS_WALK
}

var ErrInvalidConfig = errors.New("recast: invalid config")

// Config holds the generation parameters in world units, the way they are
// written in config files.
type Config struct {
	CellSize   float32 `json:"cellSize"`   ///< The xz-plane cell size. [Limit: > 0] [Units: wu]
	CellHeight float32 `json:"cellHeight"` ///< The y-axis cell size. [Limit: > 0] [Units: wu]

	AgentHeight   float32 `json:"agentHeight"`
	AgentRadius   float32 `json:"agentRadius"`
	AgentMaxClimb float32 `json:"agentMaxClimb"`
	AgentMaxSlope float32 `json:"agentMaxSlope"` ///< [Limits: 0 <= value < 90] [Units: Degrees]

	RegionMinSize   float32 `json:"regionMinSize"`
	RegionMergeSize float32 `json:"regionMergeSize"`

	EdgeMaxLen           float32 `json:"edgeMaxLen"`
	EdgeMaxError         float32 `json:"edgeMaxError"`
	VertsPerPoly         int     `json:"vertsPerPoly"`
	DetailSampleDist     float32 `json:"detailSampleDist"`
	DetailSampleMaxError float32 `json:"detailSampleMaxError"`

	/// The width/height of a tile on the xz-plane. [Limit: > 0] [Units: vx]
	TileSize int `json:"tileSize"`

	/// Capacity of the navigation mesh built from this config.
	MaxTiles        int32 `json:"maxTiles"`
	MaxPolysPerTile int32 `json:"maxPolysPerTile"`
	MaxOffMeshCons  int32 `json:"maxOffMeshCons"`
}

// DefaultConfig returns the parameters of the solo-mesh sample.
func DefaultConfig() *Config {
	return &Config{
		CellSize:             0.3,
		CellHeight:           0.2,
		AgentHeight:          2,
		AgentRadius:          0.6,
		AgentMaxClimb:        0.9,
		AgentMaxSlope:        45,
		RegionMinSize:        8,
		RegionMergeSize:      20,
		EdgeMaxLen:           12,
		EdgeMaxError:         1.3,
		VertsPerPoly:         6,
		DetailSampleDist:     6,
		DetailSampleMaxError: 1,
		TileSize:             48,
		MaxTiles:             1024,
		MaxPolysPerTile:      4096,
		MaxOffMeshCons:       256,
	}
}

// LoadConfig reads an hjson config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	// Strip a UTF-8 BOM left by some editors.
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	cfg := DefaultConfig()
	if err := hjson.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.CellSize <= 0 || cfg.CellHeight <= 0:
		return fmt.Errorf("%w: cell size and height must be positive", ErrInvalidConfig)
	case cfg.AgentMaxSlope < 0 || cfg.AgentMaxSlope >= 90:
		return fmt.Errorf("%w: max slope %v out of [0,90)", ErrInvalidConfig, cfg.AgentMaxSlope)
	case cfg.AgentHeight < 0 || cfg.AgentRadius < 0 || cfg.AgentMaxClimb < 0:
		return fmt.Errorf("%w: negative agent dimension", ErrInvalidConfig)
	case cfg.VertsPerPoly < 3 || cfg.VertsPerPoly > detour.DT_VERTS_PER_POLYGON:
		return fmt.Errorf("%w: verts per poly %d out of [3,%d]", ErrInvalidConfig, cfg.VertsPerPoly, detour.DT_VERTS_PER_POLYGON)
	case cfg.TileSize <= 0:
		return fmt.Errorf("%w: tile size must be positive", ErrInvalidConfig)
	case cfg.MaxTiles <= 0 || cfg.MaxPolysPerTile <= 0 || cfg.MaxOffMeshCons < 0:
		return fmt.Errorf("%w: navmesh capacity", ErrInvalidConfig)
	}
	return nil
}

// / Specifies a configuration to use when performing Recast builds.
// / Values are in voxel units unless noted.
type RcConfig struct {
	/// The width/height size of tile's on the xz-plane. [Limit: >= 0] [Units: vx]
	TileSize int

	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int

	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float32

	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float32

	/// The world size of one tile. [Units: wu]
	TileWorldSize float32

	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float32

	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int

	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int

	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int

	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float32

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int

	/// The maximum number of vertices allowed for polygons generated during the
	/// contour to polygon conversion process. [Limit: >= 3]
	MaxVertsPerPoly int

	/// Sets the sampling distance to use when generating the detail mesh.
	/// (For height detail only.) [Limits: 0 or >= 0.9] [Units: wu]
	DetailSampleDist float32

	/// The maximum distance the detail mesh surface should deviate from heightfield
	/// data. (For height detail only.) [Limit: >=0] [Units: wu]
	DetailSampleMaxError float32
}

// Derive converts the world unit parameters into the voxel build config.
func (cfg *Config) Derive() *RcConfig {
	rc := &RcConfig{
		TileSize:               cfg.TileSize,
		Cs:                     cfg.CellSize,
		Ch:                     cfg.CellHeight,
		TileWorldSize:          float32(cfg.TileSize) * cfg.CellSize,
		WalkableSlopeAngle:     cfg.AgentMaxSlope,
		WalkableHeight:         int(math.Ceil(float64(cfg.AgentHeight / cfg.CellHeight))),
		WalkableClimb:          int(math.Floor(float64(cfg.AgentMaxClimb / cfg.CellHeight))),
		WalkableRadius:         int(math.Ceil(float64(cfg.AgentRadius / cfg.CellSize))),
		MaxEdgeLen:             int(cfg.EdgeMaxLen / cfg.CellSize),
		MaxSimplificationError: cfg.EdgeMaxError,
		MinRegionArea:          int(cfg.RegionMinSize * cfg.RegionMinSize),
		MergeRegionArea:        int(cfg.RegionMergeSize * cfg.RegionMergeSize),
		MaxVertsPerPoly:        cfg.VertsPerPoly,
		DetailSampleMaxError:   cfg.CellHeight * cfg.DetailSampleMaxError,
	}
	if cfg.DetailSampleDist >= 0.9 {
		rc.DetailSampleDist = cfg.CellSize * cfg.DetailSampleDist
	}
	rc.BorderSize = rc.WalkableRadius + 3
	return rc
}

// NavMeshParams sizes a navigation mesh for tiles built from geom with this config.
func (cfg *Config) NavMeshParams(geom *InputGeom) *detour.NavMeshParams {
	rc := cfg.Derive()
	return &detour.NavMeshParams{
		Orig:           geom.Bmin,
		TileWidth:      rc.TileWorldSize,
		TileHeight:     rc.TileWorldSize,
		MaxTiles:       cfg.MaxTiles,
		MaxPolys:       cfg.MaxPolysPerTile,
		MaxOffMeshCons: cfg.MaxOffMeshCons,
		WalkableClimb:  float32(rc.WalkableClimb) * rc.Ch,
	}
}

// RcCalcGridSize returns the number of tiles covering the geometry bounds.
func RcCalcGridSize(geom *InputGeom, rc *RcConfig) (tw, th int32) {
	ts := rc.TileWorldSize
	gw := int32(math.Ceil(float64((geom.Bmax[0] - geom.Bmin[0]) / ts)))
	gh := int32(math.Ceil(float64((geom.Bmax[2] - geom.Bmin[2]) / ts)))
	return max(gw, 1), max(gh, 1)
}
