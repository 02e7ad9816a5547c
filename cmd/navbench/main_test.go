package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gorustyt/navquery/common"
	"github.com/gorustyt/navquery/detour"
)

const testAppConfig = `{
  build: {
    cellSize: 1
    cellHeight: 0.25
    tileSize: 5
    agentMaxClimb: 0.5
  }
  bench: {
    iterations: 40
    seed: 3
  }
  filter: {
    areaCosts: { "2": 3.5 }
    areaFlatCosts: { "5": 1 }
  }
  offMeshConnections: [
    {
      start: [0.5, 0, 0.5]
      end: [8.5, 0, 3.5]
      radius: 0.5
      bidirectional: true
      area: 5
      userId: 12
    }
  ]
  logger: { level: warn }
}`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "navbench.hjson")
	require.NoError(t, os.WriteFile(p, []byte(testAppConfig), 0o644))
	return p
}

func TestLoadAppConfig(t *testing.T) {
	cfg, err := LoadAppConfig(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, float32(1), cfg.Build.CellSize)
	assert.Equal(t, 5, cfg.Build.TileSize)
	assert.Equal(t, 6, cfg.Build.VertsPerPoly)
	assert.Equal(t, 40, cfg.Bench.Iterations)
	assert.Equal(t, int64(3), cfg.Bench.Seed)
	assert.Equal(t, 100, cfg.Bench.MaxSampleRetries)
	assert.Equal(t, "warn", cfg.Logger.Level)
	require.Len(t, cfg.OffMesh, 1)
	assert.Equal(t, [3]float32{8.5, 0, 3.5}, cfg.OffMesh[0].End)
	assert.Equal(t, uint32(12), cfg.OffMesh[0].UserId)

	filter, err := cfg.Filter.NewFilter()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), filter.GetAreaCost(2))
	assert.Equal(t, float32(1), filter.GetAreaFlatCost(5))
	assert.Equal(t, uint16(0xffff), filter.GetIncludeFlags())
	assert.True(t, filter.OffMeshAllowed())

	cfg.Filter.AreaCosts[70] = 1
	_, err = cfg.Filter.NewFilter()
	assert.ErrorIs(t, err, detour.ErrInvalidParam)

	def, err := LoadAppConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig().Bench, def.Bench)

	bad := filepath.Join(t.TempDir(), "bad.hjson")
	require.NoError(t, os.WriteFile(bad, []byte(`{ build: { vertsPerPoly: 2 } }`), 0o644))
	_, err = LoadAppConfig(bad)
	assert.Error(t, err)
}

func TestParseGrid(t *testing.T) {
	w, h, err := parseGrid("32x16")
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	for _, s := range []string{"32", "ax2", "0x4", "3x"} {
		_, _, err := parseGrid(s)
		assert.Error(t, err, s)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	cfgFile := writeConfig(t)
	dir := t.TempDir()
	meshFile := filepath.Join(dir, "grid.bin")
	dbgFile := filepath.Join(dir, "grid.msgpack")

	run(t, "build", "--config", cfgFile, "--grid", "10x4", "-o", meshFile)
	data, err := os.ReadFile(meshFile)
	require.NoError(t, err)
	mesh, err := detour.DecodeNavMeshSet(data)
	require.NoError(t, err)
	require.Len(t, mesh.OffMeshConnections(), 1)

	out := run(t, "bench", "--config", cfgFile, "--mesh", meshFile, "-n", "25", "--straight")
	assert.Contains(t, out, "Iterations:      25")
	assert.Contains(t, out, "Path failures:   0")
	assert.Contains(t, out, "Partial paths:   0 (0.00%)")
	assert.Contains(t, out, "Straight paths:  25")

	run(t, "export", "--config", cfgFile, "--mesh", meshFile, "-o", dbgFile)
	data, err = os.ReadFile(dbgFile)
	require.NoError(t, err)
	var dbg detour.DtDebugMesh
	require.NoError(t, msgpack.Unmarshal(data, &dbg))
	assert.Len(t, dbg.Tiles, 2)
	require.Len(t, dbg.OffMesh, 1)
	assert.True(t, dbg.OffMesh[0].Bidir)
	assert.Equal(t, uint32(12), dbg.OffMesh[0].UserId)
	assert.InDelta(t, 8.5, dbg.OffMesh[0].End[0], 1e-5)

	cmd := rootCmd()
	cmd.SetArgs([]string{"bench", "--config", cfgFile})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestTeleporterPathFromConfig(t *testing.T) {
	cfg, err := LoadAppConfig(writeConfig(t))
	require.NoError(t, err)
	a := &app{cfg: cfg}
	a.logger, err = newLogger(cfg.Logger)
	require.NoError(t, err)
	mesh, err := a.loadMesh(&meshSource{grid: "10x4"})
	require.NoError(t, err)
	filter, err := cfg.Filter.NewFilter()
	require.NoError(t, err)

	q, status := detour.NewDtNavMeshQuery(mesh, 1024)
	require.True(t, status.DtStatusSucceed())
	startPos, endPos := common.Vec3{0.5, 0, 0.5}, common.Vec3{8.5, 0, 3.5}
	start, _, _ := mesh.FindNearestPoly(startPos, common.Vec3{0.2, 1, 0.2}, filter)
	end, _, _ := mesh.FindNearestPoly(endPos, common.Vec3{0.2, 1, 0.2}, filter)
	res := q.FindPath(start, end, startPos, endPos, filter)
	require.True(t, res.Succeeded())
	require.Len(t, res.Path, 3)
	assert.Equal(t, detour.DT_NODE_OFFMESH, res.Path[1].Kind())
	assert.InDelta(t, 1, res.Cost, 1e-4)
}

func TestLoggerFileGetsLibraryLogs(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	lc := DefaultAppConfig().Logger
	lc.Level = "debug"
	lc.File = filepath.Join(t.TempDir(), "navbench.log")
	logger, err := newLogger(lc)
	require.NoError(t, err)

	logger.Info("navmesh built")
	slog.Debug("tile added", "x", 3)
	_ = logger.Sync()

	data, err := os.ReadFile(lc.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "navmesh built")
	assert.Contains(t, string(data), "tile added")
}
