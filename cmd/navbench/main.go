package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/navquery/detour"
	"github.com/gorustyt/navquery/recast"
)

// app carries what the root command sets up for its subcommands.
type app struct {
	configFile string
	logLevel   string
	logFile    string

	cfg    *AppConfig
	logger *zap.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	c := &cobra.Command{
		Use:          "navbench",
		Short:        "navigation mesh builder and query benchmark",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	c.PersistentFlags().StringVar(&a.configFile, "config", "", "hjson config file")
	c.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides the config")
	c.PersistentFlags().StringVar(&a.logFile, "log-file", "", "rotated log file, overrides the config")
	c.AddCommand(a.buildCmd(), a.benchCmd(), a.exportCmd())
	return c
}

func (a *app) init() error {
	cfg, err := LoadAppConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Logger.File = a.logFile
	}
	logger, err := newLogger(cfg.Logger)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// meshSource selects where a command gets its navigation mesh from.
type meshSource struct {
	meshFile string
	geomFile string
	grid     string
}

func (s *meshSource) addFlags(c *cobra.Command) {
	c.Flags().StringVar(&s.meshFile, "mesh", "", "navmesh set written by the build command")
	c.Flags().StringVar(&s.geomFile, "geom", "", "OBJ geometry to build from")
	c.Flags().StringVar(&s.grid, "grid", "", "build a flat WxH grid of unit cells, e.g. 32x32")
}

func parseGrid(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("grid %q: want WxH", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("grid %q: %w", s, err)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("grid %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("grid %q: size must be positive", s)
	}
	return w, h, nil
}

func (a *app) loadGeom(s *meshSource) (*recast.InputGeom, error) {
	switch {
	case s.geomFile != "":
		geom, err := recast.LoadObj(s.geomFile)
		if err != nil {
			return nil, err
		}
		walkable := geom.MarkWalkableFaces(a.cfg.Build.AgentMaxSlope)
		a.logger.Info("geometry loaded",
			zap.String("file", s.geomFile),
			zap.Int("verts", geom.VertCount()),
			zap.Int("faces", len(geom.Faces)),
			zap.Int("walkable", walkable))
		return geom, nil
	case s.grid != "":
		w, h, err := parseGrid(s.grid)
		if err != nil {
			return nil, err
		}
		return recast.BuildGridGeom(w, h, 1), nil
	}
	return nil, fmt.Errorf("one of --mesh, --geom or --grid is required")
}

// loadMesh reads a navmesh set, or builds one from geometry and adds the
// configured off-mesh connections.
func (a *app) loadMesh(s *meshSource) (*detour.DtNavMesh, error) {
	if s.meshFile != "" {
		data, err := os.ReadFile(s.meshFile)
		if err != nil {
			return nil, err
		}
		mesh, err := detour.DecodeNavMeshSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.meshFile, err)
		}
		a.logger.Info("navmesh loaded", zap.String("file", s.meshFile), zap.Int("offMesh", len(mesh.OffMeshConnections())))
		return mesh, nil
	}
	geom, err := a.loadGeom(s)
	if err != nil {
		return nil, err
	}
	mesh, err := recast.BuildNavMesh(geom, a.cfg.Build, recast.PolyMeshTiler{})
	if err != nil {
		return nil, err
	}
	refs, err := addOffMeshConnections(mesh, a.cfg.OffMesh)
	if err != nil {
		return nil, err
	}
	a.logger.Info("navmesh built", zap.String("geom", geom.Name), zap.Int("offMesh", len(refs)))
	return mesh, nil
}
