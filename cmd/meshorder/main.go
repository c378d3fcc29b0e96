// meshorder is a CLI front end for the triangle reordering library: it
// reads a mesh, optimizes triangle and vertex order for the GPU, and
// reports cache and overdraw statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshorder/internal/config"
	"github.com/Faultbox/meshorder/internal/logger"
	"github.com/Faultbox/meshorder/pkg/formats"
	"github.com/Faultbox/meshorder/pkg/math"
	"github.com/Faultbox/meshorder/pkg/optimize"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "optimize", "opt":
		cmdOptimize(args)
	case "measure":
		cmdMeasure(args)
	case "cluster":
		cmdCluster(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshorder - triangle order optimizer for rasterization performance

Usage:
  meshorder <command> [options]

Commands:
  optimize [-o out.obj] <mesh>   Reorder triangles and vertices (full pipeline)
  measure <mesh>                 Report ACMR and overdraw without optimizing
  cluster [-k N] <mesh>          Cluster only; print the cluster layout
  config <path>                  Write a default config file to <path>

Options shared by optimize/measure/cluster:
  -config path    Config file (default: ./meshorder.yaml if present)
  -fast           Use the fused fast pipeline (optimize only)
  -debug          Force debug logging

Options go before the mesh path; flags after it are not parsed.

Meshes may be Wavefront OBJ (.obj) or glTF (.gltf/.glb). Output is OBJ.

Examples:
  meshorder optimize -o bunny_opt.obj bunny.obj
  meshorder measure scene.glb
  meshorder cluster -k 16 bunny.obj`)
}

func cmdOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	output := fs.String("o", "", "Output OBJ path (default: stdout)")
	fast := fs.Bool("fast", false, "Use the fused fast pipeline")
	debug := fs.Bool("debug", false, "Force debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshorder optimize [-o out.obj] <mesh>")
		os.Exit(1)
	}

	cfg := setup(*configPath, *debug)
	mesh := loadMesh(fs.Arg(0))
	opts := optionsFromConfig(cfg)

	acmrBefore := measureACMR(mesh.Indices, opts.CacheSize)
	odBefore, odMaxBefore := measureOD(mesh, cfg, opts)

	var (
		res *optimize.Result
		err error
	)
	if *fast {
		res, err = optimize.FastOptimize(mesh.Positions, 3, mesh.Indices, opts)
	} else {
		res, err = optimize.Optimize(mesh.Positions, 3, mesh.Indices, opts)
	}
	if err != nil {
		fatal("optimization failed", err)
	}

	// Vertex memory pass last: it rewrites indices to first-use order.
	outVB, outIB, _, err := optimize.OptimizeVertexMemory(mesh.Positions, 3, res.Indices)
	if err != nil {
		fatal("vertex memory pass failed", err)
	}
	out := &formats.OBJMesh{Positions: outVB, Indices: outIB}

	acmrAfter := measureACMR(out.Indices, opts.CacheSize)
	odAfter, odMaxAfter := measureOD(out, cfg, opts)

	fmt.Fprintf(os.Stderr, "clusters:  %d\n", res.NumClusters)
	fmt.Fprintf(os.Stderr, "ACMR:      %.3f -> %.3f\n", acmrBefore, acmrAfter)
	fmt.Fprintf(os.Stderr, "overdraw:  %.3f -> %.3f (max %.0f -> %.0f)\n",
		odBefore, odAfter, odMaxBefore, odMaxAfter)

	writeMesh(out, *output)
}

func cmdMeasure(args []string) {
	fs := flag.NewFlagSet("measure", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	debug := fs.Bool("debug", false, "Force debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshorder measure <mesh>")
		os.Exit(1)
	}

	cfg := setup(*configPath, *debug)
	mesh := loadMesh(fs.Arg(0))
	opts := optionsFromConfig(cfg)

	acmr := measureACMR(mesh.Indices, opts.CacheSize)
	avg, max := measureOD(mesh, cfg, opts)

	fmt.Printf("vertices:  %d\n", mesh.NumVertices())
	fmt.Printf("triangles: %d\n", mesh.NumTriangles())
	fmt.Printf("ACMR:      %.3f (cache %d)\n", acmr, opts.CacheSize)
	fmt.Printf("overdraw:  %.3f avg, %.0f max\n", avg, max)
}

func cmdCluster(args []string) {
	fs := flag.NewFlagSet("cluster", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	k := fs.Int("k", 0, "Target cluster count (0 = auto)")
	debug := fs.Bool("debug", false, "Force debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshorder cluster [-k N] <mesh>")
		os.Exit(1)
	}

	setup(*configPath, *debug)
	mesh := loadMesh(fs.Arg(0))

	_, clustering, err := optimize.ClusterMesh(mesh.Positions, 3, mesh.Indices, *k)
	if err != nil {
		fatal("clustering failed", err)
	}

	fmt.Printf("clusters: %d\n", clustering.NumClusters())
	for i := 0; i < clustering.NumClusters(); i++ {
		fmt.Printf("  %4d: %d triangles\n", i, clustering.Start[i+1]-clustering.Start[i])
	}
}

func cmdConfig(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshorder config <path>")
		os.Exit(1)
	}
	if err := config.Default().SaveTo(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", args[0])
}

// setup loads configuration and initializes logging.
func setup(configPath string, debug bool) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadMesh reads an OBJ or glTF mesh by file extension.
func loadMesh(path string) *formats.OBJMesh {
	var (
		mesh *formats.OBJMesh
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		mesh, err = formats.ReadGLTF(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			defer f.Close()
			mesh, err = formats.ReadOBJ(f)
		}
	}
	if err != nil {
		fatal("loading mesh", err)
	}
	logger.Info("mesh loaded",
		zap.String("path", path),
		zap.Int("vertices", mesh.NumVertices()),
		zap.Int("triangles", mesh.NumTriangles()))
	return mesh
}

// optionsFromConfig maps the YAML settings onto library options.
func optionsFromConfig(cfg *config.Config) optimize.Options {
	opts := optimize.Options{
		CacheSize:      cfg.Optimizer.CacheSize,
		TargetClusters: cfg.Optimizer.TargetClusters,
		Alpha:          cfg.Optimizer.Alpha,
		Resolution:     cfg.Overdraw.Resolution,
		Viewpoints:     loadViewpoints(cfg.Overdraw.ViewpointsFile),
	}

	if cfg.Optimizer.Winding == "cw" {
		opts.Winding = optimize.CW
	}

	switch cfg.Optimizer.Strategy {
	case "lstrips":
		opts.VCacheStrategy = optimize.StrategyLStrips
	case "tipsy":
		opts.VCacheStrategy = optimize.StrategyTipsy
	case "d3d":
		opts.VCacheStrategy = optimize.StrategyD3D
	}

	switch cfg.Overdraw.Optimizer {
	case "raytrace":
		opts.OverdrawOptimizer = optimize.OverdrawRaytrace
	case "fast":
		opts.OverdrawOptimizer = optimize.OverdrawFast
	}
	return opts
}

// loadViewpoints reads the configured viewpoint file, or returns nil for
// the built-in canonical set.
func loadViewpoints(path string) []math.Vec3 {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		fatal("loading viewpoints", err)
	}
	defer f.Close()

	vp, err := formats.ReadViewpoints(f)
	if err != nil {
		fatal("loading viewpoints", err)
	}
	logger.Info("viewpoints loaded", zap.String("path", path), zap.Int("count", len(vp)))
	return vp
}

func measureACMR(ib []uint32, cacheSize int) float32 {
	acmr, err := optimize.MeasureCacheEfficiency(ib, cacheSize)
	if err != nil {
		fatal("measuring cache efficiency", err)
	}
	return acmr
}

func measureOD(m *formats.OBJMesh, cfg *config.Config, opts optimize.Options) (avg, max float32) {
	avg, max, err := optimize.MeasureOverdraw(m.Positions, 3, m.Indices,
		opts.Viewpoints, opts.Winding, cfg.Overdraw.Resolution)
	if err != nil {
		fatal("measuring overdraw", err)
	}
	return avg, max
}

func writeMesh(m *formats.OBJMesh, path string) {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			fatal("writing output", err)
		}
		defer f.Close()
		out = f
	}
	if err := formats.WriteOBJ(out, m); err != nil {
		fatal("writing output", err)
	}
}

func fatal(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
