package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/game"
	"github.com/pthm-cable/aquarium/logging"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	watch := flag.Bool("watch", false, "Reload the config file when it changes")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	targetFlag := flag.String("target", "", "Fixed target point x,y,z (empty = pointer driven)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var goal *r3.Vec
	if *targetFlag != "" {
		p, err := parseVec(*targetFlag)
		if err != nil {
			logger.Error("invalid -target", zap.Error(err))
			os.Exit(1)
		}
		goal = &p
	}

	opts := game.Options{
		Config:         cfg,
		ConfigPath:     *configPath,
		Watch:          *watch,
		Seed:           rngSeed,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		Logger:         logger,
		Target:         goal,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib window
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			logger.Error("failed to start", zap.Error(err))
			os.Exit(1)
		}
		defer g.Unload()

		logger.Info("starting headless simulation",
			zap.Int64("seed", rngSeed),
			zap.Int("max_ticks", *maxTicks),
			zap.Int("steps_per_update", *stepsPerUpdate),
		)

		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && g.Tick() >= int64(*maxTicks) {
				logger.Info("max ticks reached", zap.Int64("tick", g.Tick()))
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	// Escape clears the inspector selection instead of closing the window.
	rl.SetExitKey(0)

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && g.Tick() >= int64(*maxTicks) {
			break
		}
	}
}

// parseVec reads "x,y,z".
func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
