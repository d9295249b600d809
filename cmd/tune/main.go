// Package main tunes the steering parameters by running headless seek
// scenarios under a derivative-free optimizer.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/logging"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval                 int     `csv:"eval"`
	Fitness              float64 `csv:"fitness"`
	Spread               float64 `csv:"spread"`
	ForceIntensity       float64 `csv:"force_intensity"`
	MaxVelocity          float64 `csv:"max_velocity"`
	NearFieldMaxVelocity float64 `csv:"near_field_max_velocity"`
}

func newEvalRecord(eval int, fitness, spread float64, values []float64) EvalRecord {
	return EvalRecord{
		Eval:                 eval,
		Fitness:              fitness,
		Spread:               spread,
		ForceIntensity:       values[0],
		MaxVelocity:          values[1],
		NearFieldMaxVelocity: values[2],
	}
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// newMethod returns the optimizer for name.
func newMethod(name string, dim int) (optimize.Method, error) {
	switch name {
	case "nelder-mead":
		return &optimize.NelderMead{SimplexSize: 0.2}, nil
	case "cmaes":
		return &optimize.CmaEsChol{
			InitStepSize: 0.3,
			Population:   4 + 3*dim/2,
		}, nil
	}
	return nil, fmt.Errorf("unknown method %q (want nelder-mead or cmaes)", name)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int64("max-ticks", 3000, "Ticks before a run counts as not arrived")
	holdTicks := flag.Int64("hold-ticks", 300, "Ticks to watch for departures after arrival")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	methodName := flag.String("method", "nelder-mead", "Optimizer: nelder-mead or cmaes")
	goalX := flag.Float64("goal-x", 10, "Goal x coordinate; agents spawn around the origin")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	baseCfg := config.Cfg()

	logger, err := logging.New(baseCfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *outputDir == "" {
		logger.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal("failed to create output directory", zap.Error(err))
	}

	params := NewParamVector(baseCfg)
	method, err := newMethod(*methodName, params.Dim())
	if err != nil {
		logger.Fatal("invalid method", zap.Error(err))
	}

	if *seeds < 1 {
		logger.Fatal("--seeds must be at least 1")
	}
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *maxTicks, *holdTicks, evalSeeds, r3.Vec{X: *goalX}, baseCfg, logger)

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		logger.Fatal("failed to create log file", zap.Error(err))
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// The optimizer works in the unit cube; log the settings
			// actually simulated.
			clamped := params.Denormalize(x)
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			rec := []EvalRecord{newEvalRecord(evalCount, fitness, evaluator.LastSpread(), clamped)}
			var werr error
			if evalCount == 1 {
				werr = gocsv.Marshal(rec, logFile)
			} else {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if werr != nil {
				logger.Warn("failed to write eval log", zap.Error(werr))
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
			logger.Info("eval",
				zap.Int("eval", evalCount),
				zap.Int("max_evals", *maxEvals),
				zap.Float64("fitness", fitness),
				zap.Float64("best", bestFitness),
				zap.Float64s("params", clamped),
				zap.String("elapsed", formatDuration(elapsed)),
				zap.String("eta", formatDuration(remaining)),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	logger.Info("starting tuning",
		zap.String("method", *methodName),
		zap.Int("params", params.Dim()),
		zap.Int("max_evals", *maxEvals),
		zap.Int("seeds", *seeds),
		zap.Int64("max_ticks", *maxTicks),
	)

	initX := params.Start()
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Info("optimization ended", zap.Error(err))
	}

	// Best params may come from any evaluation, not just the final one.
	if bestParams == nil && result != nil {
		bestParams = params.Denormalize(result.X)
	}
	if bestParams == nil {
		logger.Fatal("no evaluations completed")
	}

	fields := []zap.Field{
		zap.Int("evals", evalCount),
		zap.String("duration", formatDuration(time.Since(startTime))),
		zap.Float64("best_fitness", bestFitness),
	}
	for i, spec := range params.Specs {
		fields = append(fields, zap.Float64(spec.Name, bestParams[i]))
	}
	logger.Info("tuning complete", fields...)

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to reload base config", zap.Error(err))
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		logger.Error("failed to write best config", zap.Error(err))
		return
	}
	logger.Info("best config saved", zap.String("path", configOutPath))
}
