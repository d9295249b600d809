package main

import (
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/sim"
)

const (
	// Penalty per tick an agent spends seeking again after the swarm arrived.
	departurePenalty = 2.0
	// Penalty per unit of mean remaining distance when the swarm never arrives.
	distancePenalty = 100.0
)

// runResult holds the results from a single scenario run.
type runResult struct {
	arrivalTicks int64   // tick at which every agent first stopped seeking, 0 if never
	departures   int     // agent-ticks spent seeking during the hold phase
	distance     float64 // mean distance to the target at the end of the run
}

// FitnessEvaluator runs headless seek scenarios and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	holdTicks  int64
	seeds      []int64
	baseConfig *config.Config
	goal       r3.Vec
	log        *zap.Logger

	mu          sync.Mutex
	bestFitness float64
	lastSpread  float64 // stddev of per-seed fitness from the most recent Evaluate
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks, holdTicks int64, seeds []int64, goal r3.Vec, baseCfg *config.Config, log *zap.Logger) *FitnessEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		holdTicks:   holdTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		goal:        goal,
		log:         log,
		bestFitness: math.Inf(1),
	}
}

// LastSpread returns the per-seed fitness spread of the most recent evaluation.
func (fe *FitnessEvaluator) LastSpread() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSpread
}

// Best returns the lowest mean fitness seen so far.
func (fe *FitnessEvaluator) Best() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Each seed runs in its own simulation; the result is the mean over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	scores := make([]float64, len(fe.seeds))
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			scores[i] = fe.computeFitness(fe.runScenario(cfg, seed))
			return nil
		})
	}
	_ = g.Wait()

	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 {
		std = 0
	}

	fe.mu.Lock()
	if mean < fe.bestFitness {
		fe.bestFitness = mean
	}
	fe.lastSpread = std
	fe.mu.Unlock()

	return mean
}

// runScenario spawns the configured swarm, sets a fixed goal and ticks until
// every agent has arrived and then held for holdTicks, or maxTicks passes.
func (fe *FitnessEvaluator) runScenario(cfg *config.Config, seed int64) runResult {
	s := sim.New(sim.Options{Config: cfg, Seed: seed})
	defer s.Close()

	var result runResult
	if err := s.Spawn(cfg.Agents.Count); err != nil {
		fe.log.Warn("spawn failed", zap.Int64("seed", seed), zap.Error(err))
		result.distance = math.Inf(1)
		return result
	}
	s.WaitForAssets()
	s.Target().Set(fe.goal)

	n := cfg.Agents.Count
	for s.TickCount() < fe.maxTicks {
		res := s.Tick()
		if result.arrivalTicks == 0 {
			if res.Steering.Steered == n && res.Steering.Seeking == 0 {
				result.arrivalTicks = res.Tick
			}
			continue
		}
		result.departures += res.Steering.Seeking
		if res.Tick-result.arrivalTicks >= fe.holdTicks {
			break
		}
	}

	result.distance = meanDistance(s)
	return result
}

// computeFitness scores a run: arrival ticks plus a penalty for agents that
// leave the target again. Runs that never arrive score worse than any run
// that does.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	if r.arrivalTicks == 0 {
		return float64(fe.maxTicks) + distancePenalty*r.distance
	}
	return float64(r.arrivalTicks) + departurePenalty*float64(r.departures)
}

// copyConfig returns a copy of the base config that uses procedural agents
// only, so evaluations never touch the filesystem.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Agents.Models = []string{""}
	return &cfg
}

func meanDistance(s *sim.Simulation) float64 {
	views := s.Agents()
	if len(views) == 0 {
		return 0
	}
	d := make([]float64, len(views))
	for i, v := range views {
		d[i] = v.Seeker.Distance
	}
	return stat.Mean(d, nil)
}
