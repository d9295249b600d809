package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/config"
)

func TestParamVectorStartMapsToBase(t *testing.T) {
	pv := NewParamVector(config.Default())
	base := pv.Base()
	got := pv.Denormalize(pv.Start())
	for i := range base {
		assert.InDelta(t, base[i], got[i], 1e-9, pv.Specs[i].Name)
	}
	assert.Equal(t, config.Default().Steering.ForceIntensity, base[0])
}

func TestDenormalizeClampsToRange(t *testing.T) {
	pv := NewParamVector(config.Default())
	got := pv.Denormalize([]float64{-0.5, 2, 0})
	assert.Equal(t, []float64{1, 10, 0.1}, got)

	got = pv.Denormalize([]float64{1, 0.5, 1})
	assert.InDelta(t, 200.0, got[0], 1e-9)
	assert.InDelta(t, 5.05, got[1], 1e-9)
	assert.InDelta(t, 10.0, got[2], 1e-9)
}

func TestBaseOutOfRangeIsClamped(t *testing.T) {
	base := config.Default()
	base.Steering.ForceIntensity = 1000
	pv := NewParamVector(base)
	assert.Equal(t, 200.0, pv.Base()[0])
	assert.InDelta(t, 1.0, pv.Start()[0], 1e-9)
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector(config.Default())
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{120, 3.5, 500})

	assert.Equal(t, 120.0, cfg.Steering.ForceIntensity)
	assert.Equal(t, 3.5, cfg.Steering.MaxVelocity)
	assert.Equal(t, 10.0, cfg.Steering.NearFieldMaxVelocity, "clamped to bound")
}

func TestComputeFitnessOrdering(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(config.Default()), 1000, 100, nil, r3.Vec{}, config.Default(), nil)

	fast := fe.computeFitness(runResult{arrivalTicks: 200})
	wobbly := fe.computeFitness(runResult{arrivalTicks: 200, departures: 50})
	slow := fe.computeFitness(runResult{arrivalTicks: 900})
	never := fe.computeFitness(runResult{distance: 0.5})

	assert.Less(t, fast, wobbly)
	assert.Less(t, fast, slow)
	assert.Less(t, slow, never)
	assert.Less(t, wobbly, never)
}

func TestCopyConfigIsIndependent(t *testing.T) {
	base := config.Default()
	base.Agents.Models = []string{"fish.glb"}
	fe := NewFitnessEvaluator(NewParamVector(base), 10, 10, nil, r3.Vec{}, base, nil)

	cfg := fe.copyConfig()
	cfg.Steering.ForceIntensity = 1

	assert.Equal(t, []string{""}, cfg.Agents.Models)
	assert.Equal(t, []string{"fish.glb"}, base.Agents.Models)
	assert.NotEqual(t, 1.0, base.Steering.ForceIntensity)
}

func TestEvaluateRunsScenario(t *testing.T) {
	base := config.Default()
	base.Agents.Count = 2
	pv := NewParamVector(base)
	fe := NewFitnessEvaluator(pv, 200, 20, []int64{1, 2}, r3.Vec{X: 3}, base, nil)

	fitness := fe.Evaluate(pv.Base())
	assert.False(t, math.IsNaN(fitness))
	assert.False(t, math.IsInf(fitness, 0))
	assert.Greater(t, fitness, 0.0)
	assert.Equal(t, fitness, fe.Best())
	assert.False(t, math.IsNaN(fe.LastSpread()))
}

func TestNewMethod(t *testing.T) {
	m, err := newMethod("nelder-mead", 3)
	require.NoError(t, err)
	assert.NotNil(t, m)

	m, err = newMethod("cmaes", 3)
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = newMethod("anneal", 3)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1m05s", formatDuration(65e9))
	assert.Equal(t, "2h00m01s", formatDuration(7201e9))
}
