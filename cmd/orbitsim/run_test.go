package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
)

func pairConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Preset = "pair"
	require.NoError(t, cfg.Resolve())
	return cfg
}

func TestRecordWritesRun(t *testing.T) {
	cfg := pairConfig(t)
	st := storage.New(t.TempDir())
	require.NoError(t, st.Init())

	res, err := record(context.Background(), cfg, 5, st, zap.NewNop(), sim.WithClock(unpacedClock{}))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Meta.Frames)
	assert.Equal(t, 0, res.Meta.Stopped)
	// the driver may have advanced past the last recorded frame
	assert.GreaterOrEqual(t, res.Stats.Steps, uint64(5*200))
	assert.Zero(t, res.Stats.Steps%200)
	assert.Contains(t, res.Meta.Metrics, "energy_drift")

	states, err := st.LoadStates(res.Meta.ID)
	require.NoError(t, err)
	require.Len(t, states, 5)

	initial := cfg.InitialState()
	assert.Equal(t, initial.Bodies, states[0].Bodies)
	for i := range states {
		assert.Equal(t, time.Duration(i)*20*time.Millisecond, states[i].Elapsed)
	}
}

func TestRecordInterrupted(t *testing.T) {
	cfg := pairConfig(t)
	st := storage.New(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := record(ctx, cfg, 1000, st, zap.NewNop(), sim.WithClock(unpacedClock{}))
	require.NoError(t, err)
	assert.Less(t, res.Meta.Frames, 1000)

	_, err = st.Load(res.Meta.ID)
	assert.NoError(t, err)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "")
	cmd.Flags().Float64Var(&fps, "fps", sim.DefaultTargetFPS, "")
	cmd.Flags().Float64Var(&step, "step", sim.DefaultStep, "")
	cmd.Flags().Float64Var(&softening, "softening", 10, "")
	return cmd
}

func TestLoadConfig(t *testing.T) {
	configFile = ""

	cmd := newConfigCmd()
	require.NoError(t, cmd.Flags().Set("speed", "2.5"))

	cfg, err := loadConfig(cmd, []string{"binary"})
	require.NoError(t, err)
	assert.Equal(t, "binary", cfg.Preset)
	assert.Len(t, cfg.Bodies, 2)
	assert.Equal(t, 2.5, cfg.Speed)
	assert.Equal(t, sim.DefaultTargetFPS, cfg.TargetFPS)

	cfg, err = loadConfig(newConfigCmd(), nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPreset, cfg.Preset)
	assert.Len(t, cfg.Bodies, 3)
}

func TestLoadConfigRejects(t *testing.T) {
	configFile = ""

	_, err := loadConfig(newConfigCmd(), []string{"nope"})
	assert.ErrorContains(t, err, "unknown preset")

	cmd := newConfigCmd()
	require.NoError(t, cmd.Flags().Set("speed", "25"))
	_, err = loadConfig(cmd, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

type failingCloser struct{ err error }

func (f failingCloser) ID() string { return "abc12345" }

func (f failingCloser) Close(map[string]float64) (*storage.RunMetadata, error) {
	return nil, f.err
}

func TestAbandonKeepsCloseError(t *testing.T) {
	runErr := errors.New("recorder failed")
	closeErr := errors.New("disk full")
	core, logs := observer.New(zapcore.ErrorLevel)

	err := abandon(failingCloser{closeErr}, nil, runErr, zap.New(core))
	assert.ErrorIs(t, err, runErr)
	assert.ErrorIs(t, err, closeErr)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc12345", logs.All()[0].ContextMap()["run_id"])

	err = abandon(failingCloser{}, nil, runErr, zap.New(core))
	assert.Equal(t, runErr, err)
	assert.Equal(t, 1, logs.Len())
}
