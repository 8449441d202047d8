// Package automation runs batches of headless trials straight on the kernel,
// without a driver or pacing. It answers questions such as how often a
// preset survives small changes to its initial positions.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/physics"
)

const (
	// StepsPerSample is how often a trial is checked and observed, one
	// frame's worth of steps at the default rate.
	StepsPerSample = 200
	// escapeFactor sizes the default escape radius from the initial layout.
	escapeFactor = 10.0
)

// Scenario defines a scripted sequence of stability studies.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Steps       []MonteCarloConfig `yaml:"steps"`
}

// MonteCarloConfig defines one stability study of a preset.
type MonteCarloConfig struct {
	Preset string `yaml:"preset"`
	// Perturbation is the largest offset added to each position
	// coordinate, in meters.
	Perturbation float64 `yaml:"perturbation"`
	Trials       int     `yaml:"trials"`
	// Duration is simulated time per trial, in seconds.
	Duration float64 `yaml:"duration"`
	// Escape is the distance from the initial center of mass past which a
	// body counts as lost. Zero picks ten times the initial extent.
	Escape  float64 `yaml:"escape"`
	Seed    int64   `yaml:"seed"`
	Workers int     `yaml:"workers"`
}

// MonteCarloResult holds the outcome of one trial.
type MonteCarloResult struct {
	TrialID int
	Initial physics.State
	Final   physics.State
	// Stable is false once a body escapes or the state stops being finite.
	Stable  bool
	Metrics map[string]float64
}

// Runner integrates trials with a fixed kernel and step.
type Runner struct {
	Kernel physics.Kernel
	Step   float64
	Log    *zap.Logger
}

func NewRunner(k physics.Kernel, step float64, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Kernel: k, Step: step, Log: log}
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}

	return &scenario, nil
}

// RunScenario executes all steps in a scenario, in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([][]MonteCarloResult, error) {
	results := make([][]MonteCarloResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.Log.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("preset", step.Preset))

		res, err := r.RunMonteCarlo(ctx, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, res)
	}

	return results, nil
}

// RunMonteCarlo runs cfg.Trials perturbed copies of the preset in parallel.
// Perturbations are drawn up front, so a seed gives the same trials for any
// number of workers.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	bodies := config.GetPreset(cfg.Preset)
	if bodies == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalid, cfg.Preset)
	}
	if cfg.Trials <= 0 || !(cfg.Duration > 0) || cfg.Perturbation < 0 {
		return nil, fmt.Errorf("%w: trials and duration must be positive", config.ErrInvalid)
	}

	base := physics.NewState()
	for _, b := range bodies {
		base.Bodies = append(base.Bodies, b.Body())
	}
	center := physics.CenterOfMass(base.Bodies)
	escape := cfg.Escape
	if escape <= 0 {
		escape = escapeFactor * extent(base, center)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	initial := make([]physics.State, cfg.Trials)
	for i := range initial {
		initial[i] = Perturb(base, cfg.Perturbation, rng)
	}

	steps := int(math.Round(cfg.Duration / r.Step))
	results := make([]MonteCarloResult, cfg.Trials)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range initial {
		i := i
		g.Go(func() error {
			res, err := r.trial(ctx, initial[i], steps, center, escape)
			if err != nil {
				return err
			}
			res.TrialID = i
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stable, unstable := MonteCarloStats(results)
	r.Log.Info("monte carlo finished",
		zap.String("preset", cfg.Preset),
		zap.Int64("seed", seed),
		zap.Int("stable", stable),
		zap.Int("unstable", unstable))
	return results, nil
}

func (r *Runner) trial(ctx context.Context, s physics.State, steps int, center physics.Vec2, escape float64) (MonteCarloResult, error) {
	res := MonteCarloResult{Initial: s.Clone(), Stable: true}
	set := metrics.Defaults(r.Kernel)
	set.Observe(s)

	for done := 0; done < steps; {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !s.IsValid() || extent(s, center) > escape {
			res.Stable = false
			break
		}
		n := min(StepsPerSample, steps-done)
		s = r.Kernel.AdvanceN(s, r.Step, n)
		done += n
		s.Elapsed = time.Duration(math.Round(float64(done) * r.Step * float64(time.Second)))
		set.Observe(s)
	}
	if res.Stable && (!s.IsValid() || extent(s, center) > escape) {
		res.Stable = false
	}

	res.Final = s
	res.Metrics = set.Values()
	return res, nil
}

// Perturb returns a copy of s with each position coordinate moved by up to
// amount in either direction.
func Perturb(s physics.State, amount float64, rng *rand.Rand) physics.State {
	out := s.Clone()
	for i := range out.Bodies {
		dx := (rng.Float64() - 0.5) * 2 * amount
		dy := (rng.Float64() - 0.5) * 2 * amount
		out.Bodies[i].Position = out.Bodies[i].Position.Add(physics.V(dx, dy))
	}
	return out
}

// extent is the largest distance of any body from center.
func extent(s physics.State, center physics.Vec2) float64 {
	var d float64
	for _, b := range s.Bodies {
		d = max(d, b.Position.Sub(center).Norm())
	}
	return d
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
