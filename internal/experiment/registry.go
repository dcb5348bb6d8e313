package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/integrators"
	"github.com/san-kum/debrisim/internal/metrics"
	"github.com/san-kum/debrisim/internal/physics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	atmospheres map[string]func() physics.Atmosphere
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		atmospheres: make(map[string]func() physics.Atmosphere),
	}

	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }
	r.integrators["verlet-symmetric"] = func() dynamo.Integrator { return integrators.NewSymmetricVerlet() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }

	r.atmospheres["exponential"] = func() physics.Atmosphere { return physics.NewExponential() }
	r.atmospheres["vacuum"] = func() physics.Atmosphere { return physics.Vacuum{} }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetAtmosphere(name string) (physics.Atmosphere, error) {
	fn, ok := r.atmospheres[name]
	if !ok {
		return nil, fmt.Errorf("unknown atmosphere: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListAtmospheres() []string {
	return sortedKeys(r.atmospheres)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model builds the force model described by cfg.
func (r *Registry) Model(cfg *config.Config) (*physics.Model, error) {
	atm, err := r.GetAtmosphere(cfg.Atmosphere)
	if err != nil {
		return nil, err
	}
	return &physics.Model{
		G:               cfg.GravitationalConstant,
		SurfaceRadius:   cfg.SurfaceRadius,
		DragCoefficient: cfg.Drag.Coefficient,
		Area:            cfg.Drag.Area,
		Atmosphere:      atm,
	}, nil
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergyDrift(cfg.GravitationalConstant),
		metrics.NewMinAltitude(cfg.SurfaceRadius),
	}
}
