package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/experiment"
)

// GridSearch evaluates every combination of option values and keeps the one
// that minimises a result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameters and %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs base with each combination applied through config.Set. Points
// that fail or yield a non-finite metric are skipped; the returned count is
// the number of points evaluated.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, int, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	evaluated := 0

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams, &evaluated)
	if err != nil {
		return nil, 0, evaluated, err
	}
	if bestParams == nil {
		return nil, 0, evaluated, fmt.Errorf("no grid point produced %s", metricName)
	}
	return bestParams, best, evaluated, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	evaluated *int,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for k, v := range current {
			if err := cfg.Set(k, v); err != nil {
				return err
			}
		}

		exp := experiment.New(cfg, nil)
		if err := exp.Setup(); err != nil {
			return nil
		}
		report, err := exp.Run(ctx, nil, "grid")
		if err != nil {
			return nil
		}
		*evaluated++

		val, ok := report.Result.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams, evaluated); err != nil {
			return err
		}
	}
	return nil
}
